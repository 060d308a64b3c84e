package sessiongate

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config controls routing targets, the identity provider connection, audit, and
// metrics. It is copied on Build and treated as immutable afterwards.
type Config struct {
	Routes   RoutesConfig
	Provider ProviderConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

// RoutesConfig names the paths guards redirect to.
type RoutesConfig struct {
	LoginPath    string `env:"SESSIONGATE_LOGIN_PATH"`
	HomePath     string `env:"SESSIONGATE_HOME_PATH"`
	CallbackPath string `env:"SESSIONGATE_CALLBACK_PATH"`
	// BaseURL is the externally visible origin used to build the sign-in redirect.
	BaseURL string `env:"SESSIONGATE_BASE_URL"`
}

// ProviderConfig describes the Redis-backed identity provider.
type ProviderConfig struct {
	URL           string        `env:"SESSIONGATE_PROVIDER_URL"`
	SigningKey    string        `env:"SESSIONGATE_PROVIDER_KEY"`
	SigningMethod string        `env:"SESSIONGATE_PROVIDER_SIGNING_METHOD"`
	StorageKey    string        `env:"SESSIONGATE_STORAGE_KEY"`
	Prefix        string        `env:"SESSIONGATE_REDIS_PREFIX"`
	Issuer        string        `env:"SESSIONGATE_TOKEN_ISSUER"`
	TokenTTL      time.Duration `env:"SESSIONGATE_TOKEN_TTL"`
}

// Configured reports whether both the provider URL and key are set to real values.
// Values copied from a sample env file ("https://your-project...", "your-anon-key")
// count as unset.
func (c ProviderConfig) Configured() bool {
	return !isPlaceholder(c.URL) && !isPlaceholder(c.SigningKey)
}

func isPlaceholder(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return true
	}
	return strings.Contains(strings.ToLower(v), "your-")
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool `env:"SESSIONGATE_AUDIT_ENABLED"`
	BufferSize int  `env:"SESSIONGATE_AUDIT_BUFFER"`
	DropIfFull bool `env:"SESSIONGATE_AUDIT_DROP_IF_FULL"`
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool `env:"SESSIONGATE_METRICS_ENABLED"`
	EnableLatencyHistograms bool `env:"SESSIONGATE_METRICS_LATENCY"`
}

// DefaultConfig returns the configuration used when no overrides are given.
func DefaultConfig() Config {
	return Config{
		Routes: RoutesConfig{
			LoginPath:    "/login",
			HomePath:     "/",
			CallbackPath: "/auth/callback",
		},
		Provider: ProviderConfig{
			SigningMethod: "ed25519",
			StorageKey:    "sessiongate-auth",
			Prefix:        "sg",
			TokenTTL:      time.Hour,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

// Validate checks route paths and numeric bounds. Provider credentials are not
// required; an unconfigured provider starts every visitor anonymous.
func (c *Config) Validate() error {
	for name, p := range map[string]string{
		"LoginPath":    c.Routes.LoginPath,
		"HomePath":     c.Routes.HomePath,
		"CallbackPath": c.Routes.CallbackPath,
	} {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("%w: Routes %s must start with /", ErrInvalidConfig, name)
		}
	}
	if c.Routes.LoginPath == c.Routes.HomePath {
		return fmt.Errorf("%w: Routes LoginPath and HomePath must differ", ErrInvalidConfig)
	}
	if c.Routes.BaseURL != "" {
		u, err := url.Parse(c.Routes.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: Routes BaseURL must be an absolute URL", ErrInvalidConfig)
		}
	}

	if c.Provider.SigningMethod != "ed25519" && c.Provider.SigningMethod != "hs256" {
		return fmt.Errorf("%w: unsupported Provider SigningMethod %q", ErrInvalidConfig, c.Provider.SigningMethod)
	}
	if c.Provider.TokenTTL <= 0 {
		return fmt.Errorf("%w: Provider TokenTTL must be > 0", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Provider.StorageKey) == "" {
		return fmt.Errorf("%w: Provider StorageKey must be set", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Provider.Prefix) == "" {
		return fmt.Errorf("%w: Provider Prefix must be set", ErrInvalidConfig)
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return fmt.Errorf("%w: Audit BufferSize must be > 0", ErrInvalidConfig)
	}

	return nil
}

// CallbackURL returns the absolute sign-in redirect target, or the bare callback path
// when no BaseURL is configured.
func (c *Config) CallbackURL() string {
	return strings.TrimRight(c.Routes.BaseURL, "/") + c.Routes.CallbackPath
}
