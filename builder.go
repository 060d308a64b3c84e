package sessiongate

import (
	"log/slog"

	"github.com/MrEthical07/sessiongate/jwt"
	"github.com/MrEthical07/sessiongate/provider"
	"github.com/MrEthical07/sessiongate/provider/redisprovider"
	"github.com/redis/go-redis/v9"
)

// Builder assembles a Client. It is single-use.
type Builder struct {
	config Config

	provider  provider.Provider
	redis     redis.UniversalClient
	logger    *slog.Logger
	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the configuration. Build validates it.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithProvider sets the identity provider. It takes precedence over WithRedis.
func (b *Builder) WithProvider(p provider.Provider) *Builder {
	b.provider = p
	return b
}

// WithRedis makes Build construct the Redis identity provider from Config.Provider.
// The provider is only built when Config.Provider is configured.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithLogger sets the structured logger. The default is slog.Default().
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets where audit events go when Config.Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the boot lookup latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a Client. The Client does not start
// its boot lookup until Initialize is called.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "sessiongate")

	p := b.provider
	if p == nil && b.redis != nil {
		if cfg.Provider.Configured() {
			rp, err := newRedisProvider(b.redis, cfg.Provider, logger)
			if err != nil {
				return nil, err
			}
			p = rp
		} else {
			logger.Warn("identity provider credentials missing or placeholder; redis provider disabled")
		}
	}

	client := &Client{
		config:   cfg,
		state:    NewState(),
		provider: p,
		logger:   logger,
		metrics:  NewMetrics(cfg.Metrics),
		audit:    newAuditDispatcher(cfg.Audit, b.auditSink, logger),
	}

	client.init = NewInitializer(client.state, p, logger)
	client.init.metrics = client.metrics
	client.init.audit = client.audit

	client.protected = NewProtectedGuard(client.state, cfg.Routes.LoginPath)
	client.protected.observe = client.observeGuard
	client.publicOnly = NewPublicOnlyGuard(client.state, cfg.Routes.HomePath)
	client.publicOnly.observe = client.observeGuard

	b.built = true

	return client, nil
}

func newRedisProvider(client redis.UniversalClient, cfg ProviderConfig, logger *slog.Logger) (*redisprovider.Provider, error) {
	jm, err := jwt.NewManager(jwt.Config{
		TTL:           cfg.TokenTTL,
		SigningMethod: jwt.SigningMethod(cfg.SigningMethod),
		PrivateKey:    []byte(cfg.SigningKey),
		Issuer:        cfg.Issuer,
	})
	if err != nil {
		return nil, err
	}
	return redisprovider.New(client, jm, redisprovider.Options{
		Prefix:     cfg.Prefix,
		StorageKey: cfg.StorageKey,
		Logger:     logger,
	})
}
