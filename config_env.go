package sessiongate

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ConfigFromEnv returns DefaultConfig overridden by SESSIONGATE_* environment
// variables. Unset variables keep their defaults.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
