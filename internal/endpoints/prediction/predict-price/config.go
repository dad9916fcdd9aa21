package predictprice

import (
	"fmt"
	"time"

	"house-price-api/internal/common/config"
	"house-price-api/internal/features"
)

type Config struct {
	Timeout       time.Duration
	MissingPolicy features.MissingPolicy
	// ValidateSchema runs the JSON-schema check before assembly.
	ValidateSchema bool
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:       10 * time.Second,
		MissingPolicy: features.DefaultZero,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

// ConfigFromAppConfig derives the endpoint settings from the service config.
// The request timeout follows the server write timeout; strict policy turns
// schema validation on.
func ConfigFromAppConfig(appConfig *config.Config) *Config {
	cfg := DefaultConfig()
	if appConfig == nil {
		return cfg
	}
	if appConfig.Server.WriteTimeout > 0 {
		cfg.Timeout = config.GetDuration(appConfig.Server.WriteTimeout)
	}
	cfg.MissingPolicy = features.ParseMissingPolicy(appConfig.Features.MissingPolicy)
	cfg.ValidateSchema = cfg.MissingPolicy == features.Strict
	return cfg
}
