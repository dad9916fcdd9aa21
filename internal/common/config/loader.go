// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml (optional), merges config.<APP_ENVIRONMENT>.yaml
// when present, and applies environment overrides such as MODEL_PATH or SERVER_PORT.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finalize(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finalize(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func finalize(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it even when
// no config file exists.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "house-price-api")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", 10000)
	v.SetDefault("server.write_timeout", 10000)
	v.SetDefault("server.idle_timeout", 120000)
	v.SetDefault("server.shutdown_timeout", 15000)
	v.SetDefault("server.max_body_bytes", 1<<20)

	v.SetDefault("model.type", "linear_regression")
	v.SetDefault("model.path", "house_price_model.json")

	v.SetDefault("features.missing_policy", MissingPolicyDefaultZero)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.address", "localhost:6379")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", 300)
	v.SetDefault("cache.prefix", "prediction:")

	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.postgres.host", "localhost")
	v.SetDefault("audit.postgres.port", 5432)
	v.SetDefault("audit.postgres.database", "house_prices")
	v.SetDefault("audit.postgres.user", "")
	v.SetDefault("audit.postgres.password", "")
	v.SetDefault("audit.postgres.max_connections", 10)
	v.SetDefault("audit.postgres.max_idle", 2)
	v.SetDefault("audit.postgres.sslmode", "disable")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("observability.service_name", "house-price-api")
	v.SetDefault("observability.metrics_enabled", true)
	v.SetDefault("observability.jaeger_endpoint", "")
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// applyDefaults covers values explicitly zeroed in a config file.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15000
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		cfg.Server.MaxBodyBytes = 1 << 20
	}
	if cfg.Features.MissingPolicy == "" {
		cfg.Features.MissingPolicy = MissingPolicyDefaultZero
	}
	cfg.Features.MissingPolicy = strings.ToLower(cfg.Features.MissingPolicy)
	if cfg.Cache.TTL <= 0 {
		cfg.Cache.TTL = 300
	}
	if cfg.Audit.Postgres.SSLMode == "" {
		cfg.Audit.Postgres.SSLMode = "disable"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = cfg.App.Name
	}
}

// validateConfig checks the settings the server cannot start without.
// A missing model file is deliberately not checked here: that condition is
// reported through /health instead.
func validateConfig(cfg *Config) error {
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}
	if cfg.Model.Path == "" {
		return fmt.Errorf("model.path is required")
	}
	switch cfg.Features.MissingPolicy {
	case MissingPolicyDefaultZero, MissingPolicyStrict:
	default:
		return fmt.Errorf("features.missing_policy must be %q or %q, got %q",
			MissingPolicyDefaultZero, MissingPolicyStrict, cfg.Features.MissingPolicy)
	}
	if cfg.Cache.Enabled && cfg.Cache.Address == "" {
		return fmt.Errorf("cache.address is required when cache is enabled")
	}
	if cfg.Audit.Enabled {
		if cfg.Audit.Postgres.Host == "" {
			return fmt.Errorf("audit.postgres.host is required when audit is enabled")
		}
		if cfg.Audit.Postgres.Database == "" {
			return fmt.Errorf("audit.postgres.database is required when audit is enabled")
		}
		if cfg.Audit.Postgres.User == "" {
			return fmt.Errorf("audit.postgres.user is required when audit is enabled")
		}
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
