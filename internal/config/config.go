package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port              string        `mapstructure:"PORT"`
	Env               string        `mapstructure:"ENV"`
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	DBMaxConns        int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns        int32         `mapstructure:"DB_MIN_CONNS"`
	JWTSecret         string        `mapstructure:"JWT_SECRET"`
	CORSOrigins       []string      `mapstructure:"CORS_ORIGINS"`
	TerminologyURL    string        `mapstructure:"TERMINOLOGY_URL"`
	EventWorkers      int           `mapstructure:"EVENT_WORKERS"`
	EventPollInterval time.Duration `mapstructure:"EVENT_POLL_INTERVAL"`
	EventRetryDelay   time.Duration `mapstructure:"EVENT_RETRY_DELAY"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("EVENT_WORKERS", 2)
	v.SetDefault("EVENT_POLL_INTERVAL", "5s")
	v.SetDefault("EVENT_RETRY_DELAY", "60s")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("TERMINOLOGY_URL")
	v.BindEnv("EVENT_WORKERS")
	v.BindEnv("EVENT_POLL_INTERVAL")
	v.BindEnv("EVENT_RETRY_DELAY")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is safe to run. Outside of
// development mode a JWT secret is required so that real authentication
// is enforced.
func (c *Config) Validate() error {
	if !c.IsDev() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when ENV is not development")
	}
	if c.EventWorkers < 0 {
		return fmt.Errorf("EVENT_WORKERS must be >= 0, got %d", c.EventWorkers)
	}
	if c.EventPollInterval <= 0 {
		return fmt.Errorf("EVENT_POLL_INTERVAL must be positive, got %s", c.EventPollInterval)
	}
	if c.EventRetryDelay <= 0 {
		return fmt.Errorf("EVENT_RETRY_DELAY must be positive, got %s", c.EventRetryDelay)
	}
	return nil
}
