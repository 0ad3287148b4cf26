package config

import (
	"fmt"
	"log"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreDriverMemory   = "memory"
	StoreDriverPostgres = "postgres"
)

// Config holds application configuration.
type Config struct {
	Port         string
	IsProduction bool
	LogLevel     slog.Level

	StoreDriver    string
	DatabaseURL    string
	MigrationsPath string

	JWTSecret         string
	JWTIssuer         string
	JWTExpiryDuration time.Duration

	NATSURL       string
	NotifyTimeout time.Duration

	RateLimit       string `mapstructure:"RATE_LIMIT"` // ulule/limiter formatted rate, e.g. "100-M"
	FrontendBaseURL string `mapstructure:"FRONTEND_BASE_URL"`
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", StoreDriverMemory)
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	v.SetDefault("JWT_ISSUER", "school-workflow-app")
	v.SetDefault("JWT_EXPIRY_DURATION", "1h")
	v.SetDefault("NATS_URL", "")
	v.SetDefault("NOTIFY_TIMEOUT", "2s")
	v.SetDefault("RATE_LIMIT", "100-M")
	v.SetDefault("FRONTEND_BASE_URL", "http://localhost:3000")

	// Values from .env are already in the environment; real environment variables win.
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:            v.GetString("PORT"),
		IsProduction:    v.GetBool("IS_PRODUCTION"),
		StoreDriver:     strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER"))),
		DatabaseURL:     v.GetString("PGSQL_URL"),
		MigrationsPath:  v.GetString("MIGRATIONS_PATH"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		JWTIssuer:       v.GetString("JWT_ISSUER"),
		NATSURL:         v.GetString("NATS_URL"),
		RateLimit:       v.GetString("RATE_LIMIT"),
		FrontendBaseURL: v.GetString("FRONTEND_BASE_URL"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("LOG_LEVEL"))); err != nil {
		log.Printf("Warning: Invalid value for LOG_LEVEL ('%s'). Defaulting to info.\n", v.GetString("LOG_LEVEL"))
		cfg.LogLevel = slog.LevelInfo
	}

	switch cfg.StoreDriver {
	case StoreDriverMemory:
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("PGSQL_URL is required when STORE_DRIVER is %q", StoreDriverPostgres)
		}
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q (want %q or %q)", cfg.StoreDriver, StoreDriverMemory, StoreDriverPostgres)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must not be empty")
	}
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		if cfg.IsProduction {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	cfg.JWTExpiryDuration = parseDuration(v, "JWT_EXPIRY_DURATION", time.Hour)
	cfg.NotifyTimeout = parseDuration(v, "NOTIFY_TIMEOUT", 2*time.Second)

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback)
		}
		return fallback
	}
	return d
}
