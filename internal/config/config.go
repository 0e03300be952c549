package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName          string
	AppEnv           string
	AppPort          string
	DatabaseURL      string
	RedisURL         string
	JWTSecret        string
	GradeCacheTTL    time.Duration
	AttemptGrace     time.Duration
	DefaultDueTime   string
	DefaultReviewers int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ARAL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Aral API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("grades.cache_ttl", "5m")
	v.SetDefault("attempt.grace_seconds", 30)
	v.SetDefault("activity.due_time", "23:59")
	v.SetDefault("peer_review.default_reviewers", 3)

	ttlString := v.GetString("grades.cache_ttl")
	if ttlString == "" {
		ttlString = "5m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid grade cache ttl: %w", err)
	}

	graceSeconds := v.GetInt("attempt.grace_seconds")
	if graceSeconds < 0 {
		graceSeconds = 0
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		DatabaseURL:      v.GetString("database.url"),
		RedisURL:         v.GetString("redis.url"),
		JWTSecret:        v.GetString("jwt.secret"),
		GradeCacheTTL:    ttl,
		AttemptGrace:     time.Duration(graceSeconds) * time.Second,
		DefaultDueTime:   v.GetString("activity.due_time"),
		DefaultReviewers: v.GetInt("peer_review.default_reviewers"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.DefaultReviewers <= 0 {
		cfg.DefaultReviewers = 3
	}

	return cfg, nil
}
