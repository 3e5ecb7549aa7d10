// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"

	"github.com/olegiv/lcms-go/internal/scheduler"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"your-secret-key",
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath      string        `env:"LCMS_DB_PATH" envDefault:"./data/lcms.db"`
	JWTSecret   string        `env:"LCMS_JWT_SECRET,required"`
	TokenTTL    time.Duration `env:"LCMS_TOKEN_TTL" envDefault:"24h"`
	TokenIssuer string        `env:"LCMS_TOKEN_ISSUER" envDefault:"lcms"`
	ServerHost  string        `env:"LCMS_SERVER_HOST" envDefault:"localhost"`
	ServerPort  int           `env:"LCMS_SERVER_PORT" envDefault:"5000"`
	Env         string        `env:"LCMS_ENV" envDefault:"development"`
	LogLevel    string        `env:"LCMS_LOG_LEVEL" envDefault:"info"`

	CORSOrigins []string `env:"LCMS_CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:3000"`

	// Cache configuration
	RedisURL     string        `env:"LCMS_REDIS_URL"`                        // Optional Redis URL for distributed caching
	CachePrefix  string        `env:"LCMS_CACHE_PREFIX" envDefault:"lcms:"`  // Redis key prefix
	CacheTTL     time.Duration `env:"LCMS_CACHE_TTL" envDefault:"5m"`        // Lesson read cache TTL
	CacheMaxSize int           `env:"LCMS_CACHE_MAX_SIZE" envDefault:"1000"` // Max memory cache entries

	// Request limits
	RequestTimeout   time.Duration `env:"LCMS_REQUEST_TIMEOUT" envDefault:"30s"`
	APIRateLimit     float64       `env:"LCMS_API_RATE_LIMIT" envDefault:"20"`    // requests per second per IP
	ContactRateLimit int           `env:"LCMS_CONTACT_RATE_LIMIT" envDefault:"5"` // submissions per minute per IP

	// Cron expression for SQLite maintenance (WAL checkpoint, optimize); "off" disables
	MaintenanceSchedule string `env:"LCMS_MAINTENANCE_SCHEDULE" envDefault:"@daily"`

	// Seeding configuration
	DoSeed           bool   `env:"LCMS_DO_SEED" envDefault:"false"`
	AdminEmail       string `env:"LCMS_ADMIN_EMAIL" envDefault:"admin@learningcenter.com"`
	AdminUsername    string `env:"LCMS_ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword    string `env:"LCMS_ADMIN_PASSWORD"`
	SeedSampleLesson bool   `env:"LCMS_SEED_SAMPLE_LESSON" envDefault:"false"`

	// Routes that were historically reachable without a token.
	LegacyPublicLessonCreate bool `env:"LCMS_LEGACY_PUBLIC_LESSON_CREATE" envDefault:"false"`
	LegacyPublicContactList  bool `env:"LCMS_LEGACY_PUBLIC_CONTACT_LIST" envDefault:"false"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// MaintenanceEnabled reports whether the database maintenance job should run.
func (c Config) MaintenanceEnabled() bool {
	return c.MaintenanceSchedule != "off"
}

// MinJWTSecretLength is the minimum required length for the token signing secret.
// HS256 keys shorter than the hash output weaken the signature.
const MinJWTSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(cfg.JWTSecret) {
		slog.Warn("LCMS_JWT_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

func (c *Config) validate() error {
	for _, weak := range knownWeakSecrets {
		if c.JWTSecret == weak {
			return errors.New("LCMS_JWT_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if len(c.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf("LCMS_JWT_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinJWTSecretLength, len(c.JWTSecret))
	}

	if c.TokenTTL <= 0 {
		return fmt.Errorf("LCMS_TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}

	if c.DoSeed && c.AdminPassword == "" {
		return errors.New("LCMS_ADMIN_PASSWORD is required when LCMS_DO_SEED is enabled")
	}

	if c.RedisURL != "" {
		if _, err := redis.ParseURL(c.RedisURL); err != nil {
			return fmt.Errorf("LCMS_REDIS_URL is invalid: %w", err)
		}
	}

	if c.MaintenanceEnabled() {
		if err := scheduler.ValidateSchedule(c.MaintenanceSchedule); err != nil {
			return fmt.Errorf("LCMS_MAINTENANCE_SCHEDULE: %w", err)
		}
	}

	origins := c.CORSOrigins[:0]
	for _, o := range c.CORSOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.CORSOrigins = origins

	return nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
