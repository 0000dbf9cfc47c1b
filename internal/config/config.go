package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Config holds all configuration for the bookly service. It is loaded once at
// startup and must not be mutated afterwards.
type Config struct {
	ServerPort int `mapstructure:"SERVER_PORT"`
	// MetricsPort serves /metrics and /healthz for the mail worker.
	MetricsPort int `mapstructure:"METRICS_PORT"`

	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     int    `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	NatsURL string `mapstructure:"NATS_URL"`

	JWTSecret       string        `mapstructure:"JWT_SECRET"`
	JWTAlgorithm    string        `mapstructure:"JWT_ALGORITHM"`
	AccessTokenTTL  time.Duration `mapstructure:"ACCESS_TOKEN_TTL"`
	RefreshTokenTTL time.Duration `mapstructure:"REFRESH_TOKEN_TTL"`
	RevocationTTL   time.Duration `mapstructure:"REVOCATION_TTL"`
	LinkTokenTTL    time.Duration `mapstructure:"LINK_TOKEN_TTL"`
	BcryptCost      int           `mapstructure:"BCRYPT_COST"`

	// LoginRequiresVerified rejects logins from accounts that have not
	// confirmed their email address.
	LoginRequiresVerified bool `mapstructure:"LOGIN_REQUIRES_VERIFIED"`
	// RoleGateRequiresVerified makes every role-gated route reject
	// unverified accounts before checking the role.
	RoleGateRequiresVerified bool `mapstructure:"ROLE_GATE_REQUIRES_VERIFIED"`

	PublicBaseURL string `mapstructure:"PUBLIC_BASE_URL"`

	RateLimit       int           `mapstructure:"RATE_LIMIT"`
	RateLimitWindow time.Duration `mapstructure:"RATE_LIMIT_WINDOW"`

	MailHost     string `mapstructure:"MAIL_HOST"`
	MailPort     int    `mapstructure:"MAIL_PORT"`
	MailUsername string `mapstructure:"MAIL_USERNAME"`
	MailPassword string `mapstructure:"MAIL_PASSWORD"`
	MailFrom     string `mapstructure:"MAIL_FROM"`
	MailFromName string `mapstructure:"MAIL_FROM_NAME"`
}

var defaults = map[string]interface{}{
	"SERVER_PORT":                 8080,
	"METRICS_PORT":                9091,
	"DB_HOST":                     "localhost",
	"DB_PORT":                     5432,
	"DB_USER":                     "postgres",
	"DB_PASSWORD":                 "postgres",
	"DB_NAME":                     "bookly",
	"REDIS_ADDR":                  "localhost:6379",
	"REDIS_PASSWORD":              "",
	"REDIS_DB":                    0,
	"NATS_URL":                    "nats://localhost:4222",
	"JWT_SECRET":                  "change-me-in-production",
	"JWT_ALGORITHM":               "HS256",
	"ACCESS_TOKEN_TTL":            24 * time.Hour,
	"REFRESH_TOKEN_TTL":           48 * time.Hour,
	"REVOCATION_TTL":              48 * time.Hour,
	"LINK_TOKEN_TTL":              time.Hour,
	"BCRYPT_COST":                 12,
	"LOGIN_REQUIRES_VERIFIED":     false,
	"ROLE_GATE_REQUIRES_VERIFIED": true,
	"PUBLIC_BASE_URL":             "http://localhost:8080",
	"RATE_LIMIT":                  60,
	"RATE_LIMIT_WINDOW":           time.Minute,
	"MAIL_HOST":                   "localhost",
	"MAIL_PORT":                   587,
	"MAIL_USERNAME":               "",
	"MAIL_PASSWORD":               "",
	"MAIL_FROM":                   "no-reply@bookly.local",
	"MAIL_FROM_NAME":              "Bookly",
}

// Load reads configuration from an optional .env file and the environment.
// Environment variables win over the file.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // a missing .env is fine

	v.AutomaticEnv()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("config: unsupported JWT_ALGORITHM %q", c.JWTAlgorithm)
	}
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET must be set")
	}
	if c.AccessTokenTTL <= 0 {
		return errors.New("config: ACCESS_TOKEN_TTL must be positive")
	}
	if c.RefreshTokenTTL <= c.AccessTokenTTL {
		return errors.New("config: REFRESH_TOKEN_TTL must be greater than ACCESS_TOKEN_TTL")
	}
	if c.RevocationTTL < c.RefreshTokenTTL {
		return errors.New("config: REVOCATION_TTL must be at least REFRESH_TOKEN_TTL")
	}
	if c.LinkTokenTTL <= 0 {
		return errors.New("config: LINK_TOKEN_TTL must be positive")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("config: BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.RateLimit <= 0 || c.RateLimitWindow <= 0 {
		return errors.New("config: RATE_LIMIT and RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}
