// Package config handles configuration for the account service: defaults,
// environment (with an optional .env file), a JSON file overlay and
// command-line flags, applied in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Renewal token store backends.
const (
	RenewalStorePostgres = "postgres"
	RenewalStoreRedis    = "redis"
	RenewalStoreMemory   = "memory"
)

// Config holds runtime settings for the account service.
//
// Fields:
//   - WebBindHost: HTTP listen address.
//   - DatabaseDSN: PostgreSQL DSN (pgx); empty selects the in-memory store.
//   - AdminAPIKey / AdminAccountName: bootstrap administrator credentials.
//   - SecretKey: HMAC secret for signing session tokens (HS256).
//   - AccessTokenValidityDuration / RenewalTokenValidityDuration: token lifetimes.
//   - RenewalStore / RedisURL: where renewal tokens live.
type Config struct {
	WebBindHost                  string        `env:"WEB_BIND_HOST"`
	DatabaseDSN                  string        `env:"DATABASE_URL"`
	AdminAPIKey                  string        `env:"ADMIN_API_KEY"`
	AdminAccountName             string        `env:"ADMIN_ACCOUNT_NAME"`
	SecretKey                    string        `env:"JWT_SHARED_SECRET"`
	AccessTokenValidityDuration  time.Duration `env:"JWT_TTL"`
	RenewalTokenValidityDuration time.Duration `env:"RENEWAL_TOKEN_TTL"`
	RenewalStore                 string        `env:"RENEWAL_STORE"`
	RedisURL                     string        `env:"REDIS_URL"`
	BcryptCost                   int           `env:"BCRYPT_COST"`
	LogLevel                     string        `env:"LOG_LEVEL"`
	LogFormat                    string        `env:"LOG_FORMAT"`
}

// LoadDefaults populates Config with defaults. Secrets have none.
func (c *Config) LoadDefaults() {
	c.WebBindHost = ":8080"
	c.AdminAccountName = "admin"
	c.AccessTokenValidityDuration = 15 * time.Minute
	c.RenewalTokenValidityDuration = 24 * time.Hour
	c.BcryptCost = bcrypt.DefaultCost
	c.LogLevel = "info"
	c.LogFormat = "json"
}

// LoadConfig builds a Config from the process environment and os.Args.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load applies defaults, then the environment, then the JSON file named by
// -c/-config in args, then the flags in args, and validates the result.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	// .env is optional, mainly for local development.
	_ = godotenv.Load()

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EffectiveRenewalStore resolves an empty RenewalStore to the backend that
// follows the account storage.
func (c *Config) EffectiveRenewalStore() string {
	if c.RenewalStore != "" {
		return strings.ToLower(c.RenewalStore)
	}
	if c.DatabaseDSN != "" {
		return RenewalStorePostgres
	}
	return RenewalStoreMemory
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	if c.AdminAPIKey == "" {
		errs = append(errs, errors.New("admin API key is required (ADMIN_API_KEY or -k)"))
	}
	if c.SecretKey == "" {
		errs = append(errs, errors.New("JWT shared secret is required (JWT_SHARED_SECRET or -s)"))
	}
	if c.AdminAccountName == "" {
		errs = append(errs, errors.New("admin account name must not be empty"))
	}
	if c.WebBindHost == "" {
		errs = append(errs, errors.New("bind address must not be empty"))
	}
	if c.AccessTokenValidityDuration <= 0 {
		errs = append(errs, errors.New("JWT TTL must be positive"))
	}
	if c.RenewalTokenValidityDuration <= 0 {
		errs = append(errs, errors.New("renewal token TTL must be positive"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}

	switch c.EffectiveRenewalStore() {
	case RenewalStoreMemory:
	case RenewalStorePostgres:
		if c.DatabaseDSN == "" {
			errs = append(errs, errors.New("renewal store postgres requires DATABASE_URL"))
		}
	case RenewalStoreRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("renewal store redis requires REDIS_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown renewal store %q", c.RenewalStore))
	}

	return errors.Join(errs...)
}
