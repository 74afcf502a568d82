// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

// Package config loads Inventra settings from defaults, a YAML file,
// command-line flags and the environment, in that order of precedence.
package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/inventra/inventra/internal/auth"
	"github.com/inventra/inventra/internal/logging"
)

// Environment names.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Environment variables read after all other sources.
const (
	EnvDatabaseURL = "DATABASE_URL"
	EnvJWTSecret   = "INVENTRA_JWT_SECRET"
)

// MinProductionSecretLen is the shortest signing secret accepted in production.
const MinProductionSecretLen = 32

// Config is the immutable process configuration.
type Config struct {
	Environment string          `koanf:"environment"`
	HTTP        HTTPConfig      `koanf:"http"`
	Metrics     MetricsConfig   `koanf:"metrics"`
	Database    DatabaseConfig  `koanf:"database"`
	JWT         JWTConfig       `koanf:"jwt"`
	Session     SessionConfig   `koanf:"session"`
	Scrypt      ScryptConfig    `koanf:"scrypt"`
	CORS        CORSConfig      `koanf:"cors"`
	Log         LogConfig       `koanf:"log"`
	RateLimit   RateLimitConfig `koanf:"ratelimit"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr string `koanf:"addr"`
}

// MetricsConfig configures the observability listener. Empty disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// DatabaseConfig configures the PostgreSQL connection.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// JWTConfig configures bearer token signing.
type JWTConfig struct {
	Secret    string        `koanf:"secret"`
	Algorithm string        `koanf:"algorithm"`
	TTL       time.Duration `koanf:"ttl"`
}

// SessionConfig configures session lifetime.
type SessionConfig struct {
	Lifetime time.Duration `koanf:"lifetime"`
}

// ScryptConfig holds password hashing cost factors.
type ScryptConfig struct {
	N       int `koanf:"n"`
	R       int `koanf:"r"`
	P       int `koanf:"p"`
	KeyLen  int `koanf:"key_len"`
	SaltLen int `koanf:"salt_len"`
}

// CORSConfig configures cross-origin access. Origins may be glob patterns.
type CORSConfig struct {
	Origins          []string `koanf:"origins"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	Methods          []string `koanf:"methods"`
	Headers          []string `koanf:"headers"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// RateLimitConfig configures the per-client login limiter.
type RateLimitConfig struct {
	LoginRPS   float64 `koanf:"login_rps"`
	LoginBurst int     `koanf:"login_burst"`
}

func defaults() map[string]any {
	return map[string]any{
		"environment":            EnvDevelopment,
		"http.addr":              ":8000",
		"metrics.addr":           "127.0.0.1:9100",
		"database.url":           "",
		"jwt.secret":             "",
		"jwt.algorithm":          auth.DefaultTokenAlgorithm,
		"jwt.ttl":                auth.DefaultTokenTTL.String(),
		"session.lifetime":       auth.DefaultSessionLifetime.String(),
		"scrypt.n":               auth.DefaultScryptN,
		"scrypt.r":               auth.DefaultScryptR,
		"scrypt.p":               auth.DefaultScryptP,
		"scrypt.key_len":         auth.DefaultScryptKeyLen,
		"scrypt.salt_len":        auth.DefaultScryptSaltLen,
		"cors.origins":           []string{"http://localhost:3000"},
		"cors.allow_credentials": true,
		"cors.methods":           []string{"GET", "POST", "OPTIONS"},
		"cors.headers":           []string{"Authorization", "Content-Type"},
		"log.level":              "info",
		"log.format":             "json",
		"ratelimit.login_rps":    1.0,
		"ratelimit.login_burst":  5,
	}
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"environment":  "environment",
	"http-addr":    "http.addr",
	"metrics-addr": "metrics.addr",
	"database-url": "database.url",
	"log-level":    "log.level",
	"log-format":   "log.format",
}

// LoadOptions selects the sources Load reads.
type LoadOptions struct {
	// File is an optional YAML file path.
	File string

	// Flags is an optional flag set; only flags listed in flagKeys are read,
	// and unchanged flags never override earlier sources.
	Flags *pflag.FlagSet

	// Getenv reads environment variables. Nil disables the environment layer.
	Getenv func(string) string

	// SkipValidation returns the merged config without calling Validate.
	// Commands that need only the database use it and check what they read.
	SkipValidation bool
}

// Load builds a Config from the given sources and validates it.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	for key, val := range defaults() {
		if err := k.Set(key, val); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("key", key).Wrap(err)
		}
	}

	if opts.File != "" {
		if err := k.Load(file.Provider(opts.File), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("operation", "read config file").
				With("file", opts.File).
				Wrap(err)
		}
	}

	if opts.Flags != nil {
		provider := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("operation", "read flags").Wrap(err)
		}
	}

	if opts.Getenv != nil {
		for env, key := range map[string]string{EnvDatabaseURL: "database.url", EnvJWTSecret: "jwt.secret"} {
			if v := opts.Getenv(env); v != "" {
				if err := k.Set(key, v); err != nil {
					return nil, oops.Code("CONFIG_LOAD_FAILED").With("env", env).Wrap(err)
				}
			}
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("operation", "decode config").Wrap(err)
	}
	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))

	if opts.SkipValidation {
		return &cfg, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction reports whether the production rules apply.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// LogLevel returns the parsed log level. Validate guarantees it parses.
func (c *Config) LogLevel() slog.Level {
	level, _ := logging.ParseLevel(c.Log.Level) //nolint:errcheck // checked by Validate
	return level
}

// HasherParams returns the scrypt parameters for auth.NewScryptHasher.
func (c *Config) HasherParams() auth.HasherParams {
	return auth.HasherParams{
		N:       c.Scrypt.N,
		R:       c.Scrypt.R,
		P:       c.Scrypt.P,
		KeyLen:  c.Scrypt.KeyLen,
		SaltLen: c.Scrypt.SaltLen,
	}
}

// TokenIssuerConfig returns the settings for auth.NewTokenIssuer.
func (c *Config) TokenIssuerConfig() auth.TokenIssuerConfig {
	return auth.TokenIssuerConfig{
		Secret:     c.JWT.Secret,
		Algorithm:  c.JWT.Algorithm,
		DefaultTTL: c.JWT.TTL,
	}
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	invalid := func(field string) oops.OopsErrorBuilder {
		return oops.Code("CONFIG_INVALID").With("field", field)
	}

	switch c.Environment {
	case EnvDevelopment, EnvProduction, "test":
	default:
		return invalid("environment").Errorf("unknown environment %q", c.Environment)
	}
	if c.Database.URL == "" {
		return invalid("database.url").Errorf("database URL is required (set %s)", EnvDatabaseURL)
	}
	if c.JWT.Secret == "" {
		return invalid("jwt.secret").Errorf("JWT secret is required (set %s)", EnvJWTSecret)
	}
	if c.IsProduction() && len(c.JWT.Secret) < MinProductionSecretLen {
		return invalid("jwt.secret").Errorf("JWT secret must be at least %d characters in production", MinProductionSecretLen)
	}
	switch c.JWT.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return invalid("jwt.algorithm").Errorf("unsupported JWT algorithm %q", c.JWT.Algorithm)
	}
	if c.JWT.TTL <= 0 {
		return invalid("jwt.ttl").Errorf("JWT ttl must be positive")
	}
	if c.Session.Lifetime <= 0 {
		return invalid("session.lifetime").Errorf("session lifetime must be positive")
	}
	if err := c.HasherParams().Validate(); err != nil {
		return invalid("scrypt").Wrap(err)
	}
	if c.IsProduction() {
		for _, origin := range c.CORS.Origins {
			if strings.Contains(origin, "*") {
				return invalid("cors.origins").Errorf("wildcard CORS origin %q is not allowed in production", origin)
			}
		}
	}
	if c.HTTP.Addr == "" {
		return invalid("http.addr").Errorf("HTTP listen address is required")
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return invalid("log.format").Errorf("log format must be json or text, got %q", c.Log.Format)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.RateLimit.LoginRPS < 0 || c.RateLimit.LoginBurst < 0 {
		return invalid("ratelimit").Errorf("rate limit values cannot be negative")
	}
	return nil
}
