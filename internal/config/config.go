// Package config defines the configuration of the smiles toolchain. Only
// plain data types and validation live here; loading is in loader.go.
package config

import (
	"time"

	"github.com/turtacn/smiles-algebra/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/smiles-algebra/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// DecompilerConfig controls what `smiles code` and the analysis service emit.
type DecompilerConfig struct {
	// Prefix names the generated bindings (v1, v2, ...).
	Prefix string `mapstructure:"prefix"`
	// Dialect is "script" for build scripts or "go" for Go source.
	Dialect string `mapstructure:"dialect"`
	// GoPackage and GoFunc shape the "go" dialect.
	GoPackage string `mapstructure:"go_package"`
	GoFunc    string `mapstructure:"go_func"`
}

// BatchConfig bounds the batch runner.
type BatchConfig struct {
	Concurrency int  `mapstructure:"concurrency"`
	FailFast    bool `mapstructure:"fail_fast"`
}

// CacheConfig holds the Redis report cache parameters. The cache is off
// unless Enabled is set.
type CacheConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	TTL         time.Duration `mapstructure:"ttl"`
	KeyPrefix   string        `mapstructure:"key_prefix"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// MetricsConfig controls the Prometheus collector.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration.
type Config struct {
	Log        logging.LogConfig `mapstructure:"log"`
	Decompiler DecompilerConfig  `mapstructure:"decompiler"`
	Batch      BatchConfig       `mapstructure:"batch"`
	Cache      CacheConfig       `mapstructure:"cache"`
	Metrics    MetricsConfig     `mapstructure:"metrics"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

func invalid(format string, args ...interface{}) error {
	return errors.Newf(errors.ErrCodeConfig, format, args...)
}

// Validate checks a fully-defaulted Config and returns the first problem.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return invalid("log.format %q is invalid; expected json|console", c.Log.Format)
	}

	switch c.Decompiler.Dialect {
	case DialectScript, DialectGo:
	default:
		return invalid("decompiler.dialect %q is invalid; expected script|go", c.Decompiler.Dialect)
	}
	if !isIdent(c.Decompiler.Prefix) {
		return invalid("decompiler.prefix %q is not an identifier", c.Decompiler.Prefix)
	}
	if !isIdent(c.Decompiler.GoPackage) || !isIdent(c.Decompiler.GoFunc) {
		return invalid("decompiler.go_package and decompiler.go_func must be identifiers")
	}

	if c.Batch.Concurrency < 1 {
		return invalid("batch.concurrency must be >= 1, got %d", c.Batch.Concurrency)
	}

	if c.Cache.Enabled {
		if c.Cache.Addr == "" {
			return invalid("cache.addr is required when the cache is enabled")
		}
		if c.Cache.DB < 0 {
			return invalid("cache.db must be >= 0, got %d", c.Cache.DB)
		}
		if c.Cache.TTL <= 0 {
			return invalid("cache.ttl must be positive, got %s", c.Cache.TTL)
		}
	}

	if c.Metrics.Enabled && !isIdent(c.Metrics.Namespace) {
		return invalid("metrics.namespace %q is not a valid metric prefix", c.Metrics.Namespace)
	}
	return nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
