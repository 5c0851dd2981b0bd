package config

import "time"

// Dialects accepted by decompiler.dialect.
const (
	DialectScript = "script"
	DialectGo     = "go"
)

const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"

	DefaultPrefix    = "v"
	DefaultDialect   = DialectScript
	DefaultGoPackage = "structures"
	DefaultGoFunc    = "Build"

	DefaultBatchConcurrency = 4

	DefaultCacheAddr        = "localhost:6379"
	DefaultCacheTTL         = 24 * time.Hour
	DefaultCacheKeyPrefix   = "smiles:report:"
	DefaultCacheDialTimeout = 5 * time.Second

	DefaultMetricsNamespace = "smiles"
)

// ApplyDefaults fills zero-value fields; explicit values win. Booleans and
// cache.db have no distinguishable unset state and are left alone.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	if cfg.Decompiler.Prefix == "" {
		cfg.Decompiler.Prefix = DefaultPrefix
	}
	if cfg.Decompiler.Dialect == "" {
		cfg.Decompiler.Dialect = DefaultDialect
	}
	if cfg.Decompiler.GoPackage == "" {
		cfg.Decompiler.GoPackage = DefaultGoPackage
	}
	if cfg.Decompiler.GoFunc == "" {
		cfg.Decompiler.GoFunc = DefaultGoFunc
	}

	if cfg.Batch.Concurrency == 0 {
		cfg.Batch.Concurrency = DefaultBatchConcurrency
	}

	if cfg.Cache.Addr == "" {
		cfg.Cache.Addr = DefaultCacheAddr
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = DefaultCacheTTL
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = DefaultCacheKeyPrefix
	}
	if cfg.Cache.DialTimeout == 0 {
		cfg.Cache.DialTimeout = DefaultCacheDialTimeout
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
}

// Default returns a Config with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
