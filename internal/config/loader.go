package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/turtacn/smiles-algebra/pkg/errors"
)

// EnvPrefix prefixes every environment override, e.g. SMILES_CACHE_ADDR.
const EnvPrefix = "SMILES"

// keys lists every setting so AutomaticEnv can see variables for keys no
// config file mentions.
var keys = []string{
	"log.level", "log.format", "log.output",
	"decompiler.prefix", "decompiler.dialect", "decompiler.go_package", "decompiler.go_func",
	"batch.concurrency", "batch.fail_fast",
	"cache.enabled", "cache.addr", "cache.password", "cache.db", "cache.ttl",
	"cache.key_prefix", "cache.dial_timeout",
	"metrics.enabled", "metrics.namespace",
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
	return v
}

// Load reads the YAML file at path, applies SMILES_* overrides and defaults,
// and validates the result. An empty path behaves like LoadFromEnv.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfig, "cannot read config file "+path)
		}
	}
	return finalize(v)
}

// LoadFromEnv builds a Config from SMILES_* environment variables alone.
func LoadFromEnv() (*Config, error) {
	return finalize(newViper())
}

func finalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfig, "cannot decode configuration")
	}
	ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
