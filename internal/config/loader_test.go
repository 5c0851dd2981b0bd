package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/smiles-algebra/pkg/errors"
)

const sampleYAML = `
log:
  level: debug
  format: json
decompiler:
  prefix: frag
  dialect: go
batch:
  concurrency: 8
  fail_fast: true
cache:
  enabled: true
  addr: redis:6379
  ttl: 1h
metrics:
  enabled: true
  namespace: chem
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "smiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_File(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "frag", cfg.Decompiler.Prefix)
	assert.Equal(t, DialectGo, cfg.Decompiler.Dialect)
	assert.Equal(t, DefaultGoFunc, cfg.Decompiler.GoFunc)
	assert.Equal(t, 8, cfg.Batch.Concurrency)
	assert.True(t, cfg.Batch.FailFast)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "redis:6379", cfg.Cache.Addr)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "chem", cfg.Metrics.Namespace)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("SMILES_BATCH_CONCURRENCY", "2")
	t.Setenv("SMILES_CACHE_ADDR", "cache:6380")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Batch.Concurrency)
	assert.Equal(t, "cache:6380", cfg.Cache.Addr)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SMILES_LOG_LEVEL", "warn")
	t.Setenv("SMILES_DECOMPILER_PREFIX", "m")
	t.Setenv("SMILES_CACHE_ENABLED", "true")
	t.Setenv("SMILES_CACHE_TTL", "30m")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "m", cfg.Decompiler.Prefix)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, DefaultCacheAddr, cfg.Cache.Addr)
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPrefix, cfg.Decompiler.Prefix)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeConfig))

	_, err = Load(writeConfig(t, "batch:\n  concurrency: -1\n"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeConfig))

	_, err = Load(writeConfig(t, "log: [unclosed\n"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeConfig))
}
