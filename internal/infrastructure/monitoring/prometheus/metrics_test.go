package prometheus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_RegistersSeries(t *testing.T) {
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "smiles"}, nil)
	require.NoError(t, err)
	m := NewMetrics(c)

	m.ParseTotal.WithLabelValues("ok").Inc()
	m.ParseTotal.WithLabelValues("SMI_005").Inc()
	m.RoundTripTotal.WithLabelValues("perfect").Inc()
	m.DecompileTotal.WithLabelValues("ok").Inc()
	m.EngineTotal.WithLabelValues("agree").Inc()
	m.CacheHitsTotal.WithLabelValues("redis").Inc()
	m.CacheMissesTotal.WithLabelValues("redis").Inc()
	m.CacheErrorsTotal.WithLabelValues("redis", "get").Inc()
	m.AnalysisDuration.WithLabelValues("single").Observe(0.002)
	m.BatchItemsInFlight.WithLabelValues().Set(3)

	out := dump(t, c)
	for _, sample := range []string{
		`smiles_parse_total{result="ok"} 1`,
		`smiles_parse_total{result="SMI_005"} 1`,
		`smiles_roundtrip_total{status="perfect"} 1`,
		`smiles_decompile_total{result="ok"} 1`,
		`smiles_engine_total{verdict="agree"} 1`,
		`smiles_cache_hits_total{cache="redis"} 1`,
		`smiles_cache_misses_total{cache="redis"} 1`,
		`smiles_cache_errors_total{cache="redis",op="get"} 1`,
		`smiles_analysis_duration_seconds_count{mode="single"} 1`,
		`smiles_batch_items_in_flight 3`,
	} {
		assert.True(t, hasSample(out, sample), sample)
	}
}

func TestNewNopMetrics(t *testing.T) {
	m := NewNopMetrics()
	assert.NotPanics(t, func() {
		m.ParseTotal.WithLabelValues("ok").Inc()
		m.CacheErrorsTotal.WithLabelValues("redis", "set").Add(1)
		m.AnalysisDuration.WithLabelValues("batch").Observe(1)
		m.BatchItemsInFlight.WithLabelValues().Dec()
	})
}
