package prometheus

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/smiles-algebra/internal/testutil"
	"github.com/turtacn/smiles-algebra/pkg/errors"
)

func newTestCollector(t *testing.T) MetricsCollector {
	t.Helper()
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "test", Subsystem: "unit"}, nil)
	require.NoError(t, err)
	return c
}

func scrape(t *testing.T, c MetricsCollector) string {
	t.Helper()
	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func dump(t *testing.T, c MetricsCollector) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.WriteText(&buf))
	return buf.String()
}

// hasSample reports whether the exposition contains the exact sample line.
func hasSample(out, sample string) bool {
	for _, line := range strings.Split(out, "\n") {
		if line == sample {
			return true
		}
	}
	return false
}

func TestNewMetricsCollector_RequiresNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{}, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConfig))
}

func TestNewMetricsCollector_GoMetrics(t *testing.T) {
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "test", EnableGoMetrics: true}, nil)
	require.NoError(t, err)
	assert.Contains(t, dump(t, c), "go_goroutines")
}

func TestRegisterCounter(t *testing.T) {
	c := newTestCollector(t)
	vec := c.RegisterCounter("parses_total", "parses", "result")
	vec.WithLabelValues("ok").Inc()
	vec.WithLabelValues("ok").Add(2)

	assert.True(t, hasSample(scrape(t, c), `test_unit_parses_total{result="ok"} 3`))
}

func TestRegisterCounter_DuplicateSharesSeries(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("dup_total", "dup").WithLabelValues().Inc()
	c.RegisterCounter("dup_total", "dup").WithLabelValues().Inc()

	assert.True(t, hasSample(dump(t, c), "test_unit_dup_total 2"))
}

func TestRegister_TypeMismatchFallsBackToNoop(t *testing.T) {
	log := testutil.NewMockLogger()
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "test"}, log)
	require.NoError(t, err)

	c.RegisterCounter("shared", "counter")
	g := c.RegisterGauge("shared", "gauge")
	assert.NotPanics(t, func() { g.WithLabelValues().Set(4) })
	assert.True(t, log.HasMessage("warn", "metric type mismatch"))
}

func TestRegisterGaugeAndHistogram(t *testing.T) {
	c := newTestCollector(t)
	g := c.RegisterGauge("in_flight", "in flight")
	g.WithLabelValues().Inc()
	g.WithLabelValues().Inc()
	g.WithLabelValues().Dec()

	h := c.RegisterHistogram("latency_seconds", "latency", []float64{1, 2}, "mode")
	h.WithLabelValues("single").Observe(1.5)

	out := dump(t, c)
	assert.True(t, hasSample(out, "test_unit_in_flight 1"))
	assert.True(t, hasSample(out, `test_unit_latency_seconds_bucket{mode="single",le="1"} 0`))
	assert.True(t, hasSample(out, `test_unit_latency_seconds_bucket{mode="single",le="2"} 1`))
	assert.True(t, hasSample(out, `test_unit_latency_seconds_count{mode="single"} 1`))
}

func TestTimer(t *testing.T) {
	c := newTestCollector(t)
	h := c.RegisterHistogram("timed_seconds", "timed", nil)
	d := NewTimer(h.WithLabelValues()).ObserveDuration()
	assert.GreaterOrEqual(t, d, time.Duration(0))
	assert.True(t, hasSample(dump(t, c), "test_unit_timed_seconds_count 1"))

	assert.NotPanics(t, func() { NewTimer(nil).ObserveDuration() })
}
