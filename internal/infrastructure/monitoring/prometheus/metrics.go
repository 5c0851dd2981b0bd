package prometheus

// Metrics holds every series the analysis service records.
type Metrics struct {
	ParseTotal         CounterVec   // result: ok or the error code
	RoundTripTotal     CounterVec   // status: perfect, stabilized, unstable
	DecompileTotal     CounterVec   // result: ok, mismatch or the error code
	EngineTotal        CounterVec   // verdict: agree, disagree, error
	CacheHitsTotal     CounterVec   // cache
	CacheMissesTotal   CounterVec   // cache
	CacheErrorsTotal   CounterVec   // cache, op
	AnalysisDuration   HistogramVec // mode: single, batch
	BatchItemsInFlight GaugeVec
}

// DefaultAnalysisBuckets covers sub-millisecond parses up to slow engine calls.
var DefaultAnalysisBuckets = []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5}

// NewMetrics registers the service metrics on collector.
func NewMetrics(collector MetricsCollector) *Metrics {
	return &Metrics{
		ParseTotal:         collector.RegisterCounter("parse_total", "SMILES parse attempts", "result"),
		RoundTripTotal:     collector.RegisterCounter("roundtrip_total", "Round-trip classifications", "status"),
		DecompileTotal:     collector.RegisterCounter("decompile_total", "Decompile and re-execute checks", "result"),
		EngineTotal:        collector.RegisterCounter("engine_total", "External engine verdicts", "verdict"),
		CacheHitsTotal:     collector.RegisterCounter("cache_hits_total", "Report cache hits", "cache"),
		CacheMissesTotal:   collector.RegisterCounter("cache_misses_total", "Report cache misses", "cache"),
		CacheErrorsTotal:   collector.RegisterCounter("cache_errors_total", "Report cache failures", "cache", "op"),
		AnalysisDuration:   collector.RegisterHistogram("analysis_duration_seconds", "Time to analyse one input", DefaultAnalysisBuckets, "mode"),
		BatchItemsInFlight: collector.RegisterGauge("batch_items_in_flight", "Batch inputs currently being analysed"),
	}
}

// NewNopMetrics returns Metrics whose series discard every observation.
func NewNopMetrics() *Metrics {
	return &Metrics{
		ParseTotal:         noopCounterVec{},
		RoundTripTotal:     noopCounterVec{},
		DecompileTotal:     noopCounterVec{},
		EngineTotal:        noopCounterVec{},
		CacheHitsTotal:     noopCounterVec{},
		CacheMissesTotal:   noopCounterVec{},
		CacheErrorsTotal:   noopCounterVec{},
		AnalysisDuration:   noopHistogramVec{},
		BatchItemsInFlight: noopGaugeVec{},
	}
}
