// Package structure is the analysis service behind the smiles CLI: it runs
// an input through validation, parsing, emission, the round-trip check and
// the decompile-and-rerun check, optionally asks an external engine for a
// second opinion, and caches the deterministic part of the result.
package structure

import (
	"context"

	"github.com/turtacn/smiles-algebra/internal/config"
	rediscache "github.com/turtacn/smiles-algebra/internal/infrastructure/database/redis"
	"github.com/turtacn/smiles-algebra/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/smiles-algebra/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/smiles-algebra/pkg/errors"
	"github.com/turtacn/smiles-algebra/pkg/smiles"
	"github.com/turtacn/smiles-algebra/pkg/smiles/ast"
	"github.com/turtacn/smiles-algebra/pkg/smiles/codegen"
	"github.com/turtacn/smiles-algebra/pkg/smiles/lexer"
)

// reportVersion is part of every cache key; bump it when Report changes.
const reportVersion = "r1"

// Engine is an external cheminformatics toolkit used to cross-check emitted
// strings.
type Engine interface {
	Name() string
	// Canonicalize returns the engine's canonical SMILES for s.
	Canonicalize(ctx context.Context, s string) (string, error)
}

// Options shape the analysis.
type Options struct {
	Prefix      string
	Dialect     string
	GoPackage   string
	GoFunc      string
	Concurrency int
	FailFast    bool
}

// OptionsFromConfig copies the decompiler and batch sections.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Prefix:      cfg.Decompiler.Prefix,
		Dialect:     cfg.Decompiler.Dialect,
		GoPackage:   cfg.Decompiler.GoPackage,
		GoFunc:      cfg.Decompiler.GoFunc,
		Concurrency: cfg.Batch.Concurrency,
		FailFast:    cfg.Batch.FailFast,
	}
}

func (o *Options) defaults() {
	if o.Prefix == "" {
		o.Prefix = codegen.DefaultPrefix
	}
	if o.Dialect == "" {
		o.Dialect = config.DialectScript
	}
	if o.Concurrency < 1 {
		o.Concurrency = 1
	}
}

// Service analyses SMILES strings.
type Service struct {
	opts    Options
	cache   rediscache.Cache
	engine  Engine
	metrics *prometheus.Metrics
	logger  logging.Logger
}

// Option configures optional collaborators.
type Option func(*Service)

// WithCache stores computed reports in c.
func WithCache(c rediscache.Cache) Option { return func(s *Service) { s.cache = c } }

// WithEngine cross-checks valid reports against e.
func WithEngine(e Engine) Option { return func(s *Service) { s.engine = e } }

// WithMetrics records analysis series on m.
func WithMetrics(m *prometheus.Metrics) Option { return func(s *Service) { s.metrics = m } }

// WithLogger sets the service logger.
func WithLogger(l logging.Logger) Option { return func(s *Service) { s.logger = l } }

// NewService builds a Service; without options it has no cache, no engine,
// no-op metrics and a no-op logger.
func NewService(opts Options, options ...Option) *Service {
	opts.defaults()
	s := &Service{
		opts:    opts,
		metrics: prometheus.NewNopMetrics(),
		logger:  logging.NewNopLogger(),
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// Analyze reports on one input. An invalid input yields a Report with Valid
// false; Analyze itself fails only when ctx ends.
func (s *Service) Analyze(ctx context.Context, input string) (*Report, error) {
	return s.analyze(ctx, input, "single")
}

func (s *Service) analyze(ctx context.Context, input, mode string) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTimeout, "analysis cancelled")
	}
	timer := prometheus.NewTimer(s.metrics.AnalysisDuration.WithLabelValues(mode))

	rep, err := s.cached(ctx, input)
	if err != nil {
		return nil, err
	}
	if rep.Valid && s.engine != nil {
		rep.Engine = s.crossCheck(ctx, rep)
	}
	rep.Duration = timer.ObserveDuration()

	s.logger.Debug("analysed",
		logging.SMILES(input),
		logging.Bool("valid", rep.Valid),
		logging.Bool("cached", rep.Cached),
		logging.Duration("took", rep.Duration),
	)
	return rep, nil
}

func (s *Service) cacheKey(input string) string {
	return reportVersion + ":" + s.opts.Dialect + ":" + s.opts.Prefix + ":" + input
}

func (s *Service) cached(ctx context.Context, input string) (*Report, error) {
	if s.cache == nil {
		return s.compute(ctx, input)
	}
	rep := &Report{}
	hit, err := s.cache.GetOrLoad(ctx, s.cacheKey(input), rep, func(ctx context.Context) (interface{}, error) {
		return s.compute(ctx, input)
	})
	if err != nil {
		if errors.GetCode(err) == errors.ErrCodeTimeout {
			return nil, err
		}
		s.metrics.CacheErrorsTotal.WithLabelValues("redis", "load").Inc()
		s.logger.Warn("report cache failed, computing directly", logging.SMILES(input), logging.Err(err))
		return s.compute(ctx, input)
	}
	if hit {
		s.metrics.CacheHitsTotal.WithLabelValues("redis").Inc()
	} else {
		s.metrics.CacheMissesTotal.WithLabelValues("redis").Inc()
	}
	rep.Cached = hit
	return rep, nil
}

// compute is the deterministic part of the analysis.
func (s *Service) compute(ctx context.Context, input string) (*Report, error) {
	rep := &Report{Input: input}

	tokens, lexErr := lexer.Tokenize(input)
	rep.Stats = countTokens(tokens)
	rep.Stats.Partial = lexErr != nil

	if err := smiles.Validate(input); err != nil {
		return s.invalid(rep, err), nil
	}
	n, err := smiles.Parse(input)
	if err != nil {
		return s.invalid(rep, err), nil
	}
	s.metrics.ParseTotal.WithLabelValues("ok").Inc()
	rep.Valid = true
	rep.Kind = n.Kind().String()
	if nums := n.RingNumbers(); len(nums) > 0 {
		rep.Stats.RingNumbers = nums
	}
	rep.Stats.Components = componentCount(n)

	rt, err := smiles.ValidateRoundTrip(input)
	if err != nil {
		return s.invalid(rep, err), nil
	}
	rep.RoundTrip = rt
	rep.SMILES = rt.First
	s.metrics.RoundTripTotal.WithLabelValues(string(rt.Status)).Inc()

	rep.Decompile = s.decompile(ctx, rep, n)
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTimeout, "analysis cancelled")
	}
	s.metrics.DecompileTotal.WithLabelValues(decompileLabel(rep.Decompile)).Inc()

	if s.opts.Dialect == config.DialectGo {
		src, err := smiles.ToGo(n, s.opts.Prefix, codegen.GoOptions{Package: s.opts.GoPackage, Func: s.opts.GoFunc})
		if err != nil {
			s.logger.Warn("go source generation failed", logging.SMILES(input), logging.Err(err))
		}
		rep.GoSource = src
	}
	return rep, nil
}

func (s *Service) invalid(rep *Report, err error) *Report {
	rep.Valid = false
	rep.Error = ProblemOf(err)
	s.metrics.ParseTotal.WithLabelValues(rep.Error.Code).Inc()
	return rep
}

func (s *Service) decompile(ctx context.Context, rep *Report, n ast.Node) *Decompile {
	code, err := smiles.ToCode(n, s.opts.Prefix)
	if err != nil {
		return &Decompile{Result: DecompileError, Error: ProblemOf(err)}
	}
	rep.Code = code
	rebuilt, err := smiles.Execute(ctx, code)
	if err != nil {
		return &Decompile{Result: DecompileError, Error: ProblemOf(err)}
	}
	out, err := smiles.BuildSMILES(rebuilt)
	if err != nil {
		return &Decompile{Result: DecompileError, Error: ProblemOf(err)}
	}
	if out != rep.SMILES {
		s.logger.Warn("decompiled script rebuilds a different string",
			logging.SMILES(rep.Input), logging.String("rebuilt", out))
		return &Decompile{Result: DecompileMismatch, Rebuilt: out}
	}
	return &Decompile{Result: DecompileOK, Rebuilt: out}
}

func decompileLabel(d *Decompile) string {
	if d.Result == DecompileError && d.Error != nil {
		return d.Error.Code
	}
	return d.Result
}

func (s *Service) crossCheck(ctx context.Context, rep *Report) *EngineVerdict {
	v := &EngineVerdict{Engine: s.engine.Name()}
	fail := func(err error) *EngineVerdict {
		v.Verdict = VerdictError
		v.Error = ProblemOf(errors.Wrap(err, errors.ErrCodeExternalService, v.Engine+" rejected the structure"))
		s.metrics.EngineTotal.WithLabelValues(VerdictError).Inc()
		s.logger.Warn("engine cross-check failed", logging.SMILES(rep.Input), logging.String("engine", v.Engine), logging.Err(err))
		return v
	}

	var err error
	if v.InputCanonical, err = s.engine.Canonicalize(ctx, rep.Input); err != nil {
		return fail(err)
	}
	if v.OutputCanonical, err = s.engine.Canonicalize(ctx, rep.SMILES); err != nil {
		return fail(err)
	}
	v.Verdict = VerdictAgree
	if v.InputCanonical != v.OutputCanonical {
		v.Verdict = VerdictDisagree
	}
	s.metrics.EngineTotal.WithLabelValues(v.Verdict).Inc()
	return v
}

// Purge drops every cached report. It is a no-op without a cache.
func (s *Service) Purge(ctx context.Context) (int64, error) {
	if s.cache == nil {
		return 0, nil
	}
	return s.cache.Purge(ctx)
}

func componentCount(n ast.Node) int {
	if m, ok := n.(*ast.Molecule); ok {
		return len(m.Components())
	}
	return 1
}
