package structure

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/smiles-algebra/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/smiles-algebra/pkg/errors"
)

// AnalyzeBatch analyses inputs with at most Options.Concurrency workers and
// returns the reports in input order. With FailFast the first invalid input
// stops the run and is returned as an ErrCodeValidation error alongside the
// partial result; otherwise invalid inputs are reported, not returned.
func (s *Service) AnalyzeBatch(ctx context.Context, inputs []string) (*BatchResult, error) {
	start := time.Now()
	res := &BatchResult{
		RunID:   uuid.NewString(),
		Reports: make([]*Report, len(inputs)),
	}
	log := s.logger.Named("batch").With(logging.String("run_id", res.RunID))
	log.Info("batch started", logging.Int("inputs", len(inputs)), logging.Int("concurrency", s.opts.Concurrency))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	inFlight := s.metrics.BatchItemsInFlight.WithLabelValues()

	for i, input := range inputs {
		if gctx.Err() != nil {
			break
		}
		i, input := i, input
		g.Go(func() error {
			inFlight.Inc()
			defer inFlight.Dec()

			rep, err := s.analyze(gctx, input, "batch")
			if err != nil {
				return err
			}
			res.Reports[i] = rep
			if s.opts.FailFast && !rep.Valid {
				return errors.Newf(errors.ErrCodeValidation, "input %d (%q) is invalid: %s", i+1, input, rep.Error.Message)
			}
			return nil
		})
	}
	err := g.Wait()
	if err == nil && ctx.Err() != nil {
		err = errors.Wrap(ctx.Err(), errors.ErrCodeTimeout, "batch cancelled")
	}

	res.Summary.Total = len(inputs)
	for _, r := range res.Reports {
		res.Summary.add(r)
	}
	res.Duration = time.Since(start)

	if err != nil {
		log.Warn("batch stopped", logging.Err(err), logging.Int("skipped", res.Summary.Skipped))
		return res, err
	}
	log.Info("batch finished",
		logging.Int("valid", res.Summary.Valid),
		logging.Int("invalid", res.Summary.Invalid),
		logging.Duration("took", res.Duration),
	)
	return res, nil
}
