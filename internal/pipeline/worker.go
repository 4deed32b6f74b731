package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/metrics"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/refdata"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/store"
)

// Worker drives a single run through its status transitions.
type Worker struct {
	config    PipelineConfig
	runs      RunStore
	publisher Publisher
	metrics   *metrics.Metrics
}

// Process validates, executes and publishes p, updating run as it goes. The
// returned error is the pipeline's own failure; run already carries it.
func (w *Worker) Process(ctx context.Context, p Pipeline, run *store.Run) error {
	logger := log.With().Str("pipeline", p.Name()).Str("run_id", run.ID).Logger()
	logger.Info().Msg("run started")

	if err := p.Validate(ctx); err != nil {
		return w.fail(ctx, run, fmt.Errorf("validation failed: %w", err))
	}

	run.Status = string(StatusProcessing)
	if err := w.runs.UpdateRun(ctx, run); err != nil {
		return fmt.Errorf("failed to update pipeline run: %w", err)
	}

	out, err := w.executeWithRetry(ctx, p)
	if err != nil {
		return w.fail(ctx, run, err)
	}

	run.Outputs = out.Files
	run.TotalRows = out.Rows
	run.Warnings = len(out.Warnings)

	if w.publisher != nil && len(out.Files) > 0 {
		keys, err := w.publisher.Publish(ctx, run.ID, out.Files)
		if err != nil {
			return w.fail(ctx, run, fmt.Errorf("publish failed: %w", err))
		}
		run.Outputs = keys
	}

	run.Status = string(StatusCompleted)
	now := time.Now().UTC()
	run.CompletedAt = &now
	if err := w.runs.UpdateRun(ctx, run); err != nil {
		return fmt.Errorf("failed to complete pipeline run: %w", err)
	}
	w.metrics.ObserveRun(run.Kind, run.Status, run.StartedAt, run.TotalRows)

	for _, warning := range out.Warnings {
		logger.Warn().Msg(warning)
	}
	logger.Info().
		Int("files", len(out.Files)).
		Int("rows", out.Rows).
		Int("warnings", len(out.Warnings)).
		Dur("duration", now.Sub(run.StartedAt)).
		Msg("run completed")

	return nil
}

// executeWithRetry retries everything except missing inputs and cancellation.
func (w *Worker) executeWithRetry(ctx context.Context, p Pipeline) (*Output, error) {
	attempts := w.config.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := p.Execute(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if errors.Is(err, refdata.ErrMissingInput) || ctx.Err() != nil || attempt == attempts {
			break
		}

		log.Warn().
			Err(err).
			Str("pipeline", p.Name()).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Msg("run attempt failed, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(w.config.RetryBackoff):
		}
	}
	return nil, lastErr
}

func (w *Worker) fail(ctx context.Context, run *store.Run, cause error) error {
	run.Status = string(StatusFailed)
	run.ErrorMessage = cause.Error()
	now := time.Now().UTC()
	run.CompletedAt = &now

	// the caller's context may already be done
	if err := w.runs.UpdateRun(context.WithoutCancel(ctx), run); err != nil {
		log.Error().Err(err).Str("run_id", run.ID).Msg("failed to record run failure")
	}
	w.metrics.ObserveRun(run.Kind, run.Status, run.StartedAt, 0)
	log.Error().Err(cause).Str("pipeline", run.Kind).Str("run_id", run.ID).Msg("run failed")
	return cause
}
