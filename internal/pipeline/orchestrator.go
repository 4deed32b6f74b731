package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/metrics"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/store"
)

// Orchestrator creates tracked runs and hands them to a Worker.
type Orchestrator struct {
	cfg    PipelineConfig
	runs   RunStore
	worker *Worker
	newID  func() string
	wg     sync.WaitGroup
}

type Option func(*Orchestrator)

// WithPublisher uploads every completed run's files.
func WithPublisher(p Publisher) Option {
	return func(o *Orchestrator) { o.worker.publisher = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.worker.metrics = m }
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(runs RunStore, cfg PipelineConfig, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:    cfg,
		runs:   runs,
		worker: &Worker{config: cfg, runs: runs},
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes p to completion and returns the final run record.
func (o *Orchestrator) Run(ctx context.Context, p Pipeline) (*store.Run, error) {
	run, err := o.create(ctx, p)
	if err != nil {
		return nil, err
	}
	err = o.worker.Process(ctx, p, run)
	return run, err
}

// Start records a pending run and executes it in the background, detached
// from ctx's cancellation and bounded by RunTimeout. The returned record is a
// snapshot; poll the store for progress.
func (o *Orchestrator) Start(ctx context.Context, p Pipeline) (*store.Run, error) {
	run, err := o.create(ctx, p)
	if err != nil {
		return nil, err
	}
	snapshot := *run

	bg := context.WithoutCancel(ctx)
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		runCtx, cancel := o.withTimeout(bg)
		defer cancel()
		_ = o.worker.Process(runCtx, p, run)
	}()

	return &snapshot, nil
}

// Wait blocks until every background run has finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) create(ctx context.Context, p Pipeline) (*store.Run, error) {
	run := &store.Run{
		ID:        o.newID(),
		Kind:      p.Name(),
		Status:    string(StatusPending),
		StartedAt: time.Now().UTC(),
	}
	if err := o.runs.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create pipeline run: %w", err)
	}
	return run, nil
}

func (o *Orchestrator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.cfg.RunTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.cfg.RunTimeout)
}
