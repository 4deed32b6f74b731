package pipeline

import (
	"context"
	"time"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/store"
)

// Pipeline is one kind of tracked run: pricing derivation, VBCS formatting or
// the barometer refresh.
type Pipeline interface {
	// Name is the run kind recorded in the store.
	Name() string

	// Validate checks the inputs before the run is marked processing.
	Validate(ctx context.Context) error

	// Execute produces the output files. Files must be complete on return.
	Execute(ctx context.Context) (*Output, error)
}

// Output is what a pipeline wrote.
type Output struct {
	Files    []string
	Rows     int
	Warnings []string
}

// PipelineConfig holds the execution settings shared by every run.
type PipelineConfig struct {
	RunTimeout    time.Duration // Upper bound for background runs
	RetryAttempts int           // Total attempts for transient failures
	RetryBackoff  time.Duration // Wait between attempts
}

// DefaultPipelineConfig returns sensible defaults
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		RunTimeout:    10 * time.Minute,
		RetryAttempts: 2,
		RetryBackoff:  5 * time.Second,
	}
}

// PipelineStatus represents the current state of a pipeline run
type PipelineStatus string

const (
	StatusPending    PipelineStatus = "pending"
	StatusProcessing PipelineStatus = "processing"
	StatusCompleted  PipelineStatus = "completed"
	StatusFailed     PipelineStatus = "failed"
)

// RunStore persists run state.
type RunStore interface {
	CreateRun(ctx context.Context, r *store.Run) error
	UpdateRun(ctx context.Context, r *store.Run) error
}

// Publisher uploads finished files and returns their object keys.
type Publisher interface {
	Publish(ctx context.Context, runID string, files []string) ([]string, error)
}
