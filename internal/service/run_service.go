package service

import (
	"context"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/store"
)

// RunRepository reads tracked runs.
type RunRepository interface {
	GetRun(ctx context.Context, id string) (*store.Run, error)
	ListRuns(ctx context.Context, kind string, limit int) ([]*store.Run, error)
}

type RunService struct {
	repo RunRepository
}

func NewRunService(repo RunRepository) *RunService {
	return &RunService{repo: repo}
}

func (s *RunService) Get(ctx context.Context, id string) (*store.Run, error) {
	return s.repo.GetRun(ctx, id)
}

func (s *RunService) List(ctx context.Context, kind string, limit int) ([]*store.Run, error) {
	return s.repo.ListRuns(ctx, kind, limit)
}
