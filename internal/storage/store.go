package storage

import (
	"context"

	"neopallium/internal/model"
)

// Store persists run records and per-step diagnostics for recorded
// sequence-memory runs.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error)
	SaveStepDiagnostics(ctx context.Context, runID string, steps []model.StepDiagnostics) error
	GetStepDiagnostics(ctx context.Context, runID string) ([]model.StepDiagnostics, bool, error)
}
