package storage

import (
	"context"
	"errors"

	"dategen/internal/model"
)

var ErrNotInitialized = errors.New("store is not initialized")

// Store persists runs and their artifacts keyed by run id.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	// ListRuns returns runs oldest first.
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveCoverageHistory(ctx context.Context, runID string, history []float64) error
	GetCoverageHistory(ctx context.Context, runID string) ([]float64, bool, error)
	SaveGenerationDiagnostics(ctx context.Context, runID string, diagnostics []model.GenerationDiagnostics) error
	GetGenerationDiagnostics(ctx context.Context, runID string) ([]model.GenerationDiagnostics, bool, error)
	SaveCases(ctx context.Context, runID string, cases []model.CaseRecord) error
	GetCases(ctx context.Context, runID string) ([]model.CaseRecord, bool, error)
	SavePopulation(ctx context.Context, snapshot model.PopulationSnapshot) error
	GetPopulation(ctx context.Context, runID string) (model.PopulationSnapshot, bool, error)
}
