package storage

import (
	"context"

	"evonet/internal/model"
)

// Store persists evolution runs, their per-generation summaries and the best
// chromosome each run produced.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveGenerations(ctx context.Context, runID string, generations []model.GenerationRecord) error
	GetGenerations(ctx context.Context, runID string) ([]model.GenerationRecord, bool, error)
	SaveChampion(ctx context.Context, champion model.ChampionRecord) error
	GetChampion(ctx context.Context, runID string) (model.ChampionRecord, bool, error)
}
