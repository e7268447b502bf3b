package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evonet/internal/model"
)

// exerciseStore runs the behaviour every Store backend must share.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := store.GetRun(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	later := model.RunRecord{
		VersionedRecord: Versioned(),
		ID:              "run-b",
		Scape:           "xor",
		Topology:        []int{2, 2, 1},
		PopulationSize:  20,
		Generations:     10,
		Seed:            5,
		StartedAt:       started.Add(time.Minute),
	}
	earlier := later
	earlier.ID = "run-a"
	earlier.StartedAt = started
	earlier.Topology = []int{2, 4, 1}

	require.NoError(t, store.SaveRun(ctx, later))
	require.NoError(t, store.SaveRun(ctx, earlier))

	loaded, ok, err := store.GetRun(ctx, "run-b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, later.Topology, loaded.Topology)
	assert.Equal(t, later.Seed, loaded.Seed)
	assert.True(t, later.StartedAt.Equal(loaded.StartedAt))

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-a", runs[0].ID)
	assert.Equal(t, "run-b", runs[1].ID)

	later.CompletedGenerations = 10
	require.NoError(t, store.SaveRun(ctx, later))
	loaded, _, err = store.GetRun(ctx, "run-b")
	require.NoError(t, err)
	assert.Equal(t, 10, loaded.CompletedGenerations)

	generations := []model.GenerationRecord{
		{Generation: 1, Size: 20, MaxFitness: 0.5, MeanFitness: 0.2},
		{Generation: 2, Size: 20, MaxFitness: 0.9, MeanFitness: 0.4},
	}
	require.NoError(t, store.SaveGenerations(ctx, "run-b", generations))
	gotGenerations, ok, err := store.GetGenerations(ctx, "run-b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, generations, gotGenerations)

	_, ok, err = store.GetGenerations(ctx, "run-a")
	require.NoError(t, err)
	assert.False(t, ok)

	champion := model.ChampionRecord{
		VersionedRecord: Versioned(),
		RunID:           "run-b",
		AgentID:         "agent-1",
		Fitness:         0.9,
		Topology:        []int{2, 1},
		Chromosome:      []float64{0.1, -0.2, 0.3},
	}
	require.NoError(t, store.SaveChampion(ctx, champion))
	gotChampion, ok, err := store.GetChampion(ctx, "run-b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, champion, gotChampion)
}
