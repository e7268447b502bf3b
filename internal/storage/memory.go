package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"evonet/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.RunRecord
	generations map[string][]model.GenerationRecord
	champions   map[string]model.ChampionRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.RunRecord)
	s.generations = make(map[string][]model.GenerationRecord)
	s.champions = make(map[string]model.ChampionRecord)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	run.Topology = append([]int(nil), run.Topology...)
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return model.RunRecord{}, false, nil
	}
	run.Topology = append([]int(nil), run.Topology...)
	return run, true, nil
}

// ListRuns returns runs ordered by start time, oldest first.
func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		run.Topology = append([]int(nil), run.Topology...)
		runs = append(runs, run)
	}
	sortRuns(runs)
	return runs, nil
}

func (s *MemoryStore) SaveGenerations(_ context.Context, runID string, generations []model.GenerationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	copied := make([]model.GenerationRecord, len(generations))
	copy(copied, generations)
	s.generations[runID] = copied
	return nil
}

func (s *MemoryStore) GetGenerations(_ context.Context, runID string) ([]model.GenerationRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	generations, ok := s.generations[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.GenerationRecord, len(generations))
	copy(copied, generations)
	return copied, true, nil
}

func (s *MemoryStore) SaveChampion(_ context.Context, champion model.ChampionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	s.champions[champion.RunID] = cloneChampion(champion)
	return nil
}

func (s *MemoryStore) GetChampion(_ context.Context, runID string) (model.ChampionRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	champion, ok := s.champions[runID]
	if !ok {
		return model.ChampionRecord{}, false, nil
	}
	return cloneChampion(champion), true, nil
}

func cloneChampion(c model.ChampionRecord) model.ChampionRecord {
	c.Topology = append([]int(nil), c.Topology...)
	c.Chromosome = append([]float64(nil), c.Chromosome...)
	return c
}

func sortRuns(runs []model.RunRecord) {
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].StartedAt.Before(runs[j].StartedAt)
	})
}
