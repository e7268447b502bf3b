package platform

import (
	"context"
	"math"
	"testing"
	"time"

	"evonet/internal/evo"
	"evonet/internal/genetic"
	"evonet/internal/scape"
	"evonet/internal/storage"
)

type constantScape struct {
	name    string
	fitness float64
}

func (s constantScape) Name() string { return s.name }

func (s constantScape) Evaluate(context.Context, scape.Agent) (scape.Fitness, scape.Trace, error) {
	return scape.Fitness(s.fitness), scape.Trace{}, nil
}

func newTestPolis(t *testing.T) (*Polis, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p := NewPolis(Config{Store: store, Now: func() time.Time { return fixed }})
	if err := p.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return p, store
}

func TestInitRegistersTruthTables(t *testing.T) {
	p, _ := newTestPolis(t)
	got := p.RegisteredScapes()
	want := scape.TruthTables()
	if len(got) != len(want) {
		t.Fatalf("expected %d scapes, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("scape %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	if _, ok := p.GetScape("xor"); !ok {
		t.Fatal("expected xor to be registered")
	}
	if s, ok := p.GetScape("scape_NAND_sim"); !ok || s.Name() != "nand" {
		t.Fatal("expected alias lookup to resolve nand")
	}
}

func TestInitRequiresStore(t *testing.T) {
	p := NewPolis(Config{})
	if err := p.Init(context.Background()); err == nil {
		t.Fatal("expected error without store")
	}
}

func TestRegisterScapeRejectsDuplicates(t *testing.T) {
	p, _ := newTestPolis(t)
	if err := p.RegisterScape(constantScape{name: "flat", fitness: 1}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := p.RegisterScape(constantScape{name: "flat", fitness: 2}); err == nil {
		t.Fatal("expected duplicate registration error")
	}
	if err := p.RegisterScape(constantScape{}); err == nil {
		t.Fatal("expected error for unnamed scape")
	}
	if err := p.RegisterScape(nil); err == nil {
		t.Fatal("expected error for nil scape")
	}
}

func TestRunEvolutionRequiresInit(t *testing.T) {
	p := NewPolis(Config{Store: storage.NewMemoryStore()})
	_, err := p.RunEvolution(context.Background(), EvolutionConfig{ScapeName: "xor"})
	if err == nil {
		t.Fatal("expected error before init")
	}
}

func TestRunEvolutionUnknownScape(t *testing.T) {
	p, _ := newTestPolis(t)
	_, err := p.RunEvolution(context.Background(), EvolutionConfig{
		ScapeName:      "missing",
		Topology:       []int{2, 1},
		PopulationSize: 4,
		Generations:    1,
	})
	if err == nil {
		t.Fatal("expected unknown scape error")
	}
}

func TestRunEvolutionPersistsRun(t *testing.T) {
	p, store := newTestPolis(t)
	ctx := context.Background()

	mutation := genetic.ClampedMutation{Inner: genetic.UniformMutation{Chance: 0.2, Coeff: 0.5}, Limit: 5}
	var seen []int
	result, err := p.RunEvolution(ctx, EvolutionConfig{
		RunID:          "run-xor",
		ScapeName:      "xor",
		Topology:       []int{2, 3, 1},
		PopulationSize: 12,
		Generations:    4,
		Workers:        3,
		Seed:           7,
		Selection:      genetic.TournamentSelection{Size: 3},
		Mutation:       mutation,
		OnGeneration: func(s evo.GenerationSummary) {
			seen = append(seen, s.Generation)
		},
	})
	if err != nil {
		t.Fatalf("run evolution: %v", err)
	}
	if len(seen) != 4 {
		t.Fatalf("expected 4 generation callbacks, got %v", seen)
	}

	run, ok, err := store.GetRun(ctx, "run-xor")
	if err != nil || !ok {
		t.Fatalf("get run: ok=%t err=%v", ok, err)
	}
	if run.Selection != "tournament" || run.Crossover != "uniform" || run.Mutation != mutation.Name() {
		t.Fatalf("unexpected strategy names: %+v", run)
	}
	if run.MutationChance != 0.2 || run.MutationCoeff != 0.5 {
		t.Fatalf("unexpected mutation parameters: chance=%f coeff=%f", run.MutationChance, run.MutationCoeff)
	}
	if run.CompletedGenerations != 4 || run.StoppedEarly {
		t.Fatalf("unexpected completion: %+v", run)
	}
	if run.BestFitness != result.Champion.Fitness {
		t.Fatalf("run best %f differs from champion %f", run.BestFitness, result.Champion.Fitness)
	}
	if !run.StartedAt.Equal(run.FinishedAt) {
		t.Fatalf("expected injected clock timestamps, got %s and %s", run.StartedAt, run.FinishedAt)
	}

	generations, ok, err := store.GetGenerations(ctx, "run-xor")
	if err != nil || !ok {
		t.Fatalf("get generations: ok=%t err=%v", ok, err)
	}
	if len(generations) != 4 {
		t.Fatalf("expected 4 generation records, got %d", len(generations))
	}
	for i, g := range generations {
		if g.Generation != i+1 || g.Size != 12 {
			t.Fatalf("unexpected generation record %d: %+v", i, g)
		}
		if g.ChampionFitness != g.MaxFitness {
			t.Fatalf("generation %d champion %f differs from max %f", i, g.ChampionFitness, g.MaxFitness)
		}
	}

	cortex, champion, err := p.LoadChampion(ctx, "run-xor")
	if err != nil {
		t.Fatalf("load champion: %v", err)
	}
	if champion.AgentID != result.Champion.AgentID || cortex.ID() != champion.AgentID {
		t.Fatalf("champion identity mismatch: %+v vs %s", champion, cortex.ID())
	}
	if len(champion.Chromosome) != 13 {
		t.Fatalf("expected 13 weights for [2,3,1], got %d", len(champion.Chromosome))
	}

	// The rebuilt network scores the same as the stored fitness.
	xor, _ := p.GetScape("xor")
	fitness, _, err := xor.Evaluate(ctx, cortex)
	if err != nil {
		t.Fatalf("evaluate champion: %v", err)
	}
	if math.Abs(float64(fitness)-champion.Fitness) > 1e-9 {
		t.Fatalf("rebuilt champion fitness %f, stored %f", fitness, champion.Fitness)
	}
}

func TestRunEvolutionGeneratesRunID(t *testing.T) {
	p, store := newTestPolis(t)
	if err := p.RegisterScape(constantScape{name: "flat", fitness: 1}); err != nil {
		t.Fatalf("register: %v", err)
	}
	result, err := p.RunEvolution(context.Background(), EvolutionConfig{
		ScapeName:      "flat",
		Topology:       []int{1, 1},
		PopulationSize: 3,
		Generations:    2,
	})
	if err != nil {
		t.Fatalf("run evolution: %v", err)
	}
	if result.Run.ID == "" {
		t.Fatal("expected generated run id")
	}
	if result.Run.Selection != "roulette_wheel" || result.Run.MutationChance != 0.01 || result.Run.MutationCoeff != 0.3 {
		t.Fatalf("expected default strategies, got %+v", result.Run)
	}
	runs, err := store.ListRuns(context.Background())
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != result.Run.ID {
		t.Fatalf("unexpected stored runs: %+v", runs)
	}
}

func TestRunEvolutionStopsAtGoal(t *testing.T) {
	p, _ := newTestPolis(t)
	if err := p.RegisterScape(constantScape{name: "flat", fitness: 2}); err != nil {
		t.Fatalf("register: %v", err)
	}
	result, err := p.RunEvolution(context.Background(), EvolutionConfig{
		RunID:          "goal",
		ScapeName:      "flat",
		Topology:       []int{1, 1},
		PopulationSize: 3,
		Generations:    10,
		FitnessGoal:    1,
	})
	if err != nil {
		t.Fatalf("run evolution: %v", err)
	}
	if !result.Run.StoppedEarly || result.Run.CompletedGenerations != 1 {
		t.Fatalf("expected early stop after one generation, got %+v", result.Run)
	}
}

func TestLoadChampionMissing(t *testing.T) {
	p, _ := newTestPolis(t)
	if _, _, err := p.LoadChampion(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for missing champion")
	}
}
