package evo

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"

	"evonet/internal/agent"
	"evonet/internal/genetic"
	"evonet/internal/metrics"
	"evonet/internal/nn"
	"evonet/internal/scape"
)

// GenerationSummary records one evaluated generation.
type GenerationSummary struct {
	Generation      int                `json:"generation"`
	Statistics      genetic.Statistics `json:"statistics"`
	ChampionID      string             `json:"champion_id"`
	ChampionFitness float64            `json:"champion_fitness"`
}

type RunResult struct {
	BestByGeneration []float64
	Summaries        []GenerationSummary
	FinalPopulation  []*agent.Cortex
	Champion         *agent.Cortex
	StoppedEarly     bool
}

type MonitorConfig struct {
	RunID          string
	Scape          scape.Scape
	Topology       []nn.LayerTopology
	PopulationSize int
	Generations    int
	Workers        int
	Seed           int64
	Selection      genetic.SelectionMethod
	Crossover      genetic.CrossoverMethod
	Mutation       genetic.MutationMethod
	// FitnessGoal stops the run once the best fitness reaches it. 0 disables.
	FitnessGoal float64
	// Initial continues from an existing population instead of seeding one.
	Initial      []*agent.Cortex
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
	OnGeneration func(GenerationSummary)
}

type PopulationMonitor struct {
	cfg MonitorConfig
	rng *rand.Rand
	ga  *genetic.GeneticAlgorithm[*agent.Cortex]
}

func NewPopulationMonitor(cfg MonitorConfig) (*PopulationMonitor, error) {
	if cfg.Scape == nil {
		return nil, errors.New("scape is required")
	}
	if err := nn.ValidateTopology(cfg.Topology); err != nil {
		return nil, err
	}
	if cfg.PopulationSize <= 0 {
		return nil, errors.New("population size must be > 0")
	}
	if cfg.Generations <= 0 {
		return nil, errors.New("generations must be > 0")
	}
	if cfg.FitnessGoal < 0 {
		return nil, errors.New("fitness goal must be >= 0")
	}
	if cfg.Initial != nil && len(cfg.Initial) != cfg.PopulationSize {
		return nil, errors.Errorf("initial population mismatch: got=%d want=%d", len(cfg.Initial), cfg.PopulationSize)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Selection == nil {
		cfg.Selection = genetic.RouletteWheelSelection{}
	}
	if cfg.Crossover == nil {
		cfg.Crossover = genetic.UniformCrossover{}
	}
	if cfg.Mutation == nil {
		cfg.Mutation = genetic.UniformMutation{Chance: 0.01, Coeff: 0.3}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	ga, err := genetic.New[*agent.Cortex](cfg.Selection, cfg.Crossover, cfg.Mutation)
	if err != nil {
		return nil, err
	}
	return &PopulationMonitor{
		cfg: cfg,
		rng: genetic.NewRand(cfg.Seed),
		ga:  ga,
	}, nil
}

// Run evaluates and evolves the population for the configured number of
// generations. All randomness is drawn from the monitor's seeded source on the
// calling goroutine so a run is reproducible from its seed.
func (m *PopulationMonitor) Run(ctx context.Context) (RunResult, error) {
	population, err := m.seed()
	if err != nil {
		return RunResult{}, err
	}
	rebuild := agent.FromChromosome(m.cfg.Topology)
	log := m.cfg.Logger.With("run_id", m.cfg.RunID, "scape", m.cfg.Scape.Name())

	result := RunResult{
		BestByGeneration: make([]float64, 0, m.cfg.Generations),
		Summaries:        make([]GenerationSummary, 0, m.cfg.Generations),
	}

	for gen := 0; gen < m.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return RunResult{}, err
		}

		scored, err := m.evaluatePopulation(ctx, population)
		if err != nil {
			return RunResult{}, errors.Wrapf(err, "generation %d", gen+1)
		}

		champion := scored[0]
		for _, c := range scored[1:] {
			if c.Fitness() > champion.Fitness() {
				champion = c
			}
		}
		if result.Champion == nil || champion.Fitness() > result.Champion.Fitness() {
			result.Champion = champion
		}

		summary := GenerationSummary{
			Generation:      gen + 1,
			Statistics:      genetic.NewStatistics(scored),
			ChampionID:      champion.ID(),
			ChampionFitness: champion.Fitness(),
		}
		result.BestByGeneration = append(result.BestByGeneration, champion.Fitness())
		result.Summaries = append(result.Summaries, summary)
		result.FinalPopulation = scored
		m.cfg.Metrics.ObserveGeneration(m.cfg.RunID, summary.Statistics)
		log.Debug("generation evaluated", "generation", summary.Generation, "best", summary.Statistics.Max, "mean", summary.Statistics.Mean)
		if m.cfg.OnGeneration != nil {
			m.cfg.OnGeneration(summary)
		}

		if m.cfg.FitnessGoal > 0 && champion.Fitness() >= m.cfg.FitnessGoal {
			result.StoppedEarly = true
			log.Info("fitness goal reached", "generation", summary.Generation, "fitness", champion.Fitness())
			break
		}
		if gen == m.cfg.Generations-1 {
			break
		}

		population, _, err = m.ga.Evolve(m.rng, scored, rebuild)
		if err != nil {
			return RunResult{}, errors.Wrapf(err, "evolve generation %d", gen+1)
		}
	}

	return result, nil
}

func (m *PopulationMonitor) seed() ([]*agent.Cortex, error) {
	if m.cfg.Initial != nil {
		return append([]*agent.Cortex(nil), m.cfg.Initial...), nil
	}
	population := make([]*agent.Cortex, m.cfg.PopulationSize)
	for i := range population {
		cortex, err := agent.Random(m.rng, m.cfg.Topology)
		if err != nil {
			return nil, errors.Wrap(err, "seed population")
		}
		population[i] = cortex
	}
	return population, nil
}

func (m *PopulationMonitor) evaluatePopulation(ctx context.Context, population []*agent.Cortex) ([]*agent.Cortex, error) {
	type job struct {
		idx    int
		cortex *agent.Cortex
	}
	type result struct {
		idx    int
		scored *agent.Cortex
		err    error
	}

	jobs := make(chan job)
	results := make(chan result, len(population))

	workerCount := m.cfg.Workers
	if workerCount > len(population) {
		workerCount = len(population)
	}

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					results <- result{idx: j.idx, err: err}
					continue
				}
				scored, err := m.evaluate(ctx, j.cortex)
				results <- result{idx: j.idx, scored: scored, err: err}
			}
		}()
	}

	for i := range population {
		jobs <- job{idx: i, cortex: population[i]}
	}
	close(jobs)

	wg.Wait()
	close(results)

	scored := make([]*agent.Cortex, len(population))
	for res := range results {
		if res.err != nil {
			return nil, res.err
		}
		scored[res.idx] = res.scored
	}
	return scored, nil
}

func (m *PopulationMonitor) evaluate(ctx context.Context, cortex *agent.Cortex) (*agent.Cortex, error) {
	started := time.Now()
	fitness, _, err := m.cfg.Scape.Evaluate(ctx, cortex)
	m.cfg.Metrics.ObserveEvaluation(time.Since(started))
	if err != nil {
		return nil, err
	}
	f := float64(fitness)
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return nil, errors.Wrapf(genetic.ErrNegativeFitness, "agent %s scored %f", cortex.ID(), f)
	}
	return cortex.WithFitness(f), nil
}
