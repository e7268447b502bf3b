package platform

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"evonet/internal/agent"
	"evonet/internal/evo"
	"evonet/internal/genetic"
	"evonet/internal/metrics"
	"evonet/internal/model"
	"evonet/internal/nn"
	"evonet/internal/scape"
	"evonet/internal/scapeid"
	"evonet/internal/storage"
)

type Config struct {
	Store   storage.Store
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	// Now stamps run records. Defaults to time.Now.
	Now func() time.Time
}

type EvolutionConfig struct {
	RunID          string
	ScapeName      string
	Topology       []int
	PopulationSize int
	Generations    int
	Workers        int
	Seed           int64
	FitnessGoal    float64
	Selection      genetic.SelectionMethod
	Crossover      genetic.CrossoverMethod
	Mutation       genetic.MutationMethod
	OnGeneration   func(evo.GenerationSummary)
}

type EvolutionResult struct {
	Run              model.RunRecord
	Generations      []model.GenerationRecord
	Champion         model.ChampionRecord
	BestByGeneration []float64
}

// Polis owns the registered scapes and the store runs are persisted to.
type Polis struct {
	store   storage.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.RWMutex
	scapes  map[string]scape.Scape
	started bool
}

func NewPolis(cfg Config) *Polis {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Polis{
		store:   cfg.Store,
		metrics: cfg.Metrics,
		logger:  logger,
		now:     now,
		scapes:  make(map[string]scape.Scape),
	}
}

// Init prepares the store and registers the built-in truth table scapes.
func (p *Polis) Init(ctx context.Context) error {
	if p.store == nil {
		return errors.New("store is required")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return nil
	}
	if err := p.store.Init(ctx); err != nil {
		return errors.Wrap(err, "init store")
	}
	for _, name := range scape.TruthTables() {
		table, err := scape.NewTruthTableScape(name)
		if err != nil {
			return err
		}
		if _, exists := p.scapes[name]; !exists {
			p.scapes[name] = table
		}
	}
	p.started = true
	return nil
}

func (p *Polis) RegisterScape(s scape.Scape) error {
	if s == nil {
		return errors.New("scape is nil")
	}
	name := scapeid.Normalize(s.Name())
	if name == "" {
		return errors.New("scape name is required")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.scapes[name]; exists {
		return errors.Errorf("scape already registered: %s", name)
	}
	p.scapes[name] = s
	return nil
}

func (p *Polis) GetScape(name string) (scape.Scape, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.scapes[scapeid.Normalize(name)]
	return s, ok
}

func (p *Polis) RegisteredScapes() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.scapes))
	for name := range p.scapes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p *Polis) Store() storage.Store {
	return p.store
}

// RunEvolution runs one evolution and persists its run record, generation
// summaries and champion.
func (p *Polis) RunEvolution(ctx context.Context, cfg EvolutionConfig) (EvolutionResult, error) {
	scapeName := scapeid.Normalize(cfg.ScapeName)
	p.mu.RLock()
	target, ok := p.scapes[scapeName]
	started := p.started
	p.mu.RUnlock()

	if !started {
		return EvolutionResult{}, errors.New("polis is not initialized")
	}
	if !ok {
		return EvolutionResult{}, errors.Errorf("scape not registered: %s", cfg.ScapeName)
	}

	runID := cfg.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	topology := toLayerTopology(cfg.Topology)

	monitor, err := evo.NewPopulationMonitor(evo.MonitorConfig{
		RunID:          runID,
		Scape:          target,
		Topology:       topology,
		PopulationSize: cfg.PopulationSize,
		Generations:    cfg.Generations,
		Workers:        cfg.Workers,
		Seed:           cfg.Seed,
		Selection:      cfg.Selection,
		Crossover:      cfg.Crossover,
		Mutation:       cfg.Mutation,
		FitnessGoal:    cfg.FitnessGoal,
		Metrics:        p.metrics,
		Logger:         p.logger,
		OnGeneration:   cfg.OnGeneration,
	})
	if err != nil {
		return EvolutionResult{}, err
	}

	startedAt := p.now()
	p.logger.Info("evolution started", "run_id", runID, "scape", scapeName, "population", cfg.PopulationSize, "generations", cfg.Generations, "seed", cfg.Seed)
	result, err := monitor.Run(ctx)
	if err != nil {
		return EvolutionResult{}, errors.Wrapf(err, "run %s", runID)
	}

	run := model.RunRecord{
		VersionedRecord:      storage.Versioned(),
		ID:                   runID,
		Scape:                scapeName,
		Topology:             append([]int(nil), cfg.Topology...),
		PopulationSize:       cfg.PopulationSize,
		Generations:          cfg.Generations,
		CompletedGenerations: len(result.Summaries),
		Seed:                 cfg.Seed,
		FitnessGoal:          cfg.FitnessGoal,
		BestFitness:          result.Champion.Fitness(),
		StoppedEarly:         result.StoppedEarly,
		StartedAt:            startedAt,
		FinishedAt:           p.now(),
	}
	describeStrategies(&run, monitorStrategies(cfg))

	generations := toGenerationRecords(result.Summaries)
	champion := model.ChampionRecord{
		VersionedRecord: storage.Versioned(),
		RunID:           runID,
		AgentID:         result.Champion.ID(),
		Fitness:         result.Champion.Fitness(),
		Topology:        append([]int(nil), cfg.Topology...),
		Chromosome:      result.Champion.Chromosome(),
	}

	if err := p.store.SaveRun(ctx, run); err != nil {
		return EvolutionResult{}, err
	}
	if err := p.store.SaveGenerations(ctx, runID, generations); err != nil {
		return EvolutionResult{}, err
	}
	if err := p.store.SaveChampion(ctx, champion); err != nil {
		return EvolutionResult{}, err
	}
	p.logger.Info("evolution finished", "run_id", runID, "generations", run.CompletedGenerations, "best_fitness", run.BestFitness, "stopped_early", run.StoppedEarly)

	return EvolutionResult{
		Run:              run,
		Generations:      generations,
		Champion:         champion,
		BestByGeneration: result.BestByGeneration,
	}, nil
}

// LoadChampion rebuilds the best network a stored run produced.
func (p *Polis) LoadChampion(ctx context.Context, runID string) (*agent.Cortex, model.ChampionRecord, error) {
	record, ok, err := p.store.GetChampion(ctx, runID)
	if err != nil {
		return nil, model.ChampionRecord{}, err
	}
	if !ok {
		return nil, model.ChampionRecord{}, errors.Errorf("no champion stored for run %s", runID)
	}
	network, err := nn.FromWeights(toLayerTopology(record.Topology), record.Chromosome)
	if err != nil {
		return nil, model.ChampionRecord{}, errors.Wrapf(err, "rebuild champion of run %s", runID)
	}
	cortex, err := agent.NewCortex(record.AgentID, network)
	if err != nil {
		return nil, model.ChampionRecord{}, err
	}
	return cortex.WithFitness(record.Fitness), record, nil
}

type strategies struct {
	selection genetic.SelectionMethod
	crossover genetic.CrossoverMethod
	mutation  genetic.MutationMethod
}

func monitorStrategies(cfg EvolutionConfig) strategies {
	s := strategies{selection: cfg.Selection, crossover: cfg.Crossover, mutation: cfg.Mutation}
	if s.selection == nil {
		s.selection = genetic.RouletteWheelSelection{}
	}
	if s.crossover == nil {
		s.crossover = genetic.UniformCrossover{}
	}
	if s.mutation == nil {
		s.mutation = genetic.UniformMutation{Chance: 0.01, Coeff: 0.3}
	}
	return s
}

func describeStrategies(run *model.RunRecord, s strategies) {
	run.Selection = s.selection.Name()
	run.Crossover = s.crossover.Name()
	run.Mutation = s.mutation.Name()

	mutation := s.mutation
	if clamped, ok := mutation.(genetic.ClampedMutation); ok {
		mutation = clamped.Inner
	}
	if uniform, ok := mutation.(genetic.UniformMutation); ok {
		run.MutationChance = uniform.Chance
		run.MutationCoeff = uniform.Coeff
	}
}

func toLayerTopology(widths []int) []nn.LayerTopology {
	out := make([]nn.LayerTopology, len(widths))
	for i, width := range widths {
		out[i] = nn.LayerTopology{Neurons: width}
	}
	return out
}

func toGenerationRecords(summaries []evo.GenerationSummary) []model.GenerationRecord {
	out := make([]model.GenerationRecord, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, model.GenerationRecord{
			Generation:      s.Generation,
			Size:            s.Statistics.Size,
			MinFitness:      s.Statistics.Min,
			MaxFitness:      s.Statistics.Max,
			MeanFitness:     s.Statistics.Mean,
			StdDevFitness:   s.Statistics.StdDev,
			ChampionID:      s.ChampionID,
			ChampionFitness: s.ChampionFitness,
		})
	}
	return out
}
