// Package evonet is the public entry point for evolving fixed-topology
// networks against the built-in scapes and inspecting stored runs.
package evonet

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"evonet/internal/config"
	"evonet/internal/evo"
	"evonet/internal/genetic"
	"evonet/internal/metrics"
	"evonet/internal/model"
	"evonet/internal/platform"
	"evonet/internal/storage"
)

const defaultRunsLimit = 20

type Options struct {
	StoreKind string
	DBPath    string
	// Registerer receives the evolution collectors when set.
	Registerer prometheus.Registerer
	Logger     *slog.Logger
}

type Client struct {
	store   storage.Store
	polis   *platform.Polis
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type RunRequest struct {
	RunID          string
	Scape          string
	Topology       []int
	Population     int
	Generations    int
	Workers        int
	Seed           int64
	FitnessGoal    float64
	Selection      string
	TournamentSize int
	MutationChance float64
	MutationCoeff  float64
	// MutationClamp bounds genes after mutation. 0 disables clamping.
	MutationClamp float64
	OnGeneration  func(GenerationItem)
}

type RunSummary struct {
	RunID            string
	BestByGeneration []float64
	FinalBestFitness float64
	StoppedEarly     bool
	Champion         ChampionItem
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID                string
	Scape                string
	Topology             []int
	Seed                 int64
	Population           int
	Generations          int
	CompletedGenerations int
	Selection            string
	Mutation             string
	BestFitness          float64
	StoppedEarly         bool
	StartedAt            time.Time
	Duration             time.Duration
}

type FitnessHistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type GenerationItem struct {
	Generation      int
	Size            int
	MinFitness      float64
	MaxFitness      float64
	MeanFitness     float64
	StdDevFitness   float64
	ChampionID      string
	ChampionFitness float64
}

type ChampionRequest struct {
	RunID  string
	Latest bool
}

type ChampionItem struct {
	RunID    string
	AgentID  string
	Fitness  float64
	Topology []int
	Weights  []float64
}

type PredictRequest struct {
	RunID  string
	Latest bool
	Input  []float64
}

// DefaultRunRequest mirrors the defaults of an empty run configuration.
func DefaultRunRequest() RunRequest {
	cfg := config.Default()
	return RunRequest{
		Scape:          cfg.Run.Scape,
		Topology:       append([]int(nil), cfg.Network.Topology...),
		Population:     cfg.Run.PopulationSize,
		Generations:    cfg.Run.Generations,
		Workers:        cfg.Run.Workers,
		Seed:           cfg.Run.Seed,
		Selection:      cfg.Selection.Method,
		TournamentSize: cfg.Selection.TournamentSize,
		MutationChance: cfg.Mutation.Chance,
		MutationCoeff:  cfg.Mutation.Coeff,
	}
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = config.Default().Storage.DBPath
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var m *metrics.Metrics
	if opts.Registerer != nil {
		var err error
		m, err = metrics.New(opts.Registerer)
		if err != nil {
			return nil, err
		}
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	return &Client{store: store, metrics: m, logger: logger}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	_, err := c.ensurePolis(ctx)
	return err
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	defaults := DefaultRunRequest()
	if req.Scape == "" {
		req.Scape = defaults.Scape
	}
	if len(req.Topology) == 0 {
		req.Topology = defaults.Topology
	}
	if req.Population <= 0 {
		req.Population = defaults.Population
	}
	if req.Generations <= 0 {
		req.Generations = defaults.Generations
	}
	if req.Selection == "" {
		req.Selection = defaults.Selection
	}

	selection, err := genetic.SelectionFromName(req.Selection, req.TournamentSize)
	if err != nil {
		return RunSummary{}, err
	}
	mutation, err := mutationFromRequest(req)
	if err != nil {
		return RunSummary{}, err
	}

	p, err := c.ensurePolis(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	var onGeneration func(evo.GenerationSummary)
	if req.OnGeneration != nil {
		onGeneration = func(s evo.GenerationSummary) {
			req.OnGeneration(GenerationItem{
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
	}

	result, err := p.RunEvolution(ctx, platform.EvolutionConfig{
		RunID:          req.RunID,
		ScapeName:      req.Scape,
		Topology:       req.Topology,
		PopulationSize: req.Population,
		Generations:    req.Generations,
		Workers:        req.Workers,
		Seed:           req.Seed,
		FitnessGoal:    req.FitnessGoal,
		Selection:      selection,
		Mutation:       mutation,
		OnGeneration:   onGeneration,
	})
	if err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:            result.Run.ID,
		BestByGeneration: append([]float64(nil), result.BestByGeneration...),
		FinalBestFitness: result.Run.BestFitness,
		StoppedEarly:     result.Run.StoppedEarly,
		Champion:         championItem(result.Champion),
	}, nil
}

// Runs lists stored runs, most recent first. The store returns them oldest
// first.
func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = defaultRunsLimit
	}
	if _, err := c.ensurePolis(ctx); err != nil {
		return nil, err
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]RunItem, 0, min(len(runs), req.Limit))
	for i := len(runs) - 1; i >= 0 && len(out) < req.Limit; i-- {
		r := runs[i]
		out = append(out, RunItem{
			RunID:                r.ID,
			Scape:                r.Scape,
			Topology:             append([]int(nil), r.Topology...),
			Seed:                 r.Seed,
			Population:           r.PopulationSize,
			Generations:          r.Generations,
			CompletedGenerations: r.CompletedGenerations,
			Selection:            r.Selection,
			Mutation:             r.Mutation,
			BestFitness:          r.BestFitness,
			StoppedEarly:         r.StoppedEarly,
			StartedAt:            r.StartedAt,
			Duration:             r.FinishedAt.Sub(r.StartedAt),
		})
	}
	return out, nil
}

func (c *Client) FitnessHistory(ctx context.Context, req FitnessHistoryRequest) ([]GenerationItem, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest, "fitness history")
	if err != nil {
		return nil, err
	}
	generations, ok, err := c.store.GetGenerations(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Errorf("fitness history not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(generations) > req.Limit {
		generations = generations[:req.Limit]
	}

	out := make([]GenerationItem, 0, len(generations))
	for _, g := range generations {
		out = append(out, GenerationItem{
			Generation:      g.Generation,
			Size:            g.Size,
			MinFitness:      g.MinFitness,
			MaxFitness:      g.MaxFitness,
			MeanFitness:     g.MeanFitness,
			StdDevFitness:   g.StdDevFitness,
			ChampionID:      g.ChampionID,
			ChampionFitness: g.ChampionFitness,
		})
	}
	return out, nil
}

func (c *Client) Champion(ctx context.Context, req ChampionRequest) (ChampionItem, error) {
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest, "champion")
	if err != nil {
		return ChampionItem{}, err
	}
	_, record, err := c.polis.LoadChampion(ctx, runID)
	if err != nil {
		return ChampionItem{}, err
	}
	return championItem(record), nil
}

// Predict rebuilds a run's champion network and propagates one input through it.
func (c *Client) Predict(ctx context.Context, req PredictRequest) ([]float64, error) {
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest, "predict")
	if err != nil {
		return nil, err
	}
	cortex, _, err := c.polis.LoadChampion(ctx, runID)
	if err != nil {
		return nil, err
	}
	return cortex.RunStep(ctx, req.Input)
}

func (c *Client) resolveRunID(ctx context.Context, runID string, latest bool, operation string) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if _, err := c.ensurePolis(ctx); err != nil {
		return "", err
	}
	if latest {
		runs, err := c.Runs(ctx, RunsRequest{Limit: 1})
		if err != nil {
			return "", err
		}
		if len(runs) == 0 {
			return "", errors.New("no runs available")
		}
		return runs[0].RunID, nil
	}
	if runID == "" {
		return "", errors.Errorf("%s requires run id or latest", operation)
	}
	return runID, nil
}

func (c *Client) ensurePolis(ctx context.Context) (*platform.Polis, error) {
	if c.polis != nil {
		return c.polis, nil
	}
	p := platform.NewPolis(platform.Config{Store: c.store, Metrics: c.metrics, Logger: c.logger})
	if err := p.Init(ctx); err != nil {
		return nil, err
	}
	c.polis = p
	return c.polis, nil
}

func mutationFromRequest(req RunRequest) (genetic.MutationMethod, error) {
	uniform, err := genetic.NewUniformMutation(req.MutationChance, req.MutationCoeff)
	if err != nil {
		return nil, err
	}
	if req.MutationClamp < 0 {
		return nil, errors.Wrap(genetic.ErrInvalidMutationParams, "clamp must be >= 0")
	}
	if req.MutationClamp > 0 {
		return genetic.ClampedMutation{Inner: uniform, Limit: req.MutationClamp}, nil
	}
	return uniform, nil
}

func championItem(record model.ChampionRecord) ChampionItem {
	return ChampionItem{
		RunID:    record.RunID,
		AgentID:  record.AgentID,
		Fitness:  record.Fitness,
		Topology: append([]int(nil), record.Topology...),
		Weights:  append([]float64(nil), record.Chromosome...),
	}
}
