package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunRecord describes one evolution run and how it ended.
type RunRecord struct {
	VersionedRecord
	ID                   string    `json:"id"`
	Scape                string    `json:"scape"`
	Topology             []int     `json:"topology"`
	PopulationSize       int       `json:"population_size"`
	Generations          int       `json:"generations"`
	CompletedGenerations int       `json:"completed_generations"`
	Seed                 int64     `json:"seed"`
	Selection            string    `json:"selection"`
	Crossover            string    `json:"crossover"`
	Mutation             string    `json:"mutation"`
	MutationChance       float64   `json:"mutation_chance"`
	MutationCoeff        float64   `json:"mutation_coeff"`
	FitnessGoal          float64   `json:"fitness_goal,omitempty"`
	BestFitness          float64   `json:"best_fitness"`
	StoppedEarly         bool      `json:"stopped_early"`
	StartedAt            time.Time `json:"started_at"`
	FinishedAt           time.Time `json:"finished_at"`
}

// GenerationRecord is the fitness summary of one evaluated generation.
type GenerationRecord struct {
	Generation      int     `json:"generation"`
	Size            int     `json:"size"`
	MinFitness      float64 `json:"min_fitness"`
	MaxFitness      float64 `json:"max_fitness"`
	MeanFitness     float64 `json:"mean_fitness"`
	StdDevFitness   float64 `json:"std_dev_fitness"`
	ChampionID      string  `json:"champion_id"`
	ChampionFitness float64 `json:"champion_fitness"`
}

// ChampionRecord stores the best chromosome a run produced together with the
// topology needed to rebuild its network.
type ChampionRecord struct {
	VersionedRecord
	RunID      string    `json:"run_id"`
	AgentID    string    `json:"agent_id"`
	Fitness    float64   `json:"fitness"`
	Topology   []int     `json:"topology"`
	Chromosome []float64 `json:"chromosome"`
}
