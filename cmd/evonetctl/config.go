package main

import (
	"flag"

	"evonet/internal/config"
	"evonet/pkg/evonet"
)

type runFlags struct {
	runID          *string
	scape          *string
	topology       *string
	population     *int
	generations    *int
	workers        *int
	seed           *int64
	fitnessGoal    *float64
	selection      *string
	tournamentSize *int
	mutationChance *float64
	mutationCoeff  *float64
	mutationClamp  *float64
}

func addRunFlags(fs *flag.FlagSet) runFlags {
	d := config.Default()
	return runFlags{
		runID:          fs.String("run-id", "", "explicit run id (optional)"),
		scape:          fs.String("scape", d.Run.Scape, "scape name: xor|and|or|nand"),
		topology:       fs.String("topology", formatInts(d.Network.Topology), "comma separated layer widths, input layer first"),
		population:     fs.Int("pop", d.Run.PopulationSize, "population size"),
		generations:    fs.Int("gens", d.Run.Generations, "generation count"),
		workers:        fs.Int("workers", d.Run.Workers, "worker count"),
		seed:           fs.Int64("seed", d.Run.Seed, "rng seed"),
		fitnessGoal:    fs.Float64("fitness-goal", d.Run.FitnessGoal, "early-stop best fitness goal (0 disables)"),
		selection:      fs.String("selection", d.Selection.Method, "parent selection: roulette_wheel|tournament"),
		tournamentSize: fs.Int("tournament-size", d.Selection.TournamentSize, "tournament size for selection=tournament"),
		mutationChance: fs.Float64("mutation-chance", d.Mutation.Chance, "per-gene mutation probability"),
		mutationCoeff:  fs.Float64("mutation-coeff", d.Mutation.Coeff, "maximum absolute mutation delta"),
		mutationClamp:  fs.Float64("mutation-clamp", d.Mutation.Clamp, "clamp genes to [-clamp, clamp] after mutation (0 disables)"),
	}
}

// loadRunConfig reads the optional INI file and applies the flags that were
// set explicitly on the command line.
func loadRunConfig(path string, f runFlags, set map[string]bool) (config.RunConfig, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.RunConfig{}, err
		}
		cfg = loaded
	}

	if set["run-id"] {
		cfg.Run.ID = *f.runID
	}
	if set["scape"] {
		cfg.Run.Scape = *f.scape
	}
	if set["topology"] {
		topology, err := config.ParseTopology(*f.topology)
		if err != nil {
			return config.RunConfig{}, err
		}
		cfg.Network.Topology = topology
	}
	if set["pop"] {
		cfg.Run.PopulationSize = *f.population
	}
	if set["gens"] {
		cfg.Run.Generations = *f.generations
	}
	if set["workers"] {
		cfg.Run.Workers = *f.workers
	}
	if set["seed"] {
		cfg.Run.Seed = *f.seed
	}
	if set["fitness-goal"] {
		cfg.Run.FitnessGoal = *f.fitnessGoal
	}
	if set["selection"] {
		cfg.Selection.Method = *f.selection
	}
	if set["tournament-size"] {
		cfg.Selection.TournamentSize = *f.tournamentSize
	}
	if set["mutation-chance"] {
		cfg.Mutation.Chance = *f.mutationChance
	}
	if set["mutation-coeff"] {
		cfg.Mutation.Coeff = *f.mutationCoeff
	}
	if set["mutation-clamp"] {
		cfg.Mutation.Clamp = *f.mutationClamp
	}

	if err := cfg.Validate(); err != nil {
		return config.RunConfig{}, err
	}
	return cfg, nil
}

func runRequestFromConfig(cfg config.RunConfig) evonet.RunRequest {
	return evonet.RunRequest{
		RunID:          cfg.Run.ID,
		Scape:          cfg.Run.Scape,
		Topology:       append([]int(nil), cfg.Network.Topology...),
		Population:     cfg.Run.PopulationSize,
		Generations:    cfg.Run.Generations,
		Workers:        cfg.Run.Workers,
		Seed:           cfg.Run.Seed,
		FitnessGoal:    cfg.Run.FitnessGoal,
		Selection:      cfg.Selection.Method,
		TournamentSize: cfg.Selection.TournamentSize,
		MutationChance: cfg.Mutation.Chance,
		MutationCoeff:  cfg.Mutation.Coeff,
		MutationClamp:  cfg.Mutation.Clamp,
	}
}
