// Package config loads evolution run settings from INI files.
package config

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
)

// RunConfig holds every setting a run needs.
type RunConfig struct {
	Run       RunSection
	Network   NetworkSection
	Selection SelectionSection
	Mutation  MutationSection
	Storage   StorageSection
}

type RunSection struct {
	ID             string  `ini:"id"`
	Scape          string  `ini:"scape"`
	PopulationSize int     `ini:"population_size"`
	Generations    int     `ini:"generations"`
	Workers        int     `ini:"workers"`
	Seed           int64   `ini:"seed"`
	FitnessGoal    float64 `ini:"fitness_goal"`
}

type NetworkSection struct {
	// Topology lists layer widths, input layer first.
	Topology []int `ini:"topology" delim:","`
}

type SelectionSection struct {
	Method         string `ini:"method"`
	TournamentSize int    `ini:"tournament_size"`
}

type MutationSection struct {
	Chance float64 `ini:"chance"`
	Coeff  float64 `ini:"coeff"`
	// Clamp bounds genes to [-Clamp, Clamp] after mutation. 0 disables.
	Clamp float64 `ini:"clamp"`
}

type StorageSection struct {
	Kind   string `ini:"kind"`
	DBPath string `ini:"db_path"`
}

// Default returns the settings used when no file is given.
func Default() RunConfig {
	return RunConfig{
		Run: RunSection{
			Scape:          "xor",
			PopulationSize: 50,
			Generations:    100,
			Workers:        4,
			Seed:           1,
		},
		Network:   NetworkSection{Topology: []int{2, 2, 1}},
		Selection: SelectionSection{Method: "roulette_wheel", TournamentSize: 3},
		Mutation:  MutationSection{Chance: 0.01, Coeff: 0.3},
		Storage:   StorageSection{Kind: "memory", DBPath: "evonet.db"},
	}
}

// Load reads an INI file on top of Default and validates the result.
func Load(path string) (RunConfig, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, path)
	if err != nil {
		return RunConfig{}, errors.Wrapf(err, "load config file %q", path)
	}
	return fromFile(file)
}

// Parse reads INI content from memory on top of Default.
func Parse(data []byte) (RunConfig, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, data)
	if err != nil {
		return RunConfig{}, errors.Wrap(err, "parse config")
	}
	return fromFile(file)
}

func fromFile(file *ini.File) (RunConfig, error) {
	cfg := Default()

	sections := []struct {
		name   string
		target any
	}{
		{"run", &cfg.Run},
		{"network", &cfg.Network},
		{"selection", &cfg.Selection},
		{"mutation", &cfg.Mutation},
		{"storage", &cfg.Storage},
	}
	for _, s := range sections {
		if !file.HasSection(s.name) {
			continue
		}
		if err := file.Section(s.name).MapTo(s.target); err != nil {
			return RunConfig{}, errors.Wrapf(err, "map [%s] section", s.name)
		}
	}

	cfg.Run.Scape = cleanIniString(cfg.Run.Scape)
	cfg.Selection.Method = cleanIniString(cfg.Selection.Method)
	cfg.Storage.Kind = cleanIniString(cfg.Storage.Kind)

	if err := cfg.Validate(); err != nil {
		return RunConfig{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c RunConfig) Validate() error {
	switch {
	case c.Run.Scape == "":
		return errors.New("run.scape is required")
	case c.Run.PopulationSize <= 0:
		return errors.Errorf("run.population_size must be > 0, got %d", c.Run.PopulationSize)
	case c.Run.Generations <= 0:
		return errors.Errorf("run.generations must be > 0, got %d", c.Run.Generations)
	case c.Run.FitnessGoal < 0:
		return errors.Errorf("run.fitness_goal must be >= 0, got %f", c.Run.FitnessGoal)
	case len(c.Network.Topology) < 2:
		return errors.Errorf("network.topology needs at least 2 layers, got %d", len(c.Network.Topology))
	case c.Mutation.Chance < 0 || c.Mutation.Chance > 1:
		return errors.Errorf("mutation.chance must be in [0, 1], got %f", c.Mutation.Chance)
	case c.Mutation.Coeff < 0:
		return errors.Errorf("mutation.coeff must be >= 0, got %f", c.Mutation.Coeff)
	case c.Mutation.Clamp < 0:
		return errors.Errorf("mutation.clamp must be >= 0, got %f", c.Mutation.Clamp)
	}
	for i, width := range c.Network.Topology {
		if width < 1 {
			return errors.Errorf("network.topology layer %d has width %d", i, width)
		}
	}
	return nil
}

// ParseTopology parses a comma separated list of layer widths such as "2,4,1".
func ParseTopology(value string) ([]int, error) {
	parts := strings.Split(value, ",")
	widths := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		width, err := strconv.Atoi(part)
		if err != nil {
			return nil, errors.Wrapf(err, "parse layer width %q", part)
		}
		widths = append(widths, width)
	}
	return widths, nil
}

func cleanIniString(value string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(value), `"'`))
}
