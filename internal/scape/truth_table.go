package scape

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

type truthCase struct {
	in   []float64
	want float64
}

var truthTables = map[string][]truthCase{
	"xor": {
		{in: []float64{0, 0}, want: 0},
		{in: []float64{0, 1}, want: 1},
		{in: []float64{1, 0}, want: 1},
		{in: []float64{1, 1}, want: 0},
	},
	"and": {
		{in: []float64{0, 0}, want: 0},
		{in: []float64{0, 1}, want: 0},
		{in: []float64{1, 0}, want: 0},
		{in: []float64{1, 1}, want: 1},
	},
	"or": {
		{in: []float64{0, 0}, want: 0},
		{in: []float64{0, 1}, want: 1},
		{in: []float64{1, 0}, want: 1},
		{in: []float64{1, 1}, want: 1},
	},
	"nand": {
		{in: []float64{0, 0}, want: 1},
		{in: []float64{0, 1}, want: 1},
		{in: []float64{1, 0}, want: 1},
		{in: []float64{1, 1}, want: 0},
	},
}

// TruthTableScape scores a two-input, one-output agent against a boolean
// truth table. Fitness is the reciprocal of the summed squared error.
type TruthTableScape struct {
	table string
	cases []truthCase
}

func NewTruthTableScape(name string) (TruthTableScape, error) {
	key := strings.TrimSpace(strings.ToLower(name))
	cases, ok := truthTables[key]
	if !ok {
		return TruthTableScape{}, errors.Errorf("unsupported truth table: %s", name)
	}
	return TruthTableScape{table: key, cases: cases}, nil
}

// TruthTables lists the supported table names.
func TruthTables() []string {
	names := make([]string, 0, len(truthTables))
	for name := range truthTables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s TruthTableScape) Name() string {
	return s.table
}

// Inputs and Outputs report the widths an agent must expose.
func (TruthTableScape) Inputs() int  { return 2 }
func (TruthTableScape) Outputs() int { return 1 }

func (s TruthTableScape) Evaluate(ctx context.Context, agent Agent) (Fitness, Trace, error) {
	runner, ok := agent.(StepAgent)
	if !ok {
		return 0, nil, errors.Errorf("agent %s does not implement step runner", agent.ID())
	}
	if len(s.cases) == 0 {
		return 0, Trace{"mse": 0.0, "sse": 0.0, "cases": 0}, nil
	}

	var sse float64
	predictions := make([]float64, 0, len(s.cases))
	for _, c := range s.cases {
		if err := ctx.Err(); err != nil {
			return 0, nil, err
		}
		out, err := runner.RunStep(ctx, c.in)
		if err != nil {
			return 0, nil, errors.Wrapf(err, "agent %s", agent.ID())
		}
		if len(out) != 1 {
			return 0, nil, errors.Errorf("%s requires one output, got %d", s.table, len(out))
		}
		predictions = append(predictions, out[0])
		delta := out[0] - c.want
		sse += delta * delta
	}

	fitness := Fitness(1.0 / (sse + 0.000001))
	return fitness, Trace{
		"mse":         sse / float64(len(s.cases)),
		"sse":         sse,
		"predictions": predictions,
		"cases":       len(s.cases),
	}, nil
}
