package scape

import "context"

type Fitness float64

type Trace map[string]any

type Agent interface {
	ID() string
}

// StepAgent maps one input vector to one output vector.
type StepAgent interface {
	Agent
	RunStep(ctx context.Context, input []float64) ([]float64, error)
}

// Scape scores an agent. Returned fitness is never negative.
type Scape interface {
	Name() string
	Evaluate(ctx context.Context, agent Agent) (Fitness, Trace, error)
}
