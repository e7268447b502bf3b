package agent

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"evonet/internal/genetic"
	"evonet/internal/nn"
)

// Cortex is a network together with the fitness it scored. A Cortex is never
// modified after construction; WithFitness returns a scored copy.
type Cortex struct {
	id      string
	network *nn.Network
	fitness float64
	scored  bool
}

func NewCortex(id string, network *nn.Network) (*Cortex, error) {
	if network == nil {
		return nil, errors.New("network is required")
	}
	if id == "" {
		id = uuid.NewString()
	}
	return &Cortex{id: id, network: network}, nil
}

// Random seeds a cortex with a freshly randomized network.
func Random(rng nn.RandomSource, topology []nn.LayerTopology) (*Cortex, error) {
	network, err := nn.Random(rng, topology)
	if err != nil {
		return nil, errors.Wrap(err, "random network")
	}
	return NewCortex("", network)
}

// FromChromosome returns the reconstruction function the genetic algorithm uses
// to turn evolved genes back into a cortex of the given topology.
func FromChromosome(topology []nn.LayerTopology) func(genetic.Chromosome) (*Cortex, error) {
	layout := append([]nn.LayerTopology(nil), topology...)
	return func(chromosome genetic.Chromosome) (*Cortex, error) {
		network, err := nn.FromWeights(layout, chromosome)
		if err != nil {
			return nil, errors.Wrap(err, "rebuild network from chromosome")
		}
		return NewCortex("", network)
	}
}

func (c *Cortex) ID() string {
	return c.id
}

func (c *Cortex) Network() *nn.Network {
	return c.network
}

// RunStep propagates one input vector through the network.
func (c *Cortex) RunStep(ctx context.Context, inputs []float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.network.Propagate(inputs)
}

// WithFitness returns a copy of c carrying the given score.
func (c *Cortex) WithFitness(fitness float64) *Cortex {
	return &Cortex{id: c.id, network: c.network, fitness: fitness, scored: true}
}

func (c *Cortex) Scored() bool {
	return c.scored
}

func (c *Cortex) Fitness() float64 {
	return c.fitness
}

// Chromosome flattens the network parameters. The returned slice is a fresh
// copy owned by the caller.
func (c *Cortex) Chromosome() genetic.Chromosome {
	return genetic.Chromosome(c.network.Weights())
}
