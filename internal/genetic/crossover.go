package genetic

import "github.com/pkg/errors"

// CrossoverMethod combines two parent chromosomes into one child.
type CrossoverMethod interface {
	Name() string
	Crossover(rng Rand, a, b Chromosome) (Chromosome, error)
}

// UniformCrossover takes each gene from either parent with equal probability.
type UniformCrossover struct{}

func (UniformCrossover) Name() string {
	return "uniform"
}

func (UniformCrossover) Crossover(rng Rand, a, b Chromosome) (Chromosome, error) {
	if len(a) != len(b) {
		return nil, errors.Wrapf(ErrGenomeLengthMismatch, "parent lengths %d and %d", len(a), len(b))
	}
	if rng == nil {
		return nil, errors.New("random source is required")
	}

	child := make(Chromosome, len(a))
	for i := range a {
		if rng.Float64() < 0.5 {
			child[i] = a[i]
		} else {
			child[i] = b[i]
		}
	}
	return child, nil
}
