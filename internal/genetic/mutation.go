package genetic

import (
	"math"

	"github.com/pkg/errors"
)

// MutationMethod perturbs a chromosome in place.
type MutationMethod interface {
	Name() string
	Mutate(rng Rand, child Chromosome)
}

// UniformMutation adds a value drawn from [-Coeff, Coeff] to each gene with
// probability Chance. Genes are not clamped.
type UniformMutation struct {
	Chance float64
	Coeff  float64
}

func NewUniformMutation(chance, coeff float64) (UniformMutation, error) {
	if math.IsNaN(chance) || chance < 0 || chance > 1 {
		return UniformMutation{}, errors.Wrapf(ErrInvalidMutationParams, "chance %f outside [0, 1]", chance)
	}
	if math.IsNaN(coeff) || coeff < 0 {
		return UniformMutation{}, errors.Wrapf(ErrInvalidMutationParams, "coefficient %f must be >= 0", coeff)
	}
	return UniformMutation{Chance: chance, Coeff: coeff}, nil
}

func (UniformMutation) Name() string {
	return "uniform"
}

func (m UniformMutation) Mutate(rng Rand, child Chromosome) {
	if m.Chance <= 0 {
		return
	}
	for i := range child {
		if rng.Float64() >= m.Chance {
			continue
		}
		child[i] += (rng.Float64()*2 - 1) * m.Coeff
	}
}

// ClampedMutation runs Inner and then bounds every gene to [-Limit, Limit].
type ClampedMutation struct {
	Inner MutationMethod
	Limit float64
}

func (m ClampedMutation) Name() string {
	return "clamped_" + m.Inner.Name()
}

func (m ClampedMutation) Mutate(rng Rand, child Chromosome) {
	m.Inner.Mutate(rng, child)
	limit := math.Abs(m.Limit)
	for i, gene := range child {
		switch {
		case gene > limit:
			child[i] = limit
		case gene < -limit:
			child[i] = -limit
		}
	}
}
