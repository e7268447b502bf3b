package genetic

import (
	"github.com/pkg/errors"
)

// SelectionMethod picks one parent from a population.
type SelectionMethod interface {
	Name() string
	Select(rng Rand, population []Individual) (Individual, error)
}

// RouletteWheelSelection picks individuals with probability proportional to
// their fitness. When every fitness is zero it picks uniformly.
type RouletteWheelSelection struct{}

func (RouletteWheelSelection) Name() string {
	return "roulette_wheel"
}

func (RouletteWheelSelection) Select(rng Rand, population []Individual) (Individual, error) {
	if len(population) == 0 {
		return nil, ErrEmptyPopulation
	}
	if rng == nil {
		return nil, errors.New("random source is required")
	}

	total := 0.0
	for i, individual := range population {
		fitness := individual.Fitness()
		if fitness < 0 {
			return nil, errors.Wrapf(ErrNegativeFitness, "individual %d has fitness %f", i, fitness)
		}
		total += fitness
	}
	if total == 0 {
		return population[rng.Intn(len(population))], nil
	}

	draw := rng.Float64() * total
	cumulative := 0.0
	for _, individual := range population {
		cumulative += individual.Fitness()
		if cumulative > draw {
			return individual, nil
		}
	}
	// Rounding can leave draw a hair above the accumulated sum; the last
	// individual with non-zero fitness owns the top of the wheel.
	for i := len(population) - 1; i >= 0; i-- {
		if population[i].Fitness() > 0 {
			return population[i], nil
		}
	}
	return population[len(population)-1], nil
}

// TournamentSelection samples Size individuals with replacement and keeps the
// fittest. Sizes <= 0 default to 3.
type TournamentSelection struct {
	Size int
}

func (TournamentSelection) Name() string {
	return "tournament"
}

func (s TournamentSelection) Select(rng Rand, population []Individual) (Individual, error) {
	if len(population) == 0 {
		return nil, ErrEmptyPopulation
	}
	if rng == nil {
		return nil, errors.New("random source is required")
	}

	size := s.Size
	if size <= 0 {
		size = 3
	}

	best := population[rng.Intn(len(population))]
	for i := 1; i < size; i++ {
		candidate := population[rng.Intn(len(population))]
		if candidate.Fitness() > best.Fitness() {
			best = candidate
		}
	}
	return best, nil
}

// SelectionFromName resolves a selection method by its Name.
func SelectionFromName(name string, tournamentSize int) (SelectionMethod, error) {
	switch name {
	case "", "roulette_wheel", "roulette":
		return RouletteWheelSelection{}, nil
	case "tournament":
		return TournamentSelection{Size: tournamentSize}, nil
	default:
		return nil, errors.Errorf("unsupported selection method: %s", name)
	}
}
