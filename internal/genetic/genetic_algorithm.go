// Package genetic implements a generational genetic algorithm over fixed-length
// real-valued chromosomes. Selection, crossover and mutation are injected so the
// loop knows nothing about what a chromosome encodes.
package genetic

import (
	"github.com/pkg/errors"
)

// GeneticAlgorithm produces the next generation of I from the current one.
type GeneticAlgorithm[I Individual] struct {
	selection SelectionMethod
	crossover CrossoverMethod
	mutation  MutationMethod
}

func New[I Individual](selection SelectionMethod, crossover CrossoverMethod, mutation MutationMethod) (*GeneticAlgorithm[I], error) {
	if selection == nil {
		return nil, errors.New("selection method is required")
	}
	if crossover == nil {
		return nil, errors.New("crossover method is required")
	}
	if mutation == nil {
		return nil, errors.New("mutation method is required")
	}
	return &GeneticAlgorithm[I]{selection: selection, crossover: crossover, mutation: mutation}, nil
}

// Evolve returns a new population of the same size along with statistics of the
// input population. Every slot draws two parents with replacement from the
// unchanged input, crosses them, mutates the child and rebuilds it with from.
// The input population is never modified. On error no population is returned.
func (ga *GeneticAlgorithm[I]) Evolve(rng Rand, population []I, from func(Chromosome) (I, error)) ([]I, Statistics, error) {
	if len(population) == 0 {
		return nil, Statistics{}, ErrEmptyPopulation
	}
	if rng == nil {
		return nil, Statistics{}, errors.New("random source is required")
	}
	if from == nil {
		return nil, Statistics{}, errors.New("chromosome conversion is required")
	}

	pool := make([]Individual, len(population))
	for i, individual := range population {
		pool[i] = individual
	}

	next := make([]I, 0, len(population))
	for slot := range population {
		parentA, err := ga.selection.Select(rng, pool)
		if err != nil {
			return nil, Statistics{}, errors.Wrapf(err, "slot %d: select parent a", slot)
		}
		parentB, err := ga.selection.Select(rng, pool)
		if err != nil {
			return nil, Statistics{}, errors.Wrapf(err, "slot %d: select parent b", slot)
		}

		child, err := ga.crossover.Crossover(rng, parentA.Chromosome(), parentB.Chromosome())
		if err != nil {
			return nil, Statistics{}, errors.Wrapf(err, "slot %d: crossover", slot)
		}
		ga.mutation.Mutate(rng, child)

		offspring, err := from(child)
		if err != nil {
			return nil, Statistics{}, errors.Wrapf(err, "slot %d: rebuild individual", slot)
		}
		next = append(next, offspring)
	}
	return next, NewStatistics(population), nil
}

func (ga *GeneticAlgorithm[I]) Selection() SelectionMethod { return ga.selection }
func (ga *GeneticAlgorithm[I]) Crossover() CrossoverMethod { return ga.crossover }
func (ga *GeneticAlgorithm[I]) Mutation() MutationMethod   { return ga.mutation }
