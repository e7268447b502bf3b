package genetic

import "math/rand"

// Rand is the entropy source threaded through every operator. *rand.Rand
// satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// NewRand returns a deterministic source for the given seed.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Chromosome is the ordered gene vector crossover and mutation operate on.
type Chromosome []float64

func (c Chromosome) Len() int {
	return len(c)
}

func (c Chromosome) Clone() Chromosome {
	return append(Chromosome(nil), c...)
}

// Individual is a scored candidate. Fitness is fixed for the generation it was
// evaluated in and Chromosome must return a vector the individual does not
// share with anyone else.
type Individual interface {
	Fitness() float64
	Chromosome() Chromosome
}
