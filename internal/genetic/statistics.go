package genetic

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Statistics summarizes the fitness of one evaluated population.
type Statistics struct {
	Size   int     `json:"size"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// NewStatistics computes fitness statistics. An empty population yields the
// zero value.
func NewStatistics[I Individual](population []I) Statistics {
	if len(population) == 0 {
		return Statistics{}
	}
	fitness := make([]float64, len(population))
	for i, individual := range population {
		fitness[i] = individual.Fitness()
	}

	out := Statistics{Size: len(population), Min: fitness[0], Max: fitness[0]}
	for _, f := range fitness[1:] {
		if f < out.Min {
			out.Min = f
		}
		if f > out.Max {
			out.Max = f
		}
	}
	if len(fitness) == 1 {
		out.Mean = fitness[0]
		return out
	}
	out.Mean, out.StdDev = stat.MeanStdDev(fitness, nil)
	return out
}

func (s Statistics) String() string {
	return fmt.Sprintf("min=%.4f max=%.4f mean=%.4f std=%.4f", s.Min, s.Max, s.Mean, s.StdDev)
}
