package genetic

import "github.com/pkg/errors"

var (
	ErrEmptyPopulation       = errors.New("population is empty")
	ErrGenomeLengthMismatch  = errors.New("genome length mismatch")
	ErrNegativeFitness       = errors.New("negative fitness")
	ErrInvalidMutationParams = errors.New("invalid mutation parameters")
)
