package agent

import (
	"context"
	"errors"
	"testing"

	"evonet/internal/genetic"
	"evonet/internal/nn"
)

var xorTopology = []nn.LayerTopology{{Neurons: 2}, {Neurons: 2}, {Neurons: 1}}

func TestChromosomeRoundTripPreservesLength(t *testing.T) {
	rng := genetic.NewRand(4)
	cortex, err := Random(rng, xorTopology)
	if err != nil {
		t.Fatalf("random: %v", err)
	}

	chromosome := cortex.Chromosome()
	if len(chromosome) != nn.WeightCount(xorTopology) {
		t.Fatalf("unexpected chromosome length: %d", len(chromosome))
	}

	rebuilt, err := FromChromosome(xorTopology)(chromosome)
	if err != nil {
		t.Fatalf("from chromosome: %v", err)
	}
	again := rebuilt.Chromosome()
	if len(again) != len(chromosome) {
		t.Fatalf("length changed: %d -> %d", len(chromosome), len(again))
	}
	for i := range chromosome {
		if chromosome[i] != again[i] {
			t.Fatalf("gene %d changed: %f -> %f", i, chromosome[i], again[i])
		}
	}
}

func TestChromosomeIsNotAliased(t *testing.T) {
	cortex, err := Random(genetic.NewRand(1), xorTopology)
	if err != nil {
		t.Fatalf("random: %v", err)
	}
	first := cortex.Chromosome()
	first[0] += 100
	if cortex.Chromosome()[0] == first[0] {
		t.Fatal("mutating a returned chromosome changed the cortex")
	}
}

func TestFromChromosomeRejectsWrongLength(t *testing.T) {
	_, err := FromChromosome(xorTopology)(genetic.Chromosome{1, 2, 3})
	if !errors.Is(err, nn.ErrWeightCount) {
		t.Fatalf("expected weight count error, got %v", err)
	}
}

func TestWithFitnessReturnsCopy(t *testing.T) {
	cortex, err := Random(genetic.NewRand(2), xorTopology)
	if err != nil {
		t.Fatalf("random: %v", err)
	}
	scored := cortex.WithFitness(0.75)
	if cortex.Scored() || cortex.Fitness() != 0 {
		t.Fatal("original cortex was modified")
	}
	if !scored.Scored() || scored.Fitness() != 0.75 || scored.ID() != cortex.ID() {
		t.Fatalf("unexpected scored cortex: id=%s fitness=%f", scored.ID(), scored.Fitness())
	}
}

func TestRunStep(t *testing.T) {
	network, err := nn.FromWeights([]nn.LayerTopology{{Neurons: 2}, {Neurons: 1}}, []float64{0.5, 1, -1})
	if err != nil {
		t.Fatalf("from weights: %v", err)
	}
	cortex, err := NewCortex("c1", network)
	if err != nil {
		t.Fatalf("new cortex: %v", err)
	}
	out, err := cortex.RunStep(context.Background(), []float64{2, 1})
	if err != nil {
		t.Fatalf("run step: %v", err)
	}
	if len(out) != 1 || out[0] != 1.5 {
		t.Fatalf("unexpected output: %v", out)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := cortex.RunStep(ctx, []float64{2, 1}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}

func TestCortexSatisfiesIndividual(t *testing.T) {
	var _ genetic.Individual = (*Cortex)(nil)
}
