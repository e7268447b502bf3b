package nn

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestPropagateTwoLayerNetwork(t *testing.T) {
	network, err := New([]Layer{
		{Neurons: []Neuron{
			{Bias: 0, Weights: []float64{1, 1}},
			{Bias: 0, Weights: []float64{0, 1}},
		}},
		{Neurons: []Neuron{
			{Bias: 0, Weights: []float64{0.5, 0.5}},
		}},
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	hidden := network.layers[0].propagate([]float64{1, 2})
	if len(hidden) != 2 || hidden[0] != 3 || hidden[1] != 2 {
		t.Fatalf("unexpected hidden outputs: %v", hidden)
	}

	out, err := network.Propagate([]float64{1, 2})
	if err != nil {
		t.Fatalf("propagate: %v", err)
	}
	if len(out) != 1 || math.Abs(out[0]-2.5) > 1e-12 {
		t.Fatalf("unexpected output: %v", out)
	}
}

func TestPropagateDimensionMismatch(t *testing.T) {
	network, err := Random(rand.New(rand.NewSource(1)), []LayerTopology{{Neurons: 3}, {Neurons: 1}})
	if err != nil {
		t.Fatalf("random: %v", err)
	}
	_, err = network.Propagate([]float64{1, 2})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected dimension mismatch, got %v", err)
	}
}

func TestNeuronRectifies(t *testing.T) {
	neuron := Neuron{Bias: -1, Weights: []float64{0.5, 2}}
	if got := neuron.propagate([]float64{0, 0}); got != 0 {
		t.Fatalf("expected clamped output 0, got %f", got)
	}
	if got := neuron.propagate([]float64{2, 1}); got != 2 {
		t.Fatalf("expected 2, got %f", got)
	}
}

func TestNeuronMonotonicInEachInput(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		neuron := Neuron{Bias: rng.Float64()*2 - 1, Weights: []float64{rng.Float64(), rng.Float64(), rng.Float64()}}
		input := []float64{rng.Float64()*4 - 2, rng.Float64()*4 - 2, rng.Float64()*4 - 2}
		base := neuron.propagate(input)
		for i := range input {
			bumped := append([]float64(nil), input...)
			bumped[i] += rng.Float64()
			if got := neuron.propagate(bumped); got < base {
				t.Fatalf("output decreased: input=%v bumped=%v base=%f got=%f", input, bumped, base, got)
			}
		}
	}
}

func TestWeightsRoundTrip(t *testing.T) {
	topology := []LayerTopology{{Neurons: 3}, {Neurons: 4}, {Neurons: 2}}
	network, err := Random(rand.New(rand.NewSource(42)), topology)
	if err != nil {
		t.Fatalf("random: %v", err)
	}

	weights := network.Weights()
	if want := 4*(1+3) + 2*(1+4); len(weights) != want || WeightCount(topology) != want {
		t.Fatalf("unexpected weight count: got=%d want=%d", len(weights), want)
	}

	rebuilt, err := FromWeights(topology, weights)
	if err != nil {
		t.Fatalf("from weights: %v", err)
	}
	again := rebuilt.Weights()
	for i := range weights {
		if weights[i] != again[i] {
			t.Fatalf("weight %d differs: %f vs %f", i, weights[i], again[i])
		}
	}

	input := []float64{0.2, -0.4, 0.9}
	a, _ := network.Propagate(input)
	b, _ := rebuilt.Propagate(input)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("output %d differs: %f vs %f", i, a[i], b[i])
		}
	}
}

func TestFromWeightsOrderIsBiasFirst(t *testing.T) {
	network, err := FromWeights([]LayerTopology{{Neurons: 2}, {Neurons: 1}}, []float64{0.5, 1, 2})
	if err != nil {
		t.Fatalf("from weights: %v", err)
	}
	layers := network.Layers()
	if layers[0].Neurons[0].Bias != 0.5 {
		t.Fatalf("expected bias 0.5, got %f", layers[0].Neurons[0].Bias)
	}
	if w := layers[0].Neurons[0].Weights; w[0] != 1 || w[1] != 2 {
		t.Fatalf("unexpected weights: %v", w)
	}
}

func TestFromWeightsRejectsWrongLength(t *testing.T) {
	topology := []LayerTopology{{Neurons: 2}, {Neurons: 1}}
	for _, n := range []int{0, 2, 4} {
		if _, err := FromWeights(topology, make([]float64, n)); !errors.Is(err, ErrWeightCount) {
			t.Fatalf("len=%d: expected weight count error, got %v", n, err)
		}
	}
}

func TestValidateTopology(t *testing.T) {
	tests := []struct {
		name     string
		topology []LayerTopology
		wantErr  bool
	}{
		{name: "empty", topology: nil, wantErr: true},
		{name: "single", topology: []LayerTopology{{Neurons: 2}}, wantErr: true},
		{name: "zero width", topology: []LayerTopology{{Neurons: 2}, {Neurons: 0}}, wantErr: true},
		{name: "valid", topology: []LayerTopology{{Neurons: 2}, {Neurons: 2}, {Neurons: 1}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateTopology(tc.topology)
			if tc.wantErr && !errors.Is(err, ErrInvalidTopology) {
				t.Fatalf("expected invalid topology, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestRandomAndExplicitAreStructurallyIdentical(t *testing.T) {
	topology := []LayerTopology{{Neurons: 2}, {Neurons: 3}, {Neurons: 1}}
	random, err := Random(rand.New(rand.NewSource(3)), topology)
	if err != nil {
		t.Fatalf("random: %v", err)
	}
	explicit, err := New(random.Layers())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	a, b := random.Topology(), explicit.Topology()
	if len(a) != len(b) {
		t.Fatalf("topology length differs: %v vs %v", a, b)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("topology differs: %v vs %v", a, b)
		}
	}
}

func TestNewRejectsMismatchedFanIn(t *testing.T) {
	_, err := New([]Layer{
		{Neurons: []Neuron{{Weights: []float64{1, 1}}}},
		{Neurons: []Neuron{{Weights: []float64{1, 1}}}},
	})
	if !errors.Is(err, ErrInvalidTopology) {
		t.Fatalf("expected invalid topology, got %v", err)
	}
}
