package nn

import (
	"github.com/pkg/errors"
)

var (
	ErrDimensionMismatch = errors.New("input dimension mismatch")
	ErrInvalidTopology   = errors.New("invalid topology")
	ErrWeightCount       = errors.New("weight count mismatch")
)

// RandomSource supplies uniform floats in [0, 1). *math/rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

// LayerTopology describes the width of one layer.
type LayerTopology struct {
	Neurons int `json:"neurons"`
}

// Neuron holds one bias and one weight per incoming signal.
type Neuron struct {
	Bias    float64   `json:"bias"`
	Weights []float64 `json:"weights"`
}

// Layer is an ordered set of neurons sharing the same inputs.
type Layer struct {
	Neurons []Neuron `json:"neurons"`
}

// Network is a fixed-topology feedforward network with rectified neurons.
type Network struct {
	inputs int
	layers []Layer
}

// ValidateTopology checks that there are at least two layers and that every
// layer has at least one neuron.
func ValidateTopology(topology []LayerTopology) error {
	if len(topology) < 2 {
		return errors.Wrapf(ErrInvalidTopology, "need at least 2 layers, got %d", len(topology))
	}
	for i, layer := range topology {
		if layer.Neurons < 1 {
			return errors.Wrapf(ErrInvalidTopology, "layer %d has %d neurons", i, layer.Neurons)
		}
	}
	return nil
}

// WeightCount is the number of parameters (biases and weights) a network with
// the given topology carries.
func WeightCount(topology []LayerTopology) int {
	total := 0
	for i := 1; i < len(topology); i++ {
		total += topology[i].Neurons * (1 + topology[i-1].Neurons)
	}
	return total
}

// New builds a network from explicit layer values. The input width is taken
// from the first layer's fan-in and every later layer must consume exactly the
// previous layer's width.
func New(layers []Layer) (*Network, error) {
	if len(layers) == 0 {
		return nil, errors.Wrap(ErrInvalidTopology, "no layers")
	}
	if len(layers[0].Neurons) == 0 {
		return nil, errors.Wrap(ErrInvalidTopology, "layer 0 has no neurons")
	}
	inputs := len(layers[0].Neurons[0].Weights)
	if inputs == 0 {
		return nil, errors.Wrap(ErrInvalidTopology, "first layer neurons have no weights")
	}

	width := inputs
	built := make([]Layer, len(layers))
	for li, layer := range layers {
		if len(layer.Neurons) == 0 {
			return nil, errors.Wrapf(ErrInvalidTopology, "layer %d has no neurons", li)
		}
		neurons := make([]Neuron, len(layer.Neurons))
		for ni, neuron := range layer.Neurons {
			if len(neuron.Weights) != width {
				return nil, errors.Wrapf(ErrInvalidTopology, "layer %d neuron %d has %d weights, want %d", li, ni, len(neuron.Weights), width)
			}
			neurons[ni] = Neuron{
				Bias:    neuron.Bias,
				Weights: append([]float64(nil), neuron.Weights...),
			}
		}
		built[li] = Layer{Neurons: neurons}
		width = len(neurons)
	}
	return &Network{inputs: inputs, layers: built}, nil
}

// Random builds a network whose biases and weights are drawn uniformly from
// [-1, 1].
func Random(rng RandomSource, topology []LayerTopology) (*Network, error) {
	if rng == nil {
		return nil, errors.New("random source is required")
	}
	return build(topology, func() float64 {
		return rng.Float64()*2 - 1
	})
}

// FromWeights rebuilds a network from a flattened parameter vector produced by
// Weights. The vector length must match WeightCount(topology) exactly.
func FromWeights(topology []LayerTopology, weights []float64) (*Network, error) {
	if err := ValidateTopology(topology); err != nil {
		return nil, err
	}
	if want := WeightCount(topology); len(weights) != want {
		return nil, errors.Wrapf(ErrWeightCount, "got %d weights, topology needs %d", len(weights), want)
	}
	idx := 0
	return build(topology, func() float64 {
		w := weights[idx]
		idx++
		return w
	})
}

// build consumes next() in flattening order: layer-major, neuron-major, bias
// before weights. Random and FromWeights share it so both produce the same
// structure for the same value stream.
func build(topology []LayerTopology, next func() float64) (*Network, error) {
	if err := ValidateTopology(topology); err != nil {
		return nil, err
	}
	layers := make([]Layer, 0, len(topology)-1)
	for i := 1; i < len(topology); i++ {
		fanIn := topology[i-1].Neurons
		neurons := make([]Neuron, topology[i].Neurons)
		for n := range neurons {
			bias := next()
			weights := make([]float64, fanIn)
			for w := range weights {
				weights[w] = next()
			}
			neurons[n] = Neuron{Bias: bias, Weights: weights}
		}
		layers = append(layers, Layer{Neurons: neurons})
	}
	return &Network{inputs: topology[0].Neurons, layers: layers}, nil
}

// Propagate feeds input through every layer in order.
func (n *Network) Propagate(input []float64) ([]float64, error) {
	if len(input) != n.inputs {
		return nil, errors.Wrapf(ErrDimensionMismatch, "got %d inputs, network expects %d", len(input), n.inputs)
	}
	signal := input
	for _, layer := range n.layers {
		signal = layer.propagate(signal)
	}
	return signal, nil
}

func (l Layer) propagate(input []float64) []float64 {
	out := make([]float64, len(l.Neurons))
	for i, neuron := range l.Neurons {
		out[i] = neuron.propagate(input)
	}
	return out
}

func (n Neuron) propagate(input []float64) float64 {
	return Rectify(n.Bias + Dot(n.Weights, input))
}

// Weights flattens every parameter into one vector using the same order that
// FromWeights consumes.
func (n *Network) Weights() []float64 {
	out := make([]float64, 0, WeightCount(n.Topology()))
	for _, layer := range n.layers {
		for _, neuron := range layer.Neurons {
			out = append(out, neuron.Bias)
			out = append(out, neuron.Weights...)
		}
	}
	return out
}

// Topology reports the layer widths, input layer first.
func (n *Network) Topology() []LayerTopology {
	out := make([]LayerTopology, 0, len(n.layers)+1)
	out = append(out, LayerTopology{Neurons: n.inputs})
	for _, layer := range n.layers {
		out = append(out, LayerTopology{Neurons: len(layer.Neurons)})
	}
	return out
}

// Layers returns a deep copy of the network's layers.
func (n *Network) Layers() []Layer {
	out := make([]Layer, len(n.layers))
	for i, layer := range n.layers {
		neurons := make([]Neuron, len(layer.Neurons))
		for j, neuron := range layer.Neurons {
			neurons[j] = Neuron{Bias: neuron.Bias, Weights: append([]float64(nil), neuron.Weights...)}
		}
		out[i] = Layer{Neurons: neurons}
	}
	return out
}
