// Package nn implements the fixed-topology feed-forward network that serves
// as an agent's brain.
package nn

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// initWeightScale scales the standard-normal draws used for fresh weights.
const initWeightScale = 0.1

var (
	// ErrShapeMismatch is returned by Forward when the input length differs
	// from the size of the input layer.
	ErrShapeMismatch = errors.New("nn: input shape mismatch")

	// ErrTopologyMismatch is returned by Crossover when the two parents do
	// not share the same layer sizes.
	ErrTopologyMismatch = errors.New("nn: topology mismatch")

	// ErrInvalidLayers is returned by New for fewer than two layers or a
	// non-positive layer size.
	ErrInvalidLayers = errors.New("nn: invalid layer sizes")
)

// Network is a fully connected feed-forward network with sigmoid activations.
//
// Weights[i] has shape (LayerSizes[i], LayerSizes[i+1]) and Biases[i] is a
// row vector of shape (1, LayerSizes[i+1]). Activations caches the output of
// every layer from the most recent Forward call; renderers read it, nothing
// in the network depends on it.
type Network struct {
	LayerSizes  []int
	Weights     []*mat.Dense
	Biases      []*mat.Dense
	Activations [][]float64

	activation ActivationType
}

// New creates a network with small random weights and zero biases.
func New(layerSizes []int, rng *rand.Rand) (*Network, error) {
	if len(layerSizes) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 layers, got %d", ErrInvalidLayers, len(layerSizes))
	}
	for i, size := range layerSizes {
		if size <= 0 {
			return nil, fmt.Errorf("%w: layer %d has size %d", ErrInvalidLayers, i, size)
		}
	}

	n := &Network{
		LayerSizes:  slices.Clone(layerSizes),
		Weights:     make([]*mat.Dense, 0, len(layerSizes)-1),
		Biases:      make([]*mat.Dense, 0, len(layerSizes)-1),
		Activations: make([][]float64, len(layerSizes)),
		activation:  Sigmoid,
	}
	for i := 1; i < len(layerSizes); i++ {
		rows, cols := layerSizes[i-1], layerSizes[i]
		data := make([]float64, rows*cols)
		for j := range data {
			data[j] = rng.NormFloat64() * initWeightScale
		}
		n.Weights = append(n.Weights, mat.NewDense(rows, cols, data))
		n.Biases = append(n.Biases, mat.NewDense(1, cols, nil))
	}
	for i, size := range layerSizes {
		n.Activations[i] = make([]float64, size)
	}
	return n, nil
}

// Forward propagates inputs through every layer and returns the output layer.
// Each layer's output is cached in Activations.
func (n *Network) Forward(inputs []float64) ([]float64, error) {
	if len(inputs) != n.LayerSizes[0] {
		return nil, fmt.Errorf("%w: got %d inputs, network expects %d", ErrShapeMismatch, len(inputs), n.LayerSizes[0])
	}

	a := mat.NewDense(1, len(inputs), slices.Clone(inputs))
	n.Activations[0] = slices.Clone(inputs)

	act := n.activation
	if act == nil {
		act = Sigmoid
	}
	for i := range n.Weights {
		var z mat.Dense
		z.Mul(a, n.Weights[i])
		z.Add(&z, n.Biases[i])
		z.Apply(func(_, _ int, v float64) float64 { return act(v) }, &z)
		a = &z
		n.Activations[i+1] = mat.Row(nil, 0, a)
	}
	return mat.Row(nil, 0, a), nil
}

// Mutate perturbs each weight and bias independently: with probability rate
// the element gets a standard-normal draw scaled by scale added to it.
func (n *Network) Mutate(rate, scale float64, rng *rand.Rand) {
	for i := range n.Weights {
		mutateMatrix(n.Weights[i], rate, scale, rng)
		mutateMatrix(n.Biases[i], rate, scale, rng)
	}
}

func mutateMatrix(m *mat.Dense, rate, scale float64, rng *rand.Rand) {
	rows, cols := m.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if rng.Float64() < rate {
				m.Set(r, c, m.At(r, c)+rng.NormFloat64()*scale)
			}
		}
	}
}

// Crossover builds a child whose every weight and bias is taken, with equal
// probability, from n or other at the same position. Both parents must have
// identical layer sizes; neither parent is modified.
func (n *Network) Crossover(other *Network, rng *rand.Rand) (*Network, error) {
	if !n.SameTopology(other) {
		return nil, fmt.Errorf("%w: %v vs %v", ErrTopologyMismatch, n.LayerSizes, layerSizesOf(other))
	}

	child := n.Copy()
	for i := range child.Weights {
		crossMatrix(child.Weights[i], other.Weights[i], rng)
		crossMatrix(child.Biases[i], other.Biases[i], rng)
	}
	return child, nil
}

// crossMatrix overwrites elements of dst with the matching element of src
// wherever the coin flip picks the other parent.
func crossMatrix(dst, src *mat.Dense, rng *rand.Rand) {
	rows, cols := dst.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if rng.Float64() >= 0.5 {
				dst.Set(r, c, src.At(r, c))
			}
		}
	}
}

// SameTopology reports whether other has exactly the same layer sizes.
func (n *Network) SameTopology(other *Network) bool {
	return other != nil && slices.Equal(n.LayerSizes, other.LayerSizes)
}

// Copy returns a deep clone sharing no storage with n.
func (n *Network) Copy() *Network {
	c := &Network{
		LayerSizes:  slices.Clone(n.LayerSizes),
		Weights:     make([]*mat.Dense, len(n.Weights)),
		Biases:      make([]*mat.Dense, len(n.Biases)),
		Activations: make([][]float64, len(n.Activations)),
		activation:  n.activation,
	}
	for i := range n.Weights {
		c.Weights[i] = mat.DenseCopyOf(n.Weights[i])
		c.Biases[i] = mat.DenseCopyOf(n.Biases[i])
	}
	for i, layer := range n.Activations {
		c.Activations[i] = slices.Clone(layer)
	}
	return c
}

// Equal reports whether both networks have the same topology and
// bit-identical weights and biases.
func (n *Network) Equal(other *Network) bool {
	if !n.SameTopology(other) {
		return false
	}
	for i := range n.Weights {
		if !mat.Equal(n.Weights[i], other.Weights[i]) || !mat.Equal(n.Biases[i], other.Biases[i]) {
			return false
		}
	}
	return true
}

func layerSizesOf(n *Network) []int {
	if n == nil {
		return nil
	}
	return n.LayerSizes
}
