package classifier

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Activation names an elementwise nonlinearity applied after a dense layer.
type Activation string

const (
	ActivationIdentity Activation = "identity"
	ActivationReLU     Activation = "relu"
	ActivationSigmoid  Activation = "sigmoid"
	ActivationTanh     Activation = "tanh"
)

// LayerSpec configures one dense layer of a Network.
type LayerSpec struct {
	Units      int
	Activation Activation // default: identity
}

// NetworkConfig configures a feed-forward network.
type NetworkConfig struct {
	InputShape []int       // per-sample shape, e.g. {28, 28}
	Layers     []LayerSpec // at least one layer
	Seed       int64       // weight initialization seed
}

// Network is a dense feed-forward network. Weights are initialized
// deterministically from the seed, so two networks built from the same
// config produce identical activations. It implements both Classifier and
// ActivationExtractor.
type Network struct {
	inputShape []int
	inputSize  int
	weights    []*mat.Dense // layer l: Units(l) x fanIn(l)
	biases     []*mat.VecDense
	acts       []Activation
}

// NewNetwork builds a network from the config, initializing weights with a
// scaled uniform distribution.
func NewNetwork(config NetworkConfig) (*Network, error) {
	if len(config.InputShape) == 0 {
		return nil, fmt.Errorf("input shape must not be empty")
	}
	inputSize := 1
	for _, d := range config.InputShape {
		if d <= 0 {
			return nil, fmt.Errorf("input shape dimensions must be positive, got %v", config.InputShape)
		}
		inputSize *= d
	}
	if len(config.Layers) == 0 {
		return nil, fmt.Errorf("network needs at least one layer")
	}

	rng := rand.New(rand.NewSource(config.Seed))

	n := &Network{
		inputShape: append([]int(nil), config.InputShape...),
		inputSize:  inputSize,
		weights:    make([]*mat.Dense, len(config.Layers)),
		biases:     make([]*mat.VecDense, len(config.Layers)),
		acts:       make([]Activation, len(config.Layers)),
	}

	fanIn := inputSize
	for l, spec := range config.Layers {
		if spec.Units <= 0 {
			return nil, fmt.Errorf("layer %d: units must be positive, got %d", l, spec.Units)
		}
		act := spec.Activation
		if act == "" {
			act = ActivationIdentity
		}
		switch act {
		case ActivationIdentity, ActivationReLU, ActivationSigmoid, ActivationTanh:
		default:
			return nil, fmt.Errorf("layer %d: unknown activation %q", l, act)
		}

		scale := 1.0 / math.Sqrt(float64(fanIn))
		w := make([]float64, spec.Units*fanIn)
		for i := range w {
			w[i] = (rng.Float64()*2 - 1) * scale
		}
		n.weights[l] = mat.NewDense(spec.Units, fanIn, w)
		n.biases[l] = mat.NewVecDense(spec.Units, nil)
		n.acts[l] = act
		fanIn = spec.Units
	}
	return n, nil
}

// InputShape returns the per-sample shape the network expects.
func (n *Network) InputShape() []int {
	return append([]int(nil), n.inputShape...)
}

// NumLayers returns the number of dense layers.
func (n *Network) NumLayers() int {
	return len(n.weights)
}

// SetLayerParams overwrites the weights and bias of one layer. weights is
// row-major with one row per unit; bias may be nil for all zeros. Intended
// for loading trained parameters and for constructing exact fixtures.
func (n *Network) SetLayerParams(layer int, weights [][]float64, bias []float64) error {
	if layer < 0 || layer >= len(n.weights) {
		return fmt.Errorf("layer index %d out of range [0, %d)", layer, len(n.weights))
	}
	units, fanIn := n.weights[layer].Dims()
	if len(weights) != units {
		return fmt.Errorf("layer %d: expected %d weight rows, got %d", layer, units, len(weights))
	}
	for r, row := range weights {
		if len(row) != fanIn {
			return fmt.Errorf("layer %d row %d: expected %d weights, got %d", layer, r, fanIn, len(row))
		}
		for c, v := range row {
			n.weights[layer].Set(r, c, v)
		}
	}
	if bias != nil {
		if len(bias) != units {
			return fmt.Errorf("layer %d: expected %d bias values, got %d", layer, units, len(bias))
		}
		for i, v := range bias {
			n.biases[layer].SetVec(i, v)
		}
	}
	return nil
}

// Predict runs the full forward pass and returns the final layer output for
// every sample in x.
func (n *Network) Predict(x []float64) ([]float64, error) {
	return n.GetActivations(x, len(n.weights)-1, 32)
}

// GetActivations returns the activations of the given layer for every
// sample in x, concatenated in sample order. x holds one or more samples
// flattened back to back; batchSize bounds how many samples are pushed
// through the network at a time.
func (n *Network) GetActivations(x []float64, layer, batchSize int) ([]float64, error) {
	if layer < 0 || layer >= len(n.weights) {
		return nil, fmt.Errorf("layer index %d out of range [0, %d)", layer, len(n.weights))
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	if len(x) == 0 {
		return nil, fmt.Errorf("no input samples")
	}
	if len(x)%n.inputSize != 0 {
		return nil, fmt.Errorf("input length %d is not a multiple of the sample size %d", len(x), n.inputSize)
	}

	numSamples := len(x) / n.inputSize
	units, _ := n.weights[layer].Dims()
	out := make([]float64, 0, numSamples*units)

	for start := 0; start < numSamples; start += batchSize {
		end := start + batchSize
		if end > numSamples {
			end = numSamples
		}
		for s := start; s < end; s++ {
			sample := x[s*n.inputSize : (s+1)*n.inputSize]
			out = append(out, n.forward(sample, layer)...)
		}
	}
	return out, nil
}

// forward pushes a single sample through layers 0..layer inclusive.
func (n *Network) forward(sample []float64, layer int) []float64 {
	v := mat.NewVecDense(len(sample), append([]float64(nil), sample...))
	for l := 0; l <= layer; l++ {
		units, _ := n.weights[l].Dims()
		next := mat.NewVecDense(units, nil)
		next.MulVec(n.weights[l], v)
		next.AddVec(next, n.biases[l])
		applyActivation(n.acts[l], next)
		v = next
	}
	res := make([]float64, v.Len())
	copy(res, v.RawVector().Data)
	return res
}

func applyActivation(act Activation, v *mat.VecDense) {
	for i := 0; i < v.Len(); i++ {
		x := v.AtVec(i)
		switch act {
		case ActivationReLU:
			if x < 0 {
				v.SetVec(i, 0)
			}
		case ActivationSigmoid:
			v.SetVec(i, 1/(1+math.Exp(-x)))
		case ActivationTanh:
			v.SetVec(i, math.Tanh(x))
		}
	}
}
