package nn

import (
	"fmt"

	"github.com/diffuse-ml/diffuse/internal/tensor"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation y = x @ W.T + b where W has shape
// [out_features, in_features] and b has shape [out_features].
//
// The input may carry any number of leading batch dimensions; only the
// trailing dimension must equal in_features. Leading dimensions are
// flattened for the matrix multiply and restored on the output, so
// [.., in_features] maps to [.., out_features].
//
// Weights use Xavier initialization drawn from the "params" stream of the
// given RNG; biases start at zero.
type Linear[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter[B] // [out_features, in_features]
	bias        *Parameter[B] // [out_features]
	backend     B
}

// NewLinear creates a new Linear layer with seeded initialization.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, rng *RNG, backend B) *Linear[B] {
	if inFeatures <= 0 || outFeatures <= 0 {
		panic(fmt.Sprintf("NewLinear: feature counts must be positive, got %d and %d", inFeatures, outFeatures))
	}

	weightShape := tensor.Shape{outFeatures, inFeatures}
	weight := NewParameter("weight", Xavier(inFeatures, outFeatures, weightShape, rng.Stream("params"), backend))
	bias := NewParameter("bias", Zeros(tensor.Shape{outFeatures}, backend))

	return &Linear[B]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      weight,
		bias:        bias,
		backend:     backend,
	}
}

// Forward computes y = x @ W.T + b over the trailing dimension.
//
// Input shape: [.., in_features]. Output shape: [.., out_features].
func (l *Linear[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) == 0 || shape[len(shape)-1] != l.inFeatures {
		panic(fmt.Sprintf("Linear.Forward: expected input with trailing dimension %d, got shape %v",
			l.inFeatures, shape))
	}

	lead := shape[:len(shape)-1]

	// Flatten leading batch dimensions: [.., in] -> [batch, in].
	flat := input.Reshape(-1, l.inFeatures)

	wT := l.weight.Tensor().Transpose() // [in_features, out_features]
	output := flat.MatMul(wT)           // [batch, out_features]

	b := l.bias.Tensor().Reshape(1, l.outFeatures)
	output = output.Add(b)

	outShape := append(lead.Clone(), l.outFeatures)
	return output.Reshape(outShape...)
}

// Parameters returns [weight, bias].
func (l *Linear[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.weight, l.bias}
}

// Weight returns the weight parameter.
func (l *Linear[B]) Weight() *Parameter[B] {
	return l.weight
}

// Bias returns the bias parameter.
func (l *Linear[B]) Bias() *Parameter[B] {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Linear[B]) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear[B]) OutFeatures() int {
	return l.outFeatures
}

// StateDict returns the layer's parameters as raw tensors.
func (l *Linear[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		"weight": l.weight.Tensor().Raw(),
		"bias":   l.bias.Tensor().Raw(),
	}
}

// LoadStateDict loads parameters from a state dictionary.
func (l *Linear[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := loadParameter(stateDict, "weight", l.weight); err != nil {
		return err
	}
	return loadParameter(stateDict, "bias", l.bias)
}
