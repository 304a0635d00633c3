package nn

import (
	"fmt"

	"github.com/diffuse-ml/diffuse/internal/tensor"
)

// Conv1D implements a 1-D convolution over the second-to-last axis with the
// channel axis last: [.., length, in_channels] -> [.., length', out_channels]
// where length' = length + 2*padding - kernel_size + 1 (stride is fixed at 1).
//
// Leading batch dimensions beyond one are flattened for the convolution and
// restored on the output. An odd kernel with padding (kernel_size-1)/2
// preserves the sequence length.
type Conv1D[B tensor.Backend] struct {
	inChannels  int
	outChannels int
	kernelSize  int
	padding     int
	weight      *Parameter[B] // [out_channels, kernel_size, in_channels]
	bias        *Parameter[B] // [out_channels]
	backend     B
}

// NewConv1D creates a new Conv1D layer with seeded Xavier initialization.
func NewConv1D[B tensor.Backend](inChannels, outChannels, kernelSize, padding int, rng *RNG, backend B) *Conv1D[B] {
	if inChannels <= 0 || outChannels <= 0 {
		panic(fmt.Sprintf("NewConv1D: channel counts must be positive, got %d and %d", inChannels, outChannels))
	}
	if kernelSize <= 0 {
		panic(fmt.Sprintf("NewConv1D: kernel size must be positive, got %d", kernelSize))
	}
	if padding < 0 {
		panic(fmt.Sprintf("NewConv1D: padding must be non-negative, got %d", padding))
	}

	fanIn := kernelSize * inChannels
	fanOut := kernelSize * outChannels
	weightShape := tensor.Shape{outChannels, kernelSize, inChannels}
	weight := NewParameter("weight", Xavier(fanIn, fanOut, weightShape, rng.Stream("params"), backend))
	bias := NewParameter("bias", Zeros(tensor.Shape{outChannels}, backend))

	return &Conv1D[B]{
		inChannels:  inChannels,
		outChannels: outChannels,
		kernelSize:  kernelSize,
		padding:     padding,
		weight:      weight,
		bias:        bias,
		backend:     backend,
	}
}

// Forward convolves the input over its second-to-last axis.
//
// Input shape: [.., length, in_channels].
// Output shape: [.., length', out_channels].
func (c *Conv1D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) < 2 || shape[len(shape)-1] != c.inChannels {
		panic(fmt.Sprintf("Conv1D.Forward: expected input [.., length, %d], got shape %v",
			c.inChannels, shape))
	}

	length := shape[len(shape)-2]
	lead := shape[:len(shape)-2]

	flat := input.Reshape(-1, length, c.inChannels)
	output := tensor.New[float32, B](c.backend.Conv1D(flat.Raw(), c.weight.Tensor().Raw(), c.padding), c.backend)

	outLen := output.Shape()[1]
	b := c.bias.Tensor().Reshape(1, 1, c.outChannels)
	output = output.Add(b)

	outShape := append(lead.Clone(), outLen, c.outChannels)
	return output.Reshape(outShape...)
}

// Parameters returns [weight, bias].
func (c *Conv1D[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{c.weight, c.bias}
}

// KernelSize returns the kernel width.
func (c *Conv1D[B]) KernelSize() int {
	return c.kernelSize
}

// InChannels returns the number of input channels.
func (c *Conv1D[B]) InChannels() int {
	return c.inChannels
}

// OutChannels returns the number of output channels.
func (c *Conv1D[B]) OutChannels() int {
	return c.outChannels
}

// StateDict returns the layer's parameters as raw tensors.
func (c *Conv1D[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		"weight": c.weight.Tensor().Raw(),
		"bias":   c.bias.Tensor().Raw(),
	}
}

// LoadStateDict loads parameters from a state dictionary.
func (c *Conv1D[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := loadParameter(stateDict, "weight", c.weight); err != nil {
		return err
	}
	return loadParameter(stateDict, "bias", c.bias)
}
