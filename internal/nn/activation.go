package nn

import (
	"github.com/diffuse-ml/diffuse/internal/tensor"
)

// ReLU applies the element-wise rectifier f(x) = max(0, x).
type ReLU[B tensor.Backend] struct {
	stateless[B]
}

// NewReLU creates a new ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return &ReLU[B]{}
}

// Forward applies ReLU activation.
func (r *ReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return tensor.New[float32, B](input.Backend().ReLU(input.Raw()), input.Backend())
}

// Sigmoid applies the element-wise logistic function, squashing values to
// the range (0, 1).
type Sigmoid[B tensor.Backend] struct {
	stateless[B]
}

// NewSigmoid creates a new Sigmoid activation module.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return &Sigmoid[B]{}
}

// Forward applies Sigmoid activation.
func (s *Sigmoid[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return tensor.New[float32, B](input.Backend().Sigmoid(input.Raw()), input.Backend())
}

// Tanh applies the element-wise hyperbolic tangent, squashing values to the
// range (-1, 1).
type Tanh[B tensor.Backend] struct {
	stateless[B]
}

// NewTanh creates a new Tanh activation module.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return &Tanh[B]{}
}

// Forward applies Tanh activation.
func (t *Tanh[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return tensor.New[float32, B](input.Backend().Tanh(input.Raw()), input.Backend())
}

// Swish applies the sigmoid-weighted linear unit f(x) = x * sigmoid(x),
// the default hidden activation of the denoising architectures.
type Swish[B tensor.Backend] struct {
	stateless[B]
}

// NewSwish creates a new Swish (SiLU) activation module.
func NewSwish[B tensor.Backend]() *Swish[B] {
	return &Swish[B]{}
}

// Forward applies Swish activation.
func (s *Swish[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return tensor.New[float32, B](input.Backend().SiLU(input.Raw()), input.Backend())
}
