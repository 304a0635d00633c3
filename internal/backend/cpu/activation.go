package cpu

import (
	"math"

	"github.com/diffuse-ml/diffuse/internal/tensor"
)

// ReLU applies the rectified linear unit: f(x) = max(0, x).
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("relu", x, func(v float64) float64 {
		return math.Max(0, v)
	})
}

// Sigmoid applies the logistic function: f(x) = 1 / (1 + exp(-x)).
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("sigmoid", x, sigmoid)
}

// SiLU applies the sigmoid-weighted linear unit (swish): f(x) = x * sigmoid(x).
func (cpu *CPUBackend) SiLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("silu", x, func(v float64) float64 {
		return v * sigmoid(v)
	})
}

func sigmoid(v float64) float64 {
	return 1.0 / (1.0 + math.Exp(-v))
}
