package tensor

import (
	"fmt"
	"math"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), b.Device())
	if err != nil {
		panic(fmt.Sprintf("Zeros: %v", err))
	}
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T, B](shape, 1, b)
}

// Full creates a tensor filled with the given value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Arange creates a 1-D tensor of values from start up to (excluding) stop,
// stepping by step. The range must contain at least one value.
func Arange[T DType, B Backend](start, stop, step T, b B) *Tensor[T, B] {
	if step == 0 {
		panic("Arange: step must be non-zero")
	}

	n := int(math.Ceil(float64(stop-start) / float64(step)))
	if n <= 0 {
		panic(fmt.Sprintf("Arange: empty range [%v, %v) with step %v", start, stop, step))
	}

	t := Zeros[T, B](Shape{n}, b)
	data := t.Data()
	for i := range data {
		data[i] = start + T(i)*step
	}
	return t
}

// Linspace creates a 1-D tensor of n evenly spaced values from start to stop
// inclusive.
func Linspace[T DType, B Backend](start, stop T, n int, b B) *Tensor[T, B] {
	if n <= 0 {
		panic(fmt.Sprintf("Linspace: n must be positive, got %d", n))
	}

	t := Zeros[T, B](Shape{n}, b)
	data := t.Data()
	if n == 1 {
		data[0] = start
		return t
	}

	step := float64(stop-start) / float64(n-1)
	for i := range data {
		data[i] = start + T(float64(i)*step)
	}
	return t
}

// Uniform creates a tensor with values drawn uniformly from [low, high)
// using the given random source.
func Uniform[T DType, B Backend](shape Shape, low, high T, rng *rand.Rand, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	span := float64(high - low)
	for i := range data {
		data[i] = low + T(rng.Float64()*span)
	}
	return t
}

// Randn creates a tensor with values drawn from the standard normal
// distribution N(0, 1) using the given random source.
func Randn[T DType, B Backend](shape Shape, rng *rand.Rand, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = T(rng.NormFloat64())
	}
	return t
}
