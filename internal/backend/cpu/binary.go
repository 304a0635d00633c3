package cpu

import (
	"fmt"

	"github.com/diffuse-ml/diffuse/internal/tensor"
)

// binary runs an element-wise binary operation with broadcasting.
//
// Fast paths, in order: in-place mutation of a when both shapes match and
// a's buffer is uniquely owned, then a tight same-shape loop, then the
// general strided broadcast loop.
func (cpu *CPUBackend) binary(
	name string,
	a, b *tensor.RawTensor,
	f32 func(x, y float32) float32,
	f64 func(x, y float64) float64,
) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch: %v vs %v", name, a.DType(), b.DType()))
	}

	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	if !needsBroadcast && a.Shape().Equal(b.Shape()) {
		if a.IsUnique() {
			switch a.DType() {
			case tensor.Float32:
				applyInplace(a.AsFloat32(), b.AsFloat32(), f32)
			case tensor.Float64:
				applyInplace(a.AsFloat64(), b.AsFloat64(), f64)
			}
			return a
		}

		result := mustNewRaw(outShape, a.DType(), cpu.device, name)
		switch a.DType() {
		case tensor.Float32:
			applyVectorized(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), f32)
		case tensor.Float64:
			applyVectorized(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), f64)
		}
		return result
	}

	result := mustNewRaw(outShape, a.DType(), cpu.device, name)
	switch a.DType() {
	case tensor.Float32:
		applyBroadcast(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), a.Shape(), b.Shape(), outShape, f32)
	case tensor.Float64:
		applyBroadcast(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), a.Shape(), b.Shape(), outShape, f64)
	}
	return result
}

func mustNewRaw(shape tensor.Shape, dtype tensor.DataType, device tensor.Device, op string) *tensor.RawTensor {
	result, err := tensor.NewRaw(shape, dtype, device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", op, err))
	}
	return result
}

func applyInplace[T tensor.DType](a, b []T, f func(T, T) T) {
	for i := range a {
		a[i] = f(a[i], b[i])
	}
}

func applyVectorized[T tensor.DType](dst, a, b []T, f func(T, T) T) {
	for i := range dst {
		dst[i] = f(a[i], b[i])
	}
}

func applyBroadcast[T tensor.DType](dst, a, b []T, aShape, bShape, outShape tensor.Shape, f func(T, T) T) {
	aStrides := broadcastStrides(aShape, outShape)
	bStrides := broadcastStrides(bShape, outShape)
	outStrides := outShape.ComputeStrides()

	for i := range dst {
		dst[i] = f(a[flatIndex(i, outStrides, aStrides)], b[flatIndex(i, outStrides, bStrides)])
	}
}

// broadcastStrides computes strides for reading a tensor of shape inShape as
// if it had shape outShape: stretched dimensions get stride 0.
func broadcastStrides(inShape, outShape tensor.Shape) []int {
	outDim := len(outShape)
	strides := make([]int, outDim)
	offset := outDim - len(inShape)
	origStrides := inShape.ComputeStrides()

	for i := 0; i < outDim; i++ {
		inIdx := i - offset
		switch {
		case inIdx < 0:
			strides[i] = 0 // padded leading dimension
		case inShape[inIdx] == 1:
			strides[i] = 0 // stretched dimension
		default:
			strides[i] = origStrides[inIdx]
		}
	}
	return strides
}

// flatIndex converts a flat output index into a flat source index using the
// output strides to recover coordinates and the (broadcast-adjusted) source
// strides to re-linearize them.
func flatIndex(outIdx int, outStrides, inStrides []int) int {
	idx := 0
	for i := range outStrides {
		coord := outIdx / outStrides[i]
		outIdx %= outStrides[i]
		idx += coord * inStrides[i]
	}
	return idx
}
