package cpu

import (
	"fmt"

	"github.com/diffuse-ml/diffuse/internal/tensor"
)

// Reshape returns a zero-copy view of t with a new shape.
// The new shape must describe the same number of elements.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if newShape.NumElements() != t.NumElements() {
		panic(fmt.Sprintf("reshape: cannot reshape %v (%d elements) to %v (%d elements)",
			t.Shape(), t.NumElements(), newShape, newShape.NumElements()))
	}
	return t.WithShape(newShape)
}

// Transpose permutes the tensor's axes into a fresh contiguous tensor.
// With no axes a 2-D tensor is transposed; otherwise axes must be a
// permutation of the dimensions.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		if ndim != 2 {
			panic(fmt.Sprintf("transpose: axes required for %d-D tensor", ndim))
		}
		axes = []int{1, 0}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: got %d axes for %d-D tensor", len(axes), ndim))
	}

	seen := make([]bool, ndim)
	outShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		if ax < 0 || ax >= ndim || seen[ax] {
			panic(fmt.Sprintf("transpose: axes %v is not a permutation of %d dimensions", axes, ndim))
		}
		seen[ax] = true
		outShape[i] = shape[ax]
	}

	result := mustNewRaw(outShape, t.DType(), cpu.device, "transpose")

	// Gather: walk the output linearly, read the permuted source offset.
	inStrides := t.Strides()
	permStrides := make([]int, ndim)
	for i, ax := range axes {
		permStrides[i] = inStrides[ax]
	}
	outStrides := outShape.ComputeStrides()

	elemSize := t.DType().Size()
	dst, src := result.Bytes(), t.Bytes()
	n := t.NumElements()
	for i := 0; i < n; i++ {
		srcIdx := flatIndex(i, outStrides, permStrides)
		copy(dst[i*elemSize:(i+1)*elemSize], src[srcIdx*elemSize:(srcIdx+1)*elemSize])
	}
	return result
}

// Cat concatenates tensors along the given dimension. All tensors must
// share dtype and shape outside that dimension.
func (cpu *CPUBackend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cat: no tensors to concatenate")
	}

	first := tensors[0]
	ndim := len(first.Shape())
	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("cat: dimension %d out of range for %d-D tensors", dim, ndim))
	}

	catDim := 0
	for i, t := range tensors {
		s := t.Shape()
		if t.DType() != first.DType() {
			panic(fmt.Sprintf("cat: dtype mismatch: %v vs %v", first.DType(), t.DType()))
		}
		if len(s) != ndim {
			panic(fmt.Sprintf("cat: rank mismatch: %v vs %v", first.Shape(), s))
		}
		for d := 0; d < ndim; d++ {
			if d != dim && s[d] != first.Shape()[d] {
				panic(fmt.Sprintf("cat: tensor %d has shape %v, incompatible with %v along dim %d",
					i, s, first.Shape(), dim))
			}
		}
		catDim += s[dim]
	}

	outShape := first.Shape().Clone()
	outShape[dim] = catDim
	result := mustNewRaw(outShape, first.DType(), cpu.device, "cat")

	// Each tensor contributes contiguous chunks of (its dim size * inner)
	// elements, repeated once per outer index.
	inner := 1
	for d := dim + 1; d < ndim; d++ {
		inner *= outShape[d]
	}
	outer := 1
	for d := 0; d < dim; d++ {
		outer *= outShape[d]
	}

	elemSize := first.DType().Size()
	dst := result.Bytes()
	dstOff := 0
	for o := 0; o < outer; o++ {
		for _, t := range tensors {
			chunk := t.Shape()[dim] * inner * elemSize
			src := t.Bytes()[o*chunk : (o+1)*chunk]
			copy(dst[dstOff:dstOff+chunk], src)
			dstOff += chunk
		}
	}
	return result
}

// Unsqueeze returns a view with a dimension of size 1 inserted at dim.
func (cpu *CPUBackend) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)
	if dim < 0 {
		dim += ndim + 1
	}
	if dim < 0 || dim > ndim {
		panic(fmt.Sprintf("unsqueeze: dimension %d out of range for %d-D tensor", dim, ndim))
	}

	newShape := make(tensor.Shape, 0, ndim+1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, 1)
	newShape = append(newShape, shape[dim:]...)
	return x.WithShape(newShape)
}

// Squeeze returns a view with the size-1 dimension at dim removed.
func (cpu *CPUBackend) Squeeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)
	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("squeeze: dimension %d out of range for %d-D tensor", dim, ndim))
	}
	if shape[dim] != 1 {
		panic(fmt.Sprintf("squeeze: dimension %d of %v has size %d, expected 1", dim, shape, shape[dim]))
	}

	newShape := make(tensor.Shape, 0, ndim-1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, shape[dim+1:]...)
	return x.WithShape(newShape)
}
