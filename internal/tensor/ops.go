package tensor

import "fmt"

// Method wrappers delegating computation to the backend. All operations
// allocate a new result unless the backend takes an in-place fast path on a
// uniquely owned buffer.

// Add performs element-wise addition with broadcasting.
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Add(t.raw, other.raw), t.backend)
}

// Sub performs element-wise subtraction with broadcasting.
func (t *Tensor[T, B]) Sub(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Sub(t.raw, other.raw), t.backend)
}

// Mul performs element-wise multiplication with broadcasting.
func (t *Tensor[T, B]) Mul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Mul(t.raw, other.raw), t.backend)
}

// Div performs element-wise division with broadcasting.
func (t *Tensor[T, B]) Div(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Div(t.raw, other.raw), t.backend)
}

// MatMul performs 2-D matrix multiplication: [M, K] @ [K, N] -> [M, N].
func (t *Tensor[T, B]) MatMul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.MatMul(t.raw, other.raw), t.backend)
}

// AddScalar adds a scalar to every element.
func (t *Tensor[T, B]) AddScalar(scalar float64) *Tensor[T, B] {
	return New[T, B](t.backend.AddScalar(t.raw, scalar), t.backend)
}

// MulScalar multiplies every element by a scalar.
func (t *Tensor[T, B]) MulScalar(scalar float64) *Tensor[T, B] {
	return New[T, B](t.backend.MulScalar(t.raw, scalar), t.backend)
}

// Exp applies the element-wise exponential.
func (t *Tensor[T, B]) Exp() *Tensor[T, B] {
	return New[T, B](t.backend.Exp(t.raw), t.backend)
}

// Sqrt applies the element-wise square root.
func (t *Tensor[T, B]) Sqrt() *Tensor[T, B] {
	return New[T, B](t.backend.Sqrt(t.raw), t.backend)
}

// Sin applies the element-wise sine.
func (t *Tensor[T, B]) Sin() *Tensor[T, B] {
	return New[T, B](t.backend.Sin(t.raw), t.backend)
}

// Cos applies the element-wise cosine.
func (t *Tensor[T, B]) Cos() *Tensor[T, B] {
	return New[T, B](t.backend.Cos(t.raw), t.backend)
}

// Tanh applies the element-wise hyperbolic tangent.
func (t *Tensor[T, B]) Tanh() *Tensor[T, B] {
	return New[T, B](t.backend.Tanh(t.raw), t.backend)
}

// Reshape returns a view of the tensor with a new shape. At most one
// dimension may be -1, in which case it is inferred from the element count.
func (t *Tensor[T, B]) Reshape(dims ...int) *Tensor[T, B] {
	shape := ResolveReshape(t.Shape(), dims)
	return New[T, B](t.backend.Reshape(t.raw, shape), t.backend)
}

// Flatten returns a 1-D view of the tensor.
func (t *Tensor[T, B]) Flatten() *Tensor[T, B] {
	return t.Reshape(-1)
}

// Transpose permutes the tensor's axes. With no arguments a 2-D tensor is
// transposed; otherwise axes must be a permutation of the dimensions.
func (t *Tensor[T, B]) Transpose(axes ...int) *Tensor[T, B] {
	return New[T, B](t.backend.Transpose(t.raw, axes...), t.backend)
}

// Unsqueeze inserts a dimension of size 1 at the given position.
func (t *Tensor[T, B]) Unsqueeze(dim int) *Tensor[T, B] {
	return New[T, B](t.backend.Unsqueeze(t.raw, dim), t.backend)
}

// Squeeze removes a dimension of size 1 at the given position.
func (t *Tensor[T, B]) Squeeze(dim int) *Tensor[T, B] {
	return New[T, B](t.backend.Squeeze(t.raw, dim), t.backend)
}

// Cat concatenates tensors along the given dimension.
// All tensors must share shape outside that dimension.
func Cat[T DType, B Backend](tensors []*Tensor[T, B], dim int) *Tensor[T, B] {
	if len(tensors) == 0 {
		panic("Cat: no tensors to concatenate")
	}
	raws := make([]*RawTensor, len(tensors))
	for i, t := range tensors {
		raws[i] = t.Raw()
	}
	b := tensors[0].Backend()
	return New[T, B](b.Cat(raws, dim), b)
}

// ResolveReshape resolves a reshape request against an existing shape,
// inferring at most one -1 dimension from the element count.
func ResolveReshape(current Shape, dims []int) Shape {
	shape := make(Shape, len(dims))
	inferred := -1
	known := 1

	for i, d := range dims {
		switch {
		case d == -1:
			if inferred != -1 {
				panic(fmt.Sprintf("Reshape: only one dimension may be -1, got %v", dims))
			}
			inferred = i
		case d <= 0:
			panic(fmt.Sprintf("Reshape: invalid dimension %d in %v", d, dims))
		default:
			shape[i] = d
			known *= d
		}
	}

	total := current.NumElements()
	if inferred >= 0 {
		if known == 0 || total%known != 0 {
			panic(fmt.Sprintf("Reshape: cannot infer dimension for %v from %d elements", dims, total))
		}
		shape[inferred] = total / known
	} else if known != total {
		panic(fmt.Sprintf("Reshape: shape %v has %d elements, tensor has %d", dims, known, total))
	}

	return shape
}
