package nn

import (
	"fmt"
	"math"

	"github.com/diffuse-ml/diffuse/internal/tensor"
)

// PositionalEmbedding maps real-valued scalars (diffusion steps, times) to
// fixed sinusoidal embedding vectors. It is a pure function with no
// trainable parameters.
//
// Each scalar s maps to
//
//	[sin(s*f_0), .., sin(s*f_{h-1}), cos(s*f_0), .., cos(s*f_{h-1})]
//
// with h = dim/2 frequencies spaced geometrically from 1 down to 1/10000,
// the encoding of "Attention is All You Need" applied to continuous inputs.
//
// Shape contract: a rank-0 input yields (dim,). A trailing axis of size one
// is treated as the scalar axis and replaced by dim, so (.., 1) yields
// (.., dim). Any other input embeds each element: (n,) yields (n, dim).
type PositionalEmbedding[B tensor.Backend] struct {
	stateless[B]
	dim     int
	backend B
}

// NewPositionalEmbedding creates a sinusoidal embedding of the given
// dimension.
func NewPositionalEmbedding[B tensor.Backend](dim int, backend B) *PositionalEmbedding[B] {
	if dim <= 0 {
		panic(fmt.Sprintf("NewPositionalEmbedding: dim must be positive, got %d", dim))
	}
	return &PositionalEmbedding[B]{dim: dim, backend: backend}
}

// Dim returns the embedding dimension.
func (p *PositionalEmbedding[B]) Dim() int {
	return p.dim
}

// Forward embeds every scalar in the input, preserving leading batch shape.
func (p *PositionalEmbedding[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()

	// A trailing axis of size one is the scalar axis; it is consumed and
	// replaced by the embedding dimension.
	batch := shape
	if len(shape) > 0 && shape[len(shape)-1] == 1 {
		batch = shape[:len(shape)-1]
	}

	// Odd dims get the extra channel on the sine side.
	sines := (p.dim + 1) / 2
	cosines := p.dim / 2
	freqs := p.frequencies(sines)

	outShape := append(batch.Clone(), p.dim)
	out := tensor.Zeros[float32](outShape, p.backend)

	src := input.Data()
	dst := out.Data()
	for i, s := range src {
		base := i * p.dim
		for j := 0; j < sines; j++ {
			dst[base+j] = float32(math.Sin(float64(s) * freqs[j]))
		}
		for j := 0; j < cosines; j++ {
			dst[base+sines+j] = float32(math.Cos(float64(s) * freqs[j]))
		}
	}
	return out
}

// frequencies returns n angular frequencies spaced geometrically from 1
// down to 1/10000.
func (p *PositionalEmbedding[B]) frequencies(n int) []float64 {
	freqs := make([]float64, n)
	if n == 1 {
		freqs[0] = 1
		return freqs
	}

	step := math.Log(10000.0) / float64(n-1)
	for i := range freqs {
		freqs[i] = math.Exp(-float64(i) * step)
	}
	return freqs
}
