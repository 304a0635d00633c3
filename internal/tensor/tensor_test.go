package tensor_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diffuse-ml/diffuse/internal/backend/cpu"
	"github.com/diffuse-ml/diffuse/internal/tensor"
)

func TestFromSlice(t *testing.T) {
	backend := cpu.New()

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3}, x.Shape())
	assert.Equal(t, tensor.Float32, x.DType())
	assert.Equal(t, float32(6), x.At(1, 2))

	_, err = tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{2, 3}, backend)
	require.Error(t, err, "element count must match shape")
}

func TestScalarTensor(t *testing.T) {
	backend := cpu.New()

	s := tensor.Scalar[float32](2.5, backend)
	assert.Equal(t, tensor.Shape{}, s.Shape())
	assert.Equal(t, 1, s.NumElements())
	assert.Equal(t, float32(2.5), s.Item())
}

func TestSetAndAt(t *testing.T) {
	backend := cpu.New()

	x := tensor.Zeros[float32](tensor.Shape{3, 4}, backend)
	x.Set(7, 1, 2)
	assert.Equal(t, float32(7), x.At(1, 2))
	assert.Equal(t, float32(0), x.At(2, 1))

	assert.Panics(t, func() { x.At(3, 0) })
	assert.Panics(t, func() { x.At(0) })
}

func TestReshapeInference(t *testing.T) {
	backend := cpu.New()

	x := tensor.Zeros[float32](tensor.Shape{2, 3, 4}, backend)
	assert.Equal(t, tensor.Shape{6, 4}, x.Reshape(-1, 4).Shape())
	assert.Equal(t, tensor.Shape{24}, x.Reshape(-1).Shape())
	assert.Panics(t, func() { x.Reshape(5, -1) })
}

func TestAddBroadcast(t *testing.T) {
	backend := cpu.New()

	a, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	require.NoError(t, err)
	b, err := tensor.FromSlice([]float32{10, 20, 30}, tensor.Shape{3}, backend)
	require.NoError(t, err)

	sum := a.Add(b)
	assert.Equal(t, tensor.Shape{2, 3}, sum.Shape())
	assert.Equal(t, []float32{11, 22, 33, 14, 25, 36}, sum.Data())
}

func TestMatMul(t *testing.T) {
	backend := cpu.New()

	a, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	require.NoError(t, err)
	b, err := tensor.FromSlice([]float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2}, backend)
	require.NoError(t, err)

	c := a.MatMul(b)
	assert.Equal(t, tensor.Shape{2, 2}, c.Shape())
	assert.Equal(t, []float32{58, 64, 139, 154}, c.Data())
}

func TestCat(t *testing.T) {
	backend := cpu.New()

	a, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)
	b, err := tensor.FromSlice([]float32{5, 6}, tensor.Shape{2, 1}, backend)
	require.NoError(t, err)

	c := tensor.Cat([]*tensor.Tensor[float32, *cpu.CPUBackend]{a, b}, 1)
	assert.Equal(t, tensor.Shape{2, 3}, c.Shape())
	assert.Equal(t, []float32{1, 2, 5, 3, 4, 6}, c.Data())

	d := tensor.Cat([]*tensor.Tensor[float32, *cpu.CPUBackend]{a, a}, 0)
	assert.Equal(t, tensor.Shape{4, 2}, d.Shape())
}

func TestFlatten(t *testing.T) {
	backend := cpu.New()

	x := tensor.Zeros[float32](tensor.Shape{2, 3, 4}, backend)
	assert.Equal(t, tensor.Shape{24}, x.Flatten().Shape())
}

func TestArange(t *testing.T) {
	backend := cpu.New()

	x := tensor.Arange[float32](0, 5, 1, backend)
	assert.Equal(t, []float32{0, 1, 2, 3, 4}, x.Data())

	y := tensor.Arange[float32](1, 2, 0.25, backend)
	assert.InDeltaSlice(t, []float32{1, 1.25, 1.5, 1.75}, y.Data(), 1e-6)

	down := tensor.Arange[float32](3, 0, -1, backend)
	assert.Equal(t, []float32{3, 2, 1}, down.Data())

	assert.Panics(t, func() { tensor.Arange[float32](0, 5, 0, backend) })
	assert.Panics(t, func() { tensor.Arange[float32](5, 0, 1, backend) })
}

func TestLinspace(t *testing.T) {
	backend := cpu.New()

	x := tensor.Linspace[float32](0, 1, 5, backend)
	assert.Equal(t, tensor.Shape{5}, x.Shape())
	assert.InDeltaSlice(t, []float32{0, 0.25, 0.5, 0.75, 1}, x.Data(), 1e-6)

	one := tensor.Linspace[float32](3, 9, 1, backend)
	assert.Equal(t, []float32{3}, one.Data())
}

func TestSeededCreationIsDeterministic(t *testing.T) {
	backend := cpu.New()

	a := tensor.Uniform(tensor.Shape{32}, float32(-1), 1, rand.New(rand.NewSource(7)), backend)
	b := tensor.Uniform(tensor.Shape{32}, float32(-1), 1, rand.New(rand.NewSource(7)), backend)
	assert.Equal(t, a.Data(), b.Data())

	c := tensor.Uniform(tensor.Shape{32}, float32(-1), 1, rand.New(rand.NewSource(8)), backend)
	assert.NotEqual(t, a.Data(), c.Data())
}

func TestCloneIsIndependent(t *testing.T) {
	backend := cpu.New()

	x, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, backend)
	require.NoError(t, err)

	y := x.Clone()
	y.Set(9, 0)
	assert.Equal(t, float32(1), x.At(0))
	assert.Equal(t, float32(9), y.At(0))
}
