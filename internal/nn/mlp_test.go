package nn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diffuse-ml/diffuse/internal/backend/cpu"
	"github.com/diffuse-ml/diffuse/internal/nn"
	"github.com/diffuse-ml/diffuse/internal/tensor"
)

func TestMLP_Shapes(t *testing.T) {
	backend := cpu.New()

	mlp := nn.NewMLP([]int{2, 128, 32, 3}, nn.NewRNG(0), backend)
	assert.Equal(t, []int{2, 128, 32, 3}, mlp.LayerSizes())

	x := tensor.Randn[float32](tensor.Shape{10, 2}, nn.NewRNG(0).Stream("x"), backend)
	y := mlp.Forward(x)
	assert.Equal(t, tensor.Shape{10, 3}, y.Shape())
}

func TestMLP_UnbatchedAndLeadingDims(t *testing.T) {
	backend := cpu.New()
	mlp := nn.NewMLP([]int{2, 3, 4}, nn.NewRNG(0), backend)

	v := tensor.Ones[float32](tensor.Shape{2}, backend)
	yv := mlp.Forward(v)
	assert.Equal(t, tensor.Shape{4}, yv.Shape())

	b := tensor.Ones[float32](tensor.Shape{7, 5, 2}, backend)
	yb := mlp.Forward(b)
	assert.Equal(t, tensor.Shape{7, 5, 4}, yb.Shape())

	// Every batch row of a constant input matches the unbatched result.
	for i := 0; i < 4; i++ {
		assert.Equal(t, yv.At(i), yb.At(6, 4, i))
	}
}

func TestMLP_SingleLayer(t *testing.T) {
	backend := cpu.New()

	// Two sizes means one Linear layer and no activation at all.
	mlp := nn.NewMLP([]int{4, 2}, nn.NewRNG(0), backend)
	assert.Len(t, mlp.Parameters(), 2)

	x := tensor.Ones[float32](tensor.Shape{3, 4}, backend)
	assert.Equal(t, tensor.Shape{3, 2}, mlp.Forward(x).Shape())

	assert.Panics(t, func() { nn.NewMLP([]int{4}, nn.NewRNG(0), backend) })
}

func TestMLP_SeededDeterminism(t *testing.T) {
	backend := cpu.New()

	a := nn.NewMLP([]int{2, 16, 3}, nn.NewRNG(42), backend)
	b := nn.NewMLP([]int{2, 16, 3}, nn.NewRNG(42), backend)
	c := nn.NewMLP([]int{2, 16, 3}, nn.NewRNG(43), backend)

	x := tensor.Randn[float32](tensor.Shape{5, 2}, nn.NewRNG(7).Stream("x"), backend)

	ya := a.Forward(x.Clone())
	yb := b.Forward(x.Clone())
	yc := c.Forward(x.Clone())

	assert.Equal(t, ya.Data(), yb.Data(), "same seed must give the same function")
	assert.NotEqual(t, ya.Data(), yc.Data(), "different seeds must give different functions")
}

func TestMLP_StateDictRoundTrip(t *testing.T) {
	backend := cpu.New()

	src := nn.NewMLP([]int{2, 8, 3}, nn.NewRNG(1), backend)
	dst := nn.NewMLP([]int{2, 8, 3}, nn.NewRNG(2), backend)

	stateDict := src.StateDict()
	assert.Len(t, stateDict, 4, "two layers, weight and bias each")
	assert.Contains(t, stateDict, "layers.0.weight")
	assert.Contains(t, stateDict, "layers.1.bias")

	require.NoError(t, dst.LoadStateDict(stateDict))

	x := tensor.Randn[float32](tensor.Shape{6, 2}, nn.NewRNG(3).Stream("x"), backend)
	assert.Equal(t, src.Forward(x.Clone()).Data(), dst.Forward(x.Clone()).Data())
}

func TestMLP_LoadStateDictShapeMismatch(t *testing.T) {
	backend := cpu.New()

	src := nn.NewMLP([]int{2, 8, 3}, nn.NewRNG(1), backend)
	dst := nn.NewMLP([]int{2, 4, 3}, nn.NewRNG(1), backend)

	assert.Error(t, dst.LoadStateDict(src.StateDict()))
}
