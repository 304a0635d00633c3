package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diffuse-ml/diffuse/internal/backend/cpu"
	"github.com/diffuse-ml/diffuse/internal/nn"
	"github.com/diffuse-ml/diffuse/internal/tensor"
)

func TestParseMLPSpec(t *testing.T) {
	spec, err := Parse([]byte(`
type: mlp
seed: 42
layer_sizes: [2, 128, 32, 3]
`))
	require.NoError(t, err)
	assert.Equal(t, TypeMLP, spec.Type)
	assert.Equal(t, int64(42), spec.Seed)
	assert.Equal(t, []int{2, 128, 32, 3}, spec.LayerSizes)
}

func TestParseDenoiserSpec(t *testing.T) {
	spec, err := Parse([]byte(`
type: denoising_cnn
action_dim: 3
obs_dim: 4
num_steps: 5
channels: [16, 16]
`))
	require.NoError(t, err)
	assert.Equal(t, TypeDenoisingCNN, spec.Type)
	assert.Equal(t, []int{16, 16}, spec.Channels)
	assert.Zero(t, spec.Seed, "seed defaults to 0")
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte(`
type: mlp
layer_sizes: [2, 3]
learning_rate: 0.01
`))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    NetworkSpec
		wantErr bool
	}{
		{"valid mlp", NetworkSpec{Type: TypeMLP, LayerSizes: []int{2, 3}}, false},
		{"mlp too few sizes", NetworkSpec{Type: TypeMLP, LayerSizes: []int{2}}, true},
		{"mlp nonpositive size", NetworkSpec{Type: TypeMLP, LayerSizes: []int{2, 0}}, true},
		{"valid denoising mlp", NetworkSpec{Type: TypeDenoisingMLP, ActionDim: 3, ObsDim: 4, NumSteps: 5, Hidden: []int{32}}, false},
		{"denoiser missing obs_dim", NetworkSpec{Type: TypeDenoisingMLP, ActionDim: 3, NumSteps: 5}, true},
		{"cnn bad channel", NetworkSpec{Type: TypeDenoisingCNN, ActionDim: 3, ObsDim: 4, NumSteps: 5, Channels: []int{16, -1}}, true},
		{"missing type", NetworkSpec{}, true},
		{"unknown type", NetworkSpec{Type: "transformer"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBuildMLP(t *testing.T) {
	backend := cpu.New()

	spec := &NetworkSpec{Type: TypeMLP, Seed: 7, LayerSizes: []int{2, 16, 3}}
	m, err := Build(spec, backend)
	require.NoError(t, err)

	mlp, ok := m.(*nn.MLP[*cpu.CPUBackend])
	require.True(t, ok, "expected an MLP, got %T", m)
	assert.Equal(t, []int{2, 16, 3}, mlp.LayerSizes())

	// Build seeds from the spec, so equal specs give equal networks.
	m2, err := Build(spec, backend)
	require.NoError(t, err)
	x := tensor.Ones[float32](tensor.Shape{4, 2}, backend)
	assert.Equal(t,
		mlp.Forward(x.Clone()).Data(),
		m2.(*nn.MLP[*cpu.CPUBackend]).Forward(x.Clone()).Data())
}

func TestBuildDenoisers(t *testing.T) {
	backend := cpu.New()

	m, err := Build(&NetworkSpec{Type: TypeDenoisingMLP, ActionDim: 3, ObsDim: 4, NumSteps: 5, Hidden: []int{32}}, backend)
	require.NoError(t, err)
	_, ok := m.(*nn.DenoisingMLP[*cpu.CPUBackend])
	assert.True(t, ok, "expected a DenoisingMLP, got %T", m)

	m, err = Build(&NetworkSpec{Type: TypeDenoisingCNN, ActionDim: 3, ObsDim: 4, NumSteps: 5, Channels: []int{8}}, backend)
	require.NoError(t, err)
	_, ok = m.(*nn.DenoisingCNN[*cpu.CPUBackend])
	assert.True(t, ok, "expected a DenoisingCNN, got %T", m)

	_, err = Build(&NetworkSpec{Type: TypeMLP, LayerSizes: []int{2}}, backend)
	assert.Error(t, err, "Build validates before constructing")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "net.yaml")
	require.NoError(t, os.WriteFile(path, []byte("type: mlp\nlayer_sizes: [4, 8, 2]\n"), 0o644))

	spec, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 8, 2}, spec.LayerSizes)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
