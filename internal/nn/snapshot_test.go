package nn_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diffuse-ml/diffuse/internal/backend/cpu"
	"github.com/diffuse-ml/diffuse/internal/nn"
	"github.com/diffuse-ml/diffuse/internal/serialization"
	"github.com/diffuse-ml/diffuse/internal/tensor"
)

// TestSnapshotRoundTrip_MLP saves an MLP, loads it into a freshly seeded
// network, and checks the restored network computes the same function.
func TestSnapshotRoundTrip_MLP(t *testing.T) {
	backend := cpu.New()
	path := filepath.Join(t.TempDir(), "mlp.dfsn")

	original := nn.NewMLP([]int{2, 128, 32, 3}, nn.NewRNG(1), backend)
	require.NoError(t, nn.Save[*cpu.CPUBackend](original, path, "MLP", map[string]string{"experiment": "roundtrip"}))

	restored := nn.NewMLP([]int{2, 128, 32, 3}, nn.NewRNG(99), backend)
	header, err := nn.Load[*cpu.CPUBackend](path, restored)
	require.NoError(t, err)
	assert.Equal(t, "MLP", header.ModelType)
	assert.Equal(t, "roundtrip", header.Metadata["experiment"])
	assert.NotEmpty(t, header.SnapshotID)

	x := tensor.Randn[float32](tensor.Shape{10, 2}, nn.NewRNG(5).Stream("x"), backend)
	assert.Equal(t, original.Forward(x.Clone()).Data(), restored.Forward(x.Clone()).Data(),
		"restored network must compute the same function")
}

func TestSnapshotRoundTrip_Denoisers(t *testing.T) {
	backend := cpu.New()

	tests := []struct {
		name     string
		build    func(seed int64) nn.Denoiser[*cpu.CPUBackend]
		modelTag string
	}{
		{
			name: "mlp",
			build: func(seed int64) nn.Denoiser[*cpu.CPUBackend] {
				return nn.NewDenoisingMLP(3, 4, 5, []int{32}, nn.NewRNG(seed), backend)
			},
			modelTag: "DenoisingMLP",
		},
		{
			name: "cnn",
			build: func(seed int64) nn.Denoiser[*cpu.CPUBackend] {
				return nn.NewDenoisingCNN(3, 4, 5, []int{16}, nn.NewRNG(seed), backend)
			},
			modelTag: "DenoisingCNN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.name+".dfsn")

			original := tt.build(1)
			require.NoError(t, nn.Save[*cpu.CPUBackend](original, path, tt.modelTag, nil))

			restored := tt.build(2)
			_, err := nn.Load[*cpu.CPUBackend](path, restored)
			require.NoError(t, err)

			actions, obs, step := denoiserInputs(tensor.Shape{6}, backend)
			assert.Equal(t,
				original.Forward(actions, obs, step).Data(),
				restored.Forward(actions, obs, step).Data())
		})
	}
}

// TestSnapshotLoadArchitectureMismatch checks that loading into a network
// with different layer shapes fails instead of silently truncating.
func TestSnapshotLoadArchitectureMismatch(t *testing.T) {
	backend := cpu.New()
	path := filepath.Join(t.TempDir(), "mlp.dfsn")

	original := nn.NewMLP([]int{2, 16, 3}, nn.NewRNG(1), backend)
	require.NoError(t, nn.Save[*cpu.CPUBackend](original, path, "MLP", nil))

	other := nn.NewMLP([]int{2, 32, 3}, nn.NewRNG(1), backend)
	_, err := nn.Load[*cpu.CPUBackend](path, other)
	assert.Error(t, err)
}

// TestSnapshotCorruptionDetected flips a byte in the tensor data section and
// expects the checksum to reject the file.
func TestSnapshotCorruptionDetected(t *testing.T) {
	backend := cpu.New()
	path := filepath.Join(t.TempDir(), "mlp.dfsn")

	original := nn.NewMLP([]int{2, 8, 3}, nn.NewRNG(1), backend)
	require.NoError(t, nn.Save[*cpu.CPUBackend](original, path, "MLP", nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[len(raw)-serialization.ChecksumSize-1] ^= 0xff
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	_, err = nn.Load[*cpu.CPUBackend](path, nn.NewMLP([]int{2, 8, 3}, nn.NewRNG(2), backend))
	require.Error(t, err)
	assert.True(t, errors.Is(err, serialization.ErrChecksumMismatch), "got: %v", err)
}
