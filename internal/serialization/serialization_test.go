package serialization

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diffuse-ml/diffuse/internal/tensor"
)

func newRaw(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	copy(raw.AsFloat32(), data)
	return raw
}

func testStateDict(t *testing.T) map[string]*tensor.RawTensor {
	t.Helper()
	return map[string]*tensor.RawTensor{
		"layers.0.weight": newRaw(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}),
		"layers.0.bias":   newRaw(t, []float32{-1, -2}, tensor.Shape{2}),
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.dfsn")
	stateDict := testStateDict(t)

	err := WriteSnapshot(path, stateDict, Header{
		ModelType: "MLP",
		Metadata:  map[string]string{"run": "7"},
	})
	require.NoError(t, err)

	header, loaded, err := ReadSnapshot(path)
	require.NoError(t, err)

	assert.Equal(t, FormatVersion, header.FormatVersion)
	assert.Equal(t, libraryVersion, header.LibraryVersion)
	assert.Equal(t, "MLP", header.ModelType)
	assert.Equal(t, "7", header.Metadata["run"])
	assert.NotEmpty(t, header.SnapshotID)
	assert.False(t, header.CreatedAt.IsZero())

	require.Len(t, loaded, 2)
	for name, want := range stateDict {
		got, ok := loaded[name]
		require.True(t, ok, "missing tensor %q", name)
		assert.Equal(t, want.Shape(), got.Shape())
		assert.Equal(t, want.AsFloat32(), got.AsFloat32())
	}
}

func TestWriteSnapshotDeterministicLayout(t *testing.T) {
	// Tensors land in sorted name order regardless of map iteration, so the
	// tensor table is stable across writes.
	dir := t.TempDir()

	for _, name := range []string{"a.dfsn", "b.dfsn"} {
		require.NoError(t, WriteSnapshot(filepath.Join(dir, name), testStateDict(t), Header{}))
	}

	ha, _, err := ReadSnapshot(filepath.Join(dir, "a.dfsn"))
	require.NoError(t, err)
	hb, _, err := ReadSnapshot(filepath.Join(dir, "b.dfsn"))
	require.NoError(t, err)

	require.Len(t, ha.Tensors, 2)
	assert.Equal(t, "layers.0.bias", ha.Tensors[0].Name)
	assert.Equal(t, "layers.0.weight", ha.Tensors[1].Name)
	for i := range ha.Tensors {
		assert.Equal(t, ha.Tensors[i].Offset, hb.Tensors[i].Offset)
	}
}

func TestDataSectionAlignment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.dfsn")
	require.NoError(t, WriteSnapshot(path, testStateDict(t), Header{}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	headerSize := binary.LittleEndian.Uint64(raw[12:20])
	headerEnd := uint64(len(MagicBytes)+4+4+8) + headerSize
	dataStart := (headerEnd + HeaderAlignment - 1) / HeaderAlignment * HeaderAlignment

	// Padding between header and data is all zeros.
	for i := headerEnd; i < dataStart; i++ {
		require.Zero(t, raw[i], "padding byte %d", i)
	}

	// Data section round-trips: total size is data start + payload + checksum.
	var payload uint64
	for _, rt := range testStateDict(t) {
		payload += uint64(len(rt.Bytes()))
	}
	assert.Equal(t, dataStart+payload+ChecksumSize, uint64(len(raw)))
}

func TestEmptyStateDict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.dfsn")
	require.NoError(t, WriteSnapshot(path, nil, Header{ModelType: "Swish"}))

	header, loaded, err := ReadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, "Swish", header.ModelType)
	assert.Empty(t, loaded)
}

func TestParseSnapshotRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.dfsn")
	require.NoError(t, WriteSnapshot(path, testStateDict(t), Header{}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	raw[0] = 'X'
	_, _, err = ParseSnapshot(raw)
	assert.ErrorIs(t, err, ErrInvalidMagic)

	_, _, err = ParseSnapshot(raw[:3])
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func TestParseSnapshotRejectsUnsupportedVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.dfsn")
	require.NoError(t, WriteSnapshot(path, testStateDict(t), Header{}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	binary.LittleEndian.PutUint32(raw[4:8], 99)
	_, _, err = ParseSnapshot(raw)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestParseSnapshotRejectsCorruptedData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.dfsn")
	require.NoError(t, WriteSnapshot(path, testStateDict(t), Header{}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	raw[len(raw)-ChecksumSize-1] ^= 0x01
	_, _, err = ParseSnapshot(raw)
	assert.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestParseSnapshotRejectsTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.dfsn")
	require.NoError(t, WriteSnapshot(path, testStateDict(t), Header{}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	_, _, err = ParseSnapshot(raw[:len(raw)-ChecksumSize-4])
	assert.Error(t, err)
}

func TestWriterClosedRejectsWrites(t *testing.T) {
	writer, err := NewSnapshotWriter(filepath.Join(t.TempDir(), "model.dfsn"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	require.NoError(t, writer.Close(), "double close is a no-op")

	assert.Error(t, writer.WriteStateDict(nil, Header{}))
}

func TestValidateTensorMeta(t *testing.T) {
	valid := TensorMeta{Name: "w", DType: DTypeFloat32, Shape: []int{2, 3}, Offset: 0, Size: 24}

	tests := []struct {
		name     string
		tensors  []TensorMeta
		dataSize int64
		wantErr  error
	}{
		{"valid", []TensorMeta{valid}, 24, nil},
		{"empty name", []TensorMeta{{DType: DTypeFloat32, Shape: []int{1}, Size: 4}}, 4, ErrInvalidTensorName},
		{"out of bounds", []TensorMeta{valid}, 16, ErrOutOfBounds},
		{"negative offset", []TensorMeta{{Name: "w", DType: DTypeFloat32, Shape: []int{1}, Offset: -4, Size: 4}}, 4, ErrNegativeOffset},
		{"size mismatch", []TensorMeta{{Name: "w", DType: DTypeFloat32, Shape: []int{2, 3}, Size: 20}}, 24, ErrOutOfBounds},
		{"overlap", []TensorMeta{
			{Name: "a", DType: DTypeFloat32, Shape: []int{2}, Offset: 0, Size: 8},
			{Name: "b", DType: DTypeFloat32, Shape: []int{2}, Offset: 4, Size: 8},
		}, 12, ErrOffsetOverlap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTensorMeta(tt.tensors, tt.dataSize)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}

	t.Run("name too long", func(t *testing.T) {
		long := make([]byte, MaxTensorName+1)
		for i := range long {
			long[i] = 'x'
		}
		err := ValidateTensorMeta([]TensorMeta{{Name: string(long), DType: DTypeFloat32, Shape: []int{1}, Size: 4}}, 4)
		assert.ErrorIs(t, err, ErrTensorNameTooLong)
	})
}
