package serialization

import (
	"time"

	"github.com/diffuse-ml/diffuse/internal/tensor"
)

// Format constants.
const (
	MagicBytes      = "DFSN"
	FormatVersion   = 1
	HeaderAlignment = 64        // tensor data starts on a 64-byte boundary
	ChecksumSize    = 32        // SHA-256
	MaxHeaderSize   = 64 << 20  // 64 MiB JSON header cap
	MaxTensors      = 1 << 16   // tensors per file cap
	MaxTensorName   = 256       // name length cap
)

// Flags for the .dfsn format.
const (
	FlagHasMetadata uint32 = 1 << 0 // custom metadata included
)

// Data type string constants for serialization.
const (
	DTypeFloat32 = "float32"
	DTypeFloat64 = "float64"
)

// Header is the JSON header of a .dfsn file.
type Header struct {
	FormatVersion  int               `json:"format_version"`  // version of the .dfsn format
	LibraryVersion string            `json:"library_version"` // library version that wrote the file
	ModelType      string            `json:"model_type"`      // e.g. "MLP", "DenoisingCNN"
	SnapshotID     string            `json:"snapshot_id"`     // UUID of this snapshot
	CreatedAt      time.Time         `json:"created_at"`      // when the file was written
	Tensors        []TensorMeta      `json:"tensors"`         // tensor metadata
	Metadata       map[string]string `json:"metadata"`        // custom metadata
}

// TensorMeta describes one tensor in the data section.
type TensorMeta struct {
	Name   string `json:"name"`   // state dict key (e.g. "layers.0.weight")
	DType  string `json:"dtype"`  // "float32" or "float64"
	Shape  []int  `json:"shape"`  // tensor shape
	Offset int64  `json:"offset"` // bytes from the start of the data section
	Size   int64  `json:"size"`   // size in bytes
}

// dtypeToString converts tensor.DataType to its string representation.
func dtypeToString(dt tensor.DataType) string {
	switch dt {
	case tensor.Float32:
		return DTypeFloat32
	case tensor.Float64:
		return DTypeFloat64
	default:
		return "unknown"
	}
}

// stringToDtype converts a string representation to tensor.DataType.
func stringToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case DTypeFloat32:
		return tensor.Float32, true
	case DTypeFloat64:
		return tensor.Float64, true
	default:
		return 0, false
	}
}
