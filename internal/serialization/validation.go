package serialization

import (
	"fmt"
	"sort"
	"strings"
)

// ValidateTensorMeta checks the tensor table of a header against the size
// of the data section: known dtypes, sane names, in-bounds offsets, sizes
// consistent with shapes, and no overlapping regions.
func ValidateTensorMeta(tensors []TensorMeta, dataSize int64) error {
	if len(tensors) > MaxTensors {
		return fmt.Errorf("%w: %d (max %d)", ErrTooManyTensors, len(tensors), MaxTensors)
	}

	for i := range tensors {
		t := &tensors[i]

		if t.Name == "" || strings.ContainsAny(t.Name, "\x00\n") {
			return &ValidationError{Err: ErrInvalidTensorName, Tensor: t.Name, Details: "empty or contains control characters"}
		}
		if len(t.Name) > MaxTensorName {
			return &ValidationError{Err: ErrTensorNameTooLong, Tensor: t.Name[:32] + "...", Details: fmt.Sprintf("%d bytes (max %d)", len(t.Name), MaxTensorName)}
		}

		dtype, ok := stringToDtype(t.DType)
		if !ok {
			return &ValidationError{Err: ErrInvalidTensorName, Tensor: t.Name, Details: fmt.Sprintf("unknown dtype %q", t.DType)}
		}

		if t.Offset < 0 || t.Size < 0 {
			return &ValidationError{Err: ErrNegativeOffset, Tensor: t.Name, Details: fmt.Sprintf("offset=%d size=%d", t.Offset, t.Size)}
		}
		if t.Offset+t.Size > dataSize {
			return &ValidationError{Err: ErrOutOfBounds, Tensor: t.Name, Details: fmt.Sprintf("offset=%d size=%d data=%d", t.Offset, t.Size, dataSize)}
		}

		elements := 1
		for _, dim := range t.Shape {
			if dim <= 0 {
				return &ValidationError{Err: ErrInvalidTensorName, Tensor: t.Name, Details: fmt.Sprintf("invalid shape %v", t.Shape)}
			}
			elements *= dim
		}
		if expected := int64(elements * dtype.Size()); expected != t.Size {
			return &ValidationError{Err: ErrOutOfBounds, Tensor: t.Name, Details: fmt.Sprintf("shape %v needs %d bytes, header says %d", t.Shape, expected, t.Size)}
		}
	}

	// Overlap check over offset-sorted regions.
	sorted := make([]TensorMeta, len(tensors))
	copy(sorted, tensors)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Offset < sorted[j].Offset })

	for i := 1; i < len(sorted); i++ {
		prev, cur := &sorted[i-1], &sorted[i]
		if prev.Offset+prev.Size > cur.Offset {
			return &ValidationError{Err: ErrOffsetOverlap, Tensor: prev.Name, Tensor2: cur.Name,
				Details: fmt.Sprintf("[%d, %d) overlaps [%d, %d)", prev.Offset, prev.Offset+prev.Size, cur.Offset, cur.Offset+cur.Size)}
		}
	}

	return nil
}
