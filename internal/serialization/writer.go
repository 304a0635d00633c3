package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/diffuse-ml/diffuse/internal/tensor"
)

const libraryVersion = "0.1.0"

// SnapshotWriter writes network parameters in .dfsn format.
type SnapshotWriter struct {
	file   *os.File
	closed bool
}

// NewSnapshotWriter creates a writer for the given path, truncating any
// existing file.
func NewSnapshotWriter(path string) (*SnapshotWriter, error) {
	//nolint:gosec // G304: the snapshot path is caller-chosen by design
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return &SnapshotWriter{file: file}, nil
}

// WriteStateDict writes a state dictionary with the given header fields.
//
// The writer fills in FormatVersion, LibraryVersion, SnapshotID, CreatedAt,
// and the tensor table; callers set ModelType and Metadata. Tensors are
// laid out in sorted name order so identical state dicts produce identical
// files.
func (w *SnapshotWriter) WriteStateDict(stateDict map[string]*tensor.RawTensor, header Header) error {
	if w.closed {
		return fmt.Errorf("writer is closed")
	}

	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		names = append(names, name)
	}
	sort.Strings(names)

	// Build the tensor table and the data section.
	var data bytes.Buffer
	header.Tensors = make([]TensorMeta, 0, len(names))
	for _, name := range names {
		raw := stateDict[name]
		size := int64(raw.NumElements() * raw.DType().Size())

		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  dtypeToString(raw.DType()),
			Shape:  []int(raw.Shape()),
			Offset: int64(data.Len()),
			Size:   size,
		})
		data.Write(raw.Bytes())
	}

	header.FormatVersion = FormatVersion
	header.LibraryVersion = libraryVersion
	if header.SnapshotID == "" {
		header.SnapshotID = uuid.NewString()
	}
	if header.CreatedAt.IsZero() {
		header.CreatedAt = time.Now().UTC()
	}
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	var flags uint32
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}

	if _, err := w.file.WriteString(MagicBytes); err != nil {
		return fmt.Errorf("failed to write magic bytes: %w", err)
	}
	if err := binary.Write(w.file, binary.LittleEndian, uint32(FormatVersion)); err != nil {
		return fmt.Errorf("failed to write version: %w", err)
	}
	if err := binary.Write(w.file, binary.LittleEndian, flags); err != nil {
		return fmt.Errorf("failed to write flags: %w", err)
	}
	if err := binary.Write(w.file, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := w.file.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	// Pad so the data section starts on a 64-byte boundary.
	pos := int64(len(MagicBytes)+4+4+8) + int64(len(headerJSON))
	if padding := (HeaderAlignment - pos%HeaderAlignment) % HeaderAlignment; padding > 0 {
		if _, err := w.file.Write(make([]byte, padding)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}

	if _, err := w.file.Write(data.Bytes()); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}

	checksum := ComputeChecksum(data.Bytes())
	if _, err := w.file.Write(checksum[:]); err != nil {
		return fmt.Errorf("failed to write checksum: %w", err)
	}

	return nil
}

// Close closes the underlying file. Further writes fail.
func (w *SnapshotWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// WriteSnapshot writes a state dictionary to path in one call.
func WriteSnapshot(path string, stateDict map[string]*tensor.RawTensor, header Header) (err error) {
	writer, err := NewSnapshotWriter(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := writer.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return writer.WriteStateDict(stateDict, header)
}
