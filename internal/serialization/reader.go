package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"

	"github.com/diffuse-ml/diffuse/internal/tensor"
)

// ReadSnapshot reads a .dfsn file and reconstructs its header and state
// dictionary. The whole file is validated before any tensor is returned:
// magic bytes, format version, header size, tensor metadata, and the
// SHA-256 checksum of the data section.
func ReadSnapshot(path string) (*Header, map[string]*tensor.RawTensor, error) {
	//nolint:gosec // G304: the snapshot path is caller-chosen by design
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseSnapshot(raw)
}

// ParseSnapshot parses an in-memory .dfsn image.
func ParseSnapshot(raw []byte) (*Header, map[string]*tensor.RawTensor, error) {
	fixedSize := len(MagicBytes) + 4 + 4 + 8
	if len(raw) < fixedSize {
		return nil, nil, fmt.Errorf("%w: file too short (%d bytes)", ErrInvalidMagic, len(raw))
	}
	if !bytes.Equal(raw[:len(MagicBytes)], []byte(MagicBytes)) {
		return nil, nil, fmt.Errorf("%w: got %q", ErrInvalidMagic, raw[:len(MagicBytes)])
	}

	version := binary.LittleEndian.Uint32(raw[4:8])
	if version != FormatVersion {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	// Flags at raw[8:12] are informational; unknown bits are ignored.

	headerSize := binary.LittleEndian.Uint64(raw[12:20])
	if headerSize > MaxHeaderSize {
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}
	headerEnd := uint64(fixedSize) + headerSize
	if headerEnd > uint64(len(raw)) {
		return nil, nil, fmt.Errorf("%w: header extends beyond file", ErrHeaderTooLarge)
	}

	var header Header
	if err := json.Unmarshal(raw[fixedSize:headerEnd], &header); err != nil {
		return nil, nil, fmt.Errorf("failed to parse header: %w", err)
	}

	// Data section starts at the next 64-byte boundary and ends before the
	// trailing checksum.
	dataStart := (headerEnd + HeaderAlignment - 1) / HeaderAlignment * HeaderAlignment
	if uint64(len(raw)) < dataStart+ChecksumSize {
		return nil, nil, fmt.Errorf("%w: missing data section or checksum", ErrOutOfBounds)
	}
	data := raw[dataStart : len(raw)-ChecksumSize]

	var stored [32]byte
	copy(stored[:], raw[len(raw)-ChecksumSize:])
	if err := ValidateChecksum(ComputeChecksum(data), stored); err != nil {
		return nil, nil, err
	}

	if err := ValidateTensorMeta(header.Tensors, int64(len(data))); err != nil {
		return nil, nil, err
	}

	stateDict := make(map[string]*tensor.RawTensor, len(header.Tensors))
	for _, meta := range header.Tensors {
		dtype, _ := stringToDtype(meta.DType) // validated above

		rt, err := tensor.NewRaw(tensor.Shape(meta.Shape), dtype, tensor.CPU)
		if err != nil {
			return nil, nil, fmt.Errorf("tensor %q: %w", meta.Name, err)
		}
		copy(rt.Bytes(), data[meta.Offset:meta.Offset+meta.Size])
		stateDict[meta.Name] = rt
	}

	return &header, stateDict, nil
}
