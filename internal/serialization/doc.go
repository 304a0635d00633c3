// Package serialization implements the .dfsn snapshot format for network
// parameters.
//
// File layout:
//
//	magic "DFSN"          4 bytes
//	format version        uint32, little endian
//	flags                 uint32, little endian
//	header size           uint64, little endian
//	header                JSON (Header)
//	padding               zeros to a 64-byte boundary
//	tensor data           raw little-endian buffers at the header's offsets
//	checksum              SHA-256 of the tensor data section, 32 bytes
//
// The header records each tensor's name, dtype, shape, offset, and size, so
// a reader can reconstruct a state dictionary without knowing the model.
package serialization
