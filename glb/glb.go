// Package glb splits a binary glTF container into its JSON and BIN chunks.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
package glb

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const (
	Magic   = 0x46546C67 // "glTF"
	Version = 2

	ChunkJSON = 0x4E4F534A // "JSON"
	ChunkBIN  = 0x004E4942 // "BIN\0"

	headerSize      = 12
	chunkHeaderSize = 8
)

var ErrContainerFormat = errors.New("container format error")

// Container holds sub-slices of the source blob, nothing is copied.
type Container struct {
	Version uint32
	Length  uint32
	JSON    []byte
	Binary  [][]byte
}

// IsGLB reports whether data starts with the GLB magic.
func IsGLB(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data) == Magic
}

func Parse(data []byte) (*Container, error) {
	if len(data) < headerSize {
		return nil, errors.Wrapf(ErrContainerFormat, "file too small: %d bytes", len(data))
	}

	magic := binary.LittleEndian.Uint32(data[0:4])
	version := binary.LittleEndian.Uint32(data[4:8])
	length := binary.LittleEndian.Uint32(data[8:12])

	if magic != Magic {
		return nil, errors.Wrapf(ErrContainerFormat, "invalid magic 0x%.8x", magic)
	}
	if version != Version {
		return nil, errors.Wrapf(ErrContainerFormat, "unsupported version %d", version)
	}
	if length < headerSize || uint64(length) > uint64(len(data)) {
		return nil, errors.Wrapf(ErrContainerFormat, "declared length %d, have %d bytes", length, len(data))
	}

	c := &Container{Version: version, Length: length}
	seenBIN := false

	for pos, iChunk := uint64(headerSize), 0; pos < uint64(length); iChunk++ {
		if pos+chunkHeaderSize > uint64(length) {
			return nil, errors.Wrapf(ErrContainerFormat, "chunk %d header at 0x%x overflows container", iChunk, pos)
		}
		chunkLength := uint64(binary.LittleEndian.Uint32(data[pos:]))
		chunkType := binary.LittleEndian.Uint32(data[pos+4:])
		start := pos + chunkHeaderSize
		end := start + chunkLength
		if end > uint64(length) {
			return nil, errors.Wrapf(ErrContainerFormat, "chunk %d length %d overflows container", iChunk, chunkLength)
		}
		payload := data[start:end:end]

		switch chunkType {
		case ChunkJSON:
			if iChunk != 0 {
				return nil, errors.Wrapf(ErrContainerFormat, "JSON chunk must be first, found at index %d", iChunk)
			}
			c.JSON = payload
		case ChunkBIN:
			if c.JSON == nil {
				return nil, errors.Wrapf(ErrContainerFormat, "BIN chunk precedes JSON chunk")
			}
			if seenBIN {
				return nil, errors.Wrapf(ErrContainerFormat, "more than one BIN chunk")
			}
			seenBIN = true
			c.Binary = append(c.Binary, payload)
		default:
			if c.JSON == nil {
				return nil, errors.Wrapf(ErrContainerFormat, "unrecognized chunk 0x%.8x before JSON chunk", chunkType)
			}
			// unknown chunks after JSON are ignored
		}

		pos = end
	}

	if c.JSON == nil {
		return nil, errors.Wrap(ErrContainerFormat, "missing JSON chunk")
	}
	return c, nil
}

// BIN returns the first binary chunk or nil.
func (c *Container) BIN() []byte {
	if len(c.Binary) == 0 {
		return nil
	}
	return c.Binary[0]
}
