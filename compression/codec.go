// Package compression bridges compressed-mesh glTF extensions
// (KHR_draco_mesh_compression, EXT_meshopt_compression) to external
// decoders and feeds the results back into the document.
package compression

import (
	"context"
	"fmt"

	"github.com/mogaika/gltf_browser/document"
)

const (
	ExtDraco   = "KHR_draco_mesh_compression"
	ExtMeshopt = "EXT_meshopt_compression"
)

// ElementKind is the storage kind of a decoded stream. Values are stable,
// the wasm codec ABI sends them as u32.
type ElementKind uint32

const (
	Int8 ElementKind = iota + 1
	Uint8
	Int16
	Uint16
	Uint32
	Float32
)

func (k ElementKind) Size() int {
	switch k {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Uint32, Float32:
		return 4
	}
	return 0
}

func (k ElementKind) ComponentType() document.ComponentType {
	switch k {
	case Int8:
		return document.Byte
	case Uint8:
		return document.UnsignedByte
	case Int16:
		return document.Short
	case Uint16:
		return document.UnsignedShort
	case Uint32:
		return document.UnsignedInt
	case Float32:
		return document.Float
	}
	return 0
}

func (k ElementKind) String() string {
	switch k {
	case Int8:
		return "int8"
	case Uint8:
		return "uint8"
	case Int16:
		return "int16"
	case Uint16:
		return "uint16"
	case Uint32:
		return "uint32"
	case Float32:
		return "float32"
	}
	return fmt.Sprintf("kind(%d)", uint32(k))
}

// KindFor is the inverse of ElementKind.ComponentType.
func KindFor(ct document.ComponentType) (ElementKind, bool) {
	switch ct {
	case document.Byte:
		return Int8, true
	case document.UnsignedByte:
		return Uint8, true
	case document.Short:
		return Int16, true
	case document.UnsignedShort:
		return Uint16, true
	case document.UnsignedInt:
		return Uint32, true
	case document.Float:
		return Float32, true
	}
	return 0, false
}

// AttributeRequest tells the codec how a semantic is stored in the
// compressed payload (ID) and how the document expects it back.
type AttributeRequest struct {
	ID         int
	Kind       ElementKind
	Components int
}

// DecodedAttribute.Data is packed little-endian.
type DecodedAttribute struct {
	Kind       ElementKind
	Components int
	Data       []byte
}

type DecodedMesh struct {
	Indices    []uint32
	Attributes map[string]DecodedAttribute
}

// Codec decodes one compressed primitive payload.
type Codec interface {
	Decode(ctx context.Context, data []byte, attributes map[string]AttributeRequest) (*DecodedMesh, error)
}

// StreamDecoder decodes one EXT_meshopt_compression stream into dst,
// which is exactly count*stride bytes.
type StreamDecoder interface {
	DecodeStream(dst []byte, count, stride int, src []byte, mode, filter string) error
}
