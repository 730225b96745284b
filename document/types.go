package document

import "fmt"

type ComponentType int

const (
	Byte          ComponentType = 5120
	UnsignedByte  ComponentType = 5121
	Short         ComponentType = 5122
	UnsignedShort ComponentType = 5123
	UnsignedInt   ComponentType = 5125
	Float         ComponentType = 5126
)

// Size returns the component width in bytes, 0 for unknown types.
func (c ComponentType) Size() int {
	switch c {
	case Byte, UnsignedByte:
		return 1
	case Short, UnsignedShort:
		return 2
	case UnsignedInt, Float:
		return 4
	default:
		return 0
	}
}

func (c ComponentType) Valid() bool {
	return c.Size() != 0
}

// Integer reports whether normalization applies to c.
func (c ComponentType) Integer() bool {
	switch c {
	case Byte, UnsignedByte, Short, UnsignedShort, UnsignedInt:
		return true
	default:
		return false
	}
}

func (c ComponentType) String() string {
	switch c {
	case Byte:
		return "BYTE"
	case UnsignedByte:
		return "UNSIGNED_BYTE"
	case Short:
		return "SHORT"
	case UnsignedShort:
		return "UNSIGNED_SHORT"
	case UnsignedInt:
		return "UNSIGNED_INT"
	case Float:
		return "FLOAT"
	default:
		return fmt.Sprintf("componentType(%d)", int(c))
	}
}

type AccessorType string

const (
	Scalar AccessorType = "SCALAR"
	Vec2   AccessorType = "VEC2"
	Vec3   AccessorType = "VEC3"
	Vec4   AccessorType = "VEC4"
	Mat2   AccessorType = "MAT2"
	Mat3   AccessorType = "MAT3"
	Mat4   AccessorType = "MAT4"
)

// Components returns the component count, 0 for unknown types.
func (t AccessorType) Components() int {
	switch t {
	case Scalar:
		return 1
	case Vec2:
		return 2
	case Vec3:
		return 3
	case Vec4, Mat2:
		return 4
	case Mat3:
		return 9
	case Mat4:
		return 16
	default:
		return 0
	}
}

// AccessorTypeFor maps a component count back to the vector type.
// Matrix types are never returned.
func AccessorTypeFor(components int) (AccessorType, bool) {
	switch components {
	case 1:
		return Scalar, true
	case 2:
		return Vec2, true
	case 3:
		return Vec3, true
	case 4:
		return Vec4, true
	}
	return "", false
}

type PrimitiveMode int

const (
	Points PrimitiveMode = iota
	Lines
	LineLoop
	LineStrip
	Triangles
	TriangleStrip
	TriangleFan
)

func (m PrimitiveMode) String() string {
	switch m {
	case Points:
		return "POINTS"
	case Lines:
		return "LINES"
	case LineLoop:
		return "LINE_LOOP"
	case LineStrip:
		return "LINE_STRIP"
	case Triangles:
		return "TRIANGLES"
	case TriangleStrip:
		return "TRIANGLE_STRIP"
	case TriangleFan:
		return "TRIANGLE_FAN"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// BufferView targets
const (
	TargetArrayBuffer        = 34962
	TargetElementArrayBuffer = 34963
)

// Sampler filter and wrap constants
const (
	FilterNearest              = 9728
	FilterLinear               = 9729
	FilterNearestMipmapNearest = 9984
	FilterLinearMipmapNearest  = 9985
	FilterNearestMipmapLinear  = 9986
	FilterLinearMipmapLinear   = 9987

	WrapClampToEdge    = 33071
	WrapMirroredRepeat = 33648
	WrapRepeat         = 10497
)
