package accessor

import (
	"math"

	"github.com/mogaika/gltf_browser/document"
)

// Dequantize maps a stored integer to its normalized float value.
// Signed kinds clamp at -1, so both -127 and -128 give -1.
func Dequantize(v float64, ct document.ComponentType) float64 {
	switch ct {
	case document.Byte:
		return math.Max(v/127, -1)
	case document.UnsignedByte:
		return v / 255
	case document.Short:
		return math.Max(v/32767, -1)
	case document.UnsignedShort:
		return v / 65535
	default:
		return v
	}
}

// Normalized returns a Float32 view with dequantized values when the
// accessor is flagged normalized and stores 8 or 16 bit integers.
// Anything else is returned unchanged.
func Normalized(v *View, acc *document.Accessor) *View {
	if !acc.Normalized {
		return v
	}
	switch v.Elem {
	case Int8, Uint8, Int16, Uint16:
	default:
		return v
	}

	out := &View{
		ComponentType: v.ComponentType,
		Elem:          Float32,
		Components:    v.Components,
		Count:         v.Count,
		Normalized:    true,
		Truncated:     v.Truncated,
		F32:           make([]float32, v.Len()),
	}
	for j := range out.F32 {
		out.F32[j] = float32(Dequantize(v.Float(j), v.ComponentType))
	}
	return out
}
