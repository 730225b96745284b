package accessor

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/mogaika/gltf_browser/3rdparty/half"
	"github.com/mogaika/gltf_browser/document"
)

// Elem is the storage kind of a View's populated slice.
type Elem int

const (
	Int8 Elem = iota
	Uint8
	Int16
	Uint16
	Uint32
	Float32
)

func (e Elem) String() string {
	switch e {
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
	default:
		return fmt.Sprintf("elem(%d)", int(e))
	}
}

func elemFor(ct document.ComponentType) (Elem, bool) {
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

// View is a packed, typed copy of accessor data. Exactly one of the typed
// slices is populated, chosen by Elem.
type View struct {
	ComponentType document.ComponentType
	Elem          Elem
	Components    int
	Count         int
	Normalized    bool
	Truncated     bool

	I8  []int8
	U8  []uint8
	I16 []int16
	U16 []uint16
	U32 []uint32
	F32 []float32
}

func newView(ct document.ComponentType, elem Elem, components, length int) *View {
	v := &View{ComponentType: ct, Elem: elem, Components: components}
	switch elem {
	case Int8:
		v.I8 = make([]int8, length)
	case Uint8:
		v.U8 = make([]uint8, length)
	case Int16:
		v.I16 = make([]int16, length)
	case Uint16:
		v.U16 = make([]uint16, length)
	case Uint32:
		v.U32 = make([]uint32, length)
	case Float32:
		v.F32 = make([]float32, length)
	}
	v.Count = length / components
	return v
}

func (v *View) Len() int {
	switch v.Elem {
	case Int8:
		return len(v.I8)
	case Uint8:
		return len(v.U8)
	case Int16:
		return len(v.I16)
	case Uint16:
		return len(v.U16)
	case Uint32:
		return len(v.U32)
	case Float32:
		return len(v.F32)
	}
	return 0
}

// Float returns component i as stored, without normalization.
func (v *View) Float(i int) float64 {
	switch v.Elem {
	case Int8:
		return float64(v.I8[i])
	case Uint8:
		return float64(v.U8[i])
	case Int16:
		return float64(v.I16[i])
	case Uint16:
		return float64(v.U16[i])
	case Uint32:
		return float64(v.U32[i])
	case Float32:
		return float64(v.F32[i])
	}
	return 0
}

func (v *View) Uint(i int) uint32 {
	switch v.Elem {
	case Int8:
		return uint32(v.I8[i])
	case Uint8:
		return uint32(v.U8[i])
	case Int16:
		return uint32(v.I16[i])
	case Uint16:
		return uint32(v.U16[i])
	case Uint32:
		return v.U32[i]
	case Float32:
		return uint32(v.F32[i])
	}
	return 0
}

// Float32s returns the float32 slice directly for Float32 views and a
// converted copy otherwise.
func (v *View) Float32s() []float32 {
	if v.Elem == Float32 {
		return v.F32
	}
	out := make([]float32, v.Len())
	for i := range out {
		out[i] = float32(v.Float(i))
	}
	return out
}

func (v *View) Uint32s() []uint32 {
	if v.Elem == Uint32 {
		return v.U32
	}
	out := make([]uint32, v.Len())
	for i := range out {
		out[i] = v.Uint(i)
	}
	return out
}

// Element returns the components of element i.
func (v *View) Element(i int) []float64 {
	out := make([]float64, v.Components)
	for j := range out {
		out[j] = v.Float(i*v.Components + j)
	}
	return out
}

// set decodes one little-endian component from b into slot j.
// halfFloat makes Float32 views read binary16 values.
func (v *View) set(j int, b []byte, halfFloat bool) {
	switch v.Elem {
	case Int8:
		v.I8[j] = int8(b[0])
	case Uint8:
		v.U8[j] = b[0]
	case Int16:
		v.I16[j] = int16(binary.LittleEndian.Uint16(b))
	case Uint16:
		v.U16[j] = binary.LittleEndian.Uint16(b)
	case Uint32:
		v.U32[j] = binary.LittleEndian.Uint32(b)
	case Float32:
		if halfFloat {
			v.F32[j] = half.Decode(binary.LittleEndian.Uint16(b))
		} else {
			v.F32[j] = math.Float32frombits(binary.LittleEndian.Uint32(b))
		}
	}
}

// Repack reinterprets v as records of width components and keeps the first
// keep of each, for count records. Records missing from v stay zero.
func (v *View) Repack(width, keep, count int) *View {
	out := newView(v.ComponentType, v.Elem, keep, count*keep)
	out.Normalized = v.Normalized
	out.Truncated = v.Truncated
	for r := 0; r < count; r++ {
		for c := 0; c < keep; c++ {
			src := r*width + c
			if src >= v.Len() {
				out.Truncated = true
				continue
			}
			dst := r*keep + c
			switch v.Elem {
			case Int8:
				out.I8[dst] = v.I8[src]
			case Uint8:
				out.U8[dst] = v.U8[src]
			case Int16:
				out.I16[dst] = v.I16[src]
			case Uint16:
				out.U16[dst] = v.U16[src]
			case Uint32:
				out.U32[dst] = v.U32[src]
			case Float32:
				out.F32[dst] = v.F32[src]
			}
		}
	}
	return out
}
