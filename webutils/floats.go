package webutils

import (
	"math"
	"strconv"
)

// Floats marshals like []float32 except NaN and infinities, which JSON
// cannot carry, are written as null.
type Floats []float32

func (f Floats) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}
	buf := make([]byte, 0, 2+len(f)*8)
	buf = append(buf, '[')
	for i, v := range f {
		if i != 0 {
			buf = append(buf, ',')
		}
		if x := float64(v); math.IsNaN(x) || math.IsInf(x, 0) {
			buf = append(buf, "null"...)
		} else {
			buf = strconv.AppendFloat(buf, x, 'g', -1, 32)
		}
	}
	return append(buf, ']'), nil
}
