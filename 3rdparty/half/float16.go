/*

 go-float16 - IEEE 754 binary16 half precision format
 Written in 2013 by h2so5 <mail@h2so5.net>

 To the extent possible under law, the author(s) have dedicated all copyright and
 related and neighboring rights to this software to the public domain worldwide.
 This software is distributed without any warranty.
 You should have received a copy of the CC0 Public Domain Dedication along with this software.
 If not, see <http://creativecommons.org/publicdomain/zero/1.0/>.

*/

// Package half is an IEEE 754 binary16 half precision format.
package half

import "math"

// A Float16 represents a 16-bit floating point number.
type Float16 uint16

const (
	signMask     = 0x8000
	exponentMask = 0x7c00
	mantissaMask = 0x03ff
)

// NewFloat16 allocates and returns a new Float16 set to f.
// Values outside the half range saturate to infinity, values below the
// smallest normal flush to signed zero.
func NewFloat16(f float32) Float16 {
	i := math.Float32bits(f)
	sign := uint16((i >> 31) & 0x1)
	exp := (i >> 23) & 0xff
	exp16 := int16(exp) - 127 + 15
	frac := uint16(i>>13) & 0x3ff
	if exp == 0 {
		exp16 = 0
		frac = 0
	} else if exp == 0xff {
		exp16 = 0x1f
		if i&0x7fffff != 0 && frac == 0 {
			frac = 0x200
		}
	} else {
		if exp16 > 0x1e {
			exp16 = 0x1f
			frac = 0
		} else if exp16 < 0x01 {
			exp16 = 0
			frac = 0
		}
	}
	f16 := (sign << 15) | uint16(exp16<<10) | frac
	return Float16(f16)
}

// Float64 decodes f exactly, including subnormals:
// exponent 0 gives sign*2^-14*(mantissa/1024),
// exponent 31 gives NaN or signed infinity.
func (f Float16) Float64() float64 {
	sign := 1.0
	if f&signMask != 0 {
		sign = -1.0
	}
	exp := int((f & exponentMask) >> 10)
	mantissa := float64(f & mantissaMask)

	switch exp {
	case 0:
		if mantissa == 0 {
			return math.Copysign(0, sign)
		}
		return sign * math.Ldexp(mantissa/1024, -14)
	case 0x1f:
		if mantissa != 0 {
			return math.NaN()
		}
		return math.Inf(int(sign))
	}
	return sign * math.Ldexp(1+mantissa/1024, exp-15)
}

// Float32 returns the float32 representation of f.
func (f Float16) Float32() float32 {
	return float32(f.Float64())
}

// IsNaN reports whether f is a NaN pattern.
func (f Float16) IsNaN() bool {
	return f&exponentMask == exponentMask && f&mantissaMask != 0
}

// Decode converts a raw little-endian-loaded 16 bit pattern.
func Decode(bits uint16) float32 {
	return Float16(bits).Float32()
}
