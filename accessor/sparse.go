package accessor

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/mogaika/gltf_browser/diag"
	"github.com/mogaika/gltf_browser/document"
)

// overlay applies sparse substitutions in order, later duplicates win.
func (e *Engine) overlay(i int, acc *document.Accessor, view *View, size int, halfFloat bool) error {
	s := acc.Sparse
	if s.Count < 1 || s.Count > acc.Count {
		return errors.Wrapf(document.ErrMalformedDocument, "accessor %d: sparse count %d outside [1,%d]", i, s.Count, acc.Count)
	}

	ict := s.Indices.ComponentType
	switch ict {
	case document.UnsignedByte, document.UnsignedShort, document.UnsignedInt:
	default:
		return errors.Wrapf(ErrUnsupportedComponentType, "accessor %d: sparse indices %v", i, ict)
	}

	indices, err := e.window(s.Indices.BufferView)
	if err != nil {
		return errors.Wrapf(err, "accessor %d: sparse indices", i)
	}
	isize := ict.Size()
	if !fits(s.Indices.ByteOffset, s.Count, isize, len(indices)) {
		return errors.Wrapf(document.ErrMalformedDocument, "accessor %d: sparse indices need %d x %d bytes at %d, have %d",
			i, s.Count, isize, s.Indices.ByteOffset, len(indices))
	}

	values, err := e.window(s.Values.BufferView)
	if err != nil {
		return errors.Wrapf(err, "accessor %d: sparse values", i)
	}
	components := view.Components
	if !fits(s.Values.ByteOffset, s.Count, components*size, len(values)) {
		return errors.Wrapf(document.ErrMalformedDocument, "accessor %d: sparse values need %d x %d bytes at %d, have %d",
			i, s.Count, components*size, s.Values.ByteOffset, len(values))
	}

	skipped := 0
	for k := 0; k < s.Count; k++ {
		ioff := s.Indices.ByteOffset + k*isize
		var target int
		switch ict {
		case document.UnsignedByte:
			target = int(indices[ioff])
		case document.UnsignedShort:
			target = int(binary.LittleEndian.Uint16(indices[ioff:]))
		default:
			target = int(binary.LittleEndian.Uint32(indices[ioff:]))
		}
		if target >= acc.Count {
			return errors.Wrapf(document.ErrMalformedDocument, "accessor %d: sparse index %d >= count %d", i, target, acc.Count)
		}
		if (target+1)*components > view.Len() {
			skipped++
			continue
		}
		for c := 0; c < components; c++ {
			voff := s.Values.ByteOffset + (k*components+c)*size
			view.set(target*components+c, values[voff:voff+size], halfFloat)
		}
	}
	if skipped != 0 {
		diag.Reportf(e.reporter, diag.KindTruncated, "accessor", i,
			"%d sparse substitutions fall past truncated data", skipped)
	}
	return nil
}

// fits reports whether count records of unit bytes starting at offset lie
// within length bytes, without overflowing.
func fits(offset, count, unit, length int) bool {
	if offset < 0 || offset > length {
		return false
	}
	return count <= (length-offset)/unit
}
