// Package accessor turns glTF accessors into packed typed views, handling
// strides, sparse overrides, normalization and truncated buffers.
package accessor

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/mogaika/gltf_browser/diag"
	"github.com/mogaika/gltf_browser/document"
)

var ErrUnsupportedComponentType = errors.New("unsupported component type")

const extMeshopt = "EXT_meshopt_compression"

// MaxZeroFill bounds views of accessors that have no bufferView and so
// no bytes to clamp against.
const MaxZeroFill = 1 << 26

const maxInt = int(^uint(0) >> 1)

// Materializer supplies decompressed bytes for bufferViews that carry
// EXT_meshopt_compression. ok=false means the bufferView is not compressed.
type Materializer interface {
	Materialize(bufferView int) (data []byte, ok bool, err error)
}

type variant int

const (
	variantLinear variant = iota
	variantDeinterlaced
	variantNormalizedLinear
	variantNormalizedDeinterlaced
)

type memoKey struct {
	accessor int
	variant  variant
}

type memoEntry struct {
	view *View
	err  error
}

type Engine struct {
	doc       *document.Document
	mat       Materializer
	reporter  diag.Reporter
	halfFloat bool

	mu   sync.Mutex
	memo map[memoKey]memoEntry
}

type Option func(*Engine)

func WithMaterializer(m Materializer) Option {
	return func(e *Engine) { e.mat = m }
}

func WithReporter(r diag.Reporter) Option {
	return func(e *Engine) { e.reporter = r }
}

// WithHalfFloatDeinterlace decodes UNSIGNED_SHORT components on the
// deinterlaced path as IEEE binary16 instead of normalized integers.
func WithHalfFloatDeinterlace(enabled bool) Option {
	return func(e *Engine) { e.halfFloat = enabled }
}

func NewEngine(doc *document.Document, opts ...Option) *Engine {
	e := &Engine{
		doc:      doc,
		reporter: diag.Discard,
		memo:     make(map[memoKey]memoEntry),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Document() *document.Document {
	return e.doc
}

// Linear reads count*components tightly packed components.
func (e *Engine) Linear(i int) (*View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.get(i, variantLinear)
}

// Deinterlaced honours bufferView.byteStride.
func (e *Engine) Deinterlaced(i int) (*View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.get(i, variantDeinterlaced)
}

// Natural picks Deinterlaced only when the data is actually interleaved.
func (e *Engine) Natural(i int) (*View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.get(i, e.naturalVariant(i, false))
}

func (e *Engine) NormalizedLinear(i int) (*View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.get(i, variantNormalizedLinear)
}

func (e *Engine) NormalizedDeinterlaced(i int) (*View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.get(i, variantNormalizedDeinterlaced)
}

func (e *Engine) NormalizedNatural(i int) (*View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.get(i, e.naturalVariant(i, true))
}

// Floats returns the normalized natural view as float32 together with the
// component count. Used for animation, skin and morph data.
func (e *Engine) Floats(i int) ([]float32, int, error) {
	v, err := e.NormalizedNatural(i)
	if err != nil {
		return nil, 0, err
	}
	return v.Float32s(), v.Components, nil
}

func (e *Engine) naturalVariant(i int, normalized bool) variant {
	interleaved := false
	if acc, err := e.doc.Accessor(i); err == nil && acc.BufferView != nil {
		if bv, err := e.doc.BufferView(*acc.BufferView); err == nil {
			interleaved = bv.ByteStride != 0 && bv.ByteStride != acc.ElementSize()
		}
	}
	switch {
	case interleaved && normalized:
		return variantNormalizedDeinterlaced
	case interleaved:
		return variantDeinterlaced
	case normalized:
		return variantNormalizedLinear
	default:
		return variantLinear
	}
}

// get must be called with e.mu held.
func (e *Engine) get(i int, v variant) (*View, error) {
	key := memoKey{i, v}
	if m, ok := e.memo[key]; ok {
		return m.view, m.err
	}

	var view *View
	var err error
	switch v {
	case variantLinear:
		view, err = e.build(i, false)
	case variantDeinterlaced:
		view, err = e.build(i, true)
	case variantNormalizedLinear, variantNormalizedDeinterlaced:
		base := variantLinear
		if v == variantNormalizedDeinterlaced {
			base = variantDeinterlaced
		}
		view, err = e.get(i, base)
		if err == nil {
			view = Normalized(view, &e.doc.Accessors[i])
		}
	}

	e.memo[key] = memoEntry{view, err}
	return view, err
}

func (e *Engine) build(i int, deinterlace bool) (*View, error) {
	acc, err := e.doc.Accessor(i)
	if err != nil {
		return nil, err
	}
	elem, ok := elemFor(acc.ComponentType)
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedComponentType, "accessor %d: %v", i, acc.ComponentType)
	}
	components := acc.Type.Components()
	if components == 0 {
		return nil, errors.Wrapf(document.ErrMalformedDocument, "accessor %d: unknown type %q", i, string(acc.Type))
	}
	if acc.Count < 0 {
		return nil, errors.Wrapf(document.ErrMalformedDocument, "accessor %d: negative count %d", i, acc.Count)
	}

	if acc.Count > maxInt/components {
		return nil, errors.Wrapf(document.ErrMalformedDocument, "accessor %d: count %d overflows", i, acc.Count)
	}

	halfFloat := deinterlace && e.halfFloat && acc.ComponentType == document.UnsignedShort
	if halfFloat {
		elem = Float32
	}
	size := acc.ComponentType.Size()
	length := acc.Count * components

	// views never hold more components than the bufferView can supply
	var data []byte
	alloc := length
	if acc.BufferView == nil {
		if length > MaxZeroFill {
			return nil, errors.Wrapf(document.ErrMalformedDocument,
				"accessor %d: %d components without a bufferView, limit %d", i, length, MaxZeroFill)
		}
		if acc.Sparse == nil {
			diag.Reportf(e.reporter, diag.KindZeroFilled, "accessor", i, "no bufferView, %d zero components", length)
		}
	} else {
		if data, err = e.window(*acc.BufferView); err != nil {
			return nil, errors.Wrapf(err, "accessor %d", i)
		}
		available := linearAvailable(acc, data, size)
		if deinterlace {
			available = e.deinterlaceAvailable(acc, data, components)
		}
		if available < alloc {
			alloc = available
		}
	}

	view := newView(acc.ComponentType, elem, components, alloc)
	if alloc < length {
		view.Truncated = true
		diag.Reportf(e.reporter, diag.KindTruncated, "accessor", i,
			"need %d components, bufferView holds %d", length, alloc)
	}

	if acc.BufferView != nil {
		if deinterlace {
			e.deinterlace(i, acc, view, data, size, halfFloat)
		} else {
			linear(acc, view, data, size)
		}
	}

	if acc.Sparse != nil {
		if err := e.overlay(i, acc, view, size, halfFloat); err != nil {
			return nil, err
		}
	}
	return view, nil
}

func linearAvailable(acc *document.Accessor, data []byte, size int) int {
	if acc.ByteOffset < 0 || acc.ByteOffset >= len(data) {
		return 0
	}
	return (len(data) - acc.ByteOffset) / size
}

func (e *Engine) stride(acc *document.Accessor) int {
	if bv, err := e.doc.BufferView(*acc.BufferView); err == nil && bv.ByteStride > 0 {
		return bv.ByteStride
	}
	return acc.ElementSize()
}

// deinterlaceAvailable counts components of every element that starts
// inside data; missing tails of the last one read as zero.
func (e *Engine) deinterlaceAvailable(acc *document.Accessor, data []byte, components int) int {
	if acc.ByteOffset < 0 || acc.ByteOffset >= len(data) {
		return 0
	}
	elements := (len(data)-1-acc.ByteOffset)/e.stride(acc) + 1
	if elements > acc.Count {
		elements = acc.Count
	}
	return elements * components
}

func linear(acc *document.Accessor, view *View, data []byte, size int) {
	for j, length := 0, view.Len(); j < length; j++ {
		off := acc.ByteOffset + j*size
		view.set(j, data[off:off+size], false)
	}
}

func (e *Engine) deinterlace(i int, acc *document.Accessor, view *View, data []byte, size int, halfFloat bool) {
	components := view.Components
	stride := e.stride(acc)

	short := 0
	for j, length := 0, view.Len(); j < length; j++ {
		off := acc.ByteOffset + (j/components)*stride + (j%components)*size
		if off+size > len(data) {
			short++
			continue
		}
		view.set(j, data[off:off+size], halfFloat)
	}
	if short != 0 {
		view.Truncated = true
		diag.Reportf(e.reporter, diag.KindTruncated, "accessor", i,
			"%d components past end of bufferView read as zero", short)
	}
}

// window returns the bytes addressed by a bufferView, clamped to what the
// buffer actually holds. Meshopt-compressed views go through the Materializer.
func (e *Engine) window(bvIndex int) ([]byte, error) {
	bv, err := e.doc.BufferView(bvIndex)
	if err != nil {
		return nil, err
	}
	if _, compressed := bv.Extensions[extMeshopt]; compressed && e.mat != nil {
		data, ok, err := e.mat.Materialize(bvIndex)
		if err != nil {
			return nil, err
		}
		if ok {
			return data, nil
		}
	}

	buf, err := e.doc.Buffer(bv.Buffer)
	if err != nil {
		return nil, err
	}
	if bv.ByteOffset < 0 || bv.ByteLength < 0 {
		return nil, errors.Wrapf(document.ErrMalformedDocument, "bufferView %d: negative range", bvIndex)
	}
	start := bv.ByteOffset
	if start >= len(buf.Data) {
		return nil, nil
	}
	end := len(buf.Data)
	if bv.ByteLength < end-start {
		end = start + bv.ByteLength
	}
	return buf.Data[start:end:end], nil
}
