package compression

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/mogaika/gltf_browser/accessor"
	"github.com/mogaika/gltf_browser/diag"
	"github.com/mogaika/gltf_browser/document"
)

var ErrDecodedShapeMismatch = errors.New("decoded shape mismatch")

type dracoExtension struct {
	BufferView int            `json:"bufferView"`
	Attributes map[string]int `json:"attributes"`
}

type meshoptExtension struct {
	Buffer     int    `json:"buffer"`
	ByteOffset int    `json:"byteOffset"`
	ByteLength int    `json:"byteLength"`
	ByteStride int    `json:"byteStride"`
	Count      int    `json:"count"`
	Mode       string `json:"mode"`
	Filter     string `json:"filter"`
}

type materialized struct {
	data []byte
	ok   bool
	err  error
}

// Bridge owns the document while primitives are being decompressed: it is
// the only writer, and it only appends.
type Bridge struct {
	doc      *document.Document
	codec    Codec
	streams  StreamDecoder
	reporter diag.Reporter

	mu           sync.Mutex
	primitives   map[[2]int]document.Primitive
	materialized map[int]materialized
}

type Option func(*Bridge)

func WithStreamDecoder(sd StreamDecoder) Option {
	return func(b *Bridge) { b.streams = sd }
}

func WithReporter(r diag.Reporter) Option {
	return func(b *Bridge) { b.reporter = r }
}

// NewBridge accepts a nil codec, Draco primitives then fail individually.
func NewBridge(doc *document.Document, codec Codec, opts ...Option) *Bridge {
	b := &Bridge{
		doc:          doc,
		codec:        codec,
		reporter:     diag.Discard,
		primitives:   make(map[[2]int]document.Primitive),
		materialized: make(map[int]materialized),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bridge) Document() *document.Document {
	return b.doc
}

// Supported lists the extensions this bridge can decode.
func (b *Bridge) Supported() []string {
	var exts []string
	if b.codec != nil {
		exts = append(exts, ExtDraco)
	}
	if b.streams != nil {
		exts = append(exts, ExtMeshopt)
	}
	return exts
}

// IsCompressed reports whether p needs Decompress before assembly.
func IsCompressed(p *document.Primitive) bool {
	_, ok := p.Extensions[ExtDraco]
	return ok
}

// Decompress decodes the Draco payload of a primitive, appends one
// buffer/bufferView/accessor per decoded stream and returns a copy of the
// primitive pointing at them. Nothing is appended unless every stream
// matches what the document declared.
func (b *Bridge) Decompress(ctx context.Context, meshIndex, primIndex int) (document.Primitive, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := [2]int{meshIndex, primIndex}
	if p, ok := b.primitives[key]; ok {
		return p, nil
	}

	src, err := b.doc.Primitive(meshIndex, primIndex)
	if err != nil {
		return document.Primitive{}, err
	}
	raw, ok := src.Extensions[ExtDraco]
	if !ok {
		return src.Clone(), nil
	}
	if b.codec == nil {
		return document.Primitive{}, errors.Errorf("mesh %d primitive %d: no codec for %s", meshIndex, primIndex, ExtDraco)
	}

	var ext dracoExtension
	if err := json.Unmarshal(raw, &ext); err != nil {
		return document.Primitive{}, errors.Wrapf(document.ErrMalformedDocument, "mesh %d primitive %d: %s: %v", meshIndex, primIndex, ExtDraco, err)
	}
	payload, err := b.bufferViewBytes(ext.BufferView)
	if err != nil {
		return document.Primitive{}, errors.Wrapf(err, "mesh %d primitive %d", meshIndex, primIndex)
	}

	requests, err := b.requests(src, &ext)
	if err != nil {
		return document.Primitive{}, errors.Wrapf(err, "mesh %d primitive %d", meshIndex, primIndex)
	}

	decoded, err := b.codec.Decode(ctx, payload, requests)
	if err != nil {
		return document.Primitive{}, errors.Wrapf(err, "mesh %d primitive %d: decode", meshIndex, primIndex)
	}
	if err := b.verify(src, requests, decoded); err != nil {
		return document.Primitive{}, errors.Wrapf(err, "mesh %d primitive %d", meshIndex, primIndex)
	}

	out := b.rewire(src, requests, decoded)
	b.primitives[key] = out
	return out, nil
}

func (b *Bridge) bufferViewBytes(index int) ([]byte, error) {
	bv, err := b.doc.BufferView(index)
	if err != nil {
		return nil, err
	}
	buf, err := b.doc.Buffer(bv.Buffer)
	if err != nil {
		return nil, err
	}
	end := bv.ByteOffset + bv.ByteLength
	if bv.ByteOffset < 0 || end > len(buf.Data) {
		return nil, errors.Wrapf(document.ErrMalformedDocument, "bufferView %d range [%d,%d) outside buffer of %d bytes",
			index, bv.ByteOffset, end, len(buf.Data))
	}
	return buf.Data[bv.ByteOffset:end:end], nil
}

func (b *Bridge) requests(p *document.Primitive, ext *dracoExtension) (map[string]AttributeRequest, error) {
	requests := make(map[string]AttributeRequest, len(ext.Attributes))
	for semantic, id := range ext.Attributes {
		accIndex, ok := p.Attributes[semantic]
		if !ok {
			return nil, errors.Wrapf(document.ErrMalformedDocument, "compressed attribute %s has no accessor", semantic)
		}
		acc, err := b.doc.Accessor(accIndex)
		if err != nil {
			return nil, err
		}
		kind, ok := KindFor(acc.ComponentType)
		if !ok {
			return nil, errors.Wrapf(accessor.ErrUnsupportedComponentType, "accessor %d: %v", accIndex, acc.ComponentType)
		}
		requests[semantic] = AttributeRequest{ID: id, Kind: kind, Components: acc.Type.Components()}
	}
	return requests, nil
}

func (b *Bridge) verify(p *document.Primitive, requests map[string]AttributeRequest, decoded *DecodedMesh) error {
	if decoded == nil {
		return errors.Wrap(ErrDecodedShapeMismatch, "codec returned no mesh")
	}
	for semantic, req := range requests {
		got, ok := decoded.Attributes[semantic]
		if !ok {
			return errors.Wrapf(ErrDecodedShapeMismatch, "attribute %s missing from decoded mesh", semantic)
		}
		if got.Kind != req.Kind {
			return errors.Wrapf(ErrDecodedShapeMismatch, "attribute %s decoded as %v, declared %v", semantic, got.Kind, req.Kind)
		}
		if got.Components != req.Components {
			return errors.Wrapf(ErrDecodedShapeMismatch, "attribute %s has %d components, declared %d", semantic, got.Components, req.Components)
		}
		acc := &b.doc.Accessors[p.Attributes[semantic]]
		elemSize := got.Kind.Size() * got.Components
		if len(got.Data)%elemSize != 0 || len(got.Data)/elemSize != acc.Count {
			return errors.Wrapf(ErrDecodedShapeMismatch, "attribute %s has %d bytes, expected %d vertices of %d bytes",
				semantic, len(got.Data), acc.Count, elemSize)
		}
	}

	if p.Indices != nil {
		acc, err := b.doc.Accessor(*p.Indices)
		if err != nil {
			return err
		}
		if len(decoded.Indices) != acc.Count {
			return errors.Wrapf(ErrDecodedShapeMismatch, "%d indices decoded, declared %d", len(decoded.Indices), acc.Count)
		}
		var limit uint64
		switch acc.ComponentType {
		case document.UnsignedByte:
			limit = 0xff
		case document.UnsignedShort:
			limit = 0xffff
		case document.UnsignedInt:
			limit = 0xffffffff
		default:
			return errors.Wrapf(accessor.ErrUnsupportedComponentType, "indices accessor %d: %v", *p.Indices, acc.ComponentType)
		}
		for i, idx := range decoded.Indices {
			if uint64(idx) > limit {
				return errors.Wrapf(ErrDecodedShapeMismatch, "index %d value %d does not fit %v", i, idx, acc.ComponentType)
			}
		}
	}
	return nil
}

func (b *Bridge) rewire(src *document.Primitive, requests map[string]AttributeRequest, decoded *DecodedMesh) document.Primitive {
	out := src.Clone()
	delete(out.Extensions, ExtDraco)

	semantics := make([]string, 0, len(requests))
	for semantic := range requests {
		semantics = append(semantics, semantic)
	}
	sort.Strings(semantics)

	for _, semantic := range semantics {
		out.Attributes[semantic] = b.appendStream(src.Attributes[semantic], decoded.Attributes[semantic].Data, document.TargetArrayBuffer)
	}

	if src.Indices != nil {
		declared := b.doc.Accessors[*src.Indices]
		size := declared.ComponentType.Size()
		data := make([]byte, len(decoded.Indices)*size)
		for i, idx := range decoded.Indices {
			switch size {
			case 1:
				data[i] = byte(idx)
			case 2:
				binary.LittleEndian.PutUint16(data[i*2:], uint16(idx))
			default:
				binary.LittleEndian.PutUint32(data[i*4:], idx)
			}
		}
		idx := b.appendStream(*src.Indices, data, document.TargetElementArrayBuffer)
		out.Indices = &idx
	}
	return out
}

// appendStream copies the declared accessor onto a fresh buffer holding data.
func (b *Bridge) appendStream(declaredIndex int, data []byte, target int) int {
	declared := b.doc.Accessors[declaredIndex]

	buf := b.doc.AppendBuffer(document.Buffer{ByteLength: len(data), Data: data})
	bv := b.doc.AppendBufferView(document.BufferView{Buffer: buf, ByteLength: len(data), Target: target})

	acc := declared
	acc.BufferView = &bv
	acc.ByteOffset = 0
	acc.Sparse = nil
	acc.Unknown = nil
	return b.doc.AppendAccessor(acc)
}
