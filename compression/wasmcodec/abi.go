package wasmcodec

import (
	"encoding/binary"
	"sort"

	"github.com/pkg/errors"

	"github.com/mogaika/gltf_browser/compression"
)

// EncodeRequest lays out the attribute requests the guest decode export
// reads. Records are sorted by name:
//
//	nameLen u32 | name | id u32 | kind u32 | components u32
func EncodeRequest(attributes map[string]compression.AttributeRequest) []byte {
	names := make([]string, 0, len(attributes))
	size := 0
	for name := range attributes {
		names = append(names, name)
		size += 16 + len(name)
	}
	sort.Strings(names)

	out := make([]byte, 0, size)
	for _, name := range names {
		req := attributes[name]
		out = binary.LittleEndian.AppendUint32(out, uint32(len(name)))
		out = append(out, name...)
		out = binary.LittleEndian.AppendUint32(out, uint32(req.ID))
		out = binary.LittleEndian.AppendUint32(out, uint32(req.Kind))
		out = binary.LittleEndian.AppendUint32(out, uint32(req.Components))
	}
	return out
}

const attrRecordMin = 20

type reader struct {
	mem []byte
	pos uint64
}

func (r *reader) u32() (uint32, error) {
	if r.pos+4 > uint64(len(r.mem)) {
		return 0, errors.Wrapf(ErrABI, "read u32 at 0x%x past memory of %d bytes", r.pos, len(r.mem))
	}
	v := binary.LittleEndian.Uint32(r.mem[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) bytes(n uint32) ([]byte, error) {
	if r.pos+uint64(n) > uint64(len(r.mem)) {
		return nil, errors.Wrapf(ErrABI, "read %d bytes at 0x%x past memory of %d bytes", n, r.pos, len(r.mem))
	}
	b := r.mem[r.pos : r.pos+uint64(n)]
	r.pos += uint64(n)
	return b, nil
}

func slice(mem []byte, ptr, n uint32) ([]byte, error) {
	r := reader{mem: mem, pos: uint64(ptr)}
	b, err := r.bytes(n)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

// ParseResult decodes the result block at ptr out of a guest memory
// snapshot. Everything returned is copied out of mem.
//
//	indexCount u32 | indexPtr u32 | attrCount u32
//	attrCount x (nameLen u32 | name | kind u32 | components u32 | byteLen u32 | dataPtr u32)
func ParseResult(mem []byte, ptr uint32) (*compression.DecodedMesh, error) {
	r := reader{mem: mem, pos: uint64(ptr)}

	indexCount, err := r.u32()
	if err != nil {
		return nil, err
	}
	indexPtr, err := r.u32()
	if err != nil {
		return nil, err
	}
	attrCount, err := r.u32()
	if err != nil {
		return nil, err
	}

	// each attribute record takes at least 20 bytes
	if uint64(attrCount)*attrRecordMin > uint64(len(mem))-r.pos {
		return nil, errors.Wrapf(ErrABI, "attribute count %d larger than memory", attrCount)
	}

	mesh := &compression.DecodedMesh{Attributes: make(map[string]compression.DecodedAttribute, attrCount)}

	if indexCount != 0 {
		if uint64(indexCount)*4 > uint64(len(mem)) {
			return nil, errors.Wrapf(ErrABI, "index count %d larger than memory", indexCount)
		}
		raw, err := slice(mem, indexPtr, indexCount*4)
		if err != nil {
			return nil, errors.Wrap(err, "indices")
		}
		mesh.Indices = make([]uint32, indexCount)
		for i := range mesh.Indices {
			mesh.Indices[i] = binary.LittleEndian.Uint32(raw[i*4:])
		}
	}

	for i := uint32(0); i < attrCount; i++ {
		nameLen, err := r.u32()
		if err != nil {
			return nil, err
		}
		name, err := r.bytes(nameLen)
		if err != nil {
			return nil, err
		}
		var fields [4]uint32
		for j := range fields {
			if fields[j], err = r.u32(); err != nil {
				return nil, err
			}
		}
		kind, components, byteLen, dataPtr := compression.ElementKind(fields[0]), fields[1], fields[2], fields[3]
		if kind.Size() == 0 {
			return nil, errors.Wrapf(ErrABI, "attribute %q: unknown kind %d", name, fields[0])
		}
		data, err := slice(mem, dataPtr, byteLen)
		if err != nil {
			return nil, errors.Wrapf(err, "attribute %q", name)
		}
		mesh.Attributes[string(name)] = compression.DecodedAttribute{
			Kind:       kind,
			Components: int(components),
			Data:       data,
		}
	}
	return mesh, nil
}
