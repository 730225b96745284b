package compression

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/mogaika/gltf_browser/diag"
	"github.com/mogaika/gltf_browser/document"
)

// Materialize returns the decompressed bytes of an EXT_meshopt_compression
// bufferView. ok is false when the bufferView is not compressed or no
// StreamDecoder is installed; callers then read the bufferView's own bytes,
// which the extension requires to be a valid fallback when present.
func (b *Bridge) Materialize(bufferView int) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if m, ok := b.materialized[bufferView]; ok {
		return m.data, m.ok, m.err
	}
	data, ok, err := b.materialize(bufferView)
	b.materialized[bufferView] = materialized{data, ok, err}
	return data, ok, err
}

func (b *Bridge) materialize(index int) ([]byte, bool, error) {
	bv, err := b.doc.BufferView(index)
	if err != nil {
		return nil, false, err
	}
	raw, compressed := bv.Extensions[ExtMeshopt]
	if !compressed {
		return nil, false, nil
	}
	if b.streams == nil {
		diag.Reportf(b.reporter, diag.KindFallbackStream, "bufferView", index,
			"no stream decoder for %s, using fallback bytes", ExtMeshopt)
		return nil, false, nil
	}

	var ext meshoptExtension
	if err := json.Unmarshal(raw, &ext); err != nil {
		return nil, false, errors.Wrapf(document.ErrMalformedDocument, "bufferView %d: %s: %v", index, ExtMeshopt, err)
	}
	// the decoded stream fills the bufferView exactly
	if ext.Count < 0 || ext.ByteStride <= 0 || ext.Count != bv.ByteLength/ext.ByteStride || bv.ByteLength%ext.ByteStride != 0 {
		return nil, false, errors.Wrapf(document.ErrMalformedDocument, "bufferView %d: stream shape count=%d stride=%d does not fill %d bytes",
			index, ext.Count, ext.ByteStride, bv.ByteLength)
	}
	buf, err := b.doc.Buffer(ext.Buffer)
	if err != nil {
		return nil, false, errors.Wrapf(err, "bufferView %d: %s", index, ExtMeshopt)
	}
	if ext.ByteOffset < 0 || ext.ByteLength < 0 || ext.ByteOffset > len(buf.Data) || ext.ByteLength > len(buf.Data)-ext.ByteOffset {
		return nil, false, errors.Wrapf(document.ErrMalformedDocument, "bufferView %d: compressed range %d+%d outside buffer of %d bytes",
			index, ext.ByteOffset, ext.ByteLength, len(buf.Data))
	}
	end := ext.ByteOffset + ext.ByteLength

	mode := ext.Mode
	if mode == "" {
		mode = "ATTRIBUTES"
	}
	filter := ext.Filter
	if filter == "" {
		filter = "NONE"
	}

	dst := make([]byte, ext.Count*ext.ByteStride)
	if err := b.streams.DecodeStream(dst, ext.Count, ext.ByteStride, buf.Data[ext.ByteOffset:end], mode, filter); err != nil {
		return nil, false, errors.Wrapf(err, "bufferView %d: decode stream", index)
	}
	return dst, true, nil
}
