package wasmcodec

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mogaika/gltf_browser/compression"
	"github.com/mogaika/gltf_browser/diag"
	"github.com/mogaika/gltf_browser/document"
)

var ErrUnsupportedStream = errors.New("unsupported meshopt stream")

// meshoptimizer's C entry points, as exported by a wasm build of the
// library with malloc and free.
var streamDecoders = map[string]string{
	"ATTRIBUTES": "meshopt_decodeVertexBuffer",
	"TRIANGLES":  "meshopt_decodeIndexBuffer",
	"INDICES":    "meshopt_decodeIndexSequence",
}

var streamFilters = map[string]string{
	"OCTAHEDRAL":  "meshopt_decodeFilterOct",
	"QUATERNION":  "meshopt_decodeFilterQuat",
	"EXPONENTIAL": "meshopt_decodeFilterExp",
}

// StreamCodec decodes EXT_meshopt_compression streams with meshoptimizer
// compiled to WebAssembly.
type StreamCodec struct {
	mu sync.Mutex
	g  *guest
}

var _ compression.StreamDecoder = (*StreamCodec)(nil)

func NewStreamDecoder(ctx context.Context, wasm []byte, opts ...Option) (*StreamCodec, error) {
	cfg := config{name: "meshopt_decoder"}
	for _, opt := range opts {
		opt(&cfg)
	}
	g, err := newGuest(ctx, wasm, cfg,
		streamDecoders["ATTRIBUTES"], streamDecoders["TRIANGLES"], streamDecoders["INDICES"])
	if err != nil {
		return nil, err
	}
	return &StreamCodec{g: g}, nil
}

func (s *StreamCodec) Close(ctx context.Context) error {
	return s.g.close(ctx)
}

// checkStream applies the extension's shape rules for mode and filter.
func checkStream(count, stride int, mode, filter string) (decoder, filterFn string, err error) {
	decoder, ok := streamDecoders[mode]
	if !ok {
		return "", "", errors.Wrapf(ErrUnsupportedStream, "mode %q", mode)
	}
	if filter != "NONE" {
		if filterFn, ok = streamFilters[filter]; !ok {
			return "", "", errors.Wrapf(ErrUnsupportedStream, "filter %q", filter)
		}
		if mode != "ATTRIBUTES" {
			return "", "", errors.Wrapf(document.ErrMalformedDocument, "filter %s on %s stream", filter, mode)
		}
	}

	switch mode {
	case "ATTRIBUTES":
		if stride%4 != 0 || stride > 256 {
			return "", "", errors.Wrapf(document.ErrMalformedDocument, "attribute stride %d", stride)
		}
	case "TRIANGLES":
		if count%3 != 0 {
			return "", "", errors.Wrapf(document.ErrMalformedDocument, "triangle stream of %d indices", count)
		}
		fallthrough
	default:
		if stride != 2 && stride != 4 {
			return "", "", errors.Wrapf(document.ErrMalformedDocument, "index stride %d", stride)
		}
	}
	return decoder, filterFn, nil
}

func (s *StreamCodec) DecodeStream(dst []byte, count, stride int, src []byte, mode, filter string) error {
	decoder, filterFn, err := checkStream(count, stride, mode, filter)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := context.Background()
	g := s.g
	if err := g.ready(ctx); err != nil {
		return err
	}

	dstPtr, err := g.alloc(ctx, len(dst))
	if err != nil {
		return errors.Wrap(err, "allocate stream")
	}
	defer g.release(ctx, dstPtr)

	srcPtr, err := g.put(ctx, src)
	if err != nil {
		return errors.Wrap(err, "copy stream")
	}
	defer g.release(ctx, srcPtr)

	res, err := g.fn(decoder).Call(ctx, uint64(dstPtr), uint64(count), uint64(stride), uint64(srcPtr), uint64(len(src)))
	if err != nil {
		return errors.Wrapf(err, "%s call", decoder)
	}
	if len(res) != 1 {
		return errors.Wrapf(ErrABI, "%s returned %d values", decoder, len(res))
	}
	if rc := int32(res[0]); rc != 0 {
		return errors.Wrapf(ErrDecodeFailed, "%s: code %d", decoder, rc)
	}

	if filterFn != "" {
		fn := g.fn(filterFn)
		if fn == nil {
			return errors.Wrapf(ErrABI, "module exports no %s", filterFn)
		}
		if _, err := fn.Call(ctx, uint64(dstPtr), uint64(count), uint64(stride)); err != nil {
			return errors.Wrapf(err, "%s call", filterFn)
		}
	}

	out, ok := g.module.Memory().Read(dstPtr, uint32(len(dst)))
	if !ok {
		return errors.Wrapf(ErrABI, "stream of %d bytes at 0x%x out of range", len(dst), dstPtr)
	}
	copy(dst, out)

	diag.Logger().Debug("wasm stream decode",
		zap.String("mode", mode),
		zap.String("filter", filter),
		zap.Int("count", count),
		zap.Int("stride", stride))
	return nil
}
