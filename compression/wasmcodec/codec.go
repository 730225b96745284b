// Package wasmcodec runs decoders compiled to WebAssembly: a mesh decoder
// exposed as a compression.Codec and meshoptimizer exposed as a
// compression.StreamDecoder.
//
// A mesh decoder module must export memory, malloc(size) ptr, free(ptr) and
// decode(src, srcLen, req, reqLen) result, all i32. decode returns 0 on
// failure. The host releases the result block with free once it is parsed.
package wasmcodec

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mogaika/gltf_browser/compression"
	"github.com/mogaika/gltf_browser/diag"
)

var (
	ErrABI          = errors.New("decoder module abi violation")
	ErrDecodeFailed = errors.New("decoder module failed")
)

// Codec serializes calls: the guest has a single linear memory. A guest
// closed by a canceled call is instantiated again on the next Decode.
type Codec struct {
	mu sync.Mutex
	g  *guest
}

var _ compression.Codec = (*Codec)(nil)

func New(ctx context.Context, wasm []byte, opts ...Option) (*Codec, error) {
	cfg := config{name: "mesh_decoder"}
	for _, opt := range opts {
		opt(&cfg)
	}
	g, err := newGuest(ctx, wasm, cfg, "decode")
	if err != nil {
		return nil, err
	}
	return &Codec{g: g}, nil
}

func (c *Codec) Close(ctx context.Context) error {
	return c.g.close(ctx)
}

func (c *Codec) Decode(ctx context.Context, data []byte, attributes map[string]compression.AttributeRequest) (*compression.DecodedMesh, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g := c.g
	if err := g.ready(ctx); err != nil {
		return nil, err
	}

	req := EncodeRequest(attributes)

	srcPtr, err := g.put(ctx, data)
	if err != nil {
		return nil, errors.Wrap(err, "copy payload")
	}
	defer g.release(ctx, srcPtr)

	reqPtr, err := g.put(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "copy request")
	}
	defer g.release(ctx, reqPtr)

	res, err := g.fn("decode").Call(ctx, uint64(srcPtr), uint64(len(data)), uint64(reqPtr), uint64(len(req)))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(err, "decode call")
	}
	if len(res) != 1 {
		return nil, errors.Wrapf(ErrABI, "decode returned %d values", len(res))
	}
	resultPtr := uint32(res[0])
	if resultPtr == 0 {
		return nil, errors.Wrapf(ErrDecodeFailed, "payload of %d bytes", len(data))
	}
	defer g.release(ctx, resultPtr)

	mem := g.module.Memory()
	snapshot, ok := mem.Read(0, mem.Size())
	if !ok {
		return nil, errors.Wrap(ErrABI, "guest memory unreadable")
	}
	mesh, err := ParseResult(snapshot, resultPtr)
	if err != nil {
		return nil, err
	}

	diag.Logger().Debug("wasm decode",
		zap.Int("payload", len(data)),
		zap.Int("indices", len(mesh.Indices)),
		zap.Int("attributes", len(mesh.Attributes)))
	return mesh, nil
}
