// Package loader drives an asset from raw bytes to assembled primitives:
// container, document, buffers, decompression, views, assembly.
package loader

import (
	"context"
	"encoding/json"
	"net/url"
	"path"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mogaika/gltf_browser/accessor"
	"github.com/mogaika/gltf_browser/compression"
	"github.com/mogaika/gltf_browser/config"
	"github.com/mogaika/gltf_browser/diag"
	"github.com/mogaika/gltf_browser/document"
	"github.com/mogaika/gltf_browser/glb"
	"github.com/mogaika/gltf_browser/primitive"
)

// ResourceLoader fetches the bytes behind a reference: a path relative to
// the asset root, or a data: URI.
type ResourceLoader interface {
	LoadBytes(ctx context.Context, ref string) ([]byte, error)
}

type Loader struct {
	resources ResourceLoader
	codec     compression.Codec
	streams   compression.StreamDecoder
	cfg       *config.Config
	log       *zap.Logger
	forward   diag.Reporter
}

type Option func(*Loader)

func WithResources(r ResourceLoader) Option {
	return func(l *Loader) { l.resources = r }
}

func WithCodec(c compression.Codec) Option {
	return func(l *Loader) { l.codec = c }
}

func WithStreamDecoder(sd compression.StreamDecoder) Option {
	return func(l *Loader) { l.streams = sd }
}

func WithConfig(c *config.Config) Option {
	return func(l *Loader) { l.cfg = c }
}

func WithLogger(log *zap.Logger) Option {
	return func(l *Loader) { l.log = log }
}

// WithReporter also passes every diagnostic to r, e.g. a status broadcaster.
func WithReporter(r diag.Reporter) Option {
	return func(l *Loader) { l.forward = r }
}

func New(opts ...Option) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	if l.cfg == nil {
		l.cfg = config.Get()
	}
	if l.log == nil {
		l.log = diag.Logger()
	}
	return l
}

// Load fetches ref through the resource loader and decodes it. Buffer uris
// are resolved relative to ref.
func (l *Loader) Load(ctx context.Context, ref string) (*Asset, error) {
	if l.resources == nil {
		return nil, errors.Errorf("load %q: no resource loader", ref)
	}
	data, err := l.resources.LoadBytes(ctx, ref)
	if err != nil {
		return nil, errors.Wrapf(err, "load %q", ref)
	}
	return l.LoadData(ctx, data, ref)
}

// LoadData decodes an asset already in memory. Per-primitive failures are
// kept in the result; errors returned here abort the whole asset.
func (l *Loader) LoadData(ctx context.Context, data []byte, baseRef string) (*Asset, error) {
	collector := diag.NewCollector()
	if l.forward != nil {
		collector.Forward(l.forward)
	}
	log := l.log.With(zap.String("asset", baseRef))

	jsonText := data
	var bin []byte
	if glb.IsGLB(data) {
		c, err := glb.Parse(data)
		if err != nil {
			return nil, err
		}
		jsonText, bin = c.JSON, c.BIN()
		log.Debug("glb container", zap.Int("json", len(c.JSON)), zap.Int("bin", len(bin)))
	}

	doc, err := document.Parse(jsonText)
	if err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	bridge := compression.NewBridge(doc, l.codec,
		compression.WithStreamDecoder(l.streams),
		compression.WithReporter(collector))
	if err := l.checkRequired(doc, bridge); err != nil {
		return nil, err
	}

	if err := l.resolveBuffers(ctx, doc, bin, baseRef, collector); err != nil {
		return nil, err
	}

	engine := accessor.NewEngine(doc,
		accessor.WithMaterializer(bridge),
		accessor.WithReporter(collector),
		accessor.WithHalfFloatDeinterlace(l.cfg.HalfFloatDeinterlace))
	assembler := primitive.NewAssembler(doc, engine,
		primitive.WithReporter(collector),
		primitive.WithColorTolerance(l.cfg.ColorTolerance))

	asset := &Asset{Document: doc, Engine: engine}
	for mi := range doc.Meshes {
		mesh := MeshResult{Name: doc.Meshes[mi].Name}
		for pi := range doc.Meshes[mi].Primitives {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			mesh.Primitives = append(mesh.Primitives, l.primitive(ctx, log, bridge, assembler, mi, pi))
		}
		asset.Meshes = append(asset.Meshes, mesh)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	asset.Diagnostics = collector.Entries()
	log.Info("asset loaded",
		zap.Int("meshes", len(asset.Meshes)),
		zap.Int("failed", len(asset.Failed())),
		zap.Int("diagnostics", len(asset.Diagnostics)))
	return asset, nil
}

func (l *Loader) primitive(ctx context.Context, log *zap.Logger, bridge *compression.Bridge,
	assembler *primitive.Assembler, mi, pi int) PrimitiveResult {

	p := bridge.Document().Meshes[mi].Primitives[pi]
	if compression.IsCompressed(&p) {
		var err error
		if p, err = bridge.Decompress(ctx, mi, pi); err != nil {
			log.Warn("primitive decompression failed", zap.Int("mesh", mi), zap.Int("primitive", pi), zap.Error(err))
			return PrimitiveResult{Err: err}
		}
	}

	assembled, err := assembler.Assemble(p)
	if err != nil {
		log.Warn("primitive assembly failed", zap.Int("mesh", mi), zap.Int("primitive", pi), zap.Error(err))
		return PrimitiveResult{Source: p, Err: errors.Wrapf(err, "mesh %d primitive %d", mi, pi)}
	}
	return PrimitiveResult{Source: p, Primitive: assembled}
}

func (l *Loader) checkRequired(doc *document.Document, bridge *compression.Bridge) error {
	decodable := make(map[string]bool)
	for _, ext := range bridge.Supported() {
		decodable[ext] = true
	}
	for _, ext := range doc.RequiredExtensions() {
		if !decodable[ext] && !l.cfg.Supports(ext) {
			return errors.Wrapf(document.ErrMalformedDocument, "required extension %s is not supported", ext)
		}
	}
	return nil
}

type meshoptBuffer struct {
	Fallback bool `json:"fallback"`
}

func (l *Loader) resolveBuffers(ctx context.Context, doc *document.Document, bin []byte, baseRef string, r diag.Reporter) error {
	for i := range doc.Buffers {
		if err := ctx.Err(); err != nil {
			return err
		}
		b := &doc.Buffers[i]

		switch {
		case b.URI != "":
			if l.resources == nil {
				return errors.Errorf("buffer %d: no resource loader for uri %q", i, b.URI)
			}
			data, err := l.resources.LoadBytes(ctx, ResolveReference(baseRef, b.URI))
			if err != nil {
				return errors.Wrapf(err, "buffer %d", i)
			}
			b.Data = data
		case i == 0 && bin != nil:
			b.Data = bin
		case isFallback(b):
			// EXT_meshopt_compression placeholder, only read through the bridge
			b.Data = make([]byte, b.ByteLength)
			continue
		default:
			return errors.Wrapf(document.ErrMalformedDocument, "buffer %d has no uri and no binary chunk", i)
		}

		if len(b.Data) < b.ByteLength {
			diag.Reportf(r, diag.KindBufferShort, "buffer", i, "declared %d bytes, got %d", b.ByteLength, len(b.Data))
		}
	}
	return nil
}

func isFallback(b *document.Buffer) bool {
	raw, ok := b.Extensions[compression.ExtMeshopt]
	if !ok {
		return false
	}
	var ext meshoptBuffer
	return json.Unmarshal(raw, &ext) == nil && ext.Fallback
}

// ResolveReference resolves a buffer or image uri against the reference the
// document was loaded from. data: URIs and absolute URLs are returned as is.
func ResolveReference(base, ref string) string {
	if strings.HasPrefix(ref, "data:") || base == "" {
		return ref
	}
	if u, err := url.Parse(ref); err == nil && u.IsAbs() {
		return ref
	}
	if b, err := url.Parse(base); err == nil && b.IsAbs() {
		if r, err := url.Parse(ref); err == nil {
			return b.ResolveReference(r).String()
		}
	}
	return path.Join(path.Dir(base), ref)
}
