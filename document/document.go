// Package document holds the glTF 2.0 JSON model: flat, index-addressed
// entity arrays that are built once and only grow afterwards.
package document

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

var ErrMalformedDocument = errors.New("malformed document")

// Document mirrors the top-level glTF object. Textures and images are kept
// raw, their pipeline lives outside this package.
type Document struct {
	Asset              Asset                      `json:"asset"`
	ExtensionsUsed     []string                   `json:"extensionsUsed,omitempty"`
	ExtensionsRequired []string                   `json:"extensionsRequired,omitempty"`
	Scene              *int                       `json:"scene,omitempty"`
	Scenes             []Scene                    `json:"scenes,omitempty"`
	Nodes              []Node                     `json:"nodes,omitempty"`
	Meshes             []Mesh                     `json:"meshes,omitempty"`
	Materials          []Material                 `json:"materials,omitempty"`
	Accessors          []Accessor                 `json:"accessors,omitempty"`
	BufferViews        []BufferView               `json:"bufferViews,omitempty"`
	Buffers            []Buffer                   `json:"buffers,omitempty"`
	Samplers           []Sampler                  `json:"samplers,omitempty"`
	Skins              []Skin                     `json:"skins,omitempty"`
	Animations         []Animation                `json:"animations,omitempty"`
	Textures           []json.RawMessage          `json:"textures,omitempty"`
	Images             []json.RawMessage          `json:"images,omitempty"`
	Cameras            []json.RawMessage          `json:"cameras,omitempty"`
	Extensions         map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras             json.RawMessage            `json:"extras,omitempty"`
	Unknown            map[string]json.RawMessage `json:"-"`
}

func (d *Document) UnmarshalJSON(data []byte) error {
	type plain Document
	var p plain
	unknown, err := decodeEntity(data, &p)
	if err != nil {
		return err
	}
	*d = Document(p)
	d.Unknown = unknown
	return nil
}

func (d Document) MarshalJSON() ([]byte, error) {
	type plain Document
	return encodeEntity(plain(d), d.Unknown)
}

// Parse decodes the JSON text of an asset. Only asset.version is checked
// here, call Validate for reference checks.
func Parse(jsonText []byte) (*Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(jsonText, &raw); err != nil {
		return nil, errors.Wrapf(ErrMalformedDocument, "json: %v", err)
	}
	if _, ok := raw["asset"]; !ok {
		return nil, errors.Wrap(ErrMalformedDocument, "missing asset")
	}

	doc := &Document{}
	if err := json.Unmarshal(jsonText, doc); err != nil {
		return nil, errors.Wrapf(ErrMalformedDocument, "json: %v", err)
	}
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return nil, errors.Wrapf(ErrMalformedDocument, "unsupported asset version %q", doc.Asset.Version)
	}
	return doc, nil
}

func (d *Document) Accessor(i int) (*Accessor, error) {
	if i < 0 || i >= len(d.Accessors) {
		return nil, errors.Wrapf(ErrMalformedDocument, "accessor %d out of range [0,%d)", i, len(d.Accessors))
	}
	return &d.Accessors[i], nil
}

func (d *Document) BufferView(i int) (*BufferView, error) {
	if i < 0 || i >= len(d.BufferViews) {
		return nil, errors.Wrapf(ErrMalformedDocument, "bufferView %d out of range [0,%d)", i, len(d.BufferViews))
	}
	return &d.BufferViews[i], nil
}

func (d *Document) Buffer(i int) (*Buffer, error) {
	if i < 0 || i >= len(d.Buffers) {
		return nil, errors.Wrapf(ErrMalformedDocument, "buffer %d out of range [0,%d)", i, len(d.Buffers))
	}
	return &d.Buffers[i], nil
}

func (d *Document) Mesh(i int) (*Mesh, error) {
	if i < 0 || i >= len(d.Meshes) {
		return nil, errors.Wrapf(ErrMalformedDocument, "mesh %d out of range [0,%d)", i, len(d.Meshes))
	}
	return &d.Meshes[i], nil
}

func (d *Document) Primitive(mesh, prim int) (*Primitive, error) {
	m, err := d.Mesh(mesh)
	if err != nil {
		return nil, err
	}
	if prim < 0 || prim >= len(m.Primitives) {
		return nil, errors.Wrapf(ErrMalformedDocument, "mesh %d primitive %d out of range [0,%d)", mesh, prim, len(m.Primitives))
	}
	return &m.Primitives[prim], nil
}

// AppendBuffer and friends return the index of the new entry. Existing
// entries are never touched.
func (d *Document) AppendBuffer(b Buffer) int {
	d.Buffers = append(d.Buffers, b)
	return len(d.Buffers) - 1
}

func (d *Document) AppendBufferView(v BufferView) int {
	d.BufferViews = append(d.BufferViews, v)
	return len(d.BufferViews) - 1
}

func (d *Document) AppendAccessor(a Accessor) int {
	d.Accessors = append(d.Accessors, a)
	return len(d.Accessors) - 1
}

func (d *Document) RequiredExtensions() []string {
	return d.ExtensionsRequired
}

// UsesExtension reports whether name is listed in extensionsUsed or
// extensionsRequired.
func (d *Document) UsesExtension(name string) bool {
	for _, e := range d.ExtensionsUsed {
		if e == name {
			return true
		}
	}
	for _, e := range d.ExtensionsRequired {
		if e == name {
			return true
		}
	}
	return false
}
