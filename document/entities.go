package document

import (
	"encoding/json"

	"github.com/pkg/errors"
)

type Asset struct {
	Version    string                     `json:"version"`
	Generator  string                     `json:"generator,omitempty"`
	Copyright  string                     `json:"copyright,omitempty"`
	MinVersion string                     `json:"minVersion,omitempty"`
	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
	Unknown    map[string]json.RawMessage `json:"-"`
}

func (a *Asset) UnmarshalJSON(data []byte) error {
	type plain Asset
	var p plain
	unknown, err := decodeEntity(data, &p)
	if err != nil {
		return errors.Wrap(err, "asset")
	}
	*a = Asset(p)
	a.Unknown = unknown
	return nil
}

func (a Asset) MarshalJSON() ([]byte, error) {
	type plain Asset
	return encodeEntity(plain(a), a.Unknown)
}

// Buffer.Data is filled by the loader once the uri (or GLB BIN chunk) is resolved.
type Buffer struct {
	URI        string                     `json:"uri,omitempty"`
	ByteLength int                        `json:"byteLength"`
	Name       string                     `json:"name,omitempty"`
	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
	Unknown    map[string]json.RawMessage `json:"-"`

	Data []byte `json:"-"`
}

func (b *Buffer) UnmarshalJSON(data []byte) error {
	type plain Buffer
	var p plain
	unknown, err := decodeEntity(data, &p)
	if err != nil {
		return errors.Wrap(err, "buffer")
	}
	*b = Buffer(p)
	b.Unknown = unknown
	return nil
}

func (b Buffer) MarshalJSON() ([]byte, error) {
	type plain Buffer
	return encodeEntity(plain(b), b.Unknown)
}

type BufferView struct {
	Buffer     int                        `json:"buffer"`
	ByteOffset int                        `json:"byteOffset,omitempty"`
	ByteLength int                        `json:"byteLength"`
	ByteStride int                        `json:"byteStride,omitempty"`
	Target     int                        `json:"target,omitempty"`
	Name       string                     `json:"name,omitempty"`
	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
	Unknown    map[string]json.RawMessage `json:"-"`
}

func (v *BufferView) UnmarshalJSON(data []byte) error {
	type plain BufferView
	var p plain
	unknown, err := decodeEntity(data, &p)
	if err != nil {
		return errors.Wrap(err, "bufferView")
	}
	*v = BufferView(p)
	v.Unknown = unknown
	return nil
}

func (v BufferView) MarshalJSON() ([]byte, error) {
	type plain BufferView
	return encodeEntity(plain(v), v.Unknown)
}

type SparseIndices struct {
	BufferView    int                        `json:"bufferView"`
	ByteOffset    int                        `json:"byteOffset,omitempty"`
	ComponentType ComponentType              `json:"componentType"`
	Extensions    map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras        json.RawMessage            `json:"extras,omitempty"`
}

type SparseValues struct {
	BufferView int                        `json:"bufferView"`
	ByteOffset int                        `json:"byteOffset,omitempty"`
	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
}

type Sparse struct {
	Count      int                        `json:"count"`
	Indices    SparseIndices              `json:"indices"`
	Values     SparseValues               `json:"values"`
	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
	Unknown    map[string]json.RawMessage `json:"-"`
}

func (s *Sparse) UnmarshalJSON(data []byte) error {
	type plain Sparse
	var p plain
	unknown, err := decodeEntity(data, &p)
	if err != nil {
		return errors.Wrap(err, "sparse")
	}
	*s = Sparse(p)
	s.Unknown = unknown
	return nil
}

func (s Sparse) MarshalJSON() ([]byte, error) {
	type plain Sparse
	return encodeEntity(plain(s), s.Unknown)
}

type Accessor struct {
	BufferView    *int                       `json:"bufferView,omitempty"`
	ByteOffset    int                        `json:"byteOffset,omitempty"`
	ComponentType ComponentType              `json:"componentType"`
	Normalized    bool                       `json:"normalized,omitempty"`
	Count         int                        `json:"count"`
	Type          AccessorType               `json:"type"`
	Max           []float64                  `json:"max,omitempty"`
	Min           []float64                  `json:"min,omitempty"`
	Sparse        *Sparse                    `json:"sparse,omitempty"`
	Name          string                     `json:"name,omitempty"`
	Extensions    map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras        json.RawMessage            `json:"extras,omitempty"`
	Unknown       map[string]json.RawMessage `json:"-"`
}

func (a *Accessor) UnmarshalJSON(data []byte) error {
	type plain Accessor
	var p plain
	unknown, err := decodeEntity(data, &p)
	if err != nil {
		return errors.Wrap(err, "accessor")
	}
	*a = Accessor(p)
	a.Unknown = unknown
	return nil
}

func (a Accessor) MarshalJSON() ([]byte, error) {
	type plain Accessor
	return encodeEntity(plain(a), a.Unknown)
}

// ElementSize is the packed size of one element in bytes.
func (a *Accessor) ElementSize() int {
	return a.ComponentType.Size() * a.Type.Components()
}

type Primitive struct {
	Attributes map[string]int             `json:"attributes"`
	Indices    *int                       `json:"indices,omitempty"`
	Material   *int                       `json:"material,omitempty"`
	Mode       PrimitiveMode              `json:"mode"`
	Targets    []map[string]int           `json:"targets,omitempty"`
	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
	Unknown    map[string]json.RawMessage `json:"-"`
}

func (p *Primitive) UnmarshalJSON(data []byte) error {
	type plain Primitive
	pp := plain{Mode: Triangles}
	unknown, err := decodeEntity(data, &pp)
	if err != nil {
		return errors.Wrap(err, "primitive")
	}
	*p = Primitive(pp)
	p.Unknown = unknown
	return nil
}

func (p Primitive) MarshalJSON() ([]byte, error) {
	type plain Primitive
	return encodeEntity(plain(p), p.Unknown)
}

// Clone returns a copy that shares no maps with p, so it can be rewired.
func (p Primitive) Clone() Primitive {
	out := p
	out.Attributes = make(map[string]int, len(p.Attributes))
	for k, v := range p.Attributes {
		out.Attributes[k] = v
	}
	if p.Indices != nil {
		i := *p.Indices
		out.Indices = &i
	}
	if p.Extensions != nil {
		out.Extensions = make(map[string]json.RawMessage, len(p.Extensions))
		for k, v := range p.Extensions {
			out.Extensions[k] = v
		}
	}
	return out
}

type Mesh struct {
	Name       string                     `json:"name,omitempty"`
	Primitives []Primitive                `json:"primitives"`
	Weights    []float64                  `json:"weights,omitempty"`
	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
	Unknown    map[string]json.RawMessage `json:"-"`
}

func (m *Mesh) UnmarshalJSON(data []byte) error {
	type plain Mesh
	var p plain
	unknown, err := decodeEntity(data, &p)
	if err != nil {
		return errors.Wrap(err, "mesh")
	}
	*m = Mesh(p)
	m.Unknown = unknown
	return nil
}

func (m Mesh) MarshalJSON() ([]byte, error) {
	type plain Mesh
	return encodeEntity(plain(m), m.Unknown)
}

type Node struct {
	Name        string                     `json:"name,omitempty"`
	Children    []int                      `json:"children,omitempty"`
	Mesh        *int                       `json:"mesh,omitempty"`
	Skin        *int                       `json:"skin,omitempty"`
	Camera      *int                       `json:"camera,omitempty"`
	Matrix      *[16]float64               `json:"matrix,omitempty"`
	Translation [3]float64                 `json:"translation"`
	Rotation    [4]float64                 `json:"rotation"`
	Scale       [3]float64                 `json:"scale"`
	Weights     []float64                  `json:"weights,omitempty"`
	Extensions  map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras      json.RawMessage            `json:"extras,omitempty"`
	Unknown     map[string]json.RawMessage `json:"-"`
}

func (n *Node) UnmarshalJSON(data []byte) error {
	type plain Node
	p := plain{
		Rotation: [4]float64{0, 0, 0, 1},
		Scale:    [3]float64{1, 1, 1},
	}
	unknown, err := decodeEntity(data, &p)
	if err != nil {
		return errors.Wrap(err, "node")
	}
	*n = Node(p)
	n.Unknown = unknown
	return nil
}

func (n Node) MarshalJSON() ([]byte, error) {
	type plain Node
	return encodeEntity(plain(n), n.Unknown)
}

type Scene struct {
	Name       string                     `json:"name,omitempty"`
	Nodes      []int                      `json:"nodes,omitempty"`
	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
	Unknown    map[string]json.RawMessage `json:"-"`
}

func (s *Scene) UnmarshalJSON(data []byte) error {
	type plain Scene
	var p plain
	unknown, err := decodeEntity(data, &p)
	if err != nil {
		return errors.Wrap(err, "scene")
	}
	*s = Scene(p)
	s.Unknown = unknown
	return nil
}

func (s Scene) MarshalJSON() ([]byte, error) {
	type plain Scene
	return encodeEntity(plain(s), s.Unknown)
}

const (
	AlphaOpaque = "OPAQUE"
	AlphaMask   = "MASK"
	AlphaBlend  = "BLEND"
)

// Material keeps only what the assembler reports; everything else
// (pbrMetallicRoughness, textures) stays in Unknown.
type Material struct {
	Name        string                     `json:"name,omitempty"`
	AlphaMode   string                     `json:"alphaMode,omitempty"`
	AlphaCutoff *float64                   `json:"alphaCutoff,omitempty"`
	DoubleSided bool                       `json:"doubleSided,omitempty"`
	Extensions  map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras      json.RawMessage            `json:"extras,omitempty"`
	Unknown     map[string]json.RawMessage `json:"-"`
}

func (m *Material) UnmarshalJSON(data []byte) error {
	type plain Material
	p := plain{AlphaMode: AlphaOpaque}
	unknown, err := decodeEntity(data, &p)
	if err != nil {
		return errors.Wrap(err, "material")
	}
	*m = Material(p)
	m.Unknown = unknown
	return nil
}

func (m Material) MarshalJSON() ([]byte, error) {
	type plain Material
	return encodeEntity(plain(m), m.Unknown)
}

type Sampler struct {
	Name       string                     `json:"name,omitempty"`
	MagFilter  int                        `json:"magFilter"`
	MinFilter  int                        `json:"minFilter"`
	WrapS      int                        `json:"wrapS"`
	WrapT      int                        `json:"wrapT"`
	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
	Unknown    map[string]json.RawMessage `json:"-"`
}

// DefaultSampler is used for textures that reference no sampler.
func DefaultSampler() Sampler {
	return Sampler{
		MagFilter: FilterLinear,
		MinFilter: FilterLinearMipmapLinear,
		WrapS:     WrapRepeat,
		WrapT:     WrapRepeat,
	}
}

func (s *Sampler) UnmarshalJSON(data []byte) error {
	type plain Sampler
	p := plain(DefaultSampler())
	unknown, err := decodeEntity(data, &p)
	if err != nil {
		return errors.Wrap(err, "sampler")
	}
	*s = Sampler(p)
	s.Unknown = unknown
	return nil
}

func (s Sampler) MarshalJSON() ([]byte, error) {
	type plain Sampler
	return encodeEntity(plain(s), s.Unknown)
}

type Skin struct {
	Name                string                     `json:"name,omitempty"`
	InverseBindMatrices *int                       `json:"inverseBindMatrices,omitempty"`
	Skeleton            *int                       `json:"skeleton,omitempty"`
	Joints              []int                      `json:"joints"`
	Extensions          map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras              json.RawMessage            `json:"extras,omitempty"`
	Unknown             map[string]json.RawMessage `json:"-"`
}

func (s *Skin) UnmarshalJSON(data []byte) error {
	type plain Skin
	var p plain
	unknown, err := decodeEntity(data, &p)
	if err != nil {
		return errors.Wrap(err, "skin")
	}
	*s = Skin(p)
	s.Unknown = unknown
	return nil
}

func (s Skin) MarshalJSON() ([]byte, error) {
	type plain Skin
	return encodeEntity(plain(s), s.Unknown)
}

type AnimationTarget struct {
	Node       *int                       `json:"node,omitempty"`
	Path       string                     `json:"path"`
	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
}

type AnimationChannel struct {
	Sampler    int                        `json:"sampler"`
	Target     AnimationTarget            `json:"target"`
	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
}

type AnimationSampler struct {
	Input         int                        `json:"input"`
	Output        int                        `json:"output"`
	Interpolation string                     `json:"interpolation,omitempty"`
	Extensions    map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras        json.RawMessage            `json:"extras,omitempty"`
}

type Animation struct {
	Name       string                     `json:"name,omitempty"`
	Channels   []AnimationChannel         `json:"channels"`
	Samplers   []AnimationSampler         `json:"samplers"`
	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
	Unknown    map[string]json.RawMessage `json:"-"`
}

func (a *Animation) UnmarshalJSON(data []byte) error {
	type plain Animation
	var p plain
	unknown, err := decodeEntity(data, &p)
	if err != nil {
		return errors.Wrap(err, "animation")
	}
	for i := range p.Samplers {
		if p.Samplers[i].Interpolation == "" {
			p.Samplers[i].Interpolation = "LINEAR"
		}
	}
	*a = Animation(p)
	a.Unknown = unknown
	return nil
}

func (a Animation) MarshalJSON() ([]byte, error) {
	type plain Animation
	return encodeEntity(plain(a), a.Unknown)
}
