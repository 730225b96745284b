// Package primitive turns a glTF mesh primitive into typed attribute
// streams ready for a scene builder.
package primitive

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/gltf_browser/accessor"
	"github.com/mogaika/gltf_browser/diag"
	"github.com/mogaika/gltf_browser/document"
)

const DefaultColorTolerance = 1e-6

// Semantics lists recognized attributes in emission order.
var Semantics = []string{
	"POSITION", "NORMAL", "TANGENT",
	"TEXCOORD_0", "TEXCOORD_1",
	"COLOR_0",
	"JOINTS_0", "JOINTS_1",
	"WEIGHTS_0", "WEIGHTS_1",
}

var targetSemantics = []string{"POSITION", "NORMAL", "TANGENT"}

func known(semantic string) bool {
	for _, s := range Semantics {
		if s == semantic {
			return true
		}
	}
	return false
}

// Attribute.Values is the raw natural view; Normalized tells the consumer
// to dequantize.
type Attribute struct {
	Semantic      string
	Accessor      int
	ComponentType document.ComponentType
	Components    int
	Normalized    bool
	Values        *accessor.View
}

type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

type Assembled struct {
	Mode     document.PrimitiveMode
	Material *int

	Indices    *accessor.View
	Attributes []Attribute

	// UniformColor replaces COLOR_0 when every vertex has the same colour.
	UniformColor *mgl32.Vec4

	Bounds      Bounds
	Centroid    mgl32.Vec3
	LineIndices []uint32
	Targets     [][]Attribute
	VertexCount int
}

// Attribute returns the stream for semantic, nil when absent.
func (a *Assembled) Attribute(semantic string) *Attribute {
	for i := range a.Attributes {
		if a.Attributes[i].Semantic == semantic {
			return &a.Attributes[i]
		}
	}
	return nil
}

type Assembler struct {
	doc            *document.Document
	engine         *accessor.Engine
	reporter       diag.Reporter
	colorTolerance float64
}

type Option func(*Assembler)

func WithReporter(r diag.Reporter) Option {
	return func(a *Assembler) { a.reporter = r }
}

func WithColorTolerance(tolerance float64) Option {
	return func(a *Assembler) { a.colorTolerance = tolerance }
}

func NewAssembler(doc *document.Document, engine *accessor.Engine, opts ...Option) *Assembler {
	a := &Assembler{
		doc:            doc,
		engine:         engine,
		reporter:       diag.Discard,
		colorTolerance: DefaultColorTolerance,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Assembler) Assemble(p document.Primitive) (*Assembled, error) {
	if _, ok := p.Attributes["POSITION"]; !ok {
		return nil, errors.Wrap(document.ErrMalformedDocument, "primitive has no POSITION attribute")
	}

	out := &Assembled{Mode: p.Mode, Material: p.Material}

	if p.Indices != nil {
		v, err := a.engine.Linear(*p.Indices)
		if err != nil {
			return nil, errors.Wrap(err, "indices")
		}
		out.Indices = v
	}

	var unknown []string
	for semantic := range p.Attributes {
		if !known(semantic) {
			unknown = append(unknown, semantic)
		}
	}
	sort.Strings(unknown)
	for _, semantic := range unknown {
		diag.Reportf(a.reporter, diag.KindUnknownAttribute, "accessor", p.Attributes[semantic],
			"attribute %s skipped", semantic)
	}

	for _, semantic := range Semantics {
		index, ok := p.Attributes[semantic]
		if !ok {
			continue
		}
		attr, err := a.attribute(semantic, index)
		if err != nil {
			return nil, err
		}

		switch semantic {
		case "POSITION":
			a.repairPosition(&attr)
			out.VertexCount = attr.Values.Count
			out.Bounds = a.bounds(&attr)
			out.Centroid = centroid(attr.Values, out.Indices)
		case "COLOR_0":
			if c, uniform := a.uniformColor(attr.Values); uniform {
				out.UniformColor = &c
				continue
			}
		}
		out.Attributes = append(out.Attributes, attr)
	}

	if p.Mode == document.LineLoop || p.Mode == document.LineStrip {
		out.LineIndices = lineIndices(p.Mode, out.Indices, out.VertexCount)
	}

	for t, target := range p.Targets {
		var attrs []Attribute
		for _, semantic := range targetSemantics {
			index, ok := target[semantic]
			if !ok {
				continue
			}
			attr, err := a.attribute(semantic, index)
			if err != nil {
				return nil, errors.Wrapf(err, "target %d", t)
			}
			attrs = append(attrs, attr)
		}
		out.Targets = append(out.Targets, attrs)
	}

	return out, nil
}

func (a *Assembler) attribute(semantic string, index int) (Attribute, error) {
	acc, err := a.doc.Accessor(index)
	if err != nil {
		return Attribute{}, errors.Wrapf(err, "attribute %s", semantic)
	}
	v, err := a.engine.Natural(index)
	if err != nil {
		return Attribute{}, errors.Wrapf(err, "attribute %s", semantic)
	}
	return Attribute{
		Semantic:      semantic,
		Accessor:      index,
		ComponentType: acc.ComponentType,
		Components:    v.Components,
		Normalized:    acc.Normalized,
		Values:        v,
	}, nil
}

// repairPosition handles positions stored as 4-wide records while the
// accessor count describes 3-wide vertices.
func (a *Assembler) repairPosition(attr *Attribute) {
	count := a.doc.Accessors[attr.Accessor].Count
	v := attr.Values
	if count == 0 || (v.Components == 3 && v.Len()/3 == count) {
		return
	}
	if v.Len() < count*4 {
		return
	}
	attr.Values = v.Repack(4, 3, count)
	attr.Components = 3
	diag.Reportf(a.reporter, diag.KindRepaired, "accessor", attr.Accessor,
		"POSITION read as %d 4-wide records, kept xyz", count)
}

func (a *Assembler) bounds(attr *Attribute) Bounds {
	acc := &a.doc.Accessors[attr.Accessor]
	if len(acc.Min) >= 3 && len(acc.Max) >= 3 {
		return Bounds{
			Min: mgl32.Vec3{float32(acc.Min[0]), float32(acc.Min[1]), float32(acc.Min[2])},
			Max: mgl32.Vec3{float32(acc.Max[0]), float32(acc.Max[1]), float32(acc.Max[2])},
		}
	}

	v := attr.Values
	var b Bounds
	if v.Count == 0 || v.Components < 3 {
		return b
	}
	for c := 0; c < 3; c++ {
		b.Min[c] = float32(math.Inf(1))
		b.Max[c] = float32(math.Inf(-1))
	}
	for i := 0; i < v.Count; i++ {
		for c := 0; c < 3; c++ {
			x := float32(v.Float(i*v.Components + c))
			if x < b.Min[c] {
				b.Min[c] = x
			}
			if x > b.Max[c] {
				b.Max[c] = x
			}
		}
	}
	diag.Reportf(a.reporter, diag.KindBoundsComputed, "accessor", attr.Accessor,
		"POSITION has no min/max, computed from %d vertices", v.Count)
	return b
}

func centroid(pos *accessor.View, indices *accessor.View) mgl32.Vec3 {
	var sum mgl32.Vec3
	if pos.Components < 3 {
		return sum
	}
	n := 0
	add := func(vertex int) {
		if vertex < 0 || vertex >= pos.Count {
			return
		}
		for c := 0; c < 3; c++ {
			sum[c] += float32(pos.Float(vertex*pos.Components + c))
		}
		n++
	}
	if indices != nil {
		for i := 0; i < indices.Len(); i++ {
			add(int(indices.Uint(i)))
		}
	} else {
		for i := 0; i < pos.Count; i++ {
			add(i)
		}
	}
	if n == 0 {
		return sum
	}
	return sum.Mul(1 / float32(n))
}

// uniformColor reports whether every COLOR_0 element equals the first one.
// Floats compare within the tolerance, integers exactly.
func (a *Assembler) uniformColor(v *accessor.View) (mgl32.Vec4, bool) {
	if v.Count == 0 || (v.Components != 3 && v.Components != 4) {
		return mgl32.Vec4{}, false
	}
	comps := v.Components
	for i := 1; i < v.Count; i++ {
		for c := 0; c < comps; c++ {
			first, x := v.Float(c), v.Float(i*comps+c)
			if v.Elem == accessor.Float32 {
				if math.Abs(x-first) > a.colorTolerance {
					return mgl32.Vec4{}, false
				}
			} else if x != first {
				return mgl32.Vec4{}, false
			}
		}
	}

	color := mgl32.Vec4{0, 0, 0, 1}
	for c := 0; c < comps; c++ {
		x := v.Float(c)
		if v.Elem != accessor.Float32 {
			x = accessor.Dequantize(x, v.ComponentType)
		}
		color[c] = float32(x)
	}
	return color, true
}

// lineIndices expands LINE_LOOP and LINE_STRIP into a LINES index list.
func lineIndices(mode document.PrimitiveMode, indices *accessor.View, vertexCount int) []uint32 {
	var src []uint32
	if indices != nil {
		src = indices.Uint32s()
	} else {
		src = make([]uint32, vertexCount)
		for i := range src {
			src[i] = uint32(i)
		}
	}
	if len(src) < 2 {
		return nil
	}

	out := make([]uint32, 0, len(src)*2)
	for i := 0; i+1 < len(src); i++ {
		out = append(out, src[i], src[i+1])
	}
	if mode == document.LineLoop {
		out = append(out, src[len(src)-1], src[0])
	}
	return out
}
