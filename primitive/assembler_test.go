package primitive

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/gltf_browser/accessor"
	"github.com/mogaika/gltf_browser/diag"
	"github.com/mogaika/gltf_browser/document"
)

type fixture struct {
	doc *document.Document
}

func newFixture() *fixture {
	return &fixture{doc: &document.Document{
		Asset:   document.Asset{Version: "2.0"},
		Buffers: []document.Buffer{{}},
	}}
}

// add stores data in buffer 0 behind its own bufferView and returns the accessor index.
func (f *fixture) add(ct document.ComponentType, typ document.AccessorType, count int, data []byte) int {
	buf := &f.doc.Buffers[0]
	for len(buf.Data)%4 != 0 {
		buf.Data = append(buf.Data, 0)
	}
	bv := f.doc.AppendBufferView(document.BufferView{Buffer: 0, ByteOffset: len(buf.Data), ByteLength: len(data)})
	buf.Data = append(buf.Data, data...)
	buf.ByteLength = len(buf.Data)
	return f.doc.AppendAccessor(document.Accessor{BufferView: &bv, ComponentType: ct, Count: count, Type: typ})
}

func (f *fixture) floats(typ document.AccessorType, vals ...float32) int {
	data := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	return f.add(document.Float, typ, len(vals)/typ.Components(), data)
}

func (f *fixture) assembler(opts ...Option) (*Assembler, *diag.Collector) {
	c := diag.NewCollector()
	e := accessor.NewEngine(f.doc, accessor.WithReporter(c))
	return NewAssembler(f.doc, e, append([]Option{WithReporter(c)}, opts...)...), c
}

func intp(i int) *int { return &i }

func TestAssembleTriangle(t *testing.T) {
	f := newFixture()
	pos := f.floats(document.Vec3, 0, 0, 0, 3, 0, 0, 0, 3, 0)
	f.doc.Accessors[pos].Min = []float64{0, 0, 0}
	f.doc.Accessors[pos].Max = []float64{3, 3, 0}
	idx := f.add(document.UnsignedByte, document.Scalar, 3, []byte{0, 1, 2})
	a, c := f.assembler()

	out, err := a.Assemble(document.Primitive{
		Attributes: map[string]int{"POSITION": pos},
		Indices:    intp(idx),
		Material:   intp(0),
		Mode:       document.Triangles,
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.VertexCount != 3 || len(out.Attributes) != 1 || out.Indices.Len() != 3 {
		t.Errorf("assembled %+v", out)
	}
	if out.Bounds.Max != (mgl32.Vec3{3, 3, 0}) || out.Bounds.Min != (mgl32.Vec3{}) {
		t.Errorf("bounds %+v", out.Bounds)
	}
	if out.Centroid != (mgl32.Vec3{1, 1, 0}) {
		t.Errorf("centroid %v", out.Centroid)
	}
	if out.Material == nil || *out.Material != 0 {
		t.Errorf("material lost")
	}
	if len(c.Entries()) != 0 {
		t.Errorf("unexpected diagnostics %v", c.Entries())
	}
}

func TestAssembleNoPosition(t *testing.T) {
	f := newFixture()
	n := f.floats(document.Vec3, 0, 0, 1)
	a, _ := f.assembler()

	_, err := a.Assemble(document.Primitive{Attributes: map[string]int{"NORMAL": n}})
	if !errors.Is(err, document.ErrMalformedDocument) {
		t.Errorf("err=%v; expected ErrMalformedDocument", err)
	}
}

func TestUniformColor(t *testing.T) {
	var tests = []struct {
		name    string
		color   func(f *fixture) int
		uniform bool
		want    mgl32.Vec4
	}{
		{"float rgba", func(f *fixture) int {
			return f.floats(document.Vec4, 1, 0, 0, 1, 1, 0, 0, 1, 1, 0, 0, 1)
		}, true, mgl32.Vec4{1, 0, 0, 1}},
		{"float within tolerance", func(f *fixture) int {
			return f.floats(document.Vec4, 0.5, 0.5, 0.5, 1, 0.5000001, 0.5, 0.5, 1, 0.5, 0.5, 0.5, 1)
		}, true, mgl32.Vec4{0.5, 0.5, 0.5, 1}},
		{"float varying", func(f *fixture) int {
			return f.floats(document.Vec4, 1, 0, 0, 1, 0, 1, 0, 1, 1, 0, 0, 1)
		}, false, mgl32.Vec4{}},
		{"ubyte rgb", func(f *fixture) int {
			return f.add(document.UnsignedByte, document.Vec3, 3, []byte{255, 0, 255, 255, 0, 255, 255, 0, 255})
		}, true, mgl32.Vec4{1, 0, 1, 1}},
		{"ubyte exact", func(f *fixture) int {
			return f.add(document.UnsignedByte, document.Vec3, 3, []byte{255, 0, 255, 254, 0, 255, 255, 0, 255})
		}, false, mgl32.Vec4{}},
	}

	for _, test := range tests {
		f := newFixture()
		pos := f.floats(document.Vec3, 0, 0, 0, 1, 0, 0, 0, 1, 0)
		f.doc.Accessors[pos].Min = []float64{0, 0, 0}
		f.doc.Accessors[pos].Max = []float64{1, 1, 0}
		col := test.color(f)
		a, _ := f.assembler()

		out, err := a.Assemble(document.Primitive{Attributes: map[string]int{"POSITION": pos, "COLOR_0": col}})
		if err != nil {
			t.Errorf("%s: %v", test.name, err)
			continue
		}
		hasAttr := out.Attribute("COLOR_0") != nil
		if test.uniform {
			if out.UniformColor == nil || hasAttr {
				t.Errorf("%s: expected uniform colour only, got %v attr=%v", test.name, out.UniformColor, hasAttr)
			} else if !out.UniformColor.ApproxEqual(test.want) {
				t.Errorf("%s: colour %v; expected %v", test.name, *out.UniformColor, test.want)
			}
		} else if out.UniformColor != nil || !hasAttr {
			t.Errorf("%s: expected COLOR_0 attribute only", test.name)
		}
	}
}

func TestRepairPosition(t *testing.T) {
	f := newFixture()
	pos := f.floats(document.Vec4, 1, 2, 3, 9, 4, 5, 6, 9)
	a, c := f.assembler()

	out, err := a.Assemble(document.Primitive{Attributes: map[string]int{"POSITION": pos}, Mode: document.Points})
	if err != nil {
		t.Fatal(err)
	}
	p := out.Attribute("POSITION")
	if p.Components != 3 || out.VertexCount != 2 {
		t.Fatalf("repaired %+v, vertices %d", p, out.VertexCount)
	}
	if got := p.Values.F32; len(got) != 6 || got[3] != 4 || got[5] != 6 {
		t.Errorf("values %v", got)
	}
	if !c.Has(diag.KindRepaired, "accessor", pos) {
		t.Errorf("no repaired diagnostic")
	}
	if out.Bounds.Min != (mgl32.Vec3{1, 2, 3}) || out.Bounds.Max != (mgl32.Vec3{4, 5, 6}) {
		t.Errorf("computed bounds %+v", out.Bounds)
	}
	if !c.Has(diag.KindBoundsComputed, "accessor", pos) {
		t.Errorf("no bounds-computed diagnostic")
	}
}

func TestAttributeOrderAndUnknown(t *testing.T) {
	f := newFixture()
	pos := f.floats(document.Vec3, 0, 0, 0)
	uv := f.floats(document.Vec2, 0, 0)
	nrm := f.floats(document.Vec3, 0, 0, 1)
	extra := f.floats(document.Scalar, 7)
	a, c := f.assembler()

	out, err := a.Assemble(document.Primitive{Attributes: map[string]int{
		"TEXCOORD_0": uv, "_BATCHID": extra, "NORMAL": nrm, "POSITION": pos,
	}})
	if err != nil {
		t.Fatal(err)
	}
	var order []string
	for _, attr := range out.Attributes {
		order = append(order, attr.Semantic)
	}
	if len(order) != 3 || order[0] != "POSITION" || order[1] != "NORMAL" || order[2] != "TEXCOORD_0" {
		t.Errorf("order %v", order)
	}
	if !c.Has(diag.KindUnknownAttribute, "accessor", extra) {
		t.Errorf("no unknown-attribute diagnostic")
	}
}

func TestLineIndices(t *testing.T) {
	var tests = []struct {
		mode    document.PrimitiveMode
		indexed bool
		want    []uint32
	}{
		{document.LineStrip, false, []uint32{0, 1, 1, 2}},
		{document.LineLoop, false, []uint32{0, 1, 1, 2, 2, 0}},
		{document.LineLoop, true, []uint32{2, 0, 0, 1, 1, 2}},
		{document.Lines, false, nil},
	}
	for _, test := range tests {
		f := newFixture()
		pos := f.floats(document.Vec3, 0, 0, 0, 1, 0, 0, 1, 1, 0)
		p := document.Primitive{Attributes: map[string]int{"POSITION": pos}, Mode: test.mode}
		if test.indexed {
			p.Indices = intp(f.add(document.UnsignedShort, document.Scalar, 3, []byte{2, 0, 0, 0, 1, 0}))
		}
		a, _ := f.assembler()

		out, err := a.Assemble(p)
		if err != nil {
			t.Fatal(err)
		}
		if len(out.LineIndices) != len(test.want) {
			t.Errorf("%v indexed=%v: %v; expected %v", test.mode, test.indexed, out.LineIndices, test.want)
			continue
		}
		for i := range test.want {
			if out.LineIndices[i] != test.want[i] {
				t.Errorf("%v indexed=%v: %v; expected %v", test.mode, test.indexed, out.LineIndices, test.want)
				break
			}
		}
	}
}

func TestMorphTargets(t *testing.T) {
	f := newFixture()
	pos := f.floats(document.Vec3, 0, 0, 0, 1, 1, 1)
	dpos := f.floats(document.Vec3, 0, 1, 0, 0, 1, 0)
	dnrm := f.floats(document.Vec3, 0, 0, 1, 0, 0, 1)
	a, _ := f.assembler()

	out, err := a.Assemble(document.Primitive{
		Attributes: map[string]int{"POSITION": pos},
		Targets:    []map[string]int{{"NORMAL": dnrm, "POSITION": dpos}, {"POSITION": dpos}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Targets) != 2 || len(out.Targets[0]) != 2 || len(out.Targets[1]) != 1 {
		t.Fatalf("targets %+v", out.Targets)
	}
	if out.Targets[0][0].Semantic != "POSITION" || out.Targets[0][1].Semantic != "NORMAL" {
		t.Errorf("target order %s %s", out.Targets[0][0].Semantic, out.Targets[0][1].Semantic)
	}
}

func TestAttributeErrorFailsPrimitive(t *testing.T) {
	f := newFixture()
	pos := f.floats(document.Vec3, 0, 0, 0)
	bad := f.add(5124, document.Vec3, 1, make([]byte, 12))
	a, _ := f.assembler()

	_, err := a.Assemble(document.Primitive{Attributes: map[string]int{"POSITION": pos, "NORMAL": bad}})
	if !errors.Is(err, accessor.ErrUnsupportedComponentType) {
		t.Errorf("err=%v", err)
	}
}
