package document

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

const minimal = `{
	"asset": {"version": "2.0", "generator": "test", "futureField": 7},
	"buffers": [{"byteLength": 8}],
	"bufferViews": [{"buffer": 0, "byteLength": 8, "byteStride": 4, "target": 34962}],
	"accessors": [{"bufferView": 0, "componentType": 5126, "count": 2, "type": "SCALAR"}],
	"meshes": [{"name": "m", "primitives": [{"attributes": {"POSITION": 0}, "vendorThing": {"a": 1}}]}],
	"nodes": [{"mesh": 0}],
	"scenes": [{"nodes": [0]}],
	"scene": 0,
	"samplers": [{}],
	"materials": [{"name": "mat", "pbrMetallicRoughness": {"baseColorFactor": [1, 0, 0, 1]}}],
	"topLevelUnknown": true
}`

func TestParseMinimal(t *testing.T) {
	doc, err := Parse([]byte(minimal))
	if err != nil {
		t.Fatal(err)
	}
	if err := doc.Validate(); err != nil {
		t.Fatal(err)
	}

	if doc.Asset.Generator != "test" {
		t.Errorf("generator=%q", doc.Asset.Generator)
	}
	if _, ok := doc.Asset.Unknown["futureField"]; !ok {
		t.Errorf("asset.futureField not kept in Unknown: %v", doc.Asset.Unknown)
	}
	if _, ok := doc.Unknown["topLevelUnknown"]; !ok {
		t.Errorf("topLevelUnknown not kept: %v", doc.Unknown)
	}
	if _, ok := doc.Unknown["asset"]; ok {
		t.Errorf("known key leaked into Unknown")
	}

	p := doc.Meshes[0].Primitives[0]
	if p.Mode != Triangles {
		t.Errorf("default mode=%v; expected TRIANGLES", p.Mode)
	}
	if _, ok := p.Unknown["vendorThing"]; !ok {
		t.Errorf("primitive passthrough lost: %v", p.Unknown)
	}

	n := doc.Nodes[0]
	if n.Rotation != [4]float64{0, 0, 0, 1} || n.Scale != [3]float64{1, 1, 1} {
		t.Errorf("node TRS defaults: %v %v", n.Rotation, n.Scale)
	}

	if s, def := doc.Samplers[0], DefaultSampler(); s.MagFilter != def.MagFilter || s.MinFilter != def.MinFilter ||
		s.WrapS != def.WrapS || s.WrapT != def.WrapT {
		t.Errorf("sampler defaults: %+v", doc.Samplers[0])
	}
	if doc.Materials[0].AlphaMode != AlphaOpaque {
		t.Errorf("alphaMode=%q", doc.Materials[0].AlphaMode)
	}
	if _, ok := doc.Materials[0].Unknown["pbrMetallicRoughness"]; !ok {
		t.Errorf("material pbr not passed through")
	}
}

func TestMarshalKeepsUnknown(t *testing.T) {
	doc, err := Parse([]byte(minimal))
	if err != nil {
		t.Fatal(err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"topLevelUnknown", "futureField", "vendorThing", "pbrMetallicRoughness"} {
		if !strings.Contains(string(out), key) {
			t.Errorf("marshalled document lost %q", key)
		}
	}
}

func TestParseVersion(t *testing.T) {
	var tests = []struct {
		json string
		ok   bool
	}{
		{`{"asset":{"version":"2.0"}}`, true},
		{`{"asset":{"version":"2.1"}}`, true},
		{`{"asset":{"version":"1.0"}}`, false},
		{`{"asset":{}}`, false},
		{`{}`, false},
		{`[1,2]`, false},
		{`{"asset":`, false},
	}
	for _, test := range tests {
		_, err := Parse([]byte(test.json))
		if test.ok && err != nil {
			t.Errorf("%s: %v", test.json, err)
		}
		if !test.ok {
			if err == nil {
				t.Errorf("%s: expected error", test.json)
			} else if !errors.Is(err, ErrMalformedDocument) {
				t.Errorf("%s: %v is not ErrMalformedDocument", test.json, err)
			}
		}
	}
}

func TestValidate(t *testing.T) {
	var tests = []struct {
		name string
		json string
	}{
		{"bufferView.buffer", `{"asset":{"version":"2.0"},"bufferViews":[{"buffer":1,"byteLength":4}]}`},
		{"accessor.bufferView", `{"asset":{"version":"2.0"},"accessors":[{"bufferView":0,"componentType":5126,"count":1,"type":"SCALAR"}]}`},
		{"accessor.type", `{"asset":{"version":"2.0"},"accessors":[{"componentType":5126,"count":1,"type":"VEC5"}]}`},
		{"sparse.count", `{"asset":{"version":"2.0"},"buffers":[{"byteLength":4}],"bufferViews":[{"buffer":0,"byteLength":4}],
			"accessors":[{"componentType":5126,"count":1,"type":"SCALAR","sparse":{"count":2,"indices":{"bufferView":0,"componentType":5121},"values":{"bufferView":0}}}]}`},
		{"primitive.indices", `{"asset":{"version":"2.0"},"meshes":[{"primitives":[{"attributes":{},"indices":3}]}]}`},
		{"primitive.attribute", `{"asset":{"version":"2.0"},"meshes":[{"primitives":[{"attributes":{"POSITION":0}}]}]}`},
		{"primitive.mode", `{"asset":{"version":"2.0"},"meshes":[{"primitives":[{"attributes":{},"mode":9}]}]}`},
		{"node.child", `{"asset":{"version":"2.0"},"nodes":[{"children":[4]}]}`},
		{"scene.node", `{"asset":{"version":"2.0"},"scenes":[{"nodes":[0]}]}`},
		{"negative offset", `{"asset":{"version":"2.0"},"buffers":[{"byteLength":4}],"bufferViews":[{"buffer":0,"byteOffset":-4,"byteLength":4}]}`},
		{"animation.sampler", `{"asset":{"version":"2.0"},"animations":[{"channels":[{"sampler":1,"target":{"path":"rotation"}}],"samplers":[]}]}`},
	}
	for _, test := range tests {
		doc, err := Parse([]byte(test.json))
		if err != nil {
			t.Errorf("%s: parse: %v", test.name, err)
			continue
		}
		err = doc.Validate()
		if err == nil {
			t.Errorf("%s: expected validation error", test.name)
		} else if !errors.Is(err, ErrMalformedDocument) {
			t.Errorf("%s: %v is not ErrMalformedDocument", test.name, err)
		}
	}
}

func TestUnknownComponentTypeIsNotDocumentError(t *testing.T) {
	doc, err := Parse([]byte(`{"asset":{"version":"2.0"},"accessors":[{"componentType":1234,"count":1,"type":"SCALAR"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if err := doc.Validate(); err != nil {
		t.Errorf("Validate()=%v; expected nil", err)
	}
	if doc.Accessors[0].ComponentType.Valid() {
		t.Errorf("componentType 1234 reported valid")
	}
}

func TestAppendAndLookup(t *testing.T) {
	doc, err := Parse([]byte(minimal))
	if err != nil {
		t.Fatal(err)
	}
	before := doc.Accessors[0]

	b := doc.AppendBuffer(Buffer{ByteLength: 4, Data: make([]byte, 4)})
	v := doc.AppendBufferView(BufferView{Buffer: b, ByteLength: 4})
	a := doc.AppendAccessor(Accessor{BufferView: &v, ComponentType: Float, Count: 1, Type: Scalar})

	if b != 1 || v != 1 || a != 1 {
		t.Errorf("indices %d %d %d; expected 1 1 1", b, v, a)
	}
	acc, err := doc.Accessor(a)
	if err != nil {
		t.Fatal(err)
	}
	if acc.ElementSize() != 4 {
		t.Errorf("ElementSize()=%d", acc.ElementSize())
	}
	if *doc.Accessors[0].BufferView != *before.BufferView || doc.Accessors[0].Count != before.Count {
		t.Errorf("existing accessor changed by append")
	}
	if err := doc.Validate(); err != nil {
		t.Errorf("after append: %v", err)
	}

	if _, err := doc.Accessor(5); !errors.Is(err, ErrMalformedDocument) {
		t.Errorf("Accessor(5) err=%v", err)
	}
	if _, err := doc.Primitive(0, 3); !errors.Is(err, ErrMalformedDocument) {
		t.Errorf("Primitive(0,3) err=%v", err)
	}
}

func TestEnums(t *testing.T) {
	var sizes = []struct {
		ct   ComponentType
		size int
	}{
		{Byte, 1}, {UnsignedByte, 1}, {Short, 2}, {UnsignedShort, 2}, {UnsignedInt, 4}, {Float, 4}, {5124, 0},
	}
	for _, s := range sizes {
		if s.ct.Size() != s.size {
			t.Errorf("%v.Size()=%d; expected %d", s.ct, s.ct.Size(), s.size)
		}
	}

	var comps = map[AccessorType]int{Scalar: 1, Vec2: 2, Vec3: 3, Vec4: 4, Mat2: 4, Mat3: 9, Mat4: 16, "X": 0}
	for typ, n := range comps {
		if typ.Components() != n {
			t.Errorf("%s.Components()=%d; expected %d", typ, typ.Components(), n)
		}
	}
}

func TestUsesExtension(t *testing.T) {
	doc, err := Parse([]byte(`{"asset":{"version":"2.0"},"extensionsUsed":["KHR_a"],"extensionsRequired":["KHR_b"]}`))
	if err != nil {
		t.Fatal(err)
	}
	if !doc.UsesExtension("KHR_a") || !doc.UsesExtension("KHR_b") || doc.UsesExtension("KHR_c") {
		t.Errorf("UsesExtension mismatch")
	}
	if len(doc.RequiredExtensions()) != 1 {
		t.Errorf("RequiredExtensions()=%v", doc.RequiredExtensions())
	}
}
