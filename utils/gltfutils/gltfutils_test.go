package gltfutils

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"

	"github.com/mogaika/gltf_browser/glb"
)

func TestUnpack(t *testing.T) {
	doc := NewDocument()
	AddMesh(doc, MeshSpec{Name: "point", Positions: [][3]float32{{1, 2, 3}}})
	data, err := EncodeBinary(doc)
	if err != nil {
		t.Fatal(err)
	}
	if !glb.IsGLB(data) {
		t.Fatalf("encoder did not produce a glb")
	}

	jsonText, bin, err := Unpack(data, "point.bin")
	if err != nil {
		t.Fatal(err)
	}
	var root struct {
		Buffers []struct {
			URI        string `json:"uri"`
			ByteLength int    `json:"byteLength"`
		} `json:"buffers"`
		Meshes []struct {
			Name string `json:"name"`
		} `json:"meshes"`
	}
	if err := json.Unmarshal(jsonText, &root); err != nil {
		t.Fatal(err)
	}
	if len(root.Buffers) != 1 || root.Buffers[0].URI != "point.bin" || root.Buffers[0].ByteLength > len(bin) {
		t.Errorf("buffers %+v, bin %d bytes", root.Buffers, len(bin))
	}
	if len(root.Meshes) != 1 || root.Meshes[0].Name != "point" {
		t.Errorf("meshes %+v", root.Meshes)
	}
}

func TestUnpackRejectsGarbage(t *testing.T) {
	if _, _, err := Unpack([]byte("glTF\x02\x00\x00\x00"), "x.bin"); !errors.Is(err, glb.ErrContainerFormat) {
		t.Errorf("err=%v; expected ErrContainerFormat", err)
	}
}
