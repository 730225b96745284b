// Package gltfutils builds glTF fixtures with qmuntal/gltf and converts
// between GLB and .gltf + .bin pairs.
package gltfutils

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/gltf_browser/glb"
)

type MeshSpec struct {
	Name      string
	Positions [][3]float32
	Normals   [][3]float32
	UVs       [][2]float32
	Colors    [][4]uint8
	Indices   []uint32
	Mode      gltf.PrimitiveMode
}

func NewDocument() *gltf.Document {
	doc := gltf.NewDocument()
	doc.Asset.Version = "2.0"
	doc.Asset.Generator = "gltf_browser"
	return doc
}

// AddMesh writes the streams of m into doc, adds a mesh and a node for it
// and returns the mesh index.
func AddMesh(doc *gltf.Document, m MeshSpec) uint32 {
	attributes := map[string]uint32{
		gltf.POSITION: modeler.WritePosition(doc, m.Positions),
	}
	if m.Normals != nil {
		attributes[gltf.NORMAL] = modeler.WriteNormal(doc, m.Normals)
	}
	if m.UVs != nil {
		attributes[gltf.TEXCOORD_0] = modeler.WriteTextureCoord(doc, m.UVs)
	}
	if m.Colors != nil {
		attributes[gltf.COLOR_0] = modeler.WriteColor(doc, m.Colors)
	}

	prim := &gltf.Primitive{Attributes: attributes, Mode: m.Mode}
	if m.Indices != nil {
		prim.Indices = gltf.Index(modeler.WriteIndices(doc, m.Indices))
	}

	doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: m.Name, Primitives: []*gltf.Primitive{prim}})
	meshIndex := uint32(len(doc.Meshes) - 1)

	doc.Nodes = append(doc.Nodes, &gltf.Node{Name: m.Name, Mesh: gltf.Index(meshIndex)})
	if len(doc.Scenes) == 0 {
		doc.Scenes = append(doc.Scenes, &gltf.Scene{})
		doc.Scene = gltf.Index(0)
	}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)-1))
	return meshIndex
}

func ExportBinary(w io.Writer, doc *gltf.Document) error {
	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = true
	return encoder.Encode(doc)
}

// EncodeBinary is ExportBinary into memory.
func EncodeBinary(doc *gltf.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := ExportBinary(&buf, doc); err != nil {
		return nil, errors.Wrap(err, "encode glb")
	}
	return buf.Bytes(), nil
}

// Unpack splits a GLB into standalone JSON text whose first buffer points
// at binURI, and the bytes that belong behind that uri.
func Unpack(data []byte, binURI string) (jsonText []byte, bin []byte, err error) {
	c, err := glb.Parse(data)
	if err != nil {
		return nil, nil, err
	}
	bin = c.BIN()
	if bin == nil {
		return append([]byte(nil), c.JSON...), nil, nil
	}

	var root map[string]json.RawMessage
	if err := json.Unmarshal(c.JSON, &root); err != nil {
		return nil, nil, errors.Wrap(err, "glb json chunk")
	}
	var buffers []map[string]json.RawMessage
	if err := json.Unmarshal(root["buffers"], &buffers); err != nil || len(buffers) == 0 {
		return nil, nil, errors.Errorf("glb has a BIN chunk but no buffers")
	}
	uri, _ := json.Marshal(binURI)
	buffers[0]["uri"] = uri
	if root["buffers"], err = json.Marshal(buffers); err != nil {
		return nil, nil, err
	}
	if jsonText, err = json.MarshalIndent(root, "", "  "); err != nil {
		return nil, nil, err
	}
	return jsonText, append([]byte(nil), bin...), nil
}
