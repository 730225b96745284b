package loader

import (
	"github.com/pkg/errors"

	"github.com/mogaika/gltf_browser/accessor"
	"github.com/mogaika/gltf_browser/diag"
	"github.com/mogaika/gltf_browser/document"
	"github.com/mogaika/gltf_browser/primitive"
)

// PrimitiveResult holds either an assembled primitive or the reason it
// failed. Source is the primitive that was assembled, after decompression.
type PrimitiveResult struct {
	Source    document.Primitive
	Primitive *primitive.Assembled
	Err       error
}

type MeshResult struct {
	Name       string
	Primitives []PrimitiveResult
}

type Asset struct {
	Document    *document.Document
	Engine      *accessor.Engine
	Meshes      []MeshResult
	Diagnostics []diag.Entry
}

func (a *Asset) Primitive(mesh, prim int) (*PrimitiveResult, error) {
	if mesh < 0 || mesh >= len(a.Meshes) {
		return nil, errors.Errorf("mesh %d out of range [0,%d)", mesh, len(a.Meshes))
	}
	m := &a.Meshes[mesh]
	if prim < 0 || prim >= len(m.Primitives) {
		return nil, errors.Errorf("mesh %d primitive %d out of range [0,%d)", mesh, prim, len(m.Primitives))
	}
	return &m.Primitives[prim], nil
}

type Failure struct {
	Mesh      int
	Primitive int
	Err       error
}

// Failed lists primitives that could not be assembled.
func (a *Asset) Failed() []Failure {
	var out []Failure
	for mi, m := range a.Meshes {
		for pi, p := range m.Primitives {
			if p.Err != nil {
				out = append(out, Failure{Mesh: mi, Primitive: pi, Err: p.Err})
			}
		}
	}
	return out
}
