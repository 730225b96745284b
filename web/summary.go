package web

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/gltf_browser/accessor"
	"github.com/mogaika/gltf_browser/diag"
	"github.com/mogaika/gltf_browser/document"
	"github.com/mogaika/gltf_browser/loader"
	"github.com/mogaika/gltf_browser/primitive"
	"github.com/mogaika/gltf_browser/utils"
	"github.com/mogaika/gltf_browser/webutils"
)

type assetSummary struct {
	File               string
	Version            string
	Generator          string
	ExtensionsUsed     []string
	ExtensionsRequired []string
	Counts             map[string]int
	Meshes             []meshSummary
	Nodes              []nodeSummary
	Diagnostics        []diag.Entry
}

type meshSummary struct {
	Name       string
	Primitives []primitiveSummary
}

type primitiveSummary struct {
	Mode         string
	Material     *int
	VertexCount  int
	IndexCount   int
	Attributes   []string
	Targets      int
	UniformColor webutils.Floats
	Min, Max     webutils.Floats
	Centroid     webutils.Floats
	Error        string `json:",omitempty"`
}

type nodeSummary struct {
	Name     string
	Mesh     *int
	Children []int
	// Euler is the local rotation in degrees.
	Euler webutils.Floats
	World webutils.Floats
}

type attributeData struct {
	Semantic      string
	Accessor      int
	ComponentType string
	Components    int
	Normalized    bool
	Values        webutils.Floats
}

type primitiveData struct {
	primitiveSummary
	Indices     []uint32
	LineIndices []uint32
	Streams     []attributeData
	Targets     [][]attributeData
}

type accessorData struct {
	Accessor      int
	View          string
	ComponentType string
	Type          document.AccessorType
	Count         int
	Components    int
	Normalized    bool
	Truncated     bool
	Values        webutils.Floats
}

func summarizeAsset(file string, a *loader.Asset) *assetSummary {
	doc := a.Document
	s := &assetSummary{
		File:               file,
		Version:            doc.Asset.Version,
		Generator:          doc.Asset.Generator,
		ExtensionsUsed:     doc.ExtensionsUsed,
		ExtensionsRequired: doc.ExtensionsRequired,
		Counts: map[string]int{
			"scenes":      len(doc.Scenes),
			"nodes":       len(doc.Nodes),
			"meshes":      len(doc.Meshes),
			"materials":   len(doc.Materials),
			"accessors":   len(doc.Accessors),
			"bufferViews": len(doc.BufferViews),
			"buffers":     len(doc.Buffers),
			"skins":       len(doc.Skins),
			"animations":  len(doc.Animations),
			"textures":    len(doc.Textures),
			"images":      len(doc.Images),
		},
		Diagnostics: a.Diagnostics,
	}

	for _, m := range a.Meshes {
		ms := meshSummary{Name: m.Name}
		for i := range m.Primitives {
			ms.Primitives = append(ms.Primitives, summarizePrimitive(&m.Primitives[i]))
		}
		s.Meshes = append(s.Meshes, ms)
	}

	world := utils.WorldMatrices(doc)
	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		q := mgl32.Quat{
			W: float32(n.Rotation[3]),
			V: mgl32.Vec3{float32(n.Rotation[0]), float32(n.Rotation[1]), float32(n.Rotation[2])},
		}
		s.Nodes = append(s.Nodes, nodeSummary{
			Name:     n.Name,
			Mesh:     n.Mesh,
			Children: n.Children,
			Euler:    vec3(utils.RadiansToDegreeV3(utils.QuatToEuler(q))),
			World:    webutils.Floats(world[i][:]),
		})
	}
	return s
}

func summarizePrimitive(r *loader.PrimitiveResult) primitiveSummary {
	s := primitiveSummary{Mode: r.Source.Mode.String(), Material: r.Source.Material}
	if r.Err != nil {
		s.Error = r.Err.Error()
		return s
	}
	p := r.Primitive
	s.Mode = p.Mode.String()
	s.VertexCount = p.VertexCount
	if p.Indices != nil {
		s.IndexCount = p.Indices.Len()
	}
	for _, attr := range p.Attributes {
		s.Attributes = append(s.Attributes, attr.Semantic)
	}
	s.Targets = len(p.Targets)
	if p.UniformColor != nil {
		s.UniformColor = webutils.Floats(p.UniformColor[:])
	}
	s.Min, s.Max = vec3(p.Bounds.Min), vec3(p.Bounds.Max)
	s.Centroid = vec3(p.Centroid)
	return s
}

func vec3(v mgl32.Vec3) webutils.Floats {
	return webutils.Floats(v[:])
}

func attributeValues(doc *document.Document, attrs []primitive.Attribute) []attributeData {
	out := make([]attributeData, 0, len(attrs))
	for _, attr := range attrs {
		v := attr.Values
		if attr.Normalized {
			v = accessor.Normalized(v, &doc.Accessors[attr.Accessor])
		}
		out = append(out, attributeData{
			Semantic:      attr.Semantic,
			Accessor:      attr.Accessor,
			ComponentType: attr.ComponentType.String(),
			Components:    attr.Components,
			Normalized:    attr.Normalized,
			Values:        v.Float32s(),
		})
	}
	return out
}

func primitiveDetails(doc *document.Document, r *loader.PrimitiveResult) *primitiveData {
	d := &primitiveData{primitiveSummary: summarizePrimitive(r)}
	if r.Primitive == nil {
		return d
	}
	p := r.Primitive
	if p.Indices != nil {
		d.Indices = p.Indices.Uint32s()
	}
	d.LineIndices = p.LineIndices
	d.Streams = attributeValues(doc, p.Attributes)
	for _, target := range p.Targets {
		d.Targets = append(d.Targets, attributeValues(doc, target))
	}
	return d
}

func accessorDetails(e *accessor.Engine, index int, view string, normalized bool) (*accessorData, error) {
	var v *accessor.View
	var err error
	switch {
	case view == "linear" && normalized:
		v, err = e.NormalizedLinear(index)
	case view == "linear":
		v, err = e.Linear(index)
	case view == "deinterlaced" && normalized:
		v, err = e.NormalizedDeinterlaced(index)
	case view == "deinterlaced":
		v, err = e.Deinterlaced(index)
	case normalized:
		view = "natural"
		v, err = e.NormalizedNatural(index)
	default:
		view = "natural"
		v, err = e.Natural(index)
	}
	if err != nil {
		return nil, err
	}
	acc := &e.Document().Accessors[index]
	return &accessorData{
		Accessor:      index,
		View:          view,
		ComponentType: v.ComponentType.String(),
		Type:          acc.Type,
		Count:         v.Count,
		Components:    v.Components,
		Normalized:    v.Normalized,
		Truncated:     v.Truncated,
		Values:        v.Float32s(),
	}, nil
}
