package document

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

type refChecker struct {
	errs []string
}

func (c *refChecker) ref(owner string, ownerIdx int, field string, idx, n int) {
	if idx < 0 || idx >= n {
		c.errs = append(c.errs, fmt.Sprintf("%s %d: %s %d out of range [0,%d)", owner, ownerIdx, field, idx, n))
	}
}

func (c *refChecker) optRef(owner string, ownerIdx int, field string, idx *int, n int) {
	if idx != nil {
		c.ref(owner, ownerIdx, field, *idx, n)
	}
}

func (c *refChecker) nonNegative(owner string, ownerIdx int, field string, v int) {
	if v < 0 {
		c.errs = append(c.errs, fmt.Sprintf("%s %d: negative %s %d", owner, ownerIdx, field, v))
	}
}

func (c *refChecker) fail(owner string, ownerIdx int, format string, a ...interface{}) {
	c.errs = append(c.errs, fmt.Sprintf("%s %d: ", owner, ownerIdx)+fmt.Sprintf(format, a...))
}

// Validate checks every index reference of the document. The first problem
// found is returned wrapped in ErrMalformedDocument, the rest are summarized.
// Unknown componentType values are left to the accessor engine.
func (d *Document) Validate() error {
	c := &refChecker{}

	for i, b := range d.Buffers {
		c.nonNegative("buffer", i, "byteLength", b.ByteLength)
	}

	for i, v := range d.BufferViews {
		c.ref("bufferView", i, "buffer", v.Buffer, len(d.Buffers))
		c.nonNegative("bufferView", i, "byteOffset", v.ByteOffset)
		c.nonNegative("bufferView", i, "byteLength", v.ByteLength)
		c.nonNegative("bufferView", i, "byteStride", v.ByteStride)
	}

	for i, a := range d.Accessors {
		c.optRef("accessor", i, "bufferView", a.BufferView, len(d.BufferViews))
		c.nonNegative("accessor", i, "byteOffset", a.ByteOffset)
		c.nonNegative("accessor", i, "count", a.Count)
		if a.Type.Components() == 0 {
			c.fail("accessor", i, "unknown type %q", string(a.Type))
		}
		if s := a.Sparse; s != nil {
			if s.Count < 1 || s.Count > a.Count {
				c.fail("accessor", i, "sparse count %d outside [1,%d]", s.Count, a.Count)
			}
			c.ref("accessor", i, "sparse indices bufferView", s.Indices.BufferView, len(d.BufferViews))
			c.ref("accessor", i, "sparse values bufferView", s.Values.BufferView, len(d.BufferViews))
			c.nonNegative("accessor", i, "sparse indices byteOffset", s.Indices.ByteOffset)
			c.nonNegative("accessor", i, "sparse values byteOffset", s.Values.ByteOffset)
		}
	}

	for i, m := range d.Meshes {
		for j, p := range m.Primitives {
			for semantic, idx := range p.Attributes {
				c.ref("mesh", i, "primitive "+strconv.Itoa(j)+" attribute "+semantic, idx, len(d.Accessors))
			}
			c.optRef("mesh", i, "primitive "+strconv.Itoa(j)+" indices", p.Indices, len(d.Accessors))
			c.optRef("mesh", i, "primitive "+strconv.Itoa(j)+" material", p.Material, len(d.Materials))
			for t, target := range p.Targets {
				for semantic, idx := range target {
					c.ref("mesh", i, "primitive "+strconv.Itoa(j)+" target "+strconv.Itoa(t)+" "+semantic, idx, len(d.Accessors))
				}
			}
			if p.Mode < Points || p.Mode > TriangleFan {
				c.fail("mesh", i, "primitive %d: invalid mode %d", j, int(p.Mode))
			}
		}
	}

	for i, n := range d.Nodes {
		for _, child := range n.Children {
			c.ref("node", i, "child", child, len(d.Nodes))
		}
		c.optRef("node", i, "mesh", n.Mesh, len(d.Meshes))
		c.optRef("node", i, "skin", n.Skin, len(d.Skins))
		c.optRef("node", i, "camera", n.Camera, len(d.Cameras))
	}

	c.optRef("document", 0, "scene", d.Scene, len(d.Scenes))
	for i, s := range d.Scenes {
		for _, n := range s.Nodes {
			c.ref("scene", i, "node", n, len(d.Nodes))
		}
	}

	for i, s := range d.Skins {
		c.optRef("skin", i, "inverseBindMatrices", s.InverseBindMatrices, len(d.Accessors))
		c.optRef("skin", i, "skeleton", s.Skeleton, len(d.Nodes))
		for _, j := range s.Joints {
			c.ref("skin", i, "joint", j, len(d.Nodes))
		}
	}

	for i, a := range d.Animations {
		for _, s := range a.Samplers {
			c.ref("animation", i, "sampler input", s.Input, len(d.Accessors))
			c.ref("animation", i, "sampler output", s.Output, len(d.Accessors))
		}
		for _, ch := range a.Channels {
			c.ref("animation", i, "channel sampler", ch.Sampler, len(a.Samplers))
			c.optRef("animation", i, "channel target node", ch.Target.Node, len(d.Nodes))
		}
	}

	switch len(c.errs) {
	case 0:
		return nil
	case 1:
		return errors.Wrap(ErrMalformedDocument, c.errs[0])
	default:
		return errors.Wrapf(ErrMalformedDocument, "%s (and %d more)", c.errs[0], len(c.errs)-1)
	}
}
