package utils

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/gltf_browser/document"
)

// result in radians
func QuatToEuler(q mgl32.Quat) (e mgl32.Vec3) {
	sinr_cosp := float64(2 * (q.W*q.X() + q.Y()*q.Z()))
	cosr_cosp := float64(1 - 2*(q.X()*q.X()+q.Y()*q.Y()))
	e[0] = float32(math.Atan2(sinr_cosp, cosr_cosp))

	sinp := float64(2 * (q.W*q.Y() - q.Z()*q.X()))
	if math.Abs(sinp) >= 1 {
		e[1] = float32(math.Copysign(math.Pi/2, sinp))
	} else {
		e[1] = float32(math.Asin(sinp))
	}

	siny_cosp := float64(2 * (q.W*q.Z() + q.X()*q.Y()))
	cosy_cosp := float64(1 - 2*(q.Y()*q.Y()+q.Z()*q.Z()))
	e[2] = float32(math.Atan2(siny_cosp, cosy_cosp))

	return e
}

func RadiansToDegreeV3(v mgl32.Vec3) mgl32.Vec3 {
	return v.Mul(180 / math.Pi)
}

// NodeMatrix is the local transform of n: its matrix when present,
// otherwise T * R * S.
func NodeMatrix(n *document.Node) mgl32.Mat4 {
	if n.Matrix != nil {
		var m mgl32.Mat4
		for i, v := range n.Matrix {
			m[i] = float32(v)
		}
		return m
	}
	q := mgl32.Quat{
		W: float32(n.Rotation[3]),
		V: mgl32.Vec3{float32(n.Rotation[0]), float32(n.Rotation[1]), float32(n.Rotation[2])},
	}
	t := mgl32.Translate3D(float32(n.Translation[0]), float32(n.Translation[1]), float32(n.Translation[2]))
	s := mgl32.Scale3D(float32(n.Scale[0]), float32(n.Scale[1]), float32(n.Scale[2]))
	return t.Mul4(q.Normalize().Mat4()).Mul4(s)
}

// WorldMatrices walks every node hierarchy from its roots. Nodes reachable
// twice keep the first path, nodes inside a cycle keep identity.
func WorldMatrices(doc *document.Document) []mgl32.Mat4 {
	world := make([]mgl32.Mat4, len(doc.Nodes))
	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}

	visited := make([]bool, len(doc.Nodes))
	var walk func(i int, parent mgl32.Mat4)
	walk = func(i int, parent mgl32.Mat4) {
		if i < 0 || i >= len(doc.Nodes) || visited[i] {
			return
		}
		visited[i] = true
		world[i] = parent.Mul4(NodeMatrix(&doc.Nodes[i]))
		for _, c := range doc.Nodes[i].Children {
			walk(c, world[i])
		}
	}
	for i := range doc.Nodes {
		if !isChild[i] {
			walk(i, mgl32.Ident4())
		}
	}
	for i := range world {
		if !visited[i] {
			world[i] = mgl32.Ident4()
		}
	}
	return world
}

func FloatArray32to64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
