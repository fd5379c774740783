// Package mesh builds CPU-side geometry for lobby rooms and cards and tracks
// which subsystem owns each piece so it can be disposed by tag.
package mesh

import (
	"github.com/Faultbox/midgard-lobby/pkg/math"
)

// Material identifies the surface a mesh is drawn with. Colors, textures and
// lighting are resolved by the theming collaborator.
type Material uint8

const (
	MaterialFloor Material = iota
	MaterialCeiling
	MaterialWall
	MaterialGlass
	MaterialFrame
	MaterialCard
)

// String returns the material name.
func (m Material) String() string {
	switch m {
	case MaterialFloor:
		return "floor"
	case MaterialCeiling:
		return "ceiling"
	case MaterialWall:
		return "wall"
	case MaterialGlass:
		return "glass"
	case MaterialFrame:
		return "frame"
	case MaterialCard:
		return "card"
	default:
		return "unknown"
	}
}

// Vertex is a single mesh vertex.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
}

// Disposable is anything holding renderer-side resources (GPU buffers,
// textures) that must be released before its owner leaves the scene.
type Disposable interface {
	Dispose()
}

// Mesh is indexed triangle geometry with a material and an optional texture.
type Mesh struct {
	Name     string
	Material Material
	Vertices []Vertex
	Indices  []uint32

	// Texture is owned by the mesh and disposed with it.
	Texture Disposable

	gpu      Disposable
	disposed bool
}

// Attach binds renderer-side buffers to the mesh. A mesh can hold one GPU
// handle; attaching again releases the previous one.
func (m *Mesh) Attach(gpu Disposable) {
	if m.gpu != nil {
		m.gpu.Dispose()
	}
	m.gpu = gpu
}

// GPU returns the attached renderer handle, if any.
func (m *Mesh) GPU() Disposable {
	return m.gpu
}

// Dispose releases the texture and GPU handle. It is safe to call twice.
func (m *Mesh) Dispose() {
	if m.disposed {
		return
	}
	m.disposed = true
	if m.Texture != nil {
		m.Texture.Dispose()
		m.Texture = nil
	}
	if m.gpu != nil {
		m.gpu.Dispose()
		m.gpu = nil
	}
}

// Disposed reports whether Dispose has run.
func (m *Mesh) Disposed() bool {
	return m.disposed
}

// Bounds returns the axis-aligned bounds of the vertices.
func (m *Mesh) Bounds() (lo, hi math.Vec3) {
	if len(m.Vertices) == 0 {
		return
	}
	lo = math.V3(m.Vertices[0].Position)
	hi = lo
	for _, v := range m.Vertices[1:] {
		p := v.Position
		lo = math.Vec3{X: min(lo.X, p[0]), Y: min(lo.Y, p[1]), Z: min(lo.Z, p[2])}
		hi = math.Vec3{X: max(hi.X, p[0]), Y: max(hi.Y, p[1]), Z: max(hi.Z, p[2])}
	}
	return lo, hi
}

// Box builds an axis-aligned box spanning lo..hi with outward normals.
// Degenerate boxes (any non-positive extent) return nil.
func Box(name string, mat Material, lo, hi math.Vec3) *Mesh {
	if hi.X <= lo.X || hi.Y <= lo.Y || hi.Z <= lo.Z {
		return nil
	}

	m := &Mesh{Name: name, Material: mat}
	faces := []struct {
		normal  [3]float32
		corners [4][3]float32
	}{
		{[3]float32{0, 0, 1}, [4][3]float32{{lo.X, lo.Y, hi.Z}, {hi.X, lo.Y, hi.Z}, {hi.X, hi.Y, hi.Z}, {lo.X, hi.Y, hi.Z}}},
		{[3]float32{0, 0, -1}, [4][3]float32{{hi.X, lo.Y, lo.Z}, {lo.X, lo.Y, lo.Z}, {lo.X, hi.Y, lo.Z}, {hi.X, hi.Y, lo.Z}}},
		{[3]float32{1, 0, 0}, [4][3]float32{{hi.X, lo.Y, hi.Z}, {hi.X, lo.Y, lo.Z}, {hi.X, hi.Y, lo.Z}, {hi.X, hi.Y, hi.Z}}},
		{[3]float32{-1, 0, 0}, [4][3]float32{{lo.X, lo.Y, lo.Z}, {lo.X, lo.Y, hi.Z}, {lo.X, hi.Y, hi.Z}, {lo.X, hi.Y, lo.Z}}},
		{[3]float32{0, 1, 0}, [4][3]float32{{lo.X, hi.Y, hi.Z}, {hi.X, hi.Y, hi.Z}, {hi.X, hi.Y, lo.Z}, {lo.X, hi.Y, lo.Z}}},
		{[3]float32{0, -1, 0}, [4][3]float32{{lo.X, lo.Y, lo.Z}, {hi.X, lo.Y, lo.Z}, {hi.X, lo.Y, hi.Z}, {lo.X, lo.Y, hi.Z}}},
	}
	for _, f := range faces {
		m.addQuad(f.corners, f.normal)
	}
	return m
}

// HorizontalPlane builds a floor-plane quad covering r at height y, facing up
// or down.
func HorizontalPlane(name string, mat Material, r math.Rect, y float32, facingUp bool) *Mesh {
	if !r.Valid() {
		return nil
	}
	m := &Mesh{Name: name, Material: mat}
	if facingUp {
		m.addQuad([4][3]float32{
			{r.MinX, y, r.MaxZ}, {r.MaxX, y, r.MaxZ}, {r.MaxX, y, r.MinZ}, {r.MinX, y, r.MinZ},
		}, [3]float32{0, 1, 0})
	} else {
		m.addQuad([4][3]float32{
			{r.MinX, y, r.MinZ}, {r.MaxX, y, r.MinZ}, {r.MaxX, y, r.MaxZ}, {r.MinX, y, r.MaxZ},
		}, [3]float32{0, -1, 0})
	}
	return m
}

// Card builds a vertical quad of the given size centered on pos, facing
// along the direction given by rotY (0 faces +Z).
func Card(name string, mat Material, pos math.Vec3, rotY, width, height float32) *Mesh {
	if width <= 0 || height <= 0 {
		return nil
	}
	model := math.Placement(pos, rotY)
	hw, hh := width/2, height/2
	local := [4]math.Vec3{{X: -hw, Y: -hh}, {X: hw, Y: -hh}, {X: hw, Y: hh}, {X: -hw, Y: hh}}
	var corners [4][3]float32
	for i, p := range local {
		corners[i] = model.TransformPoint(p).Array()
	}
	n := model.TransformPoint(math.Vec3{Z: 1}).Sub(pos).Normalize()
	m := &Mesh{Name: name, Material: mat}
	m.addQuad(corners, n.Array())
	return m
}

func (m *Mesh) addQuad(corners [4][3]float32, normal [3]float32) {
	base := uint32(len(m.Vertices))
	uvs := [4][2]float32{{0, 1}, {1, 1}, {1, 0}, {0, 0}}
	for i, c := range corners {
		m.Vertices = append(m.Vertices, Vertex{Position: c, Normal: normal, TexCoord: uvs[i]})
	}
	m.Indices = append(m.Indices, base, base+1, base+2, base+2, base+3, base)
}
