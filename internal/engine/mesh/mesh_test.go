package mesh

import (
	"testing"

	"github.com/Faultbox/midgard-lobby/pkg/math"
)

type countingHandle struct {
	disposed int
}

func (h *countingHandle) Dispose() { h.disposed++ }

func TestBox(t *testing.T) {
	m := Box("wall", MaterialWall, math.Vec3{X: -1, Y: 0, Z: -0.1}, math.Vec3{X: 1, Y: 3, Z: 0.1})
	if m == nil {
		t.Fatal("Box() returned nil for a valid box")
	}
	if len(m.Vertices) != 24 {
		t.Errorf("expected 24 vertices, got %d", len(m.Vertices))
	}
	if len(m.Indices) != 36 {
		t.Errorf("expected 36 indices, got %d", len(m.Indices))
	}
	lo, hi := m.Bounds()
	if lo != (math.Vec3{X: -1, Y: 0, Z: -0.1}) || hi != (math.Vec3{X: 1, Y: 3, Z: 0.1}) {
		t.Errorf("Bounds() = %v..%v", lo, hi)
	}
}

func TestBoxDegenerate(t *testing.T) {
	if m := Box("flat", MaterialWall, math.Vec3{}, math.Vec3{X: 1, Y: 0, Z: 1}); m != nil {
		t.Error("expected nil for zero-height box")
	}
}

func TestCardFacing(t *testing.T) {
	m := Card("card", MaterialCard, math.Vec3{X: 0, Y: 1.5, Z: -4.9}, 0, 1.2, 0.8)
	if m == nil {
		t.Fatal("Card() returned nil")
	}
	n := m.Vertices[0].Normal
	if n[2] < 0.99 {
		t.Errorf("card with rotY=0 should face +Z, normal = %v", n)
	}
}

func TestMeshDisposeOnce(t *testing.T) {
	tex := &countingHandle{}
	gpu := &countingHandle{}
	m := HorizontalPlane("floor", MaterialFloor, math.Rect{MinX: -1, MaxX: 1, MinZ: -1, MaxZ: 1}, 0, true)
	m.Texture = tex
	m.Attach(gpu)

	m.Dispose()
	m.Dispose()

	if tex.disposed != 1 || gpu.disposed != 1 {
		t.Errorf("dispose counts: texture=%d gpu=%d, want 1 each", tex.disposed, gpu.disposed)
	}
	if !m.Disposed() {
		t.Error("expected Disposed() to be true")
	}
}

func TestSceneRemoveDisposes(t *testing.T) {
	s := NewScene()
	var uploaded int
	s.OnAdd = func(tag string, m *Mesh) {
		uploaded++
		m.Attach(&countingHandle{})
	}

	a := Box("a", MaterialWall, math.Vec3{}, math.Vec3{X: 1, Y: 1, Z: 1})
	b := Box("b", MaterialWall, math.Vec3{}, math.Vec3{X: 1, Y: 1, Z: 1})
	s.Add("room", a, nil, b)
	s.Add("annex:base", Box("c", MaterialWall, math.Vec3{}, math.Vec3{X: 1, Y: 1, Z: 1}))

	if uploaded != 3 {
		t.Errorf("OnAdd called %d times, want 3", uploaded)
	}
	if got := s.Remove("room"); got != 2 {
		t.Errorf("Remove() = %d, want 2", got)
	}
	if !a.Disposed() || !b.Disposed() {
		t.Error("removed meshes must be disposed")
	}
	if got := s.Remove("room"); got != 0 {
		t.Errorf("second Remove() = %d, want 0", got)
	}
	if c := s.Counts(); c["annex:base"] != 1 || len(c) != 1 {
		t.Errorf("Counts() = %v", c)
	}
}
