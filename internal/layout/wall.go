package layout

import (
	"fmt"

	"github.com/Faultbox/midgard-lobby/internal/engine/collision"
	"github.com/Faultbox/midgard-lobby/internal/engine/mesh"
	"github.com/Faultbox/midgard-lobby/internal/scene"
	"github.com/Faultbox/midgard-lobby/pkg/math"
)

// Doorway clamping limits.
const (
	MinDoorwayWidth  = 0.5
	MinDoorwayHeight = 1.0
	MinJambWidth     = 0.1
	MinLintelHeight  = 0.05
)

// PanelKind identifies the role of a wall segment.
type PanelKind uint8

const (
	PanelFull PanelKind = iota
	PanelLeftJamb
	PanelRightJamb
	PanelLintel
)

// String returns the panel kind name.
func (k PanelKind) String() string {
	switch k {
	case PanelLeftJamb:
		return "left-jamb"
	case PanelRightJamb:
		return "right-jamb"
	case PanelLintel:
		return "lintel"
	default:
		return "full"
	}
}

// Opening is a doorway cut into a wall: width and height of the hole and its
// center along the wall axis.
type Opening struct {
	Width  float32
	Height float32
	Center float32
}

// Panel is one solid segment of a wall, measured along the wall axis and
// upward from the floor.
type Panel struct {
	Kind   PanelKind
	Start  float32
	End    float32
	Bottom float32
	Top    float32
}

// Length returns the panel extent along the wall.
func (p Panel) Length() float32 { return p.End - p.Start }

// Blocking reports whether the panel reaches the floor and so needs a
// collider. Lintels float above the opening and never block.
func (p Panel) Blocking() bool { return p.Kind != PanelLintel }

// Empty reports whether the opening has no hole, e.g. after clamping to a
// wall too short to hold a doorway.
func (o Opening) Empty() bool { return o.Width <= 0 }

// ClampOpening forces an opening into a wall spanning [start,end] with the
// given height: width stays between MinDoorwayWidth and the wall length
// minus two minimal jambs, height leaves room for a lintel, and the center
// keeps the hole inside the wall. A wall that cannot hold MinDoorwayWidth
// between two jambs gets an empty opening. It reports whether anything
// changed.
func ClampOpening(o Opening, start, end, height float32) (Opening, bool) {
	in := o
	length := end - start

	maxWidth := length - 2*MinJambWidth
	if maxWidth < MinDoorwayWidth {
		return Opening{}, true
	}
	o.Width = max(min(o.Width, maxWidth), min(MinDoorwayWidth, maxWidth))

	maxHeight := height - MinLintelHeight
	o.Height = max(min(o.Height, maxHeight), min(MinDoorwayHeight, maxHeight))

	lo := start + MinJambWidth + o.Width/2
	hi := end - MinJambWidth - o.Width/2
	o.Center = min(max(o.Center, lo), hi)

	return o, o != in
}

// SplitWall divides a wall spanning [start,end] into panels. A nil opening
// yields a single full panel; otherwise the wall becomes a left jamb, a right
// jamb and a lintel. Zero-length segments are skipped.
func SplitWall(start, end, height float32, opening *Opening) []Panel {
	if end <= start || height <= 0 {
		return nil
	}
	if opening == nil {
		return []Panel{{Kind: PanelFull, Start: start, End: end, Bottom: 0, Top: height}}
	}

	o, _ := ClampOpening(*opening, start, end, height)
	if o.Empty() {
		return []Panel{{Kind: PanelFull, Start: start, End: end, Bottom: 0, Top: height}}
	}
	left := o.Center - o.Width/2
	right := o.Center + o.Width/2

	var panels []Panel
	if left > start {
		panels = append(panels, Panel{Kind: PanelLeftJamb, Start: start, End: left, Top: height})
	}
	if end > right {
		panels = append(panels, Panel{Kind: PanelRightJamb, Start: right, End: end, Top: height})
	}
	if height-o.Height > 0 {
		panels = append(panels, Panel{Kind: PanelLintel, Start: left, End: right, Bottom: o.Height, Top: height})
	}
	return panels
}

// wallLine is the center line of a wall: fixed coordinate on the thin axis
// and its span along the long axis.
type wallLine struct {
	side  scene.Side
	fixed float32
	start float32
	end   float32
}

// lineFor returns the wall line of rect r on side s.
func lineFor(r math.Rect, s scene.Side) wallLine {
	switch s {
	case scene.SideNorth:
		return wallLine{side: s, fixed: r.MinZ, start: r.MinX, end: r.MaxX}
	case scene.SideSouth:
		return wallLine{side: s, fixed: r.MaxZ, start: r.MinX, end: r.MaxX}
	case scene.SideEast:
		return wallLine{side: s, fixed: r.MaxX, start: r.MinZ, end: r.MaxZ}
	default:
		return wallLine{side: s, fixed: r.MinX, start: r.MinZ, end: r.MaxZ}
	}
}

// alongX reports whether the wall runs along the X axis.
func (w wallLine) alongX() bool {
	return w.side == scene.SideNorth || w.side == scene.SideSouth
}

// footprint returns the floor rectangle of the wall segment [a,b] with the
// given thickness centered on the wall line.
func (w wallLine) footprint(a, b, thickness float32) math.Rect {
	half := thickness / 2
	if w.alongX() {
		return math.Rect{MinX: a, MaxX: b, MinZ: w.fixed - half, MaxZ: w.fixed + half}
	}
	return math.Rect{MinX: w.fixed - half, MaxX: w.fixed + half, MinZ: a, MaxZ: b}
}

// Wall is one wall of a rectangular room: the room floor rectangle, the
// side the wall stands on and its optional opening.
type Wall struct {
	Name      string
	Room      math.Rect
	Side      scene.Side
	FloorY    float32
	Height    float32
	Thickness float32
	Material  mesh.Material
	Opening   *Opening
	// JambMaterial overrides the material of split panels, e.g. glass side
	// doorways.
	JambMaterial *mesh.Material
}

// Span returns the wall extent along its axis.
func (w Wall) Span() (start, end float32) {
	l := lineFor(w.Room, w.Side)
	return l.start, l.end
}

// AddWall appends the wall's panels as meshes and its blocking panels as
// colliders. It returns the panels built.
func (b *Build) AddWall(w Wall) []Panel {
	line := lineFor(w.Room, w.Side)
	panels := SplitWall(line.start, line.end, w.Height, w.Opening)
	for _, p := range panels {
		rect := line.footprint(p.Start, p.End, w.Thickness)
		id := fmt.Sprintf("%s:%s:%s", w.Name, w.Side, p.Kind)

		mat := w.Material
		if w.JambMaterial != nil && p.Kind != PanelFull {
			mat = *w.JambMaterial
		}
		b.AddMesh(mesh.Box(id, mat,
			math.Vec3{X: rect.MinX, Y: w.FloorY + p.Bottom, Z: rect.MinZ},
			math.Vec3{X: rect.MaxX, Y: w.FloorY + p.Top, Z: rect.MaxZ},
		))
		if p.Blocking() {
			b.AddCollider(collision.NewCollider(b.Tag, id, rect, w.FloorY+p.Bottom, w.FloorY+p.Top))
		}
	}
	return panels
}

// Footprint returns the floor rectangle of the full wall.
func (w Wall) Footprint() math.Rect {
	l := lineFor(w.Room, w.Side)
	return l.footprint(l.start, l.end, w.Thickness)
}
