package catalog

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/midgard-lobby/internal/layout"
	"github.com/Faultbox/midgard-lobby/internal/scene"
	"github.com/Faultbox/midgard-lobby/pkg/math"
)

// cardInset keeps cards off the wall surface.
const cardInset = 0.02

// WallKind names a card-bearing wall of a catalog room.
type WallKind uint8

const (
	WallBack WallKind = iota
	WallOuter
	WallFront
)

// String returns the wall kind name.
func (k WallKind) String() string {
	switch k {
	case WallOuter:
		return "outer"
	case WallFront:
		return "front"
	default:
		return "back"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k WallKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// WallSlot is a place for one card.
type WallSlot struct {
	Wall      WallKind   `json:"wall"`
	Side      scene.Side `json:"side"`
	Position  math.Vec3  `json:"position"`
	RotationY float32    `json:"rotationY"`
}

// Room is one display room of a category chain.
type Room struct {
	Category string     `json:"category"`
	Index    int        `json:"index"`
	Center   math.Vec3  `json:"center"`
	Rect     math.Rect  `json:"rect"`
	Capacity int        `json:"capacity"`
	Slots    []WallSlot `json:"slots"`
}

// RoomTag returns the collider and mesh tag of one room of a category.
func RoomTag(category string, index int) string {
	return fmt.Sprintf("catalog:%s:%d", category, index)
}

// CardTag returns the tag owning a category's cards.
func CardTag(category string) string {
	return "cards:" + category
}

// walls resolves which side each wall kind of a room stands on. The back
// wall faces the step direction, the outer wall is configured and the inner
// wall faces the lobby.
type walls struct {
	back, outer, front, inner scene.Side
}

func wallsFor(cfg scene.CatalogRoomConfig) walls {
	w := walls{back: scene.SideNorth, outer: cfg.OuterSide}
	if cfg.Step[2] > 0 {
		w.back = scene.SideSouth
	}
	if w.outer != scene.SideEast && w.outer != scene.SideWest {
		w.outer = scene.SideEast
	}
	w.front = w.back.Opposite()
	w.inner = w.outer.Opposite()
	return w
}

// WallCapacity returns how many cards of width c fit on a wall of the given
// length with margin m at both ends and gap g between cards.
func WallCapacity(length, m, g, c float32) int {
	if c+g <= 0 {
		return 0
	}
	usable := length - 2*m
	n := int(gomath.Floor(float64((usable+g)/(c+g)) + 1e-4))
	return max(0, n)
}

// wallLengths returns the lengths of the back, outer and front walls.
func wallLengths(cfg scene.CatalogRoomConfig) (back, outer, front float32) {
	return cfg.Size[0], cfg.Size[2], cfg.Size[0]
}

// Capacity returns the number of card slots in one room.
func Capacity(cfg scene.CatalogRoomConfig) int {
	l := cfg.Layout
	back, outer, front := wallLengths(cfg)
	c := cfg.Card.Width
	return WallCapacity(back, l.WallMargin, l.HorizontalGap, c) +
		WallCapacity(outer, l.WallMargin, l.HorizontalGap, c) +
		WallCapacity(front, l.WallMargin, l.HorizontalGap, c)
}

// RoomCount returns how many rooms a category needs for itemCount items.
// There is always at least one room.
func RoomCount(itemCount, capacity int) int {
	if itemCount <= 0 || capacity <= 0 {
		return 1
	}
	return (itemCount + capacity - 1) / capacity
}

// Plan computes the rooms of a category chain without building geometry.
func Plan(category string, cfg scene.CatalogRoomConfig, itemCount int) []Room {
	capacity := Capacity(cfg)
	count := RoomCount(itemCount, capacity)
	origin := math.V3(cfg.Origin)
	step := math.V3(cfg.Step)

	rooms := make([]Room, count)
	for i := range rooms {
		center := origin.Add(step.Scale(float32(i)))
		rooms[i] = Room{
			Category: category,
			Index:    i,
			Center:   center,
			Rect:     math.RectAround(center.XZ(), cfg.Size[0], cfg.Size[2]),
			Capacity: capacity,
		}
		rooms[i].Slots = slots(cfg, rooms[i])
	}
	return rooms
}

// slots lays out the card slots of a room: back wall, outer wall, then
// front wall, each ordered along the wall axis.
func slots(cfg scene.CatalogRoomConfig, room Room) []WallSlot {
	w := wallsFor(cfg)
	l := cfg.Layout
	c := cfg.Card.Width
	stride := c + l.HorizontalGap
	y := room.Center.Y + l.DisplayY
	offset := cfg.WallThickness/2 + cardInset

	var out []WallSlot
	for _, kind := range []WallKind{WallBack, WallOuter, WallFront} {
		side := w.back
		switch kind {
		case WallOuter:
			side = w.outer
		case WallFront:
			side = w.front
		}

		start, end := layout.Wall{Room: room.Rect, Side: side}.Span()
		n := WallCapacity(end-start, l.WallMargin, l.HorizontalGap, c)
		if n == 0 {
			continue
		}
		span := float32(n)*c + float32(n-1)*l.HorizontalGap
		first := (start+end)/2 - span/2 + c/2

		for i := 0; i < n; i++ {
			along := first + float32(i)*stride
			out = append(out, WallSlot{
				Wall:      kind,
				Side:      side,
				Position:  slotPosition(room.Rect, side, along, offset, y),
				RotationY: facing(side),
			})
		}
	}
	return out
}

// slotPosition places a point on the inner face of the wall on side.
func slotPosition(r math.Rect, side scene.Side, along, offset, y float32) math.Vec3 {
	switch side {
	case scene.SideNorth:
		return math.Vec3{X: along, Y: y, Z: r.MinZ + offset}
	case scene.SideSouth:
		return math.Vec3{X: along, Y: y, Z: r.MaxZ - offset}
	case scene.SideEast:
		return math.Vec3{X: r.MaxX - offset, Y: y, Z: along}
	default:
		return math.Vec3{X: r.MinX + offset, Y: y, Z: along}
	}
}

// facing returns the rotation that turns a card on side toward the room
// center. Cards face +Z at rotation 0.
func facing(side scene.Side) float32 {
	switch side {
	case scene.SideSouth:
		return gomath.Pi
	case scene.SideEast:
		return -gomath.Pi / 2
	case scene.SideWest:
		return gomath.Pi / 2
	default:
		return 0
	}
}
