package catalog

import (
	"reflect"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lobby/internal/engine/collision"
	"github.com/Faultbox/midgard-lobby/internal/engine/mesh"
	"github.com/Faultbox/midgard-lobby/internal/layout"
	"github.com/Faultbox/midgard-lobby/internal/scene"
	"github.com/Faultbox/midgard-lobby/pkg/math"
)

// Engine owns the room chains of every catalog category.
type Engine struct {
	mu     sync.Mutex
	reg    *collision.Registry
	sc     *mesh.Scene
	chains map[string]*chain
}

type chain struct {
	cfg   scene.CatalogRoomConfig
	rooms []Room
}

// NewEngine creates an engine that commits geometry to reg and sc.
func NewEngine(reg *collision.Registry, sc *mesh.Scene) *Engine {
	return &Engine{reg: reg, sc: sc, chains: make(map[string]*chain)}
}

// Reconcile makes the category chain hold enough rooms for itemCount items.
// When the room count or the room config changed, every room of the chain
// is torn down and the chain is rebuilt. It reports whether it rebuilt.
func (e *Engine) Reconcile(category string, cfg scene.CatalogRoomConfig, itemCount int) ([]Room, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	want := RoomCount(itemCount, Capacity(cfg))
	if c, ok := e.chains[category]; ok && len(c.rooms) == want && reflect.DeepEqual(c.cfg, cfg) {
		return cloneRooms(c.rooms), false
	}

	e.removeLocked(category)
	rooms := Plan(category, cfg, itemCount)
	for _, room := range rooms {
		b := buildRoom(cfg, room, len(rooms))
		b.Commit(e.reg, e.sc)
	}
	e.chains[category] = &chain{cfg: cfg, rooms: rooms}

	log.Debug("catalog chain rebuilt",
		zap.String("category", category),
		zap.Int("rooms", len(rooms)),
		zap.Int("capacity", Capacity(cfg)),
		zap.Int("items", itemCount),
	)
	return cloneRooms(rooms), true
}

// Remove tears down every room of a category.
func (e *Engine) Remove(category string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removeLocked(category)
}

func (e *Engine) removeLocked(category string) {
	c, ok := e.chains[category]
	if !ok {
		return
	}
	for i := range c.rooms {
		layout.Teardown(e.reg, e.sc, RoomTag(category, i))
	}
	delete(e.chains, category)
}

// Rooms returns the current rooms of a category.
func (e *Engine) Rooms(category string) []Room {
	e.mu.Lock()
	defer e.mu.Unlock()
	if c, ok := e.chains[category]; ok {
		return cloneRooms(c.rooms)
	}
	return nil
}

// Categories returns the categories with a built chain, sorted.
func (e *Engine) Categories() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.chains))
	for k := range e.chains {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func cloneRooms(rooms []Room) []Room {
	out := make([]Room, len(rooms))
	for i, r := range rooms {
		r.Slots = append([]WallSlot(nil), r.Slots...)
		out[i] = r
	}
	return out
}

// buildRoom generates the shell of one chained room. The back wall carries
// a connector unless the room is last, the front wall unless it is first.
// The first room's inner wall carries the configured entrance.
func buildRoom(cfg scene.CatalogRoomConfig, room Room, count int) layout.Build {
	b := layout.Build{Tag: RoomTag(room.Category, room.Index)}
	w := wallsFor(cfg)
	y := room.Center.Y
	h := cfg.Size[1]
	name := b.Tag

	b.AddMesh(
		mesh.HorizontalPlane(name+":floor", mesh.MaterialFloor, room.Rect, y, true),
		mesh.HorizontalPlane(name+":ceiling", mesh.MaterialCeiling, room.Rect, y+h, false),
	)

	base := layout.Wall{
		Name:      name,
		Room:      room.Rect,
		FloorY:    y,
		Height:    h,
		Thickness: cfg.WallThickness,
		Material:  mesh.MaterialWall,
	}

	back := base
	back.Side = w.back
	if room.Index < count-1 {
		back.Opening = connector(cfg, back, w.inner)
	}
	b.AddWall(back)

	front := base
	front.Side = w.front
	if room.Index > 0 {
		front.Opening = connector(cfg, front, w.inner)
	}
	b.AddWall(front)

	outer := base
	outer.Side = w.outer
	b.AddWall(outer)

	inner := base
	inner.Side = w.inner
	if room.Index == 0 && cfg.Entrance != nil {
		inner.Opening = &layout.Opening{
			Width:  cfg.Entrance.Width,
			Height: cfg.Entrance.Height,
			Center: room.Center.Z + cfg.Entrance.CenterZ,
		}
	}
	b.AddWall(inner)

	return b
}

// connector places a doorway in the free wall end nearest the inner side so
// it never overlaps a card slot. When that end is too narrow the connector
// keeps scene.MinConnectorWidth and the chain is logged as crowded.
func connector(cfg scene.CatalogRoomConfig, wall layout.Wall, inner scene.Side) *layout.Opening {
	start, end := wall.Span()
	free := freeEnd(cfg, end-start)
	width := min(cfg.Connector.Width, free-2*layout.MinJambWidth)
	if width < scene.MinConnectorWidth {
		log.Warn("catalog connector does not fit beside cards",
			zap.Stringer("side", wall.Side),
			zap.Float32("free", free),
			zap.Float32("width", scene.MinConnectorWidth),
		)
		width = scene.MinConnectorWidth
	}

	center := start + layout.MinJambWidth + width/2
	if inner == scene.SideEast {
		center = end - layout.MinJambWidth - width/2
	}
	return &layout.Opening{Width: width, Height: cfg.Connector.Height, Center: center}
}

// freeEnd returns the wall left at each end of a wall of the given length
// once its cards are centered on it.
func freeEnd(cfg scene.CatalogRoomConfig, length float32) float32 {
	l := cfg.Layout
	c := cfg.Card.Width
	n := WallCapacity(length, l.WallMargin, l.HorizontalGap, c)
	if n == 0 {
		return length / 2
	}
	span := float32(n)*c + float32(n-1)*l.HorizontalGap
	return (length - span) / 2
}

// slotBox returns the hitbox of a card standing in slot.
func slotBox(slot WallSlot, width, height float32) (lo, hi math.Vec3) {
	hw, hh := width/2, height/2
	const depth = 0.02
	p := slot.Position
	if slot.Side == scene.SideEast || slot.Side == scene.SideWest {
		return math.Vec3{X: p.X - depth, Y: p.Y - hh, Z: p.Z - hw}, math.Vec3{X: p.X + depth, Y: p.Y + hh, Z: p.Z + hw}
	}
	return math.Vec3{X: p.X - hw, Y: p.Y - hh, Z: p.Z - depth}, math.Vec3{X: p.X + hw, Y: p.Y + hh, Z: p.Z + depth}
}
