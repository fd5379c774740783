// Package lobby is the facade collaborators use: it owns the collider
// registry, the scene ownership map and the catalog pipeline, and exposes
// queries for movement, bounds, picking and diagnostics.
package lobby

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lobby/internal/catalog"
	"github.com/Faultbox/midgard-lobby/internal/engine/collision"
	"github.com/Faultbox/midgard-lobby/internal/engine/mesh"
	"github.com/Faultbox/midgard-lobby/internal/engine/picking"
	"github.com/Faultbox/midgard-lobby/internal/layout"
	"github.com/Faultbox/midgard-lobby/internal/logger"
	"github.com/Faultbox/midgard-lobby/internal/scene"
	"github.com/Faultbox/midgard-lobby/pkg/math"
)

var log = logger.Named("lobby")

// Options configures a Lobby.
type Options struct {
	// Images loads card textures. Nil uses placeholders.
	Images catalog.ImageLoader
	// Feed is the catalog item feed.
	Feed []catalog.Item
	// CatalogDisabled skips catalog rooms entirely, e.g. after a feed
	// failed to decode.
	CatalogDisabled bool
	// OnMesh is called for every mesh handed to the scene, e.g. to upload
	// it to the GPU.
	OnMesh func(tag string, m *mesh.Mesh)
}

// Lobby holds the generated world.
type Lobby struct {
	cfg   *scene.Config
	reg   *collision.Registry
	sc    *mesh.Scene
	cards *catalog.Pipeline
	opts  Options

	mu       sync.RWMutex
	room     scene.RoomConfig
	zones    []layout.ProtectedZone
	baseNav  []math.Rect
	themeNav []math.Rect
	cardNav  []math.Rect
	themeFP  *scene.FloorplanConfig
	unlocked map[string][]math.Rect
	override *math.Rect
	bounds   math.Rect
	source   layout.BoundsSource
	themeID  string
}

// New generates the primary room and base floorplan from cfg. Catalog rooms
// are built by ApplyTheme.
func New(cfg *scene.Config, opts Options) *Lobby {
	reg := collision.NewRegistry()
	sc := mesh.NewScene()
	sc.OnAdd = opts.OnMesh

	l := &Lobby{
		cfg:      cfg,
		reg:      reg,
		sc:       sc,
		cards:    catalog.NewPipeline(catalog.NewEngine(reg, sc), reg, sc, opts.Images),
		opts:     opts,
		unlocked: make(map[string][]math.Rect),
	}

	l.mu.Lock()
	l.buildRoomLocked(cfg.Room)
	l.recomputeBoundsLocked()
	l.mu.Unlock()
	return l
}

// Config returns the scene configuration the lobby was built from.
func (l *Lobby) Config() *scene.Config {
	return l.cfg
}

// buildRoomLocked rebuilds the shell, protected zones and base annexes.
func (l *Lobby) buildRoomLocked(room scene.RoomConfig) {
	layout.Teardown(l.reg, l.sc, collision.TagRoom)
	layout.Teardown(l.reg, l.sc, layout.AnnexTag(layout.GroupBase))

	l.room = room
	shell := layout.BuildRoomShell(room)
	shell.Commit(l.reg, l.sc)

	l.zones = ProtectedZonesFor(room, l.cfg.Zones)
	base := layout.BuildAnnexes(layout.AnnexTag(layout.GroupBase), room.Floorplan.Annexes, l.zones, room.FloorY, room.CollisionWallThickness)
	base.Commit(l.reg, l.sc)
	l.baseNav = base.NavRects()
}

// ProtectedZonesFor derives the protected zones of a room.
func ProtectedZonesFor(room scene.RoomConfig, zones []scene.Zone) []layout.ProtectedZone {
	return layout.ProtectedZones(room, zones, layout.ZonePattern(room.Floorplan.ProtectedZonePattern))
}

// recomputeBoundsLocked derives navigation bounds from scratch.
func (l *Lobby) recomputeBoundsLocked() {
	var unlocked []math.Rect
	ids := make([]string, 0, len(l.unlocked))
	for id := range l.unlocked {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		unlocked = append(unlocked, l.unlocked[id]...)
	}

	in := layout.BoundsInput{
		Room:            layout.RoomRect(l.room),
		Base:            append(append([]math.Rect(nil), l.baseNav...), unlocked...),
		Theme:           l.themeNav,
		ExtendWithTheme: layout.ExtendsWithTheme(l.themeFP),
		Catalog:         l.cardNav,
		BaseBounds:      l.room.Floorplan.NavigationBounds,
		Override:        l.override,
	}
	if l.themeFP != nil {
		in.ThemeBounds = l.themeFP.NavigationBounds
	}
	l.bounds, l.source = layout.ResolveBounds(in)
	log.Debug("navigation bounds recomputed",
		zap.String("source", string(l.source)),
		zap.Float32("minX", l.bounds.MinX), zap.Float32("maxX", l.bounds.MaxX),
		zap.Float32("minZ", l.bounds.MinZ), zap.Float32("maxZ", l.bounds.MaxZ),
	)
}

// Colliders returns a snapshot of every registered collider.
func (l *Lobby) Colliders() []collision.Collider {
	return l.reg.All()
}

// RoomBounds returns the current navigation bounds.
func (l *Lobby) RoomBounds() math.Rect {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.bounds
}

// BoundsSource reports which input decided the current bounds.
func (l *Lobby) BoundsSource() layout.BoundsSource {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.source
}

// SetRoomBounds installs a runtime bounds override. Nil removes it.
func (l *Lobby) SetRoomBounds(r *math.Rect) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if r == nil {
		l.override = nil
	} else {
		o := *r
		l.override = &o
	}
	l.recomputeBoundsLocked()
}

// ApplyThemeFloorplan replaces the theme annexes and extras with fp and
// recomputes bounds. A nil fp behaves like ResetThemeFloorplan.
func (l *Lobby) ApplyThemeFloorplan(fp *scene.FloorplanConfig) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.applyThemeFloorplanLocked(fp)
}

func (l *Lobby) applyThemeFloorplanLocked(fp *scene.FloorplanConfig) {
	layout.Teardown(l.reg, l.sc, layout.AnnexTag(layout.GroupTheme))
	layout.Teardown(l.reg, l.sc, collision.TagThemeExtra)
	l.themeNav = nil
	l.themeFP = nil

	if fp != nil {
		c := *fp
		l.themeFP = &c
		set := layout.BuildAnnexes(layout.AnnexTag(layout.GroupTheme), fp.Annexes, l.zones, l.room.FloorY, l.room.CollisionWallThickness)
		set.Commit(l.reg, l.sc)
		l.themeNav = set.NavRects()

		extras := layout.BuildExtras(collision.TagThemeExtra, fp.Extras, l.room.FloorY)
		extras.Commit(l.reg, l.sc)
	}
	l.recomputeBoundsLocked()
}

// ResetThemeFloorplan removes the theme annexes and extras.
func (l *Lobby) ResetThemeFloorplan() {
	l.ApplyThemeFloorplan(nil)
}

// UnlockAnnexes builds annexes that become available at runtime under their
// own tag. Unlocking the same id again replaces the previous set.
func (l *Lobby) UnlockAnnexes(id string, annexes []scene.AnnexConfig) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tag := layout.UnlockTag(id)
	layout.Teardown(l.reg, l.sc, tag)
	set := layout.BuildAnnexes(tag, annexes, l.zones, l.room.FloorY, l.room.CollisionWallThickness)
	set.Commit(l.reg, l.sc)
	l.unlocked[id] = set.NavRects()
	l.recomputeBoundsLocked()

	log.Info("annexes unlocked", zap.String("unlock", id), zap.Int("annexes", len(set.Annexes)))
}

// LockAnnexes removes annexes added by UnlockAnnexes.
func (l *Lobby) LockAnnexes(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.unlocked[id]; !ok {
		return
	}
	layout.Teardown(l.reg, l.sc, layout.UnlockTag(id))
	delete(l.unlocked, id)
	l.recomputeBoundsLocked()
}

// ApplyTheme switches to themeID: the room override is merged onto the base
// room, the theme floorplan replaces the previous one and catalog cards are
// rebuilt for the theme's content. Cards are staged first; the room,
// floorplan and cards of the theme are then committed together, so a
// superseded or canceled call leaves the previous theme in place. Built
// catalog rooms join the navigation bounds. It returns catalog.ErrStale when
// another ApplyTheme superseded this one.
func (l *Lobby) ApplyTheme(ctx context.Context, themeID string) error {
	applyID := uuid.NewString()
	theme := l.cfg.Theme(themeID)

	tmp := scene.Config{Room: theme.Room.Merge(l.cfg.Room)}
	for _, n := range tmp.Normalize() {
		log.Warn("theme room override adjusted", zap.String("theme", themeID), zap.String("note", n))
	}
	room := tmp.Room

	commitWorld := func(rooms []catalog.Room) {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.cardNav = l.cardNav[:0]
		for _, r := range rooms {
			l.cardNav = append(l.cardNav, r.Rect)
		}
		if !reflect.DeepEqual(room, l.room) {
			l.buildRoomLocked(room)
		}
		l.applyThemeFloorplanLocked(theme.Floorplan)
		l.themeID = themeID
	}

	catalogCfg := l.cfg.Catalog
	if l.opts.CatalogDisabled {
		catalogCfg = scene.CatalogConfig{}
	}
	err := l.cards.ApplyWith(ctx, themeID, catalogCfg, l.opts.Feed, commitWorld)
	if errors.Is(err, catalog.ErrStale) {
		log.Debug("theme superseded", zap.String("theme", themeID), zap.String("apply", applyID))
		return err
	}
	if err != nil {
		return fmt.Errorf("apply theme %s: %w", themeID, err)
	}

	log.Info("theme applied",
		zap.String("theme", themeID),
		zap.String("apply", applyID),
	)
	return nil
}

// Theme returns the id of the last applied theme.
func (l *Lobby) Theme() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.themeID
}

// Targets returns the interactive cards.
func (l *Lobby) Targets() []catalog.Target {
	return l.cards.Targets()
}

// CatalogRooms returns the built rooms of every category, in category order.
func (l *Lobby) CatalogRooms() []catalog.Room {
	var out []catalog.Room
	for _, cat := range l.cards.Categories() {
		out = append(out, l.cards.Rooms(cat)...)
	}
	return out
}

// ProtectedZones returns the zones annex walls avoid.
func (l *Lobby) ProtectedZones() []layout.ProtectedZone {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]layout.ProtectedZone(nil), l.zones...)
}

// Resolve moves a desired position out of colliders and clamps it to the
// navigation bounds. The position's Y selects which colliders block.
func (l *Lobby) Resolve(pos math.Vec3, radius float32) math.Vec3 {
	p := collision.Resolve(pos.XZ(), l.reg.All(), radius, pos.Y)
	return pos.WithXZ(l.RoomBounds().Clamp(p))
}

// Pick returns the nearest target hit by ray.
func (l *Lobby) Pick(ray picking.Ray) (catalog.Target, bool) {
	targets := l.Targets()
	boxes := make([]picking.AABB, len(targets))
	for i, t := range targets {
		boxes[i] = t.Hitbox
	}
	i, _ := ray.Nearest(boxes)
	if i < 0 {
		return catalog.Target{}, false
	}
	return targets[i], true
}

// Stats are diagnostic counts.
type Stats struct {
	Theme        string               `json:"theme"`
	Colliders    []collision.TagCount `json:"colliders"`
	Meshes       map[string]int       `json:"meshes"`
	Targets      int                  `json:"targets"`
	Bounds       math.Rect            `json:"bounds"`
	BoundsSource layout.BoundsSource  `json:"boundsSource"`
}

// PropStats returns collider and mesh counts by tag.
func (l *Lobby) PropStats() Stats {
	l.mu.RLock()
	s := Stats{Theme: l.themeID, Bounds: l.bounds, BoundsSource: l.source}
	l.mu.RUnlock()

	s.Colliders = l.reg.Stats()
	s.Meshes = l.sc.Counts()
	s.Targets = len(l.Targets())
	return s
}

// Each visits every owned mesh in tag order.
func (l *Lobby) Each(fn func(tag string, m *mesh.Mesh)) {
	l.sc.Each(fn)
}

// Close disposes all geometry.
func (l *Lobby) Close() {
	l.cards.Clear()
	l.sc.Clear()
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, t := range l.reg.Stats() {
		l.reg.RemoveByTag(t.Tag)
	}
}
