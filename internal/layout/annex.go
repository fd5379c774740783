package layout

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lobby/internal/engine/collision"
	"github.com/Faultbox/midgard-lobby/internal/engine/mesh"
	"github.com/Faultbox/midgard-lobby/internal/scene"
	"github.com/Faultbox/midgard-lobby/pkg/math"
)

// minNavExtent is the smallest walkable width an inset may leave.
const minNavExtent = 0.1

// Annex is one generated annex.
type Annex struct {
	ID string
	// Rect is the annex floor rectangle.
	Rect math.Rect
	// NavRect is Rect shrunk by the navigation inset.
	NavRect math.Rect
	// Walls lists the sides that received a wall.
	Walls []scene.Side
	// Protected maps sides skipped because of a protected zone to that zone.
	Protected map[scene.Side]string
}

// AnnexSet is the result of building a group of annexes under one tag.
type AnnexSet struct {
	Build
	Annexes []Annex
}

// NavRects returns the walkable rectangle of every annex.
func (s AnnexSet) NavRects() []math.Rect {
	out := make([]math.Rect, 0, len(s.Annexes))
	for _, a := range s.Annexes {
		out = append(out, a.NavRect)
	}
	return out
}

// BuildAnnexes generates floor, ceiling and walls for each enabled annex.
// The open side never gets a wall, nor does any side whose wall footprint
// overlaps a protected zone. Disabled annexes and annexes with a
// non-positive size are skipped.
func BuildAnnexes(tag string, annexes []scene.AnnexConfig, zones []ProtectedZone, floorY, thickness float32) AnnexSet {
	set := AnnexSet{Build: Build{Tag: tag}}
	for i, cfg := range annexes {
		id := cfg.ID
		if id == "" {
			id = fmt.Sprintf("annex-%d", i)
		}
		if !cfg.IsEnabled() {
			log.Debug("annex disabled", zap.String("annex", id))
			continue
		}
		if cfg.Size[0] <= 0 || cfg.Size[1] <= 0 || cfg.Size[2] <= 0 {
			log.Warn("annex skipped, non-positive size", zap.String("annex", id), zap.Float32s("size", cfg.Size[:]))
			continue
		}
		set.Annexes = append(set.Annexes, buildAnnex(&set.Build, id, cfg, zones, floorY, thickness))
	}
	return set
}

func buildAnnex(b *Build, id string, cfg scene.AnnexConfig, zones []ProtectedZone, floorY, thickness float32) Annex {
	pos := math.V3(cfg.Position)
	rect := math.RectAround(pos.XZ(), cfg.Size[0], cfg.Size[2])
	y := floorY + pos.Y
	h := cfg.Size[1]

	a := Annex{ID: id, Rect: rect, NavRect: rect.Expand(-clampInset(cfg.NavigationInset, rect))}
	name := "annex:" + id
	b.AddMesh(
		mesh.HorizontalPlane(name+":floor", mesh.MaterialFloor, rect, y, true),
		mesh.HorizontalPlane(name+":ceiling", mesh.MaterialCeiling, rect, y+h, false),
	)

	for _, side := range scene.Sides {
		if side == cfg.OpenSide {
			continue
		}
		wall := Wall{
			Name:      name,
			Room:      rect,
			Side:      side,
			FloorY:    y,
			Height:    h,
			Thickness: thickness,
			Material:  mesh.MaterialWall,
		}
		if z, ok := blockedBy(wall.Footprint(), zones); ok {
			if a.Protected == nil {
				a.Protected = make(map[scene.Side]string)
			}
			a.Protected[side] = z.ID
			log.Debug("annex wall skipped, protected zone",
				zap.String("annex", id), zap.Stringer("side", side), zap.String("zone", z.ID))
			continue
		}
		b.AddWall(wall)
		a.Walls = append(a.Walls, side)
	}
	return a
}

// clampInset keeps the navigation inset non-negative and small enough to
// leave a walkable area.
func clampInset(inset float32, r math.Rect) float32 {
	limit := min(r.Width(), r.Depth())/2 - minNavExtent/2
	return max(0, min(inset, limit))
}

// BuildExtras generates free-standing blocking boxes. Boxes with a
// non-positive extent are skipped.
func BuildExtras(tag string, extras []scene.BoxConfig, floorY float32) Build {
	b := Build{Tag: tag}
	for i, e := range extras {
		id := e.ID
		if id == "" {
			id = fmt.Sprintf("extra-%d", i)
		}
		lo := math.V3(e.Min)
		hi := math.V3(e.Max)
		lo.Y += floorY
		hi.Y += floorY
		box := mesh.Box("extra:"+id, mesh.MaterialFrame, lo, hi)
		if box == nil {
			log.Warn("extra skipped, degenerate box", zap.String("extra", id))
			continue
		}
		b.AddMesh(box)
		r := math.Rect{MinX: lo.X, MaxX: hi.X, MinZ: lo.Z, MaxZ: hi.Z}
		b.AddCollider(collision.NewCollider(tag, id, r, lo.Y, hi.Y))
	}
	return b
}
