package layout

import (
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lobby/internal/engine/collision"
	"github.com/Faultbox/midgard-lobby/internal/engine/mesh"
	"github.com/Faultbox/midgard-lobby/internal/scene"
	"github.com/Faultbox/midgard-lobby/pkg/math"
)

// Shell is the generated primary room.
type Shell struct {
	Build
	// Rect is the inner floor rectangle, centered on the origin.
	Rect math.Rect
	// Openings holds the clamped doorway of each wall that has one.
	Openings map[scene.Side]Opening
}

// RoomRect returns the floor rectangle of the primary room.
func RoomRect(cfg scene.RoomConfig) math.Rect {
	return math.RectAround(math.Vec2{}, cfg.Width(), cfg.Depth())
}

// BuildRoomShell generates the primary room: floor, ceiling, a solid back
// wall, a front wall split around the entrance and side walls split around
// the side doorways. Every blocking panel gets a collider tagged
// collision.TagRoom.
func BuildRoomShell(cfg scene.RoomConfig) Shell {
	rect := RoomRect(cfg)
	shell := Shell{
		Build:    Build{Tag: collision.TagRoom},
		Rect:     rect,
		Openings: make(map[scene.Side]Opening),
	}
	if !rect.Valid() || cfg.Height() <= 0 {
		log.Warn("room shell skipped, degenerate size", zap.Float32s("size", cfg.Size[:]))
		return shell
	}

	y := cfg.FloorY
	h := cfg.Height()
	shell.AddMesh(
		mesh.HorizontalPlane("room:floor", mesh.MaterialFloor, rect, y, true),
		mesh.HorizontalPlane("room:ceiling", mesh.MaterialCeiling, rect, y+h, false),
	)

	base := Wall{
		Name:      "room",
		Room:      rect,
		FloorY:    y,
		Height:    h,
		Thickness: cfg.CollisionWallThickness,
		Material:  mesh.MaterialWall,
	}

	back := base
	back.Side = scene.SideNorth
	shell.AddWall(back)

	front := base
	front.Side = scene.SideSouth
	if e := cfg.FrontEntrance; e.Enabled {
		front.Opening = shell.clamp(front, Opening{Width: e.Width, Height: e.Height, Center: e.CenterX})
	}
	shell.AddWall(front)

	glass := mesh.MaterialGlass
	for _, side := range []scene.Side{scene.SideEast, scene.SideWest} {
		wall := base
		wall.Side = side
		if d := cfg.SideDoorways; d.Enabled {
			wall.Opening = shell.clamp(wall, Opening{Width: d.Width, Height: d.Height, Center: d.CenterZ})
			if d.Glass {
				wall.JambMaterial = &glass
			}
		}
		shell.AddWall(wall)
	}

	log.Debug("room shell built",
		zap.Int("colliders", len(shell.Colliders)),
		zap.Int("meshes", len(shell.Meshes)),
	)
	return shell
}

// clamp records the clamped opening for the wall and logs adjustments.
func (s *Shell) clamp(w Wall, o Opening) *Opening {
	start, end := w.Span()
	clamped, changed := ClampOpening(o, start, end, w.Height)
	if clamped.Empty() {
		log.Warn("doorway dropped, wall too short",
			zap.Stringer("side", w.Side),
			zap.Float32("length", end-start),
		)
		return nil
	}
	if changed {
		log.Warn("doorway clamped to fit wall",
			zap.Stringer("side", w.Side),
			zap.Float32("width", clamped.Width),
			zap.Float32("height", clamped.Height),
			zap.Float32("center", clamped.Center),
		)
	}
	s.Openings[w.Side] = clamped
	return &clamped
}
