package layout

import (
	"regexp"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lobby/internal/scene"
	"github.com/Faultbox/midgard-lobby/pkg/math"
)

// ApproachDepth is how far a doorway approach zone reaches out of the room.
const ApproachDepth = 2.0

// ProtectedZone is a floor area where annex walls are never built.
type ProtectedZone struct {
	ID   string    `json:"id"`
	Rect math.Rect `json:"rect"`
}

var defaultZonePattern = regexp.MustCompile(scene.DefaultProtectedZonePattern)

// ZonePattern compiles the protected zone name pattern, falling back to the
// default pattern when expr is empty or invalid.
func ZonePattern(expr string) *regexp.Regexp {
	if expr == "" {
		return defaultZonePattern
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		log.Warn("invalid protected zone pattern, using default",
			zap.String("pattern", expr), zap.Error(err))
		return defaultZonePattern
	}
	return re
}

// ProtectedZones collects the zones annex walls must avoid: the room's
// explicit zones, scene zones whose name matches pattern, and the approach
// area in front of every enabled doorway of the shell.
func ProtectedZones(room scene.RoomConfig, zones []scene.Zone, pattern *regexp.Regexp) []ProtectedZone {
	var out []ProtectedZone
	for _, z := range room.ProtectedZones {
		r := sanitizeRect(math.Rect{MinX: z.MinX, MaxX: z.MaxX, MinZ: z.MinZ, MaxZ: z.MaxZ})
		if r.Valid() {
			out = append(out, ProtectedZone{ID: z.ID, Rect: r})
		}
	}

	if pattern == nil {
		pattern = defaultZonePattern
	}
	for _, z := range zones {
		if !pattern.MatchString(z.Name) {
			continue
		}
		r := sanitizeRect(math.Rect{MinX: z.Min[0], MaxX: z.Max[0], MinZ: z.Min[1], MaxZ: z.Max[1]})
		if r.Valid() {
			out = append(out, ProtectedZone{ID: z.Name, Rect: r})
		}
	}

	return append(out, approachZones(room)...)
}

// approachZones returns the area just outside each doorway of the room.
func approachZones(room scene.RoomConfig) []ProtectedZone {
	rect := RoomRect(room)
	if !rect.Valid() || room.Height() <= 0 {
		return nil
	}

	var out []ProtectedZone
	if e := room.FrontEntrance; e.Enabled {
		line := lineFor(rect, scene.SideSouth)
		o, _ := ClampOpening(Opening{Width: e.Width, Height: e.Height, Center: e.CenterX}, line.start, line.end, room.Height())
		if !o.Empty() {
			out = append(out, ProtectedZone{
				ID: "approach:front",
				Rect: math.Rect{
					MinX: o.Center - o.Width/2, MaxX: o.Center + o.Width/2,
					MinZ: rect.MaxZ, MaxZ: rect.MaxZ + ApproachDepth,
				},
			})
		}
	}
	if d := room.SideDoorways; d.Enabled {
		line := lineFor(rect, scene.SideEast)
		o, _ := ClampOpening(Opening{Width: d.Width, Height: d.Height, Center: d.CenterZ}, line.start, line.end, room.Height())
		if !o.Empty() {
			minZ, maxZ := o.Center-o.Width/2, o.Center+o.Width/2
			out = append(out,
				ProtectedZone{ID: "approach:east", Rect: math.Rect{MinX: rect.MaxX, MaxX: rect.MaxX + ApproachDepth, MinZ: minZ, MaxZ: maxZ}},
				ProtectedZone{ID: "approach:west", Rect: math.Rect{MinX: rect.MinX - ApproachDepth, MaxX: rect.MinX, MinZ: minZ, MaxZ: maxZ}},
			)
		}
	}
	return out
}

// blockedBy returns the first zone that r overlaps.
func blockedBy(r math.Rect, zones []ProtectedZone) (ProtectedZone, bool) {
	for _, z := range zones {
		if r.Overlaps(z.Rect) {
			return z, true
		}
	}
	return ProtectedZone{}, false
}

// sanitizeRect swaps reversed edges.
func sanitizeRect(r math.Rect) math.Rect {
	if r.MinX > r.MaxX {
		r.MinX, r.MaxX = r.MaxX, r.MinX
	}
	if r.MinZ > r.MaxZ {
		r.MinZ, r.MaxZ = r.MaxZ, r.MinZ
	}
	return r
}
