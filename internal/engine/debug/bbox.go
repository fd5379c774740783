// Package debug builds line geometry for collider, zone and bounds overlays
// and saves viewer screenshots.
package debug

import (
	"strings"

	"github.com/Faultbox/midgard-lobby/internal/engine/collision"
	"github.com/Faultbox/midgard-lobby/pkg/math"
)

// BoxVertexCount is the number of line vertices in a box wireframe
// (12 edges × 2).
const BoxVertexCount = 24

// Color is a linear RGB line color.
type Color [3]float32

// Overlay colors.
var (
	ColorRoom   = Color{1, 1, 1}
	ColorAnnex  = Color{0.2, 0.8, 0.8}
	ColorRooms  = Color{0.3, 0.5, 1}
	ColorCard   = Color{1, 0.85, 0.2}
	ColorExtra  = Color{0.8, 0.3, 0.9}
	ColorZone   = Color{0.2, 0.8, 0.2}
	ColorBounds = Color{1, 0.3, 0.3}
)

// TagColor returns the overlay color for a collider tag.
func TagColor(tag string) Color {
	switch {
	case tag == collision.TagRoom:
		return ColorRoom
	case tag == collision.TagThemeExtra:
		return ColorExtra
	case strings.HasPrefix(tag, "annex:"):
		return ColorAnnex
	case strings.HasPrefix(tag, "cards:"):
		return ColorCard
	default:
		return ColorRooms
	}
}

// BoxVertices returns line vertices for a wireframe box, [x, y, z] per
// vertex.
func BoxVertices(lo, hi math.Vec3) []float32 {
	return []float32{
		// Bottom face
		lo.X, lo.Y, lo.Z, hi.X, lo.Y, lo.Z,
		hi.X, lo.Y, lo.Z, hi.X, lo.Y, hi.Z,
		hi.X, lo.Y, hi.Z, lo.X, lo.Y, hi.Z,
		lo.X, lo.Y, hi.Z, lo.X, lo.Y, lo.Z,
		// Top face
		lo.X, hi.Y, lo.Z, hi.X, hi.Y, lo.Z,
		hi.X, hi.Y, lo.Z, hi.X, hi.Y, hi.Z,
		hi.X, hi.Y, hi.Z, lo.X, hi.Y, hi.Z,
		lo.X, hi.Y, hi.Z, lo.X, hi.Y, lo.Z,
		// Verticals
		lo.X, lo.Y, lo.Z, lo.X, hi.Y, lo.Z,
		hi.X, lo.Y, lo.Z, hi.X, hi.Y, lo.Z,
		hi.X, lo.Y, hi.Z, hi.X, hi.Y, hi.Z,
		lo.X, lo.Y, hi.Z, lo.X, hi.Y, hi.Z,
	}
}

// RectVertices returns line vertices outlining r at height y.
func RectVertices(r math.Rect, y float32) []float32 {
	return []float32{
		r.MinX, y, r.MinZ, r.MaxX, y, r.MinZ,
		r.MaxX, y, r.MinZ, r.MaxX, y, r.MaxZ,
		r.MaxX, y, r.MaxZ, r.MinX, y, r.MaxZ,
		r.MinX, y, r.MaxZ, r.MinX, y, r.MinZ,
	}
}

// Batch groups line vertices by color.
type Batch struct {
	Color    Color
	Vertices []float32
}

// ColliderBatches builds one wireframe batch per overlay color. Disabled
// colliders are skipped.
func ColliderBatches(colliders []collision.Collider) []Batch {
	index := map[Color]int{}
	var out []Batch
	for _, c := range colliders {
		if !c.Enabled {
			continue
		}
		col := TagColor(c.Tag)
		i, ok := index[col]
		if !ok {
			i = len(out)
			index[col] = i
			out = append(out, Batch{Color: col})
		}
		lo := math.Vec3{X: c.MinX, Y: c.MinY, Z: c.MinZ}
		hi := math.Vec3{X: c.MaxX, Y: c.MaxY, Z: c.MaxZ}
		out[i].Vertices = append(out[i].Vertices, BoxVertices(lo, hi)...)
	}
	return out
}
