package layout

import (
	"github.com/Faultbox/midgard-lobby/internal/scene"
	"github.com/Faultbox/midgard-lobby/pkg/math"
)

// Bounds limits.
const (
	// MinBoundsExtent is the smallest width or depth of walkable bounds.
	MinBoundsExtent = 0.5
	// MaxWorldExtent caps every bounds coordinate.
	MaxWorldExtent = 1000
)

// BoundsSource names which input decided the resolved bounds.
type BoundsSource string

const (
	SourceOverride BoundsSource = "override"
	SourceTheme    BoundsSource = "theme"
	SourceBase     BoundsSource = "base"
	SourceUnion    BoundsSource = "union"
)

// BoundsInput is everything navigation bounds are derived from.
type BoundsInput struct {
	Room math.Rect
	// Base holds nav rects of base annexes and any annexes unlocked at runtime.
	Base []math.Rect
	// Theme holds nav rects of the active theme's annexes.
	Theme []math.Rect
	// ExtendWithTheme includes Theme in the union.
	ExtendWithTheme bool
	// Catalog holds the floor rects of built catalog rooms.
	Catalog []math.Rect

	BaseBounds  *scene.BoundsConfig
	ThemeBounds *scene.BoundsConfig
	Override    *math.Rect
}

// ResolveBounds returns the rectangle the player is clamped to. Precedence:
// runtime override, theme navigationBounds, base navigationBounds, then the
// union of the room, annex nav rects and catalog rooms. The result is always recomputed
// from the full input.
func ResolveBounds(in BoundsInput) (math.Rect, BoundsSource) {
	switch {
	case in.Override != nil:
		return SanitizeBounds(*in.Override), SourceOverride
	case in.ThemeBounds != nil:
		return SanitizeBounds(boundsRect(*in.ThemeBounds)), SourceTheme
	case in.BaseBounds != nil:
		return SanitizeBounds(boundsRect(*in.BaseBounds)), SourceBase
	}

	r := in.Room
	for _, b := range in.Base {
		r = r.Union(b)
	}
	for _, b := range in.Catalog {
		r = r.Union(b)
	}
	if in.ExtendWithTheme {
		for _, b := range in.Theme {
			r = r.Union(b)
		}
	}
	return SanitizeBounds(r), SourceUnion
}

// SanitizeBounds swaps reversed edges, grows rectangles narrower than
// MinBoundsExtent around their center and clamps coordinates to
// ±MaxWorldExtent.
func SanitizeBounds(r math.Rect) math.Rect {
	r = sanitizeRect(r)
	r.MinX, r.MaxX = clampSpan(r.MinX, r.MaxX)
	r.MinZ, r.MaxZ = clampSpan(r.MinZ, r.MaxZ)
	return r
}

func clampSpan(lo, hi float32) (float32, float32) {
	lo = min(max(lo, -MaxWorldExtent), MaxWorldExtent)
	hi = min(max(hi, -MaxWorldExtent), MaxWorldExtent)
	if hi-lo >= MinBoundsExtent {
		return lo, hi
	}
	c := (lo + hi) / 2
	c = min(max(c, -MaxWorldExtent+MinBoundsExtent/2), MaxWorldExtent-MinBoundsExtent/2)
	return c - MinBoundsExtent/2, c + MinBoundsExtent/2
}

func boundsRect(b scene.BoundsConfig) math.Rect {
	return math.Rect{MinX: b.MinX, MaxX: b.MaxX, MinZ: b.MinZ, MaxZ: b.MaxZ}
}

// ExtendsWithTheme reports whether a theme floorplan's annexes widen the
// bounds union. Absent profile or flag means they do.
func ExtendsWithTheme(fp *scene.FloorplanConfig) bool {
	if fp == nil || fp.NavigationProfile == nil || fp.NavigationProfile.ExtendBounds == nil {
		return true
	}
	return *fp.NavigationProfile.ExtendBounds
}
