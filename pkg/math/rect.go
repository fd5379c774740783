package math

// Rect is an axis-aligned rectangle on the floor plane.
type Rect struct {
	MinX float32 `json:"minX"`
	MaxX float32 `json:"maxX"`
	MinZ float32 `json:"minZ"`
	MaxZ float32 `json:"maxZ"`
}

// RectAround returns the rectangle of the given size centered on c.
func RectAround(c Vec2, width, depth float32) Rect {
	return Rect{
		MinX: c.X - width/2,
		MaxX: c.X + width/2,
		MinZ: c.Z - depth/2,
		MaxZ: c.Z + depth/2,
	}
}

// Width returns the X extent.
func (r Rect) Width() float32 { return r.MaxX - r.MinX }

// Depth returns the Z extent.
func (r Rect) Depth() float32 { return r.MaxZ - r.MinZ }

// Center returns the midpoint.
func (r Rect) Center() Vec2 {
	return Vec2{(r.MinX + r.MaxX) / 2, (r.MinZ + r.MaxZ) / 2}
}

// Valid reports whether the rectangle has positive area.
func (r Rect) Valid() bool {
	return r.MinX < r.MaxX && r.MinZ < r.MaxZ
}

// Union returns the component-wise min/max of r and other.
func (r Rect) Union(other Rect) Rect {
	return Rect{
		MinX: min(r.MinX, other.MinX),
		MaxX: max(r.MaxX, other.MaxX),
		MinZ: min(r.MinZ, other.MinZ),
		MaxZ: max(r.MaxZ, other.MaxZ),
	}
}

// Overlaps reports whether the interiors of r and other intersect.
// Rectangles that only share an edge do not overlap.
func (r Rect) Overlaps(other Rect) bool {
	return r.MinX < other.MaxX && r.MaxX > other.MinX &&
		r.MinZ < other.MaxZ && r.MaxZ > other.MinZ
}

// Expand grows the rectangle by d on every side. Negative d shrinks it.
func (r Rect) Expand(d float32) Rect {
	return Rect{r.MinX - d, r.MaxX + d, r.MinZ - d, r.MaxZ + d}
}

// ContainsStrict reports whether p lies strictly inside r.
func (r Rect) ContainsStrict(p Vec2) bool {
	return p.X > r.MinX && p.X < r.MaxX && p.Z > r.MinZ && p.Z < r.MaxZ
}

// Clamp returns p moved onto the closest point of r.
func (r Rect) Clamp(p Vec2) Vec2 {
	return Vec2{
		X: min(max(p.X, r.MinX), r.MaxX),
		Z: min(max(p.Z, r.MinZ), r.MaxZ),
	}
}

// Translate offsets the rectangle by d.
func (r Rect) Translate(d Vec2) Rect {
	return Rect{r.MinX + d.X, r.MaxX + d.X, r.MinZ + d.Z, r.MaxZ + d.Z}
}
