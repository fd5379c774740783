package collision

import "github.com/Faultbox/midgard-lobby/pkg/math"

// MaxResolvePasses bounds how many push-out passes Resolve performs.
const MaxResolvePasses = 3

// Resolve pushes pos out of every enabled collider whose vertical span
// contains sampleY. Each collider is expanded by radius on the floor plane;
// a position strictly inside the expanded rectangle snaps to its nearest
// edge. Equal distances resolve in the order min X, max X, min Z, max Z.
//
// Passes repeat until one makes no correction or MaxResolvePasses is reached,
// so several simultaneous overlaps are settled incrementally, not exactly.
// Clamping to navigation bounds is the caller's job.
func Resolve(pos math.Vec2, colliders []Collider, radius, sampleY float32) math.Vec2 {
	for pass := 0; pass < MaxResolvePasses; pass++ {
		corrected := false
		for i := range colliders {
			c := &colliders[i]
			if !c.Enabled || sampleY < c.MinY || sampleY > c.MaxY {
				continue
			}
			expanded := c.Rect().Expand(radius)
			if !expanded.ContainsStrict(pos) {
				continue
			}
			pos = nearestEdge(pos, expanded)
			corrected = true
		}
		if !corrected {
			break
		}
	}
	return pos
}

func nearestEdge(p math.Vec2, r math.Rect) math.Vec2 {
	dists := [4]float32{
		p.X - r.MinX,
		r.MaxX - p.X,
		p.Z - r.MinZ,
		r.MaxZ - p.Z,
	}
	best := 0
	for i := 1; i < len(dists); i++ {
		if dists[i] < dists[best] {
			best = i
		}
	}
	switch best {
	case 0:
		p.X = r.MinX
	case 1:
		p.X = r.MaxX
	case 2:
		p.Z = r.MinZ
	default:
		p.Z = r.MaxZ
	}
	return p
}
