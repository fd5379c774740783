// Package collision holds the tagged collider registry and the positional
// resolver that player movement queries every frame.
package collision

import (
	"sort"
	"sync"

	"github.com/Faultbox/midgard-lobby/pkg/math"
)

// Well-known collider tags. Annex and catalog tags are built with AnnexTag
// and CatalogTag.
const (
	TagRoom       = "room"
	TagThemeExtra = "theme-extra"
)

// Collider is an axis-aligned box used only for positional blocking.
type Collider struct {
	Tag     string  `json:"tag"`
	ID      string  `json:"id"`
	MinX    float32 `json:"minX"`
	MaxX    float32 `json:"maxX"`
	MinY    float32 `json:"minY"`
	MaxY    float32 `json:"maxY"`
	MinZ    float32 `json:"minZ"`
	MaxZ    float32 `json:"maxZ"`
	Enabled bool    `json:"enabled"`
}

// NewCollider builds an enabled collider from a floor rectangle and a
// vertical span.
func NewCollider(tag, id string, r math.Rect, minY, maxY float32) Collider {
	return Collider{
		Tag:     tag,
		ID:      id,
		MinX:    r.MinX,
		MaxX:    r.MaxX,
		MinY:    minY,
		MaxY:    maxY,
		MinZ:    r.MinZ,
		MaxZ:    r.MaxZ,
		Enabled: true,
	}
}

// Rect returns the floor footprint.
func (c Collider) Rect() math.Rect {
	return math.Rect{MinX: c.MinX, MaxX: c.MaxX, MinZ: c.MinZ, MaxZ: c.MaxZ}
}

// Valid reports whether every axis has positive extent. Builders drop
// invalid colliders before calling Registry.Add.
func (c Collider) Valid() bool {
	return c.MinX < c.MaxX && c.MinZ < c.MaxZ && c.MinY <= c.MaxY
}

// Registry is a flat collection of tagged colliders.
//
// Add never deduplicates. Callers must RemoveByTag before rebuilding any
// tagged geometry.
type Registry struct {
	mu        sync.RWMutex
	colliders []Collider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add appends colliders.
func (r *Registry) Add(colliders ...Collider) {
	r.mu.Lock()
	r.colliders = append(r.colliders, colliders...)
	r.mu.Unlock()
}

// RemoveByTag drops every collider carrying tag and returns how many were removed.
func (r *Registry) RemoveByTag(tag string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.colliders[:0]
	for _, c := range r.colliders {
		if c.Tag != tag {
			kept = append(kept, c)
		}
	}
	removed := len(r.colliders) - len(kept)
	// Clear the tail so removed entries do not linger in the backing array.
	for i := len(kept); i < len(r.colliders); i++ {
		r.colliders[i] = Collider{}
	}
	r.colliders = kept
	return removed
}

// All returns a snapshot of every collider.
func (r *Registry) All() []Collider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Collider, len(r.colliders))
	copy(out, r.colliders)
	return out
}

// Len returns the number of registered colliders.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.colliders)
}

// TagCount is a per-tag collider count.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Stats returns collider counts grouped by tag, sorted by tag.
func (r *Registry) Stats() []TagCount {
	r.mu.RLock()
	counts := make(map[string]int)
	for _, c := range r.colliders {
		counts[c.Tag]++
	}
	r.mu.RUnlock()

	out := make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out
}
