// Package layout generates the lobby's room shell, floorplan annexes and
// navigation bounds from scene configuration.
//
// Builders are pure: they return a Build holding colliders and meshes, and
// the owner commits it to a collision.Registry and mesh.Scene under the
// build's tag. Tearing a tag down removes both.
package layout

import (
	"github.com/Faultbox/midgard-lobby/internal/engine/collision"
	"github.com/Faultbox/midgard-lobby/internal/engine/mesh"
	"github.com/Faultbox/midgard-lobby/internal/logger"
)

var log = logger.Named("layout")

// Build is generated geometry that has not been committed yet.
type Build struct {
	Tag       string
	Colliders []collision.Collider
	Meshes    []*mesh.Mesh
}

// AddCollider appends c under the build tag. Degenerate colliders are
// dropped silently.
func (b *Build) AddCollider(c collision.Collider) {
	if !c.Valid() {
		log.L().Debug("degenerate collider dropped")
		return
	}
	c.Tag = b.Tag
	b.Colliders = append(b.Colliders, c)
}

// AddMesh appends meshes, skipping nil ones produced by degenerate input.
func (b *Build) AddMesh(meshes ...*mesh.Mesh) {
	for _, m := range meshes {
		if m != nil {
			b.Meshes = append(b.Meshes, m)
		}
	}
}

// Merge appends other's geometry, retagging its colliders.
func (b *Build) Merge(other Build) {
	for _, c := range other.Colliders {
		b.AddCollider(c)
	}
	b.AddMesh(other.Meshes...)
}

// Commit registers the colliders and hands the meshes to the scene.
func (b Build) Commit(reg *collision.Registry, sc *mesh.Scene) {
	reg.Add(b.Colliders...)
	sc.Add(b.Tag, b.Meshes...)
}

// Dispose releases the meshes of a build that will never be committed.
func (b Build) Dispose() {
	for _, m := range b.Meshes {
		m.Dispose()
	}
}

// Teardown disposes every mesh owned by tag and removes its colliders.
// Calling it for an absent tag is a no-op.
func Teardown(reg *collision.Registry, sc *mesh.Scene, tag string) {
	sc.Remove(tag)
	reg.RemoveByTag(tag)
}

// AnnexTag returns the collider tag for a group of annexes, e.g. "annex:base".
func AnnexTag(group string) string {
	return "annex:" + group
}

// Annex tag groups.
const (
	GroupBase  = "base"
	GroupTheme = "theme"
)

// UnlockTag returns the tag for annexes unlocked at runtime.
func UnlockTag(id string) string {
	return AnnexTag("unlock:" + id)
}
