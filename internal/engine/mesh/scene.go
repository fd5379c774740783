package mesh

import (
	"sort"
	"sync"
)

// Scene is an explicit ownership map from tag to the meshes that tag owns.
// Removing a tag disposes every mesh before forgetting it, so disposal is a
// lookup-and-clear rather than a tree walk.
type Scene struct {
	mu    sync.RWMutex
	owned map[string][]*Mesh

	// OnAdd is invoked for each mesh added, e.g. to upload it to the GPU.
	OnAdd func(tag string, m *Mesh)
}

// NewScene creates an empty scene.
func NewScene() *Scene {
	return &Scene{owned: make(map[string][]*Mesh)}
}

// Add places meshes under tag. Nil meshes are skipped.
func (s *Scene) Add(tag string, meshes ...*Mesh) {
	s.mu.Lock()
	var added []*Mesh
	for _, m := range meshes {
		if m == nil {
			continue
		}
		s.owned[tag] = append(s.owned[tag], m)
		added = append(added, m)
	}
	hook := s.OnAdd
	s.mu.Unlock()

	if hook != nil {
		for _, m := range added {
			hook(tag, m)
		}
	}
}

// Remove disposes and forgets every mesh owned by tag. It returns the number
// of meshes released.
func (s *Scene) Remove(tag string) int {
	s.mu.Lock()
	meshes := s.owned[tag]
	delete(s.owned, tag)
	s.mu.Unlock()

	for _, m := range meshes {
		m.Dispose()
	}
	return len(meshes)
}

// Meshes returns the meshes owned by tag.
func (s *Scene) Meshes(tag string) []*Mesh {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Mesh, len(s.owned[tag]))
	copy(out, s.owned[tag])
	return out
}

// Each calls fn for every owned mesh, grouped by tag in sorted order.
func (s *Scene) Each(fn func(tag string, m *Mesh)) {
	s.mu.RLock()
	tags := make([]string, 0, len(s.owned))
	for tag := range s.owned {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	snapshot := make([][]*Mesh, len(tags))
	for i, tag := range tags {
		snapshot[i] = append([]*Mesh(nil), s.owned[tag]...)
	}
	s.mu.RUnlock()

	for i, tag := range tags {
		for _, m := range snapshot[i] {
			fn(tag, m)
		}
	}
}

// Counts returns the number of meshes per tag.
func (s *Scene) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.owned))
	for tag, meshes := range s.owned {
		out[tag] = len(meshes)
	}
	return out
}

// Clear disposes everything.
func (s *Scene) Clear() {
	s.mu.Lock()
	owned := s.owned
	s.owned = make(map[string][]*Mesh)
	s.mu.Unlock()

	for _, meshes := range owned {
		for _, m := range meshes {
			m.Dispose()
		}
	}
}
