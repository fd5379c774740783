package catalog

import (
	"github.com/Faultbox/midgard-lobby/internal/scene"
)

// FilterItems selects the items a room shows: by id when f lists ids, else
// by any shared tag, else the whole feed. An empty selection falls back to
// the whole feed. The result is truncated to limit when limit > 0 and keeps
// feed order.
func FilterItems(feed []Item, f scene.ContentFilter, limit int) []Item {
	var out []Item
	switch {
	case len(f.ItemIDs) > 0:
		ids := make(map[string]struct{}, len(f.ItemIDs))
		for _, id := range f.ItemIDs {
			ids[id] = struct{}{}
		}
		for _, it := range feed {
			if _, ok := ids[it.ID]; ok {
				out = append(out, it)
			}
		}
	case len(f.TagsAny) > 0:
		for _, it := range feed {
			for _, tag := range f.TagsAny {
				if it.HasTag(tag) {
					out = append(out, it)
					break
				}
			}
		}
	default:
		out = feed
	}

	if len(out) == 0 {
		out = feed
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return append([]Item(nil), out...)
}
