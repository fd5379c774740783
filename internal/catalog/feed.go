// Package catalog lays out chained display rooms per catalog category and
// places item cards on their walls.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lobby/internal/logger"
)

var log = logger.Named("catalog")

// ErrFeedMalformed is returned when a feed cannot be decoded. Owners treat
// it as "catalog disabled for this session".
var ErrFeedMalformed = errors.New("catalog: malformed feed")

// Item is one catalog entry.
type Item struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Image    string   `json:"image,omitempty"`
	Price    *float64 `json:"price,omitempty"`
	Currency string   `json:"currency,omitempty"`
	Tags     []string `json:"tags"`
}

// Label returns the title, or the id when the item has no title.
func (it Item) Label() string {
	if it.Title != "" {
		return it.Title
	}
	return it.ID
}

// HasTag reports whether the item carries tag, ignoring case.
func (it Item) HasTag(tag string) bool {
	for _, t := range it.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// ParseFeed decodes a feed from r. Both a bare JSON array and an object with
// an "items" array are accepted. Items without an id are dropped and
// duplicate ids keep their first occurrence. Empty input is an empty feed.
func ParseFeed(r io.Reader) ([]Item, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var items []Item
	if data[0] == '[' {
		err = json.Unmarshal(data, &items)
	} else {
		var wrapped struct {
			Items []Item `json:"items"`
		}
		err = json.Unmarshal(data, &wrapped)
		items = wrapped.Items
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedMalformed, err)
	}
	return dedupe(items), nil
}

// LoadFeed reads a feed file. An empty path or a missing file yields an
// empty feed, so the catalog degrades to empty rooms.
func LoadFeed(path string) ([]Item, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Warn("feed not found, catalog will be empty", zap.String("path", path))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open feed: %w", err)
	}
	defer f.Close()

	items, err := ParseFeed(f)
	if err != nil {
		return nil, fmt.Errorf("load feed %s: %w", path, err)
	}
	log.Info("feed loaded", zap.String("path", path), zap.Int("items", len(items)))
	return items, nil
}

func dedupe(items []Item) []Item {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, it := range items {
		if it.ID == "" {
			log.Warn("feed item without id dropped", zap.String("title", it.Title))
			continue
		}
		if _, dup := seen[it.ID]; dup {
			log.Warn("duplicate feed id dropped", zap.String("id", it.ID))
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out
}
