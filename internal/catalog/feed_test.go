package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Faultbox/midgard-lobby/internal/scene"
)

func TestParseFeed(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantIDs []string
		wantErr error
	}{
		{"array", `[{"id":"a","title":"A"},{"id":"b"}]`, []string{"a", "b"}, nil},
		{"wrapped", `{"items":[{"id":"a","price":9.5,"currency":"EUR","tags":["x"]}]}`, []string{"a"}, nil},
		{"duplicates keep first", `[{"id":"a","title":"first"},{"id":"a","title":"second"},{"id":"b"}]`, []string{"a", "b"}, nil},
		{"missing id dropped", `[{"title":"anon"},{"id":"b"}]`, []string{"b"}, nil},
		{"empty", "  \n", nil, nil},
		{"malformed", `[{"id":`, nil, ErrFeedMalformed},
		{"wrong shape", `{"items":{"id":"a"}}`, nil, ErrFeedMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := ParseFeed(strings.NewReader(tt.input))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseFeed() error = %v, want %v", err, tt.wantErr)
			}
			var ids []string
			for _, it := range items {
				ids = append(ids, it.ID)
			}
			if strings.Join(ids, ",") != strings.Join(tt.wantIDs, ",") {
				t.Errorf("ids = %v, want %v", ids, tt.wantIDs)
			}
		})
	}
}

func TestParseFeedKeepsFirstDuplicate(t *testing.T) {
	items, err := ParseFeed(strings.NewReader(`[{"id":"a","title":"first"},{"id":"a","title":"second"}]`))
	if err != nil {
		t.Fatal(err)
	}
	if items[0].Title != "first" {
		t.Errorf("title = %q, want first", items[0].Title)
	}
}

func TestParseFeedOptionalFields(t *testing.T) {
	items, err := ParseFeed(strings.NewReader(`[{"id":"a","price":12.5,"currency":"USD"},{"id":"b"}]`))
	if err != nil {
		t.Fatal(err)
	}
	if items[0].Price == nil || *items[0].Price != 12.5 {
		t.Errorf("price = %v, want 12.5", items[0].Price)
	}
	if items[1].Price != nil {
		t.Errorf("absent price = %v, want nil", *items[1].Price)
	}
	if items[1].Label() != "b" {
		t.Errorf("Label() = %q, want id fallback", items[1].Label())
	}
}

func TestLoadFeed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feed.json")
	if err := os.WriteFile(path, []byte(`{"items":[{"id":"x"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	items, err := LoadFeed(path)
	if err != nil {
		t.Fatalf("LoadFeed() error = %v", err)
	}
	if len(items) != 1 {
		t.Errorf("items = %d, want 1", len(items))
	}

	items, err = LoadFeed(filepath.Join(dir, "missing.json"))
	if err != nil || items != nil {
		t.Errorf("missing feed = %v, %v; want empty, nil", items, err)
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte("nope"), 0o644)
	if _, err := LoadFeed(bad); !errors.Is(err, ErrFeedMalformed) {
		t.Errorf("malformed feed error = %v, want ErrFeedMalformed", err)
	}
}

func TestFilterItems(t *testing.T) {
	feed := []Item{
		{ID: "a", Tags: []string{"Neon"}},
		{ID: "b", Tags: []string{"classic"}},
		{ID: "c", Tags: []string{"neon", "sale"}},
		{ID: "d"},
	}

	tests := []struct {
		name   string
		filter scene.ContentFilter
		limit  int
		want   string
	}{
		{"whole feed", scene.ContentFilter{}, 0, "a,b,c,d"},
		{"by id keeps feed order", scene.ContentFilter{ItemIDs: []string{"d", "a"}}, 0, "a,d"},
		{"ids win over tags", scene.ContentFilter{ItemIDs: []string{"b"}, TagsAny: []string{"neon"}}, 0, "b"},
		{"tags case-insensitive", scene.ContentFilter{TagsAny: []string{"NEON"}}, 0, "a,c"},
		{"no match falls back", scene.ContentFilter{TagsAny: []string{"vintage"}}, 0, "a,b,c,d"},
		{"unknown ids fall back", scene.ContentFilter{ItemIDs: []string{"zz"}}, 2, "a,b"},
		{"truncated", scene.ContentFilter{}, 3, "a,b,c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterItems(feed, tt.filter, tt.limit)
			var ids []string
			for _, it := range got {
				ids = append(ids, it.ID)
			}
			if s := strings.Join(ids, ","); s != tt.want {
				t.Errorf("FilterItems() = %s, want %s", s, tt.want)
			}
		})
	}
}

func TestFilterItemsEmptyFeed(t *testing.T) {
	if got := FilterItems(nil, scene.ContentFilter{TagsAny: []string{"x"}}, 5); len(got) != 0 {
		t.Errorf("FilterItems(nil) = %v, want empty", got)
	}
}
