package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/midgard-lobby/internal/config"
)

func TestOpenDefaults(t *testing.T) {
	l, mgr, err := Open(context.Background(), config.Default().Data, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer mgr.Close()
	defer l.Close()

	if l.Theme() != "default" {
		t.Errorf("Theme() = %q, want default", l.Theme())
	}
	if len(l.Colliders()) == 0 {
		t.Error("no colliders")
	}
}

func TestOpenMalformedFeedDisablesCatalog(t *testing.T) {
	dir := t.TempDir()
	feed := filepath.Join(dir, "feed.json")
	if err := os.WriteFile(feed, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	data := config.Default().Data
	data.FeedPath = feed
	l, mgr, err := Open(context.Background(), data, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer mgr.Close()
	defer l.Close()

	if n := len(l.CatalogRooms()); n != 0 {
		t.Errorf("catalog rooms = %d, want 0", n)
	}
}

func TestOpenMissingScene(t *testing.T) {
	data := config.Default().Data
	data.ScenePath = filepath.Join(t.TempDir(), "missing.yaml")
	if _, _, err := Open(context.Background(), data, nil); err == nil {
		t.Error("expected error for missing scene")
	}
}
