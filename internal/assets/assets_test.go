package assets

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 3, 2))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestLoadLocal(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "card.png"), pngBytes(t), 0o644); err != nil {
		t.Fatal(err)
	}
	m := NewManager(dir, nil)

	for _, ref := range []string{"card.png", "file://" + filepath.Join(dir, "card.png")} {
		if _, err := m.Load(context.Background(), ref); err != nil {
			t.Errorf("Load(%q) error = %v", ref, err)
		}
	}

	if _, err := m.Load(context.Background(), "missing.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(missing) error = %v, want ErrNotFound", err)
	}
}

func TestLoadHTTPCaches(t *testing.T) {
	var requests atomic.Int32
	data := pngBytes(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Path == "/broken.png" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write(data)
	}))
	defer srv.Close()

	m := NewManager("", srv.Client())
	for i := 0; i < 3; i++ {
		if _, err := m.Load(context.Background(), srv.URL+"/card.png"); err != nil {
			t.Fatalf("Load() error = %v", err)
		}
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("requests = %d, want 1", got)
	}
	if hits, misses := m.CacheStats(); hits != 2 || misses != 1 {
		t.Errorf("stats = %d/%d, want 2/1", hits, misses)
	}

	if _, err := m.Load(context.Background(), srv.URL+"/missing.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("404 error = %v, want ErrNotFound", err)
	}
	if _, err := m.Load(context.Background(), srv.URL+"/broken.png"); err == nil {
		t.Error("500 should fail")
	}
}

func TestLoadHTTPCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewManager("", srv.Client()).Load(ctx, srv.URL+"/slow.png"); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

type fakeGPU struct{ released bool }

func (f *fakeGPU) Dispose() { f.released = true }

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "card.png"), pngBytes(t), 0o644)
	os.WriteFile(filepath.Join(dir, "bad.png"), []byte("nope"), 0o644)
	m := NewManager(dir, nil)

	tex, err := m.LoadImage(context.Background(), "card.png")
	if err != nil {
		t.Fatalf("LoadImage() error = %v", err)
	}
	img := tex.(*Image)
	if img.Pixels.Rect.Dx() != 3 {
		t.Errorf("width = %d, want 3", img.Pixels.Rect.Dx())
	}

	gpu := &fakeGPU{}
	img.Attach(gpu)
	img.Dispose()
	img.Dispose()
	if !gpu.released || img.Pixels != nil {
		t.Error("Dispose did not release resources")
	}

	again, _ := m.LoadImage(context.Background(), "card.png")
	if again == tex {
		t.Error("LoadImage should return a fresh image per card")
	}

	if _, err := m.LoadImage(context.Background(), "bad.png"); err == nil {
		t.Error("undecodable image should fail")
	}
}

func TestCacheEviction(t *testing.T) {
	c := NewCache(10)
	c.Set("a", make([]byte, 4))
	c.Set("b", make([]byte, 4))
	c.Set("c", make([]byte, 4))

	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry should be evicted")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("newest entry missing")
	}

	c.Set("huge", make([]byte, 11))
	if _, ok := c.Get("huge"); ok {
		t.Error("oversized entry should not be cached")
	}

	c.Set("b", make([]byte, 2))
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d", c.Len())
	}
}

func TestIsRemote(t *testing.T) {
	if !IsRemote("https://x/y.png") || IsRemote("cards/y.png") {
		t.Error("IsRemote mismatch")
	}
}
