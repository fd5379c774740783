package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Faultbox/midgard-lobby/internal/engine/collision"
	"github.com/Faultbox/midgard-lobby/internal/engine/mesh"
	"github.com/Faultbox/midgard-lobby/internal/scene"
)

type fakeTexture struct {
	url      string
	disposed atomic.Bool
}

func (f *fakeTexture) Dispose() { f.disposed.Store(true) }

// gateLoader blocks loads of "slow" until release is closed.
type gateLoader struct {
	started chan string
	release chan struct{}
	fail    map[string]bool

	mu       sync.Mutex
	textures []*fakeTexture
}

func newGateLoader() *gateLoader {
	return &gateLoader{started: make(chan string, 16), release: make(chan struct{})}
}

func (g *gateLoader) LoadImage(ctx context.Context, url string) (mesh.Disposable, error) {
	if g.fail[url] {
		return nil, fmt.Errorf("fetch %s: 404", url)
	}
	if url == "slow" {
		g.started <- url
		<-g.release
	}
	tex := &fakeTexture{url: url}
	g.mu.Lock()
	g.textures = append(g.textures, tex)
	g.mu.Unlock()
	return tex, nil
}

func testFeed(n int, image string, tag string) []Item {
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{
			ID:    fmt.Sprintf("%s-%d", tag, i+1),
			Title: fmt.Sprintf("Item %d", i+1),
			URL:   fmt.Sprintf("https://example.com/%s/%d", tag, i+1),
			Image: image,
			Tags:  []string{tag},
		}
	}
	return items
}

func testCatalog() scene.CatalogConfig {
	return scene.CatalogConfig{
		Rooms: map[string]scene.CatalogRoomConfig{"shop": smallRoom()},
		ThemeContent: map[string]map[string]scene.ContentFilter{
			"neon":    {"shop": {TagsAny: []string{"neon"}}},
			"classic": {"shop": {TagsAny: []string{"classic"}}},
		},
	}
}

func newTestPipeline(images ImageLoader) (*Pipeline, *collision.Registry, *mesh.Scene) {
	reg := collision.NewRegistry()
	sc := mesh.NewScene()
	return NewPipeline(NewEngine(reg, sc), reg, sc, images), reg, sc
}

func countTag(reg *collision.Registry, tag string) int {
	n := 0
	for _, c := range reg.All() {
		if c.Tag == tag {
			n++
		}
	}
	return n
}

func TestApplyPlacesCardsInOrder(t *testing.T) {
	p, reg, sc := newTestPipeline(newGateLoader())
	feed := testFeed(7, "fast", "neon")

	if err := p.Apply(context.Background(), "neon", testCatalog(), feed); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	targets := p.Targets()
	if len(targets) != 7 {
		t.Fatalf("targets = %d, want 7", len(targets))
	}

	rooms := p.engine.Rooms("shop")
	if len(rooms) != 2 {
		t.Fatalf("rooms = %d, want 2", len(rooms))
	}
	// items 6 and 7 take the first two slots of the second room
	for i, slot := range rooms[1].Slots[:2] {
		got := targets[5+i]
		if got.ID != feed[5+i].ID {
			t.Errorf("target %d = %s, want %s", 5+i, got.ID, feed[5+i].ID)
		}
		if c := got.Hitbox.Center(); c.Sub(slot.Position).Length() > 1e-4 {
			t.Errorf("target %s center = %+v, want slot %+v", got.ID, c, slot.Position)
		}
	}

	if got := countTag(reg, CardTag("shop")); got != 7 {
		t.Errorf("card colliders = %d, want 7", got)
	}
	if got := len(sc.Meshes(CardTag("shop"))); got != 7 {
		t.Errorf("card meshes = %d, want 7", got)
	}
}

func TestApplyRapidThemeSwitch(t *testing.T) {
	loader := newGateLoader()
	p, reg, sc := newTestPipeline(loader)
	feed := append(testFeed(4, "slow", "neon"), testFeed(3, "fast", "classic")...)
	cfg := testCatalog()

	first := make(chan error, 1)
	go func() {
		first <- p.Apply(context.Background(), "neon", cfg, feed)
	}()
	<-loader.started

	if err := p.Apply(context.Background(), "classic", cfg, feed); err != nil {
		t.Fatalf("second Apply() error = %v", err)
	}
	close(loader.release)

	if err := <-first; !errors.Is(err, ErrStale) {
		t.Fatalf("first Apply() error = %v, want ErrStale", err)
	}

	targets := p.Targets()
	if len(targets) != 3 {
		t.Fatalf("targets = %d, want 3", len(targets))
	}
	seen := map[string]bool{}
	for _, tg := range targets {
		if seen[tg.ID] {
			t.Errorf("duplicate target %s", tg.ID)
		}
		seen[tg.ID] = true
		if tg.ID[:7] != "classic" {
			t.Errorf("target %s from superseded theme", tg.ID)
		}
	}

	if got := countTag(reg, CardTag("shop")); got != 3 {
		t.Errorf("card colliders = %d, want 3", got)
	}
	if got := len(sc.Meshes(CardTag("shop"))); got != 3 {
		t.Errorf("card meshes = %d, want 3", got)
	}

	loader.mu.Lock()
	defer loader.mu.Unlock()
	for _, tex := range loader.textures {
		if tex.url == "slow" && !tex.disposed.Load() {
			t.Error("texture of superseded card not disposed")
		}
		if tex.url == "fast" && tex.disposed.Load() {
			t.Error("committed texture disposed")
		}
	}
}

func TestApplyImageFailureUsesPlaceholder(t *testing.T) {
	loader := newGateLoader()
	loader.fail = map[string]bool{"broken": true}
	p, _, sc := newTestPipeline(loader)

	feed := testFeed(2, "broken", "neon")
	if err := p.Apply(context.Background(), "neon", testCatalog(), feed); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := len(p.Targets()); got != 2 {
		t.Errorf("targets = %d, want 2", got)
	}
	for _, m := range sc.Meshes(CardTag("shop")) {
		if m.Texture != nil {
			t.Errorf("card %s has texture after failed load", m.Name)
		}
	}
}

func TestApplyEmptyFeed(t *testing.T) {
	p, reg, _ := newTestPipeline(nil)
	if err := p.Apply(context.Background(), "neon", testCatalog(), nil); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := len(p.Targets()); got != 0 {
		t.Errorf("targets = %d, want 0", got)
	}
	if got := countTag(reg, RoomTag("shop", 0)); got == 0 {
		t.Error("empty feed should still build the room shell")
	}
}

func TestApplyReplacesPreviousCards(t *testing.T) {
	p, reg, sc := newTestPipeline(newGateLoader())
	feed := append(testFeed(6, "fast", "neon"), testFeed(2, "fast", "classic")...)
	cfg := testCatalog()

	if err := p.Apply(context.Background(), "neon", cfg, feed); err != nil {
		t.Fatal(err)
	}
	old := sc.Meshes(CardTag("shop"))

	if err := p.Apply(context.Background(), "classic", cfg, feed); err != nil {
		t.Fatal(err)
	}
	for _, m := range old {
		if !m.Disposed() {
			t.Errorf("card %s not disposed on theme change", m.Name)
		}
	}
	if got := countTag(reg, CardTag("shop")); got != 2 {
		t.Errorf("card colliders = %d, want 2", got)
	}
	if got := len(p.engine.Rooms("shop")); got != 1 {
		t.Errorf("rooms = %d, want 1 after shrink", got)
	}
}

func TestApplyPrunesRemovedCategories(t *testing.T) {
	p, reg, _ := newTestPipeline(nil)
	cfg := testCatalog()
	cfg.Rooms["projects"] = smallRoom()
	feed := testFeed(3, "", "neon")

	if err := p.Apply(context.Background(), "neon", cfg, feed); err != nil {
		t.Fatal(err)
	}
	if got := len(p.Targets()); got != 6 {
		t.Fatalf("targets = %d, want 6", got)
	}

	delete(cfg.Rooms, "projects")
	if err := p.Apply(context.Background(), "neon", cfg, feed); err != nil {
		t.Fatal(err)
	}
	if got := countTag(reg, RoomTag("projects", 0)); got != 0 {
		t.Errorf("projects colliders = %d, want 0", got)
	}
	if got := len(p.Targets()); got != 3 {
		t.Errorf("targets = %d, want 3", got)
	}
}

func TestApplyCanceledContext(t *testing.T) {
	p, reg, _ := newTestPipeline(newGateLoader())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Apply(ctx, "neon", testCatalog(), testFeed(2, "fast", "neon"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Apply() error = %v, want context.Canceled", err)
	}
	if reg.Len() != 0 {
		t.Errorf("registry = %d, want untouched", reg.Len())
	}
}

func TestApplyCanceledMidwayCommitsNothing(t *testing.T) {
	loader := newGateLoader()
	p, reg, _ := newTestPipeline(loader)
	cfg := scene.CatalogConfig{
		Rooms: map[string]scene.CatalogRoomConfig{"alpha": smallRoom(), "beta": smallRoom()},
		ThemeContent: map[string]map[string]scene.ContentFilter{
			"neon":    {"alpha": {TagsAny: []string{"neon"}}, "beta": {TagsAny: []string{"neon"}}},
			"classic": {"alpha": {TagsAny: []string{"classic"}}, "beta": {TagsAny: []string{"late"}}},
		},
	}
	feed := append(testFeed(2, "neon.png", "neon"), testFeed(2, "classic.png", "classic")...)
	feed = append(feed, testFeed(2, "slow", "late")...)

	if err := p.Apply(context.Background(), "neon", cfg, feed); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- p.Apply(ctx, "classic", cfg, feed)
	}()
	// alpha is fully staged once beta blocks
	<-loader.started
	cancel()
	close(loader.release)

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Apply() error = %v, want context.Canceled", err)
	}

	targets := p.Targets()
	if len(targets) != 4 {
		t.Fatalf("targets = %d, want 4", len(targets))
	}
	for _, tg := range targets {
		if tg.ID[:4] != "neon" {
			t.Errorf("target %s committed by canceled apply", tg.ID)
		}
	}
	for _, cat := range []string{"alpha", "beta"} {
		if got := countTag(reg, CardTag(cat)); got != 2 {
			t.Errorf("%s card colliders = %d, want 2", cat, got)
		}
	}

	loader.mu.Lock()
	defer loader.mu.Unlock()
	for _, tex := range loader.textures {
		if want := tex.url != "neon.png"; tex.disposed.Load() != want {
			t.Errorf("texture %s disposed = %v, want %v", tex.url, tex.disposed.Load(), want)
		}
	}
}

func TestApplyWithHook(t *testing.T) {
	loader := newGateLoader()
	p, _, _ := newTestPipeline(loader)
	feed := append(testFeed(2, "slow", "neon"), testFeed(2, "fast", "classic")...)
	cfg := testCatalog()

	var hooked []string
	var rooms []Room
	var mu sync.Mutex
	hook := func(theme string) func([]Room) {
		return func(built []Room) {
			mu.Lock()
			hooked = append(hooked, theme)
			rooms = built
			mu.Unlock()
		}
	}

	first := make(chan error, 1)
	go func() {
		first <- p.ApplyWith(context.Background(), "neon", cfg, feed, hook("neon"))
	}()
	<-loader.started

	if err := p.ApplyWith(context.Background(), "classic", cfg, feed, hook("classic")); err != nil {
		t.Fatalf("ApplyWith(classic) error = %v", err)
	}
	close(loader.release)
	if err := <-first; !errors.Is(err, ErrStale) {
		t.Fatalf("ApplyWith(neon) error = %v, want ErrStale", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(hooked) != 1 || hooked[0] != "classic" {
		t.Errorf("hook ran for %v, want [classic]", hooked)
	}
	if len(rooms) != 1 || rooms[0].Category != "shop" {
		t.Errorf("hook rooms = %+v, want the shop room", rooms)
	}
}

func TestClear(t *testing.T) {
	p, reg, _ := newTestPipeline(nil)
	if err := p.Apply(context.Background(), "neon", testCatalog(), testFeed(3, "", "neon")); err != nil {
		t.Fatal(err)
	}
	p.Clear()
	if reg.Len() != 0 || len(p.Targets()) != 0 {
		t.Errorf("after Clear: %d colliders, %d targets", reg.Len(), len(p.Targets()))
	}
}
