package catalog

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lobby/internal/engine/collision"
	"github.com/Faultbox/midgard-lobby/internal/engine/mesh"
	"github.com/Faultbox/midgard-lobby/internal/engine/picking"
	"github.com/Faultbox/midgard-lobby/internal/layout"
	"github.com/Faultbox/midgard-lobby/internal/scene"
	"github.com/Faultbox/midgard-lobby/pkg/math"
)

// ErrStale is returned by an application superseded by a newer one. It is
// not a failure: the newer application owns the result.
var ErrStale = errors.New("catalog: application superseded")

// ImageLoader fetches the texture of a card. A nil texture with a nil error
// means the card uses its placeholder material.
type ImageLoader interface {
	LoadImage(ctx context.Context, url string) (mesh.Disposable, error)
}

// Target is an interactive card for the pointer system.
type Target struct {
	ID       string       `json:"id"`
	Label    string       `json:"label"`
	URL      string       `json:"url"`
	Category string       `json:"category"`
	Hitbox   picking.AABB `json:"hitbox"`
}

// Pipeline places item cards into catalog room slots. Each Apply captures
// a new token; work belonging to an older token is discarded before it can
// touch the registry or the scene.
type Pipeline struct {
	engine *Engine
	reg    *collision.Registry
	sc     *mesh.Scene
	images ImageLoader

	token atomic.Uint64

	mu      sync.Mutex // serializes Begin and commits
	cancel  context.CancelFunc
	targets map[string][]Target
}

// NewPipeline creates a pipeline. images may be nil, in which case every
// card uses its placeholder.
func NewPipeline(engine *Engine, reg *collision.Registry, sc *mesh.Scene, images ImageLoader) *Pipeline {
	return &Pipeline{
		engine:  engine,
		reg:     reg,
		sc:      sc,
		images:  images,
		targets: make(map[string][]Target),
	}
}

// Token returns the token of the most recent application.
func (p *Pipeline) Token() uint64 {
	return p.token.Load()
}

// Begin starts a new application: the token advances and the context of
// the previous application is canceled.
func (p *Pipeline) Begin(ctx context.Context) (context.Context, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	token := p.token.Add(1)
	if p.cancel != nil {
		p.cancel()
	}
	ctx, p.cancel = context.WithCancel(ctx)
	return ctx, token
}

// Apply lays out every configured category for themeID and places its
// cards. Categories are processed in name order and cards sequentially in
// feed order. Nothing is committed until every category is staged; it
// returns ErrStale when a newer Apply started meanwhile and the context
// error when ctx ends first.
func (p *Pipeline) Apply(ctx context.Context, themeID string, cfg scene.CatalogConfig, feed []Item) error {
	return p.ApplyWith(ctx, themeID, cfg, feed, nil)
}

// ApplyWith is Apply with a hook run inside the commit once the cards are
// swapped in. It receives every built catalog room, so callers can commit
// their own state under the same token. onCommit must not call back into
// the pipeline.
func (p *Pipeline) ApplyWith(ctx context.Context, themeID string, cfg scene.CatalogConfig, feed []Item, onCommit func(rooms []Room)) error {
	ctx, token := p.Begin(ctx)
	defer p.finish(token)

	categories := make([]string, 0, len(cfg.Rooms))
	for k := range cfg.Rooms {
		categories = append(categories, k)
	}
	sort.Strings(categories)

	staged := make([]stagedCategory, 0, len(categories))
	for _, cat := range categories {
		rc := cfg.Rooms[cat]
		items := FilterItems(feed, cfg.Filter(themeID, cat), rc.Layout.MaxItems)
		st, err := p.stageCategory(ctx, token, cat, rc, items)
		if err != nil {
			disposeStaged(staged)
			return err
		}
		staged = append(staged, st)
	}
	if err := p.commit(ctx, token, staged, categories, onCommit); err != nil {
		return err
	}

	log.Info("catalog applied",
		zap.String("theme", themeID),
		zap.Uint64("token", token),
		zap.Int("targets", len(p.Targets())),
	)
	return nil
}

// stagedCategory is a category built off-scene and waiting for commit.
type stagedCategory struct {
	cat       string
	rc        scene.CatalogRoomConfig
	itemCount int
	build     layout.Build
	targets   []Target
}

func disposeStaged(staged []stagedCategory) {
	for _, s := range staged {
		s.build.Dispose()
	}
}

func (p *Pipeline) stageCategory(ctx context.Context, token uint64, cat string, rc scene.CatalogRoomConfig, items []Item) (stagedCategory, error) {
	rooms := Plan(cat, rc, len(items))
	var slots []WallSlot
	for _, r := range rooms {
		slots = append(slots, r.Slots...)
	}

	tag := CardTag(cat)
	out := stagedCategory{cat: cat, rc: rc, itemCount: len(items), build: layout.Build{Tag: tag}}

	for i, it := range items {
		if i >= len(slots) {
			log.Debug("catalog slots exhausted", zap.String("category", cat), zap.Int("dropped", len(items)-i))
			break
		}

		tex := p.loadImage(ctx, it)
		if err := p.check(ctx, token); err != nil {
			out.build.Dispose()
			if tex != nil {
				tex.Dispose()
			}
			log.Debug("card build aborted", zap.String("category", cat), zap.Uint64("token", token), zap.Error(err))
			return stagedCategory{}, err
		}

		slot := slots[i]
		card := mesh.Card(tag+":"+it.ID, mesh.MaterialCard, slot.Position, slot.RotationY, rc.Card.Width, rc.Card.Height)
		if card == nil {
			if tex != nil {
				tex.Dispose()
			}
			continue
		}
		card.Texture = tex
		out.build.AddMesh(card)

		lo, hi := slotBox(slot, rc.Card.Width, rc.Card.Height)
		rect := math.Rect{MinX: lo.X, MaxX: hi.X, MinZ: lo.Z, MaxZ: hi.Z}
		out.build.AddCollider(collision.NewCollider(tag, it.ID, rect, lo.Y, hi.Y))
		out.targets = append(out.targets, Target{
			ID:       it.ID,
			Label:    it.Label(),
			URL:      it.URL,
			Category: cat,
			Hitbox:   picking.NewAABB(lo, hi),
		})
	}
	return out, nil
}

// loadImage fetches the item image. Failures fall back to the placeholder.
func (p *Pipeline) loadImage(ctx context.Context, it Item) mesh.Disposable {
	if p.images == nil || it.Image == "" {
		return nil
	}
	tex, err := p.images.LoadImage(ctx, it.Image)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn("card image failed, using placeholder", zap.String("item", it.ID), zap.Error(err))
		}
		return nil
	}
	return tex
}

// check reports whether the application identified by token may continue.
func (p *Pipeline) check(ctx context.Context, token uint64) error {
	if p.token.Load() != token {
		return ErrStale
	}
	return ctx.Err()
}

// commit swaps every staged category in and tears down categories that are
// no longer configured, all in one critical section. A stale token or an
// ended context commits nothing.
func (p *Pipeline) commit(ctx context.Context, token uint64, staged []stagedCategory, keep []string, onCommit func([]Room)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.check(ctx, token); err != nil {
		disposeStaged(staged)
		return err
	}

	for _, s := range staged {
		p.engine.Reconcile(s.cat, s.rc, s.itemCount)
		layout.Teardown(p.reg, p.sc, CardTag(s.cat))
		s.build.Commit(p.reg, p.sc)
		p.targets[s.cat] = s.targets
	}
	for _, cat := range p.engine.Categories() {
		if slices.Contains(keep, cat) {
			continue
		}
		p.engine.Remove(cat)
		layout.Teardown(p.reg, p.sc, CardTag(cat))
		delete(p.targets, cat)
	}

	if onCommit != nil {
		var rooms []Room
		for _, cat := range p.engine.Categories() {
			rooms = append(rooms, p.engine.Rooms(cat)...)
		}
		onCommit(rooms)
	}
	return nil
}

// finish releases the context of a completed application.
func (p *Pipeline) finish(token uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.token.Load() == token && p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// Clear removes every chain and card and invalidates running applications.
func (p *Pipeline) Clear() {
	_, token := p.Begin(context.Background())
	defer p.finish(token)

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, cat := range p.engine.Categories() {
		p.engine.Remove(cat)
		layout.Teardown(p.reg, p.sc, CardTag(cat))
	}
	p.targets = make(map[string][]Target)
}

// Targets returns the committed cards, grouped by category in name order.
func (p *Pipeline) Targets() []Target {
	p.mu.Lock()
	defer p.mu.Unlock()

	cats := make([]string, 0, len(p.targets))
	for k := range p.targets {
		cats = append(cats, k)
	}
	sort.Strings(cats)

	var out []Target
	for _, c := range cats {
		out = append(out, p.targets[c]...)
	}
	return out
}

// Categories returns the categories with a built room chain.
func (p *Pipeline) Categories() []string {
	return p.engine.Categories()
}

// Rooms returns the built rooms of a category.
func (p *Pipeline) Rooms(category string) []Room {
	return p.engine.Rooms(category)
}
