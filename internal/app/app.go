// Package app wires configuration to a running lobby: it loads the scene
// and the catalog feed, sets up the asset manager and applies the startup
// theme.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lobby/internal/assets"
	"github.com/Faultbox/midgard-lobby/internal/catalog"
	"github.com/Faultbox/midgard-lobby/internal/config"
	"github.com/Faultbox/midgard-lobby/internal/engine/mesh"
	"github.com/Faultbox/midgard-lobby/internal/lobby"
	"github.com/Faultbox/midgard-lobby/internal/logger"
	"github.com/Faultbox/midgard-lobby/internal/scene"
)

var log = logger.Named("app")

// LoadScene reads the scene file, or returns the built-in scene when path
// is empty.
func LoadScene(path string) (*scene.Config, error) {
	if path == "" {
		return scene.Default(), nil
	}
	return scene.Load(path)
}

// Open builds a lobby from data and applies the configured theme. A
// malformed feed disables the catalog for the session instead of failing.
// onMesh, when set, receives every mesh added to the scene.
func Open(ctx context.Context, data config.DataConfig, onMesh func(string, *mesh.Mesh)) (*lobby.Lobby, *assets.Manager, error) {
	sc, err := LoadScene(data.ScenePath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading scene: %w", err)
	}

	opts := lobby.Options{OnMesh: onMesh}
	feed, err := catalog.LoadFeed(data.FeedPath)
	switch {
	case errors.Is(err, catalog.ErrFeedMalformed):
		log.Warn("catalog disabled", zap.String("feed", data.FeedPath), zap.Error(err))
		opts.CatalogDisabled = true
	case err != nil:
		return nil, nil, fmt.Errorf("loading feed: %w", err)
	default:
		opts.Feed = feed
	}

	mgr := assets.NewManager(data.AssetRoot, nil)
	opts.Images = mgr

	l := lobby.New(sc, opts)
	theme := data.Theme
	if theme == "" {
		theme = scene.DefaultTheme
	}
	if err := l.ApplyTheme(ctx, theme); err != nil && !errors.Is(err, catalog.ErrStale) {
		l.Close()
		mgr.Close()
		return nil, nil, err
	}

	log.Info("lobby ready",
		zap.String("scene", data.ScenePath),
		zap.String("theme", theme),
		zap.Int("items", len(feed)),
		zap.Int("colliders", len(l.Colliders())),
	)
	return l, mgr, nil
}
