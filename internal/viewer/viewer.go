// Package viewer is the interactive SDL/OpenGL debug viewer: it walks the
// generated lobby with the same collision and bounds queries real movement
// controllers use and draws collider, zone and bounds overlays.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lobby/internal/app"
	"github.com/Faultbox/midgard-lobby/internal/assets"
	"github.com/Faultbox/midgard-lobby/internal/catalog"
	"github.com/Faultbox/midgard-lobby/internal/config"
	"github.com/Faultbox/midgard-lobby/internal/engine/camera"
	"github.com/Faultbox/midgard-lobby/internal/engine/debug"
	"github.com/Faultbox/midgard-lobby/internal/engine/framebuffer"
	"github.com/Faultbox/midgard-lobby/internal/engine/input"
	"github.com/Faultbox/midgard-lobby/internal/engine/lighting"
	"github.com/Faultbox/midgard-lobby/internal/engine/picking"
	"github.com/Faultbox/midgard-lobby/internal/engine/renderer"
	"github.com/Faultbox/midgard-lobby/internal/engine/window"
	"github.com/Faultbox/midgard-lobby/internal/lobby"
	"github.com/Faultbox/midgard-lobby/internal/logger"
	"github.com/Faultbox/midgard-lobby/pkg/math"
)

var log = logger.Named("viewer")

const (
	title       = "Midgard Lobby"
	fovY        = 1.1
	planSize    = 2048
	planCeiling = 20 // above every room the plan export draws
)

// Viewer is the main viewer instance.
type Viewer struct {
	cfg      *config.Config
	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	watcher  *config.Watcher
	shots    *debug.Screenshots

	lobby  *lobby.Lobby
	assets *assets.Manager

	fp       *camera.FirstPerson
	orbit    *camera.OrbitCamera
	overview bool
	captured bool
	overlays bool

	player   math.Vec3
	themes   []string
	theme    int
	running  bool
	viewProj math.Mat4
}

// New opens the window, builds the lobby and uploads its meshes.
func New(ctx context.Context, cfg *config.Config) (*Viewer, error) {
	v := &Viewer{
		cfg:      cfg,
		input:    input.New(),
		shots:    debug.NewScreenshots("screenshots", "lobby"),
		fp:       camera.NewFirstPerson(cfg.Player.EyeHeight),
		orbit:    camera.NewOrbitCamera(),
		overlays: cfg.Viewer.Wireframe,
	}

	var err error
	v.window, err = window.New(title, cfg.Viewer)
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Renderer after the window: it needs a current GL context.
	w, h := v.window.Size()
	v.renderer, err = renderer.New(w, h)
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	v.renderer.SetLightDir(lighting.Sun{Azimuth: cfg.Viewer.SunAzimuth, Elevation: cfg.Viewer.SunElevation}.Direction())

	if err := v.open(ctx); err != nil {
		v.Close()
		return nil, err
	}

	if cfg.Data.Watch && cfg.Data.ScenePath != "" {
		v.watcher, err = config.NewWatcher(cfg.Data.ScenePath)
		if err == nil {
			err = v.watcher.Start()
		}
		if err != nil {
			log.Warn("scene watch disabled", zap.Error(err))
			v.watcher = nil
		}
	}
	return v, nil
}

// open builds the lobby from the data config and resets the player.
func (v *Viewer) open(ctx context.Context) error {
	l, mgr, err := app.Open(ctx, v.cfg.Data, v.renderer.Upload)
	if err != nil {
		return err
	}
	if v.lobby != nil {
		v.lobby.Close()
		v.assets.Close()
	}
	v.lobby, v.assets = l, mgr

	v.themes = l.Config().ThemeIDs()
	v.theme = 0
	for i, id := range v.themes {
		if id == l.Theme() {
			v.theme = i
		}
	}
	v.player = l.Resolve(math.Vec3{}, v.cfg.Player.Radius)
	v.orbit.FitToRect(l.RoomBounds())
	return nil
}

// Run starts the main loop.
func (v *Viewer) Run(ctx context.Context) error {
	v.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()
	var frameBudget time.Duration
	if v.cfg.Viewer.FPSLimit > 0 {
		frameBudget = time.Second / time.Duration(v.cfg.Viewer.FPSLimit)
	}

	for v.running {
		now := time.Now()
		dt := float32(now.Sub(lastTime).Seconds())
		lastTime = now

		if v.input.Update() || ctx.Err() != nil {
			break
		}
		v.handleEvents(ctx)
		v.reloadOnChange(ctx)
		v.update(dt)
		v.render()
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			if v.cfg.Viewer.ShowFPS {
				v.window.SetTitle(fmt.Sprintf("%s - %s - %d fps", title, v.lobby.Theme(), frameCount))
			}
			frameCount = 0
			fpsTimer = time.Now()
		}
		if frameBudget > 0 {
			if spare := frameBudget - time.Since(now); spare > 0 {
				time.Sleep(spare)
			}
		}
	}
	return nil
}

// Close releases everything in reverse creation order.
func (v *Viewer) Close() {
	if v.watcher != nil {
		v.watcher.Stop()
	}
	if v.lobby != nil {
		v.lobby.Close()
	}
	if v.assets != nil {
		v.assets.Close()
	}
	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}

func (v *Viewer) handleEvents(ctx context.Context) {
	for _, ev := range v.input.Events() {
		switch ev.Type {
		case input.EventWindowResize:
			w, h := v.window.Size()
			v.renderer.Resize(w, h)
		case input.EventKeyDown:
			v.handleKey(ctx, ev.Key)
		case input.EventMouseDown:
			if ev.Button == sdl.BUTTON_LEFT {
				v.pick(ev.MouseX, ev.MouseY)
			}
		}
	}
}

func (v *Viewer) handleKey(ctx context.Context, key sdl.Scancode) {
	switch key {
	case sdl.SCANCODE_ESCAPE:
		v.running = false
	case sdl.SCANCODE_TAB:
		v.overview = !v.overview
		if v.overview {
			v.orbit.FitToRect(v.lobby.RoomBounds())
		}
	case sdl.SCANCODE_C:
		v.captured = !v.captured
		v.window.CaptureMouse(v.captured)
	case sdl.SCANCODE_F1:
		v.overlays = !v.overlays
	case sdl.SCANCODE_T:
		v.nextTheme(ctx)
	case sdl.SCANCODE_E:
		v.inspect(picking.NewRay(v.fp.Eye(v.player), v.fp.Forward()))
	case sdl.SCANCODE_F11:
		v.exportPlan()
	case sdl.SCANCODE_F12:
		v.screenshot()
	}
}

func (v *Viewer) nextTheme(ctx context.Context) {
	if len(v.themes) == 0 {
		return
	}
	v.theme = (v.theme + 1) % len(v.themes)
	id := v.themes[v.theme]
	if err := v.lobby.ApplyTheme(ctx, id); err != nil && !errors.Is(err, catalog.ErrStale) {
		log.Warn("theme switch failed", zap.String("theme", id), zap.Error(err))
		return
	}
	v.player = v.lobby.Resolve(v.player, v.cfg.Player.Radius)
}

// reloadOnChange rebuilds the lobby when the watched scene file changed.
func (v *Viewer) reloadOnChange(ctx context.Context) {
	if v.watcher == nil {
		return
	}
	select {
	case <-v.watcher.Changes:
	default:
		return
	}
	log.Info("scene changed, rebuilding", zap.String("path", v.cfg.Data.ScenePath))
	if err := v.open(ctx); err != nil {
		log.Warn("scene reload failed, keeping previous lobby", zap.Error(err))
	}
}

func (v *Viewer) update(dt float32) {
	dx, dy := v.input.MouseDelta()
	switch {
	case v.overview:
		if v.input.Dragging() {
			v.orbit.HandleDrag(dx, dy)
		}
		v.orbit.HandleZoom(v.input.Wheel())
		return
	case v.captured || v.input.Dragging():
		v.fp.HandleLook(dx, dy)
	}

	fwd, right := v.input.MoveAxes()
	if fwd == 0 && right == 0 {
		return
	}
	dir := v.fp.FlatForward().Scale(fwd).Add(v.fp.FlatRight().Scale(right)).Normalize()
	step := dir.Scale(v.cfg.Player.Speed * dt)
	desired := v.player.Add(math.Vec3{X: step.X, Z: step.Z})
	v.player = v.lobby.Resolve(desired, v.cfg.Player.Radius)
}

func (v *Viewer) render() {
	proj := camera.Projection(fovY, v.renderer.Aspect())
	var view math.Mat4
	if v.overview {
		view = v.orbit.ViewMatrix()
	} else {
		view = v.fp.ViewMatrix(v.player)
	}
	v.viewProj = proj.Mul(view)

	v.renderer.HideCeilings = v.overview
	v.renderer.Begin()
	v.renderer.DrawMeshes(v.viewProj, v.lobby.Each)
	if v.overlays {
		v.renderer.DrawLines(v.viewProj, v.overlayBatches())
	}
}

func (v *Viewer) overlayBatches() []debug.Batch {
	batches := debug.ColliderBatches(v.lobby.Colliders())
	zones := debug.Batch{Color: debug.ColorZone}
	for _, z := range v.lobby.ProtectedZones() {
		zones.Vertices = append(zones.Vertices, debug.RectVertices(z.Rect, 0.02)...)
	}
	bounds := debug.Batch{Color: debug.ColorBounds, Vertices: debug.RectVertices(v.lobby.RoomBounds(), 0.04)}
	return append(batches, zones, bounds)
}

func (v *Viewer) pick(x, y int) {
	w, h := v.window.Size()
	ray := picking.ScreenToRay(float32(x), float32(y), float32(w), float32(h), v.viewProj.Inverse())
	v.inspect(ray)
}

func (v *Viewer) inspect(ray picking.Ray) {
	t, ok := v.lobby.Pick(ray)
	if !ok {
		return
	}
	log.Info("card selected",
		zap.String("id", t.ID),
		zap.String("category", t.Category),
		zap.String("label", t.Label),
		zap.String("url", t.URL),
	)
}

func (v *Viewer) screenshot() {
	pixels, w, h := v.renderer.ReadPixels()
	v.savePixels(pixels, w, h)
}

// exportPlan renders a top-down view of the whole lobby, catalog rooms
// included, offscreen and saves it next to the screenshots.
func (v *Viewer) exportPlan() {
	fb, err := framebuffer.New(planSize, planSize)
	if err != nil {
		log.Warn("plan export failed", zap.Error(err))
		return
	}
	defer fb.Destroy()

	area := v.lobby.RoomBounds()
	for _, r := range v.lobby.CatalogRooms() {
		area = area.Union(r.Rect)
	}
	viewProj := camera.PlanProjection(area, planCeiling)

	restore := fb.Bind()
	v.renderer.HideCeilings = true
	v.renderer.Begin()
	v.renderer.DrawMeshes(viewProj, v.lobby.Each)
	v.renderer.DrawLines(viewProj, v.overlayBatches())
	w, h := fb.Size()
	pixels := fb.ReadPixels()
	restore()

	v.savePixels(pixels, w, h)
}

func (v *Viewer) savePixels(pixels []byte, w, h int) {
	img, err := debug.FromPixels(pixels, w, h)
	if err != nil {
		log.Warn("screenshot failed", zap.Error(err))
		return
	}
	path, err := v.shots.Save(img)
	if err != nil {
		log.Warn("screenshot failed", zap.Error(err))
		return
	}
	log.Info("screenshot saved", zap.String("path", path))
}
