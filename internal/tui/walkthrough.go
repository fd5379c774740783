// Package tui renders a top-down terminal walkthrough of a generated lobby.
// Movement goes through the same collision and bounds queries the 3D
// movement controllers use.
package tui

import (
	"context"
	"errors"
	"fmt"
	gomath "math"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lobby/internal/catalog"
	"github.com/Faultbox/midgard-lobby/internal/engine/collision"
	"github.com/Faultbox/midgard-lobby/internal/engine/picking"
	"github.com/Faultbox/midgard-lobby/internal/lobby"
	"github.com/Faultbox/midgard-lobby/internal/logger"
	"github.com/Faultbox/midgard-lobby/pkg/math"
)

var log = logger.Named("tui")

// Terminal cells are roughly twice as tall as wide.
const (
	cellWidth  = 0.25
	cellHeight = 0.5
	moveStep   = 0.25
	frameTime  = 33 * time.Millisecond
)

var (
	styleFloor  = tcell.StyleDefault.Foreground(tcell.ColorDimGray)
	styleZone   = tcell.StyleDefault.Foreground(tcell.ColorDarkGreen)
	styleRoom   = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleAnnex  = tcell.StyleDefault.Foreground(tcell.ColorTeal)
	styleRooms  = tcell.StyleDefault.Foreground(tcell.ColorBlue)
	styleCard   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleExtra  = tcell.StyleDefault.Foreground(tcell.ColorPurple)
	stylePlayer = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleStatus = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorSilver)
)

// glyph returns the rune and style drawn for a collider tag.
func glyph(tag string) (rune, tcell.Style) {
	switch {
	case tag == collision.TagRoom:
		return '#', styleRoom
	case tag == collision.TagThemeExtra:
		return '+', styleExtra
	case strings.HasPrefix(tag, "annex:"):
		return '%', styleAnnex
	case strings.HasPrefix(tag, "cards:"):
		return 'c', styleCard
	case strings.HasPrefix(tag, "catalog:"):
		return '=', styleRooms
	}
	return '?', styleRoom
}

// Walkthrough is the terminal view state.
type Walkthrough struct {
	screen tcell.Screen
	lobby  *lobby.Lobby

	pos     math.Vec3
	heading math.Vec2
	radius  float32
	eye     float32

	themes []string
	theme  int
	status string
}

// New creates a walkthrough that starts at the room center facing north.
func New(screen tcell.Screen, l *lobby.Lobby, radius, eyeHeight float32) *Walkthrough {
	w := &Walkthrough{
		screen:  screen,
		lobby:   l,
		heading: math.Vec2{Z: -1},
		radius:  radius,
		eye:     eyeHeight,
		themes:  l.Config().ThemeIDs(),
	}
	for i, id := range w.themes {
		if id == l.Theme() {
			w.theme = i
		}
	}
	w.pos = l.Resolve(math.Vec3{}, radius)
	return w
}

// Position returns the player position.
func (w *Walkthrough) Position() math.Vec3 {
	return w.pos
}

// Status returns the status line message.
func (w *Walkthrough) Status() string {
	return w.status
}

// Move requests a step along (dx, dz) and resolves it against the world.
func (w *Walkthrough) Move(dx, dz float32) {
	d := math.Vec2{X: dx, Z: dz}
	if d.Length() == 0 {
		return
	}
	w.heading = d.Normalize()
	w.pos = w.lobby.Resolve(w.pos.Add(math.Vec3{X: dx, Z: dz}), w.radius)
}

// Inspect casts a ray from eye height along the heading and reports the
// card it hits.
func (w *Walkthrough) Inspect() (catalog.Target, bool) {
	origin := math.Vec3{X: w.pos.X, Y: w.pos.Y + w.eye, Z: w.pos.Z}
	// Slightly downward so cards below eye level are reachable.
	dir := math.Vec3{X: w.heading.X, Y: -0.15, Z: w.heading.Z}
	t, ok := w.lobby.Pick(picking.NewRay(origin, dir))
	if ok {
		w.status = fmt.Sprintf("%s: %s", t.Category, t.Label)
		if t.URL != "" {
			w.status += " <" + t.URL + ">"
		}
	} else {
		w.status = "nothing there"
	}
	return t, ok
}

// NextTheme applies the next configured theme.
func (w *Walkthrough) NextTheme(ctx context.Context) error {
	if len(w.themes) == 0 {
		return nil
	}
	w.theme = (w.theme + 1) % len(w.themes)
	id := w.themes[w.theme]
	err := w.lobby.ApplyTheme(ctx, id)
	if errors.Is(err, catalog.ErrStale) {
		return nil
	}
	if err != nil {
		w.status = "theme " + id + " failed"
		return err
	}
	w.status = "theme " + id
	w.pos = w.lobby.Resolve(w.pos, w.radius)
	return nil
}

// Run draws and handles input until the user quits or ctx is canceled.
func (w *Walkthrough) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 64)
	go func() {
		defer close(events)
		for {
			ev := w.screen.PollEvent()
			if ev == nil {
				return // screen finalized
			}
			events <- ev
		}
	}()

	ticker := time.NewTicker(frameTime)
	defer ticker.Stop()

	w.Draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !w.HandleEvent(ctx, ev) {
				return nil
			}
		case <-ticker.C:
			w.Draw()
		}
	}
}

// HandleEvent processes one terminal event. It returns false on quit.
func (w *Walkthrough) HandleEvent(ctx context.Context, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyUp:
			w.Move(0, -moveStep)
		case tcell.KeyDown:
			w.Move(0, moveStep)
		case tcell.KeyLeft:
			w.Move(-moveStep, 0)
		case tcell.KeyRight:
			w.Move(moveStep, 0)
		case tcell.KeyEnter:
			w.Inspect()
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case 'w':
				w.Move(0, -moveStep)
			case 's':
				w.Move(0, moveStep)
			case 'a':
				w.Move(-moveStep, 0)
			case 'd':
				w.Move(moveStep, 0)
			case 'e':
				w.Inspect()
			case 't':
				if err := w.NextTheme(ctx); err != nil {
					log.Warn("theme switch failed", zap.Error(err))
				}
			}
		}
	case *tcell.EventResize:
		w.screen.Sync()
	}
	return true
}

// view maps world coordinates to cells around the player.
type view struct {
	origin math.Vec2
	cx, cy int
	w, h   int
}

func (v view) col(x float32) int {
	return v.cx + int(gomath.Floor(float64((x-v.origin.X)/cellWidth)+0.5))
}

func (v view) row(z float32) int {
	return v.cy + int(gomath.Floor(float64((z-v.origin.Z)/cellHeight)+0.5))
}

func (v view) fill(s tcell.Screen, r math.Rect, ch rune, style tcell.Style) {
	x0, x1 := max(v.col(r.MinX), 0), min(v.col(r.MaxX), v.w-1)
	y0, y1 := max(v.row(r.MinZ), 0), min(v.row(r.MaxZ), v.h-1)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			s.SetContent(x, y, ch, nil, style)
		}
	}
}

// Draw renders one frame. The last row holds the status line.
func (w *Walkthrough) Draw() {
	s := w.screen
	s.Clear()
	sw, sh := s.Size()
	if sw == 0 || sh < 2 {
		s.Show()
		return
	}
	v := view{origin: w.pos.XZ(), cx: sw / 2, cy: (sh - 1) / 2, w: sw, h: sh - 1}

	v.fill(s, w.lobby.RoomBounds(), '.', styleFloor)
	for _, z := range w.lobby.ProtectedZones() {
		v.fill(s, z.Rect, '~', styleZone)
	}
	for _, c := range w.lobby.Colliders() {
		if !c.Enabled {
			continue
		}
		ch, style := glyph(c.Tag)
		v.fill(s, c.Rect(), ch, style)
	}
	s.SetContent(v.cx, v.cy, '@', nil, stylePlayer)

	w.drawStatus(sw, sh-1)
	s.Show()
}

func (w *Walkthrough) drawStatus(width, y int) {
	line := fmt.Sprintf(" %s | x=%.2f z=%.2f | bounds:%s",
		w.lobby.Theme(), w.pos.X, w.pos.Z, w.lobby.BoundsSource())
	if w.status != "" {
		line += " | " + w.status
	}
	runes := []rune(line)
	for x := 0; x < width; x++ {
		ch := ' '
		if x < len(runes) {
			ch = runes[x]
		}
		w.screen.SetContent(x, y, ch, nil, styleStatus)
	}
}
