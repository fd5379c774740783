package tui

import (
	"context"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/Faultbox/midgard-lobby/internal/lobby"
	"github.com/Faultbox/midgard-lobby/internal/scene"
)

func newTestWalkthrough(t *testing.T) (*Walkthrough, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("screen init: %v", err)
	}
	screen.SetSize(80, 24)
	t.Cleanup(screen.Fini)

	l := lobby.New(scene.Default(), lobby.Options{CatalogDisabled: true})
	t.Cleanup(l.Close)
	return New(screen, l, 0.35, 1.6), screen
}

func rowText(s tcell.Screen, y, width int) string {
	var b strings.Builder
	for x := 0; x < width; x++ {
		r, _, _, _ := s.GetContent(x, y)
		b.WriteRune(r)
	}
	return b.String()
}

func TestGlyph(t *testing.T) {
	tests := []struct {
		tag  string
		want rune
	}{
		{"room", '#'},
		{"theme-extra", '+'},
		{"annex:base", '%'},
		{"annex:unlock:vault", '%'},
		{"catalog:shop:0", '='},
		{"cards:shop", 'c'},
		{"other", '?'},
	}
	for _, tt := range tests {
		if got, _ := glyph(tt.tag); got != tt.want {
			t.Errorf("glyph(%q) = %q, want %q", tt.tag, got, tt.want)
		}
	}
}

func TestDrawPlayerAndStatus(t *testing.T) {
	w, screen := newTestWalkthrough(t)
	w.Draw()

	if r, _, _, _ := screen.GetContent(40, 11); r != '@' {
		t.Errorf("center cell = %q, want '@'", r)
	}
	status := rowText(screen, 23, 80)
	if !strings.Contains(status, "x=0.00 z=0.00") || !strings.Contains(status, "bounds:union") {
		t.Errorf("status line = %q", status)
	}
}

func TestMoveStopsAtBackWall(t *testing.T) {
	w, screen := newTestWalkthrough(t)

	for range 100 {
		w.Move(0, -moveStep)
	}
	// back wall spans z -6.1..-5.9
	if z := w.Position().Z; z < -5.56 || z > -5.54 {
		t.Errorf("z = %v, want -5.55", z)
	}

	w.Draw()
	if r, _, _, _ := screen.GetContent(40, 10); r != '#' {
		t.Errorf("cell above player = %q, want wall", r)
	}
}

func TestMoveClampsToBounds(t *testing.T) {
	w, _ := newTestWalkthrough(t)

	// walk south through the gallery annex to its far wall
	for range 200 {
		w.Move(0, moveStep)
	}
	if z := w.Position().Z; z > 13.7 || z < 13 {
		t.Errorf("z = %v, want near the gallery bounds 13.7", z)
	}

	// without catalog rooms the east doorway ends at the lobby bounds
	w, _ = newTestWalkthrough(t)
	for range 200 {
		w.Move(moveStep, 0)
	}
	if x := w.Position().X; x > 6 || x < 5.9 {
		t.Errorf("x = %v, want the bounds edge 6", x)
	}
}

func TestHandleEvent(t *testing.T) {
	w, _ := newTestWalkthrough(t)
	ctx := context.Background()

	if !w.HandleEvent(ctx, tcell.NewEventKey(tcell.KeyRune, 'd', tcell.ModNone)) {
		t.Fatal("move key quit")
	}
	if w.Position().X != moveStep {
		t.Errorf("x after 'd' = %v, want %v", w.Position().X, moveStep)
	}

	w.HandleEvent(ctx, tcell.NewEventKey(tcell.KeyRune, 'e', tcell.ModNone))
	if w.Status() != "nothing there" {
		t.Errorf("status after inspect = %q", w.Status())
	}

	w.HandleEvent(ctx, tcell.NewEventKey(tcell.KeyRune, 't', tcell.ModNone))
	if !strings.HasPrefix(w.Status(), "theme ") {
		t.Errorf("status after theme switch = %q", w.Status())
	}

	if w.HandleEvent(ctx, tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) {
		t.Error("escape did not quit")
	}
	if w.HandleEvent(ctx, tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)) {
		t.Error("'q' did not quit")
	}
}
