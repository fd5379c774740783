// Package input turns SDL2 events into viewer input state.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType classifies a processed event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventMouseDown
	EventMouseUp
)

// Event is a processed discrete input event. Mouse motion and wheel are
// accumulated into per-frame deltas instead.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Width  int
	Height int
	MouseX int
	MouseY int
	Button uint8
}

// Input holds the keys currently held and the events of the last frame.
type Input struct {
	events []Event
	held   map[sdl.Scancode]bool

	mouseDX, mouseDY float32
	wheel            float32
	dragging         bool
}

// New creates an input handler.
func New() *Input {
	return &Input{
		events: make([]Event, 0, 16),
		held:   make(map[sdl.Scancode]bool),
	}
}

// Update polls SDL events. It returns true when the viewer should quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]
	i.mouseDX, i.mouseDY, i.wheel = 0, 0, 0

	quit := false
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			i.events = append(i.events, Event{Type: EventQuit})
			quit = true

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				i.events = append(i.events, Event{
					Type:   EventWindowResize,
					Width:  int(e.Data1),
					Height: int(e.Data2),
				})
			}

		case *sdl.KeyboardEvent:
			if e.Repeat != 0 {
				continue
			}
			if e.Type == sdl.KEYDOWN {
				i.held[e.Keysym.Scancode] = true
				i.events = append(i.events, Event{Type: EventKeyDown, Key: e.Keysym.Scancode})
			} else {
				delete(i.held, e.Keysym.Scancode)
				i.events = append(i.events, Event{Type: EventKeyUp, Key: e.Keysym.Scancode})
			}

		case *sdl.MouseMotionEvent:
			i.mouseDX += float32(e.XRel)
			i.mouseDY += float32(e.YRel)

		case *sdl.MouseWheelEvent:
			i.wheel += float32(e.Y)

		case *sdl.MouseButtonEvent:
			t := EventMouseUp
			if e.Type == sdl.MOUSEBUTTONDOWN {
				t = EventMouseDown
			}
			if e.Button == sdl.BUTTON_RIGHT {
				i.dragging = t == EventMouseDown
			}
			i.events = append(i.events, Event{
				Type:   t,
				MouseX: int(e.X),
				MouseY: int(e.Y),
				Button: e.Button,
			})
		}
	}
	return quit
}

// Events returns the discrete events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// Pressed reports whether scancode went down this frame.
func (i *Input) Pressed(scancode sdl.Scancode) bool {
	for _, e := range i.events {
		if e.Type == EventKeyDown && e.Key == scancode {
			return true
		}
	}
	return false
}

// Held reports whether scancode is currently down.
func (i *Input) Held(scancode sdl.Scancode) bool {
	return i.held[scancode]
}

// MoveAxes returns forward and right intents in [-1, 1] from WASD and the
// arrow keys.
func (i *Input) MoveAxes() (forward, right float32) {
	if i.held[sdl.SCANCODE_W] || i.held[sdl.SCANCODE_UP] {
		forward++
	}
	if i.held[sdl.SCANCODE_S] || i.held[sdl.SCANCODE_DOWN] {
		forward--
	}
	if i.held[sdl.SCANCODE_D] || i.held[sdl.SCANCODE_RIGHT] {
		right++
	}
	if i.held[sdl.SCANCODE_A] || i.held[sdl.SCANCODE_LEFT] {
		right--
	}
	return forward, right
}

// MouseDelta returns the relative mouse motion of the last frame.
func (i *Input) MouseDelta() (dx, dy float32) {
	return i.mouseDX, i.mouseDY
}

// Wheel returns the scroll of the last frame.
func (i *Input) Wheel() float32 {
	return i.wheel
}

// Dragging reports whether the right mouse button is held.
func (i *Input) Dragging() bool {
	return i.dragging
}
