package scene

import (
	"fmt"
	"strings"
)

// Side names one wall of a rectangular room. North is -Z, south is +Z,
// east is +X and west is -X.
type Side uint8

const (
	SideNone Side = iota
	SideNorth
	SideSouth
	SideEast
	SideWest
)

// Sides lists the four walls in build order.
var Sides = [4]Side{SideNorth, SideSouth, SideEast, SideWest}

// String returns the lowercase side name.
func (s Side) String() string {
	switch s {
	case SideNorth:
		return "north"
	case SideSouth:
		return "south"
	case SideEast:
		return "east"
	case SideWest:
		return "west"
	default:
		return "none"
	}
}

// Opposite returns the facing side. SideNone is its own opposite.
func (s Side) Opposite() Side {
	switch s {
	case SideNorth:
		return SideSouth
	case SideSouth:
		return SideNorth
	case SideEast:
		return SideWest
	case SideWest:
		return SideEast
	default:
		return SideNone
	}
}

// ParseSide accepts full names or single letters, case-insensitively.
// An empty string is SideNone.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return SideNone, nil
	case "n", "north":
		return SideNorth, nil
	case "s", "south":
		return SideSouth, nil
	case "e", "east":
		return SideEast, nil
	case "w", "west":
		return SideWest, nil
	}
	return SideNone, fmt.Errorf("unknown side %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Side) UnmarshalText(text []byte) error {
	v, err := ParseSide(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
