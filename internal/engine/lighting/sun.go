// Package lighting derives the directional light used by the viewer.
package lighting

import (
	stdmath "math"

	"github.com/Faultbox/midgard-lobby/pkg/math"
)

// Sun is a directional light given as angles in degrees. Azimuth turns
// around +Y starting at +Z (south); elevation is measured from the horizon.
type Sun struct {
	Azimuth   float32
	Elevation float32
}

// ToSun returns the unit vector pointing from the scene towards the sun.
func (s Sun) ToSun() math.Vec3 {
	elev := float64(min(max(s.Elevation, 0), 90))
	lon := float64(s.Azimuth) * stdmath.Pi / 180
	lat := elev * stdmath.Pi / 180
	return math.Vec3{
		X: float32(stdmath.Cos(lat) * stdmath.Sin(lon)),
		Y: float32(stdmath.Sin(lat)),
		Z: float32(stdmath.Cos(lat) * stdmath.Cos(lon)),
	}
}

// Direction returns the direction the light travels, as shaders expect it.
func (s Sun) Direction() math.Vec3 {
	return s.ToSun().Scale(-1)
}
