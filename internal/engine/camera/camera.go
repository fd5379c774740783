// Package camera provides the viewer's cameras: an eye-level camera that
// follows the player and an orbit camera for looking over the floorplan.
package camera

import (
	gomath "math"

	"github.com/Faultbox/midgard-lobby/pkg/math"
)

var up = math.Vec3{Y: 1}

// Projection returns a perspective projection with the viewer's clip planes.
func Projection(fovY, aspect float32) math.Mat4 {
	return math.Perspective(fovY, aspect, 0.05, 500)
}

// FirstPerson looks out from the player's eyes. Yaw 0 faces north (-Z) and
// increases clockwise seen from above.
type FirstPerson struct {
	Yaw       float32
	Pitch     float32
	EyeHeight float32

	MaxPitch    float32
	Sensitivity float32
}

// NewFirstPerson creates an eye-level camera.
func NewFirstPerson(eyeHeight float32) *FirstPerson {
	return &FirstPerson{
		EyeHeight:   eyeHeight,
		MaxPitch:    1.4,
		Sensitivity: 0.003,
	}
}

// Eye returns the eye position for a player standing at feet.
func (c *FirstPerson) Eye(feet math.Vec3) math.Vec3 {
	return math.Vec3{X: feet.X, Y: feet.Y + c.EyeHeight, Z: feet.Z}
}

// Forward returns the unit view direction.
func (c *FirstPerson) Forward() math.Vec3 {
	sy, cy := gomath.Sincos(float64(c.Yaw))
	sp, cp := gomath.Sincos(float64(c.Pitch))
	return math.Vec3{
		X: float32(sy * cp),
		Y: float32(sp),
		Z: float32(-cy * cp),
	}
}

// FlatForward returns the walking direction on the floor plane.
func (c *FirstPerson) FlatForward() math.Vec2 {
	sy, cy := gomath.Sincos(float64(c.Yaw))
	return math.Vec2{X: float32(sy), Z: float32(-cy)}
}

// FlatRight returns the strafing direction on the floor plane.
func (c *FirstPerson) FlatRight() math.Vec2 {
	sy, cy := gomath.Sincos(float64(c.Yaw))
	return math.Vec2{X: float32(cy), Z: float32(sy)}
}

// HandleLook applies a mouse delta in pixels.
func (c *FirstPerson) HandleLook(dx, dy float32) {
	c.Yaw += dx * c.Sensitivity
	c.Pitch = clamp(c.Pitch-dy*c.Sensitivity, -c.MaxPitch, c.MaxPitch)
}

// ViewMatrix returns the view matrix for a player standing at feet.
func (c *FirstPerson) ViewMatrix(feet math.Vec3) math.Mat4 {
	eye := c.Eye(feet)
	return math.LookAt(eye, eye.Add(c.Forward()), up)
}

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Center math.Vec3

	Distance float32
	Pitch    float32 // radians above the horizon
	Yaw      float32

	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera creates an orbit camera sized for a room-scale scene.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        25,
		Pitch:           0.9,
		MinDistance:     2,
		MaxDistance:     300,
		MinPitch:        0.1,
		MaxPitch:        1.55,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	sp, cp := gomath.Sincos(float64(c.Pitch))
	sy, cy := gomath.Sincos(float64(c.Yaw))
	return c.Center.Add(math.Vec3{
		X: c.Distance * float32(cp*sy),
		Y: c.Distance * float32(sp),
		Z: c.Distance * float32(cp*cy),
	})
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, up)
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.DragSensitivity
	c.Pitch = clamp(c.Pitch+deltaY*c.DragSensitivity, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance = clamp(c.Distance-delta*c.Distance*c.ZoomSensitivity, c.MinDistance, c.MaxDistance)
}

// FitToRect centers the camera over a floor rectangle and backs off far
// enough to see all of it.
func (c *OrbitCamera) FitToRect(r math.Rect) {
	ctr := r.Center()
	c.Center = math.Vec3{X: ctr.X, Z: ctr.Z}
	c.Distance = clamp(max(r.Width(), r.Depth())*1.2, c.MinDistance, c.MaxDistance)
	c.Pitch = 0.9
	c.Yaw = 0
}

// PlanProjection returns an orthographic top-down view-projection framing r
// with north up on a square target. Geometry must stay below ceiling.
func PlanProjection(r math.Rect, ceiling float32) math.Mat4 {
	ctr := r.Center()
	half := max(r.Width(), r.Depth()) / 2 * 1.05
	eye := math.Vec3{X: ctr.X, Y: ceiling + 1, Z: ctr.Z}
	view := math.LookAt(eye, math.Vec3{X: ctr.X, Z: ctr.Z}, math.Vec3{Z: -1})
	return math.Ortho(-half, half, -half, half, 0.5, ceiling+2).Mul(view)
}

func clamp(v, lo, hi float32) float32 {
	return max(lo, min(v, hi))
}
