package math

import (
	"math"
	"testing"
)

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	result := m.Mul(Identity())

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestTransformPoint(t *testing.T) {
	m := Translate(10, 20, 30)
	got := m.TransformPoint(Vec3{1, 2, 3})
	want := Vec3{11, 22, 33}
	if got != want {
		t.Errorf("TransformPoint() = %v, want %v", got, want)
	}
}

func TestPlacement(t *testing.T) {
	// A card facing -X on an east wall: local +Z (card normal) becomes world -X.
	m := Placement(Vec3{5, 1.5, 0}, -math.Pi/2)
	got := m.TransformPoint(Vec3{0, 0, 1})
	if abs(got.X-4) > 0.001 || abs(got.Y-1.5) > 0.001 || abs(got.Z) > 0.001 {
		t.Errorf("Placement().TransformPoint() = %v, want ~{4 1.5 0}", got)
	}
}

func TestInverseRoundTrip(t *testing.T) {
	m := Placement(Vec3{3, 1, -2}, 0.7)
	p := Vec3{1, 2, 3}
	back := m.Inverse().TransformPoint(m.TransformPoint(p))
	if abs(back.X-p.X) > 0.001 || abs(back.Y-p.Y) > 0.001 || abs(back.Z-p.Z) > 0.001 {
		t.Errorf("Inverse round trip = %v, want %v", back, p)
	}
}

func TestOrtho(t *testing.T) {
	m := Ortho(-10, 10, -5, 5, -1, 1)
	got := m.TransformPoint(Vec3{10, 5, 0})
	if abs(got.X-1) > 0.001 || abs(got.Y-1) > 0.001 {
		t.Errorf("Ortho corner = %v, want ~{1 1 _}", got)
	}
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
