package math

import (
	gomath "math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		value, min, max, want int
	}{
		{5, 0, 10, 5},
		{-3, 0, 10, 0},
		{42, 0, 10, 10},
		{0, 0, 10, 0},
		{10, 0, 10, 10},
	}
	for _, tt := range tests {
		if got := Clamp(tt.value, tt.min, tt.max); got != tt.want {
			t.Errorf("Clamp(%d, %d, %d) = %d, want %d", tt.value, tt.min, tt.max, got, tt.want)
		}
	}
}

func projectDepth(proj mgl32.Mat4, z float32) float32 {
	clip := proj.Mul4x1(mgl32.Vec4{0, 0, z, 1})
	return clip.Z() / clip.W()
}

func TestPerspectiveInfiniteReversed(t *testing.T) {
	proj := PerspectiveInfiniteReversed(45, 16.0/9.0, 0.01)

	// Near plane lands at depth 1.
	nearDepth := projectDepth(proj, -0.01)
	if gomath.Abs(float64(nearDepth-1)) > 1e-5 {
		t.Fatalf("near plane depth = %f, want 1", nearDepth)
	}

	// Depth decreases monotonically toward 0 with distance.
	d1 := projectDepth(proj, -1)
	d2 := projectDepth(proj, -100)
	d3 := projectDepth(proj, -100000)
	if !(d1 > d2 && d2 > d3) {
		t.Fatalf("depth must shrink with distance: %f, %f, %f", d1, d2, d3)
	}
	if d3 < 0 || d3 > 0.01 {
		t.Fatalf("far geometry should approach depth 0, got %f", d3)
	}

	// W receives -z for the perspective divide.
	clip := proj.Mul4x1(mgl32.Vec4{0, 0, -7, 1})
	if gomath.Abs(float64(clip.W()-7)) > 1e-5 {
		t.Fatalf("clip w = %f, want 7", clip.W())
	}
}

func TestTransformModelMatrixOrder(t *testing.T) {
	tr := NewTransform()
	tr.Translation = mgl32.Vec3{1, 2, 3}
	tr.Scaling = mgl32.Vec3{2, 2, 2}

	// Scale applies before translation, so a unit X point lands at
	// translation + (2,0,0).
	p := tr.ModelMatrix().Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	want := mgl32.Vec4{3, 2, 3, 1}
	if !p.ApproxEqualThreshold(want, 1e-5) {
		t.Fatalf("got %v, want %v", p, want)
	}
}

func TestTransformLocalMove(t *testing.T) {
	tr := NewTransform()
	// Face +X: yaw left by -90 (i.e. turn right).
	tr.RotateLeft(-90, false)
	tr.MoveForward(1, false)

	if gomath.Abs(float64(tr.Translation.X()-1)) > 1e-5 || gomath.Abs(float64(tr.Translation.Z())) > 1e-5 {
		t.Fatalf("forward after yaw should move along +X, got %v", tr.Translation)
	}

	// World-space move ignores orientation.
	tr2 := NewTransform()
	tr2.RotateLeft(-90, false)
	tr2.MoveForward(1, true)
	if gomath.Abs(float64(tr2.Translation.Z()+1)) > 1e-5 {
		t.Fatalf("world forward should move along -Z, got %v", tr2.Translation)
	}
}
