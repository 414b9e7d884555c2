package math

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/exp/constraints"
)

func DegToRad(degrees float32) float32 {
	return degrees * gomath.Pi / 180.0
}

func RadToDeg(radians float32) float32 {
	return radians * 180.0 / gomath.Pi
}

func Clamp[T constraints.Ordered](value, min, max T) T {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// PerspectiveInfiniteReversed builds a right-handed perspective projection
// with an infinite far plane and reversed depth: the near plane maps to
// depth 1 and infinity to depth 0. Pairs with a Greater depth compare and
// a 0.0 depth clear.
func PerspectiveInfiniteReversed(fovYDegrees, aspect, near float32) mgl32.Mat4 {
	fovMult := 1.0 / float32(gomath.Tan(float64(DegToRad(fovYDegrees))/2.0))
	return mgl32.Mat4{
		fovMult / aspect, 0, 0, 0,
		0, fovMult, 0, 0,
		0, 0, 0, -1,
		0, 0, near, 0,
	}
}
