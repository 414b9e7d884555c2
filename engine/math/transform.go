package math

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Transform is a translation/rotation/scale triple. Movement and rotation
// helpers operate either in world space or in the transform's local frame.
type Transform struct {
	Translation mgl32.Vec3
	Scaling     mgl32.Vec3
	Rotation    mgl32.Quat
}

func NewTransform() Transform {
	return Transform{
		Translation: mgl32.Vec3{0, 0, 0},
		Scaling:     mgl32.Vec3{1, 1, 1},
		Rotation:    mgl32.QuatIdent(),
	}
}

// ModelMatrix composes translation * rotation * scale.
func (t *Transform) ModelMatrix() mgl32.Mat4 {
	translation := mgl32.Translate3D(t.Translation.X(), t.Translation.Y(), t.Translation.Z())
	rotation := t.Rotation.Mat4()
	scale := mgl32.Scale3D(t.Scaling.X(), t.Scaling.Y(), t.Scaling.Z())
	return translation.Mul4(rotation).Mul4(scale)
}

func (t *Transform) translate(direction mgl32.Vec3, world bool) {
	if world {
		t.Translation = t.Translation.Add(direction)
	} else {
		t.Translation = t.Translation.Add(t.Rotation.Rotate(direction))
	}
}

// MoveForward moves along -Z, which faces the viewer in the right-handed
// convention used throughout.
func (t *Transform) MoveForward(distance float32, world bool) {
	t.translate(mgl32.Vec3{0, 0, -distance}, world)
}

func (t *Transform) MoveBackward(distance float32, world bool) {
	t.MoveForward(-distance, world)
}

func (t *Transform) MoveLeft(distance float32, world bool) {
	t.translate(mgl32.Vec3{-distance, 0, 0}, world)
}

func (t *Transform) MoveRight(distance float32, world bool) {
	t.MoveLeft(-distance, world)
}

func (t *Transform) MoveUp(distance float32, world bool) {
	t.translate(mgl32.Vec3{0, distance, 0}, world)
}

func (t *Transform) MoveDown(distance float32, world bool) {
	t.MoveUp(-distance, world)
}

func (t *Transform) rotate(pitch, yaw, roll float32, world bool) {
	q := mgl32.AnglesToQuat(DegToRad(pitch), DegToRad(yaw), DegToRad(roll), mgl32.XYZ)
	if world {
		t.Rotation = q.Mul(t.Rotation).Normalize()
	} else {
		t.Rotation = t.Rotation.Mul(q).Normalize()
	}
}

func (t *Transform) RotateUp(degrees float32, world bool) {
	t.rotate(degrees, 0, 0, world)
}

func (t *Transform) RotateDown(degrees float32, world bool) {
	t.RotateUp(-degrees, world)
}

func (t *Transform) RotateLeft(degrees float32, world bool) {
	t.rotate(0, degrees, 0, world)
}

func (t *Transform) RotateRight(degrees float32, world bool) {
	t.RotateLeft(-degrees, world)
}

func (t *Transform) RotateCW(degrees float32, world bool) {
	t.rotate(0, 0, -degrees, world)
}

func (t *Transform) RotateCCW(degrees float32, world bool) {
	t.RotateCW(-degrees, world)
}

// LookAtQuat returns the rotation that orients -Z toward direction with
// the given up vector.
func LookAtQuat(direction, up mgl32.Vec3) mgl32.Quat {
	return mgl32.QuatLookAtV(mgl32.Vec3{0, 0, 0}, direction, up)
}
