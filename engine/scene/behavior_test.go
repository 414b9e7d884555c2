package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxelforge/lumen/engine/core"
)

func TestSpinBehavior(t *testing.T) {
	n := quadNode(0)
	n.Behaviors = append(n.Behaviors, Behavior{
		Kind:         BehaviorSpin,
		YawPerSecond: 90,
	})

	n.RunBehaviors(FrameInput{Delta: 1})

	// After a 90 degree yaw the local -Z forward points along +X... or -X
	// depending on handedness; either way the rotation must no longer be
	// identity and must keep unit length.
	if n.Transform.Rotation.ApproxEqualThreshold(mgl32.QuatIdent(), 1e-5) {
		t.Fatal("spin did not rotate the node")
	}
	if l := n.Transform.Rotation.Len(); l < 0.999 || l > 1.001 {
		t.Fatalf("rotation denormalized: %f", l)
	}
}

func TestFlyControlMovesWithKeys(t *testing.T) {
	n := NewCamera()
	n.Behaviors = append(n.Behaviors, Behavior{
		Kind:      BehaviorFlyControl,
		MoveSpeed: 2,
	})

	n.RunBehaviors(FrameInput{
		Delta: 0.5,
		Keys:  map[core.KeyCode]bool{core.KEY_W: true},
	})

	want := mgl32.Vec3{0, 0, -1}
	if !n.Transform.Translation.ApproxEqualThreshold(want, 1e-5) {
		t.Fatalf("translation = %v, want %v", n.Transform.Translation, want)
	}
}

func TestCustomBehaviorRegistry(t *testing.T) {
	called := 0
	RegisterBehavior("test-bounce", func(n *Node, in FrameInput) {
		called++
		n.Transform.Translation[1] += in.Delta
	})

	n := quadNode(0)
	n.Behaviors = append(n.Behaviors, Behavior{Kind: BehaviorCustom, Name: "test-bounce"})

	n.RunBehaviors(FrameInput{Delta: 2})
	if called != 1 {
		t.Fatalf("custom behavior ran %d times", called)
	}
	if n.Transform.Translation.Y() != 2 {
		t.Fatalf("custom behavior effect missing: %v", n.Transform.Translation)
	}

	// Unknown names must not panic.
	n.Behaviors = []Behavior{{Kind: BehaviorCustom, Name: "missing"}}
	n.RunBehaviors(FrameInput{Delta: 1})
}
