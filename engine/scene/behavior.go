package scene

import (
	"sync"

	"github.com/voxelforge/lumen/engine/core"
)

// FrameInput is what a behavior sees each frame.
type FrameInput struct {
	Delta       float32
	Keys        map[core.KeyCode]bool
	CursorDX    float32
	CursorDY    float32
}

type BehaviorKind uint8

const (
	// BehaviorSpin rotates the node at a constant rate.
	BehaviorSpin BehaviorKind = iota
	// BehaviorFlyControl drives the node from WASD/QE plus cursor look.
	BehaviorFlyControl
	// BehaviorCustom dispatches to a function registered by name.
	BehaviorCustom
)

// Behavior is a plain descriptor interpreted by the scene update step.
// Keeping behaviors as data instead of captured closures makes them
// inspectable and serializable.
type Behavior struct {
	Kind BehaviorKind

	// Spin parameters, degrees per second around each local axis.
	PitchPerSecond float32
	YawPerSecond   float32
	RollPerSecond  float32

	// Fly control parameters.
	MoveSpeed float32
	LookSpeed float32

	// Custom behavior name, resolved through the registry.
	Name string
}

type CustomBehaviorFunc func(n *Node, in FrameInput)

var (
	behaviorMu       sync.RWMutex
	customBehaviors  = map[string]CustomBehaviorFunc{}
)

// RegisterBehavior makes fn available to BehaviorCustom descriptors under
// the given name. Re-registering a name replaces the previous function.
func RegisterBehavior(name string, fn CustomBehaviorFunc) {
	behaviorMu.Lock()
	defer behaviorMu.Unlock()
	customBehaviors[name] = fn
}

func lookupBehavior(name string) (CustomBehaviorFunc, bool) {
	behaviorMu.RLock()
	defer behaviorMu.RUnlock()
	fn, ok := customBehaviors[name]
	return fn, ok
}

// RunBehaviors applies every behavior attached to the node, in order.
func (n *Node) RunBehaviors(in FrameInput) {
	for _, b := range n.Behaviors {
		n.applyBehavior(b, in)
	}
}

func (n *Node) applyBehavior(b Behavior, in FrameInput) {
	switch b.Kind {
	case BehaviorSpin:
		if b.PitchPerSecond != 0 {
			n.Transform.RotateUp(b.PitchPerSecond*in.Delta, false)
		}
		if b.YawPerSecond != 0 {
			n.Transform.RotateLeft(b.YawPerSecond*in.Delta, false)
		}
		if b.RollPerSecond != 0 {
			n.Transform.RotateCCW(b.RollPerSecond*in.Delta, false)
		}
	case BehaviorFlyControl:
		step := b.MoveSpeed * in.Delta
		if in.Keys[core.KEY_W] {
			n.Transform.MoveForward(step, false)
		}
		if in.Keys[core.KEY_S] {
			n.Transform.MoveBackward(step, false)
		}
		if in.Keys[core.KEY_A] {
			n.Transform.MoveLeft(step, false)
		}
		if in.Keys[core.KEY_D] {
			n.Transform.MoveRight(step, false)
		}
		if in.Keys[core.KEY_Q] {
			n.Transform.MoveDown(step, false)
		}
		if in.Keys[core.KEY_E] {
			n.Transform.MoveUp(step, false)
		}
		if in.CursorDX != 0 {
			n.Transform.RotateLeft(-in.CursorDX*b.LookSpeed, true)
		}
		if in.CursorDY != 0 {
			n.Transform.RotateUp(-in.CursorDY*b.LookSpeed, false)
		}
	case BehaviorCustom:
		fn, ok := lookupBehavior(b.Name)
		if !ok {
			core.LogWarn("no behavior registered under %q", b.Name)
			return
		}
		fn(n, in)
	}
}
