package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestNodeCapabilities(t *testing.T) {
	tests := []struct {
		name string
		node *Node
		can  Capability
		not  Capability
	}{
		{"prop with mesh", quadNode(0), CapDrawable, CapEmitsLight},
		{"empty prop", NewNode(KindProp, nil, nil), 0, CapDrawable},
		{"camera", NewCamera(), CapView, CapDrawable},
		{"directional light", NewDirectionalLight(InitLight{}), CapEmitsLight, CapDrawable},
		{"ambient light", NewAmbientLight(InitLight{}), CapEmitsLight, CapView},
	}
	for _, tt := range tests {
		if tt.can != 0 && !tt.node.Can(tt.can) {
			t.Errorf("%s: missing capability %b", tt.name, tt.can)
		}
		if tt.node.Can(tt.not) {
			t.Errorf("%s: unexpected capability %b", tt.name, tt.not)
		}
	}
}

func TestNewNodeGeneratesTrivialIndices(t *testing.T) {
	n := NewNode(KindProp, []Vertex{{}, {}, {}}, nil)
	if len(n.Indices) != 3 {
		t.Fatalf("expected 3 indices, got %d", len(n.Indices))
	}
	for i, idx := range n.Indices {
		if idx != uint32(i) {
			t.Fatalf("indices = %v, want identity", n.Indices)
		}
	}
}

func TestSetColor(t *testing.T) {
	n := quadNode(0)
	n.SetColor(mgl32.Vec3{0.5, 0.25, 1})
	for i, v := range n.Vertices {
		if v.Color != (mgl32.Vec3{0.5, 0.25, 1}) {
			t.Fatalf("vertex %d color = %v", i, v.Color)
		}
	}
}

func TestCameraViewMatrixInvertsModel(t *testing.T) {
	cam := NewCamera()
	cam.Transform.Translation = mgl32.Vec3{0, 0, 5}

	view := cam.ViewMatrix()
	// A point at the camera position maps to the view-space origin.
	p := view.Mul4x1(mgl32.Vec4{0, 0, 5, 1})
	if !p.ApproxEqualThreshold(mgl32.Vec4{0, 0, 0, 1}, 1e-5) {
		t.Fatalf("camera position should map to origin, got %v", p)
	}
	// A point one unit in front of the camera lands on -Z.
	p = view.Mul4x1(mgl32.Vec4{0, 0, 4, 1})
	if !p.ApproxEqualThreshold(mgl32.Vec4{0, 0, -1, 1}, 1e-5) {
		t.Fatalf("forward point should land at z=-1, got %v", p)
	}
}
