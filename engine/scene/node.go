package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/voxelforge/lumen/engine/math"
)

// Kind discriminates what a node is. Together with the capability set it
// replaces type hierarchies and downcasts: renderer code asks a node what
// it can do instead of what it is.
type Kind uint8

const (
	KindProp Kind = iota
	KindCamera
	KindAmbientLight
	KindDirectionalLight
)

type Capability uint8

const (
	CapDrawable Capability = 1 << iota
	CapEmitsLight
	CapView
)

// Reserved texture slots, uploaded by the renderer before any scene
// texture. New nodes reference them until real maps are assigned.
const (
	DefaultAlbedoSlot   uint32 = 0 // 1x1 white
	DefaultNormalSlot   uint32 = 1 // 1x1 flat normal
	DefaultEmissiveSlot uint32 = 2 // 1x1 black
)

// Node is a scene element: a drawable prop, a camera or a light,
// discriminated by Kind. Children inherit nothing implicitly; the
// aggregation step flattens the tree for drawing.
type Node struct {
	ID       uuid.UUID
	Kind     Kind
	Parent   *Node
	Children []*Node

	Vertices []Vertex
	Indices  []uint32

	Transform math.Transform

	TextureIndex  uint32
	NormalIndex   uint32
	EmissiveIndex uint32
	AlphaCutoff   float32
	Transparent   bool

	Behaviors []Behavior

	// Light parameters, meaningful when CapEmitsLight is set.
	LightColor mgl32.Vec3
	Brightness float32
}

// NewNode builds a node of the given kind. When no indices are supplied a
// trivial 0..n-1 index list is generated.
func NewNode(kind Kind, vertices []Vertex, indices []uint32) *Node {
	if len(indices) == 0 && len(vertices) > 0 {
		indices = make([]uint32, len(vertices))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	return &Node{
		ID:            uuid.New(),
		Kind:          kind,
		Vertices:      vertices,
		Indices:       indices,
		Transform:     math.NewTransform(),
		TextureIndex:  DefaultAlbedoSlot,
		NormalIndex:   DefaultNormalSlot,
		EmissiveIndex: DefaultEmissiveSlot,
	}
}

func (n *Node) Capabilities() Capability {
	switch n.Kind {
	case KindProp:
		if len(n.Vertices) > 0 {
			return CapDrawable
		}
		return 0
	case KindCamera:
		return CapView
	case KindAmbientLight, KindDirectionalLight:
		return CapEmitsLight
	}
	return 0
}

func (n *Node) Can(c Capability) bool {
	return n.Capabilities()&c != 0
}

func (n *Node) AddChild(child *Node) {
	child.Parent = n
	n.Children = append(n.Children, child)
}

// SetColor overrides the vertex color of the whole mesh.
func (n *Node) SetColor(color mgl32.Vec3) {
	for i := range n.Vertices {
		n.Vertices[i].Color = color
	}
}

// WorldMatrix composes the model matrices from the root down to this node.
func (n *Node) WorldMatrix() mgl32.Mat4 {
	m := n.Transform.ModelMatrix()
	for p := n.Parent; p != nil; p = p.Parent {
		m = p.Transform.ModelMatrix().Mul4(m)
	}
	return m
}

// NewCamera returns a view node looking down -Z from the origin.
func NewCamera() *Node {
	n := NewNode(KindCamera, nil, nil)
	n.Transform.Rotation = math.LookAtQuat(mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})
	return n
}

// ViewMatrix inverts the camera's model matrix.
func (n *Node) ViewMatrix() mgl32.Mat4 {
	return n.Transform.ModelMatrix().Inv()
}
