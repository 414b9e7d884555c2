package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxelforge/lumen/engine/math"
)

// InitPlane describes a rectangle by three of its world-space corners; the
// fourth follows from the parallelogram rule.
type InitPlane struct {
	TopLeft  mgl32.Vec3
	TopRight mgl32.Vec3
	BotRight mgl32.Vec3
}

type InitBox struct {
	Center     mgl32.Vec3
	Sizes      mgl32.Vec3
	FrontPlane InitPlane
}

type InitLight struct {
	Position   mgl32.Vec3
	Color      mgl32.Vec3
	Brightness float32
}

// NewPlaneFromWorld builds a textured quad node positioned and oriented by
// the given world corners. The mesh itself is centered at the origin so
// the node transform carries all placement.
func NewPlaneFromWorld(init InitPlane, withIndices bool) *Node {
	botLeft := init.TopLeft.Sub(init.TopRight.Sub(init.BotRight))
	x := init.TopRight.Sub(init.TopLeft)
	y := init.TopLeft.Sub(botLeft)
	z := x.Cross(y).Normalize()
	center := botLeft.Add(x.Mul(0.5)).Add(y.Mul(0.5))
	width := x.Len()
	height := y.Len()

	// The texture faces the plane's front, hence the mirrored U axis.
	vertices := []Vertex{
		{Pos: mgl32.Vec3{-width / 2, height / 2, 0}, Normal: z, TexCoord: mgl32.Vec2{1, 0}},
		{Pos: mgl32.Vec3{width / 2, height / 2, 0}, Normal: z, TexCoord: mgl32.Vec2{0, 0}},
		{Pos: mgl32.Vec3{width / 2, -height / 2, 0}, Normal: z, TexCoord: mgl32.Vec2{0, 1}},
		{Pos: mgl32.Vec3{-width / 2, height / 2, 0}, Normal: z, TexCoord: mgl32.Vec2{1, 0}},
		{Pos: mgl32.Vec3{width / 2, -height / 2, 0}, Normal: z, TexCoord: mgl32.Vec2{0, 1}},
		{Pos: mgl32.Vec3{-width / 2, -height / 2, 0}, Normal: z, TexCoord: mgl32.Vec2{1, 1}},
	}

	n := NewNode(KindProp, nil, nil)
	n.Transform.Translation = center
	n.Transform.Rotation = math.LookAtQuat(z, y)
	if withIndices {
		n.Vertices, n.Indices = GenerateIndices(vertices)
	} else {
		n.Vertices = vertices
		n.Indices = trivialIndices(len(vertices))
	}
	return n
}

func boxOrientation(front InitPlane) (mgl32.Vec3, mgl32.Vec3, mgl32.Vec3) {
	botLeft := front.TopLeft.Sub(front.TopRight.Sub(front.BotRight))
	x := front.TopRight.Sub(front.TopLeft).Normalize()
	y := front.TopLeft.Sub(botLeft).Normalize()
	z := x.Cross(y).Normalize()
	return x, y, z
}

// NewBoxFromWorld builds an axis-box node oriented by its front plane.
func NewBoxFromWorld(init InitBox, withIndices bool) *Node {
	w := init.Sizes.X() / 2
	h := init.Sizes.Y() / 2
	d := init.Sizes.Z() / 2
	_, y, z := boxOrientation(init.FrontPlane)

	vertices := []Vertex{
		// front
		{Pos: mgl32.Vec3{-w, h, d}, Normal: mgl32.Vec3{0, 0, 1}, TexCoord: mgl32.Vec2{0, 0}},
		{Pos: mgl32.Vec3{-w, -h, d}, Normal: mgl32.Vec3{0, 0, 1}, TexCoord: mgl32.Vec2{0, 1}},
		{Pos: mgl32.Vec3{w, -h, d}, Normal: mgl32.Vec3{0, 0, 1}, TexCoord: mgl32.Vec2{1, 1}},
		{Pos: mgl32.Vec3{-w, h, d}, Normal: mgl32.Vec3{0, 0, 1}, TexCoord: mgl32.Vec2{0, 0}},
		{Pos: mgl32.Vec3{w, -h, d}, Normal: mgl32.Vec3{0, 0, 1}, TexCoord: mgl32.Vec2{1, 1}},
		{Pos: mgl32.Vec3{w, h, d}, Normal: mgl32.Vec3{0, 0, 1}, TexCoord: mgl32.Vec2{1, 0}},
		// right
		{Pos: mgl32.Vec3{w, h, d}, Normal: mgl32.Vec3{1, 0, 0}, TexCoord: mgl32.Vec2{0, 0}},
		{Pos: mgl32.Vec3{w, -h, d}, Normal: mgl32.Vec3{1, 0, 0}, TexCoord: mgl32.Vec2{0, 1}},
		{Pos: mgl32.Vec3{w, -h, -d}, Normal: mgl32.Vec3{1, 0, 0}, TexCoord: mgl32.Vec2{1, 1}},
		{Pos: mgl32.Vec3{w, h, d}, Normal: mgl32.Vec3{1, 0, 0}, TexCoord: mgl32.Vec2{0, 0}},
		{Pos: mgl32.Vec3{w, -h, -d}, Normal: mgl32.Vec3{1, 0, 0}, TexCoord: mgl32.Vec2{1, 1}},
		{Pos: mgl32.Vec3{w, h, -d}, Normal: mgl32.Vec3{1, 0, 0}, TexCoord: mgl32.Vec2{1, 0}},
		// back
		{Pos: mgl32.Vec3{w, h, -d}, Normal: mgl32.Vec3{0, 0, -1}, TexCoord: mgl32.Vec2{0, 0}},
		{Pos: mgl32.Vec3{w, -h, -d}, Normal: mgl32.Vec3{0, 0, -1}, TexCoord: mgl32.Vec2{0, 1}},
		{Pos: mgl32.Vec3{-w, -h, -d}, Normal: mgl32.Vec3{0, 0, -1}, TexCoord: mgl32.Vec2{1, 1}},
		{Pos: mgl32.Vec3{w, h, -d}, Normal: mgl32.Vec3{0, 0, -1}, TexCoord: mgl32.Vec2{0, 0}},
		{Pos: mgl32.Vec3{-w, -h, -d}, Normal: mgl32.Vec3{0, 0, -1}, TexCoord: mgl32.Vec2{1, 1}},
		{Pos: mgl32.Vec3{-w, h, -d}, Normal: mgl32.Vec3{0, 0, -1}, TexCoord: mgl32.Vec2{1, 0}},
		// left
		{Pos: mgl32.Vec3{-w, h, -d}, Normal: mgl32.Vec3{-1, 0, 0}, TexCoord: mgl32.Vec2{0, 0}},
		{Pos: mgl32.Vec3{-w, -h, -d}, Normal: mgl32.Vec3{-1, 0, 0}, TexCoord: mgl32.Vec2{0, 1}},
		{Pos: mgl32.Vec3{-w, -h, d}, Normal: mgl32.Vec3{-1, 0, 0}, TexCoord: mgl32.Vec2{1, 1}},
		{Pos: mgl32.Vec3{-w, h, -d}, Normal: mgl32.Vec3{-1, 0, 0}, TexCoord: mgl32.Vec2{0, 0}},
		{Pos: mgl32.Vec3{-w, -h, d}, Normal: mgl32.Vec3{-1, 0, 0}, TexCoord: mgl32.Vec2{1, 1}},
		{Pos: mgl32.Vec3{-w, h, d}, Normal: mgl32.Vec3{-1, 0, 0}, TexCoord: mgl32.Vec2{1, 0}},
		// top
		{Pos: mgl32.Vec3{w, h, d}, Normal: mgl32.Vec3{0, 1, 0}, TexCoord: mgl32.Vec2{0, 0}},
		{Pos: mgl32.Vec3{w, h, -d}, Normal: mgl32.Vec3{0, 1, 0}, TexCoord: mgl32.Vec2{0, 1}},
		{Pos: mgl32.Vec3{-w, h, -d}, Normal: mgl32.Vec3{0, 1, 0}, TexCoord: mgl32.Vec2{1, 1}},
		{Pos: mgl32.Vec3{w, h, d}, Normal: mgl32.Vec3{0, 1, 0}, TexCoord: mgl32.Vec2{0, 0}},
		{Pos: mgl32.Vec3{-w, h, -d}, Normal: mgl32.Vec3{0, 1, 0}, TexCoord: mgl32.Vec2{1, 1}},
		{Pos: mgl32.Vec3{-w, h, d}, Normal: mgl32.Vec3{0, 1, 0}, TexCoord: mgl32.Vec2{1, 0}},
		// bottom
		{Pos: mgl32.Vec3{w, -h, -d}, Normal: mgl32.Vec3{0, -1, 0}, TexCoord: mgl32.Vec2{0, 0}},
		{Pos: mgl32.Vec3{w, -h, d}, Normal: mgl32.Vec3{0, -1, 0}, TexCoord: mgl32.Vec2{0, 1}},
		{Pos: mgl32.Vec3{-w, -h, d}, Normal: mgl32.Vec3{0, -1, 0}, TexCoord: mgl32.Vec2{1, 1}},
		{Pos: mgl32.Vec3{w, -h, -d}, Normal: mgl32.Vec3{0, -1, 0}, TexCoord: mgl32.Vec2{0, 0}},
		{Pos: mgl32.Vec3{-w, -h, d}, Normal: mgl32.Vec3{0, -1, 0}, TexCoord: mgl32.Vec2{1, 1}},
		{Pos: mgl32.Vec3{-w, -h, -d}, Normal: mgl32.Vec3{0, -1, 0}, TexCoord: mgl32.Vec2{1, 0}},
	}

	n := NewNode(KindProp, nil, nil)
	n.Transform.Translation = init.Center
	n.Transform.Rotation = math.LookAtQuat(z, y)
	if withIndices {
		n.Vertices, n.Indices = GenerateIndices(vertices)
	} else {
		n.Vertices = vertices
		n.Indices = trivialIndices(len(vertices))
	}
	return n
}

func trivialIndices(count int) []uint32 {
	indices := make([]uint32, count)
	for i := range indices {
		indices[i] = uint32(i)
	}
	return indices
}

// NewAmbientLight builds the scene-wide ambient term as a node.
func NewAmbientLight(init InitLight) *Node {
	n := NewNode(KindAmbientLight, nil, nil)
	n.LightColor = init.Color
	n.Brightness = init.Brightness
	return n
}

// NewDirectionalLight builds a positioned light node.
func NewDirectionalLight(init InitLight) *Node {
	n := NewNode(KindDirectionalLight, nil, nil)
	n.LightColor = init.Color
	n.Brightness = init.Brightness
	n.Transform.Translation = init.Position
	return n
}
