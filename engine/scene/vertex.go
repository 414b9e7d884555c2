package scene

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is the single vertex layout shared by every pipeline.
type Vertex struct {
	Pos      mgl32.Vec3
	Normal   mgl32.Vec3
	Color    mgl32.Vec3
	TexCoord mgl32.Vec2
}

const VertexSize = uint32(unsafe.Sizeof(Vertex{}))

const (
	VertexOffsetPos      = uint32(unsafe.Offsetof(Vertex{}.Pos))
	VertexOffsetNormal   = uint32(unsafe.Offsetof(Vertex{}.Normal))
	VertexOffsetColor    = uint32(unsafe.Offsetof(Vertex{}.Color))
	VertexOffsetTexCoord = uint32(unsafe.Offsetof(Vertex{}.TexCoord))
)

// GenerateIndices deduplicates vertices and produces an index list that
// reproduces the input ordering.
func GenerateIndices(from []Vertex) ([]Vertex, []uint32) {
	var vertices []Vertex
	indices := make([]uint32, 0, len(from))
	seen := make(map[Vertex]uint32, len(from))
	for _, v := range from {
		if idx, ok := seen[v]; ok {
			indices = append(indices, idx)
			continue
		}
		idx := uint32(len(vertices))
		seen[v] = idx
		vertices = append(vertices, v)
		indices = append(indices, idx)
	}
	return vertices, indices
}
