package scene

// Flatten expands the object trees breadth first: the registered roots in
// order, then every child as its parent is visited. Draw recording and
// buffer packing must walk the same order or the firstIndex bookkeeping
// falls apart.
func Flatten(roots []*Node) []*Node {
	all := make([]*Node, len(roots))
	copy(all, roots)
	for i := 0; i < len(all); i++ {
		all = append(all, all[i].Children...)
	}
	return all
}

// Aggregate concatenates every node's mesh into one shared vertex and one
// shared index list. Index values are rebased by the running vertex count
// so they stay valid inside the shared buffer. Nodes without vertices
// contribute nothing.
func Aggregate(nodes []*Node) ([]Vertex, []uint32) {
	var vertices []Vertex
	var indices []uint32
	indexOffset := uint32(0)
	for _, n := range nodes {
		if len(n.Vertices) == 0 {
			continue
		}
		vertices = append(vertices, n.Vertices...)
		for _, idx := range n.Indices {
			indices = append(indices, idx+indexOffset)
		}
		indexOffset += uint32(len(n.Vertices))
	}
	return vertices, indices
}

// Draw is one indexed draw into the shared buffers.
type Draw struct {
	Node       *Node
	IndexCount uint32
	FirstIndex uint32
}

// BuildDraws selects the nodes of one phase (opaque or transparent) and
// computes their firstIndex offsets. Skipped nodes still advance the
// offset, their indices occupy space in the shared buffer.
func BuildDraws(nodes []*Node, transparent bool) []Draw {
	var draws []Draw
	alreadyDrawn := uint32(0)
	for _, n := range nodes {
		count := uint32(len(n.Indices))
		if len(n.Vertices) == 0 {
			continue
		}
		if n.Transparent != transparent {
			alreadyDrawn += count
			continue
		}
		draws = append(draws, Draw{
			Node:       n,
			IndexCount: count,
			FirstIndex: alreadyDrawn,
		})
		alreadyDrawn += count
	}
	return draws
}
