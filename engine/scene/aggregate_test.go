package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func quadNode(base float32) *Node {
	vertices := []Vertex{
		{Pos: mgl32.Vec3{base, 0, 0}},
		{Pos: mgl32.Vec3{base + 1, 0, 0}},
		{Pos: mgl32.Vec3{base + 1, 1, 0}},
		{Pos: mgl32.Vec3{base, 1, 0}},
	}
	return NewNode(KindProp, vertices, []uint32{0, 1, 2, 0, 2, 3})
}

func TestAggregateRebasesIndices(t *testing.T) {
	nodes := []*Node{quadNode(0), quadNode(10), quadNode(20)}

	vertices, indices := Aggregate(nodes)
	if len(vertices) != 12 {
		t.Fatalf("expected 12 vertices, got %d", len(vertices))
	}
	if len(indices) != 18 {
		t.Fatalf("expected 18 indices, got %d", len(indices))
	}

	// Second node's indices are shifted by the first node's vertex count.
	want := []uint32{4, 5, 6, 4, 6, 7}
	for i, idx := range indices[6:12] {
		if idx != want[i] {
			t.Fatalf("index %d of second mesh = %d, want %d", i, idx, want[i])
		}
	}
	// Third node shifts by eight.
	if indices[12] != 8 {
		t.Fatalf("third mesh should start at index base 8, got %d", indices[12])
	}
}

func TestAggregateSkipsEmptyNodes(t *testing.T) {
	empty := NewNode(KindCamera, nil, nil)
	nodes := []*Node{quadNode(0), empty, quadNode(10)}

	vertices, indices := Aggregate(nodes)
	if len(vertices) != 8 || len(indices) != 12 {
		t.Fatalf("empty node must contribute nothing: %d vertices, %d indices", len(vertices), len(indices))
	}
	if indices[6] != 4 {
		t.Fatalf("offset must not advance for empty nodes, got %d", indices[6])
	}
}

func TestFlattenVisitsChildren(t *testing.T) {
	a := quadNode(0)
	b := quadNode(1)
	c := quadNode(2)
	a.AddChild(b)
	b.AddChild(c)
	d := quadNode(3)

	flat := Flatten([]*Node{a, d})
	if len(flat) != 4 {
		t.Fatalf("expected 4 nodes, got %d", len(flat))
	}
	// Roots first, then descendants as their parents are visited.
	if flat[0] != a || flat[1] != d || flat[2] != b || flat[3] != c {
		t.Fatal("flatten order mismatch")
	}
}

func TestBuildDrawsSkipAccounting(t *testing.T) {
	// Ten objects, six indices each; the fifth is transparent. The draw
	// for object six must still start at 5*6=30.
	var nodes []*Node
	for i := 0; i < 10; i++ {
		n := quadNode(float32(i))
		if i == 4 {
			n.Transparent = true
		}
		nodes = append(nodes, n)
	}

	opaque := BuildDraws(nodes, false)
	if len(opaque) != 9 {
		t.Fatalf("expected 9 opaque draws, got %d", len(opaque))
	}
	for i, d := range opaque {
		wantFirst := uint32(i * 6)
		if i >= 4 {
			wantFirst = uint32((i + 1) * 6)
		}
		if d.FirstIndex != wantFirst {
			t.Fatalf("draw %d firstIndex = %d, want %d", i, d.FirstIndex, wantFirst)
		}
		if d.IndexCount != 6 {
			t.Fatalf("draw %d indexCount = %d, want 6", i, d.IndexCount)
		}
	}

	transparent := BuildDraws(nodes, true)
	if len(transparent) != 1 {
		t.Fatalf("expected 1 transparent draw, got %d", len(transparent))
	}
	if transparent[0].FirstIndex != 24 {
		t.Fatalf("transparent draw firstIndex = %d, want 24", transparent[0].FirstIndex)
	}
}

func TestGenerateIndicesDedup(t *testing.T) {
	v0 := Vertex{Pos: mgl32.Vec3{0, 0, 0}}
	v1 := Vertex{Pos: mgl32.Vec3{1, 0, 0}}
	v2 := Vertex{Pos: mgl32.Vec3{1, 1, 0}}
	v3 := Vertex{Pos: mgl32.Vec3{0, 1, 0}}

	// Two triangles sharing an edge, as emitted by the plane factory.
	vertices, indices := GenerateIndices([]Vertex{v0, v1, v2, v0, v2, v3})
	if len(vertices) != 4 {
		t.Fatalf("expected 4 unique vertices, got %d", len(vertices))
	}
	want := []uint32{0, 1, 2, 0, 2, 3}
	for i, idx := range indices {
		if idx != want[i] {
			t.Fatalf("indices = %v, want %v", indices, want)
		}
	}
}
