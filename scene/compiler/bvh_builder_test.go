package compiler

import (
	"testing"

	"github.com/glintrt/glint/scene"
	"github.com/glintrt/glint/types"
)

func TestBVHLeafCountMatchesTriangleCount(t *testing.T) {
	type spec struct {
		numTriangles int
	}
	specs := []spec{
		{1},
		{2},
		{7},
		{64},
	}

	for index, s := range specs {
		triangles := makeTriangleGrid(s.numTriangles)
		nodes, _ := BuildBVH(triangles)

		leafs := 0
		for i := range nodes {
			if nodes[i].Leaf() {
				leafs++
			}
		}

		if leafs != s.numTriangles {
			t.Fatalf("[spec %d] expected %d leafs; got %d", index, s.numTriangles, leafs)
		}

		// A binary tree with one triangle per leaf has exactly 2n-1 nodes.
		if expNodes := 2*s.numTriangles - 1; len(nodes) != expNodes {
			t.Fatalf("[spec %d] expected %d nodes; got %d", index, expNodes, len(nodes))
		}
	}
}

func TestBVHInternalBoxIsUnionOfChildren(t *testing.T) {
	triangles := makeTriangleGrid(33)
	nodes, _ := BuildBVH(triangles)

	var walk func(index int32)
	walk = func(index int32) {
		node := &nodes[index]
		if node.Leaf() {
			if node.TriIndex < 0 || int(node.TriIndex) >= len(triangles) {
				t.Fatalf("leaf node %d references invalid triangle %d", index, node.TriIndex)
			}

			bbox := triangles[node.TriIndex].BBox()
			if node.Min != bbox[0] || node.Max != bbox[1] {
				t.Fatalf("leaf node %d box does not match its triangle AABB", index)
			}
			return
		}

		left := &nodes[node.Left]
		right := &nodes[node.Right]
		expMin := types.MinVec3(left.Min, right.Min)
		expMax := types.MaxVec3(left.Max, right.Max)
		if node.Min != expMin || node.Max != expMax {
			t.Fatalf(
				"internal node %d box is not the union of its children; expected %v-%v; got %v-%v",
				index, expMin, expMax, node.Min, node.Max,
			)
		}

		walk(node.Left)
		walk(node.Right)
	}

	walk(0)
}

func TestBVHSingleTriangle(t *testing.T) {
	triangles := makeTriangleGrid(1)
	nodes, maxDepth := BuildBVH(triangles)

	if len(nodes) != 1 {
		t.Fatalf("expected a single root leaf; got %d nodes", len(nodes))
	}
	if !nodes[0].Leaf() || nodes[0].TriIndex != 0 {
		t.Fatalf("expected root to be a leaf for triangle 0; got %+v", nodes[0])
	}
	if maxDepth != 0 {
		t.Fatalf("expected maxDepth 0; got %d", maxDepth)
	}
}

// Identical centroids degenerate the midpoint partition; the forced median
// split must still produce a full tree.
func TestBVHDegeneratePartition(t *testing.T) {
	numTriangles := 8
	triangles := make([]scene.Triangle, numTriangles)
	for i := 0; i < numTriangles; i++ {
		triangles[i] = makeTriangle(types.Vec3{0, 0, 0})
	}

	nodes, _ := BuildBVH(triangles)

	leafs := 0
	for i := range nodes {
		if nodes[i].Leaf() {
			leafs++
		}
	}
	if leafs != numTriangles {
		t.Fatalf("expected %d leafs; got %d", numTriangles, leafs)
	}
}

func TestBVHEmptyInput(t *testing.T) {
	nodes, maxDepth := BuildBVH(nil)
	if nodes != nil || maxDepth != 0 {
		t.Fatalf("expected no nodes for empty input; got %d nodes", len(nodes))
	}
}

func makeTriangle(origin types.Vec3) scene.Triangle {
	up := types.Vec3{0, 1, 0}
	return scene.Triangle{
		V0: origin,
		V1: origin.Add(types.Vec3{1, 0, 0}),
		V2: origin.Add(types.Vec3{0, 0, 1}),
		N0: up, N1: up, N2: up,
		Albedo: types.Vec3{1, 1, 1},
	}
}

func makeTriangleGrid(count int) []scene.Triangle {
	triangles := make([]scene.Triangle, count)
	for i := 0; i < count; i++ {
		origin := types.Vec3{float32(i % 8 * 2), float32(i / 64 * 2), float32(i / 8 % 8 * 2)}
		triangles[i] = makeTriangle(origin)
	}
	return triangles
}
