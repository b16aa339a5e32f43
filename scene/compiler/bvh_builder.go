package compiler

import (
	"math"
	"time"

	"github.com/glintrt/glint/log"
	"github.com/glintrt/glint/scene"
	"github.com/glintrt/glint/types"
)

type buildStats struct {
	nodes    int
	leafs    int
	maxDepth int
}

// builder constructs a flat BVH over a triangle slice. Nodes are appended
// to a contiguous list and reference their children by index; node 0 is
// always the root. The triangle slice is partitioned in place, so leaf
// TriIndex values refer to positions in the reordered slice.
type builder struct {
	logger log.Logger

	triangles []scene.Triangle
	nodes     []scene.BvhNode

	stats buildStats
}

// Build a BVH over the given triangles. The split axis cycles X->Y->Z with
// tree depth and triangles are partitioned by comparing their centroid
// against the node box midpoint; a degenerate partition falls back to the
// median index so progress is guaranteed. For any non-empty input the
// resulting tree has exactly one leaf per triangle.
func BuildBVH(triangles []scene.Triangle) ([]scene.BvhNode, int) {
	if len(triangles) == 0 {
		return nil, 0
	}

	b := &builder{
		logger:    log.New("bvh builder"),
		triangles: triangles,
		nodes:     make([]scene.BvhNode, 0, 2*len(triangles)),
	}

	start := time.Now()
	b.partition(0, len(triangles), 0)
	b.logger.Debugf(
		"BVH build time: %d ms, maxDepth: %d, nodes: %d, leafs: %d",
		time.Since(start).Nanoseconds()/1e6,
		b.stats.maxDepth, b.stats.nodes, b.stats.leafs,
	)
	return b.nodes, b.stats.maxDepth
}

// Partition the triangle range [start, end) and return the node index.
func (b *builder) partition(start, end, depth int) int32 {
	if depth > b.stats.maxDepth {
		b.stats.maxDepth = depth
	}

	node := scene.BvhNode{
		Min:      types.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		Max:      types.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
		Left:     -1,
		Right:    -1,
		TriIndex: -1,
	}

	// Calculate the union bounding box for the range.
	for i := start; i < end; i++ {
		bbox := b.triangles[i].BBox()
		node.Min = types.MinVec3(node.Min, bbox[0])
		node.Max = types.MaxVec3(node.Max, bbox[1])
	}

	if end-start == 1 {
		node.SetLeaf(int32(start))
		return b.appendNode(node, true)
	}

	// Cycle the split axis with depth and partition by centroid against the
	// box midpoint. Swaps move the below-midpoint triangles to the front.
	axis := depth % 3
	midPoint := (node.Min[axis] + node.Max[axis]) * 0.5

	mid := start
	for i := start; i < end; i++ {
		if b.triangles[i].Center()[axis] < midPoint {
			b.triangles[i], b.triangles[mid] = b.triangles[mid], b.triangles[i]
			mid++
		}
	}

	// Force a median split when everything lands on one side.
	if mid == start || mid == end {
		mid = (start + end) / 2
	}

	nodeIndex := b.appendNode(node, false)
	leftIndex := b.partition(start, mid, depth+1)
	rightIndex := b.partition(mid, end, depth+1)
	b.nodes[nodeIndex].SetChildNodes(leftIndex, rightIndex)

	return nodeIndex
}

func (b *builder) appendNode(node scene.BvhNode, leaf bool) int32 {
	nodeIndex := len(b.nodes)
	b.nodes = append(b.nodes, node)
	b.stats.nodes++
	if leaf {
		b.stats.leafs++
	}
	return int32(nodeIndex)
}
