package scene

import (
	"bytes"
	"fmt"

	"github.com/glintrt/glint/types"
	"github.com/olekukonko/tablewriter"
)

// A world-space triangle with per-vertex normals and a flat albedo. Once
// extracted for a frame the triangle is immutable; the tracer only ever
// reads it.
type Triangle struct {
	V0, V1, V2 types.Vec3
	N0, N1, N2 types.Vec3

	Albedo types.Vec3
}

// Get the triangle AABB.
func (tri *Triangle) BBox() [2]types.Vec3 {
	return [2]types.Vec3{
		types.MinVec3(tri.V0, types.MinVec3(tri.V1, tri.V2)),
		types.MaxVec3(tri.V0, types.MaxVec3(tri.V1, tri.V2)),
	}
}

// Get the triangle centroid.
func (tri *Triangle) Center() types.Vec3 {
	return tri.V0.Add(tri.V1).Add(tri.V2).Mul(1.0 / 3.0)
}

// Bvh nodes are stored as a flat list; child links are indices into that
// list, never pointers. A node is a leaf iff both child indices are
// negative, in which case TriIndex points at the leaf triangle. Internal
// nodes carry no triangle and their box is exactly the union of the child
// boxes.
type BvhNode struct {
	Min types.Vec3
	Max types.Vec3

	Left  int32
	Right int32

	TriIndex int32
}

// Set the node bounding box.
func (n *BvhNode) SetBBox(min, max types.Vec3) {
	n.Min = min
	n.Max = max
}

// Set left and right child node indices.
func (n *BvhNode) SetChildNodes(left, right int32) {
	n.Left = left
	n.Right = right
}

// Set up the node as a leaf for the given triangle index.
func (n *BvhNode) SetLeaf(triIndex int32) {
	n.Left = -1
	n.Right = -1
	n.TriIndex = triIndex
}

// Returns true if the node is a leaf.
func (n *BvhNode) Leaf() bool {
	return n.Left < 0 && n.Right < 0
}

// A GeometrySnapshot is the compiled, trace-ready form of the scene: the
// extracted triangle list, the BVH built over it and the geometry digest
// the snapshot was produced from. Snapshots are immutable; the renderer
// swaps in a new one when the digest changes.
type GeometrySnapshot struct {
	Triangles []Triangle
	Nodes     []BvhNode

	// Digest of the scene state this snapshot was compiled from.
	Digest uint64

	// Max BVH depth, tracked for stats.
	MaxDepth int
}

// Build a tabular representation of snapshot statistics.
func (gs *GeometrySnapshot) Stats() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Geometry", "Count", "Size"})
	table.Append([]string{"Triangles", fmt.Sprintf("%d", len(gs.Triangles)), fmtSize(len(gs.Triangles) * 84)})
	table.Append([]string{"BVH nodes", fmt.Sprintf("%d", len(gs.Nodes)), fmtSize(len(gs.Nodes) * 36)})
	table.Append([]string{"BVH depth", fmt.Sprintf("%d", gs.MaxDepth), ""})
	table.Render()
	return buf.String()
}

// Format a byte count with the appropriate byte/kb/mb unit.
func fmtSize(totalBytes int) string {
	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", totalBytes)
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", float32(totalBytes)/1e3)
	}
	return fmt.Sprintf("%5.1f mb", float32(totalBytes)/1e6)
}
