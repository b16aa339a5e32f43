package cpu

import (
	"github.com/chewxy/math32"
	"github.com/glintrt/glint/scene"
	"github.com/glintrt/glint/types"
)

const (
	// Rays nearly parallel to a triangle plane are treated as misses.
	intersectEpsilon float32 = 1e-7

	// Intersections closer than this are self-intersections and are
	// ignored.
	minHitDistance float32 = 1e-4

	// Shadow ray bias per unit of viewer distance.
	shadowBiasScale float32 = 1e-3

	// Traversal stack size; bounds the supported BVH depth.
	traversalStackSize = 64
)

// A ray with a precomputed inverse direction for slab tests.
type Ray struct {
	Origin types.Vec3
	Dir    types.Vec3
	InvDir types.Vec3
}

func NewRay(origin, dir types.Vec3) Ray {
	return Ray{
		Origin: origin,
		Dir:    dir,
		InvDir: types.Vec3{1.0 / dir[0], 1.0 / dir[1], 1.0 / dir[2]},
	}
}

// The closest intersection found by a traversal.
type HitInfo struct {
	Hit      bool
	Distance float32
	Position types.Vec3
	Normal   types.Vec3
	Albedo   types.Vec3
}

// Slab test against an axis-aligned box. Returns the entry distance along
// the ray, clamped to zero. A ray whose origin lies strictly inside the
// box always reports a hit.
func rayAABB(r *Ray, min, max types.Vec3) (float32, bool) {
	if r.Origin[0] > min[0] && r.Origin[0] < max[0] &&
		r.Origin[1] > min[1] && r.Origin[1] < max[1] &&
		r.Origin[2] > min[2] && r.Origin[2] < max[2] {
		return 0, true
	}

	tMin := (min[0] - r.Origin[0]) * r.InvDir[0]
	tMax := (max[0] - r.Origin[0]) * r.InvDir[0]
	if tMin > tMax {
		tMin, tMax = tMax, tMin
	}

	for axis := 1; axis < 3; axis++ {
		t0 := (min[axis] - r.Origin[axis]) * r.InvDir[axis]
		t1 := (max[axis] - r.Origin[axis]) * r.InvDir[axis]
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tMin {
			tMin = t0
		}
		if t1 < tMax {
			tMax = t1
		}
	}

	if tMax < tMin || tMax < 0 {
		return 0, false
	}
	if tMin < 0 {
		tMin = 0
	}
	return tMin, true
}

// Moeller-Trumbore ray/triangle intersection. On a hit the distance and
// the barycentric u,v coordinates are returned.
func intersectTriangle(r *Ray, tri *scene.Triangle) (dist, u, v float32, hit bool) {
	edge1 := tri.V1.Sub(tri.V0)
	edge2 := tri.V2.Sub(tri.V0)

	pvec := r.Dir.Cross(edge2)
	det := edge1.Dot(pvec)
	if math32.Abs(det) < intersectEpsilon {
		return 0, 0, 0, false
	}

	invDet := 1.0 / det
	tvec := r.Origin.Sub(tri.V0)
	u = tvec.Dot(pvec) * invDet
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}

	qvec := tvec.Cross(edge1)
	v = r.Dir.Dot(qvec) * invDet
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}

	dist = edge2.Dot(qvec) * invDet
	if dist < minHitDistance {
		return 0, 0, 0, false
	}
	return dist, u, v, true
}

// Walk the BVH depth-first and find the closest triangle intersection.
// Internal nodes push both children; a popped node is pruned when its
// entry distance already exceeds the best hit found so far.
func traverse(snapshot *scene.GeometrySnapshot, r *Ray, hit *HitInfo) bool {
	hit.Hit = false
	if len(snapshot.Nodes) == 0 {
		return false
	}

	var stack [traversalStackSize]int32
	stack[0] = 0
	stackTop := 1

	bestDist := float32(math32.MaxFloat32)
	bestTri := int32(-1)
	var bestU, bestV float32

	for stackTop > 0 {
		stackTop--
		node := &snapshot.Nodes[stack[stackTop]]

		tNear, ok := rayAABB(r, node.Min, node.Max)
		if !ok || tNear > bestDist {
			continue
		}

		if node.Leaf() {
			if node.TriIndex < 0 || int(node.TriIndex) >= len(snapshot.Triangles) {
				continue
			}
			tri := &snapshot.Triangles[node.TriIndex]
			if dist, u, v, ok := intersectTriangle(r, tri); ok && dist < bestDist {
				bestDist, bestU, bestV = dist, u, v
				bestTri = node.TriIndex
			}
			continue
		}

		// Drop the subtree rather than overflow the stack on trees
		// deeper than it supports.
		if stackTop+2 > traversalStackSize {
			continue
		}
		stack[stackTop] = node.Left
		stack[stackTop+1] = node.Right
		stackTop += 2
	}

	if bestTri < 0 {
		return false
	}

	tri := &snapshot.Triangles[bestTri]
	hit.Hit = true
	hit.Distance = bestDist
	hit.Position = r.Origin.Add(r.Dir.Mul(bestDist))
	hit.Normal = shadingNormal(tri, bestU, bestV, r.Dir)
	hit.Albedo = tri.Albedo
	return true
}

// Check whether any triangle blocks the segment from point towards dir
// within maxDist. The near cutoff scales with the viewer distance so that
// distant surfaces with larger reconstruction error do not shadow
// themselves.
func occluded(snapshot *scene.GeometrySnapshot, point, dir types.Vec3, maxDist, viewerDist float32) bool {
	if len(snapshot.Nodes) == 0 {
		return false
	}

	bias := viewerDist * shadowBiasScale
	if bias < minHitDistance {
		bias = minHitDistance
	}

	r := NewRay(point, dir)

	var stack [traversalStackSize]int32
	stack[0] = 0
	stackTop := 1

	for stackTop > 0 {
		stackTop--
		node := &snapshot.Nodes[stack[stackTop]]

		tNear, ok := rayAABB(&r, node.Min, node.Max)
		if !ok || tNear > maxDist {
			continue
		}

		if node.Leaf() {
			if node.TriIndex < 0 || int(node.TriIndex) >= len(snapshot.Triangles) {
				continue
			}
			tri := &snapshot.Triangles[node.TriIndex]
			if dist, _, _, ok := intersectTriangle(&r, tri); ok && dist > bias && dist < maxDist {
				return true
			}
			continue
		}

		if stackTop+2 > traversalStackSize {
			continue
		}
		stack[stackTop] = node.Left
		stack[stackTop+1] = node.Right
		stackTop += 2
	}

	return false
}

// Interpolate the vertex normals at the barycentric hit coordinates,
// falling back to the geometric normal when the mesh carries none. The
// result is flipped to face the incoming ray so back-facing geometry
// shades correctly.
func shadingNormal(tri *scene.Triangle, u, v float32, rayDir types.Vec3) types.Vec3 {
	w := 1.0 - u - v
	normal := tri.N0.Mul(w).Add(tri.N1.Mul(u)).Add(tri.N2.Mul(v))
	if normal.Len() < intersectEpsilon {
		normal = geometricNormal(tri)
	}
	normal = normal.Normalize()
	if normal.Dot(rayDir) > 0 {
		normal = normal.Mul(-1)
	}
	return normal
}

// The normalized cross product of the triangle edges; +Y for degenerate
// triangles.
func geometricNormal(tri *scene.Triangle) types.Vec3 {
	normal := tri.V1.Sub(tri.V0).Cross(tri.V2.Sub(tri.V0))
	if normal.Len() < intersectEpsilon {
		return types.Vec3{0, 1, 0}
	}
	return normal.Normalize()
}
