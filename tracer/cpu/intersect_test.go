package cpu

import (
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/glintrt/glint/scene"
	"github.com/glintrt/glint/scene/compiler"
	"github.com/glintrt/glint/types"
)

func TestRayAABBInsideOriginAlwaysHits(t *testing.T) {
	min := types.Vec3{-1, -1, -1}
	max := types.Vec3{1, 1, 1}

	dirs := []types.Vec3{
		{1, 0, 0},
		{-1, 0, 0},
		{0, 1, 0},
		{0, -1, 0},
		{0.577, 0.577, 0.577},
	}

	for index, dir := range dirs {
		r := NewRay(types.Vec3{0.25, -0.5, 0.75}, dir)
		tNear, hit := rayAABB(&r, min, max)
		if !hit {
			t.Fatalf("[dir %d] expected a ray starting inside the box to hit it", index)
		}
		if tNear != 0 {
			t.Fatalf("[dir %d] expected a zero entry distance; got %f", index, tNear)
		}
	}
}

func TestRayAABB(t *testing.T) {
	min := types.Vec3{-1, -1, -1}
	max := types.Vec3{1, 1, 1}

	type spec struct {
		origin  types.Vec3
		dir     types.Vec3
		expHit  bool
		expNear float32
	}
	specs := []spec{
		// Box ahead of the ray
		spec{types.Vec3{0, 0, 5}, types.Vec3{0, 0, -1}, true, 4},
		// Box behind the ray
		spec{types.Vec3{0, 0, 5}, types.Vec3{0, 0, 1}, false, 0},
		// Ray parallel to the box, offset outside it
		spec{types.Vec3{3, 0, 5}, types.Vec3{0, 0, -1}, false, 0},
	}

	for index, s := range specs {
		r := NewRay(s.origin, s.dir)
		tNear, hit := rayAABB(&r, min, max)
		if hit != s.expHit {
			t.Fatalf("[spec %d] expected hit to be %t; got %t", index, s.expHit, hit)
		}
		if hit && math32.Abs(tNear-s.expNear) > 1e-4 {
			t.Fatalf("[spec %d] expected entry distance %f; got %f", index, s.expNear, tNear)
		}
	}
}

func TestIntersectTriangleRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	randVec := func(scale float32) types.Vec3 {
		return types.Vec3{
			(rng.Float32() - 0.5) * scale,
			(rng.Float32() - 0.5) * scale,
			(rng.Float32() - 0.5) * scale,
		}
	}

	for round := 0; round < 100; round++ {
		tri := &scene.Triangle{
			V0: randVec(10),
			V1: randVec(10),
			V2: randVec(10),
		}

		// Reject degenerate triangles the generator may produce
		if tri.V1.Sub(tri.V0).Cross(tri.V2.Sub(tri.V0)).Len() < 1e-3 {
			continue
		}

		// Pick a point on the surface via barycentric coordinates
		expU := rng.Float32() * 0.8
		expV := rng.Float32() * (0.9 - expU)
		point := tri.V0.Mul(1 - expU - expV).Add(tri.V1.Mul(expU)).Add(tri.V2.Mul(expV))

		// Shoot at it from a distance along a random direction
		dir := randVec(2).Normalize()
		if dir.Len() == 0 {
			continue
		}
		normal := tri.V1.Sub(tri.V0).Cross(tri.V2.Sub(tri.V0)).Normalize()
		if math32.Abs(dir.Dot(normal)) < 0.1 {
			// Too close to parallel for a stable round-trip
			continue
		}

		expDist := 5 + rng.Float32()*10
		r := NewRay(point.Sub(dir.Mul(expDist)), dir)

		dist, u, v, hit := intersectTriangle(&r, tri)
		if !hit {
			t.Fatalf("[round %d] expected a hit for a ray through a surface point", round)
		}
		if math32.Abs(dist-expDist) > 1e-2 {
			t.Fatalf("[round %d] expected distance %f; got %f", round, expDist, dist)
		}

		recon := tri.V0.Mul(1 - u - v).Add(tri.V1.Mul(u)).Add(tri.V2.Mul(v))
		if recon.Sub(point).Len() > 1e-2 {
			t.Fatalf("[round %d] expected barycentric coords to reconstruct the surface point; off by %f", round, recon.Sub(point).Len())
		}
	}
}

func TestIntersectTriangleRejections(t *testing.T) {
	tri := &scene.Triangle{
		V0: types.Vec3{-1, 0, -1},
		V1: types.Vec3{1, 0, -1},
		V2: types.Vec3{0, 0, 1},
	}

	type spec struct {
		desc   string
		origin types.Vec3
		dir    types.Vec3
	}
	specs := []spec{
		spec{"parallel to the plane", types.Vec3{0, 1, 0}, types.Vec3{1, 0, 0}},
		spec{"outside the barycentric range", types.Vec3{5, 1, 0}, types.Vec3{0, -1, 0}},
		spec{"self intersection distance", types.Vec3{0, 1e-6, 0}, types.Vec3{0, -1, 0}},
	}

	for index, s := range specs {
		r := NewRay(s.origin, s.dir)
		if _, _, _, hit := intersectTriangle(&r, tri); hit {
			t.Fatalf("[spec %d] expected a miss for a ray %s", index, s.desc)
		}
	}
}

func TestTraverseClosestHit(t *testing.T) {
	// Two parallel triangles stacked along -Z; the traversal must report
	// the nearer one regardless of BVH node ordering.
	tris := []scene.Triangle{
		makeWallTriangle(-10, 2, types.Vec3{0.2, 0.2, 0.9}),
		makeWallTriangle(-4, 2, types.Vec3{0.9, 0.2, 0.2}),
	}
	snapshot := makeTestSnapshot(tris)

	r := NewRay(types.Vec3{0, 0, 0}, types.Vec3{0, 0, -1})
	var hit HitInfo
	if !traverse(snapshot, &r, &hit) {
		t.Fatal("expected the ray to hit a triangle")
	}
	if math32.Abs(hit.Distance-4) > 1e-3 {
		t.Fatalf("expected the closest hit at distance 4; got %f", hit.Distance)
	}
	if hit.Albedo != (types.Vec3{0.9, 0.2, 0.2}) {
		t.Fatalf("expected the near triangle albedo; got %v", hit.Albedo)
	}
}

func TestTraverseEmptySnapshot(t *testing.T) {
	r := NewRay(types.Vec3{0, 0, 0}, types.Vec3{0, 0, -1})
	var hit HitInfo
	if traverse(&scene.GeometrySnapshot{}, &r, &hit) {
		t.Fatal("expected every ray to miss an empty snapshot")
	}
}

func TestShadowQuery(t *testing.T) {
	point := types.Vec3{0, 0, 0}
	toLight := types.Vec3{0, 1, 0}

	// No occluders between the point and the light
	empty := makeTestSnapshot([]scene.Triangle{
		makeTestTriangle(types.Vec3{0, -2, 0}, 2, types.Vec3{1, 1, 1}),
	})
	if occluded(empty, point, toLight, 100, 1) {
		t.Fatal("expected an unobstructed shadow ray to report visible")
	}

	// A blocking triangle strictly between the point and the light
	blocked := makeTestSnapshot([]scene.Triangle{
		makeTestTriangle(types.Vec3{0, 3, 0}, 2, types.Vec3{1, 1, 1}),
	})
	if !occluded(blocked, point, toLight, 100, 1) {
		t.Fatal("expected a blocking triangle to occlude the shadow ray")
	}

	// The same blocker beyond the max distance no longer occludes
	if occluded(blocked, point, toLight, 2, 1) {
		t.Fatal("expected a blocker past the max distance to be ignored")
	}
}

func TestShadowQueryNearOccluder(t *testing.T) {
	// A near triangle fully occluding a far one, light behind the near
	// triangle; a shadow query from the far surface must report occluded.
	near := makeTestTriangle(types.Vec3{0, 2, 0}, 4, types.Vec3{1, 1, 1})
	far := makeTestTriangle(types.Vec3{0, -2, 0}, 4, types.Vec3{1, 1, 1})
	snapshot := makeTestSnapshot([]scene.Triangle{near, far})

	onFar := types.Vec3{0.1, -2, 0.1}
	if !occluded(snapshot, onFar, types.Vec3{0, 1, 0}, maxShadowDistance, 5) {
		t.Fatal("expected the near triangle to occlude the far surface")
	}
}

func TestShadingNormalFallbacks(t *testing.T) {
	// Degenerate triangle without vertex normals falls back to +Y
	degenerate := &scene.Triangle{
		V0: types.Vec3{1, 1, 1},
		V1: types.Vec3{1, 1, 1},
		V2: types.Vec3{1, 1, 1},
	}
	if normal := geometricNormal(degenerate); normal != (types.Vec3{0, 1, 0}) {
		t.Fatalf("expected the +Y fallback normal; got %v", normal)
	}

	// The shading normal flips towards the incoming ray
	tri := &scene.Triangle{
		V0: types.Vec3{-1, 0, -1},
		V1: types.Vec3{1, 0, -1},
		V2: types.Vec3{0, 0, 1},
		N0: types.Vec3{0, 1, 0},
		N1: types.Vec3{0, 1, 0},
		N2: types.Vec3{0, 1, 0},
	}
	normal := shadingNormal(tri, 0.3, 0.3, types.Vec3{0, 1, 0})
	if normal[1] >= 0 {
		t.Fatalf("expected the normal to flip against the ray; got %v", normal)
	}
}

// Build a horizontal triangle centered at the given point with the given
// half extent.
func makeTestTriangle(center types.Vec3, size float32, albedo types.Vec3) scene.Triangle {
	up := types.Vec3{0, 1, 0}
	return scene.Triangle{
		V0:     center.Add(types.Vec3{-size, 0, -size}),
		V1:     center.Add(types.Vec3{size, 0, -size}),
		V2:     center.Add(types.Vec3{0, 0, size}),
		N0:     up,
		N1:     up,
		N2:     up,
		Albedo: albedo,
	}
}

// Build a triangle standing in the XY plane at the given Z offset.
func makeWallTriangle(z, size float32, albedo types.Vec3) scene.Triangle {
	normal := types.Vec3{0, 0, 1}
	return scene.Triangle{
		V0:     types.Vec3{-size, -size, z},
		V1:     types.Vec3{size, -size, z},
		V2:     types.Vec3{0, size, z},
		N0:     normal,
		N1:     normal,
		N2:     normal,
		Albedo: albedo,
	}
}

func makeTestSnapshot(tris []scene.Triangle) *scene.GeometrySnapshot {
	nodes, maxDepth := compiler.BuildBVH(tris)
	return &scene.GeometrySnapshot{
		Triangles: tris,
		Nodes:     nodes,
		MaxDepth:  maxDepth,
	}
}
