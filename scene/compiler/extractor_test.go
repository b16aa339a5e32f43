package compiler

import (
	"math"
	"testing"

	"github.com/glintrt/glint/scene"
	"github.com/glintrt/glint/types"
)

func TestExtractTransformsPositionsAndNormals(t *testing.T) {
	mesh := scene.NewMesh("quad")
	mesh.Vertices = []types.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 0, -1}}
	mesh.Normals = []types.Vec3{{0, 2, 0}, {0, 2, 0}, {0, 2, 0}}

	sc := scene.NewScene()
	sc.Objects = append(sc.Objects, &scene.Object{
		Mesh:      mesh,
		Transform: types.Translate4(types.Vec3{5, 0, 0}),
		Albedo:    types.Vec3{0.5, 0.5, 0.5},
	})

	triangles := newGeometryExtractor(nil).Extract(sc)
	if len(triangles) != 1 {
		t.Fatalf("expected 1 triangle; got %d", len(triangles))
	}

	if exp := (types.Vec3{5, 0, 0}); triangles[0].V0 != exp {
		t.Fatalf("expected transformed V0 %v; got %v", exp, triangles[0].V0)
	}

	// Translation must not leak into normals and the extractor renormalizes.
	if exp := (types.Vec3{0, 1, 0}); triangles[0].N0 != exp {
		t.Fatalf("expected normal %v; got %v", exp, triangles[0].N0)
	}
}

func TestExtractSequentialTriplesWithoutIndices(t *testing.T) {
	mesh := scene.NewMesh("soup")
	mesh.Vertices = []types.Vec3{
		{0, 0, 0}, {1, 0, 0}, {0, 1, 0},
		{2, 0, 0}, {3, 0, 0}, {2, 1, 0},
		// Trailing pair that cannot form a triangle.
		{9, 9, 9}, {10, 9, 9},
	}

	sc := scene.NewScene()
	sc.Objects = append(sc.Objects, &scene.Object{Mesh: mesh, Transform: types.Ident4()})

	triangles := newGeometryExtractor(nil).Extract(sc)
	if len(triangles) != 2 {
		t.Fatalf("expected 2 triangles; got %d", len(triangles))
	}

	// No normals were supplied; the geometric normal is used instead.
	if exp := (types.Vec3{0, 0, 1}); triangles[0].N0 != exp {
		t.Fatalf("expected geometric normal %v; got %v", exp, triangles[0].N0)
	}
}

func TestExtractSkipsBadTriangles(t *testing.T) {
	type spec struct {
		vertices []types.Vec3
		indices  []uint32
		expCount int
	}
	nan := float32(math.NaN())
	specs := []spec{
		// Out-of-range index.
		{[]types.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, []uint32{0, 1, 9}, 0},
		// Zero-area triangle.
		{[]types.Vec3{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}}, []uint32{0, 1, 2}, 0},
		// Non-finite vertex.
		{[]types.Vec3{{nan, 0, 0}, {1, 0, 0}, {0, 1, 0}}, []uint32{0, 1, 2}, 0},
		// One valid face after a broken one.
		{[]types.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, []uint32{0, 1, 9, 0, 1, 2}, 1},
	}

	for index, s := range specs {
		mesh := scene.NewMesh("mesh")
		mesh.Vertices = s.vertices
		mesh.Indices = s.indices

		sc := scene.NewScene()
		sc.Objects = append(sc.Objects, &scene.Object{Mesh: mesh, Transform: types.Ident4()})

		triangles := newGeometryExtractor(nil).Extract(sc)
		if len(triangles) != s.expCount {
			t.Fatalf("[spec %d] expected %d triangles; got %d", index, s.expCount, len(triangles))
		}
	}
}

func TestExtractFrustumCulling(t *testing.T) {
	cam := scene.NewCamera(60)
	cam.Position = types.Vec3{0, 0, 0}
	cam.LookAt = types.Vec3{0, 0, -1}
	cam.Far = 10
	cam.SetupProjection(1)

	type spec struct {
		center   types.Vec3
		expCount int
	}
	specs := []spec{
		// In front of the camera.
		{types.Vec3{0, 0, -5}, 1},
		// Behind the camera.
		{types.Vec3{0, 0, 5}, 0},
		// Beyond the far plane.
		{types.Vec3{0, 0, -50}, 0},
		// Far off to the side.
		{types.Vec3{40, 0, -5}, 0},
	}

	for index, s := range specs {
		planes := ExtractFrustumPlanes(cam.ViewProjMat())
		sc := sceneWithTriangleAt(s.center, cam)

		triangles := newGeometryExtractor(planes[:]).Extract(sc)
		if len(triangles) != s.expCount {
			t.Fatalf("[spec %d] expected %d triangles after culling; got %d", index, s.expCount, len(triangles))
		}
	}
}

// A triangle with only one vertex inside the frustum is partially visible
// and must be kept.
func TestExtractCullingIsConservative(t *testing.T) {
	cam := scene.NewCamera(60)
	cam.LookAt = types.Vec3{0, 0, -1}
	cam.Far = 10
	cam.SetupProjection(1)
	planes := ExtractFrustumPlanes(cam.ViewProjMat())

	mesh := scene.NewMesh("straddle")
	mesh.Vertices = []types.Vec3{{0, 0, -5}, {100, 0, -5}, {100, 1, -5}}
	sc := scene.NewScene()
	sc.Camera = cam
	sc.Objects = append(sc.Objects, &scene.Object{Mesh: mesh, Transform: types.Ident4()})

	triangles := newGeometryExtractor(planes[:]).Extract(sc)
	if len(triangles) != 1 {
		t.Fatalf("expected partially visible triangle to be kept; got %d triangles", len(triangles))
	}
}

func TestExtractRelaxedFarPlaneForReflections(t *testing.T) {
	cam := scene.NewCamera(60)
	cam.LookAt = types.Vec3{0, 0, -1}
	cam.Far = 10
	cam.SetupProjection(1)

	// Just beyond the far plane: culled normally, kept when the margin is
	// applied.
	sc := sceneWithTriangleAt(types.Vec3{0, 0, -11}, cam)

	planes := ExtractFrustumPlanes(cam.ViewProjMat())
	if got := len(newGeometryExtractor(planes[:]).Extract(sc)); got != 0 {
		t.Fatalf("expected triangle beyond the far plane to be culled; got %d", got)
	}

	planes = ExtractFrustumPlanes(cam.ViewProjMat())
	planes[PlaneFar].D += reflectionFarMarginScale * farPlaneDiagonal(cam.FOV, cam.Aspect, cam.Far)
	if got := len(newGeometryExtractor(planes[:]).Extract(sc)); got != 1 {
		t.Fatalf("expected triangle to survive the relaxed far plane; got %d", got)
	}
}

func sceneWithTriangleAt(center types.Vec3, cam *scene.Camera) *scene.Scene {
	mesh := scene.NewMesh("tri")
	mesh.Vertices = []types.Vec3{
		center.Add(types.Vec3{-0.5, -0.5, 0}),
		center.Add(types.Vec3{0.5, -0.5, 0}),
		center.Add(types.Vec3{0, 0.5, 0}),
	}

	sc := scene.NewScene()
	sc.Camera = cam
	sc.Objects = append(sc.Objects, &scene.Object{Mesh: mesh, Transform: types.Ident4()})
	return sc
}
