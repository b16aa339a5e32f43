package compiler

import (
	"github.com/chewxy/math32"
	"github.com/glintrt/glint/log"
	"github.com/glintrt/glint/scene"
	"github.com/glintrt/glint/types"
)

const (
	// A vertex must be strictly outside a frustum plane by this margin
	// before it counts against the triangle. Partially visible triangles
	// are always kept.
	cullEpsilon float32 = 1e-3

	// Triangles with a squared area below this threshold are treated as
	// degenerate and dropped during extraction.
	minTriangleArea float32 = 1e-12
)

type extractStats struct {
	objects    int
	triangles  int
	culled     int
	degenerate int
	skipped    int
}

// geometryExtractor pulls world-space triangles out of the renderable
// object list. When culling planes are set, triangles fully outside any
// single plane are discarded.
type geometryExtractor struct {
	logger log.Logger

	planes    []FrustumPlane
	triangles []scene.Triangle

	stats extractStats
}

func newGeometryExtractor(planes []FrustumPlane) *geometryExtractor {
	return &geometryExtractor{
		logger:    log.New("extractor"),
		planes:    planes,
		triangles: make([]scene.Triangle, 0),
	}
}

// Extract triangles from all scene objects. The output order is stable for
// a given scene state; BVH leaf indices refer to it.
func (e *geometryExtractor) Extract(sc *scene.Scene) []scene.Triangle {
	for _, obj := range sc.Objects {
		if obj.Mesh == nil {
			continue
		}
		e.stats.objects++
		e.appendObject(obj)
	}

	e.logger.Debugf(
		"extracted %d tris from %d objects (culled: %d, degenerate: %d, bad indices: %d)",
		e.stats.triangles, e.stats.objects, e.stats.culled, e.stats.degenerate, e.stats.skipped,
	)
	return e.triangles
}

func (e *geometryExtractor) appendObject(obj *scene.Object) {
	mesh := obj.Mesh

	if len(mesh.Indices) >= 3 {
		stride := mesh.IndexStride
		if stride <= 0 {
			stride = 3
		}
		for i := 0; i+2 < len(mesh.Indices); i += stride {
			e.appendTriangle(obj, int(mesh.Indices[i]), int(mesh.Indices[i+1]), int(mesh.Indices[i+2]))
		}
		return
	}

	for i := 0; i+2 < len(mesh.Vertices); i += 3 {
		e.appendTriangle(obj, i, i+1, i+2)
	}
}

func (e *geometryExtractor) appendTriangle(obj *scene.Object, i0, i1, i2 int) {
	mesh := obj.Mesh
	numVerts := len(mesh.Vertices)
	if i0 < 0 || i1 < 0 || i2 < 0 || i0 >= numVerts || i1 >= numVerts || i2 >= numVerts {
		e.stats.skipped++
		return
	}

	world := obj.Transform
	v0 := world.TransformPoint(mesh.Vertices[i0])
	v1 := world.TransformPoint(mesh.Vertices[i1])
	v2 := world.TransformPoint(mesh.Vertices[i2])

	if !finiteVec(v0) || !finiteVec(v1) || !finiteVec(v2) {
		e.stats.degenerate++
		return
	}

	// Geometric normal doubles as the zero-area check.
	geomNormal := v1.Sub(v0).Cross(v2.Sub(v0))
	if geomNormal.Dot(geomNormal) < minTriangleArea {
		e.stats.degenerate++
		return
	}
	geomNormal = geomNormal.Normalize()

	if e.planes != nil && e.triangleOutside(v0, v1, v2) {
		e.stats.culled++
		return
	}

	tri := scene.Triangle{
		V0: v0, V1: v1, V2: v2,
		Albedo: obj.Albedo,
	}

	// Normals use the same matrix with the translation suppressed. Missing
	// or out-of-range normals fall back to the geometric normal.
	numNormals := len(mesh.Normals)
	if i0 < numNormals && i1 < numNormals && i2 < numNormals {
		tri.N0 = world.TransformDir(mesh.Normals[i0]).Normalize()
		tri.N1 = world.TransformDir(mesh.Normals[i1]).Normalize()
		tri.N2 = world.TransformDir(mesh.Normals[i2]).Normalize()
	} else {
		tri.N0, tri.N1, tri.N2 = geomNormal, geomNormal, geomNormal
	}

	e.triangles = append(e.triangles, tri)
	e.stats.triangles++
}

// A triangle is culled only when all three vertices fall strictly outside
// the same plane.
func (e *geometryExtractor) triangleOutside(v0, v1, v2 types.Vec3) bool {
	for i := range e.planes {
		p := &e.planes[i]
		if p.Distance(v0) < -cullEpsilon && p.Distance(v1) < -cullEpsilon && p.Distance(v2) < -cullEpsilon {
			return true
		}
	}
	return false
}

func finiteVec(v types.Vec3) bool {
	for _, f := range v {
		if math32.IsNaN(f) || math32.IsInf(f, 0) {
			return false
		}
	}
	return true
}
