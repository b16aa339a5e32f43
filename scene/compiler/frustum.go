package compiler

import (
	"github.com/chewxy/math32"
	"github.com/glintrt/glint/types"
)

// Frustum plane indices in the order produced by ExtractFrustumPlanes.
const (
	PlaneLeft = iota
	PlaneRight
	PlaneBottom
	PlaneTop
	PlaneNear
	PlaneFar
)

// A frustum plane in normal + signed distance form. Points with a negative
// Distance lie outside the frustum half-space.
type FrustumPlane struct {
	Normal types.Vec3
	D      float32
}

// Get the signed distance of a point from the plane.
func (p *FrustumPlane) Distance(pt types.Vec3) float32 {
	return p.Normal.Dot(pt) + p.D
}

// Extract the six frustum planes from a view-projection matrix using the
// Gribb/Hartmann row combinations. Plane normals point into the frustum.
func ExtractFrustumPlanes(viewProj types.Mat4) [6]FrustumPlane {
	r0 := viewProj.Row(0)
	r1 := viewProj.Row(1)
	r2 := viewProj.Row(2)
	r3 := viewProj.Row(3)

	var planes [6]FrustumPlane
	planes[PlaneLeft] = planeFromRow(r3, r0, 1)
	planes[PlaneRight] = planeFromRow(r3, r0, -1)
	planes[PlaneBottom] = planeFromRow(r3, r1, 1)
	planes[PlaneTop] = planeFromRow(r3, r1, -1)
	planes[PlaneNear] = planeFromRow(r3, r2, 1)
	planes[PlaneFar] = planeFromRow(r3, r2, -1)
	return planes
}

func planeFromRow(r3, row types.Vec4, sign float32) FrustumPlane {
	p := FrustumPlane{
		Normal: types.Vec3{r3[0] + sign*row[0], r3[1] + sign*row[1], r3[2] + sign*row[2]},
		D:      r3[3] + sign*row[3],
	}

	length := p.Normal.Len()
	if length > 0 {
		inv := 1.0 / length
		p.Normal = p.Normal.Mul(inv)
		p.D *= inv
	}
	return p
}

// Calculate the diagonal of the far-plane rectangle for a perspective
// camera. The reflection margin that relaxes far-plane culling scales with
// this value.
func farPlaneDiagonal(fovDegrees, aspect, far float32) float32 {
	halfH := far * math32.Tan(fovDegrees*0.5*math32.Pi/180)
	halfW := halfH * aspect
	return 2 * math32.Sqrt(halfW*halfW+halfH*halfH)
}
