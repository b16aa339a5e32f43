package types

import "github.com/go-gl/mathgl/mgl32"

// Epsilon for floating point comparisons.
const floatCmpEpsilon float32 = 1e-7

// A 4x4 matrix stored in column-major order. Mat4 delegates the linear
// algebra to mgl32 while keeping the package's vector types at the API
// boundary.
type Mat4 mgl32.Mat4

// Create an identity matrix.
func Ident4() Mat4 {
	return Mat4(mgl32.Ident4())
}

// Create a perspective projection matrix. The field of view is given in
// degrees.
func Perspective4(fovDegrees, aspect, near, far float32) Mat4 {
	return Mat4(mgl32.Perspective(mgl32.DegToRad(fovDegrees), aspect, near, far))
}

// Create a view matrix for an eye position looking at center.
func LookAtV(eye, center, up Vec3) Mat4 {
	return Mat4(mgl32.LookAtV(mgl32.Vec3(eye), mgl32.Vec3(center), mgl32.Vec3(up)))
}

// Create a translation matrix.
func Translate4(v Vec3) Mat4 {
	return Mat4(mgl32.Translate3D(v[0], v[1], v[2]))
}

// Create a scale matrix.
func Scale4(v Vec3) Mat4 {
	return Mat4(mgl32.Scale3D(v[0], v[1], v[2]))
}

// Multiply with another matrix.
func (m Mat4) Mul4(rhs Mat4) Mat4 {
	return Mat4(mgl32.Mat4(m).Mul4(mgl32.Mat4(rhs)))
}

// Multiply with a 4 component vector.
func (m Mat4) Mul4x1(v Vec4) Vec4 {
	return Vec4(mgl32.Mat4(m).Mul4x1(mgl32.Vec4(v)))
}

// Invert the matrix. A non-invertible matrix yields the zero matrix.
func (m Mat4) Inv() Mat4 {
	return Mat4(mgl32.Mat4(m).Inv())
}

// Transpose the matrix.
func (m Mat4) Transpose() Mat4 {
	return Mat4(mgl32.Mat4(m).Transpose())
}

// Get a matrix row as a 4 component vector.
func (m Mat4) Row(row int) Vec4 {
	return Vec4(mgl32.Mat4(m).Row(row))
}

// Transform a point, applying the perspective divide.
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	v := m.Mul4x1(p.Vec4(1))
	if v[3] == 0 || v[3] == 1 {
		return v.Vec3()
	}
	return v.Mul(1.0 / v[3]).Vec3()
}

// Transform a direction, ignoring the translation part.
func (m Mat4) TransformDir(d Vec3) Vec3 {
	return m.Mul4x1(d.Vec4(0)).Vec3()
}
