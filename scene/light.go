package scene

import "github.com/glintrt/glint/types"

// A single directional light. Direction is the direction the light travels
// in (from the light towards the scene) and does not need to be normalized
// by the caller.
type DirectionalLight struct {
	Direction types.Vec3
	Color     types.Vec3
	Intensity float32

	Enabled bool
}

// Create a white downward-facing light of unit intensity.
func NewDirectionalLight() *DirectionalLight {
	return &DirectionalLight{
		Direction: types.Vec3{-0.3, -1, -0.2},
		Color:     types.Vec3{1, 1, 1},
		Intensity: 1.0,
		Enabled:   true,
	}
}

// Get the normalized direction from a surface point towards the light.
func (l *DirectionalLight) ToLight() types.Vec3 {
	return l.Direction.Mul(-1).Normalize()
}
