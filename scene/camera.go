package scene

import "github.com/glintrt/glint/types"

type CameraDirection uint8

const (
	Forward CameraDirection = iota
	Backward
	Left
	Right
)

// The camera type controls the scene camera. The view and projection
// matrices are kept up to date by SetupProjection and Update; the tracer
// only consumes the matrices, the position and the near/far range.
type Camera struct {
	Position types.Vec3
	LookAt   types.Vec3
	Up       types.Vec3
	Pitch    float32
	Yaw      float32

	ViewMat types.Mat4
	ProjMat types.Mat4

	// Camera FOV in degrees and the projection depth range. Aspect is
	// recorded by SetupProjection.
	FOV    float32
	Near   float32
	Far    float32
	Aspect float32
}

func NewCamera(fov float32) *Camera {
	return &Camera{
		ViewMat:  types.Ident4(),
		ProjMat:  types.Ident4(),
		Position: types.Vec3{0, 0, 0},
		LookAt:   types.Vec3{0, 0, -1},
		Up:       types.Vec3{0, 1, 0},
		FOV:      fov,
		Near:     0.1,
		Far:      1000,
	}
}

// Setup camera projection matrix for the given aspect ratio.
func (c *Camera) SetupProjection(aspect float32) {
	c.Aspect = aspect
	c.ProjMat = types.Perspective4(c.FOV, aspect, c.Near, c.Far)
	c.Update()
}

// Update the view matrix, applying any pending pitch/yaw rotation to the
// look direction. Pitch and Yaw are treated as deltas and consumed by the
// update.
func (c *Camera) Update() {
	dir := c.LookAt.Sub(c.Position).Normalize()
	pitchAxis := dir.Cross(c.Up)
	pitchQuat := types.QuatFromAxisAngle(pitchAxis, c.Pitch)
	yawQuat := types.QuatFromAxisAngle(c.Up, c.Yaw)
	c.Pitch, c.Yaw = 0, 0

	orientQuat := pitchQuat.Mul(yawQuat).Normalize()

	// Update direction
	dir = orientQuat.Rotate(dir)
	c.LookAt = c.Position.Add(dir)

	c.ViewMat = types.LookAtV(c.Position, c.LookAt, c.Up)
}

// Move the camera towards the given direction keeping the look direction.
func (c *Camera) Move(dir CameraDirection, speed float32) {
	fwd := c.LookAt.Sub(c.Position).Normalize()

	var move types.Vec3
	switch dir {
	case Forward:
		move = fwd.Mul(speed)
	case Backward:
		move = fwd.Mul(-speed)
	case Left:
		move = fwd.Cross(c.Up).Normalize().Mul(-speed)
	case Right:
		move = fwd.Cross(c.Up).Normalize().Mul(speed)
	}

	c.Position = c.Position.Add(move)
	c.LookAt = c.LookAt.Add(move)
	c.Update()
}

// Get the combined view-projection matrix.
func (c *Camera) ViewProjMat() types.Mat4 {
	return c.ProjMat.Mul4(c.ViewMat)
}

// Get the inverted view-projection matrix used for reconstructing world
// space positions from screen coordinates.
func (c *Camera) InvViewProjMat() types.Mat4 {
	return c.ProjMat.Mul4(c.ViewMat).Inv()
}
