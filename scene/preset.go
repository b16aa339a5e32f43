package scene

import "github.com/glintrt/glint/types"

// Preset returns one of the built-in demo scenes or nil when the name is
// unknown.
func Preset(name string) *Scene {
	switch name {
	case "cornell":
		return NewCornellScene()
	case "minimal":
		return NewMinimalScene()
	}
	return nil
}

// PresetNames lists the built-in scene names accepted by Preset.
func PresetNames() []string {
	return []string{"cornell", "minimal"}
}

// A Cornell-style box: white floor/ceiling/back wall, red and green side
// walls and two boxes. The front face is open towards the camera so sky
// light can leak in through indirect bounces.
func NewCornellScene() *Scene {
	sc := NewScene()

	white := types.Vec3{0.73, 0.73, 0.73}
	red := types.Vec3{0.65, 0.05, 0.05}
	green := types.Vec3{0.12, 0.45, 0.15}

	sc.Objects = append(sc.Objects,
		quadObject("floor", white,
			types.Vec3{-1, 0, 1}, types.Vec3{1, 0, 1}, types.Vec3{1, 0, -1}, types.Vec3{-1, 0, -1}),
		quadObject("ceiling", white,
			types.Vec3{-1, 2, -1}, types.Vec3{1, 2, -1}, types.Vec3{1, 2, 1}, types.Vec3{-1, 2, 1}),
		quadObject("back", white,
			types.Vec3{-1, 0, -1}, types.Vec3{1, 0, -1}, types.Vec3{1, 2, -1}, types.Vec3{-1, 2, -1}),
		quadObject("left", red,
			types.Vec3{-1, 0, 1}, types.Vec3{-1, 0, -1}, types.Vec3{-1, 2, -1}, types.Vec3{-1, 2, 1}),
		quadObject("right", green,
			types.Vec3{1, 0, -1}, types.Vec3{1, 0, 1}, types.Vec3{1, 2, 1}, types.Vec3{1, 2, -1}),
		boxObject("tall box", white, types.Vec3{-0.38, 0.6, -0.3}, types.Vec3{0.55, 1.2, 0.55}),
		boxObject("short box", white, types.Vec3{0.4, 0.3, 0.35}, types.Vec3{0.55, 0.6, 0.55}),
	)

	sc.Camera.Position = types.Vec3{0, 1, 3.4}
	sc.Camera.LookAt = types.Vec3{0, 1, 0}
	sc.Camera.FOV = 40

	sc.Light.Direction = types.Vec3{-0.25, -1, -0.35}
	sc.Light.Intensity = 1.4

	return sc
}

// A ground plane with a single box on top of it. Small enough for tests
// and benchmarks.
func NewMinimalScene() *Scene {
	sc := NewScene()

	sc.Objects = append(sc.Objects,
		quadObject("ground", types.Vec3{0.55, 0.55, 0.58},
			types.Vec3{-5, 0, 5}, types.Vec3{5, 0, 5}, types.Vec3{5, 0, -5}, types.Vec3{-5, 0, -5}),
		boxObject("box", types.Vec3{0.7, 0.35, 0.2}, types.Vec3{0, 0.5, 0}, types.Vec3{1, 1, 1}),
	)

	sc.Camera.Position = types.Vec3{2.5, 1.8, 3.2}
	sc.Camera.LookAt = types.Vec3{0, 0.5, 0}

	return sc
}

// Build a two-triangle quad from the corners a,b,c,d (counter-clockwise
// when viewed from the side the normal should face). The shared face
// normal is stored per vertex.
func quadObject(name string, albedo types.Vec3, a, b, c, d types.Vec3) *Object {
	n := b.Sub(a).Cross(d.Sub(a)).Normalize()

	mesh := NewMesh(name)
	mesh.Vertices = []types.Vec3{a, b, c, d}
	mesh.Normals = []types.Vec3{n, n, n, n}
	mesh.Indices = []uint32{0, 1, 2, 0, 2, 3}

	return &Object{
		Name:      name,
		Mesh:      mesh,
		Transform: types.Ident4(),
		Albedo:    albedo,
	}
}

// Build an axis-aligned box as a unit cube mesh placed via the object
// transform. The mesh carries no normals; extraction falls back to the
// geometric face normal.
func boxObject(name string, albedo types.Vec3, center, size types.Vec3) *Object {
	mesh := NewMesh(name)
	mesh.Vertices = []types.Vec3{
		{-0.5, -0.5, 0.5}, {0.5, -0.5, 0.5}, {0.5, 0.5, 0.5}, {-0.5, 0.5, 0.5},
		{-0.5, -0.5, -0.5}, {0.5, -0.5, -0.5}, {0.5, 0.5, -0.5}, {-0.5, 0.5, -0.5},
	}
	mesh.Indices = []uint32{
		0, 1, 2, 0, 2, 3, // front
		5, 4, 7, 5, 7, 6, // back
		4, 0, 3, 4, 3, 7, // left
		1, 5, 6, 1, 6, 2, // right
		3, 2, 6, 3, 6, 7, // top
		4, 5, 1, 4, 1, 0, // bottom
	}

	return &Object{
		Name:      name,
		Mesh:      mesh,
		Transform: types.Translate4(center).Mul4(types.Scale4(size)),
		Albedo:    albedo,
	}
}
