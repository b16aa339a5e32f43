package scene

import "github.com/glintrt/glint/types"

// Mesh holds the raw geometry buffers for a renderable. Positions and
// normals are object-space; Indices is optional (empty means sequential
// vertex triples). IndexStride controls how face triples are pulled from
// the index list; a zero value means tightly packed triangles (stride 3).
//
// Meshes are shared between objects. Callers that mutate buffer contents
// after creation must bump Revision so change detection picks it up.
type Mesh struct {
	Name string

	Vertices []types.Vec3
	Normals  []types.Vec3
	Indices  []uint32

	IndexStride int

	Revision uint32
}

// Create a named mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{Name: name}
}

// An Object places a mesh in the world with a transform and a flat albedo.
type Object struct {
	Name string

	Mesh      *Mesh
	Transform types.Mat4

	Albedo types.Vec3
}

// Scene is the live, mutable scene the renderer consumes: the renderable
// object list plus the camera and the single directional light. Compiled
// trace-ready geometry is produced from it by the compiler package.
type Scene struct {
	Objects []*Object

	Camera *Camera
	Light  *DirectionalLight
}

// Create an empty scene with a default camera and light.
func NewScene() *Scene {
	return &Scene{
		Objects: make([]*Object, 0),
		Camera:  NewCamera(45),
		Light:   NewDirectionalLight(),
	}
}
