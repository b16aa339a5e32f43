package reader

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/glintrt/glint/asset"
	"github.com/glintrt/glint/log"
	"github.com/glintrt/glint/scene"
	"github.com/glintrt/glint/types"
)

// Albedo assigned to faces that never select a material.
var defaultAlbedo = types.Vec3{0.7, 0.7, 0.7}

// A reader for Wavefront OBJ scenes. Geometry (v/vn/f statements with
// triangular and quad faces) is grouped into scene objects by g/o
// statements; material libraries contribute flat diffuse colors that
// become object albedos. In addition to the standard statements the
// reader understands camera_* and light_* extensions so a scene file can
// position the camera and the directional light.
type wavefrontReader struct {
	logger log.Logger

	sc *scene.Scene

	vertices []types.Vec3
	normals  []types.Vec3

	// Parsed material albedos by name.
	materials map[string]types.Vec3

	curObject *scene.Object
	curAlbedo types.Vec3
}

func newWavefrontReader() *wavefrontReader {
	return &wavefrontReader{
		logger:    log.New("wavefront"),
		sc:        scene.NewScene(),
		materials: make(map[string]types.Vec3),
		curAlbedo: defaultAlbedo,
	}
}

// Read the scene definition.
func (r *wavefrontReader) Read(res *asset.Resource) (*scene.Scene, error) {
	r.logger.Noticef("parsing scene from %q", res.Path())
	start := time.Now()

	if err := r.parse(res); err != nil {
		return nil, err
	}
	r.flushObject()

	if len(r.sc.Objects) == 0 {
		r.logger.Warningf("scene %q contains no geometry", res.Path())
	}
	r.logger.Noticef("parsed %d object(s), %d vertices in %d ms",
		len(r.sc.Objects), len(r.vertices), time.Since(start).Milliseconds())
	return r.sc, nil
}

func (r *wavefrontReader) parse(res *asset.Resource) error {
	var lineNum int

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 || strings.HasPrefix(tokens[0], "#") {
			continue
		}

		var err error
		switch tokens[0] {
		case "v":
			var v types.Vec3
			if v, err = parseVec3(tokens); err == nil {
				r.vertices = append(r.vertices, v)
			}
		case "vn":
			var v types.Vec3
			if v, err = parseVec3(tokens); err == nil {
				r.normals = append(r.normals, v)
			}
		case "vt":
			// Texture coordinates have no use in the flat albedo model.
		case "g", "o":
			if len(tokens) < 2 {
				err = fmt.Errorf("%q requires an object name", tokens[0])
				break
			}
			r.beginObject(tokens[1])
		case "f":
			err = r.parseFace(tokens)
		case "mtllib":
			err = r.parseMaterialLib(tokens, res)
		case "usemtl":
			err = r.selectMaterial(tokens)
		case "camera_fov":
			r.sc.Camera.FOV, err = parseFloat32(tokens)
		case "camera_eye":
			r.sc.Camera.Position, err = parseVec3(tokens)
		case "camera_look":
			r.sc.Camera.LookAt, err = parseVec3(tokens)
		case "camera_up":
			r.sc.Camera.Up, err = parseVec3(tokens)
		case "light_dir":
			r.sc.Light.Direction, err = parseVec3(tokens)
		case "light_color":
			r.sc.Light.Color, err = parseVec3(tokens)
		case "light_intensity":
			r.sc.Light.Intensity, err = parseFloat32(tokens)
		}
		if err != nil {
			return fmt.Errorf("wavefront: %s:%d: %s", res.Path(), lineNum, err)
		}
	}
	return scanner.Err()
}

// Finalize the current object and start a new one. The new object
// inherits the active material.
func (r *wavefrontReader) beginObject(name string) {
	r.flushObject()
	r.curObject = &scene.Object{
		Name:      name,
		Mesh:      scene.NewMesh(name),
		Transform: types.Ident4(),
		Albedo:    r.curAlbedo,
	}
}

// Append the current object to the scene unless it holds no faces.
func (r *wavefrontReader) flushObject() {
	if r.curObject == nil {
		return
	}
	if len(r.curObject.Mesh.Indices) == 0 {
		r.logger.Warningf("dropping object %q: no faces", r.curObject.Name)
	} else {
		r.sc.Objects = append(r.sc.Objects, r.curObject)
	}
	r.curObject = nil
}

// Switch the active material. Faces already parsed keep their albedo: a
// material change inside a populated object starts a sibling object with
// the same name.
func (r *wavefrontReader) selectMaterial(tokens []string) error {
	if len(tokens) != 2 {
		return fmt.Errorf(`"usemtl" requires a material name`)
	}

	albedo, exists := r.materials[tokens[1]]
	if !exists {
		return fmt.Errorf("undefined material %q", tokens[1])
	}

	if r.curObject != nil && len(r.curObject.Mesh.Indices) > 0 && albedo != r.curAlbedo {
		name := r.curObject.Name
		r.curAlbedo = albedo
		r.beginObject(name)
		return nil
	}

	r.curAlbedo = albedo
	if r.curObject != nil {
		r.curObject.Albedo = albedo
	}
	return nil
}

// Parse a triangular or quad face. Quads are split into two triangles
// sharing the first corner. Each corner is "v", "v/t", "v//n" or "v/t/n";
// indices are 1-based and negative values count from the end of the
// respective list. Corners without a normal share a generated face normal.
func (r *wavefrontReader) parseFace(tokens []string) error {
	numVerts := len(tokens) - 1
	if numVerts < 3 || numVerts > 4 {
		return fmt.Errorf(`"f" supports 3 or 4 vertices; got %d`, numVerts)
	}

	var pos [4]types.Vec3
	var norm [4]types.Vec3
	hasNormals := false
	for corner := 0; corner < numVerts; corner++ {
		parts := strings.Split(tokens[corner+1], "/")

		vIndex, err := resolveIndex(parts[0], len(r.vertices))
		if err != nil {
			return fmt.Errorf("face vertex %d: %s", corner, err)
		}
		pos[corner] = r.vertices[vIndex]

		if len(parts) == 3 && parts[2] != "" {
			nIndex, err := resolveIndex(parts[2], len(r.normals))
			if err != nil {
				return fmt.Errorf("face normal %d: %s", corner, err)
			}
			norm[corner] = r.normals[nIndex]
			hasNormals = true
		}
	}

	if !hasNormals {
		n := pos[1].Sub(pos[0]).Cross(pos[2].Sub(pos[0])).Normalize()
		for corner := 0; corner < numVerts; corner++ {
			norm[corner] = n
		}
	}

	if r.curObject == nil {
		r.beginObject("default")
	}
	r.appendTriangle(pos[0], pos[1], pos[2], norm[0], norm[1], norm[2])
	if numVerts == 4 {
		r.appendTriangle(pos[0], pos[2], pos[3], norm[0], norm[2], norm[3])
	}
	return nil
}

func (r *wavefrontReader) appendTriangle(v0, v1, v2, n0, n1, n2 types.Vec3) {
	mesh := r.curObject.Mesh
	base := uint32(len(mesh.Vertices))
	mesh.Vertices = append(mesh.Vertices, v0, v1, v2)
	mesh.Normals = append(mesh.Normals, n0, n1, n2)
	mesh.Indices = append(mesh.Indices, base, base+1, base+2)
}

// Load a material library referenced by the scene file. The library path
// is resolved relative to the scene resource.
func (r *wavefrontReader) parseMaterialLib(tokens []string, relTo *asset.Resource) error {
	if len(tokens) != 2 {
		return fmt.Errorf(`"mtllib" requires a library path`)
	}

	res, err := asset.NewResource(tokens[1], relTo)
	if err != nil {
		return err
	}
	defer res.Close()
	return r.parseMaterials(res)
}

// Parse a material library. Only the diffuse color of each material is
// kept; specular, emission and texture statements have no equivalent in
// the flat albedo model and are skipped.
func (r *wavefrontReader) parseMaterials(res *asset.Resource) error {
	r.logger.Infof("parsing material library %q", res.Path())

	var lineNum int
	curName := ""

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 || strings.HasPrefix(tokens[0], "#") {
			continue
		}

		var err error
		switch tokens[0] {
		case "newmtl":
			if len(tokens) != 2 {
				err = fmt.Errorf(`"newmtl" requires a material name`)
				break
			}
			if _, exists := r.materials[tokens[1]]; exists {
				err = fmt.Errorf("material %q already defined", tokens[1])
				break
			}
			curName = tokens[1]
			r.materials[curName] = defaultAlbedo
		case "Kd":
			if curName == "" {
				err = fmt.Errorf(`got "Kd" before "newmtl"`)
				break
			}
			var v types.Vec3
			if v, err = parseVec3(tokens); err == nil {
				r.materials[curName] = v
			}
		}
		if err != nil {
			return fmt.Errorf("wavefront: %s:%d: %s", res.Path(), lineNum, err)
		}
	}
	return scanner.Err()
}

// Map a 1-based (or negative, end-relative) OBJ index to a slice offset.
func resolveIndex(token string, listLen int) (int, error) {
	index, err := strconv.ParseInt(token, 10, 32)
	if err != nil {
		return 0, err
	}

	offset := int(index) - 1
	if index < 0 {
		offset = listLen + int(index)
	}
	if offset < 0 || offset >= listLen {
		return 0, fmt.Errorf("index %s out of bounds", token)
	}
	return offset, nil
}

func parseFloat32(tokens []string) (float32, error) {
	if len(tokens) < 2 {
		return 0, fmt.Errorf("%q requires 1 argument; got %d", tokens[0], len(tokens)-1)
	}

	v, err := strconv.ParseFloat(tokens[1], 32)
	if err != nil {
		return 0, err
	}
	return float32(v), nil
}

func parseVec3(tokens []string) (types.Vec3, error) {
	if len(tokens) < 4 {
		return types.Vec3{}, fmt.Errorf("%q requires 3 arguments; got %d", tokens[0], len(tokens)-1)
	}

	var v types.Vec3
	for i := 0; i < 3; i++ {
		coord, err := strconv.ParseFloat(tokens[i+1], 32)
		if err != nil {
			return types.Vec3{}, err
		}
		v[i] = float32(coord)
	}
	return v, nil
}
