package compiler

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/glintrt/glint/scene"
	"github.com/glintrt/glint/types"
)

// GeometryDigest hashes the scene state that can change the extracted
// triangle set: object transforms and albedos plus mesh identity, buffer
// sizes and revision counters. It deliberately does not walk vertex data;
// in-place mesh edits must bump Mesh.Revision.
func GeometryDigest(sc *scene.Scene) uint64 {
	d := xxhash.New()
	for _, obj := range sc.Objects {
		if obj.Mesh == nil {
			continue
		}
		d.WriteString(obj.Mesh.Name)
		writeUint32(d, obj.Mesh.Revision)
		writeUint32(d, uint32(len(obj.Mesh.Vertices)))
		writeUint32(d, uint32(len(obj.Mesh.Indices)))
		writeUint32(d, uint32(obj.Mesh.IndexStride))
		writeMat4(d, obj.Transform)
		writeVec3(d, obj.Albedo)
	}
	return d.Sum64()
}

// CameraDigest hashes the camera state consumed by the tracer.
func CameraDigest(c *scene.Camera) uint64 {
	d := xxhash.New()
	writeMat4(d, c.ViewMat)
	writeMat4(d, c.ProjMat)
	writeVec3(d, c.Position)
	return d.Sum64()
}

// LightDigest hashes the directional light state consumed by the tracer.
func LightDigest(l *scene.DirectionalLight) uint64 {
	d := xxhash.New()
	writeVec3(d, l.Direction)
	writeVec3(d, l.Color)
	writeFloat32(d, l.Intensity)
	var enabled uint32
	if l.Enabled {
		enabled = 1
	}
	writeUint32(d, enabled)
	return d.Sum64()
}

func writeUint32(d *xxhash.Digest, v uint32) {
	var scratch [4]byte
	binary.LittleEndian.PutUint32(scratch[:], v)
	d.Write(scratch[:])
}

func writeFloat32(d *xxhash.Digest, f float32) {
	writeUint32(d, math.Float32bits(f))
}

func writeVec3(d *xxhash.Digest, v types.Vec3) {
	for _, f := range v {
		writeFloat32(d, f)
	}
}

func writeMat4(d *xxhash.Digest, m types.Mat4) {
	for _, f := range m {
		writeFloat32(d, f)
	}
}
