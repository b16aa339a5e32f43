package compiler

import (
	"errors"
	"time"

	"github.com/glintrt/glint/log"
	"github.com/glintrt/glint/scene"
)

// Scale applied to the far-plane frustum diagonal to obtain the culling
// margin used when reflections are enabled. Triangles slightly outside the
// view can still contribute to secondary bounces.
const reflectionFarMarginScale float32 = 0.5

var (
	ErrNoSceneProvided = errors.New("compiler: no scene provided")
)

// Options controlling snapshot compilation.
type Options struct {
	// Discard triangles fully outside the camera frustum.
	EnableCulling bool

	// Relax far-plane culling so off-screen geometry can feed reflections.
	EnableReflections bool
}

type snapshotCompiler struct {
	logger   log.Logger
	sc       *scene.Scene
	opts     Options
	snapshot *scene.GeometrySnapshot
}

// Compile the live scene into an immutable trace-ready snapshot: extract
// world-space triangles, build the BVH over them and record the geometry
// digest the snapshot corresponds to. The build is synchronous and blocks
// the frame that triggered it.
func Compile(sc *scene.Scene, opts Options) (*scene.GeometrySnapshot, error) {
	if sc == nil {
		return nil, ErrNoSceneProvided
	}

	compiler := &snapshotCompiler{
		logger:   log.New("snapshot compiler"),
		sc:       sc,
		opts:     opts,
		snapshot: &scene.GeometrySnapshot{},
	}

	start := time.Now()

	compiler.extractGeometry()
	compiler.buildBVH()
	compiler.snapshot.Digest = GeometryDigest(sc)

	compiler.logger.Noticef(
		"compiled snapshot in %d ms (%d triangles, %d bvh nodes)",
		time.Since(start).Nanoseconds()/1e6,
		len(compiler.snapshot.Triangles), len(compiler.snapshot.Nodes),
	)
	return compiler.snapshot, nil
}

func (c *snapshotCompiler) extractGeometry() {
	start := time.Now()

	var planes []FrustumPlane
	if c.opts.EnableCulling && c.sc.Camera != nil {
		extracted := ExtractFrustumPlanes(c.sc.Camera.ViewProjMat())
		if c.opts.EnableReflections {
			cam := c.sc.Camera
			extracted[PlaneFar].D += reflectionFarMarginScale * farPlaneDiagonal(cam.FOV, cam.Aspect, cam.Far)
		}
		planes = extracted[:]
	} else if c.opts.EnableCulling {
		c.logger.Warning("culling requested without a camera; extracting everything")
	}

	extractor := newGeometryExtractor(planes)
	c.snapshot.Triangles = extractor.Extract(c.sc)
	c.logger.Debugf("geometry extraction completed in %d ms", time.Since(start).Nanoseconds()/1e6)
}

func (c *snapshotCompiler) buildBVH() {
	start := time.Now()
	c.snapshot.Nodes, c.snapshot.MaxDepth = BuildBVH(c.snapshot.Triangles)
	c.logger.Debugf("bvh construction completed in %d ms", time.Since(start).Nanoseconds()/1e6)
}
