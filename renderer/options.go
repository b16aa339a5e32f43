package renderer

type Options struct {
	// Frame dims.
	FrameW uint32
	FrameH uint32

	// Maximum ray depth per path. Depth 1 disables indirect bounces.
	RayDepth uint32

	// The number of emitted rays per traced pixel.
	SamplesPerPixel uint32

	// Accumulation target for interactive rendering. Once a static scene
	// has accumulated this many frames no further work is dispatched; 0
	// keeps accumulating forever.
	MaxSamples uint32

	// Exposure for tonemapping.
	Exposure float32

	// Number of cpu tracers to attach. 0 selects one per logical core.
	NumTracers int

	// Frustum-cull triangles while compiling geometry snapshots.
	EnableCulling bool

	// Relax far-plane culling so off-screen geometry survives for
	// reflection rays. Only meaningful with EnableCulling.
	EnableReflections bool

	// Lighting toggles forwarded to the tracers.
	EnableDirectLight bool
	EnableShadows     bool
}
