package tracer

import "time"

// UpdateMode selects how a state change is applied to a tracer.
type UpdateMode uint8

const (
	// Apply the change immediately, blocking the caller.
	Synchronous UpdateMode = iota

	// Queue the change; it is committed before the next block renders.
	// Queued changes are grouped by type and the latest change of each
	// type wins.
	Asynchronous
)

// UpdateType tags the payload of an UpdateState call.
type UpdateType uint8

const (
	// A compiled geometry snapshot (*scene.GeometrySnapshot).
	SceneData UpdateType = iota

	// The scene camera (*scene.Camera).
	CameraData

	// The scene directional light (*scene.DirectionalLight).
	LightData

	// Tracer settings (Settings).
	SettingsData
)

// Tracer capability flags.
type Flag uint8

const (
	// Local tracers run in-process and write directly into the shared
	// frame buffers.
	Local Flag = 1 << iota
)

// Settings control the per-frame tracing workload.
type Settings struct {
	// Master toggle. A disabled tracer passes the raster output through
	// the post-process stages untouched.
	Enabled bool

	// Maximum ray depth per path. Depth 1 disables indirect bounces.
	RayDepth uint32

	// The number of emitted rays per traced pixel.
	SamplesPerPixel uint32

	// Accumulation target. The interactive renderer stops dispatching
	// frames for a static scene once this many samples have been blended.
	MaxSamples uint32

	EnableDirectLight bool
	EnableShadows     bool
	EnableReflections bool
}

// A unit of work that is processed by a tracer.
type BlockRequest struct {
	// Block start row and height.
	BlockY uint32
	BlockH uint32

	// The number of emitted rays per traced pixel.
	SamplesPerPixel uint32

	// The exposure value controls HDR -> LDR mapping.
	Exposure float32

	// A random seed value for the tracer's random number generator.
	Seed uint32

	// Number of sequentially rendered frames since the last accumulator
	// reset. Frame 0 replaces the accumulation history with the raw
	// frame samples.
	FrameIndex uint32

	// A channel to signal on block completion with the number of completed rows.
	DoneChan chan<- uint32

	// A channel to signal if an error occurs.
	ErrChan chan<- error
}

// Tracer statistics for the last rendered frame.
type Stats struct {
	// The rendered block height.
	BlockH uint32

	// The time spent rendering the last block.
	RenderTime time.Duration

	// The time spent committing queued state updates.
	UpdateTime time.Duration
}

type Tracer interface {
	// Get tracer id.
	Id() string

	// Get tracer flags.
	Flags() Flag

	// Get the tracer's relative speed estimate. The block scheduler uses
	// it to distribute rows before any timing data exists.
	Speed() uint32

	// Attach the shared frame buffers and allocate tracer resources.
	Init(frameW, frameH uint32, buffers *FrameBuffers) error

	// Shutdown and cleanup tracer.
	Close()

	// Enqueue block request.
	Enqueue(BlockRequest)

	// Apply or queue a state change depending on the update mode. For
	// synchronous updates the returned duration covers the commit.
	UpdateState(UpdateMode, UpdateType, interface{}) (time.Duration, error)

	// Retrieve last frame statistics.
	Stats() *Stats
}
