package renderer

import (
	"fmt"
	"math/rand"
	"runtime"
	"time"

	"github.com/glintrt/glint/log"
	"github.com/glintrt/glint/scene"
	"github.com/glintrt/glint/scene/compiler"
	"github.com/glintrt/glint/tracer"
	"github.com/glintrt/glint/tracer/cpu"
)

// The default renderer traces frames headlessly into a shared set of
// frame buffers using a pool of cpu tracers. Scene, camera and light
// changes are detected through digests before each frame; a change
// resets the accumulation history.
type defaultRenderer struct {
	logger log.Logger

	options Options

	sc        *scene.Scene
	scheduler tracer.BlockScheduler
	pipeline  *cpu.Pipeline

	buffers *tracer.FrameBuffers
	tracers []tracer.Tracer

	// Last frame row assignments, one entry per tracer.
	blockAssignments []uint32

	// Digests of the scene state the tracers last received.
	geometryDigest uint64
	cameraDigest   uint64
	lightDigest    uint64

	// Frames accumulated since the last scene change.
	frameIndex uint32

	stats FrameStats

	// Completion channels shared by all block requests.
	doneChan chan uint32
	errChan  chan error
}

// Create a new headless renderer using the specified block scheduler and
// tracing pipeline. The renderer attaches opts.NumTracers cpu tracers
// (one per logical core when 0) and pushes the initial scene state to
// them synchronously.
func NewDefault(sc *scene.Scene, scheduler tracer.BlockScheduler, pipeline *cpu.Pipeline, opts Options) (Renderer, error) {
	if sc == nil {
		return nil, ErrSceneNotDefined
	}
	if sc.Camera == nil {
		return nil, ErrCameraNotDefined
	}

	buffers, err := tracer.NewFrameBuffers(opts.FrameW, opts.FrameH)
	if err != nil {
		return nil, err
	}

	// The renderer owns the output aspect ratio.
	sc.Camera.SetupProjection(float32(opts.FrameW) / float32(opts.FrameH))

	numTracers := opts.NumTracers
	if numTracers <= 0 {
		numTracers = runtime.NumCPU()
	}
	if uint32(numTracers) > opts.FrameH {
		numTracers = int(opts.FrameH)
	}

	r := &defaultRenderer{
		logger:    log.New("renderer"),
		options:   opts,
		sc:        sc,
		scheduler: scheduler,
		pipeline:  pipeline,
		buffers:   buffers,
		tracers:   make([]tracer.Tracer, 0, numTracers),
		doneChan:  make(chan uint32, numTracers),
		errChan:   make(chan error, numTracers),
	}

	for i := 0; i < numTracers; i++ {
		tr := cpu.NewTracer(fmt.Sprintf("cpu-%d", i), pipeline)
		if err = tr.Init(opts.FrameW, opts.FrameH, buffers); err != nil {
			r.Close()
			return nil, err
		}
		r.tracers = append(r.tracers, tr)
	}
	r.logger.Noticef("attached %d cpu tracer(s)", len(r.tracers))

	if err = r.pushInitialState(); err != nil {
		r.Close()
		return nil, err
	}

	return r, nil
}

// Render the next frame. Blocks until every tracer has processed its
// assigned rows.
func (r *defaultRenderer) Render() error {
	if len(r.tracers) == 0 {
		return ErrNoTracers
	}
	if err := r.syncSceneChanges(); err != nil {
		return err
	}
	return r.renderFrame()
}

// Get the tone-mapped RGBA framebuffer for the last rendered frame.
func (r *defaultRenderer) Framebuffer() []uint8 {
	return r.buffers.Output
}

// Get render statistics.
func (r *defaultRenderer) Stats() FrameStats {
	return r.stats
}

// Shutdown renderer and any attached tracers.
func (r *defaultRenderer) Close() {
	for _, tr := range r.tracers {
		tr.Close()
	}
	r.tracers = nil
}

// Compile the scene and push the full tracer state. Called once before
// the first frame.
func (r *defaultRenderer) pushInitialState() error {
	snapshot, err := compiler.Compile(r.sc, r.compileOptions())
	if err != nil {
		return err
	}

	r.geometryDigest = compiler.GeometryDigest(r.sc)
	r.cameraDigest = compiler.CameraDigest(r.sc.Camera)
	if r.sc.Light != nil {
		r.lightDigest = compiler.LightDigest(r.sc.Light)
	}

	updates := []struct {
		updateType tracer.UpdateType
		data       interface{}
	}{
		{tracer.SceneData, snapshot},
		{tracer.CameraData, r.sc.Camera},
		{tracer.LightData, r.sc.Light},
		{tracer.SettingsData, r.tracerSettings()},
	}
	for _, update := range updates {
		if update.updateType == tracer.LightData && r.sc.Light == nil {
			continue
		}
		if err = r.updateTracers(tracer.Synchronous, update.updateType, update.data); err != nil {
			return err
		}
	}
	return nil
}

// Detect scene mutations since the last frame and forward them to the
// tracers. Geometry changes recompile the snapshot; camera moves do too
// when culling is enabled, since the frustum follows the camera. Any
// change resets the accumulation history.
func (r *defaultRenderer) syncSceneChanges() error {
	reset := false

	geomDigest := compiler.GeometryDigest(r.sc)
	camDigest := compiler.CameraDigest(r.sc.Camera)

	rebuild := geomDigest != r.geometryDigest
	cameraMoved := camDigest != r.cameraDigest
	if cameraMoved && r.options.EnableCulling {
		rebuild = true
	}

	if rebuild {
		snapshot, err := compiler.Compile(r.sc, r.compileOptions())
		if err != nil {
			return err
		}
		r.geometryDigest = geomDigest
		reset = true
		if err = r.updateTracers(tracer.Asynchronous, tracer.SceneData, snapshot); err != nil {
			return err
		}
	}

	if cameraMoved {
		r.cameraDigest = camDigest
		reset = true
		if err := r.updateTracers(tracer.Asynchronous, tracer.CameraData, r.sc.Camera); err != nil {
			return err
		}
	}

	if r.sc.Light != nil {
		if d := compiler.LightDigest(r.sc.Light); d != r.lightDigest {
			r.lightDigest = d
			reset = true
			if err := r.updateTracers(tracer.Asynchronous, tracer.LightData, r.sc.Light); err != nil {
				return err
			}
		}
	}

	if reset {
		r.frameIndex = 0
	}
	return nil
}

// Schedule the frame rows, fan the block requests out to the tracers and
// wait for all of them to complete. On success the history buffers are
// swapped and the frame counter advances.
func (r *defaultRenderer) renderFrame() error {
	start := time.Now()

	r.blockAssignments = r.scheduler.Schedule(r.tracers, r.options.FrameH)

	seed := rand.Uint32()
	pending := 0
	var blockY uint32
	for i, tr := range r.tracers {
		blockH := r.blockAssignments[i]
		if blockH == 0 {
			continue
		}

		tr.Enqueue(tracer.BlockRequest{
			BlockY:          blockY,
			BlockH:          blockH,
			SamplesPerPixel: r.options.SamplesPerPixel,
			Exposure:        r.options.Exposure,
			Seed:            seed,
			FrameIndex:      r.frameIndex,
			DoneChan:        r.doneChan,
			ErrChan:         r.errChan,
		})
		blockY += blockH
		pending++
	}

	var renderErr error
	for ; pending > 0; pending-- {
		select {
		case <-r.doneChan:
		case err := <-r.errChan:
			if renderErr == nil {
				renderErr = err
			}
		}
	}
	if renderErr != nil {
		return renderErr
	}

	r.buffers.SwapHistory()
	r.frameIndex++
	r.collectStats(time.Since(start))

	return nil
}

func (r *defaultRenderer) updateTracers(mode tracer.UpdateMode, updateType tracer.UpdateType, data interface{}) error {
	for _, tr := range r.tracers {
		if _, err := tr.UpdateState(mode, updateType, data); err != nil {
			return err
		}
	}
	return nil
}

func (r *defaultRenderer) collectStats(renderTime time.Duration) {
	r.stats.RenderTime = renderTime
	r.stats.AccumulatedFrames = r.frameIndex
	r.stats.Tracers = r.stats.Tracers[:0]

	frameRows := float32(r.options.FrameH)
	for i, tr := range r.tracers {
		trStats := tr.Stats()
		r.stats.Tracers = append(r.stats.Tracers, TracerStat{
			Id:           tr.Id(),
			IsPrimary:    i == 0,
			BlockH:       r.blockAssignments[i],
			FramePercent: 100 * float32(r.blockAssignments[i]) / frameRows,
			RenderTime:   trStats.RenderTime,
			UpdateTime:   trStats.UpdateTime,
		})
	}
}

func (r *defaultRenderer) compileOptions() compiler.Options {
	return compiler.Options{
		EnableCulling:     r.options.EnableCulling,
		EnableReflections: r.options.EnableReflections,
	}
}

func (r *defaultRenderer) tracerSettings() tracer.Settings {
	rayDepth := r.options.RayDepth
	if rayDepth == 0 {
		rayDepth = 1
	}
	spp := r.options.SamplesPerPixel
	if spp == 0 {
		spp = 1
	}

	return tracer.Settings{
		Enabled:           true,
		RayDepth:          rayDepth,
		SamplesPerPixel:   spp,
		MaxSamples:        r.options.MaxSamples,
		EnableDirectLight: r.options.EnableDirectLight,
		EnableShadows:     r.options.EnableShadows,
		EnableReflections: r.options.EnableReflections,
	}
}
