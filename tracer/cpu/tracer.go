package cpu

import (
	"fmt"
	"sync"
	"time"

	"github.com/glintrt/glint/log"
	"github.com/glintrt/glint/scene"
	"github.com/glintrt/glint/tracer"
	"github.com/glintrt/glint/types"
)

// Camera state consumed by the pipeline stages, derived once per update
// instead of per pixel.
type cameraState struct {
	valid       bool
	position    types.Vec3
	viewProj    types.Mat4
	invViewProj types.Mat4
	near        float32
	far         float32
}

// Directional light state with the direction flipped to point at the
// light.
type lightState struct {
	enabled   bool
	toLight   types.Vec3
	color     types.Vec3
	intensity float32
}

type Tracer struct {
	logger log.Logger

	sync.Mutex
	wg sync.WaitGroup

	// The tracer id.
	id string

	// The shared frame buffers and their dimensions.
	buffers *tracer.FrameBuffers
	frameW  uint32
	frameH  uint32

	// A buffer for queuing updates. Updates are grouped by type and
	// latest updates always overwrite the previous ones.
	updateBuffer map[tracer.UpdateType]interface{}

	// A channel for receiving block requests from the renderer.
	blockReqChan chan tracer.BlockRequest

	// A channel for signaling the worker to exit.
	closeChan chan struct{}

	// Statistics for last rendered frame.
	stats *tracer.Stats

	// The tracer rendering pipeline.
	pipeline *Pipeline

	// Relative speed estimate.
	speed uint32

	// Tracing state committed from state updates.
	snapshot *scene.GeometrySnapshot
	camera   cameraState
	light    lightState
	settings tracer.Settings
}

// Create a new cpu tracer that renders through the given pipeline.
func NewTracer(id string, pipeline *Pipeline) *Tracer {
	return &Tracer{
		logger:       log.New(fmt.Sprintf("cpu tracer (%s)", id)),
		id:           id,
		pipeline:     pipeline,
		blockReqChan: make(chan tracer.BlockRequest, 0),
		updateBuffer: make(map[tracer.UpdateType]interface{}, 0),
		stats:        &tracer.Stats{},
		speed:        1,
	}
}

// Get tracer id.
func (tr *Tracer) Id() string {
	return tr.id
}

// Get tracer flags.
func (tr *Tracer) Flags() tracer.Flag {
	return tracer.Local
}

// Get the tracer's relative speed estimate. All cpu tracers are assumed
// to be backed by equivalent cores; the block scheduler corrects any
// imbalance from frame timings.
func (tr *Tracer) Speed() uint32 {
	return tr.speed
}

// Attach the shared frame buffers and start the block worker.
func (tr *Tracer) Init(frameW, frameH uint32, buffers *tracer.FrameBuffers) error {
	tr.Lock()
	defer tr.Unlock()

	if frameW == 0 || frameH == 0 {
		return tracer.ErrInvalidFrameDims
	}
	if buffers == nil {
		return ErrNoFrameBuffers
	}

	tr.frameW = frameW
	tr.frameH = frameH
	tr.buffers = buffers

	if tr.closeChan == nil {
		tr.startWorker()
	}

	return nil
}

// Shutdown and cleanup tracer. The close handshake runs outside the
// tracer lock so a worker blocked on a queued update commit can drain.
func (tr *Tracer) Close() {
	tr.Lock()
	closeChan := tr.closeChan
	tr.closeChan = nil
	tr.Unlock()

	if closeChan != nil {
		closeChan <- struct{}{}

		// wait for worker to ack close and shutdown channel
		<-closeChan
		close(closeChan)
	}

	tr.Lock()
	tr.buffers = nil
	tr.snapshot = nil
	tr.Unlock()
}

// Enqueue block request.
func (tr *Tracer) Enqueue(blockReq tracer.BlockRequest) {
	select {
	case tr.blockReqChan <- blockReq:
	default:
		// drop the request if worker is not listening
		tr.logger.Error("request processor did not receive block request")
	}
}

// Apply or queue a state change depending on the update mode.
func (tr *Tracer) UpdateState(mode tracer.UpdateMode, updateType tracer.UpdateType, data interface{}) (time.Duration, error) {
	tr.Lock()
	defer tr.Unlock()

	if mode == tracer.Asynchronous {
		tr.updateBuffer[updateType] = data
		return 0, nil
	}

	start := time.Now()
	err := tr.applyUpdate(updateType, data)
	return time.Since(start), err
}

// Retrieve last frame statistics.
func (tr *Tracer) Stats() *tracer.Stats {
	return tr.stats
}

// Commit queued changes. Must not be called while holding tr.Lock().
func (tr *Tracer) commitUpdates() error {
	tr.Lock()
	defer tr.Unlock()

	if len(tr.updateBuffer) == 0 {
		return nil
	}

	for updateType, data := range tr.updateBuffer {
		if err := tr.applyUpdate(updateType, data); err != nil {
			return err
		}
	}

	tr.updateBuffer = make(map[tracer.UpdateType]interface{}, 0)
	return nil
}

// Apply a single state change. Callers must hold tr.Lock().
func (tr *Tracer) applyUpdate(updateType tracer.UpdateType, data interface{}) error {
	switch updateType {
	case tracer.SceneData:
		snapshot, ok := data.(*scene.GeometrySnapshot)
		if !ok {
			return ErrInvalidPayload
		}
		tr.snapshot = snapshot
	case tracer.CameraData:
		camera, ok := data.(*scene.Camera)
		if !ok {
			return ErrInvalidPayload
		}
		tr.camera = cameraState{
			valid:       true,
			position:    camera.Position,
			viewProj:    camera.ViewProjMat(),
			invViewProj: camera.InvViewProjMat(),
			near:        camera.Near,
			far:         camera.Far,
		}
	case tracer.LightData:
		light, ok := data.(*scene.DirectionalLight)
		if !ok {
			return ErrInvalidPayload
		}
		tr.light = lightState{
			enabled:   light.Enabled,
			toLight:   light.ToLight(),
			color:     light.Color,
			intensity: light.Intensity,
		}
	case tracer.SettingsData:
		settings, ok := data.(tracer.Settings)
		if !ok {
			return ErrInvalidPayload
		}
		tr.settings = settings
	default:
		return ErrUnsupportedUpdate
	}
	return nil
}

// Spawn a go-routine to process block render requests.
func (tr *Tracer) startWorker() {
	// Worker already running
	if tr.closeChan != nil {
		return
	}
	tr.closeChan = make(chan struct{}, 0)
	closeChan := tr.closeChan

	readyChan := make(chan struct{}, 0)
	tr.wg.Add(1)
	go func() {
		defer tr.wg.Done()
		var blockReq tracer.BlockRequest
		var err error
		close(readyChan)
		for {
			select {
			case blockReq = <-tr.blockReqChan:
				// Apply any pending changes before the block renders
				start := time.Now()
				if err = tr.commitUpdates(); err != nil {
					blockReq.ErrChan <- err
					continue
				}
				tr.stats.UpdateTime = time.Since(start)

				// Render block and reply with our completion status
				start = time.Now()
				if err = tr.renderBlock(&blockReq); err != nil {
					blockReq.ErrChan <- err
					continue
				}
				tr.stats.BlockH = blockReq.BlockH
				tr.stats.RenderTime = time.Since(start)

				blockReq.DoneChan <- blockReq.BlockH
			case <-closeChan:
				// Ack close
				closeChan <- struct{}{}
				return
			}
		}
	}()

	// Wait for go-routine to start
	<-readyChan
}

// Render block by running it through the pipeline stages.
func (tr *Tracer) renderBlock(blockReq *tracer.BlockRequest) error {
	if tr.buffers == nil {
		return ErrNotInitialized
	}
	if tr.snapshot == nil {
		return ErrNoGeometryData
	}
	if !tr.camera.valid {
		return ErrNoCameraData
	}

	for _, stage := range [...]PipelineStage{tr.pipeline.GBuffer, tr.pipeline.Integrator, tr.pipeline.Accumulate} {
		if stage == nil {
			continue
		}
		if _, err := stage(tr, blockReq); err != nil {
			return err
		}
	}

	for _, stage := range tr.pipeline.PostProcess {
		if _, err := stage(tr, blockReq); err != nil {
			return err
		}
	}

	return nil
}
