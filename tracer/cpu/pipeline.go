package cpu

import (
	"image"
	"image/png"
	"os"
	"time"

	"github.com/glintrt/glint/tracer"
	"github.com/glintrt/glint/types"
)

// Debug flags.
type DebugFlag uint16

const (
	Off         DebugFlag = 0
	RasterDepth           = 1 << iota
	RasterColor
	RawSamples
	Accumulator
	FrameBuffer
)

// An alias for functions that can be used as part of the rendering pipeline.
type PipelineStage func(tr *Tracer, blockReq *tracer.BlockRequest) (time.Duration, error)

// The list of pluggable stages that are used to render a frame block.
type Pipeline struct {
	// Raster substitute; fills the depth/normal/albedo/color g-buffer
	// the integrator consumes.
	GBuffer PipelineStage

	// The integrator traces one averaged radiance sample per pixel into
	// the sample buffer.
	Integrator PipelineStage

	// Temporal accumulation and edge-aware filtering of the samples.
	Accumulate PipelineStage

	// A set of post-processing stages that are executed prior to
	// presenting the final frame.
	PostProcess []PipelineStage
}

func DefaultPipeline(debugFlags DebugFlag) *Pipeline {
	pipeline := &Pipeline{
		GBuffer:    RasterGBuffer(),
		Integrator: MonteCarloIntegrator(),
		Accumulate: TemporalDenoise(),
		PostProcess: []PipelineStage{
			TonemapACES(),
		},
	}

	if debugFlags&RasterDepth == RasterDepth {
		pipeline.PostProcess = append(pipeline.PostProcess, DebugDepthBuffer("debug-raster-depth.png"))
	}
	if debugFlags&RasterColor == RasterColor {
		pipeline.PostProcess = append(pipeline.PostProcess, DebugVec3Buffer("debug-raster-color.png",
			func(fb *tracer.FrameBuffers) []types.Vec3 { return fb.Raster }))
	}
	if debugFlags&RawSamples == RawSamples {
		pipeline.PostProcess = append(pipeline.PostProcess, DebugVec3Buffer("debug-samples.png",
			func(fb *tracer.FrameBuffers) []types.Vec3 { return fb.Samples }))
	}
	if debugFlags&Accumulator == Accumulator {
		pipeline.PostProcess = append(pipeline.PostProcess, DebugAccumulator("debug-accumulator.png"))
	}
	if debugFlags&FrameBuffer == FrameBuffer {
		pipeline.PostProcess = append(pipeline.PostProcess, DebugFrameBuffer("debug-fb.png"))
	}

	return pipeline
}

// Dump a copy of the RGBA framebuffer.
func DebugFrameBuffer(imgFile string) PipelineStage {
	return func(tr *Tracer, blockReq *tracer.BlockRequest) (time.Duration, error) {
		start := time.Now()

		im := image.NewRGBA(image.Rect(0, 0, int(tr.frameW), int(tr.frameH)))
		copy(im.Pix, tr.buffers.Output)

		return time.Since(start), writePNG(imgFile, im)
	}
}

// Dump the g-buffer depth as grayscale.
func DebugDepthBuffer(imgFile string) PipelineStage {
	return func(tr *Tracer, blockReq *tracer.BlockRequest) (time.Duration, error) {
		start := time.Now()

		im := image.NewRGBA(image.Rect(0, 0, int(tr.frameW), int(tr.frameH)))
		for i, depth := range tr.buffers.Depth {
			v := uint8(clamp(depth, 0, 1) * 255)
			im.Pix[i*4] = v
			im.Pix[i*4+1] = v
			im.Pix[i*4+2] = v
			im.Pix[i*4+3] = 255
		}

		return time.Since(start), writePNG(imgFile, im)
	}
}

// Dump an HDR color buffer clamped to LDR.
func DebugVec3Buffer(imgFile string, selectBuffer func(fb *tracer.FrameBuffers) []types.Vec3) PipelineStage {
	return func(tr *Tracer, blockReq *tracer.BlockRequest) (time.Duration, error) {
		start := time.Now()

		buffer := selectBuffer(tr.buffers)
		im := image.NewRGBA(image.Rect(0, 0, int(tr.frameW), int(tr.frameH)))
		for i, c := range buffer {
			im.Pix[i*4] = uint8(clamp(c[0], 0, 1) * 255)
			im.Pix[i*4+1] = uint8(clamp(c[1], 0, 1) * 255)
			im.Pix[i*4+2] = uint8(clamp(c[2], 0, 1) * 255)
			im.Pix[i*4+3] = 255
		}

		return time.Since(start), writePNG(imgFile, im)
	}
}

// Dump the accumulation history for the current frame clamped to LDR.
func DebugAccumulator(imgFile string) PipelineStage {
	return func(tr *Tracer, blockReq *tracer.BlockRequest) (time.Duration, error) {
		start := time.Now()

		history := tr.buffers.HistoryWrite()
		im := image.NewRGBA(image.Rect(0, 0, int(tr.frameW), int(tr.frameH)))
		for i, h := range history {
			im.Pix[i*4] = uint8(clamp(h.Color[0], 0, 1) * 255)
			im.Pix[i*4+1] = uint8(clamp(h.Color[1], 0, 1) * 255)
			im.Pix[i*4+2] = uint8(clamp(h.Color[2], 0, 1) * 255)
			im.Pix[i*4+3] = 255
		}

		return time.Since(start), writePNG(imgFile, im)
	}
}

func writePNG(imgFile string, im *image.RGBA) error {
	f, err := os.Create(imgFile)
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, im)
}
