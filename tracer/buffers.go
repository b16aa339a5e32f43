package tracer

import (
	"errors"

	"github.com/glintrt/glint/types"
)

var ErrInvalidFrameDims = errors.New("tracer: frame dimensions must be non-zero")

// HistorySample is one pixel of the accumulation history: the blended
// color with its cached luminance plus the depth and world position the
// pixel had when it was written. Carrying the geometry alongside the
// color lets the spatial filter weight neighbors entirely from the
// previous frame's buffer, so blocks owned by different tracers never
// read each other's in-flight rows.
type HistorySample struct {
	Color types.Vec3
	Lum   float32

	Depth float32
	Pos   types.Vec4
}

// FrameBuffers hold the per-pixel state shared by all local tracers. Each
// tracer renders a disjoint block of rows so no synchronization is needed
// inside a frame; the accumulation history is double buffered so that the
// spatial filter can read the previous frame's values while the current
// frame is written.
type FrameBuffers struct {
	frameW uint32
	frameH uint32

	// Raster pass outputs consumed by the path tracer. Depth stores the
	// normalized device depth with 1.0 marking sky pixels.
	Depth  []float32
	Normal []types.Vec3
	Albedo []types.Vec3
	Raster []types.Vec3

	// World position reconstructed from the depth buffer (w=0 for sky)
	// and the averaged HDR radiance sample for the current frame.
	WorldPos []types.Vec4
	Samples  []types.Vec3

	// Double-buffered accumulation history.
	history    [2][]HistorySample
	historyIdx int

	// Tone-mapped 8-bit RGBA output.
	Output []uint8
}

func NewFrameBuffers(frameW, frameH uint32) (*FrameBuffers, error) {
	if frameW == 0 || frameH == 0 {
		return nil, ErrInvalidFrameDims
	}

	numPixels := int(frameW * frameH)
	fb := &FrameBuffers{
		frameW:   frameW,
		frameH:   frameH,
		Depth:    make([]float32, numPixels),
		Normal:   make([]types.Vec3, numPixels),
		Albedo:   make([]types.Vec3, numPixels),
		Raster:   make([]types.Vec3, numPixels),
		WorldPos: make([]types.Vec4, numPixels),
		Samples:  make([]types.Vec3, numPixels),
		Output:   make([]uint8, numPixels*4),
	}
	fb.history[0] = make([]HistorySample, numPixels)
	fb.history[1] = make([]HistorySample, numPixels)
	return fb, nil
}

// Get the frame dimensions the buffers were allocated for.
func (fb *FrameBuffers) Dimensions() (frameW, frameH uint32) {
	return fb.frameW, fb.frameH
}

// Get the accumulation history written by the previous frame. Read-only
// while a frame is in flight.
func (fb *FrameBuffers) HistoryRead() []HistorySample {
	return fb.history[fb.historyIdx]
}

// Get the accumulation history target for the current frame.
func (fb *FrameBuffers) HistoryWrite() []HistorySample {
	return fb.history[1-fb.historyIdx]
}

// Flip the history buffers. The renderer calls this once per frame after
// all tracers have completed their blocks.
func (fb *FrameBuffers) SwapHistory() {
	fb.historyIdx = 1 - fb.historyIdx
}
