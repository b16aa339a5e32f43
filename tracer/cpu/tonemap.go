package cpu

import (
	"time"

	"github.com/chewxy/math32"
	"github.com/glintrt/glint/tracer"
)

// ACES filmic curve coefficients (Narkowicz approximation).
const (
	acesA float32 = 2.51
	acesB float32 = 0.03
	acesC float32 = 2.43
	acesD float32 = 0.59
	acesE float32 = 0.14

	invGamma float32 = 1.0 / 2.2
)

// Tone-map the accumulated HDR history into the 8-bit output buffer:
// exposure scale, ACES filmic curve, gamma encode.
func TonemapACES() PipelineStage {
	return func(tr *Tracer, blockReq *tracer.BlockRequest) (time.Duration, error) {
		start := time.Now()

		fb := tr.buffers
		history := fb.HistoryWrite()

		exposure := blockReq.Exposure
		if exposure <= 0 {
			exposure = 1
		}

		yEnd := blockReq.BlockY + blockReq.BlockH
		for y := blockReq.BlockY; y < yEnd; y++ {
			for x := uint32(0); x < tr.frameW; x++ {
				i := int(y*tr.frameW + x)
				c := history[i].Color

				out := i * 4
				fb.Output[out] = encodeChannel(c[0] * exposure)
				fb.Output[out+1] = encodeChannel(c[1] * exposure)
				fb.Output[out+2] = encodeChannel(c[2] * exposure)
				fb.Output[out+3] = 255
			}
		}

		return time.Since(start), nil
	}
}

// Apply the filmic curve and gamma encode a single channel.
func encodeChannel(x float32) uint8 {
	return uint8(math32.Pow(acesCurve(x), invGamma)*255 + 0.5)
}

// ACES filmic tone curve clamped to [0,1]. Pure function, no state.
func acesCurve(x float32) float32 {
	v := (x * (acesA*x + acesB)) / (x*(acesC*x+acesD) + acesE)
	return clamp(v, 0, 1)
}
