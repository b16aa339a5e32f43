package cpu

import (
	"time"

	"github.com/chewxy/math32"
	"github.com/glintrt/glint/tracer"
	"github.com/glintrt/glint/types"
)

const (
	// Luminance delta above which the history snaps to the new sample.
	// Deliberately not scaled by scene brightness; tune per scene if
	// bright content flickers.
	temporalLumSnapThreshold float32 = 0.08

	// Ceiling for the temporal blend weight so single-frame outliers do
	// not overwhelm the history.
	temporalBlendCeiling float32 = 0.2

	// History luminance variance above which the spatial filter widens
	// to cover reflective/high-frequency regions.
	filterVarianceThreshold float32 = 0.01

	// Blend between the temporal result and the filtered neighborhood.
	filterBlendNarrow float32 = 0.2
	filterBlendWide   float32 = 0.35

	// Edge-stopping falloffs for the neighbor weights.
	depthEdgeScale float32 = 64
	posEdgeScale   float32 = 4
	lumEdgeScale   float32 = 8
)

// Fixed spatial kernel weight by chebyshev distance from the center.
var spatialKernel = [3]float32{1, 0.6, 0.25}

// Temporal accumulation followed by an edge-aware spatial filter. The
// filtered value becomes the pixel's new history. Neighbor reads always
// come from the previous frame's history so blocks can be processed in
// parallel without ordering effects.
func TemporalDenoise() PipelineStage {
	return func(tr *Tracer, blockReq *tracer.BlockRequest) (time.Duration, error) {
		start := time.Now()

		fb := tr.buffers
		historyRead := fb.HistoryRead()
		historyWrite := fb.HistoryWrite()

		yEnd := blockReq.BlockY + blockReq.BlockH
		for y := blockReq.BlockY; y < yEnd; y++ {
			for x := uint32(0); x < tr.frameW; x++ {
				i := int(y*tr.frameW + x)

				sample := fb.Samples[i]
				sampleLum := luminance(sample)

				// The raw sample replaces the history wholesale on the
				// first frame after a reset.
				if blockReq.FrameIndex == 0 {
					historyWrite[i] = tracer.HistorySample{
						Color: sample,
						Lum:   sampleLum,
						Depth: fb.Depth[i],
						Pos:   fb.WorldPos[i],
					}
					continue
				}

				h := historyRead[i]

				var temporal types.Vec3
				if math32.Abs(sampleLum-h.Lum) > temporalLumSnapThreshold {
					// A large luminance jump means the pixel really
					// changed; snap instead of dragging stale history.
					temporal = sample
				} else {
					weight := 1 / float32(blockReq.FrameIndex+1)
					if weight > temporalBlendCeiling {
						weight = temporalBlendCeiling
					}
					temporal = h.Color.Lerp(sample, weight)
				}

				filtered := tr.filterPixel(x, y, i, temporal, historyRead)
				historyWrite[i] = tracer.HistorySample{
					Color: filtered,
					Lum:   luminance(filtered),
					Depth: fb.Depth[i],
					Pos:   fb.WorldPos[i],
				}
			}
		}

		return time.Since(start), nil
	}
}

// Edge-aware filter for one pixel: gather the history neighborhood,
// weight each neighbor by depth similarity, world-position proximity, the
// spatial kernel and luminance similarity, then blend the normalized
// result with the unfiltered temporal value.
func (tr *Tracer) filterPixel(x, y uint32, i int, temporal types.Vec3, historyRead []tracer.HistorySample) types.Vec3 {
	fb := tr.buffers
	temporalLum := luminance(temporal)

	radius := 1
	blend := filterBlendNarrow
	if tr.lumVariance(x, y, historyRead) > filterVarianceThreshold {
		radius = 2
		blend = filterBlendWide
	}

	centerDepth := fb.Depth[i]
	centerPos := fb.WorldPos[i]

	colorSum := temporal
	weightSum := float32(1)

	for dy := -radius; dy <= radius; dy++ {
		ny := int(y) + dy
		if ny < 0 || ny >= int(tr.frameH) {
			continue
		}
		for dx := -radius; dx <= radius; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx := int(x) + dx
			if nx < 0 || nx >= int(tr.frameW) {
				continue
			}
			n := historyRead[ny*int(tr.frameW)+nx]

			weight := spatialKernel[chebyshev(dx, dy)]
			weight *= math32.Exp(-math32.Abs(centerDepth-n.Depth) * depthEdgeScale)
			weight *= posWeight(centerPos, n.Pos)
			weight *= math32.Exp(-math32.Abs(temporalLum-n.Lum) * lumEdgeScale)

			colorSum = colorSum.Add(n.Color.Mul(weight))
			weightSum += weight
		}
	}

	filtered := colorSum.Mul(1 / weightSum)
	return temporal.Lerp(filtered, blend)
}

// Variance of the 3x3 history luminance neighborhood.
func (tr *Tracer) lumVariance(x, y uint32, historyRead []tracer.HistorySample) float32 {
	var sum, sumSq, count float32

	for dy := -1; dy <= 1; dy++ {
		ny := int(y) + dy
		if ny < 0 || ny >= int(tr.frameH) {
			continue
		}
		for dx := -1; dx <= 1; dx++ {
			nx := int(x) + dx
			if nx < 0 || nx >= int(tr.frameW) {
				continue
			}
			lum := historyRead[ny*int(tr.frameW)+nx].Lum
			sum += lum
			sumSq += lum * lum
			count++
		}
	}

	mean := sum / count
	return sumSq/count - mean*mean
}

// World-position similarity. Pixels with no geometry under them only
// match other empty pixels, which keeps silhouettes sharp.
func posWeight(a, b types.Vec4) float32 {
	if a[3] == 0 || b[3] == 0 {
		if a[3] == b[3] {
			return 1
		}
		return 0
	}
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return math32.Exp(-(dx*dx + dy*dy + dz*dz) * posEdgeScale)
}

func chebyshev(dx, dy int) int {
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	if dy > dx {
		return dy
	}
	return dx
}

// Rec. 709 luma.
func luminance(c types.Vec3) float32 {
	return 0.2126*c[0] + 0.7152*c[1] + 0.0722*c[2]
}
