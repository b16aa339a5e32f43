package cpu

import (
	"math/rand"
	"time"

	"github.com/chewxy/math32"
	"github.com/glintrt/glint/tracer"
	"github.com/glintrt/glint/types"
)

const (
	// Hard cap on the per-pixel samples traced in one frame.
	maxSamplesPerPixel uint32 = 8

	// Russian roulette survival probability bounds.
	rrMinSurvival float32 = 0.5
	rrMaxSurvival float32 = 0.95

	// Lens jitter radius applied to reconstructed primary hits.
	apertureRadius float32 = 0.008

	// Ambient term of the raster shading approximation.
	rasterAmbient float32 = 0.15

	// Sky/raster mix for pixels with no geometry under them.
	skyRasterBlend float32 = 0.5

	// Shadow rays are considered unoccluded past this distance.
	maxShadowDistance float32 = 1e4

	// Offset along the surface normal for bounce ray origins.
	bounceOriginBias float32 = 1e-3
)

var (
	skyHorizonColor = types.Vec3{200.0 / 255.0, 230.0 / 255.0, 255.0 / 255.0}
	skyZenithColor  = types.Vec3{50.0 / 255.0, 120.0 / 255.0, 255.0 / 255.0}
)

// Rasterizer substitute: resolves primary visibility for every pixel of
// the block and fills the depth, normal, albedo and shaded color buffers
// consumed by the integrator.
func RasterGBuffer() PipelineStage {
	return func(tr *Tracer, blockReq *tracer.BlockRequest) (time.Duration, error) {
		start := time.Now()

		fb := tr.buffers
		var hit HitInfo

		yEnd := blockReq.BlockY + blockReq.BlockH
		for y := blockReq.BlockY; y < yEnd; y++ {
			for x := uint32(0); x < tr.frameW; x++ {
				i := int(y*tr.frameW + x)

				ray := tr.primaryRay(x, y, 0, 0)
				if !traverse(tr.snapshot, &ray, &hit) {
					fb.Depth[i] = 1
					fb.Normal[i] = types.Vec3{}
					fb.Albedo[i] = types.Vec3{}
					fb.Raster[i] = skyGradient(ray.Dir)
					continue
				}

				fb.Depth[i] = tr.camera.projectDepth(hit.Position)
				fb.Normal[i] = hit.Normal
				fb.Albedo[i] = hit.Albedo
				fb.Raster[i] = tr.rasterShade(&hit)
			}
		}

		return time.Since(start), nil
	}
}

// Path tracing integrator: produces one averaged HDR radiance sample per
// pixel, using the raster depth buffer for primary visibility instead of
// traced primary rays.
func MonteCarloIntegrator() PipelineStage {
	return func(tr *Tracer, blockReq *tracer.BlockRequest) (time.Duration, error) {
		start := time.Now()

		fb := tr.buffers
		yEnd := blockReq.BlockY + blockReq.BlockH

		// A disabled tracer passes the raster output through untouched.
		if !tr.settings.Enabled {
			for y := blockReq.BlockY; y < yEnd; y++ {
				for x := uint32(0); x < tr.frameW; x++ {
					i := int(y*tr.frameW + x)
					fb.WorldPos[i] = types.Vec4{}
					fb.Samples[i] = fb.Raster[i]
				}
			}
			return time.Since(start), nil
		}

		rng := rand.New(rand.NewSource(int64(blockReq.Seed) + int64(blockReq.BlockY)<<32))

		spp := blockReq.SamplesPerPixel
		if spp < 1 {
			spp = 1
		}
		if spp > maxSamplesPerPixel {
			spp = maxSamplesPerPixel
		}

		// For a static scene half the samples skip their indirect bounce;
		// the accumulated history already carries that signal.
		staticScene := blockReq.FrameIndex > 0

		for y := blockReq.BlockY; y < yEnd; y++ {
			for x := uint32(0); x < tr.frameW; x++ {
				i := int(y*tr.frameW + x)

				depth := fb.Depth[i]
				if depth >= 1 {
					// No geometry under this pixel: mix the sky with the
					// raster output and skip path evaluation.
					ray := tr.primaryRay(x, y, 0, 0)
					fb.WorldPos[i] = types.Vec4{}
					fb.Samples[i] = skyGradient(ray.Dir).Lerp(fb.Raster[i], skyRasterBlend)
					continue
				}

				ndcX, ndcY := tr.pixelNDC(x, y, 0, 0)
				fb.WorldPos[i] = tr.camera.reconstructWorldPos(ndcX, ndcY, depth).Vec4(1)

				var sum types.Vec3
				for s := uint32(0); s < spp; s++ {
					allowBounce := tr.settings.RayDepth > 1
					if staticScene && (s+blockReq.FrameIndex)%2 == 1 {
						allowBounce = false
					}
					sum = sum.Add(tr.tracePath(x, y, i, depth, rng, allowBounce))
				}
				fb.Samples[i] = sum.Mul(1 / float32(spp))
			}
		}

		return time.Since(start), nil
	}
}

// Evaluate one path sample for the pixel. The primary hit is the raster
// depth buffer surface at a jittered screen coordinate.
func (tr *Tracer) tracePath(x, y uint32, i int, depth float32, rng *rand.Rand, allowBounce bool) types.Vec3 {
	fb := tr.buffers

	ndcX, ndcY := tr.pixelNDC(x, y, rng.Float32()-0.5, rng.Float32()-0.5)
	pos := tr.camera.reconstructWorldPos(ndcX, ndcY, depth)
	pos = tr.lensJitter(pos, rng)

	normal := fb.Normal[i]
	albedo := fb.Albedo[i]
	viewerDist := pos.Sub(tr.camera.position).Len()

	radiance := albedo.MulVec(tr.directLight(pos, normal, viewerDist))

	if allowBounce {
		// Russian roulette gate on the path throughput.
		survival := clamp(albedo.MaxComponent(), rrMinSurvival, rrMaxSurvival)
		if rng.Float32() <= survival {
			bounceDir := cosineHemisphere(normal, rng.Float32(), rng.Float32())
			bounceRay := NewRay(pos.Add(normal.Mul(bounceOriginBias)), bounceDir)

			var li types.Vec3
			var hit HitInfo
			if traverse(tr.snapshot, &bounceRay, &hit) {
				li = hit.Albedo.MulVec(tr.directLight(hit.Position, hit.Normal, viewerDist+hit.Distance))
			} else {
				li = skyGradient(bounceDir)
			}

			// The cosine-hemisphere pdf cancels the BRDF cosine term;
			// the bounce contributes an unweighted albedo multiply.
			radiance = radiance.Add(albedo.MulVec(li).Mul(1 / survival))
		}
	}

	return radiance
}

// Direct radiance from the directional light falling on the point; zero
// when direct lighting is disabled or the point is in shadow.
func (tr *Tracer) directLight(pos, normal types.Vec3, viewerDist float32) types.Vec3 {
	if !tr.settings.EnableDirectLight || !tr.light.enabled {
		return types.Vec3{}
	}

	ndotl := normal.Dot(tr.light.toLight)
	if ndotl <= 0 {
		return types.Vec3{}
	}

	if tr.settings.EnableShadows && occluded(tr.snapshot, pos, tr.light.toLight, maxShadowDistance, viewerDist) {
		return types.Vec3{}
	}

	return tr.light.color.Mul(tr.light.intensity * ndotl)
}

// Lambert approximation of the raster pass output: ambient plus
// unshadowed directional lighting.
func (tr *Tracer) rasterShade(hit *HitInfo) types.Vec3 {
	shade := types.Vec3{rasterAmbient, rasterAmbient, rasterAmbient}
	if tr.light.enabled {
		if ndotl := hit.Normal.Dot(tr.light.toLight); ndotl > 0 {
			shade = shade.Add(tr.light.color.Mul(tr.light.intensity * ndotl))
		}
	}
	return hit.Albedo.MulVec(shade)
}

// Normalized device coordinates of the (possibly jittered) pixel center.
// Row 0 maps to the top of the frame.
func (tr *Tracer) pixelNDC(x, y uint32, jitterX, jitterY float32) (float32, float32) {
	ndcX := (2 * (float32(x) + 0.5 + jitterX) / float32(tr.frameW)) - 1
	ndcY := 1 - (2 * (float32(y) + 0.5 + jitterY) / float32(tr.frameH))
	return ndcX, ndcY
}

// Build the camera ray through pixel (x,y).
func (tr *Tracer) primaryRay(x, y uint32, jitterX, jitterY float32) Ray {
	ndcX, ndcY := tr.pixelNDC(x, y, jitterX, jitterY)
	farPoint := tr.camera.invViewProj.TransformPoint(types.Vec3{ndcX, ndcY, 1})
	return NewRay(tr.camera.position, farPoint.Sub(tr.camera.position).Normalize())
}

// Offset a reconstructed primary hit inside a small lens-shaped footprint
// perpendicular to the view direction.
func (tr *Tracer) lensJitter(pos types.Vec3, rng *rand.Rand) types.Vec3 {
	viewDir := pos.Sub(tr.camera.position).Normalize()
	right := viewDir.Cross(types.Vec3{0, 1, 0})
	if right.Len() < intersectEpsilon {
		right = types.Vec3{1, 0, 0}
	} else {
		right = right.Normalize()
	}
	up := right.Cross(viewDir)

	lu := (rng.Float32() - 0.5) * apertureRadius
	lv := (rng.Float32() - 0.5) * apertureRadius
	return pos.Add(right.Mul(lu)).Add(up.Mul(lv))
}

// Reconstruct the world position of a pixel from its raster depth and the
// inverse view-projection matrix.
func (cs *cameraState) reconstructWorldPos(ndcX, ndcY, depth float32) types.Vec3 {
	return cs.invViewProj.TransformPoint(types.Vec3{ndcX, ndcY, depth*2 - 1})
}

// Normalized device depth of a world point in [0,1]; 1 is the far plane.
func (cs *cameraState) projectDepth(point types.Vec3) float32 {
	clip := cs.viewProj.Mul4x1(point.Vec4(1))
	if clip[3] == 0 {
		return 1
	}
	depth := clip[2]/clip[3]*0.5 + 0.5
	return clamp(depth, 0, 1)
}

// Sky radiance for a ray that escapes the scene: a vertical gradient from
// the horizon to the zenith color.
func skyGradient(dir types.Vec3) types.Vec3 {
	t := 0.5 * (dir[1] + 1)
	return skyHorizonColor.Lerp(skyZenithColor, t)
}

// Cosine-weighted hemisphere sample around the normal.
func cosineHemisphere(normal types.Vec3, r1, r2 float32) types.Vec3 {
	var tangent types.Vec3
	if math32.Abs(normal[0]) > 0.9 {
		tangent = types.Vec3{0, 1, 0}.Cross(normal).Normalize()
	} else {
		tangent = types.Vec3{1, 0, 0}.Cross(normal).Normalize()
	}
	bitangent := normal.Cross(tangent)

	radius := math32.Sqrt(r1)
	phi := 2 * math32.Pi * r2
	z := math32.Sqrt(1 - r1)

	sample := tangent.Mul(radius * math32.Cos(phi)).
		Add(bitangent.Mul(radius * math32.Sin(phi))).
		Add(normal.Mul(z))
	return sample.Normalize()
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
