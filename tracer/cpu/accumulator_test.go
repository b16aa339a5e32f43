package cpu

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/glintrt/glint/tracer"
	"github.com/glintrt/glint/types"
)

func TestTemporalReset(t *testing.T) {
	tr := makeDenoiseTracer(t, 8, 8)
	fb := tr.buffers

	for i := range fb.Samples {
		v := float32(i%7) * 0.1
		fb.Samples[i] = types.Vec3{v, v * 0.5, v * 0.25}
		fb.Depth[i] = v
		fb.WorldPos[i] = types.Vec4{v, 0, 0, 1}
	}
	// Pre-existing history must not leak into a reset frame.
	for i := range fb.HistoryWrite() {
		fb.HistoryWrite()[i] = tracer.HistorySample{Color: types.Vec3{9, 9, 9}, Lum: 9}
	}

	stage := TemporalDenoise()
	if _, err := stage(tr, &tracer.BlockRequest{BlockH: 8, FrameIndex: 0}); err != nil {
		t.Fatal(err)
	}

	for i, sample := range fb.Samples {
		h := fb.HistoryWrite()[i]
		if h.Color != sample {
			t.Fatalf("expected history %d to equal the raw sample %v; got %v", i, sample, h.Color)
		}
		if math32.Abs(h.Lum-luminance(sample)) > 1e-6 {
			t.Fatalf("expected cached luminance %f at %d; got %f", luminance(sample), i, h.Lum)
		}
		if h.Depth != fb.Depth[i] || h.Pos != fb.WorldPos[i] {
			t.Fatalf("expected history %d to capture the pixel depth and position", i)
		}
	}
}

func TestTemporalConvergence(t *testing.T) {
	tr := makeDenoiseTracer(t, 8, 8)
	fb := tr.buffers
	stage := TemporalDenoise()

	// Seed the history with a uniform grey frame.
	fillGrey(fb.Samples, 0.5)
	if _, err := stage(tr, &tracer.BlockRequest{BlockH: 8, FrameIndex: 0}); err != nil {
		t.Fatal(err)
	}
	fb.SwapHistory()

	// The scene settles on a slightly brighter value. The luminance delta
	// is below the snap threshold so the history must blend towards it a
	// little more every frame without ever overshooting.
	target := float32(0.55)
	fillGrey(fb.Samples, target)

	center := 8*4 + 4
	prevDist := math32.Abs(fb.HistoryRead()[center].Color[0] - target)
	for frame := uint32(1); frame <= 6; frame++ {
		if _, err := stage(tr, &tracer.BlockRequest{BlockH: 8, FrameIndex: frame}); err != nil {
			t.Fatal(err)
		}

		h := fb.HistoryWrite()[center]
		dist := math32.Abs(h.Color[0] - target)
		if dist >= prevDist {
			t.Fatalf("[frame %d] expected history to approach %f; got %f after %f",
				frame, target, h.Color[0], prevDist)
		}
		if h.Color[0] > target {
			t.Fatalf("[frame %d] expected history to not overshoot %f; got %f", frame, target, h.Color[0])
		}
		prevDist = dist

		fb.SwapHistory()
	}
}

func TestTemporalLuminanceSnap(t *testing.T) {
	tr := makeDenoiseTracer(t, 8, 8)
	fb := tr.buffers
	stage := TemporalDenoise()

	fillGrey(fb.Samples, 0.5)
	if _, err := stage(tr, &tracer.BlockRequest{BlockH: 8, FrameIndex: 0}); err != nil {
		t.Fatal(err)
	}
	fb.SwapHistory()

	// A large jump must snap the history instead of blending, even deep
	// into an accumulation run where the blend weight is tiny.
	fillGrey(fb.Samples, 0.9)
	if _, err := stage(tr, &tracer.BlockRequest{BlockH: 8, FrameIndex: 120}); err != nil {
		t.Fatal(err)
	}

	center := 8*4 + 4
	h := fb.HistoryWrite()[center]
	if h.Color[0] < 0.8 {
		t.Fatalf("expected history to snap towards 0.9; got %f", h.Color[0])
	}
}

func TestFilterStopsAtEdges(t *testing.T) {
	tr := makeDenoiseTracer(t, 8, 8)
	fb := tr.buffers
	stage := TemporalDenoise()

	// Two flat regions split down the middle with very different depth,
	// world position and luminance. The filter must not bleed one side
	// into the other.
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			i := y*8 + x
			if x < 4 {
				fb.Depth[i] = 0.2
				fb.WorldPos[i] = types.Vec4{0, 0, 0, 1}
				fb.Samples[i] = types.Vec3{0.2, 0.2, 0.2}
			} else {
				fb.Depth[i] = 0.9
				fb.WorldPos[i] = types.Vec4{5, 0, 0, 1}
				fb.Samples[i] = types.Vec3{0.8, 0.8, 0.8}
			}
		}
	}

	if _, err := stage(tr, &tracer.BlockRequest{BlockH: 8, FrameIndex: 0}); err != nil {
		t.Fatal(err)
	}
	fb.SwapHistory()

	// Steady state: samples match history so any drift comes from the
	// filter pulling neighbors across the edge.
	if _, err := stage(tr, &tracer.BlockRequest{BlockH: 8, FrameIndex: 5}); err != nil {
		t.Fatal(err)
	}

	left := fb.HistoryWrite()[8*4+3]
	right := fb.HistoryWrite()[8*4+4]
	if math32.Abs(left.Color[0]-0.2) > 1e-3 {
		t.Fatalf("expected left edge pixel to hold 0.2; got %f", left.Color[0])
	}
	if math32.Abs(right.Color[0]-0.8) > 1e-3 {
		t.Fatalf("expected right edge pixel to hold 0.8; got %f", right.Color[0])
	}
}

func TestLumVariance(t *testing.T) {
	tr := makeDenoiseTracer(t, 8, 8)
	fb := tr.buffers
	history := fb.HistoryRead()

	// Uniform neighborhood.
	for i := range history {
		history[i] = tracer.HistorySample{Color: types.Vec3{0.5, 0.5, 0.5}, Lum: 0.5}
	}
	if v := tr.lumVariance(4, 4, history); v > 1e-6 {
		t.Fatalf("expected zero variance for a uniform neighborhood; got %f", v)
	}

	// Checkerboard neighborhood crosses the widening threshold.
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			lum := float32(0)
			if (x+y)%2 == 0 {
				lum = 1
			}
			history[y*8+x] = tracer.HistorySample{Color: types.Vec3{lum, lum, lum}, Lum: lum}
		}
	}
	if v := tr.lumVariance(4, 4, history); v <= filterVarianceThreshold {
		t.Fatalf("expected checkerboard variance above %f; got %f", filterVarianceThreshold, v)
	}
}

func TestPosWeight(t *testing.T) {
	type spec struct {
		a   types.Vec4
		b   types.Vec4
		exp float32
	}

	specs := []spec{
		// Both empty: sky pixels always match each other.
		{types.Vec4{0, 0, 0, 0}, types.Vec4{0, 0, 0, 0}, 1},
		// Empty against solid: hard silhouette edge.
		{types.Vec4{0, 0, 0, 0}, types.Vec4{1, 2, 3, 1}, 0},
		{types.Vec4{1, 2, 3, 1}, types.Vec4{0, 0, 0, 0}, 0},
		// Identical solid positions.
		{types.Vec4{1, 2, 3, 1}, types.Vec4{1, 2, 3, 1}, 1},
	}

	for specIndex, spec := range specs {
		if got := posWeight(spec.a, spec.b); math32.Abs(got-spec.exp) > 1e-6 {
			t.Fatalf("[spec %d] expected weight %f; got %f", specIndex, spec.exp, got)
		}
	}

	// Distant solid positions decay smoothly but never to exactly zero.
	far := posWeight(types.Vec4{0, 0, 0, 1}, types.Vec4{1, 0, 0, 1})
	near := posWeight(types.Vec4{0, 0, 0, 1}, types.Vec4{0.1, 0, 0, 1})
	if far >= near {
		t.Fatalf("expected weight to decay with distance; got far %f, near %f", far, near)
	}
}

func TestChebyshev(t *testing.T) {
	type spec struct {
		dx  int
		dy  int
		exp int
	}

	specs := []spec{
		{0, 0, 0},
		{1, 0, 1},
		{0, -1, 1},
		{-1, 1, 1},
		{2, -1, 2},
		{-2, -2, 2},
	}

	for specIndex, spec := range specs {
		if got := chebyshev(spec.dx, spec.dy); got != spec.exp {
			t.Fatalf("[spec %d] expected distance %d; got %d", specIndex, spec.exp, got)
		}
	}
}

func TestLuminance(t *testing.T) {
	if got := luminance(types.Vec3{1, 1, 1}); math32.Abs(got-1) > 1e-6 {
		t.Fatalf("expected white luminance 1; got %f", got)
	}
	if got := luminance(types.Vec3{}); got != 0 {
		t.Fatalf("expected black luminance 0; got %f", got)
	}
	if luminance(types.Vec3{0, 1, 0}) <= luminance(types.Vec3{1, 0, 0}) {
		t.Fatalf("expected green to carry more luma than red")
	}
}

func makeDenoiseTracer(t *testing.T, frameW, frameH uint32) *Tracer {
	t.Helper()

	fb, err := tracer.NewFrameBuffers(frameW, frameH)
	if err != nil {
		t.Fatal(err)
	}

	tr := NewTracer("test", DefaultPipeline(Off))
	tr.frameW = frameW
	tr.frameH = frameH
	tr.buffers = fb
	return tr
}

func fillGrey(buf []types.Vec3, v float32) {
	for i := range buf {
		buf[i] = types.Vec3{v, v, v}
	}
}
