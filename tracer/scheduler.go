package tracer

import "math"

// The BlockScheduler interface is implemented by all block scheduling
// algorithms.
type BlockScheduler interface {
	// Split the frame into horizontal blocks and assign one to each
	// tracer in the input list.
	//
	// This function returns the block height assignment for each tracer
	// in the input list.
	Schedule(tracers []Tracer, frameH uint32) []uint32
}

// The naive scheduler distributes rows proportionally to each tracer's
// static speed estimate.
type naiveScheduler struct {
	blockAssignment []uint32
}

// Create a new naive scheduler instance.
func NaiveScheduler() BlockScheduler {
	return &naiveScheduler{}
}

func (sch *naiveScheduler) Schedule(tracers []Tracer, frameH uint32) []uint32 {
	if len(sch.blockAssignment) != len(tracers) {
		sch.blockAssignment = make([]uint32, len(tracers))
	}

	scheduleBySpeed(sch.blockAssignment, tracers, frameH)
	return sch.blockAssignment
}

// The perfect scheduler distributes rows proportionally to the row
// throughput each tracer achieved on the previous frame. It assumes that
// the volume of tracing work between two subsequent frames is
// approximately the same.
type perfectScheduler struct {
	blockAssignment []uint32
}

// Create a new perfect scheduler instance.
func PerfectScheduler() BlockScheduler {
	return &perfectScheduler{}
}

func (sch *perfectScheduler) Schedule(tracers []Tracer, frameH uint32) []uint32 {
	// If this is the first invocation or the tracer pool size changed we
	// have no timing data and fall back to the speed estimates.
	if len(sch.blockAssignment) != len(tracers) {
		sch.blockAssignment = make([]uint32, len(tracers))
		scheduleBySpeed(sch.blockAssignment, tracers, frameH)
		return sch.blockAssignment
	}

	var total float64
	rates := make([]float64, len(tracers))
	for index, tr := range tracers {
		stats := tr.Stats()
		renderTime := stats.RenderTime
		if renderTime <= 0 {
			renderTime = 1
		}
		rates[index] = float64(stats.BlockH) / float64(renderTime)
		total += rates[index]
	}

	if total == 0 {
		scheduleBySpeed(sch.blockAssignment, tracers, frameH)
		return sch.blockAssignment
	}

	assignRows(sch.blockAssignment, frameH, func(index int) float64 {
		return rates[index] / total
	})
	return sch.blockAssignment
}

func scheduleBySpeed(assignment []uint32, tracers []Tracer, frameH uint32) {
	var total float64
	for _, tr := range tracers {
		total += float64(tr.Speed())
	}

	if total == 0 {
		assignRows(assignment, frameH, func(_ int) float64 {
			return 1.0 / float64(len(tracers))
		})
		return
	}

	assignRows(assignment, frameH, func(index int) float64 {
		return float64(tracers[index].Speed()) / total
	})
}

// Distribute frameH rows over the assignment slots. Every slot but the
// last receives ceil(frameH * weight) rows; the last picks up whatever
// remains so the assignments always add up to the frame height.
func assignRows(assignment []uint32, frameH uint32, weight func(index int) float64) {
	var assignedRows uint32
	for index := range assignment {
		if index == len(assignment)-1 {
			assignment[index] = frameH - assignedRows
			break
		}

		rows := uint32(math.Ceil(float64(frameH) * weight(index)))
		if assignedRows+rows > frameH {
			rows = frameH - assignedRows
		}
		assignment[index] = rows
		assignedRows += rows
	}
}
