package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/glintrt/glint/renderer"
	"github.com/glintrt/glint/tracer"
	"github.com/glintrt/glint/tracer/cpu"
)

// Benchmark the renderer by tracing a fixed number of frames without
// presenting them. Frame times come from the per-frame stats so scene
// loading and warm-up are excluded.
func Bench(ctx *cli.Context) error {
	setupLogging(ctx)

	sc, err := loadScene(ctx)
	if err != nil {
		return err
	}

	opts := parseRenderOptions(ctx)

	r, err := renderer.NewDefault(sc, tracer.PerfectScheduler(), cpu.DefaultPipeline(cpu.Off), opts)
	if err != nil {
		return err
	}
	defer r.Close()

	frames := ctx.Int("frames")
	if frames < 1 {
		frames = 1
	}

	// An interrupt aborts the benchmark without summarizing the frames
	// traced so far.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer signal.Stop(sigChan)

	logger.Noticef("benchmarking %d frame(s) at %dx%d using %d sample(s) per pixel", frames, opts.FrameW, opts.FrameH, opts.SamplesPerPixel)

	var totalTime, minTime, maxTime time.Duration
	for i := 0; i < frames; i++ {
		if err = r.Render(); err != nil {
			return err
		}

		frameTime := r.Stats().RenderTime
		totalTime += frameTime
		if minTime == 0 || frameTime < minTime {
			minTime = frameTime
		}
		if frameTime > maxTime {
			maxTime = frameTime
		}

		select {
		case <-sigChan:
			return renderer.ErrInterrupted
		default:
		}
	}

	displayBenchStats(frames, totalTime, minTime, maxTime)
	displayFrameStats(r.Stats())

	return nil
}

func displayBenchStats(frames int, totalTime, minTime, maxTime time.Duration) {
	avgTime := totalTime / time.Duration(frames)

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Frames", "Total time", "Avg frame", "Min frame", "Max frame", "FPS"})
	table.Append([]string{
		fmt.Sprintf("%d", frames),
		fmt.Sprintf("%s", totalTime.Round(time.Microsecond)),
		fmt.Sprintf("%s", avgTime.Round(time.Microsecond)),
		fmt.Sprintf("%s", minTime.Round(time.Microsecond)),
		fmt.Sprintf("%s", maxTime.Round(time.Microsecond)),
		fmt.Sprintf("%02.1f", float64(time.Second)/float64(avgTime)),
	})

	table.Render()
	logger.Noticef("benchmark results\n%s", buf.String())
}
