package cmd

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/signal"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/glintrt/glint/renderer"
	"github.com/glintrt/glint/tracer"
	"github.com/glintrt/glint/tracer/cpu"
)

// Render a still frame to a png file. The temporal accumulator needs a
// few frames to converge so the frame is rendered repeatedly before the
// framebuffer gets saved.
func RenderFrame(ctx *cli.Context) error {
	setupLogging(ctx)

	sc, err := loadScene(ctx)
	if err != nil {
		return err
	}

	opts := parseRenderOptions(ctx)

	r, err := renderer.NewDefault(sc, tracer.NaiveScheduler(), cpu.DefaultPipeline(parseDebugFlags(ctx)), opts)
	if err != nil {
		return err
	}
	defer r.Close()

	frames := ctx.Int("frames")
	if frames < 1 {
		frames = 1
	}

	// An interrupt stops accumulating but still writes out whatever has
	// been gathered up to that frame.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer signal.Stop(sigChan)

	logger.Noticef("rendering %d frame(s) at %dx%d", frames, opts.FrameW, opts.FrameH)
	start := time.Now()
renderLoop:
	for i := 0; i < frames; i++ {
		if err = r.Render(); err != nil {
			return err
		}

		select {
		case <-sigChan:
			logger.Warningf("interrupted after %d of %d frame(s); saving partial accumulation", i+1, frames)
			break renderLoop
		default:
		}
	}
	logger.Noticef("rendered scene in %d ms", time.Since(start).Nanoseconds()/1e6)

	// Display stats
	displayFrameStats(r.Stats())

	return saveFramebuffer(ctx.String("out"), r.Framebuffer(), opts.FrameW, opts.FrameH)
}

// Render an interactive view of the scene. The command blocks until the
// window is closed.
func RenderInteractive(ctx *cli.Context) error {
	setupLogging(ctx)

	sc, err := loadScene(ctx)
	if err != nil {
		return err
	}

	opts := parseRenderOptions(ctx)

	r, err := renderer.NewInteractive(sc, tracer.PerfectScheduler(), cpu.DefaultPipeline(parseDebugFlags(ctx)), opts)
	if err != nil {
		return err
	}
	defer r.Close()

	return r.Render()
}

// Map the debug flag names to pipeline debug flags.
func parseDebugFlags(ctx *cli.Context) cpu.DebugFlag {
	flags := cpu.Off
	for _, name := range ctx.StringSlice("debug") {
		switch name {
		case "raster-depth":
			flags |= cpu.RasterDepth
		case "raster-color":
			flags |= cpu.RasterColor
		case "raw-samples":
			flags |= cpu.RawSamples
		case "accumulator":
			flags |= cpu.Accumulator
		case "framebuffer":
			flags |= cpu.FrameBuffer
		default:
			logger.Warningf("ignoring unknown debug flag %q", name)
		}
	}

	// The debug stages dump the full frame once per traced block.
	if flags != cpu.Off && ctx.Int("tracers") != 1 {
		logger.Warning("debug dumps from concurrent tracers overwrite each other; use --tracers 1 for stable output")
	}

	return flags
}

// Encode the tone-mapped framebuffer contents as a png image.
func saveFramebuffer(imgFile string, fb []uint8, frameW, frameH uint32) error {
	f, err := os.Create(imgFile)
	if err != nil {
		return err
	}
	defer f.Close()

	im := image.NewRGBA(image.Rect(0, 0, int(frameW), int(frameH)))
	copy(im.Pix, fb)
	if err = png.Encode(f, im); err != nil {
		return err
	}

	logger.Noticef("wrote frame to %s", imgFile)
	return nil
}

func displayFrameStats(stats renderer.FrameStats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Tracer", "Primary", "Block height", "% of frame", "Render time", "Update time"})
	for _, stat := range stats.Tracers {
		table.Append([]string{
			stat.Id,
			fmt.Sprintf("%t", stat.IsPrimary),
			fmt.Sprintf("%d", stat.BlockH),
			fmt.Sprintf("%02.1f %%", stat.FramePercent),
			fmt.Sprintf("%s", stat.RenderTime),
			fmt.Sprintf("%s", stat.UpdateTime),
		})
	}
	table.SetFooter([]string{"", "", "", "", "TOTAL", fmt.Sprintf("%s", stats.RenderTime)})

	table.Render()
	logger.Noticef("frame statistics\n%s", buf.String())
}
