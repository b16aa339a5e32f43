package main

import (
	"os"

	"github.com/urfave/cli"

	"github.com/glintrt/glint/cmd"
	"github.com/glintrt/glint/log"
)

var logger = log.New("glint")

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "glint"
	app.Usage = "hybrid path tracer with temporal denoising"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render a scene",
			Subcommands: []cli.Command{
				{
					Name:  "frame",
					Usage: "render a still frame to a png file",
					Description: `
Render the scene into an accumulated still frame and save it as a png image.

The scene argument is either the name of a built-in scene (cornell, minimal)
or a path/url to a wavefront obj file.`,
					ArgsUsage: "scene",
					Flags: append(renderFlags(),
						cli.IntFlag{
							Name:  "frames",
							Value: 16,
							Usage: "frames to accumulate before saving",
						},
						cli.StringFlag{
							Name:  "out, o",
							Value: "frame.png",
							Usage: "image filename for the rendered frame",
						},
						debugFlag(),
					),
					Action: cmd.RenderFrame,
				},
				{
					Name:  "interactive",
					Usage: "render an interactive view of the scene",
					Description: `
Open a window displaying a continuously updated view of the scene.

WASD or the arrow keys move the camera and dragging with the left mouse
button rotates it; camera changes restart the accumulation.`,
					ArgsUsage: "scene",
					Flags: append(renderFlags(),
						cli.IntFlag{
							Name:  "max-samples",
							Value: 0,
							Usage: "pause tracing after accumulating this many static frames (0: never pause)",
						},
						debugFlag(),
					),
					Action: cmd.RenderInteractive,
				},
			},
		},
		{
			Name:      "bench",
			Usage:     "benchmark the renderer over a fixed number of frames",
			ArgsUsage: "scene",
			Flags: append(renderFlags(),
				cli.IntFlag{
					Name:  "frames",
					Value: 100,
					Usage: "number of frames to render",
				},
			),
			Action: cmd.Bench,
		},
		{
			Name:   "info",
			Usage:  "print a report of the host resources available for rendering",
			Action: cmd.Info,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

// The flag set shared by the render and bench commands.
func renderFlags() []cli.Flag {
	return []cli.Flag{
		cli.IntFlag{
			Name:  "width",
			Value: 512,
			Usage: "frame width",
		},
		cli.IntFlag{
			Name:  "height",
			Value: 512,
			Usage: "frame height",
		},
		cli.IntFlag{
			Name:  "spp",
			Value: 1,
			Usage: "samples per pixel per frame (clamped to 1-8)",
		},
		cli.IntFlag{
			Name:  "num-bounces",
			Value: 1,
			Usage: "indirect bounces per path (0 disables global illumination)",
		},
		cli.Float64Flag{
			Name:  "exposure",
			Value: 1.0,
			Usage: "camera exposure for tone-mapping",
		},
		cli.IntFlag{
			Name:  "tracers",
			Value: 0,
			Usage: "number of cpu tracers to attach (0: one per logical core)",
		},
		cli.BoolFlag{
			Name:  "culling",
			Usage: "cull geometry outside the view frustum when snapshots are rebuilt",
		},
		cli.BoolFlag{
			Name:  "reflections",
			Usage: "relax far-plane culling so off-screen geometry stays visible to bounce rays",
		},
		cli.BoolFlag{
			Name:  "no-direct-light",
			Usage: "disable direct lighting",
		},
		cli.BoolFlag{
			Name:  "no-shadows",
			Usage: "disable shadow rays",
		},
	}
}

func debugFlag() cli.Flag {
	return cli.StringSliceFlag{
		Name:  "debug",
		Value: &cli.StringSlice{},
		Usage: "dump debug images for a pipeline stage (raster-depth, raster-color, raw-samples, accumulator, framebuffer)",
	}
}
