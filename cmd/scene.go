package cmd

import (
	"errors"

	"github.com/urfave/cli"

	"github.com/glintrt/glint/asset/reader"
	"github.com/glintrt/glint/renderer"
	"github.com/glintrt/glint/scene"
)

// Load the scene named by the first command argument. The argument is
// either one of the built-in preset names or a path/url to a wavefront
// object file.
func loadScene(ctx *cli.Context) (*scene.Scene, error) {
	if ctx.NArg() != 1 {
		return nil, errors.New("missing scene argument; expected a preset name or a path to an .obj file")
	}

	name := ctx.Args().First()
	if sc := scene.Preset(name); sc != nil {
		logger.Noticef("using built-in scene %q", name)
		return sc, nil
	}

	return reader.ReadScene(name)
}

// Map the flag set shared by the render and bench commands to renderer
// options.
func parseRenderOptions(ctx *cli.Context) renderer.Options {
	return renderer.Options{
		FrameW:          uint32(ctx.Int("width")),
		FrameH:          uint32(ctx.Int("height")),
		SamplesPerPixel: uint32(ctx.Int("spp")),
		MaxSamples:      uint32(ctx.Int("max-samples")),
		Exposure:        float32(ctx.Float64("exposure")),
		NumTracers:      ctx.Int("tracers"),
		// Depth 1 casts primary paths only; each requested bounce extends
		// the path by one scatter.
		RayDepth:          uint32(ctx.Int("num-bounces")) + 1,
		EnableCulling:     ctx.Bool("culling"),
		EnableReflections: ctx.Bool("reflections"),
		EnableDirectLight: !ctx.Bool("no-direct-light"),
		EnableShadows:     !ctx.Bool("no-shadows"),
	}
}
