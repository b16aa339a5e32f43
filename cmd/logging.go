package cmd

import (
	"github.com/urfave/cli"

	"github.com/glintrt/glint/log"
)

var logger = log.New("glint")

// Apply the global verbosity flags to the log package.
func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}
