package renderer

import "errors"

var (
	// No tracers are attached; the renderer was closed or never finished
	// initializing.
	ErrNoTracers = errors.New("renderer: no tracers attached")

	// The scene or its camera are missing.
	ErrSceneNotDefined  = errors.New("renderer: no scene defined")
	ErrCameraNotDefined = errors.New("renderer: no camera defined")

	// A render loop was cut short by an interrupt signal.
	ErrInterrupted = errors.New("renderer: interrupted while rendering")
)
