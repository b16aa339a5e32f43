package cpu

import "errors"

var (
	ErrNotInitialized    = errors.New("cpu tracer: tracer not initialized")
	ErrNoFrameBuffers    = errors.New("cpu tracer: no frame buffers attached")
	ErrNoGeometryData    = errors.New("cpu tracer: no geometry snapshot attached")
	ErrNoCameraData      = errors.New("cpu tracer: no camera data attached")
	ErrUnsupportedUpdate = errors.New("cpu tracer: unsupported update type")
	ErrInvalidPayload    = errors.New("cpu tracer: invalid update payload")
)
