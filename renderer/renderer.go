package renderer

type Renderer interface {
	// Render frame.
	Render() error

	// Get the tone-mapped RGBA framebuffer for the last rendered frame.
	Framebuffer() []uint8

	// Shutdown renderer and any attached tracers.
	Close()

	// Get render statistics.
	Stats() FrameStats
}
