package renderer

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/glintrt/glint/scene"
	"github.com/glintrt/glint/tracer"
	"github.com/glintrt/glint/tracer/cpu"
	"github.com/glintrt/glint/types"
)

const (
	// Coefficients for converting delta cursor movements to yaw/pitch camera angles.
	mouseSensitivityX float32 = 0.005
	mouseSensitivityY float32 = 0.005

	// Camera movement speed
	cameraMoveSpeed float32 = 0.05
)

// An interactive windowed renderer. Keyboard input moves the camera,
// dragging with the left mouse button rotates it; both register as
// camera digest changes and restart the accumulation.
type interactiveRenderer struct {
	*defaultRenderer

	camera *scene.Camera

	lastCursorPos types.Vec2
	rotating      bool
}

// Create a new interactive windowed renderer using the specified block
// scheduler and tracing pipeline.
func NewInteractive(sc *scene.Scene, scheduler tracer.BlockScheduler, pipeline *cpu.Pipeline, opts Options) (Renderer, error) {
	base, err := NewDefault(sc, scheduler, pipeline, opts)
	if err != nil {
		return nil, err
	}

	return &interactiveRenderer{
		defaultRenderer: base.(*defaultRenderer),
		camera:          sc.Camera,
	}, nil
}

// Run the window loop. Blocks until the window closes or a frame fails.
func (r *interactiveRenderer) Render() error {
	ebiten.SetWindowSize(int(r.options.FrameW), int(r.options.FrameH))
	ebiten.SetWindowTitle("glint")
	ebiten.SetTPS(ebiten.SyncWithFPS)

	if err := ebiten.RunGame(r); err != nil && err != ebiten.Termination {
		return err
	}
	return nil
}

// Advance the render loop by one frame. Skips tracing once a static
// scene has accumulated the target sample count.
func (r *interactiveRenderer) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	r.handleInput()

	if err := r.syncSceneChanges(); err != nil {
		return err
	}
	if r.options.MaxSamples != 0 && r.frameIndex >= r.options.MaxSamples {
		return nil
	}

	return r.renderFrame()
}

// Present the tone-mapped framebuffer.
func (r *interactiveRenderer) Draw(screen *ebiten.Image) {
	screen.WritePixels(r.Framebuffer())
}

func (r *interactiveRenderer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return int(r.options.FrameW), int(r.options.FrameH)
}

func (r *interactiveRenderer) handleInput() {
	// Double speed if shift is pressed
	var speedScaler float32 = 1.0
	if ebiten.IsKeyPressed(ebiten.KeyShiftLeft) || ebiten.IsKeyPressed(ebiten.KeyShiftRight) {
		speedScaler = 2.0
	}

	type moveBinding struct {
		keys []ebiten.Key
		dir  scene.CameraDirection
	}
	bindings := []moveBinding{
		{[]ebiten.Key{ebiten.KeyArrowUp, ebiten.KeyW}, scene.Forward},
		{[]ebiten.Key{ebiten.KeyArrowDown, ebiten.KeyS}, scene.Backward},
		{[]ebiten.Key{ebiten.KeyArrowLeft, ebiten.KeyA}, scene.Left},
		{[]ebiten.Key{ebiten.KeyArrowRight, ebiten.KeyD}, scene.Right},
	}
	for _, binding := range bindings {
		for _, key := range binding.keys {
			if ebiten.IsKeyPressed(key) {
				r.camera.Move(binding.dir, speedScaler*cameraMoveSpeed)
				break
			}
		}
	}

	if !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		r.rotating = false
		return
	}

	xPos, yPos := ebiten.CursorPosition()
	newPos := types.Vec2{float32(xPos), float32(yPos)}

	if r.rotating {
		// The left mouse button rotates lookat around eye
		delta := r.lastCursorPos.Sub(newPos)
		if delta[0] != 0 || delta[1] != 0 {
			r.camera.Pitch = delta[1] * mouseSensitivityY
			r.camera.Yaw = delta[0] * mouseSensitivityX
			r.camera.Update()
		}
	}

	r.lastCursorPos = newPos
	r.rotating = true
}
