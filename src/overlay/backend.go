package overlay

import "region-capture/src/screenshot"

// Key identifies the keys the selector listens to.
type Key int

const (
	KeyEscape Key = iota
	KeyF
)

// Monitor is a connected monitor as reported by the windowing system.
type Monitor interface {
	Name() string
	// Position is the monitor origin in desktop coordinates.
	Position() (x, y int)
	// VideoMode is the current mode size in pixels.
	VideoMode() (width, height int)
}

// Window is one overlay window. Every method must be called on the thread
// owning the windowing system.
type Window interface {
	MakeContextCurrent()
	Size() (width, height int)
	FramebufferSize() (width, height int)
	ShouldClose() bool
	KeyPressed(Key) bool
	SwapBuffers()
	Destroy()
}

// Texture is a renderer-owned texture handle.
type Texture uint32

// Renderer issues drawing commands against the current context.
type Renderer interface {
	Viewport(width, height int)
	// Ortho maps (0,0) to the top-left and (width,height) to the
	// bottom-right corner.
	Ortho(width, height int)
	SetTexturing(enabled bool)
	UploadTexture(shot *screenshot.Screenshot) Texture
	DrawQuad(tex Texture, width, height int)
	DeleteTexture(tex Texture)
	Flush()
	// ReadPixels reads RGBA from the current framebuffer. y is measured
	// from the bottom edge.
	ReadPixels(x, y, width, height int) []byte
}

// Backend is the windowing system plus the renderer bound to it.
type Backend interface {
	Init() error
	Terminate()
	Monitors() ([]Monitor, error)
	CreateWindow(monitor Monitor, title string) (Window, error)
	PollEvents()
	Renderer() Renderer
}
