// Package glfwbackend implements the overlay backend with GLFW windows and
// a fixed-function OpenGL 2.1 renderer. All methods must run on the thread
// that called Init, normally through a mainthread.Dispatcher.
package glfwbackend

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/go-gl/gl/v2.1/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"region-capture/src/overlay"
)

type Backend struct {
	ctx      context.Context
	renderer *renderer
	promoter promoter
	glReady  bool
}

var _ overlay.Backend = (*Backend)(nil)

// New returns a Backend logging through ctx.
func New(ctx context.Context) *Backend {
	return &Backend{ctx: ctx, renderer: &renderer{}}
}

func (b *Backend) Init() error {
	logger.Debugf(b.ctx, "Init")
	defer logger.Debugf(b.ctx, "/Init")

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("unable to initialise GLFW: %w", err)
	}
	p, err := newPromoter()
	if err != nil {
		logger.Warnf(b.ctx, "overlay windows will rely on GLFW hints only: %v", err)
	}
	b.promoter = p
	return nil
}

func (b *Backend) Terminate() {
	logger.Debugf(b.ctx, "Terminate")
	defer logger.Debugf(b.ctx, "/Terminate")

	if b.promoter != nil {
		b.promoter.close()
		b.promoter = nil
	}
	b.glReady = false
	glfw.Terminate()
}

func (b *Backend) Monitors() ([]overlay.Monitor, error) {
	glfwMonitors := glfw.GetMonitors()
	monitors := make([]overlay.Monitor, 0, len(glfwMonitors))
	for _, m := range glfwMonitors {
		monitors = append(monitors, monitor{m})
	}
	return monitors, nil
}

func (b *Backend) CreateWindow(m overlay.Monitor, title string) (overlay.Window, error) {
	mon, ok := m.(monitor)
	if !ok {
		return nil, fmt.Errorf("monitor %q was not enumerated by GLFW", m.Name())
	}
	mode := mon.GetVideoMode()
	if mode == nil {
		return nil, fmt.Errorf("monitor %q has no video mode", m.Name())
	}

	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.Decorated, glfw.False)
	glfw.WindowHint(glfw.Floating, glfw.True)
	glfw.WindowHint(glfw.Maximized, glfw.True)
	glfw.WindowHint(glfw.Focused, glfw.True)
	glfw.WindowHint(glfw.FocusOnShow, glfw.True)
	glfw.WindowHint(glfw.AutoIconify, glfw.False)
	glfw.WindowHint(glfw.CenterCursor, glfw.False)
	glfw.WindowHint(glfw.ScaleToMonitor, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 2)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)

	win, err := glfw.CreateWindow(mode.Width, mode.Height, title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to create a %dx%d window: %w", mode.Width, mode.Height, err)
	}
	win.MakeContextCurrent()
	if !b.glReady {
		if err := gl.Init(); err != nil {
			win.Destroy()
			return nil, fmt.Errorf("unable to load OpenGL: %w", err)
		}
		b.glReady = true
	}

	if b.promoter != nil {
		if err := b.promoter.beforeShow(win); err != nil {
			logger.Warnf(b.ctx, "unable to prepare window %q as an overlay: %v", title, err)
		}
	}
	x, y := mon.GetPos()
	win.SetMonitor(mon.Monitor, x, y, mode.Width, mode.Height, mode.RefreshRate)
	win.Show()
	if b.promoter != nil {
		if err := b.promoter.afterShow(win); err != nil {
			logger.Warnf(b.ctx, "unable to raise window %q: %v", title, err)
		}
	}
	win.Focus()

	return &window{win}, nil
}

func (b *Backend) PollEvents() {
	glfw.PollEvents()
}

func (b *Backend) Renderer() overlay.Renderer {
	return b.renderer
}

type monitor struct {
	*glfw.Monitor
}

func (m monitor) Name() string {
	return m.GetName()
}

func (m monitor) Position() (int, int) {
	return m.GetPos()
}

func (m monitor) VideoMode() (int, int) {
	mode := m.GetVideoMode()
	if mode == nil {
		return 0, 0
	}
	return mode.Width, mode.Height
}

type window struct {
	*glfw.Window
}

func (w *window) Size() (int, int) {
	return w.GetSize()
}

func (w *window) FramebufferSize() (int, int) {
	return w.GetFramebufferSize()
}

func (w *window) KeyPressed(k overlay.Key) bool {
	var key glfw.Key
	switch k {
	case overlay.KeyEscape:
		key = glfw.KeyEscape
	case overlay.KeyF:
		key = glfw.KeyF
	default:
		return false
	}
	return w.GetKey(key) == glfw.Press
}
