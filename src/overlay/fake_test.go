package overlay

import (
	"errors"
	"fmt"
	"sync"

	"region-capture/src/screenshot"
)

// checkedDispatcher runs calls inline and records whether the backend was
// touched outside of a dispatched call.
type checkedDispatcher struct {
	mu     sync.Mutex
	inCall bool
	calls  int
}

func (d *checkedDispatcher) Call(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inCall = true
	d.calls++
	defer func() { d.inCall = false }()
	fn()
}

type fakeMonitor struct {
	name          string
	x, y          int
	width, height int
}

func (m *fakeMonitor) Name() string          { return m.name }
func (m *fakeMonitor) Position() (int, int)  { return m.x, m.y }
func (m *fakeMonitor) VideoMode() (int, int) { return m.width, m.height }

type fakeWindow struct {
	backend *fakeBackend
	monitor *fakeMonitor
	index   int

	closeAfter  int
	escapeAfter int
	fAfter      int
	// fbScale is the framebuffer pixels per window pixel; 0 means 1.
	fbScale int

	swaps     int
	destroyed bool
}

func (w *fakeWindow) MakeContextCurrent() {
	w.backend.touch()
	w.backend.current = w
}

func (w *fakeWindow) Size() (int, int) {
	w.backend.touch()
	return w.monitor.width, w.monitor.height
}

func (w *fakeWindow) FramebufferSize() (int, int) {
	w.backend.touch()
	return w.monitor.width * w.scale(), w.monitor.height * w.scale()
}

func (w *fakeWindow) scale() int {
	if w.fbScale <= 0 {
		return 1
	}
	return w.fbScale
}

// fbPixel returns the framebuffer pixel at (fx, fy), top-left origin. The
// screenshot is stretched over the whole framebuffer.
func (w *fakeWindow) fbPixel(fx, fy int) []byte {
	shot := w.backend.shots[w.index]
	off := ((fy/w.scale())*shot.Width + fx/w.scale()) * screenshot.BytesPerPixel
	return shot.Pix[off : off+screenshot.BytesPerPixel]
}

func triggered(after, polls int) bool {
	return after > 0 && polls >= after
}

func (w *fakeWindow) ShouldClose() bool {
	w.backend.touch()
	return triggered(w.closeAfter, w.backend.polls)
}

func (w *fakeWindow) KeyPressed(k Key) bool {
	w.backend.touch()
	switch k {
	case KeyEscape:
		return triggered(w.escapeAfter, w.backend.polls)
	case KeyF:
		return triggered(w.fAfter, w.backend.polls)
	}
	return false
}

func (w *fakeWindow) SwapBuffers() {
	w.backend.touch()
	w.swaps++
}

func (w *fakeWindow) Destroy() {
	w.backend.touch()
	if !w.destroyed {
		w.destroyed = true
		w.backend.live--
	}
}

type fakeBackend struct {
	dispatcher *checkedDispatcher
	monitors   []*fakeMonitor
	// keys configures the window created on monitor name.
	keys      map[string]func(*fakeWindow)
	failOn    int
	initErr   error
	offThread int

	initialised bool
	terminated  int
	polls       int
	live        int
	created     []*fakeWindow
	current     *fakeWindow
	renderer    *fakeRenderer
	// shots are the screenshots in window creation order.
	shots []*screenshot.Screenshot
}

func newFakeBackend(d *checkedDispatcher, monitors ...*fakeMonitor) *fakeBackend {
	b := &fakeBackend{
		dispatcher: d,
		monitors:   monitors,
		keys:       map[string]func(*fakeWindow){},
		failOn:     -1,
	}
	b.renderer = &fakeRenderer{backend: b}
	return b
}

func (b *fakeBackend) touch() {
	if !b.dispatcher.inCall {
		b.offThread++
	}
}

func (b *fakeBackend) Init() error {
	b.touch()
	if b.initErr != nil {
		return b.initErr
	}
	b.initialised = true
	return nil
}

func (b *fakeBackend) Terminate() {
	b.touch()
	b.initialised = false
	b.terminated++
}

func (b *fakeBackend) Monitors() ([]Monitor, error) {
	b.touch()
	result := make([]Monitor, 0, len(b.monitors))
	for _, m := range b.monitors {
		result = append(result, m)
	}
	return result, nil
}

func (b *fakeBackend) CreateWindow(m Monitor, title string) (Window, error) {
	b.touch()
	if len(b.created) == b.failOn {
		return nil, errors.New("context creation failed")
	}
	fm := m.(*fakeMonitor)
	w := &fakeWindow{backend: b, monitor: fm, index: len(b.created)}
	if configure, ok := b.keys[fm.name]; ok {
		configure(w)
	}
	b.created = append(b.created, w)
	b.live++
	return w, nil
}

func (b *fakeBackend) PollEvents() {
	b.touch()
	b.polls++
}

func (b *fakeBackend) Renderer() Renderer {
	return b.renderer
}

type fakeRenderer struct {
	backend   *fakeBackend
	nextTex   Texture
	live      map[Texture]*screenshot.Screenshot
	texturing bool
	draws     []int
	reads     []readCall
	enables   int
	disables  int
}

type readCall struct {
	window              int
	x, y, width, height int
}

func (r *fakeRenderer) Viewport(width, height int) { r.backend.touch() }
func (r *fakeRenderer) Ortho(width, height int)    { r.backend.touch() }
func (r *fakeRenderer) Flush()                     { r.backend.touch() }

func (r *fakeRenderer) SetTexturing(enabled bool) {
	r.backend.touch()
	r.texturing = enabled
	if enabled {
		r.enables++
	} else {
		r.disables++
	}
}

func (r *fakeRenderer) UploadTexture(shot *screenshot.Screenshot) Texture {
	r.backend.touch()
	if r.live == nil {
		r.live = map[Texture]*screenshot.Screenshot{}
	}
	r.nextTex++
	r.live[r.nextTex] = shot
	return r.nextTex
}

func (r *fakeRenderer) DrawQuad(tex Texture, width, height int) {
	r.backend.touch()
	if !r.texturing {
		panic("quad drawn with texturing disabled")
	}
	if _, ok := r.live[tex]; !ok {
		panic(fmt.Sprintf("unknown texture %d", tex))
	}
	r.draws = append(r.draws, r.backend.current.index)
}

func (r *fakeRenderer) DeleteTexture(tex Texture) {
	r.backend.touch()
	delete(r.live, tex)
}

// ReadPixels returns the current window's screenshot rows bottom-up, the
// way a GL framebuffer is laid out.
func (r *fakeRenderer) ReadPixels(x, y, width, height int) []byte {
	r.backend.touch()
	w := r.backend.current
	r.reads = append(r.reads, readCall{window: w.index, x: x, y: y, width: width, height: height})

	fbHeight := w.monitor.height * w.scale()
	pix := make([]byte, 0, width*height*screenshot.BytesPerPixel)
	for row := 0; row < height; row++ {
		fy := fbHeight - 1 - (y + row)
		for col := 0; col < width; col++ {
			pix = append(pix, w.fbPixel(x+col, fy)...)
		}
	}
	return pix
}
