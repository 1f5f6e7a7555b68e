// Package overlay implements the full-screen region selector: one overlay
// window per display showing a frozen screenshot, an input loop waiting for
// a confirm or cancel gesture, and a framebuffer read-back of the chosen
// region.
package overlay

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"

	"region-capture/src/mainthread"
	"region-capture/src/screenshot"
)

var (
	ErrDisplayCountMismatch = errors.New("monitor count does not match display count")
	ErrMonitorNotFound      = errors.New("no monitor at display coordinate")
	ErrInit                 = errors.New("unable to initialise the windowing system")
	ErrWindowCreate         = errors.New("unable to create overlay window")
	ErrAlreadyOpen          = errors.New("region selector is already open")
	ErrInvalidDisplay       = errors.New("invalid display")
)

// DefaultFrameInterval caps the selector loop at 120 Hz.
const DefaultFrameInterval = time.Second / 120

// Result is the confirmed region. RGBA is owned by the caller.
type Result struct {
	Coordinate   screenshot.Coordinate
	Width        int
	Height       int
	DisplayIndex int
	RGBA         []byte
}

// Decorator draws selection UI over a window. It is skipped for the frame
// that precedes a read-back.
type Decorator func(displayIndex int, r Renderer, width, height int)

type Option func(*Selector)

// WithFrameInterval sets how long the loop sleeps between iterations.
func WithFrameInterval(d time.Duration) Option {
	return func(s *Selector) {
		if d >= 0 {
			s.frameInterval = d
		}
	}
}

// WithFragments registers fragment programs for future tools.
func WithFragments(fragments ...Fragment) Option {
	return func(s *Selector) {
		s.fragments = append(s.fragments, fragments...)
	}
}

func WithDecorator(d Decorator) Option {
	return func(s *Selector) {
		s.decorator = d
	}
}

// Selector runs region selection sessions. Only one session may be open at
// a time per Selector.
type Selector struct {
	backend       Backend
	dispatcher    mainthread.Dispatcher
	frameInterval time.Duration
	fragments     []Fragment
	decorator     Decorator
	opened        atomic.Bool
}

// New returns a Selector driving backend through dispatcher.
func New(backend Backend, dispatcher mainthread.Dispatcher, opts ...Option) *Selector {
	s := &Selector{
		backend:       backend,
		dispatcher:    dispatcher,
		frameInterval: DefaultFrameInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fragments returns a copy of the registered fragment programs.
func (s *Selector) Fragments() []Fragment {
	return append([]Fragment(nil), s.fragments...)
}

// Open shows the overlay on every display and blocks until the user
// confirms or cancels. A cancelled session returns (nil, nil).
func (s *Selector) Open(ctx context.Context, displays []screenshot.Display, showEditors bool) (_ *Result, _err error) {
	logger.Debugf(ctx, "Open: %d displays", len(displays))
	defer func() { logger.Debugf(ctx, "/Open: %v", _err) }()

	if !s.opened.CompareAndSwap(false, true) {
		return nil, ErrAlreadyOpen
	}
	defer s.opened.Store(false)

	if err := validateDisplays(displays); err != nil {
		return nil, err
	}

	sess := &session{
		selector:    s,
		displays:    displays,
		showEditors: showEditors,
	}

	var initErr error
	s.dispatcher.Call(func() { initErr = s.backend.Init() })
	if initErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrInit, initErr)
	}
	defer sess.teardown(ctx)

	if err := sess.createWindows(ctx); err != nil {
		logger.Errorf(ctx, "unable to create the overlay windows: %v", err)
		return nil, err
	}

	return sess.run(ctx)
}

func validateDisplays(displays []screenshot.Display) error {
	if len(displays) == 0 {
		return fmt.Errorf("%w: no displays", ErrInvalidDisplay)
	}
	for i, d := range displays {
		if d.Screenshot == nil {
			return fmt.Errorf("%w: display %d has no screenshot", ErrInvalidDisplay, i)
		}
		if err := d.Screenshot.Validate(); err != nil {
			return fmt.Errorf("%w: display %d: %v", ErrInvalidDisplay, i, err)
		}
	}
	return nil
}

// session is the state of one Open call.
type session struct {
	selector    *Selector
	displays    []screenshot.Display
	monitors    []Monitor
	windows     []Window
	activeTool  int
	showEditors bool
}

func (sess *session) call(fn func()) {
	sess.selector.dispatcher.Call(fn)
}

func (sess *session) renderer() Renderer {
	return sess.selector.backend.Renderer()
}
