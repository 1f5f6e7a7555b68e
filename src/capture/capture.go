// Package capture samples arbitrary desktop rectangles on demand, with the
// system cursor composited in. It is the live-capture path used for
// recording and is independent of the overlay selector.
package capture

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/hashicorp/go-multierror"
)

var (
	ErrUnreachable       = errors.New("display server is unreachable")
	ErrImageRead         = errors.New("unable to read screen image")
	ErrInvalidRegion     = errors.New("invalid capture region")
	ErrClosed            = errors.New("capture context is closed")
	ErrUnsupportedFormat = errors.New("unsupported native pixel format")
)

// platform is implemented once per OS, selected at build time.
type platform interface {
	// readImage returns w*h packed RGBA pixels with opaque alpha.
	readImage(x, y, w, h int) ([]byte, error)
	// cursor returns the current cursor image, or nil when the platform
	// cannot provide one.
	cursor() (*Cursor, error)
	close() error
}

var openPlatform = openNative

// Context is an open connection to the display server. Samples on one
// Context are serialized.
type Context struct {
	mu       sync.Mutex
	platform platform
	closed   bool
}

// Open connects to the display server.
func Open() (*Context, error) {
	p, err := openPlatform()
	if err != nil {
		return nil, err
	}
	return &Context{platform: p}, nil
}

// Sample reads the rectangle [x,x+w)×[y,y+h) in desktop coordinates and
// returns a freshly allocated buffer of exactly w*h*4 RGBA bytes.
func (c *Context) Sample(x, y, w, h int) ([]byte, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: width=%d, height=%d", ErrInvalidRegion, w, h)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}

	pix, err := c.platform.readImage(x, y, w, h)
	if err != nil {
		return nil, fmt.Errorf("%w at (%d,%d) %dx%d: %v", ErrImageRead, x, y, w, h, err)
	}
	if len(pix) != w*h*4 {
		return nil, fmt.Errorf("%w: got %d bytes for %dx%d", ErrImageRead, len(pix), w, h)
	}

	// The cursor is best effort: a missing cursor image never fails the sample.
	if cur, err := c.platform.cursor(); err == nil && cur != nil {
		CompositeCursor(pix, image.Rect(x, y, x+w, y+h), cur)
	}
	return pix, nil
}

// Close releases the connection. Closing twice is a no-op.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.platform.close()
}

// Shared reuses one Context across the consecutive samples of a recording
// session and closes it exactly once.
type Shared struct {
	mu   sync.Mutex
	open func() (*Context, error)
	ctx  *Context
}

// NewShared returns a Shared that opens its Context on the first sample.
func NewShared() *Shared {
	return &Shared{open: Open}
}

// Sample samples through the shared Context, opening it if needed. When
// isLast is true the Context is closed after the sample; a close failure is
// reported alongside a still valid buffer.
func (s *Shared) Sample(x, y, w, h int, isLast bool) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx == nil {
		c, err := s.open()
		if err != nil {
			return nil, fmt.Errorf("unable to open a capture context: %w", err)
		}
		s.ctx = c
	}

	pix, err := s.ctx.Sample(x, y, w, h)
	if !isLast {
		return pix, err
	}

	if closeErr := s.closeLocked(); closeErr != nil {
		if err != nil {
			return nil, multierror.Append(err, closeErr)
		}
		return pix, closeErr
	}
	return pix, err
}

// Close releases the shared Context if one is open.
func (s *Shared) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *Shared) closeLocked() error {
	if s.ctx == nil {
		return nil
	}
	c := s.ctx
	s.ctx = nil
	if err := c.Close(); err != nil {
		return fmt.Errorf("unable to close the capture context: %w", err)
	}
	return nil
}
