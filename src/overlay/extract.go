package overlay

import (
	"context"
	"fmt"
	"image"

	"github.com/facebookincubator/go-belt/tool/logger"

	"region-capture/src/screenshot"
)

// captureWindow reads back the whole of window i.
func (sess *session) captureWindow(ctx context.Context, i int) (*Result, error) {
	var w, h int
	sess.call(func() { w, h = sess.windows[i].Size() })
	return sess.extract(ctx, i, image.Rect(0, 0, w, h))
}

// extract re-renders window i undecorated and reads rect back from its
// framebuffer. rect is in window coordinates with a top-left origin.
func (sess *session) extract(ctx context.Context, i int, rect image.Rectangle) (*Result, error) {
	logger.Debugf(ctx, "extract: window %d, rect %v", i, rect)
	defer logger.Debugf(ctx, "/extract")

	width, height := rect.Dx(), rect.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: empty region %v", ErrInvalidDisplay, rect)
	}

	var pix []byte
	sess.call(func() {
		sess.drawWindow(i, false)
		_, fbHeight := sess.windows[i].FramebufferSize()
		glY := fbHeight - (rect.Min.Y + height)
		pix = sess.renderer().ReadPixels(rect.Min.X, glY, width, height)
	})
	if len(pix) != width*height*screenshot.BytesPerPixel {
		return nil, fmt.Errorf("framebuffer read back %d bytes, expected %d", len(pix), width*height*screenshot.BytesPerPixel)
	}
	screenshot.FlipRows(pix, width*screenshot.BytesPerPixel)

	return &Result{
		Coordinate:   screenshot.Coordinate{X: int32(rect.Min.X), Y: int32(rect.Min.Y)},
		Width:        width,
		Height:       height,
		DisplayIndex: i,
		RGBA:         pix,
	}, nil
}
