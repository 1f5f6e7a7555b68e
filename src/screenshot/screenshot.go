package screenshot

import (
	"context"
	"fmt"
	"image"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/kbinani/screenshot"
	"golang.org/x/sync/errgroup"
)

// BytesPerPixel is the size of one packed RGBA pixel.
const BytesPerPixel = 4

// Coordinate is a point in the global desktop space, top-left origin.
type Coordinate struct {
	X int32
	Y int32
}

// Screenshot is a packed RGBA pixel buffer, row-major, top row first.
type Screenshot struct {
	Width  int
	Height int
	Pix    []byte
}

// Display pairs a monitor origin with the frozen screenshot of that monitor.
type Display struct {
	Coordinate Coordinate
	Screenshot *Screenshot
}

// FromImage copies img into a tightly packed Screenshot.
func FromImage(img *image.RGBA) *Screenshot {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	rowBytes := w * BytesPerPixel
	pix := make([]byte, rowBytes*h)
	for y := 0; y < h; y++ {
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(pix[y*rowBytes:(y+1)*rowBytes], img.Pix[off:off+rowBytes])
	}
	return &Screenshot{Width: w, Height: h, Pix: pix}
}

// Image wraps the buffer as an *image.RGBA without copying.
func (s *Screenshot) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    s.Pix,
		Stride: s.Width * BytesPerPixel,
		Rect:   image.Rect(0, 0, s.Width, s.Height),
	}
}

// Validate returns an error if the buffer length does not match the dimensions.
func (s *Screenshot) Validate() error {
	if s == nil {
		return fmt.Errorf("screenshot is nil")
	}
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("invalid screenshot dimensions: width=%d, height=%d", s.Width, s.Height)
	}
	if want := s.Width * s.Height * BytesPerPixel; len(s.Pix) != want {
		return fmt.Errorf("screenshot buffer is %d bytes, expected %d for %dx%d", len(s.Pix), want, s.Width, s.Height)
	}
	return nil
}

// FlipRows reverses the row order of buf in place. rowBytes is the width of
// one row in bytes. Applying it twice restores the original layout.
func FlipRows(buf []byte, rowBytes int) {
	if rowBytes <= 0 {
		return
	}
	rows := len(buf) / rowBytes
	tmp := make([]byte, rowBytes)
	for i := 0; i < rows/2; i++ {
		j := rows - 1 - i
		top := buf[i*rowBytes : (i+1)*rowBytes]
		bottom := buf[j*rowBytes : (j+1)*rowBytes]
		copy(tmp, top)
		copy(top, bottom)
		copy(bottom, tmp)
	}
}

// Source enumerates and captures the connected displays.
type Source interface {
	NumActiveDisplays() int
	DisplayBounds(displayIndex int) image.Rectangle
	CaptureRect(bounds image.Rectangle) (*image.RGBA, error)
}

// Implementation is the Source backed by github.com/kbinani/screenshot.
type Implementation struct{}

func (Implementation) NumActiveDisplays() int {
	return screenshot.NumActiveDisplays()
}

func (Implementation) DisplayBounds(displayIndex int) image.Rectangle {
	return screenshot.GetDisplayBounds(displayIndex)
}

func (Implementation) CaptureRect(bounds image.Rectangle) (*image.RGBA, error) {
	return screenshot.CaptureRect(bounds)
}

// CaptureDisplays captures every active display concurrently and returns
// them in display-index order. Any single failure aborts the whole capture.
func CaptureDisplays(ctx context.Context, src Source) ([]Display, error) {
	logger.Debugf(ctx, "CaptureDisplays")
	defer logger.Debugf(ctx, "/CaptureDisplays")

	if src == nil {
		src = Implementation{}
	}
	n := src.NumActiveDisplays()
	if n == 0 {
		return nil, fmt.Errorf("no active displays found")
	}

	displays := make([]Display, n)
	g, _ := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		bounds := src.DisplayBounds(i)
		displays[i].Coordinate = Coordinate{X: int32(bounds.Min.X), Y: int32(bounds.Min.Y)}
		g.Go(func() error {
			img, err := src.CaptureRect(bounds)
			if err != nil {
				return fmt.Errorf("unable to capture display %d at %v: %w", i, bounds, err)
			}
			displays[i].Screenshot = FromImage(img)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Debugf(ctx, "captured %d displays", n)
	return displays, nil
}

// DisplayBounds returns the bounds of every active display.
func DisplayBounds(src Source) []image.Rectangle {
	if src == nil {
		src = Implementation{}
	}
	n := src.NumActiveDisplays()
	bounds := make([]image.Rectangle, 0, n)
	for i := 0; i < n; i++ {
		bounds = append(bounds, src.DisplayBounds(i))
	}
	return bounds
}
