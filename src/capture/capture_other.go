//go:build !linux

package capture

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// nativePlatform reads pixels through kbinani/screenshot. No cursor image
// is available on these platforms.
type nativePlatform struct{}

func openNative() (platform, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return nil, fmt.Errorf("%w: no active displays", ErrUnreachable)
	}
	return nativePlatform{}, nil
}

func (nativePlatform) readImage(x, y, w, h int) ([]byte, error) {
	img, err := screenshot.CaptureRect(image.Rect(x, y, x+w, y+h))
	if err != nil {
		return nil, err
	}
	rowBytes := w * 4
	pix := make([]byte, rowBytes*h)
	for row := 0; row < h; row++ {
		off := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+row)
		copy(pix[row*rowBytes:(row+1)*rowBytes], img.Pix[off:off+rowBytes])
	}
	for i := 3; i < len(pix); i += 4 {
		pix[i] = 0xff
	}
	return pix, nil
}

func (nativePlatform) cursor() (*Cursor, error) { return nil, nil }

func (nativePlatform) close() error { return nil }
