package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
)

const iconSize = 16

var (
	selectionBlue = color.RGBA{R: 0x00, G: 0x78, B: 0xd4, A: 0xff}
	fillBlue      = color.RGBA{R: 0x00, G: 0x78, B: 0xd4, A: 0x40}
	cornerGrey    = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
)

// Icon renders the tray icon: a dashed selection rectangle with solid
// corner handles.
func Icon() []byte {
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	const lo, hi = 2, iconSize - 3

	for y := lo; y <= hi; y++ {
		for x := lo; x <= hi; x++ {
			onEdge := x == lo || x == hi || y == lo || y == hi
			switch {
			case onEdge && (x+y)%3 != 0:
				img.SetRGBA(x, y, selectionBlue)
			case !onEdge:
				img.SetRGBA(x, y, fillBlue)
			}
		}
	}
	for _, c := range []image.Point{{lo, lo}, {hi, lo}, {lo, hi}, {hi, hi}} {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				img.SetRGBA(c.X+dx, c.Y+dy, cornerGrey)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}
