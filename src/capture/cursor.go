package capture

import "image"

// Cursor is a cursor image in desktop coordinates. Pixels are 0xAARRGGBB,
// row-major, Width*Height long.
type Cursor struct {
	X, Y       int
	HotX, HotY int
	Width      int
	Height     int
	Pixels     []uint32
}

// CompositeCursor blends c over buf, which holds the packed RGBA pixels of
// rect. Straight alpha is used and the background alpha is kept; cursor
// pixels outside rect are skipped.
func CompositeCursor(buf []byte, rect image.Rectangle, c *Cursor) {
	w, h := rect.Dx(), rect.Dy()
	originX := c.X - c.HotX - rect.Min.X
	originY := c.Y - c.HotY - rect.Min.Y

	for cy := 0; cy < c.Height; cy++ {
		py := originY + cy
		if py < 0 || py >= h {
			continue
		}
		for cx := 0; cx < c.Width; cx++ {
			px := originX + cx
			if px < 0 || px >= w {
				continue
			}
			argb := c.Pixels[cy*c.Width+cx]
			a := argb >> 24 & 0xff
			i := (py*w + px) * 4
			buf[i+0] = blend(argb>>16&0xff, buf[i+0], a)
			buf[i+1] = blend(argb>>8&0xff, buf[i+1], a)
			buf[i+2] = blend(argb&0xff, buf[i+2], a)
		}
	}
}

func blend(fg uint32, bg byte, alpha uint32) byte {
	return byte((fg*alpha + uint32(bg)*(255-alpha)) / 255)
}
