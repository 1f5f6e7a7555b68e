package capture

import (
	"encoding/binary"
	"math/bits"
)

// ChannelMasks describes where red, green and blue live inside a native
// packed pixel.
type ChannelMasks struct {
	Red   uint32
	Green uint32
	Blue  uint32
}

// DefaultMasks is the 24-bit TrueColor layout (0x00RRGGBB).
var DefaultMasks = ChannelMasks{Red: 0xff0000, Green: 0x00ff00, Blue: 0x0000ff}

// channel extracts the masked bits and scales them to 8 bits.
func channel(pixel, mask uint32) byte {
	if mask == 0 {
		return 0
	}
	v := (pixel & mask) >> bits.TrailingZeros32(mask)
	width := bits.OnesCount32(mask)
	switch {
	case width == 8:
		return byte(v)
	case width > 8:
		return byte(v >> (width - 8))
	default:
		return byte(v * 255 / (1<<width - 1))
	}
}

// UnpackPixels converts 32-bit native pixels from src into packed RGBA in
// dst, forcing alpha to opaque. dst must hold len(src) bytes.
func UnpackPixels(dst, src []byte, order binary.ByteOrder, masks ChannelMasks) {
	for i := 0; i+4 <= len(src); i += 4 {
		pixel := order.Uint32(src[i : i+4])
		dst[i+0] = channel(pixel, masks.Red)
		dst[i+1] = channel(pixel, masks.Green)
		dst[i+2] = channel(pixel, masks.Blue)
		dst[i+3] = 0xff
	}
}
