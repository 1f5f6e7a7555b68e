//go:build linux

package capture

import (
	"encoding/binary"
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xfixes"
	"github.com/BurntSushi/xgb/xproto"
)

type x11Platform struct {
	conn   *xgb.Conn
	root   xproto.Window
	order  binary.ByteOrder
	masks  ChannelMasks
	bpp    byte
	xfixes bool
}

func openNative() (platform, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)
	p := &x11Platform{
		conn:  conn,
		root:  screen.Root,
		order: binary.LittleEndian,
		masks: DefaultMasks,
	}
	if setup.ImageByteOrder == xproto.ImageOrderMSBFirst {
		p.order = binary.BigEndian
	}
	for _, depth := range screen.AllowedDepths {
		for _, visual := range depth.Visuals {
			if visual.VisualId == screen.RootVisual {
				p.masks = ChannelMasks{Red: visual.RedMask, Green: visual.GreenMask, Blue: visual.BlueMask}
			}
		}
	}
	for _, format := range setup.PixmapFormats {
		if format.Depth == screen.RootDepth {
			p.bpp = format.BitsPerPixel
		}
	}

	if err := xfixes.Init(conn); err == nil {
		if _, err := xfixes.QueryVersion(conn, 4, 0).Reply(); err == nil {
			p.xfixes = true
		}
	}
	return p, nil
}

func (p *x11Platform) readImage(x, y, w, h int) ([]byte, error) {
	if p.bpp != 32 {
		return nil, fmt.Errorf("%w: %d bits per pixel", ErrUnsupportedFormat, p.bpp)
	}
	reply, err := xproto.GetImage(
		p.conn, xproto.ImageFormatZPixmap, xproto.Drawable(p.root),
		int16(x), int16(y), uint16(w), uint16(h), 0xffffffff,
	).Reply()
	if err != nil {
		return nil, err
	}
	if len(reply.Data) < w*h*4 {
		return nil, fmt.Errorf("short image reply: %d bytes", len(reply.Data))
	}
	pix := make([]byte, w*h*4)
	UnpackPixels(pix, reply.Data[:w*h*4], p.order, p.masks)
	return pix, nil
}

func (p *x11Platform) cursor() (*Cursor, error) {
	if !p.xfixes {
		return nil, nil
	}
	reply, err := xfixes.GetCursorImage(p.conn).Reply()
	if err != nil {
		return nil, err
	}
	if len(reply.CursorImage) < int(reply.Width)*int(reply.Height) {
		return nil, nil
	}
	return &Cursor{
		X:      int(reply.X),
		Y:      int(reply.Y),
		HotX:   int(reply.Xhot),
		HotY:   int(reply.Yhot),
		Width:  int(reply.Width),
		Height: int(reply.Height),
		Pixels: reply.CursorImage,
	}, nil
}

func (p *x11Platform) close() error {
	p.conn.Close()
	return nil
}
