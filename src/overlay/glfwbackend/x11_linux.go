//go:build linux

package glfwbackend

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/hashicorp/go-multierror"
)

// promoter makes overlay windows top-most on window managers that ignore
// the GLFW floating hint.
type promoter interface {
	beforeShow(*glfw.Window) error
	afterShow(*glfw.Window) error
	close()
}

type x11Promoter struct {
	xu *xgbutil.XUtil
}

func newPromoter() (promoter, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("unable to connect to the X server: %w", err)
	}
	return &x11Promoter{xu: xu}, nil
}

// beforeShow runs while the window is unmapped so override-redirect takes
// effect on the first map.
func (p *x11Promoter) beforeShow(w *glfw.Window) error {
	win := xproto.Window(w.GetX11Window())
	var result *multierror.Error
	if err := ewmh.WmWindowTypeSet(p.xu, win, []string{"_NET_WM_WINDOW_TYPE_DIALOG"}); err != nil {
		result = multierror.Append(result, fmt.Errorf("unable to set the window type: %w", err))
	}
	err := xproto.ChangeWindowAttributesChecked(
		p.xu.Conn(), win, xproto.CwOverrideRedirect, []uint32{1},
	).Check()
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("unable to set override-redirect: %w", err))
	}
	return result.ErrorOrNil()
}

func (p *x11Promoter) afterShow(w *glfw.Window) error {
	win := xproto.Window(w.GetX11Window())
	var result *multierror.Error
	if err := ewmh.WmStateReq(p.xu, win, ewmh.StateAdd, "_NET_WM_STATE_ABOVE"); err != nil {
		result = multierror.Append(result, fmt.Errorf("unable to request _NET_WM_STATE_ABOVE: %w", err))
	}
	err := xproto.ConfigureWindowChecked(
		p.xu.Conn(), win, xproto.ConfigWindowStackMode, []uint32{xproto.StackModeAbove},
	).Check()
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("unable to raise the window: %w", err))
	}
	p.xu.Sync()
	return result.ErrorOrNil()
}

func (p *x11Promoter) close() {
	p.xu.Conn().Close()
}
