package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"

	"region-capture/src/clipboard"
	"region-capture/src/overlay"
	"region-capture/src/screenshot"
	"region-capture/src/singleinstance"
)

var ErrSelectionCancelled = errors.New("selection cancelled")

// CaptureFunc freezes every display before the selector opens.
type CaptureFunc func(ctx context.Context) ([]screenshot.Display, error)

type Selector interface {
	Open(ctx context.Context, displays []screenshot.Display, showEditors bool) (*overlay.Result, error)
}

type ResultTarget interface {
	OnSuccess(ctx context.Context, res *overlay.Result) error
	OnFailure(ctx context.Context, err error) error
}

type Options struct {
	Capture     CaptureFunc
	Selector    Selector
	ShowEditors bool
	Target      ResultTarget
}

// Execute runs one capture: freeze displays, select, deliver.
func Execute(ctx context.Context, opts Options) (*overlay.Result, error) {
	if opts.Selector == nil {
		return nil, errors.New("Selector is required")
	}
	if opts.Target == nil {
		return nil, errors.New("Target is required")
	}
	capture := opts.Capture
	if capture == nil {
		capture = func(ctx context.Context) ([]screenshot.Display, error) {
			return screenshot.CaptureDisplays(ctx, nil)
		}
	}

	displays, err := capture(ctx)
	if err != nil {
		err = fmt.Errorf("unable to capture the displays: %w", err)
		_ = opts.Target.OnFailure(ctx, err)
		return nil, err
	}

	res, err := opts.Selector.Open(ctx, displays, opts.ShowEditors)
	if err != nil {
		err = fmt.Errorf("unable to select a region: %w", err)
		_ = opts.Target.OnFailure(ctx, err)
		return nil, err
	}
	if res == nil {
		_ = opts.Target.OnFailure(ctx, ErrSelectionCancelled)
		return nil, ErrSelectionCancelled
	}

	if err := opts.Target.OnSuccess(ctx, res); err != nil {
		err = fmt.Errorf("unable to deliver the capture: %w", err)
		_ = opts.Target.OnFailure(ctx, err)
		return nil, err
	}
	logger.Debugf(ctx, "delivered %dx%d capture from display %d", res.Width, res.Height, res.DisplayIndex)
	return res, nil
}

// EncodePNG encodes the result pixels as PNG.
func EncodePNG(res *overlay.Result) ([]byte, error) {
	if res == nil {
		return nil, errors.New("no capture result")
	}
	img := &image.RGBA{
		Pix:    res.RGBA,
		Stride: res.Width * screenshot.BytesPerPixel,
		Rect:   image.Rect(0, 0, res.Width, res.Height),
	}
	if len(img.Pix) != img.Stride*res.Height {
		return nil, fmt.Errorf("capture buffer is %d bytes, expected %d", len(img.Pix), img.Stride*res.Height)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("unable to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

type ClipboardTarget struct{}

func (ClipboardTarget) OnSuccess(ctx context.Context, res *overlay.Result) error {
	data, err := EncodePNG(res)
	if err != nil {
		return err
	}
	return clipboard.WriteImage(data)
}

func (ClipboardTarget) OnFailure(ctx context.Context, err error) error {
	return nil
}

// FileTarget writes the PNG to Path, or to a timestamped file in Dir when
// Path is empty.
type FileTarget struct {
	Dir  string
	Path string
	// Now is used for file names; defaults to time.Now.
	Now func() time.Time

	written string
}

func (t *FileTarget) OnSuccess(ctx context.Context, res *overlay.Result) error {
	data, err := EncodePNG(res)
	if err != nil {
		return err
	}
	path := t.Path
	if path == "" {
		now := time.Now
		if t.Now != nil {
			now = t.Now
		}
		path = filepath.Join(t.Dir, FileName(now(), res.DisplayIndex))
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("unable to create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("unable to write %s: %w", path, err)
	}
	t.written = path
	logger.Infof(ctx, "capture saved to %s", path)
	return nil
}

func (t *FileTarget) OnFailure(ctx context.Context, err error) error {
	return nil
}

// Written returns the path of the last saved file.
func (t *FileTarget) Written() string { return t.written }

// FileName is the default capture file name.
func FileName(at time.Time, displayIndex int) string {
	return fmt.Sprintf("capture_%s_display%d.png", at.Format("2006-01-02_15-04-05"), displayIndex)
}

type WriterTarget struct {
	Writer io.Writer
}

func (t WriterTarget) OnSuccess(ctx context.Context, res *overlay.Result) error {
	w := t.Writer
	if w == nil {
		w = os.Stdout
	}
	data, err := EncodePNG(res)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func (t WriterTarget) OnFailure(ctx context.Context, err error) error {
	return nil
}

// ConnTarget answers a capture request delegated by another invocation.
// Stdout requests receive the PNG; clipboard requests are served from
// the resident and acknowledged with an empty payload.
type ConnTarget struct {
	Conn singleinstance.Conn

	responded bool
}

func (t *ConnTarget) OnSuccess(ctx context.Context, res *overlay.Result) error {
	if t.responded {
		return nil
	}
	data, err := EncodePNG(res)
	if err != nil {
		return err
	}
	var payload []byte
	if t.Conn.Request().OutputToStdout {
		payload = data
	} else if err := clipboard.WriteImage(data); err != nil {
		return err
	}
	if err := t.Conn.RespondSuccess(payload); err != nil {
		return fmt.Errorf("unable to answer the delegated request: %w", err)
	}
	t.responded = true
	return t.Conn.Close()
}

func (t *ConnTarget) OnFailure(ctx context.Context, err error) error {
	if t.responded {
		return nil
	}
	t.responded = true
	respond := func() error { return t.Conn.RespondError(err.Error()) }
	if errors.Is(err, ErrSelectionCancelled) {
		respond = t.Conn.RespondCancelled
	}
	if rerr := respond(); rerr != nil {
		logger.Debugf(ctx, "unable to report %v to the delegating client: %v", err, rerr)
	}
	return t.Conn.Close()
}
