package session

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"region-capture/src/overlay"
	"region-capture/src/screenshot"
	"region-capture/src/singleinstance"
)

type fakeSelector struct {
	res      *overlay.Result
	err      error
	displays []screenshot.Display
	editors  bool
}

func (s *fakeSelector) Open(ctx context.Context, displays []screenshot.Display, showEditors bool) (*overlay.Result, error) {
	s.displays = displays
	s.editors = showEditors
	return s.res, s.err
}

type recordingTarget struct {
	successes []*overlay.Result
	failures  []error
	deliver   error
}

func (t *recordingTarget) OnSuccess(ctx context.Context, res *overlay.Result) error {
	t.successes = append(t.successes, res)
	return t.deliver
}

func (t *recordingTarget) OnFailure(ctx context.Context, err error) error {
	t.failures = append(t.failures, err)
	return nil
}

func oneDisplay(ctx context.Context) ([]screenshot.Display, error) {
	return []screenshot.Display{{Screenshot: &screenshot.Screenshot{Width: 1, Height: 1, Pix: make([]byte, 4)}}}, nil
}

func sampleResult() *overlay.Result {
	pix := []byte{
		255, 0, 0, 255, 0, 255, 0, 255,
		0, 0, 255, 255, 255, 255, 255, 255,
	}
	return &overlay.Result{Width: 2, Height: 2, DisplayIndex: 1, RGBA: pix}
}

func TestExecuteDelivers(t *testing.T) {
	sel := &fakeSelector{res: sampleResult()}
	target := &recordingTarget{}

	res, err := Execute(context.Background(), Options{Capture: oneDisplay, Selector: sel, ShowEditors: true, Target: target})
	require.NoError(t, err)
	assert.Same(t, sel.res, res)
	assert.True(t, sel.editors)
	assert.Len(t, sel.displays, 1)
	assert.Len(t, target.successes, 1)
	assert.Empty(t, target.failures)
}

func TestExecuteCancelled(t *testing.T) {
	target := &recordingTarget{}
	_, err := Execute(context.Background(), Options{Capture: oneDisplay, Selector: &fakeSelector{}, Target: target})
	require.ErrorIs(t, err, ErrSelectionCancelled)
	assert.Equal(t, []error{ErrSelectionCancelled}, target.failures)
}

func TestExecuteFailures(t *testing.T) {
	boom := errors.New("boom")
	for name, opts := range map[string]Options{
		"capture":  {Capture: func(context.Context) ([]screenshot.Display, error) { return nil, boom }, Selector: &fakeSelector{}},
		"selector": {Capture: oneDisplay, Selector: &fakeSelector{err: boom}},
		"delivery": {Capture: oneDisplay, Selector: &fakeSelector{res: sampleResult()}},
	} {
		t.Run(name, func(t *testing.T) {
			target := &recordingTarget{}
			if name == "delivery" {
				target.deliver = boom
			}
			opts.Target = target
			_, err := Execute(context.Background(), opts)
			require.ErrorIs(t, err, boom)
			require.Len(t, target.failures, 1)
			assert.ErrorIs(t, target.failures[0], boom)
		})
	}
}

func TestExecuteRequiresCollaborators(t *testing.T) {
	_, err := Execute(context.Background(), Options{Target: &recordingTarget{}})
	require.Error(t, err)
	_, err = Execute(context.Background(), Options{Selector: &fakeSelector{}})
	require.Error(t, err)
}

func TestEncodePNGRoundTrip(t *testing.T) {
	data, err := EncodePNG(sampleResult())
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
	r, g, b, _ := img.At(1, 0).RGBA()
	assert.Equal(t, []uint32{0, 0xffff, 0}, []uint32{r, g, b})

	_, err = EncodePNG(&overlay.Result{Width: 2, Height: 2, RGBA: make([]byte, 3)})
	require.Error(t, err)
}

func TestFileTargetNamesFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	at := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	target := &FileTarget{Dir: dir, Now: func() time.Time { return at }}

	require.NoError(t, target.OnSuccess(context.Background(), sampleResult()))
	want := filepath.Join(dir, "capture_2024-03-09_14-05-07_display1.png")
	assert.Equal(t, want, target.Written())
	_, err := os.Stat(want)
	require.NoError(t, err)
}

func TestWriterTarget(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriterTarget{Writer: &buf}.OnSuccess(context.Background(), sampleResult()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

type fakeConn struct {
	req     singleinstance.Request
	success [][]byte
	errs      []string
	cancelled int
	closed    int
}

func (c *fakeConn) RespondCancelled() error {
	c.cancelled++
	return nil
}

func (c *fakeConn) Request() singleinstance.Request { return c.req }

func (c *fakeConn) RespondSuccess(data []byte) error {
	c.success = append(c.success, data)
	return nil
}

func (c *fakeConn) RespondError(msg string) error {
	c.errs = append(c.errs, msg)
	return nil
}

func (c *fakeConn) Close() error {
	c.closed++
	return nil
}

func TestConnTargetStdout(t *testing.T) {
	conn := &fakeConn{req: singleinstance.Request{OutputToStdout: true}}
	target := &ConnTarget{Conn: conn}
	ctx := context.Background()

	require.NoError(t, target.OnSuccess(ctx, sampleResult()))
	require.NoError(t, target.OnFailure(ctx, errors.New("late")))

	require.Len(t, conn.success, 1)
	assert.True(t, bytes.HasPrefix(conn.success[0], []byte("\x89PNG")))
	assert.Empty(t, conn.errs)
	assert.Zero(t, conn.cancelled)
	assert.Equal(t, 1, conn.closed)
}

func TestConnTargetReportsFailureText(t *testing.T) {
	conn := &fakeConn{}
	target := &ConnTarget{Conn: conn}
	require.NoError(t, target.OnFailure(context.Background(), errors.New("no monitors")))
	assert.Equal(t, []string{"no monitors"}, conn.errs)
	assert.Zero(t, conn.cancelled)
	assert.Equal(t, 1, conn.closed)
}

func TestConnTargetReportsCancel(t *testing.T) {
	conn := &fakeConn{req: singleinstance.Request{OutputToStdout: true}}
	_, err := Execute(context.Background(), Options{
		Capture:  oneDisplay,
		Selector: &fakeSelector{},
		Target:   &ConnTarget{Conn: conn},
	})
	require.ErrorIs(t, err, ErrSelectionCancelled)
	assert.Equal(t, 1, conn.cancelled)
	assert.Empty(t, conn.errs)
	assert.Empty(t, conn.success)
	assert.Equal(t, 1, conn.closed)
}
