package overlay

import (
	"context"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
)

type outcome int

const (
	outcomeNone outcome = iota
	outcomeCancel
	outcomeConfirm
)

// run is the selecting state. It returns when a window reports a close
// request, Escape or F.
func (sess *session) run(ctx context.Context) (*Result, error) {
	logger.Debugf(ctx, "run")
	defer logger.Debugf(ctx, "/run")

	for {
		var (
			decided outcome
			index   int
		)
		sess.call(func() {
			sess.selector.backend.PollEvents()
			decided, index = sess.scan()
		})

		switch decided {
		case outcomeCancel:
			logger.Debugf(ctx, "selection cancelled in window %d", index)
			return nil, nil
		case outcomeConfirm:
			logger.Debugf(ctx, "full screen capture confirmed in window %d", index)
			return sess.captureWindow(ctx, index)
		}

		sess.call(sess.renderFrame)
		time.Sleep(sess.selector.frameInterval)
	}
}

// scan checks the windows in display order; the first terminal condition
// wins.
func (sess *session) scan() (outcome, int) {
	for i, w := range sess.windows {
		if w.ShouldClose() || w.KeyPressed(KeyEscape) {
			return outcomeCancel, i
		}
		// TODO: pick the window under the pointer instead of the first one reporting F.
		if w.KeyPressed(KeyF) {
			return outcomeConfirm, i
		}
	}
	return outcomeNone, -1
}
