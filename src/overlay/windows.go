package overlay

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
)

// createWindows pairs every display with the monitor at exactly the same
// origin and opens one overlay window on each. On failure nothing stays
// open except what teardown releases.
func (sess *session) createWindows(ctx context.Context) error {
	logger.Debugf(ctx, "createWindows")
	defer logger.Debugf(ctx, "/createWindows")

	var err error
	sess.call(func() {
		err = sess.createWindowsOnMain(ctx)
	})
	return err
}

func (sess *session) createWindowsOnMain(ctx context.Context) error {
	backend := sess.selector.backend

	monitors, err := backend.Monitors()
	if err != nil {
		return fmt.Errorf("%w: unable to enumerate monitors: %v", ErrInit, err)
	}
	if len(monitors) != len(sess.displays) {
		return fmt.Errorf("%w: %d monitors, %d displays", ErrDisplayCountMismatch, len(monitors), len(sess.displays))
	}

	ordered, err := matchMonitors(sess, monitors)
	if err != nil {
		return err
	}

	windows := make([]Window, 0, len(ordered))
	for i, m := range ordered {
		w, err := backend.CreateWindow(m, fmt.Sprintf("region-capture overlay %d", i))
		if err != nil {
			for _, created := range windows {
				created.Destroy()
			}
			return fmt.Errorf("%w on monitor %q: %v", ErrWindowCreate, m.Name(), err)
		}
		logger.Debugf(ctx, "created overlay window %d on monitor %q", i, m.Name())
		windows = append(windows, w)
	}

	sess.monitors = ordered
	sess.windows = windows
	return nil
}

// matchMonitors reorders monitors into display order. Each monitor is used
// at most once.
func matchMonitors(sess *session, monitors []Monitor) ([]Monitor, error) {
	used := make([]bool, len(monitors))
	ordered := make([]Monitor, len(sess.displays))
	for i, d := range sess.displays {
		found := false
		for j, m := range monitors {
			if used[j] {
				continue
			}
			x, y := m.Position()
			if int32(x) == d.Coordinate.X && int32(y) == d.Coordinate.Y {
				ordered[i] = m
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: display %d at (%d,%d)", ErrMonitorNotFound, i, d.Coordinate.X, d.Coordinate.Y)
		}
	}
	return ordered, nil
}

// teardown destroys every window and terminates the windowing system.
func (sess *session) teardown(ctx context.Context) {
	logger.Debugf(ctx, "teardown: %d windows", len(sess.windows))
	defer logger.Debugf(ctx, "/teardown")

	sess.call(func() {
		for _, w := range sess.windows {
			w.Destroy()
		}
		sess.windows = nil
		sess.monitors = nil
		sess.selector.backend.Terminate()
	})
}
