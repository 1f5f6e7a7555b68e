package eventloop

import (
	"context"
	"errors"

	"github.com/facebookincubator/go-belt/tool/logger"

	"region-capture/src/hotkey"
	"region-capture/src/overlay"
	"region-capture/src/session"
	"region-capture/src/singleinstance"
)

// ErrBusy is reported to delegated requests that arrive during a capture.
var ErrBusy = errors.New("a capture is already in progress")

// Runner performs one capture session. A nil target selects the
// runner's default destination.
type Runner func(ctx context.Context, target session.ResultTarget) (*overlay.Result, error)

// Loop is the single-threaded coordinator for tray and hotkey triggers.
// At most one capture runs at a time; triggers arriving meanwhile are
// rejected.
type Loop struct {
	run            Runner
	busy           bool
	triggers       chan request
	results        chan result
	setTooltip     func(string)
	defaultTooltip string
	onBusy         func(source string)
	onResult       func(res *overlay.Result, err error)
}

type request struct {
	source string
	target session.ResultTarget
}

type result struct {
	source string
	res    *overlay.Result
	err    error
}

type Option func(*Loop)

// WithTooltip reports the busy state through setTooltip.
func WithTooltip(setTooltip func(string), defaultTooltip string) Option {
	return func(l *Loop) {
		l.setTooltip = setTooltip
		l.defaultTooltip = defaultTooltip
	}
}

// WithBusyHandler is called when a trigger is rejected.
func WithBusyHandler(fn func(source string)) Option {
	return func(l *Loop) { l.onBusy = fn }
}

// WithResultHandler is called from the loop after every finished capture.
func WithResultHandler(fn func(res *overlay.Result, err error)) Option {
	return func(l *Loop) { l.onResult = fn }
}

func New(run Runner, opts ...Option) *Loop {
	l := &Loop{
		run:      run,
		triggers: make(chan request, 4),
		results:  make(chan result, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Trigger posts a capture request. It never blocks; requests beyond the
// queue capacity are dropped.
func (l *Loop) Trigger(source string) {
	l.post(context.Background(), request{source: source})
}

func (l *Loop) post(ctx context.Context, req request) {
	select {
	case l.triggers <- req:
	default:
		if req.target != nil {
			_ = req.target.OnFailure(ctx, ErrBusy)
		}
	}
}

// Serve turns connections accepted by srv into captures until ctx is
// cancelled or srv is closed.
func (l *Loop) Serve(ctx context.Context, srv singleinstance.Server) {
	logger.Debugf(ctx, "Serve")
	defer logger.Debugf(ctx, "/Serve")
	for {
		conn, err := srv.Next(ctx)
		if err != nil {
			return
		}
		l.post(ctx, request{source: "delegated", target: &session.ConnTarget{Conn: conn}})
	}
}

// StartHotkey registers a global hotkey that triggers captures.
func (l *Loop) StartHotkey(ctx context.Context, combo string) (stop func(), err error) {
	if combo == "" {
		return func() {}, nil
	}
	return hotkey.Listen(ctx, combo, func() { l.Trigger("hotkey") })
}

// Run processes triggers until ctx is cancelled. A running capture is
// awaited before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	logger.Debugf(ctx, "Run")
	defer logger.Debugf(ctx, "/Run")

	for {
		select {
		case <-ctx.Done():
			if l.busy {
				l.handleResult(ctx, <-l.results)
			}
			return ctx.Err()
		case req := <-l.triggers:
			l.handleTrigger(ctx, req)
		case res := <-l.results:
			l.handleResult(ctx, res)
		}
	}
}

func (l *Loop) setBusy(b bool) {
	l.busy = b
	if l.setTooltip == nil {
		return
	}
	if b {
		l.setTooltip("Region capture: selecting...")
	} else {
		l.setTooltip(l.defaultTooltip)
	}
}

func (l *Loop) handleTrigger(ctx context.Context, req request) {
	if l.busy {
		logger.Debugf(ctx, "handleTrigger(%s): busy, skipping", req.source)
		if req.target != nil {
			_ = req.target.OnFailure(ctx, ErrBusy)
		}
		if l.onBusy != nil {
			l.onBusy(req.source)
		}
		return
	}

	logger.Debugf(ctx, "handleTrigger(%s): starting capture", req.source)
	l.setBusy(true)
	go func() {
		res, err := l.run(ctx, req.target)
		l.results <- result{source: req.source, res: res, err: err}
	}()
}

func (l *Loop) handleResult(ctx context.Context, r result) {
	defer l.setBusy(false)

	switch {
	case errors.Is(r.err, session.ErrSelectionCancelled):
		logger.Debugf(ctx, "handleResult(%s): selection cancelled", r.source)
	case r.err != nil:
		logger.Errorf(ctx, "handleResult(%s): %v", r.source, r.err)
	default:
		logger.Infof(ctx, "handleResult(%s): captured %dx%d from display %d", r.source, r.res.Width, r.res.Height, r.res.DisplayIndex)
	}
	if l.onResult != nil {
		l.onResult(r.res, r.err)
	}
}
