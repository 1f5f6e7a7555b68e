// Package recorder samples a desktop rectangle at a fixed rate and feeds the
// frames to a worker pool. Frames that arrive while the pool is saturated
// are dropped rather than queued.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"

	"region-capture/src/worker"
)

var ErrInvalidOptions = errors.New("invalid recording options")

// Sampler is the live-capture source, normally a *capture.Shared.
type Sampler interface {
	Sample(x, y, w, h int, isLast bool) ([]byte, error)
	Close() error
}

type Options struct {
	Rect image.Rectangle
	// FPS is the sampling rate.
	FPS int
	// Frames limits the recording; 0 records until ctx is done.
	Frames int
	// Workers is the pool size; 0 means NumCPU.
	Workers int
}

// Stats summarises a finished recording.
type Stats struct {
	Sampled   int
	Delivered int
	Dropped   int
	Failed    int
	Duration  time.Duration
}

type Recorder struct {
	sampler Sampler
	opts    Options
}

func New(sampler Sampler, opts Options) (*Recorder, error) {
	if opts.Rect.Dx() <= 0 || opts.Rect.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty rectangle %v", ErrInvalidOptions, opts.Rect)
	}
	if opts.FPS <= 0 {
		return nil, fmt.Errorf("%w: fps must be positive, got %d", ErrInvalidOptions, opts.FPS)
	}
	if opts.Frames < 0 {
		return nil, fmt.Errorf("%w: negative frame count %d", ErrInvalidOptions, opts.Frames)
	}
	return &Recorder{sampler: sampler, opts: opts}, nil
}

// Run records until the frame limit is reached, ctx is done or a sample
// fails. The sampler is closed exactly once before Run returns. Handler
// errors are collected and returned together with the stats.
func (r *Recorder) Run(ctx context.Context, handler worker.Handler) (_ Stats, _err error) {
	logger.Debugf(ctx, "Run: %v at %d fps", r.opts.Rect, r.opts.FPS)
	defer func() { logger.Debugf(ctx, "/Run: %v", _err) }()

	var (
		mu      sync.Mutex
		stats   Stats
		handErr *multierror.Error
	)
	pool := worker.New(r.opts.Workers, handler)
	onResult := func(f worker.Frame, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			stats.Failed++
			handErr = multierror.Append(handErr, fmt.Errorf("frame %d: %w", f.Index, err))
			return
		}
		stats.Delivered++
	}

	start := time.Now()
	ticker := time.NewTicker(time.Second / time.Duration(r.opts.FPS))
	defer ticker.Stop()

	rect := r.opts.Rect
	closed := false
	var sampleErr error
	for i := 0; r.opts.Frames == 0 || i < r.opts.Frames; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
			case <-ticker.C:
			}
		}
		if ctx.Err() != nil {
			break
		}

		isLast := r.opts.Frames > 0 && i == r.opts.Frames-1
		pix, err := r.sampler.Sample(rect.Min.X, rect.Min.Y, rect.Dx(), rect.Dy(), isLast)
		closed = closed || isLast
		if pix == nil {
			sampleErr = fmt.Errorf("unable to sample frame %d: %w", i, err)
			break
		}
		if err != nil {
			logger.Warnf(ctx, "frame %d: %v", i, err)
		}

		mu.Lock()
		stats.Sampled++
		mu.Unlock()

		frame := worker.Frame{Index: i, Rect: rect, Pix: pix, At: time.Now()}
		if !pool.Submit(ctx, frame, onResult) {
			mu.Lock()
			stats.Dropped++
			mu.Unlock()
			logger.Tracef(ctx, "frame %d dropped, workers busy", i)
		}
	}
	pool.Close()

	var result *multierror.Error
	if sampleErr != nil {
		result = multierror.Append(result, sampleErr)
	}
	if !closed {
		if err := r.sampler.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("unable to close the sampler: %w", err))
		}
	}
	if handErr != nil {
		result = multierror.Append(result, handErr.Errors...)
	}

	stats.Duration = time.Since(start)
	logger.Debugf(ctx, "recording finished: sampled=%d delivered=%d dropped=%d failed=%d",
		stats.Sampled, stats.Delivered, stats.Dropped, stats.Failed)
	return stats, result.ErrorOrNil()
}
