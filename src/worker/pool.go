package worker

import (
	"context"
	"image"
	"runtime"
	"sync"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
)

// Frame is one sampled region handed to the pool. Pix is owned by the
// handler once submitted.
type Frame struct {
	Index int
	Rect  image.Rectangle
	Pix   []byte
	At    time.Time
}

// Handler processes a frame on a worker goroutine.
type Handler func(ctx context.Context, f Frame) error

// ResultCallback is invoked after every handled frame (from a worker goroutine).
type ResultCallback func(f Frame, err error)

// Pool is a fixed-size worker pool with a 1-slot input queue (strict back-pressure).
type Pool struct {
	jobs    chan job
	wg      sync.WaitGroup
	handler Handler
}

type job struct {
	ctx   context.Context
	frame Frame
	cb    ResultCallback
}

// New creates a worker pool. Size defaults to NumCPU when size<=0. Queue is 1 slot.
func New(size int, handler Handler) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &Pool{jobs: make(chan job, 1), handler: handler}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				logger.Tracef(j.ctx, "worker: handling frame %d", j.frame.Index)
				err := p.handler(j.ctx, j.frame)
				if err != nil {
					logger.Debugf(j.ctx, "worker: frame %d failed: %v", j.frame.Index, err)
				}
				if j.cb != nil {
					j.cb(j.frame, err)
				}
			}
		}()
	}
}

// Submit enqueues a frame if the single-slot queue is free. Returns false if dropped.
func (p *Pool) Submit(ctx context.Context, f Frame, cb ResultCallback) bool {
	select {
	case p.jobs <- job{ctx: ctx, frame: f, cb: cb}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}
