// Package mainthread funnels windowing and graphics calls onto the one OS
// thread that is allowed to make them.
package mainthread

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"golang.design/x/mainthread"
)

// ErrClosed is the panic value of Call on a Queue that stopped serving.
var ErrClosed = errors.New("main-thread queue is closed")

// Dispatcher runs a function on the designated thread and blocks the caller
// until it returns. Results flow back only through values captured by fn.
type Dispatcher interface {
	Call(fn func())
}

// MainThread dispatches onto the process main thread. The program must be
// started through Init.
type MainThread struct{}

var _ Dispatcher = MainThread{}

func (MainThread) Call(fn func()) {
	mainthread.Call(fn)
}

// Init makes the calling (main) goroutine serve MainThread calls and runs
// run on another goroutine. It returns when run returns.
func Init(run func()) {
	mainthread.Init(run)
}

type task struct {
	fn   func()
	done chan any
}

// Queue is an explicit task queue served by whichever goroutine calls Run.
type Queue struct {
	tasks    chan task
	stopped  chan struct{}
	stopOnce sync.Once
}

var _ Dispatcher = (*Queue)(nil)

// NewQueue returns a Queue that is not served yet.
func NewQueue() *Queue {
	return &Queue{
		tasks:   make(chan task),
		stopped: make(chan struct{}),
	}
}

// Run locks the calling goroutine to its OS thread and executes queued tasks
// until ctx is done or Stop is called.
func (q *Queue) Run(ctx context.Context) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer q.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.stopped:
			return
		case t := <-q.tasks:
			t.done <- execute(t.fn)
		}
	}
}

// Stop makes Run return. Pending and future Calls panic with ErrClosed.
func (q *Queue) Stop() {
	q.stopOnce.Do(func() { close(q.stopped) })
}

// Call schedules fn on the serving thread and waits for it. A panic inside fn
// is re-raised on the calling goroutine.
func (q *Queue) Call(fn func()) {
	t := task{fn: fn, done: make(chan any, 1)}
	select {
	case q.tasks <- t:
	case <-q.stopped:
		panic(ErrClosed)
	}
	if r := <-t.done; r != nil {
		panic(r)
	}
}

func execute(fn func()) (recovered any) {
	defer func() {
		if r := recover(); r != nil {
			recovered = fmt.Errorf("panic on main thread: %v", r)
		}
	}()
	fn()
	return nil
}
