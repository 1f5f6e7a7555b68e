package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitDropsWhenQueueIsFull(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	p := New(1, func(ctx context.Context, f Frame) error {
		once.Do(func() { close(started) })
		<-release
		return nil
	})

	require.True(t, p.Submit(context.Background(), Frame{Index: 0}, nil))
	<-started
	require.True(t, p.Submit(context.Background(), Frame{Index: 1}, nil), "queue slot is free while the worker is busy")
	assert.False(t, p.Submit(context.Background(), Frame{Index: 2}, nil))

	close(release)
	p.Close()
}

func TestCloseDrainsQueuedWork(t *testing.T) {
	var handled atomic.Int32
	p := New(2, func(ctx context.Context, f Frame) error {
		handled.Add(1)
		return nil
	})

	submitted := 0
	for i := 0; i < 16; i++ {
		if p.Submit(context.Background(), Frame{Index: i}, nil) {
			submitted++
		}
	}
	p.Close()
	assert.Equal(t, int32(submitted), handled.Load())
}

func TestCallbackReceivesHandlerError(t *testing.T) {
	boom := errors.New("disk full")
	p := New(1, func(ctx context.Context, f Frame) error { return boom })

	got := make(chan error, 1)
	require.True(t, p.Submit(context.Background(), Frame{Index: 7}, func(f Frame, err error) {
		assert.Equal(t, 7, f.Index)
		got <- err
	}))
	require.ErrorIs(t, <-got, boom)
	p.Close()
}
