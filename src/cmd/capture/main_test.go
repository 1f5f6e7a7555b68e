package main

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"region-capture/src/config"
	"region-capture/src/recorder"
	"region-capture/src/session"
	"region-capture/src/worker"
)

func TestSelectTarget(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{}

	_, ok := selectTarget("-", cfg, &buf).(session.WriterTarget)
	assert.True(t, ok)

	ft, ok := selectTarget("out.png", cfg, &buf).(*session.FileTarget)
	require.True(t, ok)
	assert.Equal(t, "out.png", ft.Path)

	ft, ok = selectTarget("", &config.Config{OutputDir: "shots"}, &buf).(*session.FileTarget)
	require.True(t, ok)
	assert.Equal(t, "shots", ft.Dir)

	_, ok = selectTarget("", cfg, &buf).(session.ClipboardTarget)
	assert.True(t, ok)
}

func TestRegionFlags(t *testing.T) {
	r, err := regionFlags{x: -10, y: 5, width: 20, height: 30}.rect()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(-10, 5, 10, 35), r)

	_, err = regionFlags{width: 0, height: 30}.rect()
	require.Error(t, err)
}

func TestRecordFlagsParse(t *testing.T) {
	root := newRootCmd(&cliOptions{})
	cmd, _, err := root.Find([]string{"record"})
	require.NoError(t, err)
	require.NoError(t, cmd.ParseFlags([]string{"--x", "5", "--width", "64", "--height", "32", "--frames", "10", "--fps", "15"}))

	frames, err := cmd.Flags().GetInt("frames")
	require.NoError(t, err)
	assert.Equal(t, 10, frames)
	width, err := cmd.Flags().GetInt("width")
	require.NoError(t, err)
	assert.Equal(t, 64, width)
}

func TestFrameWriter(t *testing.T) {
	dir := t.TempDir()
	f := worker.Frame{Index: 3, Rect: image.Rect(0, 0, 2, 1), Pix: []byte{1, 2, 3, 255, 4, 5, 6, 255}}
	require.NoError(t, frameWriter(dir)(context.Background(), f))

	data, err := os.ReadFile(filepath.Join(dir, "frame_00003.png"))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 1), img.Bounds())
}

func TestUnknownSubcommandFails(t *testing.T) {
	require.Error(t, runWithArgs([]string{"region-capture-cli", "nope"}))
}

// stopAfterSampler cancels the command context after a fixed number of
// samples, the way Ctrl+C would.
type stopAfterSampler struct {
	mu      sync.Mutex
	cancel  context.CancelFunc
	after   int
	samples int
	lastHit bool
	closes  int
}

func (s *stopAfterSampler) Sample(x, y, w, h int, isLast bool) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples++
	s.lastHit = s.lastHit || isLast
	if s.samples == s.after {
		s.cancel()
	}
	return make([]byte, w*h*4), nil
}

func (s *stopAfterSampler) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

func TestRecordStopsWhenContextIsCancelled(t *testing.T) {
	t.Setenv(config.EnvPathEnvVar, filepath.Join(t.TempDir(), "missing.env"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sampler := &stopAfterSampler{cancel: cancel, after: 3}
	var out bytes.Buffer
	opts := &cliOptions{
		stdout:     &out,
		newSampler: func() recorder.Sampler { return sampler },
	}
	dir := filepath.Join(t.TempDir(), "frames")
	root := newRootCmd(opts)
	root.SetArgs([]string{"record", "--width", "2", "--height", "2", "--fps", "200", "--frames", "0", "--dir", dir, "--log-level", "error"})

	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("record did not stop after the context was cancelled")
	}

	sampler.mu.Lock()
	defer sampler.mu.Unlock()
	assert.Equal(t, 3, sampler.samples)
	assert.False(t, sampler.lastHit, "an open-ended recording never flags a last sample")
	assert.Equal(t, 1, sampler.closes)
	assert.Contains(t, out.String(), "sampled=3")
}
