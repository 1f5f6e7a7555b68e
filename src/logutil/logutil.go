package logutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	xlogrus "github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/sirupsen/logrus"
)

const (
	maxSizeBytes = 10 * 1024 * 1024 // 10 MB
	maxArchives  = 3
)

type Options struct {
	Program string
	Level   string
	// FilePath enables file logging with size-based rotation when set.
	FilePath string
	// Stderr mirrors log lines to stderr.
	Stderr bool
}

// ParseLevel accepts go-belt level names ("trace", "debug", "info", ...).
func ParseLevel(s string) (logger.Level, error) {
	level := logger.LevelInfo
	if s == "" {
		return level, nil
	}
	if err := level.Set(s); err != nil {
		return logger.LevelInfo, fmt.Errorf("unable to parse log level %q: %w", s, err)
	}
	return level, nil
}

// New returns ctx carrying a logrus-backed go-belt logger, and a closer for
// the log file. An unusable log file falls back to stderr.
func New(ctx context.Context, opts Options) (context.Context, io.Closer) {
	ll := xlogrus.DefaultLogrusLogger()
	level, err := ParseLevel(opts.Level)

	var out io.Writer = io.Discard
	if opts.Stderr {
		out = os.Stderr
	}
	var closer io.Closer = nopCloser{}
	var fileErr error
	if opts.FilePath != "" {
		w, err := OpenRotating(opts.FilePath)
		if err != nil {
			fileErr = err
			out = os.Stderr
		} else {
			closer = w
			if opts.Stderr {
				out = io.MultiWriter(os.Stderr, w)
			} else {
				out = w
			}
		}
	}
	ll.SetOutput(out)

	l := xlogrus.New(ll).WithLevel(level)
	logrus.SetLevel(xlogrus.LevelToLogrus(l.Level()))
	ctx = logger.CtxWithLogger(ctx, l)
	if opts.Program != "" {
		ctx = belt.WithField(ctx, "program", opts.Program)
	}

	if err != nil {
		logger.Warnf(ctx, "%v; using %s", err, level)
	}
	if fileErr != nil {
		logger.Errorf(ctx, "unable to open the log file: %v", fileErr)
	}
	return ctx, closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// RotatingWriter appends to a file and rotates it once it grows past 10 MB,
// keeping at most 3 archives (.1 newest).
type RotatingWriter struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

func OpenRotating(path string) (*RotatingWriter, error) {
	rotateIfNeeded(path, maxSizeBytes)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s: %w", path, err)
	}
	return &RotatingWriter{path: path, f: f}, nil
}

func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.write(p, maxSizeBytes)
}

func (w *RotatingWriter) write(p []byte, limit int64) (int, error) {
	// naive rotation check per write
	if st, err := w.f.Stat(); err == nil && st.Size() > 0 && st.Size()+int64(len(p)) > limit {
		_ = w.f.Close()
		rotate(w.path)
		nf, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return 0, err
		}
		w.f = nf
	}
	return w.f.Write(p)
}

func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}

func rotateIfNeeded(path string, limit int64) {
	if st, err := os.Stat(path); err == nil && st.Size() > limit {
		rotate(path)
	}
}

// rotate shifts .1, .2, .3 (oldest discarded) and moves the current file to .1.
func rotate(path string) {
	_ = os.Remove(archiveName(path, maxArchives))
	for i := maxArchives - 1; i >= 1; i-- {
		_ = os.Rename(archiveName(path, i), archiveName(path, i+1))
	}
	_ = os.Rename(path, archiveName(path, 1))
}

func archiveName(path string, n int) string {
	return filepath.Join(filepath.Dir(path), fmt.Sprintf("%s.%d", filepath.Base(path), n))
}
