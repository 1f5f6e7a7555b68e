package runtimeinit

import (
	"context"
	"fmt"
	"io"

	"github.com/facebookincubator/go-belt/tool/logger"

	"region-capture/src/clipboard"
	"region-capture/src/config"
	"region-capture/src/logutil"
)

type Options struct {
	LoadOptions config.LoadOptions
	Program     string
	// Stderr mirrors logs to stderr in addition to the optional log file.
	Stderr bool
	// RequireClipboard fails the bootstrap when the clipboard cannot be
	// initialised; otherwise it is only logged.
	RequireClipboard bool
}

// Runtime is the bootstrapped process state.
type Runtime struct {
	Ctx    context.Context
	Config *config.Config
	closer io.Closer
}

// Close releases the log file.
func (r *Runtime) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Bootstrap loads configuration, builds the logger context and initialises
// the clipboard.
func Bootstrap(ctx context.Context, opts Options) (*Runtime, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logOpts := logutil.Options{
		Program: opts.Program,
		Level:   cfg.LogLevel,
		Stderr:  opts.Stderr,
	}
	if cfg.EnableFileLogging {
		logOpts.FilePath = cfg.LogFile
	}
	ctx, closer := logutil.New(ctx, logOpts)
	rt := &Runtime{Ctx: ctx, Config: cfg, closer: closer}
	logger.Debugf(ctx, "configuration loaded from %q", cfg.EnvPath)

	if err := clipboard.Init(); err != nil {
		if opts.RequireClipboard {
			_ = rt.Close()
			return nil, fmt.Errorf("failed to initialize clipboard: %w", err)
		}
		logger.Warnf(ctx, "clipboard unavailable: %v", err)
	}

	return rt, nil
}
