package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/spf13/cobra"

	"region-capture/src/config"
	"region-capture/src/eventloop"
	"region-capture/src/mainthread"
	"region-capture/src/overlay"
	"region-capture/src/overlay/glfwbackend"
	"region-capture/src/runtimeinit"
	"region-capture/src/session"
	"region-capture/src/singleinstance"
	"region-capture/src/tray"
)

type mainOptions struct {
	once     bool
	envFile  string
	logLevel string
}

func main() {
	// Ensure DPI awareness before creating any windows or querying metrics
	enableDPIAwareness()

	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(normalizeLegacyArgs(os.Args)[1:])

	var err error
	// GLFW must own the process main thread.
	mainthread.Init(func() { err = cmd.Execute() })
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "region-capture",
		Short:         "Resident region capture with tray icon and global hotkey",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(cmd.Context(), *opts)
		},
	}

	cmd.Flags().BoolVar(&opts.once, "once", false, "Capture a single region and exit")
	cmd.Flags().StringVar(&opts.envFile, "env-file", "", "Path to a .env file (highest precedence)")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "Log level: trace, debug, info, warning, error")

	return cmd
}

// normalizeLegacyArgs maps single-dash long flags to their GNU form.
func normalizeLegacyArgs(args []string) []string {
	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range []string{"once", "env-file", "log-level"} {
			switch {
			case arg == "-"+name:
				normalized[i] = "--" + name
			case strings.HasPrefix(arg, "-"+name+"="):
				normalized[i] = "-" + arg
			}
		}
	}

	return normalized
}

func runWithOptions(parent context.Context, opts mainOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	rt, err := runtimeinit.Bootstrap(parent, runtimeinit.Options{
		LoadOptions: config.LoadOptions{EnvFileOverride: opts.envFile, LogLevelOverride: opts.logLevel},
		Program:     "region-capture",
		Stderr:      true,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(rt.Ctx)
	defer cancel()
	cfg := rt.Config

	selector := overlay.New(
		glfwbackend.New(ctx),
		mainthread.MainThread{},
		overlay.WithFrameInterval(time.Second/time.Duration(cfg.FrameRate)),
	)
	defaultTarget := newTarget(cfg)
	capture := func(ctx context.Context, target session.ResultTarget) (*overlay.Result, error) {
		if target == nil {
			target = defaultTarget
		}
		return session.Execute(ctx, session.Options{
			Selector:    selector,
			ShowEditors: cfg.ShowEditors,
			Target:      target,
		})
	}

	if opts.once {
		return runOnce(ctx, singleinstance.NewClient(), capture)
	}

	srv := singleinstance.NewServer()
	if err := srv.Start(ctx); err != nil {
		logger.Warnf(ctx, "delegation from --once is disabled: %v", err)
	} else {
		defer srv.Close()
	}

	logger.Infof(ctx, "region capture resident started, hotkey: %s", cfg.Hotkey)
	tooltip := fmt.Sprintf("Region Capture - Press %s to capture", cfg.Hotkey)

	var loop *eventloop.Loop
	trayIcon := tray.New(ctx, tray.Config{
		Title:     "Region Capture",
		Tooltip:   tooltip,
		OnCapture: func() { loop.Trigger("tray") },
		OnExit:    cancel,
	})
	loop = eventloop.New(capture, eventloop.WithTooltip(trayIcon.UpdateTooltip, tooltip))

	go trayIcon.Run()
	defer trayIcon.Destroy()
	if srv.Port() != 0 {
		go loop.Serve(ctx, srv)
	}

	stop, err := loop.StartHotkey(ctx, cfg.Hotkey)
	if err != nil {
		logger.Errorf(ctx, "hotkey unavailable, use the tray menu: %v", err)
	} else {
		defer stop()
	}

	// Handle SIGINT/SIGTERM
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("event loop stopped: %w", err)
	}
	return nil
}

// runOnce hands the capture to a running resident when there is one and
// captures in-process otherwise.
func runOnce(ctx context.Context, client singleinstance.Client, capture eventloop.Runner) error {
	delegated, _, err := client.TryCapture(ctx, false)
	if delegated {
		if errors.Is(err, singleinstance.ErrRemoteCancelled) {
			return nil
		}
		return err
	}
	_, err = capture(ctx, nil)
	if errors.Is(err, session.ErrSelectionCancelled) {
		return nil
	}
	return err
}

// newTarget writes to OUTPUT_DIR when set, otherwise to the clipboard.
func newTarget(cfg *config.Config) session.ResultTarget {
	if cfg.OutputDir != "" {
		return &session.FileTarget{Dir: cfg.OutputDir}
	}
	return session.ClipboardTarget{}
}
