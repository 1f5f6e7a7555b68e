package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/spf13/cobra"

	"region-capture/src/capture"
	"region-capture/src/config"
	"region-capture/src/mainthread"
	"region-capture/src/overlay"
	"region-capture/src/overlay/glfwbackend"
	"region-capture/src/recorder"
	"region-capture/src/runtimeinit"
	"region-capture/src/screenshot"
	"region-capture/src/session"
	"region-capture/src/worker"
)

type cliOptions struct {
	envFile  string
	logLevel string
	rt       *runtimeinit.Runtime
	stdout   io.Writer
	// newSampler opens the live source for record; defaults to capture.NewShared.
	newSampler func() recorder.Sampler
}

type regionFlags struct {
	x, y, width, height int
}

func (r regionFlags) rect() (image.Rectangle, error) {
	if r.width <= 0 || r.height <= 0 {
		return image.Rectangle{}, fmt.Errorf("--width and --height must be positive, got %dx%d", r.width, r.height)
	}
	return image.Rect(r.x, r.y, r.x+r.width, r.y+r.height), nil
}

func (r *regionFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&r.x, "x", 0, "Left edge in desktop coordinates")
	cmd.Flags().IntVar(&r.y, "y", 0, "Top edge in desktop coordinates")
	cmd.Flags().IntVar(&r.width, "width", 0, "Region width in pixels")
	cmd.Flags().IntVar(&r.height, "height", 0, "Region height in pixels")
	_ = cmd.MarkFlagRequired("width")
	_ = cmd.MarkFlagRequired("height")
}

func main() {
	var err error
	// GLFW must own the process main thread.
	mainthread.Init(func() { err = runWithArgs(os.Args) })
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"region-capture-cli"}
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := &cliOptions{stdout: os.Stdout}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.ExecuteContext(ctx)
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           "region-capture-cli",
		Short:         "Select, sample and record screen regions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			rt, err := runtimeinit.Bootstrap(ctx, runtimeinit.Options{
				LoadOptions: config.LoadOptions{EnvFileOverride: opts.envFile, LogLevelOverride: opts.logLevel},
				Program:     "region-capture-cli",
				Stderr:      true,
			})
			if err != nil {
				return err
			}
			opts.rt = rt
			cmd.SetContext(rt.Ctx)
			logger.Debugf(rt.Ctx, "command: %s", cmd.CommandPath())
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.rt == nil {
				return nil
			}
			return opts.rt.Close()
		},
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Path to a .env file (highest precedence)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: trace, debug, info, warning, error")

	root.AddCommand(newSelectCmd(opts), newSampleCmd(opts), newRecordCmd(opts), newDisplaysCmd(opts))
	return root
}

func newSelectCmd(opts *cliOptions) *cobra.Command {
	var (
		output    string
		noEditors bool
	)
	cmd := &cobra.Command{
		Use:   "select",
		Short: "Freeze all displays and select a region interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := opts.rt.Config
			selector := overlay.New(
				glfwbackend.New(ctx),
				mainthread.MainThread{},
				overlay.WithFrameInterval(time.Second/time.Duration(cfg.FrameRate)),
			)
			_, err := session.Execute(ctx, session.Options{
				Selector:    selector,
				ShowEditors: cfg.ShowEditors && !noEditors,
				Target:      selectTarget(output, cfg, opts.stdout),
			})
			if errors.Is(err, session.ErrSelectionCancelled) {
				logger.Infof(ctx, "selection cancelled")
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "PNG file to write, '-' for stdout (default: OUTPUT_DIR or clipboard)")
	cmd.Flags().BoolVar(&noEditors, "no-editors", false, "Do not show editor decorations")
	return cmd
}

// selectTarget picks where a capture is delivered.
func selectTarget(output string, cfg *config.Config, stdout io.Writer) session.ResultTarget {
	switch {
	case output == "-":
		return session.WriterTarget{Writer: stdout}
	case output != "":
		return &session.FileTarget{Path: output}
	case cfg.OutputDir != "":
		return &session.FileTarget{Dir: cfg.OutputDir}
	default:
		return session.ClipboardTarget{}
	}
}

func newSampleCmd(opts *cliOptions) *cobra.Command {
	var (
		region regionFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Sample a live screen region with the cursor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rect, err := region.rect()
			if err != nil {
				return err
			}

			c, err := capture.Open()
			if err != nil {
				return fmt.Errorf("unable to open a capture context: %w", err)
			}
			defer c.Close()

			pix, err := c.Sample(rect.Min.X, rect.Min.Y, rect.Dx(), rect.Dy())
			if err != nil {
				return err
			}
			res := &overlay.Result{
				Coordinate: screenshot.Coordinate{X: int32(rect.Min.X), Y: int32(rect.Min.Y)},
				Width:      rect.Dx(),
				Height:     rect.Dy(),
				RGBA:       pix,
			}
			return selectTarget(output, opts.rt.Config, opts.stdout).OnSuccess(ctx, res)
		},
	}
	region.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "PNG file to write, '-' for stdout (default: OUTPUT_DIR or clipboard)")
	return cmd
}

func newRecordCmd(opts *cliOptions) *cobra.Command {
	var (
		region  regionFlags
		frames  int
		fps     int
		dir     string
		workers int
	)
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a live screen region as numbered PNG frames",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rect, err := region.rect()
			if err != nil {
				return err
			}
			if fps <= 0 {
				fps = opts.rt.Config.RecordFPS
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("unable to create %s: %w", dir, err)
			}

			var sampler recorder.Sampler
			if opts.newSampler != nil {
				sampler = opts.newSampler()
			} else {
				sampler = capture.NewShared()
			}
			rec, err := recorder.New(sampler, recorder.Options{Rect: rect, FPS: fps, Frames: frames, Workers: workers})
			if err != nil {
				return err
			}
			stats, err := rec.Run(ctx, frameWriter(dir))
			fmt.Fprintf(opts.stdout, "sampled=%d delivered=%d dropped=%d failed=%d duration=%s\n",
				stats.Sampled, stats.Delivered, stats.Dropped, stats.Failed, stats.Duration.Round(time.Millisecond))
			return err
		},
	}
	region.register(cmd)
	cmd.Flags().IntVar(&frames, "frames", 0, "Number of frames to sample (0 = until interrupted)")
	cmd.Flags().IntVar(&fps, "fps", 0, "Frames per second (default: RECORD_FPS)")
	cmd.Flags().StringVar(&dir, "dir", "frames", "Directory for the frame files")
	cmd.Flags().IntVar(&workers, "workers", 0, "Encoder workers (0 = NumCPU)")
	return cmd
}

// frameWriter encodes each frame to dir/frame_NNNNN.png.
func frameWriter(dir string) worker.Handler {
	return func(ctx context.Context, f worker.Frame) error {
		data, err := session.EncodePNG(&overlay.Result{Width: f.Rect.Dx(), Height: f.Rect.Dy(), RGBA: f.Pix})
		if err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(dir, frameName(f.Index)), data, 0o644)
	}
}

func frameName(index int) string {
	return fmt.Sprintf("frame_%05d.png", index)
}

func newDisplaysCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "displays",
		Short: "List the active displays",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bounds := screenshot.DisplayBounds(nil)
			if len(bounds) == 0 {
				return errors.New("no active displays found")
			}
			for i, b := range bounds {
				fmt.Fprintf(opts.stdout, "%d: %dx%d at (%d,%d)\n", i, b.Dx(), b.Dy(), b.Min.X, b.Min.Y)
			}
			return nil
		},
	}
}
