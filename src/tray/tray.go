// Package tray shows the resident system tray icon with capture and quit
// entries.
package tray

import (
	"context"
	"runtime"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/getlantern/systray"
)

type Config struct {
	Title     string
	Tooltip   string
	OnCapture func()
	OnExit    func()
}

type Tray struct {
	ctx      context.Context
	cfg      Config
	mu       sync.Mutex
	ready    bool
	tooltip  string
	quitOnce sync.Once
}

func New(ctx context.Context, cfg Config) *Tray {
	return &Tray{ctx: ctx, cfg: cfg, tooltip: cfg.Tooltip}
}

// Run blocks until Destroy is called or the user quits.
func (t *Tray) Run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	logger.Debugf(t.ctx, "tray ready")
	systray.SetIcon(Icon())
	systray.SetTitle(t.cfg.Title)

	t.mu.Lock()
	t.ready = true
	systray.SetTooltip(t.tooltip)
	t.mu.Unlock()

	mCapture := systray.AddMenuItem("Capture Region", "Select a region to capture")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit the application")

	go func() {
		for {
			select {
			case <-mCapture.ClickedCh:
				if t.cfg.OnCapture != nil {
					t.cfg.OnCapture()
				}
			case <-mQuit.ClickedCh:
				t.Destroy()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
	logger.Debugf(t.ctx, "tray exited")
	if t.cfg.OnExit != nil {
		t.cfg.OnExit()
	}
}

// UpdateTooltip sets the tooltip now, or once the tray is ready.
func (t *Tray) UpdateTooltip(tooltip string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tooltip = tooltip
	if t.ready {
		systray.SetTooltip(tooltip)
	}
}

func (t *Tray) Destroy() {
	t.quitOnce.Do(systray.Quit)
}
