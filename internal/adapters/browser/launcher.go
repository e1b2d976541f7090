// Package browser drives a real Chrome through chromedp and exposes it as a
// page session.
package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"place_extractor/internal/domain"
)

type Options struct {
	Headless     bool
	UserAgent    string
	WindowWidth  int
	WindowHeight int
	// ExecPath overrides the Chrome binary lookup.
	ExecPath string
	Logger   zerolog.Logger
}

// Launcher starts one browser process per session.
type Launcher struct {
	opts Options
}

func NewLauncher(o Options) *Launcher {
	if o.WindowWidth <= 0 || o.WindowHeight <= 0 {
		o.WindowWidth, o.WindowHeight = 1440, 900
	}
	return &Launcher{opts: o}
}

func (l *Launcher) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.opts.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(l.opts.WindowWidth, l.opts.WindowHeight),
	)
	if l.opts.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(l.opts.UserAgent))
	}
	if l.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(l.opts.ExecPath))
	}
	return opts
}

// Open starts the browser and its first tab. The session lives until Close or
// until ctx is canceled.
func (l *Launcher) Open(ctx context.Context) (domain.Page, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, l.allocatorOptions()...)

	lg := l.opts.Logger
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			lg.Debug().Str("component", "chromedp").Msgf(format, args...)
		}),
		chromedp.WithErrorf(func(format string, args ...interface{}) {
			lg.Warn().Str("component", "chromedp").Msgf(format, args...)
		}),
	)

	// An empty Run starts the browser so bootstrap failures surface here.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	lg.Debug().Bool("headless", l.opts.Headless).Msg("browser session started")

	return &Session{
		tab: tabCtx,
		close: func() {
			cancelTab()
			cancelAlloc()
		},
		log: lg,
	}, nil
}
