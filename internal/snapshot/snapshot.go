// Package snapshot renders the bulletin page in headless Chrome and captures
// it as an image, for printing or sharing in chat groups.
package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Options controls the capture.
type Options struct {
	// ChromePath is the browser executable; empty uses chromedp's lookup.
	ChromePath string

	// Quality below 100 produces a JPEG of that quality; 100 or unset produces a PNG.
	Quality int

	// Settle is how long to wait after the status line appears.
	Settle time.Duration
}

// Capture navigates to url, waits for the bulletin status line and returns a
// full-page screenshot.
func Capture(ctx context.Context, url string, opts Options) ([]byte, error) {
	chromeCtx, cancel := newBrowser(ctx, opts)
	defer cancel()

	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = 100
	}

	var buf []byte
	err := chromedp.Run(chromeCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible(`#data-status`, chromedp.ByQuery),
		chromedp.Sleep(opts.Settle),
		chromedp.FullScreenshot(&buf, quality),
	)
	if err != nil {
		return nil, fmt.Errorf("capturing %s: %w", url, err)
	}

	return buf, nil
}

// StatusText navigates to url and returns the text of the status line.
func StatusText(ctx context.Context, url string, opts Options) (string, error) {
	chromeCtx, cancel := newBrowser(ctx, opts)
	defer cancel()

	var text string
	err := chromedp.Run(chromeCtx,
		chromedp.Navigate(url),
		chromedp.Text(`#data-status`, &text, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("reading status from %s: %w", url, err)
	}
	return text, nil
}

// newBrowser starts a headless Chrome tab. The returned cancel shuts the browser down.
func newBrowser(ctx context.Context, opts Options) (context.Context, context.CancelFunc) {
	allocOpts := chromedp.DefaultExecAllocatorOptions[:]
	if opts.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ChromePath))
	}
	allocOpts = append(allocOpts,
		chromedp.Headless,
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.WindowSize(1024, 1400),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	chromeCtx, chromeCancel := chromedp.NewContext(allocCtx)
	return chromeCtx, func() {
		chromeCancel()
		allocCancel()
	}
}
