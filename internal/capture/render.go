// Package capture loads a live schedule page in headless Chrome and returns
// its rendered HTML, for portals that build the list view with JavaScript.
package capture

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	// DefaultWaitSelector is the container that holds the schedule list.
	DefaultWaitSelector = "#scheduleListView"
	DefaultTimeout      = 30 * time.Second
)

// ErrNoURL is returned when Options.URL is empty.
var ErrNoURL = errors.New("capture: URL is required")

// Options defines parameters for a headless page render.
type Options struct {
	// URL of the schedule page.
	URL string

	// WaitSelector must be present before the HTML is read. Defaults to
	// DefaultWaitSelector.
	WaitSelector string

	// Timeout bounds the whole render. Defaults to DefaultTimeout.
	Timeout time.Duration

	// ExecPath points at a Chrome or Chromium binary. Empty means the
	// chromedp lookup on PATH.
	ExecPath string
}

func (o Options) withDefaults() (Options, error) {
	if o.URL == "" {
		return o, ErrNoURL
	}
	if o.WaitSelector == "" {
		o.WaitSelector = DefaultWaitSelector
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o, nil
}

// Render navigates to opts.URL, waits for opts.WaitSelector to be in the
// DOM and returns the document's outer HTML.
func Render(parentCtx context.Context, opts Options) (string, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return "", err
	}

	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(parentCtx, allocOpts...)
	defer allocCancel()

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var html string
	tasks := chromedp.Tasks{
		chromedp.Navigate(opts.URL),
		chromedp.WaitReady(opts.WaitSelector, chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return "", fmt.Errorf("capture: chromedp run failed: %w", err)
	}
	return html, nil
}
