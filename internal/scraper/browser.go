package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Page is the browser surface the extractor drives: one tab, used serially.
type Page interface {
	Navigate(ctx context.Context, url string) error
	LoadMoreVisible(ctx context.Context) (bool, error)
	ClickLoadMore(ctx context.Context) error
	LiveRegionText(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)
	Wait(ctx context.Context, d time.Duration) error
}

// BrowserOptions configures the headless Chrome instance.
type BrowserOptions struct {
	ExecPath  string // empty uses chromedp's lookup
	Headless  bool
	UserAgent string
}

// ChromePage is a Page backed by a chromedp-controlled Chrome tab.
type ChromePage struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewChromePage launches Chrome and opens a tab. Close releases both.
func NewChromePage(parent context.Context, opts BrowserOptions) (*ChromePage, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// The first Run starts the browser and the tab.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("starting chrome: %w", err)
	}

	return &ChromePage{
		ctx: browserCtx,
		cancel: func() {
			cancelBrowser()
			cancelAlloc()
		},
	}, nil
}

// Close shuts the tab and the browser down.
func (p *ChromePage) Close() {
	p.cancel()
}

// run executes actions on the tab, aborting them if ctx is cancelled.
func (p *ChromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (p *ChromePage) Navigate(ctx context.Context, url string) error {
	return p.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (p *ChromePage) LoadMoreVisible(ctx context.Context) (bool, error) {
	var visible bool
	js := fmt.Sprintf(`(() => {
		const b = Array.from(document.querySelectorAll("button")).find(el => el.textContent.trim() === %q);
		return !!b && !b.disabled && b.offsetParent !== null;
	})()`, loadMoreLabel)
	if err := p.run(ctx, chromedp.Evaluate(js, &visible)); err != nil {
		return false, err
	}
	return visible, nil
}

func (p *ChromePage) ClickLoadMore(ctx context.Context) error {
	var clicked bool
	js := fmt.Sprintf(`(() => {
		const b = Array.from(document.querySelectorAll("button")).find(el => el.textContent.trim() === %q);
		if (!b) return false;
		b.click();
		return true;
	})()`, loadMoreLabel)
	if err := p.run(ctx, chromedp.Evaluate(js, &clicked)); err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("%s button not found", loadMoreLabel)
	}
	return nil
}

func (p *ChromePage) LiveRegionText(ctx context.Context) (string, error) {
	var text string
	js := fmt.Sprintf(`(document.querySelector(%q) || {}).textContent || ""`, liveRegionQuery)
	if err := p.run(ctx, chromedp.Evaluate(js, &text)); err != nil {
		return "", err
	}
	return text, nil
}

func (p *ChromePage) HTML(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

func (p *ChromePage) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
