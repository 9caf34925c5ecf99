// internal/browser/chromedp.go
package browser

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// userAgents is the rotation pool used when no explicit user agent is
// configured.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:121.0) Gecko/20100101 Firefox/121.0",
}

// cookieSelectors are tried in order when dismissing consent overlays that
// would otherwise sit on top of the content.
var cookieSelectors = []string{
	`[id*="cookie"]`,
	`[class*="cookie"]`,
	`[id*="consent"]`,
	`[class*="consent"]`,
	`button[aria-label*="Accept"]`,
	`button[aria-label*="Close"]`,
}

const (
	scrollToMiddleScript = `window.scrollTo(0, document.body.scrollHeight/2)`
	scrollToTopScript    = `window.scrollTo(0, 0)`
)

// dismissOverlayScript clicks the first visible element matching one of the
// cookie selectors and reports whether anything was clicked.
func dismissOverlayScript() string {
	quoted := make([]string, len(cookieSelectors))
	for i, sel := range cookieSelectors {
		quoted[i] = fmt.Sprintf("%q", sel)
	}
	return fmt.Sprintf(`(() => {
	const selectors = [%s];
	for (const sel of selectors) {
		let el;
		try { el = document.querySelector(sel); } catch (e) { continue; }
		if (el && el.offsetParent !== null) {
			el.click();
			return true;
		}
	}
	return false;
})()`, strings.Join(quoted, ", "))
}

// ChromeSession implements Session using chromedp.
type ChromeSession struct {
	ctx         context.Context
	cancelChain []context.CancelFunc
	config      SessionConfig
}

// NewChromeSession launches a Chrome instance configured for one scrape
// task. The caller must Close the session to release the browser.
func NewChromeSession(cfg SessionConfig) (Session, error) {
	defaults := DefaultSessionConfig()
	if cfg.ViewportWidth <= 0 {
		cfg.ViewportWidth = defaults.ViewportWidth
	}
	if cfg.ViewportHeight <= 0 {
		cfg.ViewportHeight = defaults.ViewportHeight
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = userAgents[rand.Intn(len(userAgents))]
	}

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.NoSandbox, // Required for Docker environments
		chromedp.UserAgent(userAgent),
	}
	if cfg.Headless {
		opts = append(opts, chromedp.Headless)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, ctxCancel := chromedp.NewContext(allocCtx)

	session := &ChromeSession{
		ctx:         ctx,
		cancelChain: []context.CancelFunc{ctxCancel, allocCancel},
		config:      cfg,
	}

	if err := chromedp.Run(ctx, chromedp.EmulateViewport(
		int64(cfg.ViewportWidth), int64(cfg.ViewportHeight))); err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to initialize browser: %w", err)
	}

	return session, nil
}

// Navigate loads the URL and waits for the page to be ready. The configured
// wait-for selector and settle delay apply after the document body is ready.
func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	tasks := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		pageInteractions(),
	}

	if s.config.WaitForSelector != "" {
		tasks = append(tasks, chromedp.WaitVisible(s.config.WaitForSelector))
	}

	if s.config.WaitDelay > 0 {
		tasks = append(tasks, chromedp.Sleep(s.config.WaitDelay))
	}

	navCtx, cancel := context.WithTimeout(s.ctx, s.config.Timeout)
	defer cancel()

	if err := chromedp.Run(navCtx, tasks...); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}

	return nil
}

// pageInteractions dismisses cookie banners and scrolls halfway down and
// back so lazy-loaded content is in the DOM before extraction. Every step
// is best effort: a page that rejects the scripts still scrapes.
func pageInteractions() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		var clicked bool
		if err := chromedp.Evaluate(dismissOverlayScript(), &clicked).Do(ctx); err == nil && clicked {
			chromedp.Sleep(500 * time.Millisecond).Do(ctx)
		}

		if err := chromedp.Evaluate(scrollToMiddleScript, nil).Do(ctx); err != nil {
			return nil
		}
		chromedp.Sleep(time.Second).Do(ctx)
		chromedp.Evaluate(scrollToTopScript, nil).Do(ctx)

		return nil
	})
}

// HTML returns the outer HTML of the current page.
func (s *ChromeSession) HTML(ctx context.Context) (string, error) {
	var html string
	if err := chromedp.Run(s.ctx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	return html, nil
}

// Close tears down the browser contexts.
func (s *ChromeSession) Close() error {
	for _, cancel := range s.cancelChain {
		cancel()
	}
	return nil
}
