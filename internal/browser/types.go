// internal/browser/types.go

// Package browser wraps chromedp behind a small session interface. Each
// scrape task owns exactly one session; sessions are never shared.
package browser

import (
	"context"
	"time"
)

// Session is a single browser session capable of loading pages and returning
// their rendered HTML.
type Session interface {
	// Navigate loads a URL, optionally waiting for a selector to become
	// visible, and applies the configured settle delay.
	Navigate(ctx context.Context, url string) error
	// HTML returns the outer HTML of the current page.
	HTML(ctx context.Context) (string, error)
	// Close releases the browser session.
	Close() error
}

// SessionConfig controls browser launch and per-page behavior.
type SessionConfig struct {
	Headless        bool
	UserAgent       string
	ViewportWidth   int
	ViewportHeight  int
	Timeout         time.Duration // per-navigation budget
	WaitForSelector string        // optional; wait until visible after load
	WaitDelay       time.Duration // settle delay after load
}

// DefaultSessionConfig returns the session defaults used when a field is
// left at its zero value.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Headless:       true,
		ViewportWidth:  1280,
		ViewportHeight: 720,
		Timeout:        30 * time.Second,
	}
}

// SessionFactory creates sessions; the scraper depends on this so tests can
// substitute a fake browser.
type SessionFactory func(cfg SessionConfig) (Session, error)
