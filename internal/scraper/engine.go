// internal/scraper/engine.go

// Package scraper drives a browser session across the configured pages and
// turns matched elements into field records.
package scraper

import (
	"context"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/scrapeflow/scrapeflow/internal/browser"
	"github.com/scrapeflow/scrapeflow/internal/config"
	"github.com/scrapeflow/scrapeflow/internal/utils"
)

// Engine executes a validated scrape configuration with one browser session
// per run. It implements the task manager's Runner contract.
type Engine struct {
	newSession browser.SessionFactory
	logger     utils.Logger
}

// NewEngine creates an engine backed by real Chrome sessions.
func NewEngine(logger utils.Logger) *Engine {
	return NewEngineWithFactory(browser.NewChromeSession, logger)
}

// NewEngineWithFactory creates an engine with a custom session factory.
// Tests use this to substitute a fake browser.
func NewEngineWithFactory(factory browser.SessionFactory, logger utils.Logger) *Engine {
	if logger == nil {
		logger = utils.NewLogger()
	}
	return &Engine{
		newSession: factory,
		logger:     logger,
	}
}

// Run scrapes the configured pages in order and returns the accumulated
// records. The progress callback receives an integer percentage after each
// completed page. The first unrecoverable error aborts the run; partial
// results from earlier pages are discarded.
func (e *Engine) Run(ctx context.Context, cfg config.ScrapeConfig, progress func(int)) ([]FieldRecord, error) {
	if progress == nil {
		progress = func(int) {}
	}

	targets := cfg.Targets()
	if len(targets) == 0 {
		return nil, &NavigationError{Err: errors.New("no target URLs configured")}
	}
	if len(targets) > cfg.MaxPages {
		targets = targets[:cfg.MaxPages]
	}

	session, err := e.newSession(browser.SessionConfig{
		Headless:        cfg.Headless,
		UserAgent:       cfg.UserAgent,
		ViewportWidth:   cfg.Viewport.Width,
		ViewportHeight:  cfg.Viewport.Height,
		Timeout:         cfg.TimeoutDuration(),
		WaitForSelector: cfg.WaitForSelector,
		WaitDelay:       cfg.DelayDuration(),
	})
	if err != nil {
		return nil, &NavigationError{URL: targets[0], Err: err}
	}
	defer session.Close()

	var records []FieldRecord

	for i, target := range targets {
		e.logger.Infof("scraping page %d/%d: %s", i+1, len(targets), target)

		pageRecords, err := e.scrapePage(ctx, session, cfg, target)
		if err != nil {
			return nil, err
		}

		records = append(records, pageRecords...)
		e.logger.Infof("extracted %d items from %s", len(pageRecords), target)

		progress(100 * (i + 1) / len(targets))
	}

	return records, nil
}

// scrapePage loads one URL and runs every configured selector against it.
func (e *Engine) scrapePage(ctx context.Context, session browser.Session, cfg config.ScrapeConfig, target string) ([]FieldRecord, error) {
	if err := session.Navigate(ctx, target); err != nil {
		return nil, &NavigationError{URL: target, Err: err}
	}

	html, err := session.HTML(ctx)
	if err != nil {
		return nil, &NavigationError{URL: target, Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &ExtractionError{Selector: "", Err: err}
	}

	var records []FieldRecord
	for _, selector := range cfg.Selectors {
		selectorRecords, err := ExtractSelector(doc, selector, target)
		if err != nil {
			return nil, err
		}
		records = append(records, selectorRecords...)
	}

	return records, nil
}
