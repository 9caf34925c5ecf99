// internal/task/manager.go
package task

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scrapeflow/scrapeflow/internal/config"
	"github.com/scrapeflow/scrapeflow/internal/export"
	"github.com/scrapeflow/scrapeflow/internal/monitoring"
	"github.com/scrapeflow/scrapeflow/internal/utils"
)

// Runner executes a validated scrape configuration, reporting progress as an
// integer percentage after each completed page. The scraper engine is the
// production implementation; tests substitute stubs.
type Runner interface {
	Run(ctx context.Context, cfg config.ScrapeConfig, progress func(int)) ([]export.Record, error)
}

// Manager owns the in-memory task table and schedules one worker goroutine
// per submitted task. It is safe for concurrent use: the table is guarded by
// a single RWMutex with one writer per task and any number of readers.
type Manager struct {
	mu    sync.RWMutex
	tasks map[string]*entry
	order []string // creation order, oldest first

	runner   Runner
	exporter *export.Exporter
	metrics  *monitoring.Metrics
	logger   utils.Logger
	wg       sync.WaitGroup
}

// NewManager creates a task manager. The runner and exporter are required;
// a nil logger falls back to the default.
func NewManager(runner Runner, exporter *export.Exporter, logger utils.Logger) *Manager {
	if logger == nil {
		logger = utils.NewLogger()
	}
	return &Manager{
		tasks:    make(map[string]*entry),
		runner:   runner,
		exporter: exporter,
		logger:   logger,
	}
}

// WithMetrics attaches a metrics set. Must be called before the first
// Submit.
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Submit validates nothing beyond a defensive re-check, creates a queued
// task with a fresh identifier and schedules its worker goroutine. It
// returns before the scrape starts; submissions of the same URL produce
// independent tasks.
func (m *Manager) Submit(cfg config.ScrapeConfig) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", fmt.Errorf("invalid configuration: %w", err)
	}

	id := uuid.NewString()
	e := &entry{
		id:        id,
		url:       cfg.Targets()[0],
		status:    StatusQueued,
		createdAt: time.Now(),
	}

	m.mu.Lock()
	m.tasks[id] = e
	m.order = append(m.order, id)
	m.mu.Unlock()

	m.logger.Infof("task %s submitted for %s", id, e.url)

	m.wg.Add(1)
	go m.run(id, cfg)

	return id, nil
}

// Status returns a read-only snapshot of the task. It never blocks on
// in-flight scrape work.
func (m *Manager) Status(id string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.tasks[id]
	if !ok {
		return Snapshot{}, ErrTaskNotFound
	}
	return e.snapshot(), nil
}

// Result returns the accumulated records of a completed task.
func (m *Manager) Result(id string) ([]export.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	if e.status != StatusCompleted {
		return nil, ErrTaskNotReady
	}

	records := make([]export.Record, len(e.records))
	copy(records, e.records)
	return records, nil
}

// OutputPath returns the exported file path of a completed task.
func (m *Manager) OutputPath(id string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.tasks[id]
	if !ok {
		return "", ErrTaskNotFound
	}
	if e.status != StatusCompleted || e.outputPath == "" {
		return "", ErrTaskNotReady
	}
	return e.outputPath, nil
}

// ListRecent returns snapshots of the most recently created tasks, newest
// first, at most limit entries.
func (m *Manager) ListRecent(limit int) []Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.order) {
		limit = len(m.order)
	}

	snapshots := make([]Snapshot, 0, limit)
	for i := len(m.order) - 1; i >= 0 && len(snapshots) < limit; i-- {
		snapshots = append(snapshots, m.tasks[m.order[i]].snapshot())
	}
	return snapshots
}

// Stats aggregates the live task table: totals by status, items scraped by
// completed tasks, the most frequently scraped domains and the average
// item count per completed task.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{MostCommonDomains: []string{}}
	domainCounts := make(map[string]int)

	for _, e := range m.tasks {
		stats.TotalTasks++
		switch e.status {
		case StatusCompleted:
			stats.CompletedTasks++
			stats.TotalItemsScraped += e.totalItems
		case StatusFailed:
			stats.FailedTasks++
		}
		if domain := utils.ExtractDomain(e.url); domain != "" {
			domainCounts[domain]++
		}
	}

	if stats.CompletedTasks > 0 {
		stats.AverageItemsPerTask = float64(stats.TotalItemsScraped) / float64(stats.CompletedTasks)
	}
	stats.MostCommonDomains = topDomains(domainCounts, 5)

	return stats
}

// topDomains ranks domains by task count, most frequent first, ties broken
// alphabetically for a stable order.
func topDomains(counts map[string]int, limit int) []string {
	domains := make([]string, 0, len(counts))
	for domain := range counts {
		domains = append(domains, domain)
	}

	sort.Slice(domains, func(i, j int) bool {
		if counts[domains[i]] != counts[domains[j]] {
			return counts[domains[i]] > counts[domains[j]]
		}
		return domains[i] < domains[j]
	})

	if len(domains) > limit {
		domains = domains[:limit]
	}
	return domains
}

// Wait blocks until all in-flight workers have reached a terminal state.
// Used by the CLI and by tests; the HTTP server never calls it.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// run is the per-task worker. It drives the runner, exports on success and
// records the terminal state. Errors are captured into the task and exposed
// only via polling, never returned to a caller.
func (m *Manager) run(id string, cfg config.ScrapeConfig) {
	defer m.wg.Done()

	m.setRunning(id)
	start := time.Now()

	records, err := m.runner.Run(context.Background(), cfg, func(p int) {
		m.setProgress(id, p)
	})
	if err != nil {
		m.fail(id, err)
		m.observeFinished(StatusFailed, start, 0)
		return
	}

	// Exported artifacts are named after the task so downloads are
	// traceable to the task that produced them.
	exportStart := time.Now()
	path, err := m.exporter.Export(records, "web_scrape_"+id, cfg.ExportFormat)
	if m.metrics != nil {
		m.metrics.ExportObserved(cfg.ExportFormat, time.Since(exportStart).Seconds(), err)
	}
	if err != nil {
		m.fail(id, err)
		m.observeFinished(StatusFailed, start, 0)
		return
	}

	m.complete(id, records, path)
	m.observeFinished(StatusCompleted, start, len(records))
}

func (m *Manager) setRunning(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.tasks[id]; ok && e.status == StatusQueued {
		e.status = StatusRunning
	}
	if m.metrics != nil {
		m.metrics.TaskStarted()
	}
}

// setProgress enforces monotonicity: progress never decreases and terminal
// tasks are immutable.
func (m *Manager) setProgress(id string, progress int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.tasks[id]
	if !ok || e.terminal() {
		return
	}
	if progress > 100 {
		progress = 100
	}
	if progress > e.progress {
		e.progress = progress
	}
}

func (m *Manager) fail(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.tasks[id]
	if !ok || e.terminal() {
		return
	}

	now := time.Now()
	e.status = StatusFailed
	e.errMsg = err.Error()
	e.completedAt = &now
	e.records = nil
	e.outputPath = ""
	e.totalItems = 0

	m.logger.Errorf("task %s failed: %v", id, err)
}

func (m *Manager) complete(id string, records []export.Record, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.tasks[id]
	if !ok || e.terminal() {
		return
	}

	now := time.Now()
	e.status = StatusCompleted
	e.progress = 100
	e.records = records
	e.outputPath = path
	e.totalItems = len(records)
	e.completedAt = &now

	m.logger.Infof("task %s completed with %d items, exported to %s", id, len(records), path)
}

func (m *Manager) observeFinished(status Status, start time.Time, items int) {
	if m.metrics == nil {
		return
	}
	m.metrics.TaskFinished(string(status), time.Since(start).Seconds(), items)
}
