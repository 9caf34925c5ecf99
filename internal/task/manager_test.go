// internal/task/manager_test.go
package task

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/scrapeflow/scrapeflow/internal/config"
	"github.com/scrapeflow/scrapeflow/internal/export"
	"github.com/scrapeflow/scrapeflow/internal/utils"
)

type stubRunner struct {
	records  []export.Record
	err      error
	progress []int
	delay    time.Duration
}

func (r *stubRunner) Run(ctx context.Context, cfg config.ScrapeConfig, progress func(int)) ([]export.Record, error) {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	for _, p := range r.progress {
		progress(p)
	}
	return r.records, r.err
}

func newTestManager(t *testing.T, runner Runner) *Manager {
	t.Helper()
	exporter, err := export.NewExporter(t.TempDir(), utils.NewLoggerWithLevel(utils.ErrorLevel))
	if err != nil {
		t.Fatalf("NewExporter failed: %v", err)
	}
	return NewManager(runner, exporter, utils.NewLoggerWithLevel(utils.ErrorLevel))
}

func testConfig() config.ScrapeConfig {
	cfg := config.DefaultConfig()
	cfg.URL = "https://example.com"
	cfg.Selectors = []string{"h1"}
	cfg.Delay = 0
	return cfg
}

func TestSubmitAssignsUniqueIDs(t *testing.T) {
	m := newTestManager(t, &stubRunner{records: []export.Record{{"text": "a"}}})
	cfg := testConfig()

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		id, err := m.Submit(cfg)
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate task id %q", id)
		}
		seen[id] = true
	}
	m.Wait()
}

func TestSubmitRejectsInvalidConfig(t *testing.T) {
	m := newTestManager(t, &stubRunner{})
	cfg := testConfig()
	cfg.URL = "not-a-url"

	if _, err := m.Submit(cfg); err == nil {
		t.Fatal("expected error for invalid configuration")
	}
}

func TestTaskCompletes(t *testing.T) {
	records := []export.Record{{"text": "hello"}, {"text": "world"}}
	m := newTestManager(t, &stubRunner{records: records, progress: []int{50, 100}})

	id, err := m.Submit(testConfig())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	m.Wait()

	snap, err := m.Status(id)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if snap.Status != StatusCompleted {
		t.Fatalf("status = %q, want %q", snap.Status, StatusCompleted)
	}
	if snap.Progress != 100 {
		t.Errorf("progress = %d, want 100", snap.Progress)
	}
	if snap.TotalItems != 2 {
		t.Errorf("total items = %d, want 2", snap.TotalItems)
	}
	if snap.CompletedAt == nil {
		t.Error("completed task has no completion time")
	}
	if snap.ErrorMessage != "" {
		t.Errorf("unexpected error message %q", snap.ErrorMessage)
	}

	got, err := m.Result(id)
	if err != nil {
		t.Fatalf("Result failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}

	path, err := m.OutputPath(id)
	if err != nil {
		t.Fatalf("OutputPath failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("exported file missing: %v", err)
	}
	if !strings.HasSuffix(path, ".json") {
		t.Errorf("output path %q does not end in .json", path)
	}
}

func TestTaskFailureDiscardsPartialState(t *testing.T) {
	m := newTestManager(t, &stubRunner{
		err:      errors.New("navigation refused"),
		progress: []int{50},
	})

	id, err := m.Submit(testConfig())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	m.Wait()

	snap, err := m.Status(id)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if snap.Status != StatusFailed {
		t.Fatalf("status = %q, want %q", snap.Status, StatusFailed)
	}
	if snap.ErrorMessage == "" {
		t.Error("failed task has no error message")
	}
	if snap.TotalItems != 0 {
		t.Errorf("total items = %d, want 0", snap.TotalItems)
	}
	if snap.OutputFile != "" {
		t.Errorf("failed task has output file %q", snap.OutputFile)
	}

	if _, err := m.Result(id); !errors.Is(err, ErrTaskNotReady) {
		t.Errorf("Result error = %v, want ErrTaskNotReady", err)
	}
	if _, err := m.OutputPath(id); !errors.Is(err, ErrTaskNotReady) {
		t.Errorf("OutputPath error = %v, want ErrTaskNotReady", err)
	}
}

func TestStatusUnknownTask(t *testing.T) {
	m := newTestManager(t, &stubRunner{})

	if _, err := m.Status("missing"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Status error = %v, want ErrTaskNotFound", err)
	}
	if _, err := m.Result("missing"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Result error = %v, want ErrTaskNotFound", err)
	}
	if _, err := m.OutputPath("missing"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("OutputPath error = %v, want ErrTaskNotFound", err)
	}
}

func TestResultBeforeCompletion(t *testing.T) {
	m := newTestManager(t, &stubRunner{
		records: []export.Record{{"text": "slow"}},
		delay:   200 * time.Millisecond,
	})

	id, err := m.Submit(testConfig())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if _, err := m.Result(id); !errors.Is(err, ErrTaskNotReady) {
		t.Errorf("Result error = %v, want ErrTaskNotReady", err)
	}
	m.Wait()

	if _, err := m.Result(id); err != nil {
		t.Errorf("Result after completion failed: %v", err)
	}
}

func TestListRecentOrderAndLimit(t *testing.T) {
	m := newTestManager(t, &stubRunner{records: []export.Record{{"text": "a"}}})
	cfg := testConfig()

	var ids []string
	for i := 0; i < 4; i++ {
		id, err := m.Submit(cfg)
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		ids = append(ids, id)
	}
	m.Wait()

	recent := m.ListRecent(2)
	if len(recent) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(recent))
	}
	if recent[0].ID != ids[3] || recent[1].ID != ids[2] {
		t.Errorf("snapshots not newest first: got %s, %s", recent[0].ID, recent[1].ID)
	}

	all := m.ListRecent(0)
	if len(all) != 4 {
		t.Errorf("limit 0 returned %d snapshots, want all 4", len(all))
	}
}

func TestStatsAggregatesTaskTable(t *testing.T) {
	okRunner := &stubRunner{records: []export.Record{{"text": "a"}, {"text": "b"}}}
	m := newTestManager(t, okRunner)

	cfg := testConfig()
	cfg.URL = "https://news.example.com/front"
	for i := 0; i < 2; i++ {
		if _, err := m.Submit(cfg); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}
	cfg.URL = "https://shop.example.com/items"
	if _, err := m.Submit(cfg); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	m.Wait()

	okRunner.err = errors.New("navigation refused")
	cfg.URL = "https://news.example.com/broken"
	if _, err := m.Submit(cfg); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	m.Wait()

	stats := m.Stats()
	if stats.TotalTasks != 4 {
		t.Errorf("total tasks = %d, want 4", stats.TotalTasks)
	}
	if stats.CompletedTasks != 3 {
		t.Errorf("completed tasks = %d, want 3", stats.CompletedTasks)
	}
	if stats.FailedTasks != 1 {
		t.Errorf("failed tasks = %d, want 1", stats.FailedTasks)
	}
	if stats.TotalItemsScraped != 6 {
		t.Errorf("total items = %d, want 6", stats.TotalItemsScraped)
	}
	if stats.AverageItemsPerTask != 2 {
		t.Errorf("average items = %v, want 2", stats.AverageItemsPerTask)
	}
	want := []string{"news.example.com", "shop.example.com"}
	if len(stats.MostCommonDomains) != 2 ||
		stats.MostCommonDomains[0] != want[0] || stats.MostCommonDomains[1] != want[1] {
		t.Errorf("domains = %v, want %v", stats.MostCommonDomains, want)
	}
}

func TestStatsEmptyTable(t *testing.T) {
	m := newTestManager(t, &stubRunner{})

	stats := m.Stats()
	if stats.TotalTasks != 0 || stats.AverageItemsPerTask != 0 {
		t.Errorf("unexpected stats for empty table: %+v", stats)
	}
	if stats.MostCommonDomains == nil {
		t.Error("domains should be an empty slice, not nil")
	}
}

func TestProgressMonotonic(t *testing.T) {
	m := newTestManager(t, &stubRunner{
		records:  []export.Record{{"text": "a"}},
		progress: []int{60, 30, 150},
	})

	id, err := m.Submit(testConfig())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	m.Wait()

	snap, err := m.Status(id)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if snap.Progress != 100 {
		t.Errorf("progress = %d, want 100", snap.Progress)
	}
}
