// internal/server/handlers_test.go
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/scrapeflow/scrapeflow/internal/config"
	"github.com/scrapeflow/scrapeflow/internal/export"
	"github.com/scrapeflow/scrapeflow/internal/task"
	"github.com/scrapeflow/scrapeflow/internal/utils"
)

type stubRunner struct {
	records []export.Record
	err     error
	delay   time.Duration
}

func (r *stubRunner) Run(ctx context.Context, cfg config.ScrapeConfig, progress func(int)) ([]export.Record, error) {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	progress(100)
	return r.records, r.err
}

func setupTestServer(t *testing.T, runner task.Runner) (*httptest.Server, *task.Manager) {
	t.Helper()

	logger := utils.NewLoggerWithLevel(utils.ErrorLevel)
	exporter, err := export.NewExporter(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("NewExporter failed: %v", err)
	}
	manager := task.NewManager(runner, exporter, logger)
	srv := httptest.NewServer(NewServer(manager, Options{Logger: logger}).Router())
	t.Cleanup(srv.Close)
	return srv, manager
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := setupTestServer(t, &stubRunner{})

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
}

func TestScrapeAccepted(t *testing.T) {
	srv, manager := setupTestServer(t, &stubRunner{records: []export.Record{{"text": "a"}}})

	resp := postJSON(t, srv.URL+"/api/scrape", map[string]interface{}{
		"url":       "https://example.com",
		"selectors": []string{"h1"},
		"delay":     0,
	})
	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected status 202, got %d. Body: %s", resp.StatusCode, body)
	}

	var created struct {
		TaskID string `json:"task_id"`
		Status string `json:"status"`
	}
	decodeBody(t, resp, &created)

	if created.TaskID == "" {
		t.Fatal("response has no task_id")
	}
	if created.Status != "queued" {
		t.Errorf("status = %q, want %q", created.Status, "queued")
	}
	manager.Wait()
}

func TestScrapeRejectsInvalidURL(t *testing.T) {
	srv, _ := setupTestServer(t, &stubRunner{})

	resp := postJSON(t, srv.URL+"/api/scrape", map[string]interface{}{
		"url": "not a url",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", resp.StatusCode)
	}
}

func TestStatusUnknownTask(t *testing.T) {
	srv, _ := setupTestServer(t, &stubRunner{})

	resp, err := http.Get(srv.URL + "/api/status/nope")
	if err != nil {
		t.Fatalf("status request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", resp.StatusCode)
	}
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	records := []export.Record{{"text": "hello", "index": 0}}
	srv, manager := setupTestServer(t, &stubRunner{records: records})

	resp := postJSON(t, srv.URL+"/api/scrape", map[string]interface{}{
		"url":       "https://example.com",
		"selectors": []string{"h1"},
		"delay":     0,
	})
	var created struct {
		TaskID string `json:"task_id"`
	}
	decodeBody(t, resp, &created)
	manager.Wait()

	statusResp, err := http.Get(srv.URL + "/api/status/" + created.TaskID)
	if err != nil {
		t.Fatalf("status request failed: %v", err)
	}
	var snap struct {
		Status     string `json:"status"`
		Progress   int    `json:"progress"`
		TotalItems int    `json:"total_items"`
	}
	decodeBody(t, statusResp, &snap)

	if snap.Status != "completed" {
		t.Fatalf("status = %q, want completed", snap.Status)
	}
	if snap.Progress != 100 {
		t.Errorf("progress = %d, want 100", snap.Progress)
	}
	if snap.TotalItems != 1 {
		t.Errorf("total_items = %d, want 1", snap.TotalItems)
	}

	resultsResp, err := http.Get(srv.URL + "/api/results/" + created.TaskID)
	if err != nil {
		t.Fatalf("results request failed: %v", err)
	}
	var got []map[string]interface{}
	decodeBody(t, resultsResp, &got)
	if len(got) != 1 || got[0]["text"] != "hello" {
		t.Errorf("unexpected results: %v", got)
	}

	downloadResp, err := http.Get(srv.URL + "/api/download/" + created.TaskID)
	if err != nil {
		t.Fatalf("download request failed: %v", err)
	}
	defer downloadResp.Body.Close()

	if downloadResp.StatusCode != http.StatusOK {
		t.Fatalf("download status = %d, want 200", downloadResp.StatusCode)
	}
	disposition := downloadResp.Header.Get("Content-Disposition")
	if !strings.Contains(disposition, "attachment") {
		t.Errorf("Content-Disposition = %q, want attachment", disposition)
	}
}

func TestResultsConflictWhileRunning(t *testing.T) {
	srv, manager := setupTestServer(t, &stubRunner{
		records: []export.Record{{"text": "slow"}},
		delay:   200 * time.Millisecond,
	})

	resp := postJSON(t, srv.URL+"/api/scrape", map[string]interface{}{
		"url":       "https://example.com",
		"selectors": []string{"h1"},
		"delay":     0,
	})
	var created struct {
		TaskID string `json:"task_id"`
	}
	decodeBody(t, resp, &created)

	resultsResp, err := http.Get(srv.URL + "/api/results/" + created.TaskID)
	if err != nil {
		t.Fatalf("results request failed: %v", err)
	}
	defer resultsResp.Body.Close()

	if resultsResp.StatusCode != http.StatusConflict {
		t.Errorf("expected status 409, got %d", resultsResp.StatusCode)
	}
	manager.Wait()
}

func TestListTasksLimit(t *testing.T) {
	srv, manager := setupTestServer(t, &stubRunner{records: []export.Record{{"text": "a"}}})

	for i := 0; i < 3; i++ {
		resp := postJSON(t, srv.URL+"/api/scrape", map[string]interface{}{
			"url":       fmt.Sprintf("https://example.com/page%d", i),
			"selectors": []string{"h1"},
			"delay":     0,
		})
		resp.Body.Close()
	}
	manager.Wait()

	resp, err := http.Get(srv.URL + "/api/tasks?limit=2")
	if err != nil {
		t.Fatalf("list request failed: %v", err)
	}
	var tasks []map[string]interface{}
	decodeBody(t, resp, &tasks)

	if len(tasks) != 2 {
		t.Errorf("got %d tasks, want 2", len(tasks))
	}

	badResp, err := http.Get(srv.URL + "/api/tasks?limit=abc")
	if err != nil {
		t.Fatalf("list request failed: %v", err)
	}
	defer badResp.Body.Close()
	if badResp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400 for bad limit, got %d", badResp.StatusCode)
	}
}

func TestValidateURLEndpoint(t *testing.T) {
	srv, _ := setupTestServer(t, &stubRunner{})

	tests := []struct {
		url   string
		valid bool
	}{
		{"https://example.com", true},
		{"not a url", false},
		{"", false},
	}

	for _, tt := range tests {
		resp := postJSON(t, srv.URL+"/api/validate-url", map[string]string{"url": tt.url})
		var body struct {
			Valid   bool   `json:"valid"`
			Message string `json:"message"`
		}
		decodeBody(t, resp, &body)

		if body.Valid != tt.valid {
			t.Errorf("url %q: valid = %v, want %v", tt.url, body.Valid, tt.valid)
		}
		if body.Message == "" {
			t.Errorf("url %q: empty message", tt.url)
		}
	}
}

func TestValidateConfigEndpoint(t *testing.T) {
	srv, _ := setupTestServer(t, &stubRunner{})

	resp := postJSON(t, srv.URL+"/api/config/validate", map[string]interface{}{
		"url":       "https://example.com",
		"selectors": []string{"h1", ".title"},
	})
	var body struct {
		Valid    bool     `json:"valid"`
		Errors   []string `json:"errors"`
		Warnings []string `json:"warnings"`
	}
	decodeBody(t, resp, &body)

	if !body.Valid {
		t.Errorf("expected valid config, errors: %v", body.Errors)
	}

	resp = postJSON(t, srv.URL+"/api/config/validate", map[string]interface{}{
		"url":   "bad",
		"delay": -1,
	})
	decodeBody(t, resp, &body)

	if body.Valid {
		t.Error("expected invalid config")
	}
	if len(body.Errors) < 2 {
		t.Errorf("expected at least 2 errors, got %v", body.Errors)
	}
	if len(body.Warnings) == 0 {
		t.Error("expected selector warning for missing selectors")
	}
}

func TestTemplatesEndpoint(t *testing.T) {
	srv, _ := setupTestServer(t, &stubRunner{})

	resp, err := http.Get(srv.URL + "/api/config/templates")
	if err != nil {
		t.Fatalf("templates request failed: %v", err)
	}
	var templates map[string]map[string]interface{}
	decodeBody(t, resp, &templates)

	for _, name := range []string{"basic", "news", "ecommerce", "social_media"} {
		entry, ok := templates[name]
		if !ok {
			t.Errorf("missing template %q", name)
			continue
		}
		if entry["config"] == nil {
			t.Errorf("template %q has no config", name)
		}
	}
}

func TestExportFormatsEndpoint(t *testing.T) {
	srv, _ := setupTestServer(t, &stubRunner{})

	resp, err := http.Get(srv.URL + "/api/export/formats")
	if err != nil {
		t.Fatalf("formats request failed: %v", err)
	}
	var formats map[string]map[string]interface{}
	decodeBody(t, resp, &formats)

	for _, format := range []string{"json", "csv", "excel"} {
		if _, ok := formats[format]; !ok {
			t.Errorf("missing format %q", format)
		}
	}
}

func TestTipsEndpoint(t *testing.T) {
	srv, _ := setupTestServer(t, &stubRunner{})

	resp, err := http.Get(srv.URL + "/api/help/tips")
	if err != nil {
		t.Fatalf("tips request failed: %v", err)
	}
	var tips map[string][]string
	decodeBody(t, resp, &tips)

	for _, category := range []string{"general", "selectors", "performance", "troubleshooting"} {
		if len(tips[category]) == 0 {
			t.Errorf("tips category %q is empty", category)
		}
	}
}

func TestStatsSummaryEndpoint(t *testing.T) {
	srv, manager := setupTestServer(t, &stubRunner{records: []export.Record{{"text": "a"}}})

	for i := 0; i < 2; i++ {
		resp := postJSON(t, srv.URL+"/api/scrape", map[string]interface{}{
			"url":       "https://example.com/page",
			"selectors": []string{"h1"},
			"delay":     0,
		})
		resp.Body.Close()
	}
	manager.Wait()

	resp, err := http.Get(srv.URL + "/api/stats/summary")
	if err != nil {
		t.Fatalf("stats request failed: %v", err)
	}
	var stats struct {
		TotalTasks        int      `json:"total_tasks"`
		CompletedTasks    int      `json:"completed_tasks"`
		TotalItemsScraped int      `json:"total_items_scraped"`
		MostCommonDomains []string `json:"most_common_domains"`
	}
	decodeBody(t, resp, &stats)

	if stats.TotalTasks != 2 {
		t.Errorf("total_tasks = %d, want 2", stats.TotalTasks)
	}
	if stats.CompletedTasks != 2 {
		t.Errorf("completed_tasks = %d, want 2", stats.CompletedTasks)
	}
	if stats.TotalItemsScraped != 2 {
		t.Errorf("total_items_scraped = %d, want 2", stats.TotalItemsScraped)
	}
	if len(stats.MostCommonDomains) != 1 || stats.MostCommonDomains[0] != "example.com" {
		t.Errorf("most_common_domains = %v, want [example.com]", stats.MostCommonDomains)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	logger := utils.NewLoggerWithLevel(utils.ErrorLevel)
	exporter, err := export.NewExporter(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("NewExporter failed: %v", err)
	}
	manager := task.NewManager(&stubRunner{}, exporter, logger)
	srv := httptest.NewServer(NewServer(manager, Options{Logger: logger, RateLimit: 1}).Router())
	defer srv.Close()

	limited := false
	for i := 0; i < 10; i++ {
		resp, err := http.Get(srv.URL + "/health")
		if err != nil {
			t.Fatalf("health request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("rate limiter never rejected a request")
	}
}
