// internal/server/handlers.go
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/scrapeflow/scrapeflow/internal/config"
	"github.com/scrapeflow/scrapeflow/internal/task"
	"github.com/scrapeflow/scrapeflow/internal/utils"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleScrape accepts a scrape configuration, registers a background task
// and returns immediately with its identifier.
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	cfg := config.DefaultConfig()
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	id, err := s.manager.Submit(cfg)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"task_id": id,
		"status":  string(task.StatusQueued),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["task_id"]

	snap, err := s.manager.Status(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["task_id"]

	records, err := s.manager.Result(id)
	switch {
	case errors.Is(err, task.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, "task not found")
		return
	case errors.Is(err, task.ErrTaskNotReady):
		writeError(w, http.StatusConflict, "task not completed yet")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["task_id"]

	path, err := s.manager.OutputPath(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "task not found or no results available")
		return
	}

	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, s.manager.ListRecent(limit))
}

func (s *Server) handleValidateURL(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if body.URL == "" {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"valid":   false,
			"message": "URL is required",
		})
		return
	}

	valid := utils.ValidateURL(body.URL)
	message := "URL is valid"
	if !valid {
		message = "Invalid URL format"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid":   valid,
		"message": message,
	})
}

// handleValidateConfig performs a dry validation of a full configuration,
// collecting every problem instead of stopping at the first.
func (s *Server) handleValidateConfig(w http.ResponseWriter, r *http.Request) {
	var raw map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	errs := []string{}
	warnings := []string{}

	url, _ := raw["url"].(string)
	if url == "" {
		errs = append(errs, "URL is required")
	} else if !utils.ValidateURL(url) {
		errs = append(errs, "Invalid URL format")
	}

	if selectors, ok := raw["selectors"].([]interface{}); !ok || len(selectors) == 0 {
		warnings = append(warnings, "No selectors specified, will use 'body' by default")
	} else {
		for _, item := range selectors {
			sel, _ := item.(string)
			if !utils.ValidateSelector(strings.TrimSpace(sel)) {
				errs = append(errs, fmt.Sprintf("Invalid selector: %q", sel))
			}
		}
	}

	if delay, ok := raw["delay"].(float64); ok && delay < 0 {
		errs = append(errs, "Delay must be non-negative")
	}
	if timeout, ok := raw["timeout"].(float64); ok && timeout <= 0 {
		errs = append(errs, "Timeout must be positive")
	}
	if maxPages, ok := raw["max_pages"].(float64); ok && maxPages <= 0 {
		errs = append(errs, "Max pages must be positive")
	}
	if viewport, ok := raw["viewport"].(map[string]interface{}); ok {
		width, _ := viewport["width"].(float64)
		height, _ := viewport["height"].(float64)
		if width <= 0 || height <= 0 {
			errs = append(errs, "Viewport dimensions must be positive")
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid":    len(errs) == 0,
		"errors":   errs,
		"warnings": warnings,
	})
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	titleCaser := cases.Title(language.English)
	templates := make(map[string]interface{})
	for _, name := range config.TemplateNames() {
		title := titleCaser.String(strings.ReplaceAll(name, "_", " "))
		templates[name] = map[string]interface{}{
			"name":        title,
			"description": fmt.Sprintf("Pre-configured settings for %s scraping", strings.ReplaceAll(name, "_", " ")),
			"config":      config.GenerateTemplate(name),
		}
	}
	writeJSON(w, http.StatusOK, templates)
}

func (s *Server) handleSelectorSuggestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, selectorSuggestions)
}

func (s *Server) handleExportFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, exportFormats)
}

func (s *Server) handleTips(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scrapingTips)
}

// handleStatsSummary aggregates the live task table rather than serving a
// canned payload.
func (s *Server) handleStatsSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.Stats())
}

var selectorSuggestions = map[string][]string{
	"content": {
		"h1", "h2", "h3", "h4", "h5", "h6",
		"p", "span", "div",
		"article", "section", "main",
	},
	"links": {
		"a", "a[href]",
		"nav a", ".menu a", ".navigation a",
	},
	"lists": {
		"ul", "ol", "li",
		".list-item", ".item",
	},
	"forms": {
		"form", "input", "textarea", "select", "button",
		`input[type="text"]`, `input[type="email"]`,
	},
	"media": {
		"img", "video", "audio",
		"img[src]", "img[alt]",
	},
	"data": {
		"[data-id]", "[data-value]",
		".price", ".title", ".description", ".rating",
	},
	"common_classes": {
		".content", ".article", ".post", ".item",
		".title", ".heading", ".description", ".summary",
		".price", ".cost", ".amount", ".value",
		".date", ".time", ".timestamp",
		".author", ".by", ".byline",
		".rating", ".score", ".stars",
		".tag", ".category", ".label",
	},
	"ecommerce": {
		".product-title", ".product-name", ".item-name",
		".price", ".cost", ".amount", ".sale-price",
		".description", ".details", ".specs",
		".rating", ".reviews", ".stars",
		".availability", ".stock", ".in-stock",
		".add-to-cart", ".buy-now",
	},
	"news": {
		".headline", ".title", ".article-title",
		".byline", ".author", ".journalist",
		".publish-date", ".date", ".timestamp",
		".article-content", ".story", ".content",
		".summary", ".excerpt", ".lead",
	},
}

var scrapingTips = map[string][]string{
	"general": {
		"Start with simple selectors like 'h1', 'p', or '.class-name'",
		"Use browser developer tools to inspect elements and find selectors",
		"Test selectors on a single page before scraping multiple pages",
		"Be respectful of websites and don't overload them with requests",
		"Check robots.txt file before scraping a website",
	},
	"selectors": {
		"Use specific selectors to get exactly what you need",
		"Combine selectors with commas to extract multiple elements",
		`Use attribute selectors like '[data-testid="value"]' for dynamic content`,
		"Try different selector strategies if the first one doesn't work",
		"Use descendant selectors like '.article h2' for more precision",
	},
	"performance": {
		"Increase delay between requests if you encounter rate limiting",
		"Use headless mode for better performance",
		"Limit the number of pages to scrape initially",
		"Monitor memory usage for large scraping tasks",
	},
	"troubleshooting": {
		"If elements don't load, try increasing the timeout",
		"Use 'wait_for_selector' for dynamic content that loads after page load",
		"Try non-headless mode if headless fails",
		"Verify that the website structure hasn't changed",
	},
}

var exportFormats = map[string]interface{}{
	config.FormatJSON: map[string]interface{}{
		"name":        "JSON",
		"description": "JavaScript Object Notation - preserves data structure",
		"extension":   ".json",
		"features":    []string{"Nested data", "Data types", "Metadata"},
	},
	config.FormatCSV: map[string]interface{}{
		"name":        "CSV",
		"description": "Comma-Separated Values - spreadsheet compatible",
		"extension":   ".csv",
		"features":    []string{"Tabular format", "Excel compatible", "Flattened data"},
	},
	config.FormatExcel: map[string]interface{}{
		"name":        "Excel",
		"description": "Microsoft Excel format with metadata",
		"extension":   ".xlsx",
		"features":    []string{"Multiple sheets", "Metadata", "Formatting"},
	},
}
