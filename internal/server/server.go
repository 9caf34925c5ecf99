// internal/server/server.go

// Package server exposes the task manager over HTTP. Routing uses
// gorilla/mux; every response body is JSON except file downloads and the
// Prometheus exposition endpoint.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/scrapeflow/scrapeflow/internal/monitoring"
	"github.com/scrapeflow/scrapeflow/internal/task"
	"github.com/scrapeflow/scrapeflow/internal/utils"
)

// Server holds the HTTP handler state. It never touches tasks directly;
// all task access goes through the manager.
type Server struct {
	manager *task.Manager
	metrics *monitoring.Metrics
	logger  utils.Logger
	limiter *rate.Limiter
}

// Options configures optional server behavior.
type Options struct {
	// RateLimit is the sustained requests-per-second budget. Zero
	// disables rate limiting. Burst is twice the sustained rate.
	RateLimit float64
	Metrics   *monitoring.Metrics
	Logger    utils.Logger
}

// NewServer creates a server around an existing task manager.
func NewServer(manager *task.Manager, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewLogger()
	}

	s := &Server{
		manager: manager,
		metrics: opts.Metrics,
		logger:  logger,
	}
	if opts.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), int(opts.RateLimit*2))
	}
	return s
}

// Router builds the full route table with middleware applied.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/scrape", s.handleScrape).Methods("POST")
	api.HandleFunc("/status/{task_id}", s.handleStatus).Methods("GET")
	api.HandleFunc("/results/{task_id}", s.handleResults).Methods("GET")
	api.HandleFunc("/download/{task_id}", s.handleDownload).Methods("GET")
	api.HandleFunc("/tasks", s.handleListTasks).Methods("GET")
	api.HandleFunc("/validate-url", s.handleValidateURL).Methods("POST")
	api.HandleFunc("/config/validate", s.handleValidateConfig).Methods("POST")
	api.HandleFunc("/config/templates", s.handleTemplates).Methods("GET")
	api.HandleFunc("/selectors/suggestions", s.handleSelectorSuggestions).Methods("GET")
	api.HandleFunc("/export/formats", s.handleExportFormats).Methods("GET")
	api.HandleFunc("/help/tips", s.handleTips).Methods("GET")
	api.HandleFunc("/stats/summary", s.handleStatsSummary).Methods("GET")

	var handler http.Handler = r
	if s.limiter != nil {
		handler = s.rateLimitMiddleware(handler)
	}
	return s.loggingMiddleware(handler)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debugf("%s %s completed in %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
