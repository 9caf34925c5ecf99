// cmd/server/main.go
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/scrapeflow/scrapeflow/internal/export"
	"github.com/scrapeflow/scrapeflow/internal/monitoring"
	"github.com/scrapeflow/scrapeflow/internal/scraper"
	"github.com/scrapeflow/scrapeflow/internal/server"
	"github.com/scrapeflow/scrapeflow/internal/task"
	"github.com/scrapeflow/scrapeflow/internal/utils"
)

func main() {
	var (
		addr      = flag.String("addr", ":5000", "listen address")
		outputDir = flag.String("output-dir", "scraped_data", "directory for exported result files")
		logLevel  = flag.String("log-level", "info", "logging level (debug, info, warn, error)")
		rateLimit = flag.Float64("rate-limit", 10, "sustained requests per second (0 disables limiting)")
	)
	flag.Parse()

	logger := utils.NewLoggerWithLevel(utils.ParseLogLevel(*logLevel))

	exporter, err := export.NewExporter(*outputDir, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to prepare output directory: %v\n", err)
		os.Exit(1)
	}

	metrics := monitoring.NewMetrics("scrapeflow")
	engine := scraper.NewEngine(logger)
	manager := task.NewManager(engine, exporter, logger).WithMetrics(metrics)

	srv := server.NewServer(manager, server.Options{
		RateLimit: *rateLimit,
		Metrics:   metrics,
		Logger:    logger,
	})

	httpServer := &http.Server{
		Addr:         *addr,
		Handler:      srv.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}

	logger.Infof("listening on %s, exporting to %s", *addr, exporter.OutputDir())
	if err := httpServer.ListenAndServe(); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
