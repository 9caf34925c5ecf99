// cmd/scrapeflow/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/scrapeflow/scrapeflow/internal/config"
	"github.com/scrapeflow/scrapeflow/internal/export"
	"github.com/scrapeflow/scrapeflow/internal/scraper"
	"github.com/scrapeflow/scrapeflow/internal/utils"
)

// Version information (set by build flags)
var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("scrapeflow", flag.ContinueOnError)
	fs.Usage = func() { printUsage(fs) }

	var (
		urlFlag         = fs.String("url", "", "target URL to scrape")
		configFlag      = fs.String("config", "", "configuration file path (YAML or JSON)")
		selectorsFlag   = fs.String("selectors", "", "comma-separated CSS selectors to extract")
		outputFlag      = fs.String("output", "scraped_data", "output file name (without extension)")
		formatFlag      = fs.String("format", config.FormatJSON, "output format (json or csv)")
		headlessFlag    = fs.Bool("headless", true, "run the browser in headless mode")
		delayFlag       = fs.Float64("delay", 1.0, "delay between page loads in seconds")
		timeoutFlag     = fs.Int("timeout", 30000, "page load timeout in milliseconds")
		maxPagesFlag    = fs.Int("max-pages", 1, "maximum number of pages to scrape")
		userAgentFlag   = fs.String("user-agent", "", "custom user agent string")
		viewportWidth   = fs.Int("viewport-width", 1280, "browser viewport width")
		viewportHeight  = fs.Int("viewport-height", 720, "browser viewport height")
		waitForSelector = fs.String("wait-for-selector", "", "wait for this selector before extracting")
		logLevelFlag    = fs.String("log-level", "info", "logging level (debug, info, warn, error)")
		versionFlag     = fs.Bool("version", false, "print version and exit")
	)

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *versionFlag {
		fmt.Printf("scrapeflow %s (built %s)\n", version, buildTime)
		return 0
	}

	logger := utils.NewLoggerWithLevel(utils.ParseLogLevel(*logLevelFlag))

	if (*urlFlag == "") == (*configFlag == "") {
		fmt.Fprintln(os.Stderr, "error: exactly one of --url or --config is required")
		printUsage(fs)
		return 2
	}

	var cfg config.ScrapeConfig
	if *configFlag != "" {
		loaded, err := config.LoadFromFile(*configFlag)
		if err != nil {
			logger.Errorf("failed to load configuration: %v", err)
			return 1
		}
		cfg = *loaded
		logger.Infof("loaded configuration from %s", *configFlag)
	} else {
		cfg = config.DefaultConfig()
		cfg.URL = *urlFlag
		if *selectorsFlag != "" {
			cfg.Selectors = strings.Split(*selectorsFlag, ",")
		}
		cfg.Headless = *headlessFlag
		cfg.Delay = *delayFlag
		cfg.Timeout = *timeoutFlag
		cfg.MaxPages = *maxPagesFlag
		cfg.UserAgent = *userAgentFlag
		cfg.Viewport = config.Viewport{Width: *viewportWidth, Height: *viewportHeight}
		cfg.WaitForSelector = *waitForSelector
	}

	if *formatFlag != config.FormatJSON && *formatFlag != config.FormatCSV {
		fmt.Fprintf(os.Stderr, "error: --format must be json or csv, got %q\n", *formatFlag)
		return 2
	}

	// --output and --format apply even with a config file, matching the
	// export call of the single-run flow.
	cfg.OutputFile = *outputFlag
	cfg.ExportFormat = *formatFlag

	if err := cfg.Validate(); err != nil {
		logger.Errorf("invalid configuration: %v", err)
		return 1
	}

	logger.Info("starting web scraping process")
	logger.Infof("target URL: %s", cfg.Targets()[0])
	logger.Infof("selectors: %s", strings.Join(cfg.Selectors, ", "))
	logger.Infof("output format: %s", cfg.ExportFormat)

	engine := scraper.NewEngine(logger)
	records, err := engine.Run(context.Background(), cfg, func(progress int) {
		logger.Debugf("progress: %d%%", progress)
	})
	if err != nil {
		logger.Errorf("scraping failed: %v", err)
		return 1
	}
	if len(records) == 0 {
		logger.Warn("no data was scraped from the target URL")
		return 1
	}
	logger.Infof("successfully scraped %d data points", len(records))

	exporter, err := export.NewExporter(".", logger)
	if err != nil {
		logger.Errorf("failed to prepare output directory: %v", err)
		return 1
	}
	path, err := exporter.Export(records, cfg.OutputFile, cfg.ExportFormat)
	if err != nil {
		logger.Errorf("export failed: %v", err)
		return 1
	}

	logger.Infof("data exported to %s", path)
	logger.Info("scraping completed successfully")
	return 0
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `scrapeflow - extract data from websites with a real browser

Usage:
  scrapeflow --url <target> [options]
  scrapeflow --config <file> [options]

Examples:
  scrapeflow --url https://example.com --selectors "h1,p,.class-name"
  scrapeflow --config config.yaml --output data --format csv
  scrapeflow --url https://news.example.com --headless=false --delay 2

Options:
`)
	fs.PrintDefaults()
}
