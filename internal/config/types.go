// internal/config/types.go
package config

import "time"

// Supported export formats.
const (
	FormatJSON  = "json"
	FormatCSV   = "csv"
	FormatExcel = "excel"
)

// Viewport defines the browser window dimensions.
type Viewport struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// ScrapeConfig holds all parameters for a single scrape run. A config is
// treated as immutable once Validate has accepted it; the task manager only
// ever sees validated configs.
type ScrapeConfig struct {
	URL             string   `yaml:"url" json:"url"`
	URLs            []string `yaml:"urls,omitempty" json:"urls,omitempty"`
	Selectors       []string `yaml:"selectors" json:"selectors"`
	Headless        bool     `yaml:"headless" json:"headless"`
	Delay           float64  `yaml:"delay" json:"delay"`     // seconds between pages
	Timeout         int      `yaml:"timeout" json:"timeout"` // page load timeout, milliseconds
	UserAgent       string   `yaml:"user_agent,omitempty" json:"user_agent,omitempty"`
	Viewport        Viewport `yaml:"viewport" json:"viewport"`
	MaxPages        int      `yaml:"max_pages" json:"max_pages"`
	WaitForSelector string   `yaml:"wait_for_selector,omitempty" json:"wait_for_selector,omitempty"`
	ExportFormat    string   `yaml:"export_format" json:"export_format"`
	OutputFile      string   `yaml:"output_file" json:"output_file"`
}

// DefaultConfig returns a ScrapeConfig populated with defaults. File and
// request loaders unmarshal on top of this so omitted fields keep their
// default values.
func DefaultConfig() ScrapeConfig {
	return ScrapeConfig{
		Selectors:    []string{"body"},
		Headless:     true,
		Delay:        1.0,
		Timeout:      30000,
		Viewport:     Viewport{Width: 1280, Height: 720},
		MaxPages:     1,
		ExportFormat: FormatJSON,
		OutputFile:   "scraped_data",
	}
}

// Targets returns the ordered list of URLs to scrape. URLs takes precedence
// when set; otherwise the single URL field is used.
func (c *ScrapeConfig) Targets() []string {
	if len(c.URLs) > 0 {
		return c.URLs
	}
	if c.URL != "" {
		return []string{c.URL}
	}
	return nil
}

// DelayDuration converts the delay seconds into a time.Duration.
func (c *ScrapeConfig) DelayDuration() time.Duration {
	return time.Duration(c.Delay * float64(time.Second))
}

// TimeoutDuration converts the timeout milliseconds into a time.Duration.
func (c *ScrapeConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}
