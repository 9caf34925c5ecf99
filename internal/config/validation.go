// internal/config/validation.go
package config

import (
	"fmt"

	"github.com/scrapeflow/scrapeflow/internal/utils"
)

// ValidationError describes a rejected configuration field. It is returned
// synchronously from Validate; no task is ever created from a config that
// failed validation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate normalizes and checks the configuration. It trims the selector
// list in place, substituting the catch-all default when nothing remains,
// and returns a *ValidationError naming the first offending field.
func (c *ScrapeConfig) Validate() error {
	targets := c.Targets()
	if len(targets) == 0 {
		return &ValidationError{Field: "url", Message: "URL is required"}
	}
	for _, target := range targets {
		if !utils.ValidateURL(target) {
			return &ValidationError{
				Field:   "url",
				Message: fmt.Sprintf("invalid URL format: %s", target),
			}
		}
	}

	c.Selectors = utils.NormalizeSelectors(c.Selectors)
	if len(c.Selectors) == 0 {
		c.Selectors = []string{"body"}
	}
	for _, selector := range c.Selectors {
		if !utils.ValidateSelector(selector) {
			return &ValidationError{
				Field:   "selectors",
				Message: fmt.Sprintf("invalid selector: %q", selector),
			}
		}
	}

	if c.Delay < 0 {
		return &ValidationError{Field: "delay", Message: "delay must be non-negative"}
	}

	if c.Timeout <= 0 {
		return &ValidationError{Field: "timeout", Message: "timeout must be positive"}
	}

	if c.MaxPages <= 0 {
		return &ValidationError{Field: "max_pages", Message: "max pages must be positive"}
	}

	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return &ValidationError{Field: "viewport", Message: "viewport dimensions must be positive"}
	}

	if c.WaitForSelector != "" && !utils.ValidateSelector(c.WaitForSelector) {
		return &ValidationError{
			Field:   "wait_for_selector",
			Message: fmt.Sprintf("invalid selector: %q", c.WaitForSelector),
		}
	}

	switch c.ExportFormat {
	case FormatJSON, FormatCSV, FormatExcel:
	default:
		return &ValidationError{
			Field:   "export_format",
			Message: fmt.Sprintf("unsupported export format: %s", c.ExportFormat),
		}
	}

	return nil
}
