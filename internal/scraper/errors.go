// internal/scraper/errors.go
package scraper

import "fmt"

// NavigationError marks a page that failed to load or respond within budget.
// It terminates the owning task; there is no retry.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("failed to load page %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}

// ExtractionError marks a selector engine failure. It terminates the owning
// task.
type ExtractionError struct {
	Selector string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for selector %q: %v", e.Selector, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
