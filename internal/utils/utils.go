// internal/utils/utils.go
package utils

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	whitespacePattern  = regexp.MustCompile(`\s+`)
	controlCharPattern = regexp.MustCompile(`[\x00-\x1f\x7f-\x9f]`)
	unsafeFilePattern  = regexp.MustCompile(`[<>:"/\\|?*]`)
	underscoreRuns     = regexp.MustCompile(`_+`)
)

// CleanText normalizes extracted text: NFC unicode normalization, control
// characters removed, whitespace runs collapsed to a single space.
func CleanText(text string) string {
	if text == "" {
		return ""
	}

	text = norm.NFC.String(text)
	text = controlCharPattern.ReplaceAllString(text, "")
	text = whitespacePattern.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}

// SafeFilename replaces characters that are invalid in file names and
// collapses the resulting underscore runs. An empty result falls back to
// "scraped_data".
func SafeFilename(name string) string {
	safe := unsafeFilePattern.ReplaceAllString(name, "_")
	safe = underscoreRuns.ReplaceAllString(safe, "_")
	safe = strings.Trim(safe, ". ")

	if safe == "" {
		safe = "scraped_data"
	}

	return safe
}

// FormatFileSize renders a byte count in human readable form.
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}

	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGT"[exp])
}
