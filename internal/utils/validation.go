// Package utils provides validation and text helpers shared by the CLI
// and the HTTP API.
package utils

import (
	"net/url"
	"strings"
)

// characters that never appear in a CSS selector; a cheap syntax screen
// ahead of the real cascadia compile in the extractor
const selectorForbidden = "<>{}()"

// ValidateURL reports whether a URL is well formed: it must parse and carry
// both a scheme and a host.
func ValidateURL(raw string) bool {
	if raw == "" {
		return false
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}

	return parsed.Scheme != "" && parsed.Host != ""
}

// ValidateSelector performs a shallow syntax check on a CSS selector. The
// selector engine does the authoritative compile; this catches obviously
// broken input early so validation errors surface before a task is created.
func ValidateSelector(selector string) bool {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return false
	}

	return !strings.ContainsAny(selector, selectorForbidden)
}

// NormalizeSelectors trims each selector and drops empties, preserving order.
func NormalizeSelectors(selectors []string) []string {
	normalized := make([]string, 0, len(selectors))
	for _, s := range selectors {
		s = strings.TrimSpace(s)
		if s != "" {
			normalized = append(normalized, s)
		}
	}
	return normalized
}

// ExtractDomain returns the lowercased host of a URL, or empty string if the
// URL does not parse.
func ExtractDomain(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Host)
}

// ResolveURL converts a possibly relative reference into an absolute URL
// against the given base. Returns the reference unchanged when either side
// fails to parse.
func ResolveURL(base, ref string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}
