// internal/scraper/extractor.go
package scraper

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/scrapeflow/scrapeflow/internal/utils"
)

// FieldRecord is one extracted element keyed by logical attribute name.
// Nested values (attributes, data_attributes) stay nested; the exporter
// flattens them for tabular formats.
type FieldRecord = map[string]interface{}

// ExtractSelector runs one selector against a parsed document and emits a
// record per matched element. The selector is compiled with cascadia so a
// malformed selector surfaces as an *ExtractionError instead of a panic.
func ExtractSelector(doc *goquery.Document, selector, pageURL string) ([]FieldRecord, error) {
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, &ExtractionError{Selector: selector, Err: err}
	}

	var records []FieldRecord
	doc.FindMatcher(matcher).Each(func(index int, sel *goquery.Selection) {
		records = append(records, extractElement(sel, selector, index, pageURL))
	})

	return records, nil
}

// extractElement pulls text, inner HTML, attributes and resolved link/image
// URLs from a single matched element.
func extractElement(sel *goquery.Selection, selector string, index int, pageURL string) FieldRecord {
	record := FieldRecord{
		"url":       pageURL,
		"selector":  selector,
		"index":     index,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if text := utils.CleanText(sel.Text()); text != "" {
		record["text"] = text
	}

	if html, err := sel.Html(); err == nil {
		if html = strings.TrimSpace(html); html != "" {
			record["html"] = html
		}
	}

	attributes := make(map[string]interface{})
	dataAttributes := make(map[string]interface{})
	for _, node := range sel.Nodes[:1] {
		for _, attr := range node.Attr {
			attributes[attr.Key] = attr.Val
			if strings.HasPrefix(attr.Key, "data-") {
				dataAttributes[attr.Key] = attr.Val
			}
		}
	}
	if len(attributes) > 0 {
		record["attributes"] = attributes
	}
	if len(dataAttributes) > 0 {
		record["data_attributes"] = dataAttributes
	}

	if href, ok := sel.Attr("href"); ok && href != "" {
		record["link"] = utils.ResolveURL(pageURL, href)
	}

	if src, ok := sel.Attr("src"); ok && src != "" {
		record["image_src"] = utils.ResolveURL(pageURL, src)
	}

	return record
}
