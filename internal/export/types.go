// internal/export/types.go

// Package export serializes scraped field records to JSON, CSV and Excel
// files on local disk.
package export

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Record is a single extracted element keyed by logical attribute name.
// Values may be scalars or nested maps/lists.
type Record = map[string]interface{}

// Writer is the interface implemented by all format writers.
type Writer interface {
	Write(records []Record) error
	Close() error
}

// UnsupportedFormatError is returned when the requested export format is not
// one of json, csv or excel. It is a caller error surfaced synchronously;
// no file is created.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported export format: %s", e.Format)
}

// ExportError wraps a serialization or I/O failure during export.
type ExportError struct {
	Format string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export to %s failed: %v", e.Format, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// CleanRecords drops nil values, trims string values and discards entries
// that become empty. Records that end up with no fields are dropped.
func CleanRecords(records []Record) []Record {
	cleaned := make([]Record, 0, len(records))

	for _, record := range records {
		item := make(Record, len(record))

		for key, value := range record {
			switch v := value.(type) {
			case nil:
				continue
			case string:
				trimmed := strings.TrimSpace(v)
				if trimmed != "" {
					item[key] = trimmed
				}
			case map[string]interface{}:
				if len(v) > 0 {
					item[key] = v
				}
			case []interface{}:
				if len(v) > 0 {
					item[key] = v
				}
			default:
				item[key] = value
			}
		}

		if len(item) > 0 {
			cleaned = append(cleaned, item)
		}
	}

	return cleaned
}

// FlattenRecord flattens nested maps into underscore-joined keys and
// serializes lists to JSON strings, producing a record suitable for tabular
// formats.
func FlattenRecord(record Record) Record {
	flat := make(Record, len(record))
	flattenInto(flat, "", record)
	return flat
}

func flattenInto(dst Record, prefix string, src map[string]interface{}) {
	for key, value := range src {
		name := key
		if prefix != "" {
			name = prefix + "_" + key
		}

		switch v := value.(type) {
		case map[string]interface{}:
			flattenInto(dst, name, v)
		case []interface{}:
			encoded, err := json.Marshal(v)
			if err != nil {
				dst[name] = fmt.Sprintf("%v", v)
				continue
			}
			dst[name] = string(encoded)
		default:
			dst[name] = value
		}
	}
}

// columnHeaders collects every key across the records into a sorted slice so
// tabular output has a stable column order.
func columnHeaders(records []Record) []string {
	headerSet := make(map[string]bool)
	for _, record := range records {
		for key := range record {
			headerSet[key] = true
		}
	}

	headers := make([]string, 0, len(headerSet))
	for header := range headerSet {
		headers = append(headers, header)
	}
	sort.Strings(headers)
	return headers
}
