// internal/export/json.go
package export

import (
	"encoding/json"
	"os"
)

// JSONWriter writes records as an indented JSON array. Nested structures are
// preserved as-is.
type JSONWriter struct {
	filename string
	file     *os.File
}

// NewJSONWriter creates a new JSON writer targeting the given path.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	return &JSONWriter{
		filename: filename,
		file:     file,
	}, nil
}

// Write writes records to the JSON file.
func (w *JSONWriter) Write(records []Record) error {
	if records == nil {
		records = []Record{}
	}
	encoder := json.NewEncoder(w.file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(records)
}

// Close flushes and closes the underlying file.
func (w *JSONWriter) Close() error {
	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		return err
	}
	return nil
}
