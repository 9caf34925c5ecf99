// internal/export/csv.go
package export

import (
	"encoding/csv"
	"fmt"
	"os"
)

// CSVWriter writes records in CSV format. Records are flattened before
// writing so nested values appear as their textual form.
type CSVWriter struct {
	filename string
	file     *os.File
	writer   *csv.Writer
}

// NewCSVWriter creates a new CSV writer targeting the given path.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	return &CSVWriter{
		filename: filename,
		file:     file,
		writer:   csv.NewWriter(file),
	}, nil
}

// Write flattens the records and writes a header row followed by one row per
// record. Columns are the union of all record keys in sorted order.
func (w *CSVWriter) Write(records []Record) error {
	flattened := make([]Record, len(records))
	for i, record := range records {
		flattened[i] = FlattenRecord(record)
	}

	headers := columnHeaders(flattened)
	if err := w.writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, record := range flattened {
		row := make([]string, len(headers))
		for i, header := range headers {
			if value, ok := record[header]; ok && value != nil {
				row[i] = fmt.Sprintf("%v", value)
			}
		}
		if err := w.writer.Write(row); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	w.writer.Flush()
	return w.writer.Error()
}

// Close flushes buffered rows and closes the underlying file.
func (w *CSVWriter) Close() error {
	if w.writer != nil {
		w.writer.Flush()
		w.writer = nil
	}
	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		return err
	}
	return nil
}
