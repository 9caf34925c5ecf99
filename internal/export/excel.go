// internal/export/excel.go
package export

import (
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const (
	dataSheetName     = "Scraped_Data"
	metadataSheetName = "Metadata"

	// Excel caps a single cell at 32767 characters.
	excelMaxCellLength = 32767
)

// ExcelWriter writes records to an .xlsx workbook with a data sheet and a
// metadata sheet describing the export.
type ExcelWriter struct {
	filename string
	file     *excelize.File
}

// NewExcelWriter creates a new Excel writer targeting the given path.
func NewExcelWriter(filename string) (*ExcelWriter, error) {
	file := excelize.NewFile()

	defaultSheet := file.GetSheetName(0)
	if defaultSheet != dataSheetName {
		if err := file.SetSheetName(defaultSheet, dataSheetName); err != nil {
			return nil, fmt.Errorf("failed to rename sheet: %w", err)
		}
	}

	return &ExcelWriter{
		filename: filename,
		file:     file,
	}, nil
}

// Write flattens the records, writes a styled header row and one row per
// record, then fills the metadata sheet.
func (w *ExcelWriter) Write(records []Record) error {
	flattened := make([]Record, len(records))
	for i, record := range records {
		flattened[i] = FlattenRecord(record)
	}

	headers := columnHeaders(flattened)

	if err := w.writeHeaders(headers); err != nil {
		return err
	}

	for i, record := range flattened {
		row := i + 2 // row 1 holds the headers
		for col, header := range headers {
			cell := columnName(col+1) + strconv.Itoa(row)
			if err := w.file.SetCellValue(dataSheetName, cell, cellValue(record[header])); err != nil {
				return fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	return w.writeMetadata(len(records), len(headers))
}

// Close saves the workbook to disk.
func (w *ExcelWriter) Close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.SaveAs(w.filename)
	closeErr := w.file.Close()
	w.file = nil
	if err != nil {
		return err
	}
	return closeErr
}

func (w *ExcelWriter) writeHeaders(headers []string) error {
	style, err := w.file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E0E0E0"},
			Pattern: 1,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range headers {
		cell := columnName(col+1) + "1"
		if err := w.file.SetCellValue(dataSheetName, cell, header); err != nil {
			return fmt.Errorf("failed to write header %s: %w", header, err)
		}
		if err := w.file.SetCellStyle(dataSheetName, cell, cell, style); err != nil {
			return fmt.Errorf("failed to style header %s: %w", header, err)
		}
	}

	return nil
}

func (w *ExcelWriter) writeMetadata(totalItems, columns int) error {
	if _, err := w.file.NewSheet(metadataSheetName); err != nil {
		return fmt.Errorf("failed to create metadata sheet: %w", err)
	}

	rows := [][]interface{}{
		{"Property", "Value"},
		{"Exported At", time.Now().Format(time.RFC3339)},
		{"Total Items", totalItems},
		{"Columns", columns},
		{"Format", "excel"},
	}

	for i, row := range rows {
		for col, value := range row {
			cell := columnName(col+1) + strconv.Itoa(i+1)
			if err := w.file.SetCellValue(metadataSheetName, cell, value); err != nil {
				return fmt.Errorf("failed to write metadata cell %s: %w", cell, err)
			}
		}
	}

	return nil
}

// cellValue converts a record value into something excelize can store,
// truncating strings that exceed the Excel cell limit.
func cellValue(value interface{}) interface{} {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return truncateCell(v)
	default:
		return value
	}
}

// truncateCell caps a string at the Excel cell limit. The limit counts
// characters, so truncation walks rune boundaries and never leaves a split
// multi-byte sequence behind.
func truncateCell(s string) string {
	if utf8.RuneCountInString(s) <= excelMaxCellLength {
		return s
	}

	count := 0
	for i := range s {
		if count == excelMaxCellLength {
			return s[:i]
		}
		count++
	}
	return s
}

// columnName converts a column number to an Excel column name (A, B, ..., AA).
func columnName(col int) string {
	name := ""
	for col > 0 {
		col--
		name = string(rune('A'+col%26)) + name
		col /= 26
	}
	return name
}
