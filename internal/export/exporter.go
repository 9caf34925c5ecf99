// internal/export/exporter.go
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/scrapeflow/scrapeflow/internal/config"
	"github.com/scrapeflow/scrapeflow/internal/utils"
)

// extensions maps export formats to file extensions.
var extensions = map[string]string{
	config.FormatJSON:  ".json",
	config.FormatCSV:   ".csv",
	config.FormatExcel: ".xlsx",
}

// Exporter writes record sets to timestamped files under a single output
// directory. Writes are atomic from the caller's perspective: the writer
// targets a temporary file which is renamed into place only after a
// successful close, so a returned path always names a complete file.
type Exporter struct {
	outputDir string
	logger    utils.Logger
}

// NewExporter creates an exporter rooted at outputDir, creating the
// directory if needed.
func NewExporter(outputDir string, logger utils.Logger) (*Exporter, error) {
	if outputDir == "" {
		outputDir = "."
	}
	if logger == nil {
		logger = utils.NewLogger()
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Exporter{
		outputDir: outputDir,
		logger:    logger,
	}, nil
}

// Export cleans the records and writes them to
// <basename>_<timestamp>.<ext> in the exporter's output directory, returning
// the full path. Unknown formats fail with *UnsupportedFormatError before
// any file is touched.
func (e *Exporter) Export(records []Record, basename, format string) (string, error) {
	ext, ok := extensions[format]
	if !ok {
		return "", &UnsupportedFormatError{Format: format}
	}

	cleaned := CleanRecords(records)
	e.logger.Infof("cleaned records: %d -> %d items", len(records), len(cleaned))

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s%s", utils.SafeFilename(basename), timestamp, ext)
	finalPath := filepath.Join(e.outputDir, filename)
	tempPath := filepath.Join(e.outputDir, "."+filename+".tmp")

	if err := e.writeFile(tempPath, format, cleaned); err != nil {
		os.Remove(tempPath)
		return "", &ExportError{Format: format, Err: err}
	}

	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return "", &ExportError{Format: format, Err: err}
	}

	e.logger.Infof("exported %d records to %s", len(cleaned), finalPath)
	return finalPath, nil
}

// OutputDir returns the directory exports are written to.
func (e *Exporter) OutputDir() string {
	return e.outputDir
}

func (e *Exporter) writeFile(path, format string, records []Record) error {
	writer, err := e.newWriter(path, format)
	if err != nil {
		return err
	}

	if err := writer.Write(records); err != nil {
		writer.Close()
		return err
	}

	return writer.Close()
}

func (e *Exporter) newWriter(path, format string) (Writer, error) {
	switch format {
	case config.FormatJSON:
		return NewJSONWriter(path)
	case config.FormatCSV:
		return NewCSVWriter(path)
	case config.FormatExcel:
		return NewExcelWriter(path)
	default:
		return nil, &UnsupportedFormatError{Format: format}
	}
}
