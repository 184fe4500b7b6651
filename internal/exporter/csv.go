package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"

	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/files"
)

// CSVWriter renders records in memory and hands them to the file manager,
// so a file is either fully written or left untouched
type CSVWriter struct {
	files *files.Manager
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(manager *files.Manager) *CSVWriter {
	return &CSVWriter{files: manager}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // UTF-8 BOM for Excel
}

// WriteCSV writes data to a CSV file with the given options
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	slog.Debug("Writing CSV file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(options.Records)))

	var buf bytes.Buffer
	if options.BOMPrefix {
		buf.Write([]byte{0xEF, 0xBB, 0xBF})
	}

	writer := csv.NewWriter(&buf)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}

	return w.files.WriteFile(filePath, buf.Bytes())
}

// WriteSimpleCSV writes a CSV file with headers and records and no BOM
func (w *CSVWriter) WriteSimpleCSV(filePath string, headers []string, records [][]string) error {
	return w.WriteCSV(filePath, WriteOptions{
		Headers: headers,
		Records: records,
	})
}
