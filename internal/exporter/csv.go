// Package exporter writes the derived tables to CSV for the
// presentation layer. Undefined metric values (NaN) and missing
// deprivation joins render as empty cells, never as zero: a consumer
// must be able to distinguish "no eligible appointments" from "none
// remote".
package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
)

// CSVWriter writes derived tables beneath a single output directory.
type CSVWriter struct {
	outputDir string
	logger    *slog.Logger
}

// NewCSVWriter creates a writer rooted at outputDir.
func NewCSVWriter(outputDir string, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{outputDir: outputDir, logger: logger}
}

// write writes one CSV file with a UTF-8 BOM so Excel opens it
// cleanly, creating the output directory as needed.
func (w *CSVWriter) write(name string, headers []string, records [][]string) error {
	fullPath := filepath.Join(w.outputDir, name)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	defer file.Close()

	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("write headers: %w", err)
	}
	for i, record := range records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}

	w.logger.Info("wrote CSV file",
		"path", fullPath,
		"records", len(records),
	)
	return writer.Error()
}

// formatFloat renders a float cell. NaN means undefined and renders
// empty.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatInt(v int) string {
	return strconv.Itoa(v)
}
