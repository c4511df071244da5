// Package ingest reads the raw source files into tabular records for
// the loader: the monthly appointment extract CSVs, the small-area
// deprivation index workbook, and the small-area-to-region lookup.
// No interpretation of appointment semantics happens here; cells are
// handed to the dataset and deprivation packages as-is.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/markagreen/remote-GP-consultations/internal/dataset"
)

// maxConcurrentReads bounds the extract-loading fan-out.
const maxConcurrentReads = 4

// DiscoverExtracts finds every appointment extract CSV under dir,
// sorted for deterministic union order.
func DiscoverExtracts(dir string) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("extracts directory: %w", err)
	}

	var paths []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(strings.ToLower(info.Name()), ".csv") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk extracts directory: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadExtracts reads every extract CSV under dir into raw tabular
// extracts. Files load concurrently; the grouping passes downstream
// are pure, so per-file parallelism is safe. Any unreadable file fails
// the whole load, matching the no-partial-output rule.
func LoadExtracts(ctx context.Context, logger *slog.Logger, dir string) ([]dataset.Extract, error) {
	if logger == nil {
		logger = slog.Default()
	}

	paths, err := DiscoverExtracts(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no extract CSV files found in %s", dir)
	}
	logger.InfoContext(ctx, "loading appointment extracts",
		"dir", dir,
		"files", len(paths),
	)

	extracts := make([]dataset.Extract, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReads)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			extract, err := readExtract(path)
			if err != nil {
				return err
			}
			extracts[i] = extract
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return extracts, nil
}

// readExtract reads one extract CSV into a header plus data rows.
func readExtract(path string) (dataset.Extract, error) {
	file, err := os.Open(path)
	if err != nil {
		return dataset.Extract{}, fmt.Errorf("open extract: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return dataset.Extract{}, fmt.Errorf("read extract %s: %w", filepath.Base(path), err)
	}
	if len(rows) == 0 {
		return dataset.Extract{}, fmt.Errorf("extract %s is empty", filepath.Base(path))
	}

	return dataset.Extract{
		Name:   filepath.Base(path),
		Header: stripBOM(rows[0]),
		Rows:   rows[1:],
	}, nil
}

// stripBOM removes a UTF-8 byte order mark from the first header cell.
// The published extracts are saved from Excel and often carry one.
func stripBOM(header []string) []string {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return header
}
