package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/markagreen/remote-GP-consultations/internal/dataset"
	"github.com/markagreen/remote-GP-consultations/internal/deprivation"
)

// LoadLookup reads the small-area-to-region lookup CSV. Column names
// carry boundary vintages in their suffix ("LSOA11CD", "CCG21CD"), so
// columns are located by prefix rather than exact name.
func LoadLookup(ctx context.Context, logger *slog.Logger, path string) ([]deprivation.LookupRecord, error) {
	if logger == nil {
		logger = slog.Default()
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lookup: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read lookup: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("lookup %s has no data rows", path)
	}

	lsoaIdx, regionIdx := -1, -1
	for j, header := range stripBOM(rows[0]) {
		h := strings.ToUpper(strings.TrimSpace(header))
		switch {
		case strings.HasPrefix(h, "LSOA") && strings.HasSuffix(h, "CD"):
			lsoaIdx = j
		case (strings.HasPrefix(h, "CCG") || strings.HasPrefix(h, "STP")) && strings.HasSuffix(h, "CD"):
			// Prefer the CCG column when both region vintages appear.
			if regionIdx == -1 || strings.HasPrefix(h, "CCG") {
				regionIdx = j
			}
		}
	}
	if lsoaIdx == -1 || regionIdx == -1 {
		return nil, fmt.Errorf("lookup %s: could not locate LSOA and region code columns", path)
	}

	var records []deprivation.LookupRecord
	for i := 1; i < len(rows); i++ {
		lsoa := cellAt(rows[i], lsoaIdx)
		region := cellAt(rows[i], regionIdx)
		if lsoa == "" || region == "" {
			continue
		}
		records = append(records, deprivation.LookupRecord{
			LSOA:   lsoa,
			Region: dataset.RegionKey(region),
		})
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("lookup %s contains no usable rows", path)
	}
	logger.InfoContext(ctx, "small-area lookup loaded",
		"path", path,
		"rows", len(records),
	)
	return records, nil
}
