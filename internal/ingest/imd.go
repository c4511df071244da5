package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/markagreen/remote-GP-consultations/internal/deprivation"
)

// LoadIMD reads the small-area deprivation index from the published
// IMD workbook. The sheet and column layout has shifted between
// releases, so both are located by header content rather than fixed
// positions.
func LoadIMD(ctx context.Context, logger *slog.Logger, path string) ([]deprivation.IMDRecord, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open IMD workbook: %w", err)
	}
	defer f.Close()

	rows, sheet, err := findIMDSheet(f)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "reading IMD sheet",
		"path", path,
		"sheet", sheet,
		"rows", len(rows),
	)

	headerRow, cols, err := mapIMDColumns(rows)
	if err != nil {
		return nil, fmt.Errorf("IMD sheet %q: %w", sheet, err)
	}

	var records []deprivation.IMDRecord
	for i := headerRow + 1; i < len(rows); i++ {
		row := rows[i]
		lsoa := cellAt(row, cols.lsoa)
		if lsoa == "" {
			continue
		}

		decile, err := strconv.Atoi(cellAt(row, cols.decile))
		if err != nil {
			return nil, fmt.Errorf("IMD sheet %q row %d: parse decile: %w", sheet, i+1, err)
		}
		if decile < 1 || decile > 10 {
			return nil, fmt.Errorf("IMD sheet %q row %d: decile %d out of range", sheet, i+1, decile)
		}

		rank, err := strconv.Atoi(strings.ReplaceAll(cellAt(row, cols.rank), ",", ""))
		if err != nil {
			return nil, fmt.Errorf("IMD sheet %q row %d: parse rank: %w", sheet, i+1, err)
		}

		records = append(records, deprivation.IMDRecord{LSOA: lsoa, Decile: decile, Rank: rank})
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("IMD sheet %q contains no data rows", sheet)
	}
	logger.InfoContext(ctx, "IMD index loaded", "small_areas", len(records))
	return records, nil
}

// findIMDSheet locates the sheet carrying the index data, preferring
// the conventional names before probing every sheet for an IMD-shaped
// header.
func findIMDSheet(f *excelize.File) ([][]string, string, error) {
	preferred := []string{"IMD2019", "IMD 2019", "IMD", "Data"}
	for _, name := range preferred {
		if rows, err := f.GetRows(name); err == nil && len(rows) > 1 {
			return rows, name, nil
		}
	}

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil || len(rows) < 2 {
			continue
		}
		if _, _, err := mapIMDColumns(rows); err == nil {
			return rows, name, nil
		}
	}
	return nil, "", fmt.Errorf("no sheet with LSOA deprivation columns found")
}

// imdColumns holds the located column positions within the IMD sheet.
type imdColumns struct {
	lsoa, decile, rank int
}

// mapIMDColumns finds the header row and the LSOA code, IMD decile and
// IMD rank columns by header text.
func mapIMDColumns(rows [][]string) (int, imdColumns, error) {
	for i, row := range rows {
		if i > 4 {
			break
		}
		cols := imdColumns{lsoa: -1, decile: -1, rank: -1}
		for j, header := range row {
			h := strings.ToLower(strings.TrimSpace(header))
			switch {
			case strings.Contains(h, "lsoa") && strings.Contains(h, "code"):
				cols.lsoa = j
			case strings.Contains(h, "decile"):
				cols.decile = j
			case strings.Contains(h, "rank") && !strings.Contains(h, "decile"):
				cols.rank = j
			}
		}
		if cols.lsoa >= 0 && cols.decile >= 0 && cols.rank >= 0 {
			return i, cols, nil
		}
	}
	return 0, imdColumns{}, fmt.Errorf("could not locate LSOA code, decile and rank columns")
}

func cellAt(row []string, idx int) string {
	if idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}
