package ingest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeIMDWorkbook builds a minimal IMD workbook in the published
// layout: one sheet with LSOA code, decile and rank columns.
func writeIMDWorkbook(t *testing.T, sheet string, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheet)
	require.NoError(t, err)
	f.SetActiveSheet(idx)
	require.NoError(t, f.DeleteSheet("Sheet1"))

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "imd2019.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func imdHeader() []interface{} {
	return []interface{}{
		"LSOA code (2011)",
		"LSOA name (2011)",
		"Index of Multiple Deprivation (IMD) Rank",
		"Index of Multiple Deprivation (IMD) Decile",
	}
}

func TestLoadIMD(t *testing.T) {
	path := writeIMDWorkbook(t, "IMD2019", [][]interface{}{
		imdHeader(),
		{"E01000001", "Area One", 120, 1},
		{"E01000002", "Area Two", "31,800", 10},
	})

	records, err := LoadIMD(context.Background(), nil, path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "E01000001", records[0].LSOA)
	assert.Equal(t, 1, records[0].Decile)
	assert.Equal(t, 120, records[0].Rank)

	// Thousands separators in rank cells parse.
	assert.Equal(t, 31800, records[1].Rank)
	assert.Equal(t, 10, records[1].Decile)
}

func TestLoadIMDFindsUnconventionalSheetName(t *testing.T) {
	path := writeIMDWorkbook(t, "Deprivation data", [][]interface{}{
		imdHeader(),
		{"E01000001", "Area One", 120, 1},
	})

	records, err := LoadIMD(context.Background(), nil, path)
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestLoadIMDSkipsBlankRows(t *testing.T) {
	path := writeIMDWorkbook(t, "IMD2019", [][]interface{}{
		imdHeader(),
		{"E01000001", "Area One", 120, 1},
		{"", "", "", ""},
	})

	records, err := LoadIMD(context.Background(), nil, path)
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestLoadIMDDecileOutOfRange(t *testing.T) {
	path := writeIMDWorkbook(t, "IMD2019", [][]interface{}{
		imdHeader(),
		{"E01000001", "Area One", 120, 11},
	})

	_, err := LoadIMD(context.Background(), nil, path)
	assert.Error(t, err)
}

func TestLoadIMDNoUsableSheet(t *testing.T) {
	path := writeIMDWorkbook(t, "Notes", [][]interface{}{
		{"This workbook", "holds no index data"},
		{"at all", ""},
	})

	_, err := LoadIMD(context.Background(), nil, path)
	assert.Error(t, err)
}

func TestLoadIMDMissingFile(t *testing.T) {
	_, err := LoadIMD(context.Background(), nil, filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}
