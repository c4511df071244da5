package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/markagreen/remote-GP-consultations/internal/period"
)

// Extract column names as published in the monthly files.
const (
	ColRegion   = "CCG_CODE"
	ColPeriod   = "Appointment_Month"
	ColStaff    = "HCP_Type"
	ColStatus   = "Appt_Status"
	ColMode     = "Appt_Mode"
	ColInterval = "Time_Between_Book_and_Appt"
	ColCount    = "Count_Of_Appointments"
)

// RequiredColumns lists every column an extract must carry to be
// unioned safely.
func RequiredColumns() []string {
	return []string{ColRegion, ColPeriod, ColStaff, ColStatus, ColMode, ColInterval, ColCount}
}

// Extract is one raw per-region monthly file as returned by the
// ingestion layer: a header row plus data rows, no interpretation
// applied yet.
type Extract struct {
	Name   string
	Header []string
	Rows   [][]string
}

// SchemaMismatchError reports an extract missing one or more expected
// columns. Fatal: the reshape step addresses columns by exact
// categorical spellings, so a malformed extract must surface
// immediately rather than propagate as an all-zero derived metric.
type SchemaMismatchError struct {
	Extract string
	Missing []string
}

// Error implements the error interface.
func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("extract %q: missing expected columns: %s",
		e.Extract, strings.Join(e.Missing, ", "))
}

// Union merges the per-region monthly extracts into one table of
// appointment records, normalising period tokens in place immediately
// after the union. It fails on the first schema mismatch, unparseable
// categorical value, or unrecognised period token; partial output is
// never produced.
func Union(ctx context.Context, logger *slog.Logger, extracts []Extract) ([]AppointmentRecord, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var records []AppointmentRecord
	for _, extract := range extracts {
		cols, err := mapColumns(extract)
		if err != nil {
			return nil, err
		}

		parsed := 0
		for i, row := range extract.Rows {
			rec, err := parseRow(extract.Name, i+2, row, cols)
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
			parsed++
		}

		logger.InfoContext(ctx, "unioned extract",
			"extract", extract.Name,
			"rows", parsed,
		)
	}

	logger.InfoContext(ctx, "union completed",
		"extracts", len(extracts),
		"records", len(records),
	)
	return records, nil
}

// columnIndexes holds the position of each required column within an
// extract's header.
type columnIndexes struct {
	region, period, staff, status, mode, interval, count int
}

func mapColumns(extract Extract) (columnIndexes, error) {
	positions := make(map[string]int, len(extract.Header))
	for i, name := range extract.Header {
		positions[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, name := range RequiredColumns() {
		if _, ok := positions[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return columnIndexes{}, &SchemaMismatchError{Extract: extract.Name, Missing: missing}
	}

	return columnIndexes{
		region:   positions[ColRegion],
		period:   positions[ColPeriod],
		staff:    positions[ColStaff],
		status:   positions[ColStatus],
		mode:     positions[ColMode],
		interval: positions[ColInterval],
		count:    positions[ColCount],
	}, nil
}

func parseRow(name string, line int, row []string, cols columnIndexes) (AppointmentRecord, error) {
	cell := func(idx int) string {
		if idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	regionCode := cell(cols.region)
	if regionCode == "" {
		return AppointmentRecord{}, fmt.Errorf("extract %q line %d: empty region code", name, line)
	}

	p, err := period.Normalize(cell(cols.period))
	if err != nil {
		return AppointmentRecord{}, fmt.Errorf("extract %q line %d: %w", name, line, err)
	}

	staff, err := ParseStaffType(cell(cols.staff))
	if err != nil {
		return AppointmentRecord{}, fmt.Errorf("extract %q line %d: %w", name, line, err)
	}
	status, err := ParseStatus(cell(cols.status))
	if err != nil {
		return AppointmentRecord{}, fmt.Errorf("extract %q line %d: %w", name, line, err)
	}
	mode, err := ParseMode(cell(cols.mode))
	if err != nil {
		return AppointmentRecord{}, fmt.Errorf("extract %q line %d: %w", name, line, err)
	}
	interval, err := ParseInterval(cell(cols.interval))
	if err != nil {
		return AppointmentRecord{}, fmt.Errorf("extract %q line %d: %w", name, line, err)
	}

	count, err := parseCount(cell(cols.count))
	if err != nil {
		return AppointmentRecord{}, fmt.Errorf("extract %q line %d: %w", name, line, err)
	}

	return AppointmentRecord{
		Region:   RegionKey(regionCode),
		Period:   p,
		Staff:    staff,
		Status:   status,
		Mode:     mode,
		Interval: interval,
		Count:    count,
	}, nil
}

// parseCount parses an appointment count cell. An empty cell is an
// absent count, not zero: aggregation treats it as zero, missing-data
// analysis keeps the distinction.
func parseCount(s string) (Count, error) {
	if s == "" {
		return Count{}, nil
	}
	v, err := strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
	if err != nil {
		return Count{}, fmt.Errorf("parse appointment count %q: %w", s, err)
	}
	if v < 0 {
		return Count{}, fmt.Errorf("negative appointment count %d", v)
	}
	return NewCount(v), nil
}
