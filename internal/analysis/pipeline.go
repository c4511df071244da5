package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/markagreen/remote-GP-consultations/internal/dataset"
	"github.com/markagreen/remote-GP-consultations/internal/deprivation"
	"github.com/markagreen/remote-GP-consultations/internal/period"
)

// Metric names used to key the correlation series and output columns.
const (
	MetricRemoteShare        = "remote_share"
	MetricDNAInPerson        = "dna_in_person"
	MetricDNARemote          = "dna_remote"
	MetricSameDayRemoteShare = "same_day_remote_share"
	MetricSameDayF2FShare    = "same_day_f2f_share"
)

// SeriesRow is one row of a derived time-series table: every derived
// metric for one period and, in the regional table, one region.
// Metric values are NaN where the underlying denominator was zero or
// the group never appeared in a pivot. Deprivation is nil for the
// national table and for regions with no match in the reference table.
type SeriesRow struct {
	Period period.Period
	Date   time.Time
	Region dataset.RegionKey // empty for the national table

	RemoteShare        float64
	DNAInPerson        float64
	DNARemote          float64
	SameDayRemoteShare float64
	SameDayF2FShare    float64

	UnknownStaffPC    float64
	UnknownStatusPC   float64
	UnknownModePC     float64
	UnknownIntervalPC float64

	Deprivation *deprivation.Summary
}

// Result holds every derived table of one pipeline run.
type Result struct {
	Regional     []SeriesRow
	National     []SeriesRow
	Correlations []CorrelationSeries
}

// Pipeline derives the regional and national metric series and the
// cross-sectional correlation series from the unioned appointment
// table and the deprivation reference table. Each run is a pure
// function of its inputs; identical inputs reproduce identical
// outputs.
type Pipeline struct {
	logger *slog.Logger
}

// NewPipeline creates a pipeline with the given logger.
func NewPipeline(logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{logger: logger}
}

// Run executes the full derivation pass. The deprivation table is
// joined left onto the regional series only; the national series has
// no region key to join on.
func (p *Pipeline) Run(ctx context.Context, records []dataset.AppointmentRecord, depriv map[dataset.RegionKey]deprivation.Summary) (*Result, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no appointment records to analyse")
	}
	start := time.Now()

	regional := p.buildSeries(records, true)
	p.joinDeprivation(ctx, regional, depriv)
	national := p.buildSeries(records, false)
	correlations := p.buildCorrelations(regional)

	regions := make(map[dataset.RegionKey]struct{})
	for _, row := range regional {
		regions[row.Region] = struct{}{}
	}
	p.logger.InfoContext(ctx, "analysis pipeline completed",
		"records", len(records),
		"regions", len(regions),
		"first_period", national[0].Period.Token(),
		"last_period", national[len(national)-1].Period.Token(),
		"regional_rows", len(regional),
		"national_rows", len(national),
		"correlation_series", len(correlations),
		"elapsed", time.Since(start),
	)

	return &Result{
		Regional:     regional,
		National:     national,
		Correlations: correlations,
	}, nil
}

// buildSeries runs the pivots and metric derivations for one grouping
// level. The national series is recomputed from the raw records, never
// by averaging regional percentages: a percentage of percentages is
// not a percentage of totals.
func (p *Pipeline) buildSeries(records []dataset.AppointmentRecord, byRegion bool) []SeriesRow {
	rows := make(map[groupKey]*SeriesRow)
	get := func(key groupKey) *SeriesRow {
		row, ok := rows[key]
		if !ok {
			row = &SeriesRow{
				Period:             key.period,
				Date:               key.period.Date(),
				Region:             key.region,
				RemoteShare:        math.NaN(),
				DNAInPerson:        math.NaN(),
				DNARemote:          math.NaN(),
				SameDayRemoteShare: math.NaN(),
				SameDayF2FShare:    math.NaN(),
				UnknownStaffPC:     math.NaN(),
				UnknownStatusPC:    math.NaN(),
				UnknownModePC:      math.NaN(),
				UnknownIntervalPC:  math.NaN(),
			}
			rows[key] = row
		}
		return row
	}

	// The consultation-mode metrics cover GP-delivered appointments
	// only; the restriction happens before grouping.
	for _, sm := range ReshapeStatusMode(FilterGP(records), byRegion) {
		row := get(groupKey{sm.Period, sm.Region})
		row.RemoteShare = sm.RemoteShare()
		row.DNAInPerson = sm.DNAInPerson()
		row.DNARemote = sm.DNARemote()
	}

	for _, ir := range ReshapeIntervalRemote(records, byRegion) {
		row := get(groupKey{ir.Period, ir.Region})
		row.SameDayRemoteShare = ir.SameDayShare(FlagRemote)
		row.SameDayF2FShare = ir.SameDayShare(FlagFaceToFace)
	}

	for _, ms := range MissingDataShares(records, byRegion) {
		row := get(groupKey{ms.Period, ms.Region})
		row.UnknownStaffPC = ms.UnknownStaffPC
		row.UnknownStatusPC = ms.UnknownStatusPC
		row.UnknownModePC = ms.UnknownModePC
		row.UnknownIntervalPC = ms.UnknownIntervalPC
	}

	out := make([]SeriesRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	sortRows(out, func(r SeriesRow) groupKey { return groupKey{r.Period, r.Region} })
	return out
}

// joinDeprivation attaches the deprivation summary to each regional
// row. An unmatched region keeps nil deprivation fields rather than
// zeroes; boundary definitions legitimately drift between vintages, so
// this is a warning, not a failure.
func (p *Pipeline) joinDeprivation(ctx context.Context, rows []SeriesRow, depriv map[dataset.RegionKey]deprivation.Summary) {
	unmatched := make(map[dataset.RegionKey]struct{})
	for i := range rows {
		summary, ok := depriv[rows[i].Region]
		if !ok {
			unmatched[rows[i].Region] = struct{}{}
			continue
		}
		s := summary
		rows[i].Deprivation = &s
	}
	if len(unmatched) > 0 {
		keys := make([]string, 0, len(unmatched))
		for region := range unmatched {
			keys = append(keys, string(region))
		}
		p.logger.WarnContext(ctx, "regions without deprivation match",
			"regions", keys,
		)
	}
}

// buildCorrelations derives one correlation-over-time series per
// metric, pairing each region's metric value against its bottom-
// quintile deprivation share within each period. Regions without a
// deprivation match contribute no pairs.
func (p *Pipeline) buildCorrelations(regional []SeriesRow) []CorrelationSeries {
	metrics := []struct {
		name  string
		value func(SeriesRow) float64
	}{
		{MetricRemoteShare, func(r SeriesRow) float64 { return r.RemoteShare }},
		{MetricDNAInPerson, func(r SeriesRow) float64 { return r.DNAInPerson }},
		{MetricDNARemote, func(r SeriesRow) float64 { return r.DNARemote }},
		{MetricSameDayRemoteShare, func(r SeriesRow) float64 { return r.SameDayRemoteShare }},
		{MetricSameDayF2FShare, func(r SeriesRow) float64 { return r.SameDayF2FShare }},
	}

	series := make([]CorrelationSeries, 0, len(metrics))
	for _, m := range metrics {
		pairs := make(map[period.Period][]metricPair)
		for _, row := range regional {
			if row.Deprivation == nil {
				continue
			}
			pairs[row.Period] = append(pairs[row.Period], metricPair{
				x: m.value(row),
				y: row.Deprivation.BottomQuintilePC,
			})
		}
		series = append(series, CorrelationOverPeriods(m.name, pairs))
	}
	return series
}
