package exporter

import (
	"sort"

	"github.com/markagreen/remote-GP-consultations/internal/analysis"
	"github.com/markagreen/remote-GP-consultations/internal/dataset"
	"github.com/markagreen/remote-GP-consultations/internal/deprivation"
)

// Output file names beneath the output directory.
const (
	RegionalSeriesFile    = "gp_metrics_regional.csv"
	NationalSeriesFile    = "gp_metrics_national.csv"
	CorrelationSeriesFile = "gp_deprivation_correlations.csv"
	DeprivationTableFile  = "ccg_deprivation_summary.csv"
)

// WriteResult writes every derived table of one pipeline run.
func (w *CSVWriter) WriteResult(result *analysis.Result, depriv map[dataset.RegionKey]deprivation.Summary) error {
	if err := w.WriteRegionalSeries(result.Regional); err != nil {
		return err
	}
	if err := w.WriteNationalSeries(result.National); err != nil {
		return err
	}
	if err := w.WriteCorrelations(result.Correlations); err != nil {
		return err
	}
	return w.WriteDeprivationTable(depriv)
}

// WriteRegionalSeries writes the per-region derived series with the
// joined deprivation fields.
func (w *CSVWriter) WriteRegionalSeries(rows []analysis.SeriesRow) error {
	headers := []string{
		"period", "date", "ccg_code",
		analysis.MetricRemoteShare, analysis.MetricDNAInPerson, analysis.MetricDNARemote,
		analysis.MetricSameDayRemoteShare, analysis.MetricSameDayF2FShare,
		"unknown_hcp_pc", "unknown_status_pc", "unknown_mode_pc", "unknown_interval_pc",
		"lsoa_count", "bottomq_count", "bottomq_pc", "mean_rank",
	}

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		record := append(seriesCells(row), deprivationCells(row.Deprivation)...)
		records = append(records, record)
	}
	return w.write(RegionalSeriesFile, headers, records)
}

// WriteNationalSeries writes the England-wide reference series.
func (w *CSVWriter) WriteNationalSeries(rows []analysis.SeriesRow) error {
	headers := []string{
		"period", "date",
		analysis.MetricRemoteShare, analysis.MetricDNAInPerson, analysis.MetricDNARemote,
		analysis.MetricSameDayRemoteShare, analysis.MetricSameDayF2FShare,
		"unknown_hcp_pc", "unknown_status_pc", "unknown_mode_pc", "unknown_interval_pc",
	}

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells := seriesCells(row)
		// Drop the region column; the national table has no region key.
		records = append(records, append(cells[:2:2], cells[3:]...))
	}
	return w.write(NationalSeriesFile, headers, records)
}

// WriteCorrelations writes the per-period correlation series, one row
// per (metric, period). Undefined coefficients render empty.
func (w *CSVWriter) WriteCorrelations(series []analysis.CorrelationSeries) error {
	headers := []string{"metric", "period", "date", "pearson_r", "regions"}

	var records [][]string
	for _, s := range series {
		for _, point := range s.Points {
			records = append(records, []string{
				s.Metric,
				point.Period.Token(),
				point.Period.Date().Format("2006-01-02"),
				formatFloat(point.R),
				formatInt(point.Regions),
			})
		}
	}
	return w.write(CorrelationSeriesFile, headers, records)
}

// WriteDeprivationTable writes the static per-region deprivation
// reference table, ordered by region code.
func (w *CSVWriter) WriteDeprivationTable(depriv map[dataset.RegionKey]deprivation.Summary) error {
	headers := []string{"ccg_code", "lsoa_count", "bottomq_count", "bottomq_pc", "mean_rank"}

	regions := make([]string, 0, len(depriv))
	for region := range depriv {
		regions = append(regions, string(region))
	}
	sort.Strings(regions)

	records := make([][]string, 0, len(regions))
	for _, region := range regions {
		s := depriv[dataset.RegionKey(region)]
		records = append(records, []string{
			region,
			formatInt(s.LSOACount),
			formatInt(s.BottomQuintileCount),
			formatFloat(s.BottomQuintilePC),
			formatFloat(s.MeanRank),
		})
	}
	return w.write(DeprivationTableFile, headers, records)
}

// seriesCells renders the shared series columns:
// period, date, region, five metrics, four missing-data shares.
func seriesCells(row analysis.SeriesRow) []string {
	return []string{
		row.Period.Token(),
		row.Date.Format("2006-01-02"),
		string(row.Region),
		formatFloat(row.RemoteShare),
		formatFloat(row.DNAInPerson),
		formatFloat(row.DNARemote),
		formatFloat(row.SameDayRemoteShare),
		formatFloat(row.SameDayF2FShare),
		formatFloat(row.UnknownStaffPC),
		formatFloat(row.UnknownStatusPC),
		formatFloat(row.UnknownModePC),
		formatFloat(row.UnknownIntervalPC),
	}
}

// deprivationCells renders the joined deprivation columns; a nil
// summary (unmatched region) renders as empty cells, not zeroes.
func deprivationCells(s *deprivation.Summary) []string {
	if s == nil {
		return []string{"", "", "", ""}
	}
	return []string{
		formatInt(s.LSOACount),
		formatInt(s.BottomQuintileCount),
		formatFloat(s.BottomQuintilePC),
		formatFloat(s.MeanRank),
	}
}
