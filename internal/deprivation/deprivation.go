// Package deprivation builds the per-region deprivation reference
// table from the small-area IMD index and the small-area-to-region
// lookup. The table is computed once per pipeline run and joined left
// onto every per-region derived table by region code.
package deprivation

import (
	"context"
	"log/slog"
	"math"

	"github.com/markagreen/remote-GP-consultations/internal/dataset"
)

// Bottom-quintile threshold: IMD deciles 1 and 2.
const bottomQuintileDecileLimit = 3

// IMDRecord is one row of the small-area deprivation index.
type IMDRecord struct {
	LSOA   string
	Decile int
	Rank   int
}

// LookupRecord maps one small area to its administrative region.
type LookupRecord struct {
	LSOA   string
	Region dataset.RegionKey
}

// Summary is the per-region deprivation reference row: how many small
// areas the region contains, how many of them fall in the bottom
// deprivation quintile, and the mean IMD rank across matched small
// areas.
type Summary struct {
	Region              dataset.RegionKey `json:"region"`
	LSOACount           int               `json:"lsoa_count"`
	BottomQuintileCount int               `json:"bottomq_count"`
	BottomQuintilePC    float64           `json:"bottomq_pc"`
	MeanRank            float64           `json:"mean_rank"`
}

// Build joins the lookup left onto the index by small-area code and
// aggregates to one Summary per region. Small areas present in the
// lookup but absent from the index count toward LSOACount but never
// toward BottomQuintileCount or MeanRank (NA-safe aggregation); their
// presence is logged since a large mismatch usually means the lookup
// and index come from different boundary vintages.
func Build(ctx context.Context, logger *slog.Logger, index []IMDRecord, lookup []LookupRecord) map[dataset.RegionKey]Summary {
	if logger == nil {
		logger = slog.Default()
	}

	byLSOA := make(map[string]IMDRecord, len(index))
	for _, rec := range index {
		byLSOA[rec.LSOA] = rec
	}

	type tally struct {
		lsoas   int
		bottomQ int
		rankSum int64
		rankObs int
	}
	regions := make(map[dataset.RegionKey]*tally)
	unmatched := 0

	for _, lk := range lookup {
		t, ok := regions[lk.Region]
		if !ok {
			t = &tally{}
			regions[lk.Region] = t
		}
		t.lsoas++

		rec, ok := byLSOA[lk.LSOA]
		if !ok {
			unmatched++
			continue
		}
		if rec.Decile < bottomQuintileDecileLimit {
			t.bottomQ++
		}
		t.rankSum += int64(rec.Rank)
		t.rankObs++
	}

	summaries := make(map[dataset.RegionKey]Summary, len(regions))
	for region, t := range regions {
		meanRank := math.NaN()
		if t.rankObs > 0 {
			meanRank = float64(t.rankSum) / float64(t.rankObs)
		}
		summaries[region] = Summary{
			Region:              region,
			LSOACount:           t.lsoas,
			BottomQuintileCount: t.bottomQ,
			BottomQuintilePC:    100 * float64(t.bottomQ) / float64(t.lsoas),
			MeanRank:            meanRank,
		}
	}

	if unmatched > 0 {
		logger.WarnContext(ctx, "small areas missing from deprivation index",
			"unmatched_lsoas", unmatched,
			"lookup_rows", len(lookup),
		)
	}
	logger.InfoContext(ctx, "deprivation reference table built",
		"regions", len(summaries),
		"index_rows", len(index),
		"lookup_rows", len(lookup),
	)
	return summaries
}
