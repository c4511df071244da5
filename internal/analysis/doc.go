// Package analysis derives the appointment metric series and the
// deprivation correlation series from the unioned appointment table.
//
// # Pipeline shape
//
// One run is a single synchronous pass. The record table is pivoted
// into wide status-by-mode and booking-interval-by-remote-flag rows,
// the percentage metrics are derived per wide row, the deprivation
// reference table is joined left onto the regional series, and the
// per-period cross-sectional correlations are computed last. The same
// pivots grouped by period alone produce the national series.
//
// The national series is always recomputed from the raw records rather
// than averaged from regional percentages, because the regions carry
// very different appointment volumes.
//
// # Null handling
//
// Aggregation sums treat an absent count as zero. Ratio results with a
// zero denominator are NaN, and NaN survives through to the exporters:
// a period/region with no eligible appointments is a meaningful
// "undefined" data point, never a zero.
//
// # File map
//
//   - reshape.go: long-to-wide pivots with statically enumerated columns
//   - metrics.go: derived percentage metrics over the wide rows
//   - correlation.go: per-period cross-sectional Pearson correlation
//   - pipeline.go: orchestration of one full derivation pass
package analysis
