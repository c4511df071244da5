package analysis

import (
	"sort"

	"github.com/markagreen/remote-GP-consultations/internal/dataset"
	"github.com/markagreen/remote-GP-consultations/internal/period"
)

// StatusModeKey addresses one pivot column of the status-by-mode wide
// table. Keys are built from the dataset enums only, so the column set
// is statically known and a spelling drift in an input file cannot
// produce a silent all-zero column.
type StatusModeKey struct {
	Status dataset.Status
	Mode   dataset.Mode
}

// StatusModeKeys enumerates every column of the status-by-mode pivot
// in stable order.
func StatusModeKeys() []StatusModeKey {
	var keys []StatusModeKey
	for _, status := range dataset.Statuses() {
		for _, mode := range dataset.Modes() {
			keys = append(keys, StatusModeKey{Status: status, Mode: mode})
		}
	}
	return keys
}

// StatusModeRow is one wide row of the status-by-mode pivot: summed
// appointment counts per (status, mode) for one period and, for the
// regional table, one region. Missing combinations hold zero, never
// null; zero-fill applies to the count columns only, never to the
// identifying keys.
type StatusModeRow struct {
	Period period.Period
	Region dataset.RegionKey // empty for the national table
	Counts map[StatusModeKey]int64
}

// Count returns the summed count for one (status, mode) column.
func (r StatusModeRow) Count(status dataset.Status, mode dataset.Mode) int64 {
	return r.Counts[StatusModeKey{Status: status, Mode: mode}]
}

// Total sums every column of the row.
func (r StatusModeRow) Total() int64 {
	var total int64
	for _, n := range r.Counts {
		total += n
	}
	return total
}

// groupKey identifies one wide row during reshaping.
type groupKey struct {
	period period.Period
	region dataset.RegionKey
}

// ReshapeStatusMode pivots the long appointment table into wide
// status-by-mode rows. With byRegion false the region key is dropped
// before grouping, producing the national table. Absent counts sum as
// zero (aggregation context).
func ReshapeStatusMode(records []dataset.AppointmentRecord, byRegion bool) []StatusModeRow {
	groups := make(map[groupKey]map[StatusModeKey]int64)
	for _, rec := range records {
		key := groupKey{period: rec.Period}
		if byRegion {
			key.region = rec.Region
		}
		counts, ok := groups[key]
		if !ok {
			counts = zeroFilledStatusMode()
			groups[key] = counts
		}
		counts[StatusModeKey{Status: rec.Status, Mode: rec.Mode}] += rec.Count.OrZero()
	}

	rows := make([]StatusModeRow, 0, len(groups))
	for key, counts := range groups {
		rows = append(rows, StatusModeRow{Period: key.period, Region: key.region, Counts: counts})
	}
	sortRows(rows, func(r StatusModeRow) groupKey { return groupKey{r.Period, r.Region} })
	return rows
}

func zeroFilledStatusMode() map[StatusModeKey]int64 {
	counts := make(map[StatusModeKey]int64, len(dataset.Statuses())*len(dataset.Modes()))
	for _, key := range StatusModeKeys() {
		counts[key] = 0
	}
	return counts
}

// RemoteFlag classifies an appointment mode into the remote /
// face-to-face dichotomy used by the booking-interval pivot.
type RemoteFlag string

// RemoteFlag values.
const (
	FlagRemote     RemoteFlag = "Remote"
	FlagFaceToFace RemoteFlag = "FaceToFace"
)

// RemoteFlags lists both flags in stable order.
func RemoteFlags() []RemoteFlag {
	return []RemoteFlag{FlagRemote, FlagFaceToFace}
}

// IntervalRemoteKey addresses one pivot column of the
// booking-interval-by-remote-flag wide table.
type IntervalRemoteKey struct {
	Interval dataset.Interval
	Remote   RemoteFlag
}

// IntervalRemoteKeys enumerates every column of the interval pivot in
// stable order: the seven resolved interval buckets crossed with both
// remote flags.
func IntervalRemoteKeys() []IntervalRemoteKey {
	var keys []IntervalRemoteKey
	for _, interval := range dataset.KnownIntervals() {
		for _, flag := range RemoteFlags() {
			keys = append(keys, IntervalRemoteKey{Interval: interval, Remote: flag})
		}
	}
	return keys
}

// IntervalRemoteRow is one wide row of the booking-interval pivot,
// restricted to attended GP-delivered appointments.
type IntervalRemoteRow struct {
	Period period.Period
	Region dataset.RegionKey // empty for the national table
	Counts map[IntervalRemoteKey]int64
}

// Count returns the summed count for one (interval, flag) column.
func (r IntervalRemoteRow) Count(interval dataset.Interval, flag RemoteFlag) int64 {
	return r.Counts[IntervalRemoteKey{Interval: interval, Remote: flag}]
}

// FlagTotal sums every interval column for one remote flag.
func (r IntervalRemoteRow) FlagTotal(flag RemoteFlag) int64 {
	var total int64
	for _, interval := range dataset.KnownIntervals() {
		total += r.Count(interval, flag)
	}
	return total
}

// ReshapeIntervalRemote pivots attended GP-delivered appointments into
// wide booking-interval-by-remote-flag rows. The attended + GP staff
// restriction is applied here, before grouping, because it changes the
// denominator composition of the interval shares. Modes outside the
// four consultation modes and records with an unresolved interval are
// excluded from this pivot.
func ReshapeIntervalRemote(records []dataset.AppointmentRecord, byRegion bool) []IntervalRemoteRow {
	groups := make(map[groupKey]map[IntervalRemoteKey]int64)
	for _, rec := range records {
		if rec.Status != dataset.StatusAttended || rec.Staff != dataset.StaffGP {
			continue
		}
		flag, ok := remoteFlag(rec.Mode)
		if !ok {
			continue
		}
		if rec.Interval == dataset.IntervalUnknownData {
			continue
		}

		key := groupKey{period: rec.Period}
		if byRegion {
			key.region = rec.Region
		}
		counts, ok := groups[key]
		if !ok {
			counts = zeroFilledIntervalRemote()
			groups[key] = counts
		}
		counts[IntervalRemoteKey{Interval: rec.Interval, Remote: flag}] += rec.Count.OrZero()
	}

	rows := make([]IntervalRemoteRow, 0, len(groups))
	for key, counts := range groups {
		rows = append(rows, IntervalRemoteRow{Period: key.period, Region: key.region, Counts: counts})
	}
	sortRows(rows, func(r IntervalRemoteRow) groupKey { return groupKey{r.Period, r.Region} })
	return rows
}

func zeroFilledIntervalRemote() map[IntervalRemoteKey]int64 {
	counts := make(map[IntervalRemoteKey]int64, len(dataset.KnownIntervals())*2)
	for _, key := range IntervalRemoteKeys() {
		counts[key] = 0
	}
	return counts
}

// remoteFlag derives the remote flag from the appointment mode.
// Telephone and video/online consultations are remote, face-to-face
// and home visits are not, and any other mode lies outside the
// booking-interval-by-mode analysis.
func remoteFlag(mode dataset.Mode) (RemoteFlag, bool) {
	switch {
	case mode.IsRemote():
		return FlagRemote, true
	case mode.IsInPerson():
		return FlagFaceToFace, true
	}
	return "", false
}

// FilterGP returns only the GP-delivered records. The remote
// consultation pivots apply this before grouping, not as a post-hoc
// filter on the wide table.
func FilterGP(records []dataset.AppointmentRecord) []dataset.AppointmentRecord {
	filtered := make([]dataset.AppointmentRecord, 0, len(records))
	for _, rec := range records {
		if rec.Staff == dataset.StaffGP {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

// sortRows orders wide rows chronologically, then by region within a
// period, giving deterministic output across runs.
func sortRows[T any](rows []T, key func(T) groupKey) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := key(rows[i]), key(rows[j])
		if a.period != b.period {
			return a.period.Before(b.period)
		}
		return a.region < b.region
	})
}
