package analysis

import (
	"math"

	"github.com/markagreen/remote-GP-consultations/internal/dataset"
	"github.com/markagreen/remote-GP-consultations/internal/period"
)

// Percentages are reported on the 0-100 scale. A zero denominator is a
// valid data point meaning "undefined", reported as NaN rather than
// raised as an error; it must never collapse to 0, since zero and
// undefined mean different things for a percentage.

// safePct computes 100*num/den, returning NaN when the denominator is
// zero.
func safePct(num, den int64) float64 {
	if den == 0 {
		return math.NaN()
	}
	return 100 * float64(num) / float64(den)
}

// RemoteShare is the share of attended GP consultations delivered
// remotely: 100 * (attended telephone + attended video) over all four
// attended consultation modes. Every mode that can produce an attended
// consultation is part of the denominator; dropping one would silently
// bias the metric.
func (r StatusModeRow) RemoteShare() float64 {
	remote := r.Count(dataset.StatusAttended, dataset.ModeTelephone) +
		r.Count(dataset.StatusAttended, dataset.ModeVideoOnline)
	inPerson := r.Count(dataset.StatusAttended, dataset.ModeFaceToFace) +
		r.Count(dataset.StatusAttended, dataset.ModeHomeVisit)
	return safePct(remote, remote+inPerson)
}

// DNAInPerson is the did-not-attend rate among in-person bookings:
// 100 * (DNA face-to-face + DNA home) over attended plus DNA in-person
// bookings.
func (r StatusModeRow) DNAInPerson() float64 {
	dna := r.Count(dataset.StatusDNA, dataset.ModeFaceToFace) +
		r.Count(dataset.StatusDNA, dataset.ModeHomeVisit)
	attended := r.Count(dataset.StatusAttended, dataset.ModeFaceToFace) +
		r.Count(dataset.StatusAttended, dataset.ModeHomeVisit)
	return safePct(dna, dna+attended)
}

// DNARemote is the did-not-attend rate among remote bookings:
// 100 * (DNA telephone + DNA video) over attended plus DNA remote
// bookings.
func (r StatusModeRow) DNARemote() float64 {
	dna := r.Count(dataset.StatusDNA, dataset.ModeTelephone) +
		r.Count(dataset.StatusDNA, dataset.ModeVideoOnline)
	attended := r.Count(dataset.StatusAttended, dataset.ModeTelephone) +
		r.Count(dataset.StatusAttended, dataset.ModeVideoOnline)
	return safePct(dna, dna+attended)
}

// SameDayShare is the share of one remote-flag's attended GP
// consultations booked and delivered the same day, over that flag's
// consultations across all booking intervals.
func (r IntervalRemoteRow) SameDayShare(flag RemoteFlag) float64 {
	return safePct(r.Count(dataset.IntervalSameDay, flag), r.FlagTotal(flag))
}

// MissingShareRow holds the missing-data share of each categorical
// field for one (period[, region]) group: the percentage of
// appointments recorded under the field's unknown category, over all
// categories of that field. Computed from the unfiltered record table,
// since the GP restriction itself depends on one of the fields under
// test.
type MissingShareRow struct {
	Period period.Period
	Region dataset.RegionKey // empty for the national table

	UnknownStaffPC    float64
	UnknownStatusPC   float64
	UnknownModePC     float64
	UnknownIntervalPC float64
}

// MissingDataShares computes per-group missing-data shares for the
// four categorical extract fields. Absent counts sum as zero here, as
// in every aggregation context.
func MissingDataShares(records []dataset.AppointmentRecord, byRegion bool) []MissingShareRow {
	type tally struct {
		total, staff, status, mode, interval int64
	}
	groups := make(map[groupKey]*tally)
	for _, rec := range records {
		key := groupKey{period: rec.Period}
		if byRegion {
			key.region = rec.Region
		}
		t, ok := groups[key]
		if !ok {
			t = &tally{}
			groups[key] = t
		}
		n := rec.Count.OrZero()
		t.total += n
		if rec.Staff == dataset.StaffUnknown {
			t.staff += n
		}
		if rec.Status == dataset.StatusUnknown {
			t.status += n
		}
		if rec.Mode == dataset.ModeUnknown {
			t.mode += n
		}
		if rec.Interval == dataset.IntervalUnknownData {
			t.interval += n
		}
	}

	rows := make([]MissingShareRow, 0, len(groups))
	for key, t := range groups {
		rows = append(rows, MissingShareRow{
			Period:            key.period,
			Region:            key.region,
			UnknownStaffPC:    safePct(t.staff, t.total),
			UnknownStatusPC:   safePct(t.status, t.total),
			UnknownModePC:     safePct(t.mode, t.total),
			UnknownIntervalPC: safePct(t.interval, t.total),
		})
	}
	sortRows(rows, func(r MissingShareRow) groupKey { return groupKey{r.Period, r.Region} })
	return rows
}
