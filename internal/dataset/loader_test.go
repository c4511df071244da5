package dataset

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markagreen/remote-GP-consultations/internal/period"
)

func validHeader() []string {
	return []string{
		ColRegion, ColPeriod, ColStaff, ColStatus, ColMode, ColInterval, ColCount,
	}
}

func TestUnion(t *testing.T) {
	extracts := []Extract{
		{
			Name:   "north.csv",
			Header: validHeader(),
			Rows: [][]string{
				{"E38000001", "Apr-20", "GP", "Attended", "Telephone", "Same Day", "120"},
				{"E38000001", "APR2020", "GP", "Attended", "Face-to-Face", "1 Day", "1,450"},
			},
		},
		{
			Name:   "south.csv",
			Header: validHeader(),
			Rows: [][]string{
				{"E38000002", "Apr-20", "Other Practice staff", "DNA", "Home Visit", "2 to 7 Days", "8"},
			},
		},
	}

	records, err := Union(context.Background(), nil, extracts)
	require.NoError(t, err)
	require.Len(t, records, 3)

	apr20 := period.Period{Year: 2020, Month: time.April}
	assert.Equal(t, AppointmentRecord{
		Region:   "E38000001",
		Period:   apr20,
		Staff:    StaffGP,
		Status:   StatusAttended,
		Mode:     ModeTelephone,
		Interval: IntervalSameDay,
		Count:    NewCount(120),
	}, records[0])

	// Mixed token families normalise to the same period bucket, and
	// thousands separators in counts parse.
	assert.Equal(t, apr20, records[1].Period)
	assert.Equal(t, NewCount(1450), records[1].Count)
	assert.Equal(t, RegionKey("E38000002"), records[2].Region)
}

func TestUnionSchemaMismatch(t *testing.T) {
	extracts := []Extract{
		{
			Name:   "broken.csv",
			Header: []string{ColRegion, ColPeriod, ColStaff, ColStatus, ColMode},
			Rows:   [][]string{{"E38000001", "Apr-20", "GP", "Attended", "Telephone"}},
		},
	}

	_, err := Union(context.Background(), nil, extracts)
	require.Error(t, err)

	var mismatch *SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "broken.csv", mismatch.Extract)
	assert.ElementsMatch(t, []string{ColInterval, ColCount}, mismatch.Missing)
}

func TestUnionUnrecognizedPeriodToken(t *testing.T) {
	extracts := []Extract{
		{
			Name:   "bad-period.csv",
			Header: validHeader(),
			Rows: [][]string{
				{"E38000001", "Foo-99", "GP", "Attended", "Telephone", "Same Day", "10"},
			},
		},
	}

	_, err := Union(context.Background(), nil, extracts)
	require.Error(t, err)

	var tokenErr *period.UnrecognizedPeriodTokenError
	require.ErrorAs(t, err, &tokenErr)
	assert.Equal(t, "Foo-99", tokenErr.Token)
}

func TestUnionRejectsSpellingDrift(t *testing.T) {
	tests := []struct {
		name string
		row  []string
	}{
		{"status drift", []string{"E38000001", "Apr-20", "GP", "Did Not Attend", "Telephone", "Same Day", "10"}},
		{"mode drift", []string{"E38000001", "Apr-20", "GP", "Attended", "Video", "Same Day", "10"}},
		{"staff drift", []string{"E38000001", "Apr-20", "Doctor", "Attended", "Telephone", "Same Day", "10"}},
		{"interval drift", []string{"E38000001", "Apr-20", "GP", "Attended", "Telephone", "0 Days", "10"}},
		{"negative count", []string{"E38000001", "Apr-20", "GP", "Attended", "Telephone", "Same Day", "-1"}},
		{"empty region", []string{"", "Apr-20", "GP", "Attended", "Telephone", "Same Day", "10"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extracts := []Extract{{Name: "drift.csv", Header: validHeader(), Rows: [][]string{tt.row}}}
			_, err := Union(context.Background(), nil, extracts)
			assert.Error(t, err)
		})
	}
}

func TestUnionMissingCount(t *testing.T) {
	extracts := []Extract{
		{
			Name:   "gaps.csv",
			Header: validHeader(),
			Rows: [][]string{
				{"E38000001", "Apr-20", "GP", "Attended", "Telephone", "Same Day", ""},
			},
		},
	}

	records, err := Union(context.Background(), nil, extracts)
	require.NoError(t, err)
	require.Len(t, records, 1)

	// An absent count is not a zero count.
	assert.False(t, records[0].Count.Valid)
	assert.Equal(t, int64(0), records[0].Count.OrZero())
}

func TestUnionColumnOrderIndependent(t *testing.T) {
	extracts := []Extract{
		{
			Name: "reordered.csv",
			Header: []string{
				ColCount, ColInterval, ColMode, ColStatus, ColStaff, ColPeriod, ColRegion,
			},
			Rows: [][]string{
				{"33", "Same Day", "Telephone", "Attended", "GP", "Apr-20", "E38000001"},
			},
		},
	}

	records, err := Union(context.Background(), nil, extracts)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, NewCount(33), records[0].Count)
	assert.Equal(t, RegionKey("E38000001"), records[0].Region)
}
