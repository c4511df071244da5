package analysis

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markagreen/remote-GP-consultations/internal/dataset"
	"github.com/markagreen/remote-GP-consultations/internal/deprivation"
)

// twoRegionRecords is the reference scenario: one period, two regions.
// Region A attends 80 face-to-face and 20 video; region B attends 50
// face-to-face and 50 video.
func twoRegionRecords() []dataset.AppointmentRecord {
	return []dataset.AppointmentRecord{
		rec("A", apr20, dataset.StaffGP, dataset.StatusAttended, dataset.ModeFaceToFace, dataset.IntervalSameDay, 80),
		rec("A", apr20, dataset.StaffGP, dataset.StatusAttended, dataset.ModeVideoOnline, dataset.IntervalSameDay, 20),
		rec("B", apr20, dataset.StaffGP, dataset.StatusAttended, dataset.ModeFaceToFace, dataset.IntervalSameDay, 50),
		rec("B", apr20, dataset.StaffGP, dataset.StatusAttended, dataset.ModeVideoOnline, dataset.IntervalSameDay, 50),
	}
}

func twoRegionDeprivation() map[dataset.RegionKey]deprivation.Summary {
	return map[dataset.RegionKey]deprivation.Summary{
		"A": {Region: "A", LSOACount: 10, BottomQuintileCount: 3, BottomQuintilePC: 30.0, MeanRank: 15000},
		"B": {Region: "B", LSOACount: 20, BottomQuintileCount: 12, BottomQuintilePC: 60.0, MeanRank: 8000},
	}
}

func TestPipelineTwoRegionScenario(t *testing.T) {
	pipeline := NewPipeline(nil)
	result, err := pipeline.Run(context.Background(), twoRegionRecords(), twoRegionDeprivation())
	require.NoError(t, err)

	require.Len(t, result.Regional, 2)
	rowA, rowB := result.Regional[0], result.Regional[1]
	require.Equal(t, dataset.RegionKey("A"), rowA.Region)
	require.Equal(t, dataset.RegionKey("B"), rowB.Region)

	assert.InDelta(t, 20.0, rowA.RemoteShare, 1e-9)
	assert.InDelta(t, 50.0, rowB.RemoteShare, 1e-9)

	// National share recomputes from summed counts: 100*70/180, not
	// the 35.0 a row average would give.
	require.Len(t, result.National, 1)
	assert.Empty(t, result.National[0].Region)
	assert.InDelta(t, 100.0*70.0/180.0, result.National[0].RemoteShare, 1e-9)

	// Deprivation joined onto both regional rows.
	require.NotNil(t, rowA.Deprivation)
	assert.InDelta(t, 30.0, rowA.Deprivation.BottomQuintilePC, 1e-9)
	require.NotNil(t, rowB.Deprivation)
	assert.InDelta(t, 60.0, rowB.Deprivation.BottomQuintilePC, 1e-9)
}

func TestPipelineNationalMatchesWeightedAggregate(t *testing.T) {
	// Unequal volumes: region A is tiny and fully remote, region B is
	// large and fully in-person. The national series must equal the
	// count-weighted recomputation from totals.
	records := []dataset.AppointmentRecord{
		rec("A", apr20, dataset.StaffGP, dataset.StatusAttended, dataset.ModeTelephone, dataset.IntervalSameDay, 10),
		rec("B", apr20, dataset.StaffGP, dataset.StatusAttended, dataset.ModeFaceToFace, dataset.IntervalSameDay, 990),
	}

	pipeline := NewPipeline(nil)
	result, err := pipeline.Run(context.Background(), records, nil)
	require.NoError(t, err)

	require.Len(t, result.National, 1)
	assert.InDelta(t, 1.0, result.National[0].RemoteShare, 1e-9)
}

func TestPipelineCorrelationSeries(t *testing.T) {
	pipeline := NewPipeline(nil)
	result, err := pipeline.Run(context.Background(), twoRegionRecords(), twoRegionDeprivation())
	require.NoError(t, err)

	require.Len(t, result.Correlations, 5)
	names := make([]string, 0, 5)
	for _, series := range result.Correlations {
		names = append(names, series.Metric)
	}
	assert.ElementsMatch(t, []string{
		MetricRemoteShare, MetricDNAInPerson, MetricDNARemote,
		MetricSameDayRemoteShare, MetricSameDayF2FShare,
	}, names)

	for _, series := range result.Correlations {
		if series.Metric != MetricRemoteShare {
			continue
		}
		require.Len(t, series.Points, 1)
		point := series.Points[0]
		assert.Equal(t, apr20, point.Period)
		assert.Equal(t, 2, point.Regions)
		// Two paired points always lie on a line: remote share rises
		// with deprivation here, so r = 1.
		assert.InDelta(t, 1.0, point.R, 1e-9)
	}
}

func TestPipelineCorrelationSinglePairedRegion(t *testing.T) {
	// Only region A has a deprivation match, so each period has one
	// paired observation and the coefficient is undefined.
	depriv := map[dataset.RegionKey]deprivation.Summary{
		"A": {Region: "A", LSOACount: 10, BottomQuintileCount: 3, BottomQuintilePC: 30.0},
	}

	pipeline := NewPipeline(nil)
	result, err := pipeline.Run(context.Background(), twoRegionRecords(), depriv)
	require.NoError(t, err)

	for _, series := range result.Correlations {
		if series.Metric != MetricRemoteShare {
			continue
		}
		require.Len(t, series.Points, 1)
		assert.Equal(t, 1, series.Points[0].Regions)
		assert.True(t, math.IsNaN(series.Points[0].R))
	}

	// Region B keeps null deprivation fields, not zeroes.
	require.Len(t, result.Regional, 2)
	assert.NotNil(t, result.Regional[0].Deprivation)
	assert.Nil(t, result.Regional[1].Deprivation)
}

func TestPipelineGPFilterChangesDenominator(t *testing.T) {
	// Non-GP records are excluded before grouping, so they must not
	// dilute the remote share.
	records := []dataset.AppointmentRecord{
		rec("A", apr20, dataset.StaffGP, dataset.StatusAttended, dataset.ModeTelephone, dataset.IntervalSameDay, 50),
		rec("A", apr20, dataset.StaffGP, dataset.StatusAttended, dataset.ModeFaceToFace, dataset.IntervalSameDay, 50),
		rec("A", apr20, dataset.StaffOther, dataset.StatusAttended, dataset.ModeFaceToFace, dataset.IntervalSameDay, 900),
	}

	pipeline := NewPipeline(nil)
	result, err := pipeline.Run(context.Background(), records, nil)
	require.NoError(t, err)

	require.Len(t, result.Regional, 1)
	assert.InDelta(t, 50.0, result.Regional[0].RemoteShare, 1e-9)
}

func TestPipelineEmptyInput(t *testing.T) {
	pipeline := NewPipeline(nil)
	_, err := pipeline.Run(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestPipelineIsDeterministic(t *testing.T) {
	pipeline := NewPipeline(nil)

	first, err := pipeline.Run(context.Background(), twoRegionRecords(), twoRegionDeprivation())
	require.NoError(t, err)
	second, err := pipeline.Run(context.Background(), twoRegionRecords(), twoRegionDeprivation())
	require.NoError(t, err)

	// This scenario produces no NaN cells in the series tables, so
	// deep equality is exact.
	assert.Equal(t, first.Regional, second.Regional)
	assert.Equal(t, first.National, second.National)

	require.Equal(t, len(first.Correlations), len(second.Correlations))
	for i := range first.Correlations {
		a, b := first.Correlations[i], second.Correlations[i]
		assert.Equal(t, a.Metric, b.Metric)
		require.Equal(t, len(a.Points), len(b.Points))
		for j := range a.Points {
			assert.Equal(t, a.Points[j].Period, b.Points[j].Period)
			assert.Equal(t, a.Points[j].Regions, b.Points[j].Regions)
			if math.IsNaN(a.Points[j].R) {
				assert.True(t, math.IsNaN(b.Points[j].R))
			} else {
				assert.Equal(t, a.Points[j].R, b.Points[j].R)
			}
		}
	}
}
