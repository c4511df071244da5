package analysis

import (
	"math"

	"github.com/markagreen/remote-GP-consultations/internal/period"
)

// CorrelationPoint is the cross-sectional Pearson correlation between
// a derived metric and the deprivation measure for one period,
// computed across every region observed that period with non-null
// values on both sides. R is NaN when fewer than two paired
// observations exist: undefined, not zero. Regions carries the paired
// sample size so consumers can apply their own minimum-N gate; the
// series itself enforces none.
type CorrelationPoint struct {
	Period  period.Period `json:"period"`
	R       float64       `json:"r"`
	Regions int           `json:"regions"`
}

// CorrelationSeries is one named correlation-over-time series.
type CorrelationSeries struct {
	Metric string             `json:"metric"`
	Points []CorrelationPoint `json:"points"`
}

// metricPair is one region's (metric, deprivation) observation within
// a period.
type metricPair struct {
	x, y float64
}

// CorrelationOverPeriods groups the paired observations by period and
// computes one CorrelationPoint per period, ordered chronologically.
// Pairs with a NaN on either side are dropped before counting.
func CorrelationOverPeriods(metric string, pairs map[period.Period][]metricPair) CorrelationSeries {
	periods := make([]period.Period, 0, len(pairs))
	for p := range pairs {
		periods = append(periods, p)
	}
	period.Sort(periods)

	points := make([]CorrelationPoint, 0, len(periods))
	for _, p := range periods {
		xs := make([]float64, 0, len(pairs[p]))
		ys := make([]float64, 0, len(pairs[p]))
		for _, pair := range pairs[p] {
			if math.IsNaN(pair.x) || math.IsNaN(pair.y) {
				continue
			}
			xs = append(xs, pair.x)
			ys = append(ys, pair.y)
		}
		points = append(points, CorrelationPoint{
			Period:  p,
			R:       pearson(xs, ys),
			Regions: len(xs),
		})
	}
	return CorrelationSeries{Metric: metric, Points: points}
}

// pearson computes the Pearson correlation coefficient over paired
// samples. NaN when fewer than two pairs remain or either side has
// zero variance.
func pearson(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return math.NaN()
	}

	meanX := mean(x)
	meanY := mean(y)

	var sumXY, sumXX, sumYY float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		sumXY += dx * dy
		sumXX += dx * dx
		sumYY += dy * dy
	}

	if sumXX == 0 || sumYY == 0 {
		return math.NaN()
	}
	return sumXY / math.Sqrt(sumXX*sumYY)
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
