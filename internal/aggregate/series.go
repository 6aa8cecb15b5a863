package aggregate

import (
	"sort"

	"floatdeck/internal/types"
)

// MonthlySeries partitions records by calendar month ("YYYY-MM"), computes the
// per-month mean of the given field, and applies a centered moving average of
// the given window size over the chronologically ordered series.
//
// Months with no records produce no point: there is no zero-filling or gap
// interpolation. Near the series boundaries the moving-average window shrinks
// to the available indices rather than padding or wrapping, so edge points
// average over fewer neighbors. windowSize is clamped to a minimum of 1.
//
// The result is independent of input ordering and always sorted ascending by
// year-month key.
func MonthlySeries(records []types.ProfileRecord, field types.MeasurementField, windowSize int) []types.MonthlyPoint {
	if windowSize < 1 {
		windowSize = 1
	}

	valid, _ := types.FilterValid(records)

	type group struct {
		sum   float64
		count int
	}
	groups := make(map[string]*group)
	for _, r := range valid {
		v, err := r.FieldValue(field)
		if err != nil {
			continue
		}
		key := r.YearMonthKey()
		g, ok := groups[key]
		if !ok {
			g = &group{}
			groups[key] = g
		}
		g.sum += v
		g.count++
	}

	points := make([]types.MonthlyPoint, 0, len(groups))
	for key, g := range groups {
		points = append(points, types.MonthlyPoint{
			YearMonth: key,
			Average:   g.sum / float64(g.count),
			Count:     g.count,
		})
	}
	// Zero-padded "YYYY-MM" sorts lexicographically in chronological order.
	sort.Slice(points, func(i, j int) bool {
		return points[i].YearMonth < points[j].YearMonth
	})

	smooth(points, windowSize)
	return points
}

// smooth fills SmoothedAverage in place with a centered moving average.
// For window size w, half = (w-1)/2 and the window at index i is the
// inclusive slice [max(0,i-half), min(n-1,i+half)].
func smooth(points []types.MonthlyPoint, windowSize int) {
	n := len(points)
	half := (windowSize - 1) / 2
	for i := range points {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi > n-1 {
			hi = n - 1
		}
		var sum float64
		for j := lo; j <= hi; j++ {
			sum += points[j].Average
		}
		points[i].SmoothedAverage = sum / float64(hi-lo+1)
	}
}
