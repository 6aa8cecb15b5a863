package aggregate

import (
	"fmt"
	"sort"

	"floatdeck/internal/types"
)

type periodBucket struct {
	sum   float64
	count int
}

// Temporal computes the full temporal view of a field: the smoothed monthly
// series plus per-calendar-month (period "01".."12", all years pooled) and
// per-year breakdowns with counts and means.
func Temporal(records []types.ProfileRecord, field types.MeasurementField, windowSize int) types.TemporalAnalysis {
	valid, _ := types.FilterValid(records)

	byMonth := make(map[string]*periodBucket)
	byYear := make(map[string]*periodBucket)

	add := func(m map[string]*periodBucket, key string, v float64) {
		b, ok := m[key]
		if !ok {
			b = &periodBucket{}
			m[key] = b
		}
		b.sum += v
		b.count++
	}

	for _, r := range valid {
		v, err := r.FieldValue(field)
		if err != nil {
			continue
		}
		add(byMonth, fmt.Sprintf("%02d", r.Month), v)
		add(byYear, fmt.Sprintf("%04d", r.Year), v)
	}

	return types.TemporalAnalysis{
		Series:  MonthlySeries(records, field, windowSize),
		ByMonth: summarizePeriods(byMonth),
		ByYear:  summarizePeriods(byYear),
	}
}

func summarizePeriods(buckets map[string]*periodBucket) []types.PeriodSummary {
	out := make([]types.PeriodSummary, 0, len(buckets))
	for key, b := range buckets {
		out = append(out, types.PeriodSummary{
			Period:  key,
			Count:   b.count,
			Average: b.sum / float64(b.count),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}
