package aggregate

import (
	"math"

	"floatdeck/internal/types"
)

// Statistics summarizes a profile collection for dashboard metric cards.
// Empty input yields a zero-valued summary.
func Statistics(records []types.ProfileRecord) types.ProfileStats {
	valid, _ := types.FilterValid(records)
	if len(valid) == 0 {
		return types.ProfileStats{}
	}

	stats := types.ProfileStats{
		TotalProfiles:  len(valid),
		DepthRange:     types.ValueRange{Min: valid[0].Depth, Max: valid[0].Depth},
		LatitudeRange:  types.ValueRange{Min: valid[0].Latitude, Max: valid[0].Latitude},
		LongitudeRange: types.ValueRange{Min: valid[0].Longitude, Max: valid[0].Longitude},
	}

	var tempSum, salSum float64
	for _, r := range valid {
		tempSum += r.Temperature
		salSum += r.Salinity
		stats.DepthRange = widen(stats.DepthRange, r.Depth)
		stats.LatitudeRange = widen(stats.LatitudeRange, r.Latitude)
		stats.LongitudeRange = widen(stats.LongitudeRange, r.Longitude)
	}
	stats.AvgTemperature = tempSum / float64(len(valid))
	stats.AvgSalinity = salSum / float64(len(valid))
	return stats
}

func widen(r types.ValueRange, v float64) types.ValueRange {
	if v < r.Min {
		r.Min = v
	}
	if v > r.Max {
		r.Max = v
	}
	return r
}

// Correlation computes the Pearson correlation coefficient (and r squared)
// between temperature and salinity. Fewer than two valid records, or a
// zero-variance field, yields a zero result rather than an error.
func Correlation(records []types.ProfileRecord) types.CorrelationResult {
	valid, _ := types.FilterValid(records)
	n := len(valid)
	if n < 2 {
		return types.CorrelationResult{SampleSize: n}
	}

	var tempMean, salMean float64
	for _, r := range valid {
		tempMean += r.Temperature
		salMean += r.Salinity
	}
	tempMean /= float64(n)
	salMean /= float64(n)

	var cov, tempVar, salVar float64
	for _, r := range valid {
		dt := r.Temperature - tempMean
		ds := r.Salinity - salMean
		cov += dt * ds
		tempVar += dt * dt
		salVar += ds * ds
	}
	if tempVar == 0 || salVar == 0 {
		return types.CorrelationResult{SampleSize: n}
	}

	r := cov / math.Sqrt(tempVar*salVar)
	return types.CorrelationResult{
		Correlation: r,
		RSquared:    r * r,
		SampleSize:  n,
	}
}

// MinOutlierSample is the minimum collection size for outlier detection;
// z-scores over tiny samples are noise.
const MinOutlierSample = 10

// Outliers returns records whose field value deviates from the collection
// mean by more than threshold standard deviations. A non-positive threshold
// falls back to 2.0.
func Outliers(records []types.ProfileRecord, field types.MeasurementField, threshold float64) []types.Outlier {
	if threshold <= 0 {
		threshold = 2.0
	}

	valid, _ := types.FilterValid(records)
	if len(valid) < MinOutlierSample {
		return []types.Outlier{}
	}

	values := make([]float64, len(valid))
	var mean float64
	for i, r := range valid {
		v, err := r.FieldValue(field)
		if err != nil {
			return []types.Outlier{}
		}
		values[i] = v
		mean += v
	}
	mean /= float64(len(values))

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	stddev := math.Sqrt(variance / float64(len(values)))
	if stddev == 0 {
		return []types.Outlier{}
	}

	out := []types.Outlier{}
	for i, r := range valid {
		z := math.Abs(values[i]-mean) / stddev
		if z > threshold {
			out = append(out, types.Outlier{
				ID:        r.ID,
				Latitude:  r.Latitude,
				Longitude: r.Longitude,
				Depth:     r.Depth,
				Field:     field,
				Value:     values[i],
				ZScore:    z,
			})
		}
	}
	return out
}
