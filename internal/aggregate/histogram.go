// Package aggregate turns raw profile records into chart-ready series:
// fixed-width histograms, monthly time series with centered moving-average
// smoothing, geographic grid distributions, and summary statistics.
//
// Every function in this package is pure: no I/O, no retained state, output
// fully determined by input. Records that fail types.ValidRecord are excluded
// before any grouping and never cause an error.
package aggregate

import (
	"math"
	"sort"

	"floatdeck/internal/types"
)

// MinBinWidth is the floor applied to caller-supplied bin widths. Zero or
// negative widths would produce unbounded bucket counts or division errors.
const MinBinWidth = 0.1

// DepthBinWidth is the fixed width used for the depth distribution. The
// dashboard exposes no width control for depth; grouping by exact meter
// is the documented behavior.
const DepthBinWidth = 1.0

// Histogram groups the given field's values into fixed-width buckets and
// counts membership. The bucket for value v is floor(v/width)*width, computed
// once per record with the same floor-division formula so equal buckets carry
// bit-identical lower bounds. Bins are returned sorted ascending by lower
// bound. An empty or fully-invalid input produces an empty (non-nil) result.
func Histogram(records []types.ProfileRecord, field types.MeasurementField, width float64) []types.Bin {
	if width < MinBinWidth || math.IsNaN(width) || math.IsInf(width, 0) {
		width = MinBinWidth
	}

	valid, _ := types.FilterValid(records)

	counts := make(map[float64]int, len(valid))
	for _, r := range valid {
		v, err := r.FieldValue(field)
		if err != nil {
			continue
		}
		bucket := math.Floor(v/width) * width
		counts[bucket]++
	}

	bins := make([]types.Bin, 0, len(counts))
	for lower, n := range counts {
		bins = append(bins, types.Bin{LowerBound: lower, Count: n})
	}
	sort.Slice(bins, func(i, j int) bool {
		return bins[i].LowerBound < bins[j].LowerBound
	})
	return bins
}

// DepthDistribution is the dashboard's depth histogram: degenerate binning
// with the fixed width of 1 meter.
func DepthDistribution(records []types.ProfileRecord) []types.Bin {
	return Histogram(records, types.FieldDepth, DepthBinWidth)
}
