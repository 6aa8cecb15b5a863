package aggregate

import (
	"math"
	"sort"

	"floatdeck/internal/types"
)

// DefaultGridSize is the grid cell size in degrees used by the geographic
// distribution endpoint when the caller does not supply one.
const DefaultGridSize = 5.0

// MinGridSize guards against degenerate grid sizes that would put every
// profile in its own cell.
const MinGridSize = 0.1

// GeographicDistribution groups records into square grid cells of gridSize
// degrees and reports per-cell counts and mean temperature/salinity. Cell
// centers use round(coord/gridSize)*gridSize, matching the rounding the
// map view applies. Cells are ordered south-to-north, then west-to-east.
func GeographicDistribution(records []types.ProfileRecord, gridSize float64) []types.GridCell {
	if gridSize < MinGridSize || math.IsNaN(gridSize) || math.IsInf(gridSize, 0) {
		gridSize = DefaultGridSize
	}

	valid, _ := types.FilterValid(records)

	type cellKey struct {
		lat, lon float64
	}
	type cellAgg struct {
		count   int
		tempSum float64
		salSum  float64
	}

	cells := make(map[cellKey]*cellAgg)
	for _, r := range valid {
		key := cellKey{
			lat: math.Round(r.Latitude/gridSize) * gridSize,
			lon: math.Round(r.Longitude/gridSize) * gridSize,
		}
		agg, ok := cells[key]
		if !ok {
			agg = &cellAgg{}
			cells[key] = agg
		}
		agg.count++
		agg.tempSum += r.Temperature
		agg.salSum += r.Salinity
	}

	out := make([]types.GridCell, 0, len(cells))
	for key, agg := range cells {
		out = append(out, types.GridCell{
			Latitude:       key.lat,
			Longitude:      key.lon,
			Count:          agg.count,
			AvgTemperature: agg.tempSum / float64(agg.count),
			AvgSalinity:    agg.salSum / float64(agg.count),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Latitude != out[j].Latitude {
			return out[i].Latitude < out[j].Latitude
		}
		return out[i].Longitude < out[j].Longitude
	})
	return out
}
