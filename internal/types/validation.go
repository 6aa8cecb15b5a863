package types

import "math"

// Validation constraint constants.
const (
	MinLat = -90.0
	MaxLat = 90.0
	MinLon = -180.0
	MaxLon = 180.0

	MinMonth = 1
	MaxMonth = 12

	// MaxBulkProfiles caps the batch size of bulk create requests and ingest
	// messages.
	MaxBulkProfiles = 1000
)

// MeasurementRanges defines the plausible physical ranges for each measurement
// field, used to reject corrupt records at the aggregation boundary. Values
// come from the operating envelope of profiling floats: 0-6000m depth,
// -5 to 45 degrees C, 0-50 PSU.
var MeasurementRanges = map[MeasurementField]ValueRange{
	FieldDepth:       {Min: 0, Max: 6000},
	FieldTemperature: {Min: -5, Max: 45},
	FieldSalinity:    {Min: 0, Max: 50},
}

// ValidRecord reports whether the record is usable by the aggregation engine:
// every numeric field finite, coordinates and month in range. Records failing
// this check are silently excluded from aggregation, never a per-record error.
func ValidRecord(p ProfileRecord) bool {
	for _, v := range []float64{p.Latitude, p.Longitude, p.Depth, p.Temperature, p.Salinity} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	if p.Latitude < MinLat || p.Latitude > MaxLat {
		return false
	}
	if p.Longitude < MinLon || p.Longitude > MaxLon {
		return false
	}
	if p.Depth < 0 {
		return false
	}
	if p.Month < MinMonth || p.Month > MaxMonth {
		return false
	}
	return true
}

// FilterValid returns the subset of records passing ValidRecord together with
// the number excluded. The input slice is not modified.
func FilterValid(records []ProfileRecord) ([]ProfileRecord, int) {
	valid := make([]ProfileRecord, 0, len(records))
	for _, r := range records {
		if ValidRecord(r) {
			valid = append(valid, r)
		}
	}
	return valid, len(records) - len(valid)
}
