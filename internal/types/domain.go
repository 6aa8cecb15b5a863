package types

import (
	"fmt"
	"time"
)

// ProfileRecord is the core domain entity: a single oceanographic measurement
// taken by a profiling float at one depth level.
type ProfileRecord struct {
	ID          int64   `json:"id" db:"id"`
	FloatID     string  `json:"float_id,omitempty" db:"float_id"`
	Latitude    float64 `json:"latitude" db:"latitude"`
	Longitude   float64 `json:"longitude" db:"longitude"`
	Depth       float64 `json:"depth" db:"depth"`
	Temperature float64 `json:"temperature" db:"temperature"`
	Salinity    float64 `json:"salinity" db:"salinity"`
	Month       int     `json:"month" db:"month"`
	Year        int     `json:"year" db:"year"`

	// Date is the measurement date when the source reported one; month/year
	// remain the authoritative temporal keys for aggregation.
	Date *time.Time `json:"date,omitempty" db:"date"`
}

// YearMonthKey returns the record's zero-padded "YYYY-MM" grouping key.
// Lexicographic order of these keys equals chronological order.
func (p ProfileRecord) YearMonthKey() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// FieldValue returns the value of the named measurement field.
func (p ProfileRecord) FieldValue(field MeasurementField) (float64, error) {
	switch field {
	case FieldDepth:
		return p.Depth, nil
	case FieldTemperature:
		return p.Temperature, nil
	case FieldSalinity:
		return p.Salinity, nil
	default:
		return 0, fmt.Errorf("unknown measurement field %q", field)
	}
}

// Bounds is a geographic rectangle describing a map viewport.
type Bounds struct {
	South float64 `json:"south" validate:"latitude"`
	North float64 `json:"north" validate:"latitude"`
	West  float64 `json:"west" validate:"longitude"`
	East  float64 `json:"east" validate:"longitude"`
}

// Clamp returns a copy with each coordinate forced into valid geographic
// ranges. Keying and querying always operate on clamped bounds so that two
// requests that clamp to the same effective viewport are identical.
func (b Bounds) Clamp() Bounds {
	return Bounds{
		South: clampFloat(b.South, MinLat, MaxLat),
		North: clampFloat(b.North, MinLat, MaxLat),
		West:  clampFloat(b.West, MinLon, MaxLon),
		East:  clampFloat(b.East, MinLon, MaxLon),
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// FilterSet carries the optional range filters a dashboard applies to profile
// queries. Nil pointers mean "any".
type FilterSet struct {
	DepthMin       *float64 `json:"depth_min,omitempty"`
	DepthMax       *float64 `json:"depth_max,omitempty"`
	TemperatureMin *float64 `json:"temp_min,omitempty"`
	TemperatureMax *float64 `json:"temp_max,omitempty"`
	SalinityMin    *float64 `json:"salinity_min,omitempty"`
	SalinityMax    *float64 `json:"salinity_max,omitempty"`
	Month          *int     `json:"month,omitempty" validate:"omitempty,min=1,max=12"`
	Year           *int     `json:"year,omitempty"`
}

// Matches reports whether the record passes every active filter.
func (f FilterSet) Matches(p ProfileRecord) bool {
	if f.DepthMin != nil && p.Depth < *f.DepthMin {
		return false
	}
	if f.DepthMax != nil && p.Depth > *f.DepthMax {
		return false
	}
	if f.TemperatureMin != nil && p.Temperature < *f.TemperatureMin {
		return false
	}
	if f.TemperatureMax != nil && p.Temperature > *f.TemperatureMax {
		return false
	}
	if f.SalinityMin != nil && p.Salinity < *f.SalinityMin {
		return false
	}
	if f.SalinityMax != nil && p.Salinity > *f.SalinityMax {
		return false
	}
	if f.Month != nil && p.Month != *f.Month {
		return false
	}
	if f.Year != nil && p.Year != *f.Year {
		return false
	}
	return true
}

// Bin is one histogram bucket: the inclusive lower bound of a fixed-width
// numeric range and the number of records falling inside it.
type Bin struct {
	LowerBound float64 `json:"lower_bound"`
	Count      int     `json:"count"`
}

// MonthlyPoint is one point of a monthly time series: the per-month mean of a
// measurement field plus its centered-moving-average smoothing.
type MonthlyPoint struct {
	YearMonth       string  `json:"year_month"`
	Average         float64 `json:"average"`
	SmoothedAverage float64 `json:"smoothed_average"`
	Count           int     `json:"count"`
}

// PeriodSummary is one calendar-month or year bucket of a temporal analysis.
type PeriodSummary struct {
	Period  string  `json:"period"`
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

// TemporalAnalysis bundles the smoothed monthly series with calendar-month
// and per-year breakdowns of the same field.
type TemporalAnalysis struct {
	Series  []MonthlyPoint  `json:"series"`
	ByMonth []PeriodSummary `json:"by_month"`
	ByYear  []PeriodSummary `json:"by_year"`
}

// GridCell is one cell of a geographic distribution: profiles grouped into
// grid squares of a configurable size in degrees.
type GridCell struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Count          int     `json:"count"`
	AvgTemperature float64 `json:"avg_temperature"`
	AvgSalinity    float64 `json:"avg_salinity"`
}

// ValueRange is a min/max pair used in statistics summaries.
type ValueRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ProfileStats summarizes a profile collection for dashboard metric cards.
type ProfileStats struct {
	TotalProfiles  int        `json:"total_profiles"`
	AvgTemperature float64    `json:"avg_temperature"`
	AvgSalinity    float64    `json:"avg_salinity"`
	DepthRange     ValueRange `json:"depth_range"`
	LatitudeRange  ValueRange `json:"latitude_range"`
	LongitudeRange ValueRange `json:"longitude_range"`
}

// CorrelationResult holds the temperature/salinity correlation outputs.
type CorrelationResult struct {
	Correlation float64 `json:"correlation"`
	RSquared    float64 `json:"r_squared"`
	SampleSize  int     `json:"sample_size"`
}

// Outlier identifies a record whose field value deviates from the collection
// mean by more than a z-score threshold.
type Outlier struct {
	ID        int64            `json:"id"`
	Latitude  float64          `json:"latitude"`
	Longitude float64          `json:"longitude"`
	Depth     float64          `json:"depth"`
	Field     MeasurementField `json:"field"`
	Value     float64          `json:"value"`
	ZScore    float64          `json:"z_score"`
}

// IngestMessage is the SQS payload consumed by the ingest worker. Producers
// (bulk loaders, upstream pollers) enqueue batches of raw records; the worker
// validates and persists them.
type IngestMessage struct {
	BatchID  string          `json:"batch_id"`
	Source   string          `json:"source"`
	SentAt   time.Time       `json:"sent_at"`
	Profiles []ProfileRecord `json:"profiles"`
}
