package types

// MeasurementField names a numeric field of a ProfileRecord that can be
// aggregated into histograms or time series.
type MeasurementField string

const (
	FieldDepth       MeasurementField = "depth"
	FieldTemperature MeasurementField = "temperature"
	FieldSalinity    MeasurementField = "salinity"
)

// HistogramFields lists the fields accepted by the histogram endpoint.
var HistogramFields = []MeasurementField{FieldDepth, FieldTemperature, FieldSalinity}

// SeriesFields lists the fields accepted by the temporal endpoint. Depth is a
// vertical coordinate, not a measured quantity, so it has no monthly series.
var SeriesFields = []MeasurementField{FieldTemperature, FieldSalinity}

// ValidHistogramField reports whether f can be binned.
func ValidHistogramField(f MeasurementField) bool {
	switch f {
	case FieldDepth, FieldTemperature, FieldSalinity:
		return true
	}
	return false
}

// ValidSeriesField reports whether f can be turned into a monthly series.
func ValidSeriesField(f MeasurementField) bool {
	return f == FieldTemperature || f == FieldSalinity
}

// ExportFormat identifies a supported export serialization.
type ExportFormat string

const (
	ExportCSV   ExportFormat = "csv"
	ExportASCII ExportFormat = "ascii"
	ExportJSON  ExportFormat = "json"
)

// Metric name constants for the CloudWatch collector.
const (
	MetricAPILatency      = "APILatency"
	MetricAPIRequestCount = "APIRequestCount"
	MetricCacheHit        = "ViewportCacheHit"
	MetricCacheMiss       = "ViewportCacheMiss"
	MetricFetchFallback   = "ViewportFetchFallback"
	MetricIngestBatchSize = "IngestBatchSize"
	MetricIngestRejected  = "IngestRejectedRecords"
)
