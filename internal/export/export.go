// Package export serializes profile collections for download. Every format
// emits the same columns in the same order so downstream tooling can rely on
// the layout: id, latitude, longitude, depth, temperature, salinity, month,
// year.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"floatdeck/internal/types"
)

// Columns is the canonical column order shared by all formats.
var Columns = []string{"id", "latitude", "longitude", "depth", "temperature", "salinity", "month", "year"}

// Writer renders profile collections in the supported export formats.
type Writer struct {
	clock types.Clock
}

// NewWriter creates an export writer. A nil clock defaults to the system
// clock; tests inject a fixed one.
func NewWriter(clock types.Clock) *Writer {
	if clock == nil {
		clock = types.RealClock{}
	}
	return &Writer{clock: clock}
}

// Write serializes records to w in the given format.
func (e *Writer) Write(w io.Writer, format types.ExportFormat, records []types.ProfileRecord) error {
	switch format {
	case types.ExportCSV:
		return e.writeCSV(w, records)
	case types.ExportASCII:
		return e.writeASCII(w, records)
	case types.ExportJSON:
		return e.writeJSON(w, records)
	default:
		return types.NewAppError(types.ErrCodeValidationInvalidField,
			fmt.Sprintf("unsupported export format %q; use csv, ascii or json", format), nil)
	}
}

// Filename builds the attachment filename for the format, stamped with the
// current time.
func (e *Writer) Filename(format types.ExportFormat) string {
	stamp := e.clock.Now().UTC().Format("20060102_150405")
	ext := string(format)
	if format == types.ExportASCII {
		ext = "txt"
	}
	return fmt.Sprintf("floatdeck_export_%s.%s", stamp, ext)
}

// ContentType returns the MIME type served for the format.
func ContentType(format types.ExportFormat) string {
	switch format {
	case types.ExportCSV:
		return "text/csv"
	case types.ExportJSON:
		return "application/json"
	default:
		return "text/plain"
	}
}

func (e *Writer) writeCSV(w io.Writer, records []types.ProfileRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, p := range records {
		row := []string{
			strconv.FormatInt(p.ID, 10),
			formatFloat(p.Latitude),
			formatFloat(p.Longitude),
			formatFloat(p.Depth),
			formatFloat(p.Temperature),
			formatFloat(p.Salinity),
			strconv.Itoa(p.Month),
			strconv.Itoa(p.Year),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeASCII emits the fixed-width text format consumed by plotting scripts.
func (e *Writer) writeASCII(w io.Writer, records []types.ProfileRecord) error {
	header := fmt.Sprintf(
		"# FloatDeck Profile Export\n# Generated: %s\n# Total Records: %d\n# Format: ID LAT LON DEPTH TEMP SAL MONTH YEAR\n#\n",
		e.clock.Now().UTC().Format("2006-01-02 15:04:05"), len(records))
	if _, err := io.WriteString(w, header); err != nil {
		return fmt.Errorf("writing export header: %w", err)
	}
	for _, p := range records {
		line := fmt.Sprintf("%8d %8.3f %9.3f %5.0f %6.2f %6.3f %2d %4d\n",
			p.ID, p.Latitude, p.Longitude, p.Depth, p.Temperature, p.Salinity, p.Month, p.Year)
		if _, err := io.WriteString(w, line); err != nil {
			return fmt.Errorf("writing export row: %w", err)
		}
	}
	return nil
}

type jsonExport struct {
	GeneratedAt time.Time             `json:"generated_at"`
	Count       int                   `json:"count"`
	Profiles    []types.ProfileRecord `json:"profiles"`
}

func (e *Writer) writeJSON(w io.Writer, records []types.ProfileRecord) error {
	if records == nil {
		records = []types.ProfileRecord{}
	}
	enc := json.NewEncoder(w)
	return enc.Encode(jsonExport{
		GeneratedAt: e.clock.Now().UTC(),
		Count:       len(records),
		Profiles:    records,
	})
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
