package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"floatdeck/internal/export"
	"floatdeck/internal/types"
)

type mockExportData struct {
	records    []types.ProfileRecord
	err        error
	lastBounds types.Bounds
}

func (m *mockExportData) ViewportData(_ context.Context, bounds types.Bounds, _ types.FilterSet) ([]types.ProfileRecord, error) {
	m.lastBounds = bounds
	return m.records, m.err
}

type frozenClock struct{}

func (frozenClock) Now() time.Time {
	return time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)
}

func makeExportRouter(data ExportDataProvider) http.Handler {
	h := NewExportHandler(data, export.NewWriter(frozenClock{}), slog.New(slog.DiscardHandler))
	r := chi.NewRouter()
	r.Route("/v1", h.RegisterRoutes)
	return r
}

func TestHandleExport_CSV(t *testing.T) {
	data := &mockExportData{records: []types.ProfileRecord{
		{ID: 1, Latitude: 10, Longitude: 70, Depth: 100, Temperature: 15, Salinity: 35, Month: 6, Year: 2024},
	}}
	router := makeExportRouter(data)

	req := httptest.NewRequest(http.MethodGet, "/v1/export/csv", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "floatdeck_export_20240615_103000.csv") {
		t.Errorf("content disposition = %q", cd)
	}
	if !strings.HasPrefix(rec.Body.String(), "id,latitude,longitude") {
		t.Errorf("body = %q", rec.Body.String())
	}

	// No bounds given means export the whole globe.
	if data.lastBounds.South != types.MinLat || data.lastBounds.East != types.MaxLon {
		t.Errorf("bounds = %+v", data.lastBounds)
	}
}

func TestHandleExport_ASCIIWithBounds(t *testing.T) {
	data := &mockExportData{}
	router := makeExportRouter(data)

	req := httptest.NewRequest(http.MethodGet, "/v1/export/ascii?south=-10&north=10&west=60&east=80", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/plain" {
		t.Errorf("content type = %q", ct)
	}
	if data.lastBounds.North != 10 {
		t.Errorf("bounds = %+v", data.lastBounds)
	}
	if !strings.Contains(rec.Body.String(), "# Total Records: 0") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestHandleExport_UnsupportedFormat(t *testing.T) {
	router := makeExportRouter(&mockExportData{})

	req := httptest.NewRequest(http.MethodGet, "/v1/export/netcdf", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleExport_PartialBounds(t *testing.T) {
	router := makeExportRouter(&mockExportData{})

	req := httptest.NewRequest(http.MethodGet, "/v1/export/json?south=-10", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}
