package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"floatdeck/internal/types"
)

// --- Mock Service ---

type mockAnalyticsService struct {
	bins          []types.Bin
	binsErr       error
	histField     types.MeasurementField
	histWidth     float64
	temporal      types.TemporalAnalysis
	seriesWindow  int
	stats         types.ProfileStats
	cells         []types.GridCell
	gridSize      float64
	correlation   types.CorrelationResult
	outliers      []types.Outlier
	outlierThresh float64
}

func (m *mockAnalyticsService) Histogram(_ context.Context, _ types.Bounds, _ types.FilterSet, field types.MeasurementField, width float64) ([]types.Bin, error) {
	m.histField, m.histWidth = field, width
	return m.bins, m.binsErr
}

func (m *mockAnalyticsService) Temporal(_ context.Context, _ types.Bounds, _ types.FilterSet, _ types.MeasurementField, window int) (types.TemporalAnalysis, error) {
	m.seriesWindow = window
	return m.temporal, nil
}

func (m *mockAnalyticsService) Statistics(_ context.Context, _ types.Bounds, _ types.FilterSet) (types.ProfileStats, error) {
	return m.stats, nil
}

func (m *mockAnalyticsService) GeographicDistribution(_ context.Context, _ types.Bounds, _ types.FilterSet, size float64) ([]types.GridCell, error) {
	m.gridSize = size
	return m.cells, nil
}

func (m *mockAnalyticsService) Correlation(_ context.Context, _ types.Bounds, _ types.FilterSet) (types.CorrelationResult, error) {
	return m.correlation, nil
}

func (m *mockAnalyticsService) Outliers(_ context.Context, _ types.Bounds, _ types.FilterSet, _ types.MeasurementField, threshold float64) ([]types.Outlier, error) {
	m.outlierThresh = threshold
	return m.outliers, nil
}

func makeAnalyticsRouter(svc AnalyticsServiceInterface) http.Handler {
	h := NewAnalyticsHandler(svc, slog.New(slog.DiscardHandler))
	r := chi.NewRouter()
	r.Route("/v1", h.RegisterRoutes)
	return r
}

const viewportQuery = "south=-10&north=10&west=60&east=80"

// --- Tests ---

func TestHandleHistogram_Defaults(t *testing.T) {
	svc := &mockAnalyticsService{bins: []types.Bin{{LowerBound: 10, Count: 3}}}
	router := makeAnalyticsRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/analytics/histogram?"+viewportQuery, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if svc.histField != types.FieldTemperature {
		t.Errorf("default field = %q", svc.histField)
	}
	if svc.histWidth != defaultBinWidth {
		t.Errorf("default width = %v", svc.histWidth)
	}
}

func TestHandleHistogram_ExplicitParams(t *testing.T) {
	svc := &mockAnalyticsService{}
	router := makeAnalyticsRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/analytics/histogram?"+viewportQuery+"&field=salinity&width=0.5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if svc.histField != types.FieldSalinity || svc.histWidth != 0.5 {
		t.Errorf("field = %q, width = %v", svc.histField, svc.histWidth)
	}
}

func TestHandleHistogram_MissingBounds(t *testing.T) {
	router := makeAnalyticsRouter(&mockAnalyticsService{})

	req := httptest.NewRequest(http.MethodGet, "/v1/analytics/histogram?field=depth", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleHistogram_ServiceError(t *testing.T) {
	svc := &mockAnalyticsService{
		binsErr: types.NewAppError(types.ErrCodeValidationInvalidField, "bad field", nil),
	}
	router := makeAnalyticsRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/analytics/histogram?"+viewportQuery+"&field=pressure", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleDepthDistribution_FixedField(t *testing.T) {
	svc := &mockAnalyticsService{bins: []types.Bin{{LowerBound: 100, Count: 2}}}
	router := makeAnalyticsRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/analytics/depth-distribution?"+viewportQuery, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if svc.histField != types.FieldDepth {
		t.Errorf("field = %q", svc.histField)
	}
}

func TestHandleTemporal_WindowDefault(t *testing.T) {
	svc := &mockAnalyticsService{}
	router := makeAnalyticsRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/analytics/temporal?"+viewportQuery, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if svc.seriesWindow != defaultSeriesWindow {
		t.Errorf("window = %d", svc.seriesWindow)
	}
}

func TestHandleStatistics(t *testing.T) {
	svc := &mockAnalyticsService{stats: types.ProfileStats{TotalProfiles: 12}}
	router := makeAnalyticsRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/analytics/statistics?"+viewportQuery, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleGeographicDistribution_SizeParam(t *testing.T) {
	svc := &mockAnalyticsService{}
	router := makeAnalyticsRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/analytics/geographic-distribution?"+viewportQuery+"&size=2.5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if svc.gridSize != 2.5 {
		t.Errorf("grid size = %v", svc.gridSize)
	}
}

func TestHandleCorrelation(t *testing.T) {
	svc := &mockAnalyticsService{correlation: types.CorrelationResult{Correlation: -0.4, SampleSize: 30}}
	router := makeAnalyticsRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/analytics/correlation?"+viewportQuery, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleOutliers_ThresholdDefault(t *testing.T) {
	svc := &mockAnalyticsService{}
	router := makeAnalyticsRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/analytics/outliers?"+viewportQuery, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if svc.outlierThresh != defaultOutlierThreshold {
		t.Errorf("threshold = %v", svc.outlierThresh)
	}
}
