package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"floatdeck/internal/core"
	"floatdeck/internal/types"
)

// Defaults for the analytics endpoints when the client omits tuning params.
const (
	defaultBinWidth         = 1.0
	defaultSeriesWindow     = 3
	defaultGridSize         = 5.0
	defaultOutlierThreshold = 2.0
)

// AnalyticsServiceInterface defines the service contract for the analytics
// handler.
type AnalyticsServiceInterface interface {
	Histogram(ctx context.Context, bounds types.Bounds, filters types.FilterSet, field types.MeasurementField, width float64) ([]types.Bin, error)
	Temporal(ctx context.Context, bounds types.Bounds, filters types.FilterSet, field types.MeasurementField, window int) (types.TemporalAnalysis, error)
	Statistics(ctx context.Context, bounds types.Bounds, filters types.FilterSet) (types.ProfileStats, error)
	GeographicDistribution(ctx context.Context, bounds types.Bounds, filters types.FilterSet, gridSize float64) ([]types.GridCell, error)
	Correlation(ctx context.Context, bounds types.Bounds, filters types.FilterSet) (types.CorrelationResult, error)
	Outliers(ctx context.Context, bounds types.Bounds, filters types.FilterSet, field types.MeasurementField, threshold float64) ([]types.Outlier, error)
}

// AnalyticsHandler maps HTTP requests to the aggregation queries.
type AnalyticsHandler struct {
	service AnalyticsServiceInterface
	logger  *slog.Logger
}

// NewAnalyticsHandler creates the handler.
func NewAnalyticsHandler(svc AnalyticsServiceInterface, logger *slog.Logger) *AnalyticsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsHandler{service: svc, logger: logger}
}

// RegisterRoutes mounts the analytics endpoints onto the v1 group. Every
// endpoint takes the viewport bounds plus optional filters.
func (h *AnalyticsHandler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Get("/statistics", h.HandleStatistics)
		r.Get("/histogram", h.HandleHistogram)
		r.Get("/depth-distribution", h.HandleDepthDistribution)
		r.Get("/geographic-distribution", h.HandleGeographicDistribution)
		r.Get("/temporal", h.HandleTemporal)
		r.Get("/correlation", h.HandleCorrelation)
		r.Get("/outliers", h.HandleOutliers)
	})
}

// viewportScope parses the bounds and filters shared by all analytics
// endpoints.
func viewportScope(r *http.Request) (types.Bounds, types.FilterSet, error) {
	q := r.URL.Query()
	bounds, err := parseBounds(q)
	if err != nil {
		return types.Bounds{}, types.FilterSet{}, err
	}
	filters, err := parseFilters(q)
	if err != nil {
		return types.Bounds{}, types.FilterSet{}, err
	}
	return bounds, filters, nil
}

// HandleHistogram handles GET /v1/analytics/histogram?field=&width=.
func (h *AnalyticsHandler) HandleHistogram(w http.ResponseWriter, r *http.Request) {
	bounds, filters, err := viewportScope(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	field := types.MeasurementField(r.URL.Query().Get("field"))
	if field == "" {
		field = types.FieldTemperature
	}
	width, err := parseFloatQuery(r.URL.Query(), "width", defaultBinWidth)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	bins, err := h.service.Histogram(r.Context(), bounds, filters, field, width)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: bins})
}

// HandleDepthDistribution handles GET /v1/analytics/depth-distribution.
// Depth always bins at fixed width 1.
func (h *AnalyticsHandler) HandleDepthDistribution(w http.ResponseWriter, r *http.Request) {
	bounds, filters, err := viewportScope(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	bins, err := h.service.Histogram(r.Context(), bounds, filters, types.FieldDepth, 0)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: bins})
}

// HandleTemporal handles GET /v1/analytics/temporal?field=&window=.
func (h *AnalyticsHandler) HandleTemporal(w http.ResponseWriter, r *http.Request) {
	bounds, filters, err := viewportScope(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	field := types.MeasurementField(r.URL.Query().Get("field"))
	if field == "" {
		field = types.FieldTemperature
	}
	window, err := parseIntQuery(r.URL.Query(), "window", defaultSeriesWindow)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	result, err := h.service.Temporal(r.Context(), bounds, filters, field, window)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: result})
}

// HandleStatistics handles GET /v1/analytics/statistics.
func (h *AnalyticsHandler) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	bounds, filters, err := viewportScope(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	stats, err := h.service.Statistics(r.Context(), bounds, filters)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: stats})
}

// HandleGeographicDistribution handles GET
// /v1/analytics/geographic-distribution?size=.
func (h *AnalyticsHandler) HandleGeographicDistribution(w http.ResponseWriter, r *http.Request) {
	bounds, filters, err := viewportScope(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	size, err := parseFloatQuery(r.URL.Query(), "size", defaultGridSize)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	cells, err := h.service.GeographicDistribution(r.Context(), bounds, filters, size)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: cells})
}

// HandleCorrelation handles GET /v1/analytics/correlation.
func (h *AnalyticsHandler) HandleCorrelation(w http.ResponseWriter, r *http.Request) {
	bounds, filters, err := viewportScope(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	result, err := h.service.Correlation(r.Context(), bounds, filters)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: result})
}

// HandleOutliers handles GET /v1/analytics/outliers?field=&threshold=.
func (h *AnalyticsHandler) HandleOutliers(w http.ResponseWriter, r *http.Request) {
	bounds, filters, err := viewportScope(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	field := types.MeasurementField(r.URL.Query().Get("field"))
	if field == "" {
		field = types.FieldTemperature
	}
	threshold, err := parseFloatQuery(r.URL.Query(), "threshold", defaultOutlierThreshold)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	outliers, err := h.service.Outliers(r.Context(), bounds, filters, field, threshold)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: outliers})
}
