package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"floatdeck/internal/core"
	"floatdeck/internal/export"
	"floatdeck/internal/types"
)

// ExportDataProvider supplies the dataset to serialize.
type ExportDataProvider interface {
	ViewportData(ctx context.Context, bounds types.Bounds, filters types.FilterSet) ([]types.ProfileRecord, error)
}

// ExportHandler streams profile datasets as downloadable files.
type ExportHandler struct {
	data   ExportDataProvider
	writer *export.Writer
	logger *slog.Logger
}

// NewExportHandler creates the handler.
func NewExportHandler(data ExportDataProvider, writer *export.Writer, logger *slog.Logger) *ExportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if writer == nil {
		writer = export.NewWriter(nil)
	}
	return &ExportHandler{data: data, writer: writer, logger: logger}
}

// RegisterRoutes mounts the export endpoints onto the v1 group.
func (h *ExportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/export/{format}", h.HandleExport)
}

// HandleExport handles GET /v1/export/{format}. Bounds default to the whole
// globe so a bare export downloads everything.
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	format := types.ExportFormat(chi.URLParam(r, "format"))
	switch format {
	case types.ExportCSV, types.ExportASCII, types.ExportJSON:
	default:
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationInvalidField,
			"unsupported export format; use csv, ascii or json", nil))
		return
	}

	q := r.URL.Query()
	bounds, err := parseOptionalBounds(q)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if bounds == nil {
		bounds = &types.Bounds{South: types.MinLat, North: types.MaxLat, West: types.MinLon, East: types.MaxLon}
	}
	filters, err := parseFilters(q)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	records, err := h.data.ViewportData(r.Context(), *bounds, filters)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType(format))
	w.Header().Set("Content-Disposition", `attachment; filename=`+h.writer.Filename(format))
	w.WriteHeader(http.StatusOK)

	if err := h.writer.Write(w, format, records); err != nil {
		// Headers are already sent; log and abandon the response.
		h.logger.ErrorContext(r.Context(), "export serialization failed",
			"format", string(format), "error", err)
	}
}
