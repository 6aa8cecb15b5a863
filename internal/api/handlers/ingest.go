package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"floatdeck/internal/core"
	"floatdeck/internal/types"
)

// IngestPublisherInterface defines the queue contract for the ingest handler.
type IngestPublisherInterface interface {
	Publish(ctx context.Context, source string, profiles []types.ProfileRecord) (string, error)
}

// IngestHandler accepts bulk profile submissions and enqueues them for the
// ingest worker. The API never writes bulk data synchronously.
type IngestHandler struct {
	publisher IngestPublisherInterface
	logger    *slog.Logger
}

// NewIngestHandler creates the handler.
func NewIngestHandler(publisher IngestPublisherInterface, logger *slog.Logger) *IngestHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestHandler{publisher: publisher, logger: logger}
}

// RegisterRoutes mounts the ingest endpoints onto the v1 group. Bulk profile
// creation is the same operation under its resource-oriented path.
func (h *IngestHandler) RegisterRoutes(r chi.Router) {
	r.Post("/ingest", h.HandleIngest)
	r.Post("/profiles/bulk", h.HandleIngest)
}

type ingestRequest struct {
	Source   string                `json:"source"`
	Profiles []types.ProfileRecord `json:"profiles"`
}

type ingestResponse struct {
	BatchID string `json:"batch_id"`
	Queued  int    `json:"queued"`
}

// HandleIngest handles POST /v1/ingest. The batch is accepted for
// asynchronous processing; per-record validation happens in the worker.
func (h *IngestHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if req.Source == "" {
		req.Source = "api"
	}

	batchID, err := h.publisher.Publish(r.Context(), req.Source, req.Profiles)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusAccepted, core.APIResponse{
		Data: ingestResponse{BatchID: batchID, Queued: len(req.Profiles)},
	})
}
