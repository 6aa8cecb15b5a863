package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"floatdeck/internal/core"
	"floatdeck/internal/db"
	"floatdeck/internal/types"
)

// ProfileServiceInterface defines the service contract for the profile
// handler. Defined locally to avoid tight coupling to the profiles package.
type ProfileServiceInterface interface {
	CreateProfile(ctx context.Context, p types.ProfileRecord) (*types.ProfileRecord, error)
	GetProfile(ctx context.Context, id int64) (*types.ProfileRecord, error)
	UpdateProfile(ctx context.Context, id int64, patch db.ProfilePatch) (*types.ProfileRecord, error)
	ListProfiles(ctx context.Context, params db.ListProfilesParams) ([]types.ProfileRecord, int, error)
	DeleteProfile(ctx context.Context, id int64) error
	NearestProfiles(ctx context.Context, lat, lon float64, limit int, radius float64) ([]types.ProfileRecord, error)
	ViewportData(ctx context.Context, bounds types.Bounds, filters types.FilterSet) ([]types.ProfileRecord, error)
}

// ProfileHandler maps HTTP requests to profile service methods.
type ProfileHandler struct {
	service ProfileServiceInterface
	logger  *slog.Logger
}

// NewProfileHandler creates the handler.
func NewProfileHandler(svc ProfileServiceInterface, logger *slog.Logger) *ProfileHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileHandler{service: svc, logger: logger}
}

// RegisterRoutes mounts the profile endpoints onto the v1 group. Routes are
// registered flat so POST /profiles/bulk (owned by the ingest handler) can
// live beside them.
func (h *ProfileHandler) RegisterRoutes(r chi.Router) {
	r.Get("/profiles", h.HandleList)
	r.Post("/profiles", h.HandleCreate)
	r.Get("/profiles/nearest", h.HandleNearest)
	r.Get("/profiles/{profileID}", h.HandleGet)
	r.Patch("/profiles/{profileID}", h.HandleUpdate)
	r.Delete("/profiles/{profileID}", h.HandleDelete)
	r.Get("/viewport", h.HandleViewport)
}

// HandleList handles GET /v1/profiles with optional bounds, filters and
// pagination.
func (h *ProfileHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	bounds, err := parseOptionalBounds(q)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	filters, err := parseFilters(q)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	limit, err := parseIntQuery(q, "limit", 100)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	offset, err := parseIntQuery(q, "offset", 0)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	records, total, err := h.service.ListProfiles(r.Context(), db.ListProfilesParams{
		Bounds:  bounds,
		Filters: filters,
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{
		Data: records,
		Meta: &types.ResponseMeta{
			Pagination: &types.PageInfo{Limit: limit, Offset: offset, TotalItems: &total},
		},
	})
}

// HandleCreate handles POST /v1/profiles.
func (h *ProfileHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req types.ProfileRecord
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	req.ID = 0

	created, err := h.service.CreateProfile(r.Context(), req)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusCreated, core.APIResponse{Data: created})
}

// HandleGet handles GET /v1/profiles/{profileID}.
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "profileID")
	if err != nil {
		core.Error(w, r, err)
		return
	}

	profile, err := h.service.GetProfile(r.Context(), id)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: profile})
}

// HandleUpdate handles PATCH /v1/profiles/{profileID}. Only the fields
// present in the body are changed.
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "profileID")
	if err != nil {
		core.Error(w, r, err)
		return
	}

	var patch db.ProfilePatch
	if err := core.DecodeJSON(w, r, &patch); err != nil {
		core.Error(w, r, err)
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), id, patch)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: updated})
}

// HandleDelete handles DELETE /v1/profiles/{profileID}.
func (h *ProfileHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "profileID")
	if err != nil {
		core.Error(w, r, err)
		return
	}

	if err := h.service.DeleteProfile(r.Context(), id); err != nil {
		core.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleNearest handles GET /v1/profiles/nearest?lat=&lon=&limit=&radius=.
func (h *ProfileHandler) HandleNearest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	latStr, lonStr := q.Get("lat"), q.Get("lon")
	if latStr == "" || lonStr == "" {
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationMissingField,
			"lat and lon query parameters are required", nil))
		return
	}
	lat, err := parseFloatQuery(q, "lat", 0)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	lon, err := parseFloatQuery(q, "lon", 0)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	limit, err := parseIntQuery(q, "limit", 10)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	radius, err := parseFloatQuery(q, "radius", 0)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	records, err := h.service.NearestProfiles(r.Context(), lat, lon, limit, radius)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: records})
}

// HandleViewport handles GET /v1/viewport: the cached map-view dataset for a
// bounds rectangle plus filters.
func (h *ProfileHandler) HandleViewport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	bounds, err := parseBounds(q)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	filters, err := parseFilters(q)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	records, err := h.service.ViewportData(r.Context(), bounds, filters)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: records})
}
