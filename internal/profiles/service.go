// Package profiles implements the domain service for float profile data:
// CRUD over the repository, the cached map-view fetch path, and the
// aggregation queries (histograms, monthly series, geographic grids,
// statistics) that the dashboard endpoints expose.
package profiles

import (
	"context"
	"fmt"
	"log/slog"

	"floatdeck/internal/aggregate"
	"floatdeck/internal/db"
	"floatdeck/internal/types"
	"floatdeck/internal/viewport"
)

// Store is the repository surface the service depends on.
type Store interface {
	Create(ctx context.Context, p types.ProfileRecord) (*types.ProfileRecord, error)
	GetByID(ctx context.Context, id int64) (*types.ProfileRecord, error)
	Update(ctx context.Context, id int64, patch db.ProfilePatch) (*types.ProfileRecord, error)
	List(ctx context.Context, params db.ListProfilesParams) ([]types.ProfileRecord, int, error)
	ListByViewport(ctx context.Context, bounds types.Bounds, filters types.FilterSet) ([]types.ProfileRecord, error)
	Nearest(ctx context.Context, lat, lon float64, limit int, radius float64) ([]types.ProfileRecord, error)
	Delete(ctx context.Context, id int64) error
}

// Service exposes profile operations to the HTTP handlers. Viewport-scoped
// aggregation reads go through the bounds-keyed cache; everything else hits
// the store directly.
type Service struct {
	store  Store
	cache  *viewport.Cache
	logger *slog.Logger
}

// NewService wires the service. The cache fetches through store.ListByViewport.
func NewService(store Store, logger *slog.Logger, cacheOpts ...viewport.Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:  store,
		logger: logger,
	}
	s.cache = viewport.NewCache(store.ListByViewport, logger, cacheOpts...)
	return s
}

// Cache exposes the viewport cache for wiring a watcher or inspecting size.
func (s *Service) Cache() *viewport.Cache {
	return s.cache
}

// CreateProfile validates and stores a single profile.
func (s *Service) CreateProfile(ctx context.Context, p types.ProfileRecord) (*types.ProfileRecord, error) {
	if err := validateProfile(p); err != nil {
		return nil, err
	}

	created, err := s.store.Create(ctx, p)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "profile created",
		"profile_id", created.ID,
		"float_id", created.FloatID,
	)
	return created, nil
}

// GetProfile fetches one profile by ID.
func (s *Service) GetProfile(ctx context.Context, id int64) (*types.ProfileRecord, error) {
	return s.store.GetByID(ctx, id)
}

// UpdateProfile applies a partial update after validating the patched values.
func (s *Service) UpdateProfile(ctx context.Context, id int64, patch db.ProfilePatch) (*types.ProfileRecord, error) {
	if patch.IsEmpty() {
		return nil, types.NewAppError(types.ErrCodeValidationMissingField, "no fields to update", nil)
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	updated, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "profile updated", "profile_id", id)
	return updated, nil
}

// ListProfiles returns a paginated, filtered profile listing.
func (s *Service) ListProfiles(ctx context.Context, params db.ListProfilesParams) ([]types.ProfileRecord, int, error) {
	if err := validateFilters(params.Filters); err != nil {
		return nil, 0, err
	}
	return s.store.List(ctx, params)
}

// DeleteProfile removes a profile.
func (s *Service) DeleteProfile(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "profile deleted", "profile_id", id)
	return nil
}

// NearestProfiles returns the profiles closest to a coordinate, optionally
// cut off at a radius in degrees.
func (s *Service) NearestProfiles(ctx context.Context, lat, lon float64, limit int, radius float64) ([]types.ProfileRecord, error) {
	if lat < types.MinLat || lat > types.MaxLat {
		return nil, types.NewAppError(types.ErrCodeValidationInvalidLat,
			fmt.Sprintf("latitude must be within [%v, %v]", types.MinLat, types.MaxLat), nil)
	}
	if lon < types.MinLon || lon > types.MaxLon {
		return nil, types.NewAppError(types.ErrCodeValidationInvalidLon,
			fmt.Sprintf("longitude must be within [%v, %v]", types.MinLon, types.MaxLon), nil)
	}
	if radius < 0 {
		return nil, types.NewAppError(types.ErrCodeValidationInvalidRange, "radius must not be negative", nil)
	}
	return s.store.Nearest(ctx, lat, lon, limit, radius)
}

// ViewportData returns the dataset for a map viewport through the cache.
// It never fails; a fetch error degrades to the last successful dataset.
func (s *Service) ViewportData(ctx context.Context, bounds types.Bounds, filters types.FilterSet) ([]types.ProfileRecord, error) {
	if err := validateFilters(filters); err != nil {
		return nil, err
	}
	return s.cache.Fetch(ctx, bounds, filters), nil
}

// Histogram bins the viewport dataset for the given field and width.
func (s *Service) Histogram(ctx context.Context, bounds types.Bounds, filters types.FilterSet, field types.MeasurementField, width float64) ([]types.Bin, error) {
	if !types.ValidHistogramField(field) {
		return nil, types.NewAppError(types.ErrCodeValidationInvalidField,
			fmt.Sprintf("field %q cannot be binned; use one of depth, temperature, salinity", field), nil)
	}
	records, err := s.ViewportData(ctx, bounds, filters)
	if err != nil {
		return nil, err
	}
	if field == types.FieldDepth {
		return aggregate.DepthDistribution(records), nil
	}
	return aggregate.Histogram(records, field, width), nil
}

// MonthlySeries computes the smoothed monthly series for the viewport.
func (s *Service) MonthlySeries(ctx context.Context, bounds types.Bounds, filters types.FilterSet, field types.MeasurementField, window int) ([]types.MonthlyPoint, error) {
	if !types.ValidSeriesField(field) {
		return nil, types.NewAppError(types.ErrCodeValidationInvalidField,
			fmt.Sprintf("field %q has no monthly series; use temperature or salinity", field), nil)
	}
	records, err := s.ViewportData(ctx, bounds, filters)
	if err != nil {
		return nil, err
	}
	return aggregate.MonthlySeries(records, field, window), nil
}

// Temporal computes the smoothed monthly series plus calendar-month and
// per-year breakdowns for the viewport.
func (s *Service) Temporal(ctx context.Context, bounds types.Bounds, filters types.FilterSet, field types.MeasurementField, window int) (types.TemporalAnalysis, error) {
	if !types.ValidSeriesField(field) {
		return types.TemporalAnalysis{}, types.NewAppError(types.ErrCodeValidationInvalidField,
			fmt.Sprintf("field %q has no temporal analysis; use temperature or salinity", field), nil)
	}
	records, err := s.ViewportData(ctx, bounds, filters)
	if err != nil {
		return types.TemporalAnalysis{}, err
	}
	return aggregate.Temporal(records, field, window), nil
}

// Statistics computes summary stats over the viewport dataset.
func (s *Service) Statistics(ctx context.Context, bounds types.Bounds, filters types.FilterSet) (types.ProfileStats, error) {
	records, err := s.ViewportData(ctx, bounds, filters)
	if err != nil {
		return types.ProfileStats{}, err
	}
	return aggregate.Statistics(records), nil
}

// GeographicDistribution buckets the viewport dataset into a lat/lon grid.
func (s *Service) GeographicDistribution(ctx context.Context, bounds types.Bounds, filters types.FilterSet, gridSize float64) ([]types.GridCell, error) {
	records, err := s.ViewportData(ctx, bounds, filters)
	if err != nil {
		return nil, err
	}
	return aggregate.GeographicDistribution(records, gridSize), nil
}

// Correlation computes the temperature/salinity correlation for the viewport.
func (s *Service) Correlation(ctx context.Context, bounds types.Bounds, filters types.FilterSet) (types.CorrelationResult, error) {
	records, err := s.ViewportData(ctx, bounds, filters)
	if err != nil {
		return types.CorrelationResult{}, err
	}
	return aggregate.Correlation(records), nil
}

// Outliers flags viewport records whose field value deviates from the mean
// by more than threshold standard deviations.
func (s *Service) Outliers(ctx context.Context, bounds types.Bounds, filters types.FilterSet, field types.MeasurementField, threshold float64) ([]types.Outlier, error) {
	if !types.ValidHistogramField(field) {
		return nil, types.NewAppError(types.ErrCodeValidationInvalidField,
			fmt.Sprintf("field %q cannot be screened for outliers", field), nil)
	}
	records, err := s.ViewportData(ctx, bounds, filters)
	if err != nil {
		return nil, err
	}
	return aggregate.Outliers(records, field, threshold), nil
}

func validateProfile(p types.ProfileRecord) error {
	if p.FloatID == "" {
		return types.NewAppError(types.ErrCodeValidationMissingField, "float_id is required", nil)
	}
	if !types.ValidRecord(p) {
		return types.NewAppError(types.ErrCodeValidationInvalidRange,
			"profile has out-of-range or non-finite values", nil)
	}
	return nil
}

func validatePatch(p db.ProfilePatch) error {
	if p.Latitude != nil && (*p.Latitude < types.MinLat || *p.Latitude > types.MaxLat) {
		return types.NewAppError(types.ErrCodeValidationInvalidLat,
			fmt.Sprintf("latitude must be within [%v, %v]", types.MinLat, types.MaxLat), nil)
	}
	if p.Longitude != nil && (*p.Longitude < types.MinLon || *p.Longitude > types.MaxLon) {
		return types.NewAppError(types.ErrCodeValidationInvalidLon,
			fmt.Sprintf("longitude must be within [%v, %v]", types.MinLon, types.MaxLon), nil)
	}
	if p.Depth != nil && *p.Depth < 0 {
		return types.NewAppError(types.ErrCodeValidationInvalidRange, "depth must not be negative", nil)
	}
	if p.Month != nil && (*p.Month < types.MinMonth || *p.Month > types.MaxMonth) {
		return types.NewAppError(types.ErrCodeValidationInvalidMonth,
			fmt.Sprintf("month must be within [%d, %d]", types.MinMonth, types.MaxMonth), nil)
	}
	return nil
}

func validateFilters(f types.FilterSet) error {
	if f.Month != nil && (*f.Month < types.MinMonth || *f.Month > types.MaxMonth) {
		return types.NewAppError(types.ErrCodeValidationInvalidMonth,
			fmt.Sprintf("month must be within [%d, %d]", types.MinMonth, types.MaxMonth), nil)
	}
	checkRange := func(name string, min, max *float64) error {
		if min != nil && max != nil && *min > *max {
			return types.NewAppError(types.ErrCodeValidationInvalidRange,
				fmt.Sprintf("%s_min must not exceed %s_max", name, name), nil)
		}
		return nil
	}
	if err := checkRange("depth", f.DepthMin, f.DepthMax); err != nil {
		return err
	}
	if err := checkRange("temperature", f.TemperatureMin, f.TemperatureMax); err != nil {
		return err
	}
	return checkRange("salinity", f.SalinityMin, f.SalinityMax)
}
