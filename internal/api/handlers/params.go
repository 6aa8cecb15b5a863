// Package handlers contains the HTTP handler implementations for the
// FloatDeck API. Handlers define their service dependencies as local
// interfaces so wiring stays in main and tests inject fakes.
package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"floatdeck/internal/types"
)

// parseBounds reads the south/north/west/east query parameters. All four are
// required together; the returned bounds are raw and clamped downstream.
func parseBounds(q url.Values) (types.Bounds, error) {
	var b types.Bounds
	for _, part := range []struct {
		name string
		dst  *float64
	}{
		{"south", &b.South},
		{"north", &b.North},
		{"west", &b.West},
		{"east", &b.East},
	} {
		raw := q.Get(part.name)
		if raw == "" {
			return b, types.NewAppError(types.ErrCodeValidationMissingField,
				part.name+" query parameter is required", nil)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return b, types.NewAppError(types.ErrCodeValidationInvalidFormat,
				part.name+" must be a valid number", nil)
		}
		*part.dst = v
	}
	return b, nil
}

// parseOptionalBounds returns nil when none of the bounds parameters are
// present, and an error when only some are.
func parseOptionalBounds(q url.Values) (*types.Bounds, error) {
	if q.Get("south") == "" && q.Get("north") == "" && q.Get("west") == "" && q.Get("east") == "" {
		return nil, nil
	}
	b, err := parseBounds(q)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// parseFilters reads the optional measurement and temporal filters.
func parseFilters(q url.Values) (types.FilterSet, error) {
	var f types.FilterSet

	for _, part := range []struct {
		name string
		dst  **float64
	}{
		{"depth_min", &f.DepthMin},
		{"depth_max", &f.DepthMax},
		{"temp_min", &f.TemperatureMin},
		{"temp_max", &f.TemperatureMax},
		{"salinity_min", &f.SalinityMin},
		{"salinity_max", &f.SalinityMax},
	} {
		raw := q.Get(part.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return f, types.NewAppError(types.ErrCodeValidationInvalidFormat,
				part.name+" must be a valid number", nil)
		}
		*part.dst = &v
	}

	if raw := q.Get("month"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return f, types.NewAppError(types.ErrCodeValidationInvalidMonth,
				"month must be an integer", nil)
		}
		f.Month = &v
	}
	if raw := q.Get("year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return f, types.NewAppError(types.ErrCodeValidationInvalidFormat,
				"year must be an integer", nil)
		}
		f.Year = &v
	}

	return f, nil
}

// parseFloatQuery reads an optional float parameter, returning fallback when
// absent.
func parseFloatQuery(q url.Values, name string, fallback float64) (float64, error) {
	raw := q.Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeValidationInvalidFormat,
			name+" must be a valid number", nil)
	}
	return v, nil
}

// parseIntQuery reads an optional integer parameter, returning fallback when
// absent.
func parseIntQuery(q url.Values, name string, fallback int) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeValidationInvalidFormat,
			name+" must be an integer", nil)
	}
	return v, nil
}

// pathID parses the numeric ID path parameter.
func pathID(r *http.Request, param string) (int64, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, types.NewAppError(types.ErrCodeValidationInvalidFormat,
			param+" must be a positive integer", nil)
	}
	return id, nil
}
