package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"floatdeck/internal/config"
	"floatdeck/internal/types"
)

// dataSourceUserAgent identifies FloatDeck to the upstream data source.
const dataSourceUserAgent = "FloatDeck-DataSource/1.0"

// DataSourceClient fetches float profile records from the upstream data
// source. Its FetchProfiles method satisfies viewport.Fetcher, and the
// client doubles as a core.HealthProbe.
type DataSourceClient struct {
	base     *BaseClient
	baseURL  string
	apiKey   types.SecretString
	pageSize int
}

// profilesPage is the upstream response shape for one page of profiles.
type profilesPage struct {
	Profiles []types.ProfileRecord `json:"profiles"`
	Total    int                   `json:"total"`
}

// NewDataSourceClient creates a client from the data source configuration.
func NewDataSourceClient(cfg config.DataSourceConfig, opts ...BaseClientOption) *DataSourceClient {
	policy := DefaultRetryPolicy()
	if cfg.MaxRetries > 0 {
		policy.MaxRetries = cfg.MaxRetries
	}

	pageSize := cfg.MaxPageSize
	if pageSize <= 0 {
		pageSize = 5000
	}

	return &DataSourceClient{
		base: NewBaseClient(
			&http.Client{Timeout: cfg.Timeout},
			"data-source",
			policy,
			dataSourceUserAgent,
			types.ErrCodeUpstreamDataSource,
			opts...,
		),
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		pageSize: pageSize,
	}
}

// FetchProfiles retrieves every profile inside the given bounds that matches
// the filters, following upstream pagination until the result is complete.
func (c *DataSourceClient) FetchProfiles(ctx context.Context, bounds types.Bounds, filters types.FilterSet) ([]types.ProfileRecord, error) {
	var all []types.ProfileRecord

	offset := 0
	for {
		page, err := c.fetchPage(ctx, bounds, filters, c.pageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Profiles...)

		offset += len(page.Profiles)
		if len(page.Profiles) < c.pageSize || offset >= page.Total {
			break
		}
	}

	if all == nil {
		all = []types.ProfileRecord{}
	}
	return all, nil
}

func (c *DataSourceClient) fetchPage(ctx context.Context, bounds types.Bounds, filters types.FilterSet, limit, offset int) (*profilesPage, error) {
	q := url.Values{}
	q.Set("south", strconv.FormatFloat(bounds.South, 'f', -1, 64))
	q.Set("north", strconv.FormatFloat(bounds.North, 'f', -1, 64))
	q.Set("west", strconv.FormatFloat(bounds.West, 'f', -1, 64))
	q.Set("east", strconv.FormatFloat(bounds.East, 'f', -1, 64))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	setFloat := func(key string, v *float64) {
		if v != nil {
			q.Set(key, strconv.FormatFloat(*v, 'f', -1, 64))
		}
	}
	setFloat("depth_min", filters.DepthMin)
	setFloat("depth_max", filters.DepthMax)
	setFloat("temperature_min", filters.TemperatureMin)
	setFloat("temperature_max", filters.TemperatureMax)
	setFloat("salinity_min", filters.SalinityMin)
	setFloat("salinity_max", filters.SalinityMax)
	if filters.Month != nil {
		q.Set("month", strconv.Itoa(*filters.Month))
	}
	if filters.Year != nil {
		q.Set("year", strconv.Itoa(*filters.Year))
	}

	endpoint := fmt.Sprintf("%s/v1/profiles?%s", c.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to build data source request", err)
	}
	if key := c.apiKey.Unmask(); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamDataSource,
			fmt.Sprintf("data source returned status %d", resp.StatusCode),
			nil,
		)
	}

	var page profilesPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamDataSource, "failed to decode data source response", err)
	}
	return &page, nil
}

// Name identifies the health probe.
func (c *DataSourceClient) Name() string { return "data_source" }

// Check implements core.HealthProbe against the upstream /health endpoint.
func (c *DataSourceClient) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.base.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("data source health returned %d", resp.StatusCode)
	}
	return nil
}
