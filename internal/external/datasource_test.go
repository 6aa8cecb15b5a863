package external

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"floatdeck/internal/config"
	"floatdeck/internal/types"
)

func dataSourceConfig(serverURL string) config.DataSourceConfig {
	return config.DataSourceConfig{
		BaseURL:     serverURL,
		Timeout:     5 * time.Second,
		MaxRetries:  1,
		MaxPageSize: 2,
	}
}

func TestFetchProfiles_Paginates(t *testing.T) {
	all := []types.ProfileRecord{
		{ID: 1, FloatID: "F1", Latitude: 10, Longitude: 70},
		{ID: 2, FloatID: "F2", Latitude: 11, Longitude: 71},
		{ID: 3, FloatID: "F3", Latitude: 12, Longitude: 72},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("south") != "10" {
			t.Errorf("south = %q, want 10", q.Get("south"))
		}
		offset := 0
		if o := q.Get("offset"); o == "2" {
			offset = 2
		}
		end := offset + 2
		if end > len(all) {
			end = len(all)
		}
		_ = json.NewEncoder(w).Encode(profilesPage{Profiles: all[offset:end], Total: len(all)})
	}))
	defer server.Close()

	client := NewDataSourceClient(dataSourceConfig(server.URL), WithSleepFunc(noopSleep))

	records, err := client.FetchProfiles(context.Background(),
		types.Bounds{South: 10, North: 20, West: 60, East: 80}, types.FilterSet{})
	if err != nil {
		t.Fatalf("FetchProfiles returned error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	if records[2].FloatID != "F3" {
		t.Errorf("last record = %+v", records[2])
	}
}

func TestFetchProfiles_SendsFilters(t *testing.T) {
	var query map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		_ = json.NewEncoder(w).Encode(profilesPage{})
	}))
	defer server.Close()

	client := NewDataSourceClient(dataSourceConfig(server.URL), WithSleepFunc(noopSleep))

	depthMin := 50.0
	month := 6
	filters := types.FilterSet{DepthMin: &depthMin, Month: &month}
	if _, err := client.FetchProfiles(context.Background(), types.Bounds{South: 0, North: 10, West: 0, East: 10}, filters); err != nil {
		t.Fatalf("FetchProfiles returned error: %v", err)
	}

	if got := query["depth_min"]; len(got) != 1 || got[0] != "50" {
		t.Errorf("depth_min = %v", got)
	}
	if got := query["month"]; len(got) != 1 || got[0] != "6" {
		t.Errorf("month = %v", got)
	}
	if _, ok := query["temperature_min"]; ok {
		t.Error("unset filter should not be sent")
	}
}

func TestFetchProfiles_UpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewDataSourceClient(dataSourceConfig(server.URL), WithSleepFunc(noopSleep))

	_, err := client.FetchProfiles(context.Background(), types.Bounds{South: 0, North: 10, West: 0, East: 10}, types.FilterSet{})
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestFetchProfiles_EmptyResultNotNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(profilesPage{})
	}))
	defer server.Close()

	client := NewDataSourceClient(dataSourceConfig(server.URL), WithSleepFunc(noopSleep))

	records, err := client.FetchProfiles(context.Background(), types.Bounds{South: 0, North: 10, West: 0, East: 10}, types.FilterSet{})
	if err != nil {
		t.Fatalf("FetchProfiles returned error: %v", err)
	}
	if records == nil {
		t.Error("records should be an empty slice, not nil")
	}
}

func TestDataSourceHealthProbe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewDataSourceClient(dataSourceConfig(server.URL), WithSleepFunc(noopSleep))
	if client.Name() != "data_source" {
		t.Errorf("Name = %q", client.Name())
	}
	if err := client.Check(context.Background()); err != nil {
		t.Errorf("Check returned error: %v", err)
	}
}
