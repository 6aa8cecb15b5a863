package profiles

import (
	"context"
	"log/slog"

	"floatdeck/internal/types"
)

// UpstreamFetcher pulls profile records from the external data source.
type UpstreamFetcher interface {
	FetchProfiles(ctx context.Context, bounds types.Bounds, filters types.FilterSet) ([]types.ProfileRecord, error)
}

// BulkWriter persists hydrated record batches.
type BulkWriter interface {
	BulkInsert(ctx context.Context, records []types.ProfileRecord) (int, error)
}

// HydratingStore decorates a Store so viewport reads that find no local rows
// fall through to the upstream data source. Fetched records are validated and
// persisted, so subsequent reads for the region are served locally.
type HydratingStore struct {
	Store
	fetcher UpstreamFetcher
	writer  BulkWriter
	logger  *slog.Logger
}

// NewHydratingStore wires the decorator. The repository usually serves as
// both the inner Store and the BulkWriter.
func NewHydratingStore(store Store, fetcher UpstreamFetcher, writer BulkWriter, logger *slog.Logger) *HydratingStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &HydratingStore{
		Store:   store,
		fetcher: fetcher,
		writer:  writer,
		logger:  logger,
	}
}

// ListByViewport reads locally first. An empty local result triggers an
// upstream fetch; a fetch failure is logged and the empty local result
// stands, keeping the read path available when the upstream is down.
func (h *HydratingStore) ListByViewport(ctx context.Context, bounds types.Bounds, filters types.FilterSet) ([]types.ProfileRecord, error) {
	records, err := h.Store.ListByViewport(ctx, bounds, filters)
	if err != nil || len(records) > 0 {
		return records, err
	}

	fetched, err := h.fetcher.FetchProfiles(ctx, bounds, filters)
	if err != nil {
		h.logger.WarnContext(ctx, "upstream hydration failed, serving local data",
			"error", err,
		)
		return records, nil
	}

	valid, rejected := types.FilterValid(fetched)
	if len(valid) == 0 {
		return records, nil
	}

	inserted, err := h.writer.BulkInsert(ctx, valid)
	if err != nil {
		// The fetched records are still good for this read.
		h.logger.ErrorContext(ctx, "failed to persist hydrated records", "error", err)
	}

	h.logger.InfoContext(ctx, "viewport hydrated from upstream",
		"fetched", len(fetched),
		"inserted", inserted,
		"rejected_invalid", rejected,
	)
	return valid, nil
}
