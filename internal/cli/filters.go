package cli

import (
	"context"

	"github.com/rshade/bulkrun/internal/ingest"
	"github.com/rshade/bulkrun/internal/logging"
)

// ApplyFilters parses every filter expression and returns the records that
// match all of them. An invalid expression fails before any record is
// selected; an empty filter list returns records unchanged.
func ApplyFilters(ctx context.Context, records []ingest.Record, exprs []string) ([]ingest.Record, error) {
	log := logging.FromContext(ctx)

	if len(exprs) == 0 {
		return records, nil
	}

	filters := make([]ingest.Filter, 0, len(exprs))
	for _, expr := range exprs {
		if expr == "" {
			continue
		}
		f, err := ingest.ParseFilter(expr)
		if err != nil {
			log.Warn().Ctx(ctx).
				Str("component", "cli").
				Str("operation", "apply_filters").
				Str("filter", expr).
				Err(err).
				Msg("invalid filter expression")
			return nil, err
		}
		filters = append(filters, f)
	}

	result := ingest.Select(records, filters...)
	log.Debug().Ctx(ctx).
		Str("component", "cli").
		Str("operation", "apply_filters").
		Strs("filters", exprs).
		Int("before", len(records)).
		Int("after", len(result)).
		Msg("applied filters")

	if len(result) == 0 && len(records) > 0 {
		log.Warn().Ctx(ctx).
			Str("component", "cli").
			Str("operation", "apply_filters").
			Int("original_count", len(records)).
			Msg("no records match filter criteria")
	}

	return result, nil
}
