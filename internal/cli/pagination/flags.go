package pagination

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cobra"
)

// Validation limits and sort orders.
const (
	MaxLimit      = 10000
	SortOrderAsc  = "asc"
	SortOrderDesc = "desc"
)

// Validation errors.
var (
	ErrInvalidLimit      = fmt.Errorf("limit must be between 0 and %d", MaxLimit)
	ErrInvalidOffset     = errors.New("offset must be non-negative")
	ErrInvalidSortOrder  = errors.New("sort order must be 'asc' or 'desc'")
	ErrInvalidSortFormat = errors.New("invalid sort format: use 'field' or 'field:order' (e.g., 'created:desc')")
	ErrEmptySortField    = errors.New("sort field cannot be empty")
	ErrInvalidSortField  = errors.New("invalid sort field")
)

// Params holds the paging flags of a list command. A zero Limit returns
// everything after Offset.
type Params struct {
	Limit  int
	Offset int
	Sort   string
}

// AddFlags registers --limit, --offset and --sort on cmd.
func (p *Params) AddFlags(cmd *cobra.Command, defaultSort string) {
	cmd.Flags().IntVar(&p.Limit, "limit", 0, "maximum number of items to show (0 = all)")
	cmd.Flags().IntVar(&p.Offset, "offset", 0, "number of items to skip")
	cmd.Flags().StringVar(&p.Sort, "sort", defaultSort, "sort as field or field:order")
}

// Validate checks the bounds of Limit and Offset.
func (p Params) Validate() error {
	if p.Limit < 0 || p.Limit > MaxLimit {
		return fmt.Errorf("%w: got %d", ErrInvalidLimit, p.Limit)
	}
	if p.Offset < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidOffset, p.Offset)
	}
	return nil
}

// sortPartsMax is the maximum number of parts in a sort string (field:order).
const sortPartsMax = 2

// ParseSort parses "field" or "field:order". A bare field sorts ascending.
//
//nolint:nonamedreturns // Named returns improve readability for this multi-value function.
func ParseSort(sortStr string) (field, order string, err error) {
	parts := strings.Split(sortStr, ":")
	switch len(parts) {
	case 1:
		field = strings.TrimSpace(parts[0])
		order = SortOrderAsc
	case sortPartsMax:
		field = strings.TrimSpace(parts[0])
		order = strings.ToLower(strings.TrimSpace(parts[1]))
	default:
		return "", "", fmt.Errorf("%w: %q", ErrInvalidSortFormat, sortStr)
	}

	if field == "" {
		return "", "", ErrEmptySortField
	}
	if order != SortOrderAsc && order != SortOrderDesc {
		return "", "", fmt.Errorf("%w: got %q", ErrInvalidSortOrder, order)
	}
	return field, order, nil
}

// Page returns the window of items selected by p. It never fails; an offset
// past the end yields an empty slice.
func Page[T any](items []T, p Params) []T {
	start := min(p.Offset, len(items))
	end := len(items)
	if p.Limit > 0 {
		end = min(start+p.Limit, len(items))
	}
	return items[start:end]
}

// Meta describes where a page sits in the full list.
type Meta struct {
	Offset     int  `json:"offset"`
	Limit      int  `json:"limit"`
	TotalItems int  `json:"total_items"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// NewMeta builds paging metadata for total items.
func NewMeta(p Params, total int) Meta {
	pages := 1
	if p.Limit > 0 {
		pages = int(math.Ceil(float64(total) / float64(p.Limit)))
	}
	if total == 0 {
		pages = 0
	}
	return Meta{
		Offset:     p.Offset,
		Limit:      p.Limit,
		TotalItems: total,
		TotalPages: pages,
		HasNext:    p.Limit > 0 && p.Offset+p.Limit < total,
	}
}
