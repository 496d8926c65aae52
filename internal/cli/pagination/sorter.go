package pagination

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Sorter orders items of type T by a named field.
type Sorter[T any] struct {
	fields map[string]func(a, b T) int
}

// NewSorter returns a Sorter over the given field comparators.
func NewSorter[T any](fields map[string]func(a, b T) int) *Sorter[T] {
	return &Sorter[T]{fields: fields}
}

// IsValidField checks if the field is valid for sorting.
func (s *Sorter[T]) IsValidField(field string) bool {
	_, ok := s.fields[field]
	return ok
}

// ValidFields returns all valid sort fields in alphabetical order.
func (s *Sorter[T]) ValidFields() []string {
	fields := make([]string, 0, len(s.fields))
	for field := range s.fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// Sort returns a stably sorted copy of items according to sortStr.
func (s *Sorter[T]) Sort(items []T, sortStr string) ([]T, error) {
	field, order, err := ParseSort(sortStr)
	if err != nil {
		return nil, err
	}
	cmp, ok := s.fields[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q (valid: %s)", ErrInvalidSortField, field, strings.Join(s.ValidFields(), ", "))
	}

	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b T) int {
		if order == SortOrderDesc {
			return cmp(b, a)
		}
		return cmp(a, b)
	})
	return sorted, nil
}
