package ingest

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidFilter is returned for filter expressions that do not parse.
var ErrInvalidFilter = errors.New("invalid filter")

// Filter selects records whose field matches a value. Negated filters select
// the records that do not match.
type Filter struct {
	Key    string
	Value  string
	Negate bool
}

// ParseFilter parses "key=value" or "key!=value". Nested fields are addressed
// with dots, e.g. "address.country=NL".
func ParseFilter(expr string) (Filter, error) {
	var f Filter

	key, value, ok := strings.Cut(expr, "!=")
	if ok {
		f.Negate = true
	} else {
		key, value, ok = strings.Cut(expr, "=")
	}
	if !ok {
		return Filter{}, fmt.Errorf("%w %q: expected key=value or key!=value", ErrInvalidFilter, expr)
	}

	f.Key = strings.TrimSpace(key)
	f.Value = strings.TrimSpace(value)
	if f.Key == "" {
		return Filter{}, fmt.Errorf("%w %q: empty key", ErrInvalidFilter, expr)
	}
	return f, nil
}

// Match reports whether rec is selected. A missing field never equals a value.
func (f Filter) Match(rec Record) bool {
	v, found := lookup(map[string]any(rec), strings.Split(f.Key, "."))
	equal := found && fmt.Sprint(v) == f.Value
	return equal != f.Negate
}

func (f Filter) String() string {
	if f.Negate {
		return f.Key + "!=" + f.Value
	}
	return f.Key + "=" + f.Value
}

// Select returns the records matched by every filter, in input order.
func Select(records []Record, filters ...Filter) []Record {
	if len(filters) == 0 {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if matchAll(rec, filters) {
			out = append(out, rec)
		}
	}
	return out
}

func matchAll(rec Record, filters []Filter) bool {
	for _, f := range filters {
		if !f.Match(rec) {
			return false
		}
	}
	return true
}

func lookup(m map[string]any, path []string) (any, bool) {
	v, ok := m[path[0]]
	if !ok || len(path) == 1 {
		return v, ok
	}
	switch next := v.(type) {
	case map[string]any:
		return lookup(next, path[1:])
	case Record:
		return lookup(map[string]any(next), path[1:])
	default:
		return nil, false
	}
}
