package ingest

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/rshade/bulkrun/pkg/bulk"
)

// Validate checks that every record is usable for op. Update and delete
// records must carry a non-blank id. All problems are returned together.
func Validate(records []Record, op bulk.OperationType) error {
	rules := []validation.Rule{validation.Required}
	if op == bulk.OperationUpdate || op == bulk.OperationDelete {
		rules = append(rules, validation.Map(
			validation.Key("id", validation.Required),
		).AllowExtraKeys())
	}

	var errs []error
	for i, rec := range records {
		if err := validation.Validate(map[string]any(rec), rules...); err != nil {
			errs = append(errs, fmt.Errorf("record %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
