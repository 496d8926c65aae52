package config

import (
	"time"

	"github.com/rshade/bulkrun/pkg/bulk"
)

// BulkConfig holds the default processing options for CLI runs.
type BulkConfig struct {
	BatchSize       int           `yaml:"batch_size"`
	BatchDelay      time.Duration `yaml:"batch_delay"`
	Parallel        bool          `yaml:"parallel"`
	MaxConcurrency  int           `yaml:"max_concurrency"`
	ContinueOnError bool          `yaml:"continue_on_error"`
	RetryFailed     bool          `yaml:"retry_failed"`
	MaxRetries      int           `yaml:"max_retries"`
	RetryBackoff    time.Duration `yaml:"retry_backoff"`
}

// Options converts the config into bulk options. Progress and logger options
// are left to the caller.
func (b BulkConfig) Options() []bulk.Option {
	return []bulk.Option{
		bulk.WithBatchSize(b.BatchSize),
		bulk.WithBatchDelay(b.BatchDelay),
		bulk.WithParallel(b.Parallel),
		bulk.WithConcurrencyLimit(b.MaxConcurrency),
		bulk.WithContinueOnError(b.ContinueOnError),
		bulk.WithRetryFailed(b.RetryFailed),
		bulk.WithMaxRetries(b.MaxRetries),
		bulk.WithRetryBackoff(b.RetryBackoff),
	}
}

// Validate checks the values with the same rules Process applies.
func (b BulkConfig) Validate() error {
	opts := bulk.DefaultOptions()
	for _, opt := range b.Options() {
		opt(&opts)
	}
	return opts.Validate()
}
