package config

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
)

// Environment variables that override config file values.
const (
	EnvConfig          = "BULKRUN_CONFIG"
	EnvLogLevel        = "BULKRUN_LOG_LEVEL"
	EnvLogFormat       = "BULKRUN_LOG_FORMAT"
	EnvLogFile         = "BULKRUN_LOG_FILE"
	EnvBatchSize       = "BULKRUN_BATCH_SIZE"
	EnvBatchDelay      = "BULKRUN_BATCH_DELAY"
	EnvParallel        = "BULKRUN_PARALLEL"
	EnvMaxConcurrency  = "BULKRUN_MAX_CONCURRENCY"
	EnvContinueOnError = "BULKRUN_CONTINUE_ON_ERROR"
	EnvMaxRetries      = "BULKRUN_MAX_RETRIES"
	EnvSink            = "BULKRUN_SINK"
	EnvHTTPURL         = "BULKRUN_HTTP_URL"
	EnvReportsDir      = "BULKRUN_REPORTS_DIR"
)

// envFiles are read from the working directory in order; later files win.
//
//nolint:gochecknoglobals // Fixed lookup order.
var envFiles = []string{".env", ".env.local"}

// environment layers the process environment over values from env files.
type environment struct {
	lookupEnv func(string) (string, bool)
	fileVars  map[string]string
}

func (e environment) lookup(key string) (string, bool) {
	if e.lookupEnv != nil {
		if v, ok := e.lookupEnv(key); ok {
			return v, true
		}
	}
	v, ok := e.fileVars[key]
	return v, ok
}

// environment loads .env files without touching the process environment.
// Unreadable or malformed env files are skipped.
func (l *Loader) environment() environment {
	vars := map[string]string{}
	for _, name := range envFiles {
		data, err := afero.ReadFile(l.Fs, filepath.Join(l.WorkDir, name))
		if err != nil {
			continue
		}
		parsed, err := godotenv.Parse(bytes.NewReader(data))
		if err != nil {
			continue
		}
		for k, v := range parsed {
			vars[k] = v
		}
	}

	return environment{lookupEnv: l.LookupEnv, fileVars: vars}
}

// applyEnvOverrides applies BULKRUN_* variables onto cfg.
func applyEnvOverrides(cfg *Config, env environment) error {
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := env.lookup(key); ok && v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := env.lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := env.lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := env.lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str(EnvLogLevel, &cfg.Logging.Level)
	str(EnvLogFormat, &cfg.Logging.Format)
	str(EnvLogFile, &cfg.Logging.File)
	integer(EnvBatchSize, &cfg.Bulk.BatchSize)
	duration(EnvBatchDelay, &cfg.Bulk.BatchDelay)
	boolean(EnvParallel, &cfg.Bulk.Parallel)
	integer(EnvMaxConcurrency, &cfg.Bulk.MaxConcurrency)
	boolean(EnvContinueOnError, &cfg.Bulk.ContinueOnError)
	str(EnvSink, &cfg.Sink.Type)
	str(EnvHTTPURL, &cfg.Sink.HTTP.URL)
	str(EnvReportsDir, &cfg.Reports.Directory)

	if v, ok := env.lookup(EnvMaxRetries); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvMaxRetries, err))
		} else {
			cfg.Bulk.MaxRetries = n
			cfg.Bulk.RetryFailed = n > 0
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid environment override: %w", err)
	}
	return nil
}
