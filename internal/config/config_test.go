package config_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/bulkrun/internal/config"
	"github.com/rshade/bulkrun/pkg/bulk"
)

const (
	testHome = "/home/tester"
	testWork = "/work/project"
)

// newTestLoader returns a Loader over an in-memory filesystem and a fixed environment.
func newTestLoader(env map[string]string) (*config.Loader, afero.Fs) {
	fs := afero.NewMemMapFs()
	_ = fs.MkdirAll(testWork, 0o750)
	return &config.Loader{
		Fs:      fs,
		HomeDir: testHome,
		WorkDir: testWork,
		LookupEnv: func(key string) (string, bool) {
			v, ok := env[key]
			return v, ok
		},
	}, fs
}

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o600))
}

func TestNew_Defaults(t *testing.T) {
	cfg := config.New(testHome)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.True(t, cfg.Bulk.ContinueOnError)
	assert.False(t, cfg.Bulk.Parallel)
	assert.Equal(t, config.SinkSimulate, cfg.Sink.Type)
	assert.Equal(t, config.DefaultHTTPTimeout, cfg.Sink.HTTP.Timeout)
	assert.True(t, cfg.Reports.Enabled)
	assert.Equal(t, filepath.Join(testHome, ".bulkrun", "reports"), cfg.Reports.Directory)
	require.NoError(t, cfg.Validate())
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	loader, _ := newTestLoader(nil)

	cfg, err := loader.Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Path())
	assert.True(t, cfg.Bulk.ContinueOnError)
}

func TestLoad_DefaultFile(t *testing.T) {
	loader, fs := newTestLoader(nil)
	writeFile(t, fs, loader.DefaultPath(), `
logging:
  level: debug
  format: json
bulk:
  batch_size: 25
  batch_delay: 250ms
  parallel: true
  max_concurrency: 4
  continue_on_error: false
  retry_failed: true
  max_retries: 2
  retry_backoff: 1s
sink:
  type: http
  http:
    url: https://api.example.com/wallets/{id}
    timeout: 5s
    headers:
      Authorization: Bearer token
`)

	cfg, err := loader.Load("")
	require.NoError(t, err)

	assert.Equal(t, loader.DefaultPath(), cfg.Path())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 25, cfg.Bulk.BatchSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Bulk.BatchDelay)
	assert.True(t, cfg.Bulk.Parallel)
	assert.Equal(t, 4, cfg.Bulk.MaxConcurrency)
	assert.False(t, cfg.Bulk.ContinueOnError)
	assert.True(t, cfg.Bulk.RetryFailed)
	assert.Equal(t, 2, cfg.Bulk.MaxRetries)
	assert.Equal(t, time.Second, cfg.Bulk.RetryBackoff)
	assert.Equal(t, config.SinkHTTP, cfg.Sink.Type)
	assert.Equal(t, 5*time.Second, cfg.Sink.HTTP.Timeout)
	assert.Equal(t, "Bearer token", cfg.Sink.HTTP.Headers["Authorization"])
}

func TestLoad_ExplicitPathMissing(t *testing.T) {
	loader, _ := newTestLoader(nil)

	_, err := loader.Load("/nope/config.yaml")
	require.ErrorIs(t, err, config.ErrConfigNotFound)
}

func TestLoad_ConfigFromEnvVar(t *testing.T) {
	loader, fs := newTestLoader(map[string]string{config.EnvConfig: "/etc/bulkrun.yaml"})
	writeFile(t, fs, "/etc/bulkrun.yaml", "bulk:\n  batch_size: 7\n")

	cfg, err := loader.Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Bulk.BatchSize)
	assert.Equal(t, "/etc/bulkrun.yaml", cfg.Path())
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	loader, fs := newTestLoader(nil)
	writeFile(t, fs, loader.DefaultPath(), "bulk:\n  batch_sise: 7\n")

	_, err := loader.Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch_sise")
}

func TestLoad_IncompatibleVersion(t *testing.T) {
	loader, fs := newTestLoader(nil)
	writeFile(t, fs, loader.DefaultPath(), "version: 99.0.0\n")

	_, err := loader.Load("")
	require.ErrorIs(t, err, config.ErrIncompatibleVersion)
}

func TestLoad_InvalidValues(t *testing.T) {
	loader, fs := newTestLoader(nil)
	writeFile(t, fs, loader.DefaultPath(), `
logging:
  format: xml
bulk:
  batch_size: -5
sink:
  type: http
`)

	_, err := loader.Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.format")
	assert.Contains(t, err.Error(), "batch size")
	assert.Contains(t, err.Error(), "sink.http.url")
}

func TestLoad_EnvOverrides(t *testing.T) {
	loader, fs := newTestLoader(map[string]string{
		config.EnvLogLevel:       "error",
		config.EnvBatchSize:      "50",
		config.EnvParallel:       "true",
		config.EnvMaxConcurrency: "8",
		config.EnvMaxRetries:     "3",
		config.EnvBatchDelay:     "2s",
	})
	writeFile(t, fs, loader.DefaultPath(), "bulk:\n  batch_size: 10\n")

	cfg, err := loader.Load("")
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, 50, cfg.Bulk.BatchSize)
	assert.True(t, cfg.Bulk.Parallel)
	assert.Equal(t, 8, cfg.Bulk.MaxConcurrency)
	assert.True(t, cfg.Bulk.RetryFailed)
	assert.Equal(t, 3, cfg.Bulk.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.Bulk.BatchDelay)
}

func TestLoad_BadEnvOverride(t *testing.T) {
	loader, _ := newTestLoader(map[string]string{config.EnvBatchSize: "lots"})

	_, err := loader.Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.EnvBatchSize)
}

func TestLoad_DotEnvFiles(t *testing.T) {
	loader, fs := newTestLoader(map[string]string{config.EnvLogLevel: "error"})
	writeFile(t, fs, filepath.Join(testWork, ".env"), "BULKRUN_BATCH_SIZE=5\nBULKRUN_LOG_LEVEL=debug\n")
	writeFile(t, fs, filepath.Join(testWork, ".env.local"), "BULKRUN_BATCH_SIZE=6\n")

	cfg, err := loader.Load("")
	require.NoError(t, err)

	// .env.local wins over .env, the process environment wins over both.
	assert.Equal(t, 6, cfg.Bulk.BatchSize)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestLoad_ProjectOverlay(t *testing.T) {
	loader, fs := newTestLoader(nil)
	writeFile(t, fs, loader.DefaultPath(), "logging:\n  level: debug\nbulk:\n  batch_size: 10\n  parallel: true\n")
	writeFile(t, fs, "/work/.bulkrun.yaml", "bulk:\n  batch_size: 99\n")

	cfg, err := loader.Load("")
	require.NoError(t, err)

	assert.Equal(t, 99, cfg.Bulk.BatchSize)
	assert.False(t, cfg.Bulk.Parallel, "overlay replaces the whole bulk section")
	assert.True(t, cfg.Bulk.ContinueOnError, "replaced section starts from defaults")
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestSave(t *testing.T) {
	loader, fs := newTestLoader(nil)
	cfg := config.New(testHome)
	cfg.Bulk.BatchSize = 42

	require.NoError(t, loader.Save(cfg, "", false))
	assert.Equal(t, loader.DefaultPath(), cfg.Path())

	err := loader.Save(cfg, "", false)
	require.ErrorIs(t, err, config.ErrConfigExists)
	require.NoError(t, loader.Save(cfg, "", true))

	data, err := afero.ReadFile(fs, loader.DefaultPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "batch_size: 42")

	loaded, err := loader.Load("")
	require.NoError(t, err)
	assert.Equal(t, 42, loaded.Bulk.BatchSize)
	assert.Equal(t, cfg.Sink.HTTP.Timeout, loaded.Sink.HTTP.Timeout)
}

func TestBulkConfig_Options(t *testing.T) {
	b := config.BulkConfig{
		BatchSize:       10,
		Parallel:        true,
		MaxConcurrency:  3,
		ContinueOnError: false,
		RetryFailed:     true,
		MaxRetries:      2,
		RetryBackoff:    time.Millisecond,
	}
	require.NoError(t, b.Validate())
	assert.Len(t, b.Options(), 8)

	b.MaxConcurrency = -1
	assert.Error(t, b.Validate())
}

func TestBulkConfig_OptionsKeepSequentialWithConcurrencyCap(t *testing.T) {
	b := config.BulkConfig{Parallel: false, MaxConcurrency: 5, ContinueOnError: true}

	opts := bulk.DefaultOptions()
	for _, opt := range b.Options() {
		opt(&opts)
	}
	assert.False(t, opts.Parallel)
	assert.Equal(t, 5, opts.MaxConcurrency)
}

func TestSinkValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{name: "unknown type", mutate: func(c *config.Config) { c.Sink.Type = "ftp" }, wantErr: "sink.type"},
		{name: "exec without command", mutate: func(c *config.Config) { c.Sink.Type = config.SinkExec }, wantErr: "sink.exec.command"},
		{name: "failure rate too high", mutate: func(c *config.Config) { c.Sink.Simulate.FailureRate = 1.5 }, wantErr: "failure_rate"},
		{name: "negative retention", mutate: func(c *config.Config) { c.Reports.Retention = -time.Hour }, wantErr: "reports.retention"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(testHome)
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoggingConfig_ToLoggingConfig(t *testing.T) {
	lc := config.LoggingConfig{Level: "debug", Format: "json"}
	assert.Equal(t, "stderr", lc.ToLoggingConfig().Output)

	lc.File = "/var/log/bulkrun.log"
	converted := lc.ToLoggingConfig()
	assert.Equal(t, "file", converted.Output)
	assert.Equal(t, "/var/log/bulkrun.log", converted.File)
	assert.Equal(t, "debug", converted.Level)
}
