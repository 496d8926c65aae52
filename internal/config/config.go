package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/rshade/bulkrun/pkg/version"
)

// File and directory names under the user's home directory.
const (
	DefaultDirName    = ".bulkrun"
	DefaultConfigName = "config.yaml"
	ProjectConfigName = ".bulkrun.yaml"
)

// Sink type names.
const (
	SinkHTTP     = "http"
	SinkExec     = "exec"
	SinkSimulate = "simulate"
)

// Default values applied by New.
const (
	DefaultHTTPTimeout     = 30 * time.Second
	DefaultExecTimeout     = time.Minute
	DefaultReportRetention = 30 * 24 * time.Hour
)

var (
	// ErrConfigNotFound is returned when an explicitly requested config file does not exist.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigExists is returned by Save when the target exists and overwrite is false.
	ErrConfigExists = errors.New("config file already exists")

	// ErrIncompatibleVersion is returned for config files written by an incompatible release.
	ErrIncompatibleVersion = errors.New("config file version is not compatible with this binary")
)

// Config is the complete bulkrun configuration.
type Config struct {
	Version string        `yaml:"version,omitempty"`
	Logging LoggingConfig `yaml:"logging"`
	Bulk    BulkConfig    `yaml:"bulk"`
	Sink    SinkConfig    `yaml:"sink"`
	Reports ReportsConfig `yaml:"reports"`

	// path is the file the config was loaded from, empty for defaults.
	path string
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file,omitempty"`
}

// SinkConfig selects and configures the per-item handler used by the CLI.
type SinkConfig struct {
	Type     string             `yaml:"type"`
	HTTP     HTTPSinkConfig     `yaml:"http"`
	Exec     ExecSinkConfig     `yaml:"exec"`
	Simulate SimulateSinkConfig `yaml:"simulate"`
}

// HTTPSinkConfig sends each item to an HTTP endpoint.
type HTTPSinkConfig struct {
	// URL may contain {id}, replaced with the record's id field.
	URL     string            `yaml:"url"`
	Timeout time.Duration     `yaml:"timeout"`
	Headers map[string]string `yaml:"headers,omitempty"`
}

// ExecSinkConfig runs a command per item.
type ExecSinkConfig struct {
	Command string        `yaml:"command"`
	Args    []string      `yaml:"args,omitempty"`
	Timeout time.Duration `yaml:"timeout"`
}

// SimulateSinkConfig fakes work for dry runs.
type SimulateSinkConfig struct {
	Delay       time.Duration `yaml:"delay"`
	FailureRate float64       `yaml:"failure_rate"`
}

// ReportsConfig controls persisted run reports.
type ReportsConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Directory string        `yaml:"directory"`
	Retention time.Duration `yaml:"retention"`
}

// New returns a Config populated with defaults. homeDir locates the default
// report directory; an empty homeDir falls back to the working directory.
func New(homeDir string) *Config {
	return &Config{
		Version: version.GetVersion(),
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
		Bulk: BulkConfig{
			ContinueOnError: true,
		},
		Sink: SinkConfig{
			Type: SinkSimulate,
			HTTP: HTTPSinkConfig{Timeout: DefaultHTTPTimeout},
			Exec: ExecSinkConfig{Timeout: DefaultExecTimeout},
		},
		Reports: ReportsConfig{
			Enabled:   true,
			Directory: filepath.Join(homeDir, DefaultDirName, "reports"),
			Retention: DefaultReportRetention,
		},
	}
}

// Path returns the file this config was loaded from, or "".
func (c *Config) Path() string {
	return c.path
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error

	errs = append(errs, c.Logging.validate()...)
	if err := c.Bulk.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("bulk: %w", err))
	}
	errs = append(errs, c.Sink.validate()...)
	if c.Reports.Retention < 0 {
		errs = append(errs, fmt.Errorf("reports.retention must be >= 0, got %s", c.Reports.Retention))
	}
	if c.Reports.Enabled && c.Reports.Directory == "" {
		errs = append(errs, errors.New("reports.directory is required when reports are enabled"))
	}

	return errors.Join(errs...)
}

func (s SinkConfig) validate() []error {
	var errs []error

	switch s.Type {
	case SinkHTTP:
		if s.HTTP.URL == "" {
			errs = append(errs, errors.New("sink.http.url is required for the http sink"))
		}
		if s.HTTP.Timeout < 0 {
			errs = append(errs, fmt.Errorf("sink.http.timeout must be >= 0, got %s", s.HTTP.Timeout))
		}
	case SinkExec:
		if s.Exec.Command == "" {
			errs = append(errs, errors.New("sink.exec.command is required for the exec sink"))
		}
		if s.Exec.Timeout < 0 {
			errs = append(errs, fmt.Errorf("sink.exec.timeout must be >= 0, got %s", s.Exec.Timeout))
		}
	case SinkSimulate:
		if s.Simulate.FailureRate < 0 || s.Simulate.FailureRate > 1 {
			errs = append(errs, fmt.Errorf("sink.simulate.failure_rate must be between 0 and 1, got %g",
				s.Simulate.FailureRate))
		}
		if s.Simulate.Delay < 0 {
			errs = append(errs, fmt.Errorf("sink.simulate.delay must be >= 0, got %s", s.Simulate.Delay))
		}
	default:
		errs = append(errs, fmt.Errorf("sink.type must be one of %s, %s, %s; got %q",
			SinkHTTP, SinkExec, SinkSimulate, s.Type))
	}

	return errs
}

// Loader reads configuration from a filesystem and environment. The zero
// value is not usable; use NewLoader.
type Loader struct {
	Fs        afero.Fs
	HomeDir   string
	WorkDir   string
	LookupEnv func(string) (string, bool)
}

// NewLoader returns a Loader backed by the OS filesystem and environment.
func NewLoader() *Loader {
	home, _ := homedir.Dir()
	wd, _ := os.Getwd()
	return &Loader{
		Fs:        afero.NewOsFs(),
		HomeDir:   home,
		WorkDir:   wd,
		LookupEnv: os.LookupEnv,
	}
}

// DefaultPath returns ~/.bulkrun/config.yaml.
func (l *Loader) DefaultPath() string {
	return filepath.Join(l.HomeDir, DefaultDirName, DefaultConfigName)
}

// Load builds the effective configuration:
//  1. defaults
//  2. the config file (explicit path, BULKRUN_CONFIG, or ~/.bulkrun/config.yaml)
//  3. a project .bulkrun.yaml found walking up from WorkDir, merged section by section
//  4. environment variables, with .env and .env.local from WorkDir as fallbacks
//
// An explicit path that does not exist is an error; a missing default file is not.
func (l *Loader) Load(path string) (*Config, error) {
	cfg := New(l.HomeDir)

	env := l.environment()

	explicit := path != ""
	if !explicit {
		if p, ok := env.lookup(EnvConfig); ok && p != "" {
			path, explicit = p, true
		} else {
			path = l.DefaultPath()
		}
	}

	path, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}

	if err = l.readInto(cfg, path, explicit); err != nil {
		return nil, err
	}

	if overlay := FindProjectConfig(l.Fs, l.WorkDir); overlay != "" && overlay != path {
		if err = ShallowMergeYAML(l.Fs, cfg, overlay); err != nil {
			return nil, err
		}
	}

	if err = applyEnvOverrides(cfg, env); err != nil {
		return nil, err
	}

	if err = cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (l *Loader) readInto(cfg *Config, path string, explicit bool) error {
	data, err := afero.ReadFile(l.Fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if explicit {
				return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
			}
			return nil
		}
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	if err = decodeStrict(data, cfg); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}

	ok, err := version.IsCompatible(cfg.Version)
	if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s was written by %s, running %s",
			ErrIncompatibleVersion, path, cfg.Version, version.GetVersion())
	}

	cfg.path = path
	return nil
}

// expandPaths resolves a leading ~ in user-supplied paths.
func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.Reports.Directory, &c.Logging.File} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("expanding %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// decodeStrict unmarshals YAML onto out, rejecting unknown keys so typos in
// the config file are reported instead of silently ignored.
func decodeStrict(data []byte, out any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(out)
}

// Save writes cfg as YAML to path, creating parent directories. An existing
// file is only replaced when overwrite is true.
func (l *Loader) Save(cfg *Config, path string, overwrite bool) error {
	if path == "" {
		path = l.DefaultPath()
	}

	if !overwrite {
		exists, err := afero.Exists(l.Fs, path)
		if err != nil {
			return fmt.Errorf("checking %s: %w", path, err)
		}
		if exists {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
	}

	data, err := cfg.Marshal()
	if err != nil {
		return err
	}

	if err = l.Fs.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err = afero.WriteFile(l.Fs, path, data, 0o600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}

	cfg.path = path
	return nil
}

// Marshal renders the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshalling config: %w", err)
	}
	return data, nil
}
