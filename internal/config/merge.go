package config

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Top-level YAML config key names used for shallow merge.
const (
	keyLogging = "logging"
	keyBulk    = "bulk"
	keySink    = "sink"
	keyReports = "reports"
)

// knownTopLevelKeys lists the YAML keys that correspond to mergeable Config fields.
// Keys not in this list (including "version") are silently ignored during merge.
//
//nolint:gochecknoglobals // Compile-time constant lookup table.
var knownTopLevelKeys = map[string]bool{
	keyLogging: true,
	keyBulk:    true,
	keySink:    true,
	keyReports: true,
}

// ShallowMergeYAML loads a YAML file and merges its top-level keys onto
// the target Config. Keys present in the overlay replace entire sections
// in the target. Keys absent in the overlay are left unchanged.
//
// A replaced section starts from the built-in defaults rather than the zero
// value, so an overlay that only sets bulk.batch_size keeps continue_on_error
// enabled.
func ShallowMergeYAML(fs afero.Fs, target *Config, overlayPath string) error {
	if target == nil {
		return errors.New("nil target *Config in ShallowMergeYAML")
	}

	data, err := afero.ReadFile(fs, overlayPath)
	if err != nil {
		return fmt.Errorf("reading overlay file %s: %w", overlayPath, err)
	}

	var overlay map[string]any
	if err = yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing overlay YAML from %s: %w", overlayPath, err)
	}

	for key, value := range overlay {
		if !knownTopLevelKeys[key] {
			continue
		}

		// Re-marshal the single section so it can be decoded onto the
		// strongly-typed target field.
		sectionBytes, marshalErr := yaml.Marshal(value)
		if marshalErr != nil {
			return fmt.Errorf("re-marshalling overlay section %q: %w", key, marshalErr)
		}

		if err = unmarshalSection(target, key, sectionBytes); err != nil {
			return fmt.Errorf("applying overlay section %q from %s: %w", key, overlayPath, err)
		}
	}

	return nil
}

// unmarshalSection decodes one section onto its defaults and replaces the
// target field with it.
func unmarshalSection(target *Config, key string, data []byte) error {
	defaults := New("")

	switch key {
	case keyLogging:
		v := defaults.Logging
		if err := decodeStrict(data, &v); err != nil {
			return err
		}
		target.Logging = v
	case keyBulk:
		v := defaults.Bulk
		if err := decodeStrict(data, &v); err != nil {
			return err
		}
		target.Bulk = v
	case keySink:
		v := defaults.Sink
		if err := decodeStrict(data, &v); err != nil {
			return err
		}
		target.Sink = v
	case keyReports:
		v := defaults.Reports
		v.Directory = target.Reports.Directory
		if err := decodeStrict(data, &v); err != nil {
			return err
		}
		target.Reports = v
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}
