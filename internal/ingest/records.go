package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/rshade/bulkrun/internal/logging"
)

// StdinPath is the input path that reads records from stdin.
const StdinPath = "-"

// maxLineBytes bounds a single NDJSON line.
const maxLineBytes = 4 * 1024 * 1024

// Record is one input item.
type Record map[string]any

// ID returns the record's id field as a string, or "" when absent.
func (r Record) ID() string {
	v, ok := r["id"]
	if !ok || v == nil {
		return ""
	}
	if s, isStr := v.(string); isStr {
		return s
	}
	return fmt.Sprint(v)
}

// Format is an input encoding.
type Format string

// Supported formats. FormatAuto picks one from the file extension, then the content.
const (
	FormatAuto   Format = ""
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
	FormatYAML   Format = "yaml"
)

// ErrUnsupportedFormat is returned for unknown format names.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// ParseFormat parses a --format flag value. "auto" and "" mean FormatAuto.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "json":
		return FormatJSON, nil
	case "ndjson", "jsonl":
		return FormatNDJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return FormatAuto, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// FormatFromPath guesses the format from a file extension, FormatAuto if unknown.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".ndjson", ".jsonl":
		return FormatNDJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatAuto
	}
}

// sniffFormat guesses the format from the first significant byte.
func sniffFormat(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return FormatJSON
	}
	switch trimmed[0] {
	case '[':
		return FormatJSON
	case '{':
		return FormatNDJSON
	default:
		return FormatYAML
	}
}

// Loader reads record files.
type Loader struct {
	Fs    afero.Fs
	Stdin io.Reader
}

// NewLoader returns a Loader over the OS filesystem and process stdin.
func NewLoader() *Loader {
	return &Loader{Fs: afero.NewOsFs(), Stdin: os.Stdin}
}

// Load reads and parses the records at path.
func (l *Loader) Load(ctx context.Context, path string, format Format) ([]Record, error) {
	log := logging.FromContext(ctx).With().Str("component", "ingest").Str("input", path).Logger()

	data, err := l.read(path)
	if err != nil {
		log.Error().Err(err).Msg("failed to read input")
		return nil, err
	}

	if format == FormatAuto && path != StdinPath {
		format = FormatFromPath(path)
	}
	if format == FormatAuto {
		format = sniffFormat(data)
	}

	records, err := Parse(data, format)
	if err != nil {
		log.Error().Err(err).Str("format", string(format)).Msg("failed to parse input")
		return nil, fmt.Errorf("parsing %s: %w", displayName(path), err)
	}

	log.Debug().
		Str("format", string(format)).
		Int("bytes", len(data)).
		Int("records", len(records)).
		Msg("input loaded")

	return records, nil
}

func (l *Loader) read(path string) ([]byte, error) {
	if path == StdinPath {
		if l.Stdin == nil {
			return nil, errors.New("no stdin available")
		}
		data, err := io.ReadAll(l.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}

	data, err := afero.ReadFile(l.Fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading input file: %w", err)
	}
	return data, nil
}

func displayName(path string) string {
	if path == StdinPath {
		return "stdin"
	}
	return path
}

// Parse decodes data in the given format. Empty input yields no records.
func Parse(data []byte, format Format) ([]Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []Record{}, nil
	}

	switch format {
	case FormatJSON:
		return parseJSON(data)
	case FormatNDJSON:
		return parseNDJSON(data)
	case FormatYAML:
		return parseYAML(data)
	case FormatAuto:
		return Parse(data, sniffFormat(data))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func parseJSON(data []byte) ([]Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var records []Record
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("expected a JSON array of objects: %w", err)
	}
	if dec.More() {
		return nil, errors.New("unexpected data after the JSON array")
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

func parseNDJSON(data []byte) ([]Record, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	records := []Record{}
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}

		dec := json.NewDecoder(bytes.NewReader(text))
		dec.UseNumber()
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if rec == nil {
			return nil, fmt.Errorf("line %d: expected a JSON object, got null", line)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", line+1, err)
	}
	return records, nil
}

func parseYAML(data []byte) ([]Record, error) {
	var records []Record
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("expected a YAML sequence of mappings: %w", err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}
