package ingest_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/bulkrun/internal/ingest"
)

func newLoader(t *testing.T, files map[string]string, stdin string) *ingest.Loader {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o600))
	}
	return &ingest.Loader{Fs: fs, Stdin: strings.NewReader(stdin)}
}

// TestLoad_Formats verifies each supported encoding is detected and decoded.
func TestLoad_Formats(t *testing.T) {
	files := map[string]string{
		"/in/users.json":   `[{"id": 1, "name": "ada"}, {"id": 2, "name": "grace"}]`,
		"/in/users.ndjson": "{\"id\": 1, \"name\": \"ada\"}\n\n{\"id\": 2, \"name\": \"grace\"}\n",
		"/in/users.jsonl":  "{\"id\": 1, \"name\": \"ada\"}\n{\"id\": 2, \"name\": \"grace\"}",
		"/in/users.yaml":   "- id: 1\n  name: ada\n- id: 2\n  name: grace\n",
		"/in/users.txt":    "- id: 1\n  name: ada\n- id: 2\n  name: grace\n",
	}
	loader := newLoader(t, files, "")

	for path := range files {
		t.Run(path, func(t *testing.T) {
			records, err := loader.Load(context.Background(), path, ingest.FormatAuto)
			require.NoError(t, err)
			require.Len(t, records, 2)
			assert.Equal(t, "1", records[0].ID())
			assert.Equal(t, "grace", records[1]["name"])
		})
	}
}

func TestLoad_Stdin(t *testing.T) {
	loader := newLoader(t, nil, "{\"id\": \"a\"}\n{\"id\": \"b\"}\n")

	records, err := loader.Load(context.Background(), ingest.StdinPath, ingest.FormatAuto)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "b", records[1].ID())
}

func TestLoad_ExplicitFormatOverridesExtension(t *testing.T) {
	loader := newLoader(t, map[string]string{"/in/data.json": "- id: x\n"}, "")

	_, err := loader.Load(context.Background(), "/in/data.json", ingest.FormatAuto)
	require.Error(t, err)

	records, err := loader.Load(context.Background(), "/in/data.json", ingest.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "x", records[0].ID())
}

func TestLoad_MissingFile(t *testing.T) {
	loader := newLoader(t, nil, "")

	_, err := loader.Load(context.Background(), "/in/missing.json", ingest.FormatAuto)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading input file")
}

func TestParse_Empty(t *testing.T) {
	for _, format := range []ingest.Format{ingest.FormatJSON, ingest.FormatNDJSON, ingest.FormatYAML, ingest.FormatAuto} {
		records, err := ingest.Parse([]byte("  \n"), format)
		require.NoError(t, err)
		assert.Empty(t, records)
	}

	records, err := ingest.Parse([]byte("[]"), ingest.FormatJSON)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestParse_NDJSONReportsLineNumber(t *testing.T) {
	data := "{\"id\": 1}\n\n{\"id\": 2\n{\"id\": 3}\n"

	_, err := ingest.Parse([]byte(data), ingest.FormatNDJSON)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestParse_NDJSONRejectsNull(t *testing.T) {
	_, err := ingest.Parse([]byte("{\"id\": 1}\nnull\n"), ingest.FormatNDJSON)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestParse_JSONErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "object instead of array", data: `{"id": 1}`},
		{name: "array of scalars", data: `[1, 2]`},
		{name: "trailing data", data: `[{"id": 1}] [{"id": 2}]`},
		{name: "truncated", data: `[{"id": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ingest.Parse([]byte(tt.data), ingest.FormatJSON)
			assert.Error(t, err)
		})
	}
}

func TestParse_JSONKeepsNumberPrecision(t *testing.T) {
	records, err := ingest.Parse([]byte(`[{"id": 9007199254740993}]`), ingest.FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, "9007199254740993", records[0].ID())
	out, err := json.Marshal(records[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": 9007199254740993}`, string(out))
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    ingest.Format
		wantErr bool
	}{
		{in: "", want: ingest.FormatAuto},
		{in: "auto", want: ingest.FormatAuto},
		{in: "JSON", want: ingest.FormatJSON},
		{in: "jsonl", want: ingest.FormatNDJSON},
		{in: " yml ", want: ingest.FormatYAML},
		{in: "csv", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ingest.ParseFormat(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ingest.ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecordID(t *testing.T) {
	assert.Empty(t, ingest.Record{}.ID())
	assert.Empty(t, ingest.Record{"id": nil}.ID())
	assert.Equal(t, "abc", ingest.Record{"id": "abc"}.ID())
	assert.Equal(t, "42", ingest.Record{"id": 42}.ID())
}
