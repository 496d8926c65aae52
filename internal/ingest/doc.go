// Package ingest loads the records a bulk run operates on.
//
// Records are untyped JSON-like objects read from a JSON array, newline
// delimited JSON, or a YAML sequence. Files are read through an afero
// filesystem; the path "-" reads from the loader's stdin.
package ingest
