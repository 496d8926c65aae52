// Package report persists run summaries as JSON files, one per run, named
// after the run ID. Entries carry an expiry derived from the configured
// retention; CleanupExpired prunes them.
package report
