// Package pagination provides limit/offset paging and field sorting for CLI
// commands that list items, such as saved run reports.
package pagination
