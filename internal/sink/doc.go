// Package sink provides the per-record handlers the bulkrun CLI plugs into
// the bulk processor: an HTTP endpoint, an external command, or a simulator
// for dry runs. Each Sink is a bulk.Executor bound to one operation.
package sink
