// Package tracing is a thin wrapper around OpenTelemetry so that routing
// stages can open spans without importing the upstream packages directly.
// Applications that never call Init get no-op spans.
package tracing
