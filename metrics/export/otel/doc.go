// Package otel bridges posauth metrics into an OpenTelemetry meter via
// observable instruments. Snapshots are pulled in the meter's collection
// callback, so the engine is never blocked by export latency.
package otel
