// Package prometheus renders posauth metrics in Prometheus text exposition
// format, for hosts that already scrape a metrics endpoint.
//
// The exporter reads point-in-time snapshots from the engine; it never
// holds engine locks across a render and never mutates engine state.
package prometheus
