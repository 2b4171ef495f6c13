// Package metrics provides observability hooks for link rewriting.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed at call sites. The serve command
// swaps in a PrometheusRecorder when server.metrics.enabled is set and exposes
// it with HTTPHandler.
package metrics
