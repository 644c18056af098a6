/*
Package metrics provides Prometheus metrics collection and exposition
for Foreman.

Metrics are plain package-level prometheus.Collector values, registered
with the default registry at init time (the teacher's MustRegister-at-
init pattern). Handler exposes them over HTTP for scraping; Timer times
an operation and observes the elapsed seconds into a histogram.

Collector polls a narrow Source interface (satisfied by
pkg/storage.BoltStore) on a ticker to refresh gauges that aren't
updated inline by the components that change them — execution counts
by status, paused node counts. The remaining metrics are updated
directly at the call site by two packages only: pkg/scheduler (running
tasks by kind, executions completed/failed/timed-out/lost, scheduling
latency) and pkg/reconciler (reconciliation duration and cycles).
Metrics not named here are registered but not updated by any package.

health.go carries the teacher's liveness/readiness HTTP handlers
unchanged in shape, with the critical-component set renamed to this
engine's own long-running subsystems (storage, enqueue, scheduler).
*/
package metrics
