/*
Package telemetry defines and registers the Prometheus metrics exposed
at /metrics alongside the control-plane HTTP surface: agent counts by
status, webhook and push outcomes, chain and supervisor call latency,
and worker-reported decision/trade counts.

Collector refreshes the status-count gauges on a ticker rather than
keeping them incrementally in sync, since a full table scan every 15s
is cheaper than threading an update through every status transition.
The other metrics are registered and exposed at /metrics, but no code
in this repository updates them, so they stay at zero.
*/
package telemetry
