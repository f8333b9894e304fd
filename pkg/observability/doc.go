/*
Package observability turns path manager lifecycle events into Prometheus metrics.

Metrics.Hooks returns domain.LifecycleHooks that count mode changes and
component moves and measure their duration. Chain combines them with other
hooks, such as a structured-logging audit trail.
*/
package observability
