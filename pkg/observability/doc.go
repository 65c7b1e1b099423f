/*
Package observability provides lifecycle hooks and collaborators for
monitoring the onboarding engine.

It includes Prometheus metrics for step transitions and backend calls,
structured logging hooks, and slog-backed implementations of the analytics,
diagnostics and session notifier ports for hosts without their own.
*/
package observability
