// Package tracing is a thin wrapper over OpenTelemetry used to instrument
// policy evaluation and approval transitions.  It is kept separate so that
// hosts which do not need tracing never touch the SDK; without Init spans
// are no-ops.
package tracing
