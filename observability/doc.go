// Package observability wires OpenTelemetry tracing and metrics.
//
// Component initialises OTLP/HTTP exporters when enabled and shuts them down
// on stop. When disabled the global no-op providers stay in place, so
// instrumented code runs unchanged:
//
//	ctx, op := observability.StartOperation(ctx, "todoapi", "account.login", metrics)
//	defer func() { op.End(ctx, status, err) }()
package observability
