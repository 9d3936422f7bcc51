// Package trace is the logging subsystem of bindgen.
//
// Events describe the compilation pass: driver operations (load, compile,
// write), passes (emit, finalize) and individual declarations. They are
// written by a StreamTracer as text or NDJSON, or dropped by the Nop tracer.
//
// # Usage
//
//	bindgen generate --trace=- --trace-level=detail
//
// # Levels
//
//   - LevelOff: No tracing
//   - LevelError: Only failures
//   - LevelPhase: Driver and pass boundaries
//   - LevelDetail: Per-declaration events
//   - LevelDebug: Everything
//
// Tracers travel through context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "emit", 0)
//	defer span.End("")
package trace
