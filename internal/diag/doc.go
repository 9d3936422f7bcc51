// Package diag defines the diagnostic model shared by the loader, the type
// environment, the emitters and the driver.
//
// Diagnostic is the central record: Severity, Code (compact numeric id with a
// stable string form such as TYP2001), Message and the Primary span inside a
// declaration file. Phases report through a Reporter; BagReporter aggregates
// into a Bag which supports limits, sorting and deduplication.
//
// Emitters do not talk to a Reporter directly. They return *Error values which
// carry the same code plus the declaration and field or parameter they concern.
// The driver collects one such error per failing declaration and converts it
// with FromError, so the whole compilation pass reports every failure at once.
//
// Package diag does no formatting or IO; rendering lives in internal/diagfmt.
package diag
