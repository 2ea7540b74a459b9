// Package audit implements the append-only mutation log for sensitive
// school records (grades, absences).
//
// Every CREATE/UPDATE/DELETE of an auditable entity is captured as one
// immutable Record carrying before/after snapshots, the acting user, and an
// integrity checksum. The package exposes exactly one write path (Create)
// and a read-only surface: per-record verification, entity history
// reconstruction with field-level diffs, scoped queries, and aggregate
// statistics. Records are never updated or deleted here.
//
// Auditing is best-effort relative to the primary mutation: callers invoke
// Create after committing their own change and are expected to log a Create
// failure without rolling back or failing the primary operation. The log can
// therefore have gaps; that trade-off is accepted, not hidden.
package audit
