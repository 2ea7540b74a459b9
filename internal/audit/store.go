package audit

import (
	"context"
	"time"
)

// Store is the document-store surface the audit engine consumes.
//
// Implementations back the log with SQLite (internal/store), MongoDB
// (internal/mongostore), or memory (MemStore). The engine issues writes
// through Insert only; the append-only invariant means no update or delete
// primitive exists on this interface at all.
//
// Implementations must be safe for concurrent use. Whether a concurrent
// reader observes a just-inserted record is the backend's consistency
// guarantee, not this package's.
type Store interface {
	// Insert appends one record and returns its server-assigned id.
	Insert(ctx context.Context, rec Record) (string, error)

	// GetByID retrieves one record. Returns ErrNotFound if no record has
	// the given id.
	GetByID(ctx context.Context, id string) (Record, error)

	// Find returns all records matching the filter, newest first.
	// No match yields an empty slice, never nil and never an error.
	Find(ctx context.Context, f Filter) ([]Record, error)
}

// Filter constrains a Find call. Zero-valued fields are not applied; set
// fields combine conjunctively (AND).
//
// Ordering is always timestamp descending, later creations first within a
// millisecond, and is applied BEFORE Limit.
type Filter struct {
	EntityType EntityType
	EntityID   string
	Action     Action
	UserID     string
	SchoolID   string
	StudentID  string

	// Start and End bound the record timestamp: Start <= timestamp < End.
	// Zero times leave the respective side unbounded.
	Start time.Time
	End   time.Time

	// Limit caps the result count after ordering. Zero means unlimited.
	Limit int
}
