package audit

import (
	"time"

	"github.com/schoolwerk/auditlog/internal/snapshot"
)

// Action identifies the kind of mutation a record describes.
// The set is closed; Create rejects anything else before touching the store.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// Valid reports whether the action is a member of the closed set.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// EntityType identifies the kind of entity that was mutated.
// Extensible in source, but closed at validation time.
type EntityType string

const (
	EntityGrade   EntityType = "GRADE"
	EntityAbsence EntityType = "ABSENCE"
)

// Valid reports whether the entity type is a member of the closed set.
func (t EntityType) Valid() bool {
	switch t {
	case EntityGrade, EntityAbsence:
		return true
	}
	return false
}

// Record is one immutable audit log entry.
//
// The actor fields (UserID, UserName, UserRole) are captured at event time,
// not resolved live, so the log stays readable after the account changes or
// disappears. SchoolID and StudentID are denormalized correlation keys that
// make scoped queries possible without joins.
type Record struct {
	ID         string          `json:"id"`
	Action     Action          `json:"action"`
	EntityType EntityType      `json:"entityType"`
	EntityID   string          `json:"entityId"`
	UserID     string          `json:"userId"`
	UserName   string          `json:"userName"`
	UserRole   string          `json:"userRole,omitempty"`
	OldData    snapshot.Object `json:"oldData,omitempty"` // nil for CREATE
	NewData    snapshot.Object `json:"newData,omitempty"` // nil for DELETE
	Reason     string          `json:"reason,omitempty"`
	SchoolID   string          `json:"schoolId,omitempty"`
	StudentID  string          `json:"studentId,omitempty"`
	IPAddress  string          `json:"ipAddress,omitempty"`

	// TimestampMS is the creation time in milliseconds since epoch. It is
	// captured exactly once and is an input to the checksum; Timestamp is
	// derived from it and exists for ordering and display.
	TimestampMS int64     `json:"timestampMs"`
	Timestamp   time.Time `json:"timestamp"`

	Checksum string `json:"checksum"`
}

// CreateParams carries the caller-supplied fields for one audit record.
// ID, timestamps, and checksum are assigned by the recorder.
type CreateParams struct {
	Action     Action
	EntityType EntityType
	EntityID   string
	UserID     string
	UserName   string
	UserRole   string
	OldData    snapshot.Object
	NewData    snapshot.Object
	Reason     string
	SchoolID   string
	StudentID  string
	IPAddress  string
}

// Clock supplies the wall-clock creation time for new records.
// Injected so tests can fix timestampMs and make checksums reproducible.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time {
	return time.Now()
}
