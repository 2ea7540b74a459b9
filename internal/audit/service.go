package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/schoolwerk/auditlog/internal/checksum"
)

// Service is the audit engine: the only writer of the log plus its read
// surface. It is stateless; all shared state lives in the injected Store.
//
// Safe for concurrent use. Each Create produces an independent record with
// no update dependency on any other, so concurrent writers simply
// interleave in the timestamp-ordered history.
type Service struct {
	store Store
	clock Clock
}

// NewService creates a Service over the given store.
// A nil clock defaults to the system clock.
func NewService(store Store, clock Clock) *Service {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Service{store: store, clock: clock}
}

// Create validates and appends one audit record, returning the stored
// record including its server-assigned id.
//
// Validation happens before any store I/O: required fields must be
// non-empty and action/entity type must be members of their closed sets.
// Snapshots are deep-copied so later mutation by the caller cannot alter
// the logged state. The creation timestamp is captured exactly once and
// feeds both the record and its checksum.
//
// Store failures propagate unmodified; there is no retry here. Callers
// auditing a committed primary mutation should log the failure and carry
// on (see package doc).
func (s *Service) Create(ctx context.Context, p CreateParams) (Record, error) {
	if err := validate(p); err != nil {
		return Record{}, err
	}

	// Millisecond precision is the stored resolution; deriving the display
	// timestamp from the same value keeps the two in lockstep across the
	// store round trip.
	ms := s.clock.Now().UnixMilli()
	now := time.UnixMilli(ms)

	rec := Record{
		Action:      p.Action,
		EntityType:  p.EntityType,
		EntityID:    p.EntityID,
		UserID:      p.UserID,
		UserName:    p.UserName,
		UserRole:    p.UserRole,
		OldData:     p.OldData.Clone(),
		NewData:     p.NewData.Clone(),
		Reason:      p.Reason,
		SchoolID:    p.SchoolID,
		StudentID:   p.StudentID,
		IPAddress:   p.IPAddress,
		TimestampMS: ms,
		Timestamp:   now,
	}
	rec.Checksum = checksum.Compute(
		string(rec.Action), string(rec.EntityType), rec.EntityID, rec.UserID,
		rec.OldData, rec.NewData, rec.TimestampMS,
	)

	id, err := s.store.Insert(ctx, rec)
	if err != nil {
		return Record{}, fmt.Errorf("append audit record: %w", err)
	}
	rec.ID = id

	slog.Debug("audit record appended",
		"id", rec.ID,
		"action", rec.Action,
		"entity_type", rec.EntityType,
		"entity_id", rec.EntityID,
		"user_id", rec.UserID)

	return rec, nil
}

func validate(p CreateParams) error {
	switch {
	case p.Action == "":
		return newMissingFieldError("action")
	case p.EntityType == "":
		return newMissingFieldError("entityType")
	case p.EntityID == "":
		return newMissingFieldError("entityId")
	case p.UserID == "":
		return newMissingFieldError("userId")
	case p.UserName == "":
		return newMissingFieldError("userName")
	}

	if !p.Action.Valid() {
		return &ValidationError{
			Field:   "action",
			Value:   string(p.Action),
			Message: "must be CREATE, UPDATE, or DELETE",
		}
	}
	if !p.EntityType.Valid() {
		return &ValidationError{
			Field:   "entityType",
			Value:   string(p.EntityType),
			Message: "must be GRADE or ABSENCE",
		}
	}

	return nil
}
