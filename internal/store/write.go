package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/schoolwerk/auditlog/internal/audit"
	"github.com/schoolwerk/auditlog/internal/snapshot"
)

// Insert appends one audit record and returns its server-assigned id.
//
// Ids are UUIDv7: time-sortable, so the descending-id tiebreak in Find keeps
// same-millisecond records newest first like the rest of the list. Snapshots
// are stored as canonical JSON text - the stored bytes are exactly the bytes
// the checksum was computed over.
//
// There is deliberately no update or delete counterpart: the log is
// append-only at the storage layer too.
func (s *Store) Insert(ctx context.Context, rec audit.Record) (string, error) {
	id := uuid.Must(uuid.NewV7()).String()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_records
		(id, action, entity_type, entity_id, user_id, user_name, user_role,
		 old_data, new_data, reason, school_id, student_id, ip_address,
		 timestamp_ms, checksum)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		string(rec.Action),
		string(rec.EntityType),
		rec.EntityID,
		rec.UserID,
		rec.UserName,
		rec.UserRole,
		marshalSnapshot(rec.OldData),
		marshalSnapshot(rec.NewData),
		rec.Reason,
		rec.SchoolID,
		rec.StudentID,
		rec.IPAddress,
		rec.TimestampMS,
		rec.Checksum,
	)
	if err != nil {
		return "", fmt.Errorf("write audit record: %w", err)
	}

	return id, nil
}

// marshalSnapshot converts a snapshot to canonical JSON TEXT for storage.
// A nil snapshot (absent side of a CREATE/DELETE) stores as the empty string.
func marshalSnapshot(obj snapshot.Object) string {
	if obj == nil {
		return ""
	}
	return snapshot.MarshalString(obj)
}
