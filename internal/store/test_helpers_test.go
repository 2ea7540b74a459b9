package store

import (
	"path/filepath"
	"testing"

	"github.com/schoolwerk/auditlog/internal/audit"
	"github.com/schoolwerk/auditlog/internal/snapshot"
)

// createTestStore creates a temp-file store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRecord creates an audit record with minimal required fields.
func createTestRecord(entityID string, timestampMS int64) audit.Record {
	return audit.Record{
		Action:      audit.ActionCreate,
		EntityType:  audit.EntityGrade,
		EntityID:    entityID,
		UserID:      "t1",
		UserName:    "A. Jansen",
		UserRole:    "teacher",
		NewData:     snapshot.Object{"grade": snapshot.Int(8)},
		SchoolID:    "sch1",
		StudentID:   "s1",
		TimestampMS: timestampMS,
		Checksum:    "abc123",
	}
}
