package store

import (
	"context"
	"regexp"
	"testing"

	"github.com/schoolwerk/auditlog/internal/snapshot"
)

func TestInsert_AssignsUUIDv7(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	id, err := s.Insert(ctx, createTestRecord("g1", 1000))
	if err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}

	uuidPattern := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-7[0-9a-f]{3}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	if !uuidPattern.MatchString(id) {
		t.Errorf("Insert() id = %q, want UUIDv7 format", id)
	}
}

func TestInsert_IDsAreUnique(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		id, err := s.Insert(ctx, createTestRecord("g1", 1000))
		if err != nil {
			t.Fatalf("Insert() %d failed: %v", i, err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestInsert_StoresCanonicalSnapshots(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec := createTestRecord("g1", 1000)
	// Construction order must not affect stored bytes.
	rec.NewData = snapshot.Object{"subject": snapshot.String("Math"), "grade": snapshot.Int(8)}

	id, err := s.Insert(ctx, rec)
	if err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}

	var stored string
	err = s.db.QueryRow("SELECT new_data FROM audit_records WHERE id = ?", id).Scan(&stored)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	want := `{"grade":8,"subject":"Math"}`
	if stored != want {
		t.Errorf("stored new_data = %q, want canonical %q", stored, want)
	}
}

func TestInsert_AbsentSnapshotStoresEmpty(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec := createTestRecord("g1", 1000)
	rec.OldData = nil

	id, err := s.Insert(ctx, rec)
	if err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}

	var stored string
	err = s.db.QueryRow("SELECT old_data FROM audit_records WHERE id = ?", id).Scan(&stored)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	if stored != "" {
		t.Errorf("absent old_data stored as %q, want empty string", stored)
	}
}
