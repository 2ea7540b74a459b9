package audit

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemStore is an in-memory Store for tests and ephemeral setups.
// It mirrors the persistent backends' observable semantics: server-assigned
// ids, newest-first ordering with a latest-insertion tiebreak, order before
// limit, empty-slice reads, and snapshot isolation on both writes and reads.
//
// Safe for concurrent use.
type MemStore struct {
	mu      sync.Mutex
	records []Record
	nextID  int
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Insert appends a record and assigns it a sequential id.
func (m *MemStore) Insert(_ context.Context, rec Record) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	rec.ID = fmt.Sprintf("mem-%04d", m.nextID)
	rec.OldData = rec.OldData.Clone()
	rec.NewData = rec.NewData.Clone()
	m.records = append(m.records, rec)
	return rec.ID, nil
}

// GetByID retrieves one record, or ErrNotFound.
func (m *MemStore) GetByID(_ context.Context, id string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range m.records {
		if rec.ID == id {
			return copyOut(rec), nil
		}
	}
	return Record{}, ErrNotFound
}

// Find returns matching records ordered by timestamp descending, the later
// insertion winning ties, limited after ordering.
func (m *MemStore) Find(_ context.Context, f Filter) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := []int{}
	for i, rec := range m.records {
		if matches(rec, f) {
			idx = append(idx, i)
		}
	}

	// Timestamp ties resolve to the later insertion, matching the
	// descending-id tiebreak of the persistent backends' time-sortable ids.
	sort.Slice(idx, func(a, b int) bool {
		ra, rb := m.records[idx[a]], m.records[idx[b]]
		if ra.TimestampMS != rb.TimestampMS {
			return ra.TimestampMS > rb.TimestampMS
		}
		return idx[a] > idx[b]
	})

	if f.Limit > 0 && len(idx) > f.Limit {
		idx = idx[:f.Limit]
	}

	matched := make([]Record, len(idx))
	for i, j := range idx {
		matched[i] = copyOut(m.records[j])
	}
	return matched, nil
}

// copyOut clones a record's snapshots so callers cannot mutate stored state
// through a returned Record.
func copyOut(rec Record) Record {
	rec.OldData = rec.OldData.Clone()
	rec.NewData = rec.NewData.Clone()
	return rec
}

// Tamper overwrites a stored record in place, bypassing the append-only
// surface. Test hook for exercising checksum verification failures.
func (m *MemStore) Tamper(id string, mutate func(*Record)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.records {
		if m.records[i].ID == id {
			mutate(&m.records[i])
			return true
		}
	}
	return false
}

func matches(rec Record, f Filter) bool {
	if f.EntityType != "" && rec.EntityType != f.EntityType {
		return false
	}
	if f.EntityID != "" && rec.EntityID != f.EntityID {
		return false
	}
	if f.Action != "" && rec.Action != f.Action {
		return false
	}
	if f.UserID != "" && rec.UserID != f.UserID {
		return false
	}
	if f.SchoolID != "" && rec.SchoolID != f.SchoolID {
		return false
	}
	if f.StudentID != "" && rec.StudentID != f.StudentID {
		return false
	}
	if !f.Start.IsZero() && rec.TimestampMS < f.Start.UnixMilli() {
		return false
	}
	if !f.End.IsZero() && rec.TimestampMS >= f.End.UnixMilli() {
		return false
	}
	return true
}
