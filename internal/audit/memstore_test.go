package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolwerk/auditlog/internal/snapshot"
)

func TestMemStoreInsertAssignsIDs(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	id1, err := store.Insert(ctx, Record{Action: ActionCreate, EntityType: EntityGrade, TimestampMS: 100})
	require.NoError(t, err)
	id2, err := store.Insert(ctx, Record{Action: ActionCreate, EntityType: EntityGrade, TimestampMS: 200})
	require.NoError(t, err)

	assert.NotEmpty(t, id1)
	assert.NotEqual(t, id1, id2)
}

func TestMemStoreGetByID(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	id, err := store.Insert(ctx, Record{Action: ActionCreate, EntityType: EntityGrade, EntityID: "g1", TimestampMS: 100})
	require.NoError(t, err)

	rec, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "g1", rec.EntityID)

	_, err = store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStoreInsertCopiesSnapshots(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	data := snapshot.Object{"grade": snapshot.Int(8)}
	id, err := store.Insert(ctx, Record{Action: ActionCreate, EntityType: EntityGrade, NewData: data, TimestampMS: 100})
	require.NoError(t, err)

	data["grade"] = snapshot.Int(1)

	rec, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, snapshot.Int(8), rec.NewData["grade"])
}

func TestMemStoreFindOrdersAndBreaksTies(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	// Two records share a timestamp; the later insertion is the newer record
	// and must come first in a newest-first list.
	firstTie, err := store.Insert(ctx, Record{EntityID: "a", TimestampMS: 200})
	require.NoError(t, err)
	secondTie, err := store.Insert(ctx, Record{EntityID: "b", TimestampMS: 200})
	require.NoError(t, err)
	newest, err := store.Insert(ctx, Record{EntityID: "c", TimestampMS: 300})
	require.NoError(t, err)
	_, err = store.Insert(ctx, Record{EntityID: "d", TimestampMS: 100})
	require.NoError(t, err)

	records, err := store.Find(ctx, Filter{})
	require.NoError(t, err)

	require.Len(t, records, 4)
	assert.Equal(t, newest, records[0].ID)
	assert.Equal(t, secondTie, records[1].ID)
	assert.Equal(t, firstTie, records[2].ID)
}

func TestMemStoreReadsDoNotAliasStoredState(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	id, err := store.Insert(ctx, Record{
		EntityID:    "g1",
		NewData:     snapshot.Object{"grade": snapshot.Int(8)},
		TimestampMS: 100,
	})
	require.NoError(t, err)

	got, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	got.NewData["grade"] = snapshot.Int(1)

	found, err := store.Find(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, found, 1)
	found[0].NewData["grade"] = snapshot.Int(2)

	again, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, snapshot.Int(8), again.NewData["grade"],
		"mutating a returned record must not reach the store")
}

func TestMemStoreFindLimitAfterOrdering(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	_, err := store.Insert(ctx, Record{EntityID: "old", TimestampMS: 100})
	require.NoError(t, err)
	newest, err := store.Insert(ctx, Record{EntityID: "new", TimestampMS: 200})
	require.NoError(t, err)

	records, err := store.Find(ctx, Filter{Limit: 1})
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, newest, records[0].ID, "limit must truncate the ordered set")
}

func TestMemStoreFindEmpty(t *testing.T) {
	store := NewMemStore()

	records, err := store.Find(context.Background(), Filter{EntityID: "nope"})
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestMemStoreTamperUnknownID(t *testing.T) {
	store := NewMemStore()
	assert.False(t, store.Tamper("missing", func(*Record) {}))
}
