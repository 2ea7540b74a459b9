package checksum

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/schoolwerk/auditlog/internal/snapshot"
)

func baseInputs() (string, string, string, string, snapshot.Object, snapshot.Object, int64) {
	oldData := snapshot.Object{"grade": snapshot.Int(6), "subject": snapshot.String("Math")}
	newData := snapshot.Object{"grade": snapshot.Int(8), "subject": snapshot.String("Math")}
	return "UPDATE", "GRADE", "g1", "t1", oldData, newData, int64(1756723200000)
}

func TestComputeDeterministic(t *testing.T) {
	action, entityType, entityID, userID, oldData, newData, ts := baseInputs()

	c1 := Compute(action, entityType, entityID, userID, oldData, newData, ts)
	c2 := Compute(action, entityType, entityID, userID, oldData, newData, ts)

	assert.Equal(t, c1, c2, "identical inputs must produce identical checksums")
	assert.NotEmpty(t, c1)
}

func TestComputeIndependentOfMapConstruction(t *testing.T) {
	action, entityType, entityID, userID, _, _, ts := baseInputs()

	a := snapshot.Object{"grade": snapshot.Int(8), "subject": snapshot.String("Math")}
	b := make(snapshot.Object)
	b["subject"] = snapshot.String("Math")
	b["grade"] = snapshot.Int(8)

	assert.Equal(t,
		Compute(action, entityType, entityID, userID, nil, a, ts),
		Compute(action, entityType, entityID, userID, nil, b, ts))
}

func TestComputeSensitivity(t *testing.T) {
	action, entityType, entityID, userID, oldData, newData, ts := baseInputs()
	base := Compute(action, entityType, entityID, userID, oldData, newData, ts)

	changedNew := newData.Clone()
	changedNew["grade"] = snapshot.Int(9)

	tests := []struct {
		name string
		got  string
	}{
		{"action", Compute("DELETE", entityType, entityID, userID, oldData, newData, ts)},
		{"entity type", Compute(action, "ABSENCE", entityID, userID, oldData, newData, ts)},
		{"entity id", Compute(action, entityType, "g2", userID, oldData, newData, ts)},
		{"user id", Compute(action, entityType, entityID, "t2", oldData, newData, ts)},
		{"new data", Compute(action, entityType, entityID, userID, oldData, changedNew, ts)},
		{"old data absent", Compute(action, entityType, entityID, userID, nil, newData, ts)},
		{"timestamp", Compute(action, entityType, entityID, userID, oldData, newData, ts+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, base, tt.got, "changing %s should change the checksum", tt.name)
		})
	}
}

func TestComputeDistinguishesAbsentFromEmpty(t *testing.T) {
	action, entityType, entityID, userID, _, newData, ts := baseInputs()

	absent := Compute(action, entityType, entityID, userID, nil, newData, ts)
	empty := Compute(action, entityType, entityID, userID, snapshot.Object{}, newData, ts)

	assert.NotEqual(t, absent, empty, "an absent snapshot and an empty one are different states")
}

func TestChecksumIsBase36(t *testing.T) {
	action, entityType, entityID, userID, oldData, newData, ts := baseInputs()

	c := Compute(action, entityType, entityID, userID, oldData, newData, ts)
	assert.Regexp(t, regexp.MustCompile(`^-?[0-9a-z]{1,7}$`), c)
}

func TestFold32Wraparound(t *testing.T) {
	// Long inputs overflow int32 many times over; the fold must stay in
	// 32-bit range rather than growing without bound.
	long := make([]byte, 4096)
	for i := range long {
		long[i] = byte('a' + i%26)
	}

	h := fold32(string(long))
	assert.Equal(t, h, fold32(string(long)))

	// Folding is stateful per position: a permutation changes the result.
	permuted := append([]byte{}, long...)
	permuted[0], permuted[1] = permuted[1], permuted[0]
	assert.NotEqual(t, h, fold32(string(permuted)))
}

func TestFold32EmptyString(t *testing.T) {
	assert.Zero(t, fold32(""))
	assert.Equal(t, "0", render(fold32("")))
}
