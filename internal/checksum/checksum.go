// Package checksum derives the integrity fingerprint embedded in every
// audit record.
//
// The fingerprint is a fast structural hash, NOT a cryptographic one: it
// detects accidental corruption and naive after-the-fact edits, but an
// adversary who can run the same function can forge a colliding record.
// The algorithm is frozen byte-for-byte because verification recomputes it
// against checksums already persisted in the log; changing it would flag
// every existing record as tampered.
package checksum

import (
	"strconv"
	"unicode/utf16"

	"github.com/schoolwerk/auditlog/internal/snapshot"
)

// Compute derives the checksum for an audit record from the fields that are
// covered by integrity verification. Absent snapshots (oldData on CREATE,
// newData on DELETE) are omitted from the hashed form entirely, so presence
// itself is covered.
//
// timestampMS must be the exact value stored on the record; Create captures
// it once and uses it for both.
func Compute(action, entityType, entityID, userID string, oldData, newData snapshot.Object, timestampMS int64) string {
	payload := snapshot.Object{
		"action":     snapshot.String(action),
		"entityType": snapshot.String(entityType),
		"entityId":   snapshot.String(entityID),
		"userId":     snapshot.String(userID),
		"timestamp":  snapshot.Int(timestampMS),
	}
	if oldData != nil {
		payload["oldData"] = oldData
	}
	if newData != nil {
		payload["newData"] = newData
	}

	return render(fold32(snapshot.MarshalString(payload)))
}

// fold32 folds a string into a 32-bit signed accumulator, one UTF-16 code
// unit at a time: h = (h*31 - h) + c, overflow truncating to the low 32
// bits with two's-complement semantics. Go's int32 arithmetic wraps, which
// is exactly the required behavior.
//
// The code units are UTF-16 because that is the character-code convention
// the stored checksums were produced under.
func fold32(s string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = (h*31 - h) + int32(c)
	}
	return h
}

// render formats the accumulator in base-36. Negative accumulators keep
// their sign, so checksums are 1-7 characters with an optional leading '-'.
func render(h int32) string {
	return strconv.FormatInt(int64(h), 36)
}
