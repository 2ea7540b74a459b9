package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/schoolwerk/auditlog/internal/checksum"
)

// VerifyResult is the outcome of an integrity check on one record.
//
// A mismatch is NOT an error: Valid false with both checksums populated is
// the designed tamper/corruption signal. A missing record is likewise a
// reportable outcome, distinguishable via Missing.
type VerifyResult struct {
	RecordID           string `json:"recordId"`
	Valid              bool   `json:"valid"`
	Missing            bool   `json:"missing,omitempty"`
	StoredChecksum     string `json:"storedChecksum,omitempty"`
	CalculatedChecksum string `json:"calculatedChecksum,omitempty"`
}

// Verify recomputes the checksum from the stored record's own fields and
// compares it byte-for-byte to the stored checksum.
//
// Only store failures return a non-nil error; mismatch and not-found are
// normal results.
func (s *Service) Verify(ctx context.Context, id string) (VerifyResult, error) {
	rec, err := s.store.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return VerifyResult{RecordID: id, Missing: true}, nil
	}
	if err != nil {
		return VerifyResult{}, fmt.Errorf("load audit record %s: %w", id, err)
	}

	calculated := checksum.Compute(
		string(rec.Action), string(rec.EntityType), rec.EntityID, rec.UserID,
		rec.OldData, rec.NewData, rec.TimestampMS,
	)

	return VerifyResult{
		RecordID:           rec.ID,
		Valid:              calculated == rec.Checksum,
		StoredChecksum:     rec.Checksum,
		CalculatedChecksum: calculated,
	}, nil
}
