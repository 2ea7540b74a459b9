package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/schoolwerk/auditlog/internal/audit"
	"github.com/schoolwerk/auditlog/internal/snapshot"
)

const recordColumns = `id, action, entity_type, entity_id, user_id, user_name, user_role,
	old_data, new_data, reason, school_id, student_id, ip_address,
	timestamp_ms, checksum`

// GetByID retrieves a single audit record.
// Returns audit.ErrNotFound if no record has the given id.
func (s *Store) GetByID(ctx context.Context, id string) (audit.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM audit_records
		WHERE id = ?
	`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return audit.Record{}, audit.ErrNotFound
	}
	if err != nil {
		return audit.Record{}, err
	}
	return rec, nil
}

// Find returns all records matching the filter.
//
// Every query is parameterized (values are never interpolated) and carries
// ORDER BY timestamp_ms DESC, id COLLATE BINARY DESC so results are
// deterministic even for same-millisecond records: ids are time-sortable, so
// the descending tiebreak keeps the later-created record first, consistent
// with the overall newest-first direction. LIMIT applies after ordering.
// No match yields an empty slice, never nil.
func (s *Store) Find(ctx context.Context, f audit.Filter) ([]audit.Record, error) {
	where, params := compileFilter(f)

	query := `SELECT ` + recordColumns + ` FROM audit_records` + where +
		` ORDER BY timestamp_ms DESC, id COLLATE BINARY DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		params = append(params, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	records := []audit.Record{}
	for rows.Next() {
		rec, err := scanRecordRows(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit records: %w", err)
	}

	return records, nil
}

// compileFilter builds the conjunctive WHERE clause for a filter.
// Zero-valued fields contribute no predicate.
func compileFilter(f audit.Filter) (string, []any) {
	var predicates []string
	var params []any

	add := func(expr string, val any) {
		predicates = append(predicates, expr)
		params = append(params, val)
	}

	if f.EntityType != "" {
		add("entity_type = ?", string(f.EntityType))
	}
	if f.EntityID != "" {
		add("entity_id = ?", f.EntityID)
	}
	if f.Action != "" {
		add("action = ?", string(f.Action))
	}
	if f.UserID != "" {
		add("user_id = ?", f.UserID)
	}
	if f.SchoolID != "" {
		add("school_id = ?", f.SchoolID)
	}
	if f.StudentID != "" {
		add("student_id = ?", f.StudentID)
	}
	if !f.Start.IsZero() {
		add("timestamp_ms >= ?", f.Start.UnixMilli())
	}
	if !f.End.IsZero() {
		add("timestamp_ms < ?", f.End.UnixMilli())
	}

	if len(predicates) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(predicates, " AND "), params
}

// scanTarget is satisfied by both *sql.Row and *sql.Rows.
type scanTarget interface {
	Scan(dest ...any) error
}

func scanRecord(row scanTarget) (audit.Record, error) {
	var rec audit.Record
	var action, entityType, oldJSON, newJSON string

	if err := row.Scan(
		&rec.ID, &action, &entityType, &rec.EntityID,
		&rec.UserID, &rec.UserName, &rec.UserRole,
		&oldJSON, &newJSON, &rec.Reason,
		&rec.SchoolID, &rec.StudentID, &rec.IPAddress,
		&rec.TimestampMS, &rec.Checksum,
	); err != nil {
		return audit.Record{}, err
	}

	rec.Action = audit.Action(action)
	rec.EntityType = audit.EntityType(entityType)
	rec.Timestamp = time.UnixMilli(rec.TimestampMS)

	var err error
	if rec.OldData, err = snapshot.ParseObject(oldJSON); err != nil {
		return audit.Record{}, fmt.Errorf("record %s old_data: %w", rec.ID, err)
	}
	if rec.NewData, err = snapshot.ParseObject(newJSON); err != nil {
		return audit.Record{}, fmt.Errorf("record %s new_data: %w", rec.ID, err)
	}

	return rec, nil
}

func scanRecordRows(rows *sql.Rows) (audit.Record, error) {
	rec, err := scanRecord(rows)
	if err != nil {
		return audit.Record{}, fmt.Errorf("scan audit record: %w", err)
	}
	return rec, nil
}
