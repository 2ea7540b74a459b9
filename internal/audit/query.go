package audit

import (
	"context"
	"fmt"
	"time"
)

// StudentQuery carries the optional filters for ByStudent.
type StudentQuery struct {
	EntityType EntityType
	Start      time.Time
	End        time.Time
	Limit      int
}

// SchoolQuery carries the optional filters for BySchool.
type SchoolQuery struct {
	EntityType EntityType
	Action     Action
	UserID     string
	Start      time.Time
	Limit      int
}

// UserQuery carries the optional filters for ByUser.
type UserQuery struct {
	EntityType EntityType
	Action     Action
	Limit      int
}

// RecentQuery carries the optional filters for Recent.
type RecentQuery struct {
	SchoolID   string
	EntityType EntityType
	Action     Action
}

// ByEntity returns every record for one entity, newest first.
func (s *Service) ByEntity(ctx context.Context, entityType EntityType, entityID string) ([]Record, error) {
	return s.find(ctx, Filter{
		EntityType: entityType,
		EntityID:   entityID,
	})
}

// ByStudent returns records correlated to one student, newest first.
func (s *Service) ByStudent(ctx context.Context, studentID string, q StudentQuery) ([]Record, error) {
	return s.find(ctx, Filter{
		StudentID:  studentID,
		EntityType: q.EntityType,
		Start:      q.Start,
		End:        q.End,
		Limit:      q.Limit,
	})
}

// BySchool returns records correlated to one school, newest first.
func (s *Service) BySchool(ctx context.Context, schoolID string, q SchoolQuery) ([]Record, error) {
	return s.find(ctx, Filter{
		SchoolID:   schoolID,
		EntityType: q.EntityType,
		Action:     q.Action,
		UserID:     q.UserID,
		Start:      q.Start,
		Limit:      q.Limit,
	})
}

// ByUser returns records of mutations performed by one actor, newest first.
func (s *Service) ByUser(ctx context.Context, userID string, q UserQuery) ([]Record, error) {
	return s.find(ctx, Filter{
		UserID:     userID,
		EntityType: q.EntityType,
		Action:     q.Action,
		Limit:      q.Limit,
	})
}

// Recent returns the most recent records across the log, optionally scoped.
func (s *Service) Recent(ctx context.Context, limit int, q RecentQuery) ([]Record, error) {
	return s.find(ctx, Filter{
		SchoolID:   q.SchoolID,
		EntityType: q.EntityType,
		Action:     q.Action,
		Limit:      limit,
	})
}

func (s *Service) find(ctx context.Context, f Filter) ([]Record, error) {
	records, err := s.store.Find(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	return records, nil
}
