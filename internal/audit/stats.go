package audit

import (
	"context"
	"fmt"
	"time"
)

// Statistics aggregates a school's audit activity over an optional date
// range. Each grouping independently sums to TotalLogs.
type Statistics struct {
	TotalLogs    int                `json:"totalLogs"`
	ByAction     map[Action]int     `json:"byAction"`
	ByEntityType map[EntityType]int `json:"byEntityType"`
	// ByUser keys are "userName (userId)" labels.
	ByUser map[string]int `json:"byUser"`
	// ByDate keys are UTC calendar dates (YYYY-MM-DD) of the stored
	// record timestamp.
	ByDate map[string]int `json:"byDate"`
}

// StatsRange optionally bounds Statistics: Start <= timestamp < End.
type StatsRange struct {
	Start time.Time
	End   time.Time
}

// Statistics computes grouped counts over one school's records.
//
// The date bucket derives once from each record's stored timestamp, never
// from wall-clock "now", so the same log always aggregates identically.
// An empty record set yields TotalLogs 0 and empty groupings.
func (s *Service) Statistics(ctx context.Context, schoolID string, r StatsRange) (Statistics, error) {
	records, err := s.store.Find(ctx, Filter{
		SchoolID: schoolID,
		Start:    r.Start,
		End:      r.End,
	})
	if err != nil {
		return Statistics{}, fmt.Errorf("load statistics for school %s: %w", schoolID, err)
	}

	stats := Statistics{
		TotalLogs:    len(records),
		ByAction:     make(map[Action]int),
		ByEntityType: make(map[EntityType]int),
		ByUser:       make(map[string]int),
		ByDate:       make(map[string]int),
	}

	for _, rec := range records {
		stats.ByAction[rec.Action]++
		stats.ByEntityType[rec.EntityType]++
		stats.ByUser[fmt.Sprintf("%s (%s)", rec.UserName, rec.UserID)]++
		stats.ByDate[rec.Timestamp.UTC().Format("2006-01-02")]++
	}

	return stats, nil
}
