package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fieldwise/visits-service/internal/model"
	"github.com/fieldwise/visits-service/internal/schedule"
)

// searchLimit caps free-text search results.
const searchLimit = 50

// QueryService answers the read side: filtered schedules, billing
// previews and free-text search over planned work.
type QueryService struct {
	queries QueryStore
	now     func() time.Time
}

func NewQueryService(queries QueryStore) *QueryService {
	return &QueryService{queries: queries, now: time.Now}
}

// VisitQuery combines a calendar range label with the optional worker,
// status and week filters. An empty or unknown label resolves to the
// current week.
type VisitQuery struct {
	RangeLabel string
	Date       *time.Time
	WorkerID   *uuid.UUID
	Status     *model.VisitStatus
	WeekNumber *int
}

func (s *QueryService) Visits(ctx context.Context, query VisitQuery) ([]model.VisitDetail, error) {
	from, to := schedule.ResolveRange(query.RangeLabel, query.Date, s.now())
	return s.queries.ListVisits(ctx, VisitFilter{
		From:       from,
		To:         to,
		WorkerID:   query.WorkerID,
		Status:     query.Status,
		WeekNumber: query.WeekNumber,
	})
}

// BillingPreview lists the not-yet-invoiced planned work either inside
// a calendar range or for one client tag.
func (s *QueryService) BillingPreview(ctx context.Context, rangeLabel string, date *time.Time, tag string) ([]model.VisitDetail, error) {
	tag = strings.TrimSpace(tag)
	if tag != "" {
		return s.queries.BillingPreview(ctx, BillingFilter{Tag: tag})
	}
	from, to := schedule.ResolveRange(rangeLabel, date, s.now())
	return s.queries.BillingPreview(ctx, BillingFilter{From: from, To: to})
}

// Search matches client name, address, city or the visit date string
// over active, uninvoiced planned visits, most recent first.
func (s *QueryService) Search(ctx context.Context, term string) ([]model.VisitDetail, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("%w: search term is required", ErrInvalidInput)
	}
	return s.queries.Search(ctx, term, searchLimit)
}

// ScheduleReport groups the visits of a calendar range per worker for
// the XLSX export. Visits without a worker come last under their own
// group so nothing silently drops off the schedule.
func (s *QueryService) ScheduleReport(ctx context.Context, rangeLabel string, date *time.Time) (*model.ScheduleReport, error) {
	from, to := schedule.ResolveRange(rangeLabel, date, s.now())
	visits, err := s.queries.ListVisits(ctx, VisitFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}

	groups := make([]model.WorkerSchedule, 0)
	index := make(map[uuid.UUID]int)
	var unassigned []model.VisitDetail

	for _, v := range visits {
		if v.WorkerID == nil {
			unassigned = append(unassigned, v)
			continue
		}
		pos, ok := index[*v.WorkerID]
		if !ok {
			groups = append(groups, model.WorkerSchedule{
				WorkerID:   *v.WorkerID,
				WorkerName: v.WorkerName,
			})
			pos = len(groups) - 1
			index[*v.WorkerID] = pos
		}
		groups[pos].Visits = append(groups[pos].Visits, v)
	}
	if len(unassigned) > 0 {
		groups = append(groups, model.WorkerSchedule{
			WorkerName: "Unassigned",
			Visits:     unassigned,
		})
	}

	return &model.ScheduleReport{
		PeriodStart: from,
		PeriodEnd:   to,
		TotalVisits: len(visits),
		Groups:      groups,
	}, nil
}
