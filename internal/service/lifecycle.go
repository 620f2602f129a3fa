package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/fieldwise/visits-service/internal/model"
	"github.com/fieldwise/visits-service/internal/schedule"
)

// ReleaseReason explains why a worker's planned visits are freed.
type ReleaseReason string

const (
	ReleaseSick     ReleaseReason = "sick"
	ReleaseVacation ReleaseReason = "vacation"
	ReleaseInactive ReleaseReason = "no-longer-active"
)

// LifecycleService moves visits through their states: releasing them
// from unavailable workers, partial updates, and client-wide stops.
type LifecycleService struct {
	store  Store
	assign *AssignService
	log    zerolog.Logger
	now    func() time.Time
}

func NewLifecycleService(store Store, assign *AssignService, log zerolog.Logger) *LifecycleService {
	return &LifecycleService{
		store:  store,
		assign: assign,
		log:    log,
		now:    time.Now,
	}
}

// ReleaseForWorker frees the worker's planned visits matching the
// reason's date window and returns their ids. Sick leave and vacation
// need a closed [from, to] range; a worker leaving the company frees
// everything from the given date onward. The released visits keep
// their status and date, only the worker reference is cleared.
func (s *LifecycleService) ReleaseForWorker(ctx context.Context, workerID uuid.UUID, reason ReleaseReason, from, to *time.Time) ([]uuid.UUID, error) {
	var rangeTo *time.Time
	switch ReleaseReason(strings.ToLower(strings.TrimSpace(string(reason)))) {
	case ReleaseSick, ReleaseVacation:
		if from == nil || to == nil {
			return nil, fmt.Errorf("%w: reason %q requires both from and to dates", ErrInvalidInput, reason)
		}
		t := schedule.DateOnly(*to)
		rangeTo = &t
	case ReleaseInactive:
		if from == nil {
			return nil, fmt.Errorf("%w: reason %q requires a from date", ErrInvalidInput, reason)
		}
	default:
		return nil, fmt.Errorf("%w: unknown release reason %q", ErrInvalidInput, reason)
	}

	visits, err := s.store.ListPlannedForWorker(ctx, workerID, schedule.DateOnly(*from), rangeTo)
	if err != nil {
		return nil, fmt.Errorf("list planned visits: %w", err)
	}
	if len(visits) == 0 {
		return []uuid.UUID{}, nil
	}

	ids := make([]uuid.UUID, len(visits))
	for i, v := range visits {
		ids[i] = v.ID
	}
	if err := s.store.ClearWorkers(ctx, ids); err != nil {
		return nil, fmt.Errorf("clear workers: %w", err)
	}

	s.log.Info().
		Str("worker_id", workerID.String()).
		Str("reason", string(reason)).
		Int("released", len(ids)).
		Msg("released visits from worker")
	return ids, nil
}

// ReassignReleased runs the assignment heuristic over every planned
// visit that has no worker, earliest first. Typically invoked on a
// fixed external schedule after releases.
func (s *LifecycleService) ReassignReleased(ctx context.Context) (*BatchResult, error) {
	visits, err := s.store.ListUnassignedVisits(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list unassigned visits: %w", err)
	}
	return s.assign.assignAll(ctx, visits), nil
}

// UpdateVisitInput carries a partial update; nil fields stay unchanged.
// Setting WorkerID to uuid.Nil clears the assignment. CancelReason is
// only applied when the visit ends up cancelled.
type UpdateVisitInput struct {
	Date         *time.Time
	WorkerID     *uuid.UUID
	Status       *model.VisitStatus
	Comment      *string
	Invoiced     *bool
	CancelReason *string
}

// UpdateVisit applies a partial update, recomputing the ISO week when
// the date moves.
func (s *LifecycleService) UpdateVisit(ctx context.Context, visitID uuid.UUID, input UpdateVisitInput) (*model.Visit, error) {
	visit, err := s.store.GetVisit(ctx, visitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: visit", ErrNotFound)
		}
		return nil, fmt.Errorf("load visit: %w", err)
	}

	if input.Date != nil {
		visit.Date = schedule.DateOnly(*input.Date)
		visit.WeekNumber = schedule.ISOWeek(visit.Date)
	}
	if input.WorkerID != nil {
		if *input.WorkerID == uuid.Nil {
			visit.WorkerID = nil
		} else {
			id := *input.WorkerID
			visit.WorkerID = &id
		}
	}
	if input.Status != nil {
		visit.Status = *input.Status
	}
	if input.Comment != nil {
		visit.Comment = input.Comment
	}
	if input.Invoiced != nil {
		visit.Invoiced = *input.Invoiced
	}
	if input.CancelReason != nil && visit.Status == model.VisitStatusCancelled {
		visit.CancelReason = input.CancelReason
	}

	if err := s.store.UpdateVisit(ctx, visit); err != nil {
		return nil, fmt.Errorf("update visit: %w", err)
	}
	return visit, nil
}

// CancelAllForClient cancels every planned visit across the client's
// contracts and marks those contracts as ended, in one transaction.
// Unknown reasons normalize to a client-initiated stop.
func (s *LifecycleService) CancelAllForClient(ctx context.Context, clientID uuid.UUID, reason string) (int, error) {
	normalized := model.NormalizeCancelReason(reason)
	count, err := s.store.CancelClientVisits(ctx, clientID, normalized, s.now())
	if err != nil {
		return 0, fmt.Errorf("cancel client visits: %w", err)
	}

	s.log.Info().
		Str("client_id", clientID.String()).
		Str("reason", normalized).
		Int("cancelled", count).
		Msg("cancelled all visits for client")
	return count, nil
}
