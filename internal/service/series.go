package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/fieldwise/visits-service/internal/model"
	"github.com/fieldwise/visits-service/internal/schedule"
)

// SeriesLength is the number of occurrences a rebuild materializes.
const SeriesLength = 12

// SeriesService owns creation and regeneration of a contract's visit
// series. Terminal visits are never touched by a rebuild.
type SeriesService struct {
	store  Store
	assign *AssignService
	log    zerolog.Logger
	now    func() time.Time
}

func NewSeriesService(store Store, assign *AssignService, log zerolog.Logger) *SeriesService {
	return &SeriesService{
		store:  store,
		assign: assign,
		log:    log,
		now:    time.Now,
	}
}

type RebuildInput struct {
	ContractID   uuid.UUID
	KeepExisting bool // leave current planned visits in place
	StartDate    *time.Time
}

// Rebuild regenerates the forward series for one contract and returns
// the number of visits created. A missing contract is a no-op, not an
// error. The new series carries the worker of the most recent assigned
// visit so a running route stays with the same member.
func (s *SeriesService) Rebuild(ctx context.Context, input RebuildInput) (int, error) {
	contract, err := s.store.GetContract(ctx, input.ContractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("load contract: %w", err)
	}

	carryWorker, err := s.store.LastAssignedWorker(ctx, contract.ID)
	if err != nil {
		return 0, fmt.Errorf("find carry-over worker: %w", err)
	}

	if !input.KeepExisting {
		if err := s.store.DeletePlannedVisits(ctx, contract.ID); err != nil {
			return 0, fmt.Errorf("delete planned visits: %w", err)
		}
	}

	base := s.baseDate(contract, input.StartDate)
	now := s.now()

	visits := make([]model.Visit, 0, SeriesLength)
	date := base
	for i := 0; i < SeriesLength; i++ {
		if i > 0 {
			prev := date
			date = schedule.NextOccurrence(&prev, contract.Frequency, now)
		}
		visits = append(visits, model.Visit{
			ID:         uuid.New(),
			ContractID: contract.ID,
			WorkerID:   carryWorker,
			Date:       date,
			WeekNumber: schedule.ISOWeek(date),
			Status:     model.VisitStatusPlanned,
		})
	}

	// Known gap: the deletion above is not rolled back when this insert
	// fails, leaving the contract without planned visits until retried.
	if err := s.store.CreateVisits(ctx, visits); err != nil {
		s.log.Error().Err(err).Str("contract_id", contract.ID.String()).Msg("series insert failed")
		return 0, fmt.Errorf("insert series: %w", err)
	}

	return len(visits), nil
}

func (s *SeriesService) baseDate(contract *model.Contract, start *time.Time) time.Time {
	switch {
	case start != nil && !start.IsZero():
		return schedule.DateOnly(*start)
	case contract.NextVisit != nil:
		return schedule.DateOnly(*contract.NextVisit)
	case contract.LastVisit != nil:
		return schedule.DateOnly(*contract.LastVisit)
	default:
		return schedule.DateOnly(s.now())
	}
}

type CreateVisitInput struct {
	ContractID uuid.UUID
	WorkerID   *uuid.UUID
	Date       time.Time
	Status     *model.VisitStatus
	Comment    *string
}

// CreateAdHoc inserts a single visit outside the regular series. An
// unassigned planned visit immediately goes through the assignment
// heuristic; an assignment warning leaves the visit unassigned rather
// than failing the creation.
func (s *SeriesService) CreateAdHoc(ctx context.Context, input CreateVisitInput) (*model.Visit, error) {
	if _, err := s.store.GetContract(ctx, input.ContractID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: contract", ErrNotFound)
		}
		return nil, fmt.Errorf("load contract: %w", err)
	}
	if input.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	status := model.VisitStatusPlanned
	if input.Status != nil {
		status = *input.Status
	}

	date := schedule.DateOnly(input.Date)
	visit := model.Visit{
		ID:         uuid.New(),
		ContractID: input.ContractID,
		WorkerID:   input.WorkerID,
		Date:       date,
		WeekNumber: schedule.ISOWeek(date),
		Status:     status,
		Comment:    input.Comment,
	}

	if err := s.store.CreateVisits(ctx, []model.Visit{visit}); err != nil {
		return nil, fmt.Errorf("insert visit: %w", err)
	}

	if visit.WorkerID == nil && status == model.VisitStatusPlanned {
		result, err := s.assign.AssignOne(ctx, visit.ID)
		switch {
		case err != nil:
			s.log.Error().Err(err).Str("visit_id", visit.ID.String()).Msg("ad-hoc assignment failed")
		case result.Assigned:
			visit.WorkerID = &result.WorkerID
		}
	}

	return &visit, nil
}
