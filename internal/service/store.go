package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fieldwise/visits-service/internal/model"
)

// Store is the persistence capability set the engine needs. The gorm
// repository implements it against postgres; tests use an in-memory
// fake. Get methods report a missing row with gorm.ErrRecordNotFound.
type Store interface {
	GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error)
	GetWorker(ctx context.Context, id uuid.UUID) (*model.Worker, error)
	ListActiveWorkers(ctx context.Context) ([]model.Worker, error)

	GetVisit(ctx context.Context, id uuid.UUID) (*model.Visit, error)
	GetVisitDetail(ctx context.Context, id uuid.UUID) (*model.VisitDetail, error)

	// LastAssignedWorker returns the worker of the most recently dated
	// visit of the contract that has one, or nil when the contract's
	// history is entirely unassigned.
	LastAssignedWorker(ctx context.Context, contractID uuid.UUID) (*uuid.UUID, error)

	// CreateVisits inserts the batch in one transaction, all or nothing.
	CreateVisits(ctx context.Context, visits []model.Visit) error
	DeletePlannedVisits(ctx context.Context, contractID uuid.UUID) error
	UpdateVisit(ctx context.Context, visit *model.Visit) error
	SetVisitWorker(ctx context.Context, visitID, workerID uuid.UUID) error
	ClearWorkers(ctx context.Context, visitIDs []uuid.UUID) error

	// DayLoads sums the tax-inclusive contract price of every visit
	// already assigned on the given date, per worker, excluding the
	// visit being assigned and cancelled visits.
	DayLoads(ctx context.Context, date time.Time, excludeVisitID uuid.UUID) (map[uuid.UUID]float64, error)

	// CityAffinities counts per worker how many of their visits serve
	// clients in the given city. City matching is case-insensitive.
	CityAffinities(ctx context.Context, city string) (map[uuid.UUID]int, error)

	// ListUnassignedVisits returns planned visits without a worker in
	// ascending date order; a nil contractID spans all contracts.
	ListUnassignedVisits(ctx context.Context, contractID *uuid.UUID) ([]model.Visit, error)

	// ListPlannedForWorker returns the worker's planned visits dated on
	// or after from, bounded by to when it is non-nil (inclusive).
	ListPlannedForWorker(ctx context.Context, workerID uuid.UUID, from time.Time, to *time.Time) ([]model.Visit, error)

	// CancelClientVisits cancels every planned visit across the
	// client's contracts, clears their worker, records the reason and
	// stamps the owning contracts as ended, all in one transaction.
	CancelClientVisits(ctx context.Context, clientID uuid.UUID, reason string, endedAt time.Time) (int, error)
}

// QueryStore serves the read-only reporting side.
type QueryStore interface {
	ListVisits(ctx context.Context, filter VisitFilter) ([]model.VisitDetail, error)
	BillingPreview(ctx context.Context, filter BillingFilter) ([]model.VisitDetail, error)
	Search(ctx context.Context, term string, limit int) ([]model.VisitDetail, error)
}

// VisitFilter narrows the visit list; zero From/To means no date bound.
type VisitFilter struct {
	From       time.Time
	To         time.Time
	WorkerID   *uuid.UUID
	Status     *model.VisitStatus
	WeekNumber *int
}

// BillingFilter selects billable work either by date range or by client
// tag; when Tag is set the range is ignored.
type BillingFilter struct {
	From time.Time
	To   time.Time
	Tag  string
}
