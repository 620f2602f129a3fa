package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/fieldwise/visits-service/internal/model"
)

// Pinned heuristic constants. Tests and the planning UI rely on the
// literal values; changing them is a product decision.
const (
	// dayLoadCap is the soft daily workload ceiling per worker, in
	// tax-inclusive currency units.
	dayLoadCap = 500.0
	// affinityWeight is the score bonus per historical visit in the
	// same city as the candidate visit.
	affinityWeight = 50.0
)

// AssignService picks a worker for a visit by balancing that day's
// workload against regional clustering.
type AssignService struct {
	store Store
	log   zerolog.Logger
}

func NewAssignService(store Store, log zerolog.Logger) *AssignService {
	return &AssignService{store: store, log: log}
}

// AssignmentResult reports the outcome of one assignment attempt. When
// no assignment could be made, Warning explains why and the visit is
// left untouched.
type AssignmentResult struct {
	VisitID    uuid.UUID `json:"visit_id"`
	Assigned   bool      `json:"assigned"`
	Warning    string    `json:"warning,omitempty"`
	WorkerID   uuid.UUID `json:"worker_id,omitempty"`
	WorkerName string    `json:"worker_name,omitempty"`
	DayLoad    float64   `json:"day_load"`
	Affinity   int       `json:"affinity"`
}

type candidate struct {
	worker   model.Worker
	dayLoad  float64
	affinity int
	score    float64
}

// AssignOne selects and persists a worker for the visit. Inactive
// clients are never staffed and an empty worker pool is not an error;
// both come back as warnings.
func (s *AssignService) AssignOne(ctx context.Context, visitID uuid.UUID) (*AssignmentResult, error) {
	detail, err := s.store.GetVisitDetail(ctx, visitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: visit", ErrNotFound)
		}
		return nil, fmt.Errorf("load visit: %w", err)
	}

	if !detail.ClientActive {
		return &AssignmentResult{VisitID: visitID, Warning: "client is not active"}, nil
	}

	workers, err := s.store.ListActiveWorkers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load workers: %w", err)
	}
	if len(workers) == 0 {
		return &AssignmentResult{VisitID: visitID, Warning: "no active workers available"}, nil
	}

	loads, err := s.store.DayLoads(ctx, detail.Date, visitID)
	if err != nil {
		return nil, fmt.Errorf("day loads: %w", err)
	}
	affinities, err := s.store.CityAffinities(ctx, detail.ClientCity)
	if err != nil {
		return nil, fmt.Errorf("city affinities: %w", err)
	}

	candidates := make([]candidate, 0, len(workers))
	for _, w := range workers {
		load := loads[w.ID]
		affinity := affinities[w.ID]
		candidates = append(candidates, candidate{
			worker:   w,
			dayLoad:  load,
			affinity: affinity,
			score:    load - float64(affinity)*affinityWeight,
		})
	}

	// The cap is a preference, not a hard block: when every worker is
	// already over it the best-scoring one still gets the visit.
	best := pickBest(candidates, true)
	if best == nil {
		best = pickBest(candidates, false)
	}

	if err := s.store.SetVisitWorker(ctx, visitID, best.worker.ID); err != nil {
		return nil, fmt.Errorf("persist assignment: %w", err)
	}

	return &AssignmentResult{
		VisitID:    visitID,
		Assigned:   true,
		WorkerID:   best.worker.ID,
		WorkerName: best.worker.Name,
		DayLoad:    best.dayLoad,
		Affinity:   best.affinity,
	}, nil
}

// pickBest returns the lowest-scoring candidate, keeping the first on a
// tie so selection stays deterministic in worker load order.
func pickBest(candidates []candidate, underCapOnly bool) *candidate {
	var best *candidate
	for i := range candidates {
		c := &candidates[i]
		if underCapOnly && c.dayLoad >= dayLoadCap {
			continue
		}
		if best == nil || c.score < best.score {
			best = c
		}
	}
	return best
}

// BatchResult reports how a best-effort batch went. Failed counts hard
// errors, Skipped counts non-fatal warnings; a batch with failures is
// never reported as fully successful.
type BatchResult struct {
	Assigned int `json:"assigned"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// AssignBatch assigns every unassigned visit of the contract, earliest
// date first so day loads accumulate correctly within the batch. A
// failing visit is logged and skipped.
func (s *AssignService) AssignBatch(ctx context.Context, contractID uuid.UUID) (*BatchResult, error) {
	visits, err := s.store.ListUnassignedVisits(ctx, &contractID)
	if err != nil {
		return nil, fmt.Errorf("list unassigned visits: %w", err)
	}
	return s.assignAll(ctx, visits), nil
}

func (s *AssignService) assignAll(ctx context.Context, visits []model.Visit) *BatchResult {
	result := &BatchResult{}
	for _, visit := range visits {
		outcome, err := s.AssignOne(ctx, visit.ID)
		if err != nil {
			result.Failed++
			s.log.Error().Err(err).Str("visit_id", visit.ID.String()).Msg("batch assignment failed")
			continue
		}
		if !outcome.Assigned {
			result.Skipped++
			s.log.Warn().Str("visit_id", visit.ID.String()).Str("reason", outcome.Warning).Msg("visit not assigned")
			continue
		}
		result.Assigned++
	}
	return result
}
