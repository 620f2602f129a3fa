package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldwise/visits-service/internal/model"
	"github.com/fieldwise/visits-service/internal/schedule"
)

// memStore is an in-memory Store used by the engine tests. It mirrors
// the repository's semantics, including gorm.ErrRecordNotFound on
// missing rows and insertion-order worker listing.
type memStore struct {
	contracts map[uuid.UUID]*model.Contract
	workers   []model.Worker
	visits    map[uuid.UUID]*model.Visit

	insertErr error // forced failure for CreateVisits
	seq       int
}

func newMemStore() *memStore {
	return &memStore{
		contracts: make(map[uuid.UUID]*model.Contract),
		visits:    make(map[uuid.UUID]*model.Visit),
	}
}

func (m *memStore) addContract(c model.Contract) *model.Contract {
	stored := c
	m.contracts[c.ID] = &stored
	return &stored
}

func (m *memStore) addWorker(w model.Worker) model.Worker {
	m.workers = append(m.workers, w)
	return w
}

func (m *memStore) addVisit(v model.Visit) *model.Visit {
	m.seq++
	stored := v
	stored.CreatedAt = time.Unix(int64(m.seq), 0)
	m.visits[v.ID] = &stored
	return &stored
}

func (m *memStore) GetContract(_ context.Context, id uuid.UUID) (*model.Contract, error) {
	contract, ok := m.contracts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *contract
	return &copied, nil
}

func (m *memStore) GetWorker(_ context.Context, id uuid.UUID) (*model.Worker, error) {
	for _, w := range m.workers {
		if w.ID == id {
			copied := w
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memStore) ListActiveWorkers(_ context.Context) ([]model.Worker, error) {
	var active []model.Worker
	for _, w := range m.workers {
		if w.Active {
			active = append(active, w)
		}
	}
	return active, nil
}

func (m *memStore) GetVisit(_ context.Context, id uuid.UUID) (*model.Visit, error) {
	visit, ok := m.visits[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *visit
	return &copied, nil
}

func (m *memStore) GetVisitDetail(_ context.Context, id uuid.UUID) (*model.VisitDetail, error) {
	visit, ok := m.visits[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	contract, ok := m.contracts[visit.ContractID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	detail := &model.VisitDetail{
		Visit:         *visit,
		ClientID:      contract.ClientID,
		ClientName:    contract.Client.Name,
		ClientAddress: contract.Client.Address,
		ClientCity:    contract.Client.City,
		ClientActive:  contract.Client.Active,
		PriceInc:      contract.PriceInc,
	}
	if visit.WorkerID != nil {
		for _, w := range m.workers {
			if w.ID == *visit.WorkerID {
				detail.WorkerName = w.Name
			}
		}
	}
	return detail, nil
}

func (m *memStore) LastAssignedWorker(_ context.Context, contractID uuid.UUID) (*uuid.UUID, error) {
	var latest *model.Visit
	for _, v := range m.visits {
		if v.ContractID != contractID || v.WorkerID == nil {
			continue
		}
		if latest == nil || v.Date.After(latest.Date) {
			latest = v
		}
	}
	if latest == nil {
		return nil, nil
	}
	id := *latest.WorkerID
	return &id, nil
}

func (m *memStore) CreateVisits(_ context.Context, visits []model.Visit) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	for _, v := range visits {
		m.addVisit(v)
	}
	return nil
}

func (m *memStore) DeletePlannedVisits(_ context.Context, contractID uuid.UUID) error {
	for id, v := range m.visits {
		if v.ContractID == contractID && v.Status == model.VisitStatusPlanned {
			delete(m.visits, id)
		}
	}
	return nil
}

func (m *memStore) UpdateVisit(_ context.Context, visit *model.Visit) error {
	stored, ok := m.visits[visit.ID]
	if !ok {
		return errors.New("update of unknown visit")
	}
	created := stored.CreatedAt
	updated := *visit
	updated.CreatedAt = created
	m.visits[visit.ID] = &updated
	return nil
}

func (m *memStore) SetVisitWorker(_ context.Context, visitID, workerID uuid.UUID) error {
	visit, ok := m.visits[visitID]
	if !ok {
		return errors.New("assignment of unknown visit")
	}
	id := workerID
	visit.WorkerID = &id
	return nil
}

func (m *memStore) ClearWorkers(_ context.Context, visitIDs []uuid.UUID) error {
	for _, id := range visitIDs {
		if visit, ok := m.visits[id]; ok {
			visit.WorkerID = nil
		}
	}
	return nil
}

func (m *memStore) DayLoads(_ context.Context, date time.Time, excludeVisitID uuid.UUID) (map[uuid.UUID]float64, error) {
	loads := make(map[uuid.UUID]float64)
	for _, v := range m.visits {
		if v.ID == excludeVisitID || v.WorkerID == nil || v.Status == model.VisitStatusCancelled {
			continue
		}
		if !schedule.SameDay(v.Date, date) {
			continue
		}
		if contract, ok := m.contracts[v.ContractID]; ok {
			loads[*v.WorkerID] += contract.PriceInc
		}
	}
	return loads, nil
}

func (m *memStore) CityAffinities(_ context.Context, city string) (map[uuid.UUID]int, error) {
	affinities := make(map[uuid.UUID]int)
	for _, v := range m.visits {
		if v.WorkerID == nil || v.Status == model.VisitStatusCancelled {
			continue
		}
		contract, ok := m.contracts[v.ContractID]
		if !ok {
			continue
		}
		if strings.EqualFold(contract.Client.City, city) {
			affinities[*v.WorkerID]++
		}
	}
	return affinities, nil
}

func (m *memStore) ListUnassignedVisits(_ context.Context, contractID *uuid.UUID) ([]model.Visit, error) {
	var visits []model.Visit
	for _, v := range m.visits {
		if v.WorkerID != nil || v.Status != model.VisitStatusPlanned {
			continue
		}
		if contractID != nil && v.ContractID != *contractID {
			continue
		}
		visits = append(visits, *v)
	}
	sortVisitsByDate(visits)
	return visits, nil
}

func (m *memStore) ListPlannedForWorker(_ context.Context, workerID uuid.UUID, from time.Time, to *time.Time) ([]model.Visit, error) {
	var visits []model.Visit
	for _, v := range m.visits {
		if v.WorkerID == nil || *v.WorkerID != workerID || v.Status != model.VisitStatusPlanned {
			continue
		}
		if v.Date.Before(from) {
			continue
		}
		if to != nil && v.Date.After(*to) {
			continue
		}
		visits = append(visits, *v)
	}
	sortVisitsByDate(visits)
	return visits, nil
}

func (m *memStore) CancelClientVisits(_ context.Context, clientID uuid.UUID, reason string, endedAt time.Time) (int, error) {
	cancelled := 0
	for _, contract := range m.contracts {
		if contract.ClientID != clientID {
			continue
		}
		for _, v := range m.visits {
			if v.ContractID != contract.ID || v.Status != model.VisitStatusPlanned {
				continue
			}
			v.Status = model.VisitStatusCancelled
			v.CancelReason = &reason
			v.WorkerID = nil
			cancelled++
		}
		ended := endedAt
		contract.Active = false
		contract.EndedAt = &ended
	}
	return cancelled, nil
}

func sortVisitsByDate(visits []model.Visit) {
	sort.Slice(visits, func(i, j int) bool {
		if visits[i].Date.Equal(visits[j].Date) {
			return visits[i].CreatedAt.Before(visits[j].CreatedAt)
		}
		return visits[i].Date.Before(visits[j].Date)
	})
}
