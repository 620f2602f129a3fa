package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldwise/visits-service/internal/model"
)

// seedContract adds a contract for a fresh client in the given city.
func seedContract(store *memStore, city string, price float64, clientActive bool) *model.Contract {
	client := model.Client{
		ID:     uuid.New(),
		Name:   "Client " + city,
		City:   city,
		Active: clientActive,
	}
	return store.addContract(model.Contract{
		ID:        uuid.New(),
		ClientID:  client.ID,
		Frequency: model.FreqMonthly,
		PriceInc:  price,
		Active:    true,
		Client:    client,
	})
}

func seedVisit(store *memStore, contract *model.Contract, date time.Time, worker *uuid.UUID) *model.Visit {
	return store.addVisit(model.Visit{
		ID:         uuid.New(),
		ContractID: contract.ID,
		WorkerID:   worker,
		Date:       date,
		Status:     model.VisitStatusPlanned,
	})
}

func TestAssignOneInactiveClient(t *testing.T) {
	store := newMemStore()
	contract := seedContract(store, "Utrecht", 100, false)
	visit := seedVisit(store, contract, day(2024, time.May, 6), nil)
	store.addWorker(model.Worker{ID: uuid.New(), Name: "Pieter", Active: true})

	_, assign, _ := newTestServices(store)
	result, err := assign.AssignOne(context.Background(), visit.ID)

	require.NoError(t, err)
	assert.False(t, result.Assigned)
	assert.NotEmpty(t, result.Warning)
	assert.Nil(t, store.visits[visit.ID].WorkerID, "inactive clients are never staffed")
}

func TestAssignOneNoActiveWorkers(t *testing.T) {
	store := newMemStore()
	contract := seedContract(store, "Utrecht", 100, true)
	visit := seedVisit(store, contract, day(2024, time.May, 6), nil)
	store.addWorker(model.Worker{ID: uuid.New(), Name: "Pieter", Active: false})

	_, assign, _ := newTestServices(store)
	result, err := assign.AssignOne(context.Background(), visit.ID)

	require.NoError(t, err)
	assert.False(t, result.Assigned)
	assert.NotEmpty(t, result.Warning)
}

func TestAssignOneUnknownVisit(t *testing.T) {
	store := newMemStore()
	_, assign, _ := newTestServices(store)

	_, err := assign.AssignOne(context.Background(), uuid.New())

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAssignOnePrefersLowerDayLoad(t *testing.T) {
	store := newMemStore()
	date := day(2024, time.May, 6)

	busy := store.addWorker(model.Worker{ID: uuid.New(), Name: "Busy", Active: true})
	calm := store.addWorker(model.Worker{ID: uuid.New(), Name: "Calm", Active: true})

	// Existing load: 600 for busy, 300 for calm, no shared city.
	seedVisit(store, seedContract(store, "Almere", 600, true), date, &busy.ID)
	seedVisit(store, seedContract(store, "Breda", 300, true), date, &calm.ID)

	contract := seedContract(store, "Utrecht", 100, true)
	visit := seedVisit(store, contract, date, nil)

	_, assign, _ := newTestServices(store)
	result, err := assign.AssignOne(context.Background(), visit.ID)

	require.NoError(t, err)
	require.True(t, result.Assigned)
	assert.Equal(t, calm.ID, result.WorkerID)
	assert.Equal(t, 300.0, result.DayLoad)
	assert.Equal(t, 0, result.Affinity)
}

// When everyone is over the 500 cap the filter yields no candidates and
// the whole pool is compared directly; the affinity bonus decides.
func TestAssignOneOverCapFallsBackToAffinity(t *testing.T) {
	store := newMemStore()
	date := day(2024, time.May, 6)

	stranger := store.addWorker(model.Worker{ID: uuid.New(), Name: "Stranger", Active: true})
	regular := store.addWorker(model.Worker{ID: uuid.New(), Name: "Regular", Active: true})

	seedVisit(store, seedContract(store, "Almere", 600, true), date, &stranger.ID)
	seedVisit(store, seedContract(store, "Breda", 600, true), date, &regular.ID)

	// Two historical visits in Utrecht for the regular.
	utrechtHistory := seedContract(store, "Utrecht", 80, true)
	seedVisit(store, utrechtHistory, day(2024, time.March, 4), &regular.ID)
	seedVisit(store, utrechtHistory, day(2024, time.April, 1), &regular.ID)

	visit := seedVisit(store, seedContract(store, "utrecht", 100, true), date, nil)

	_, assign, _ := newTestServices(store)
	result, err := assign.AssignOne(context.Background(), visit.ID)

	require.NoError(t, err)
	require.True(t, result.Assigned)
	assert.Equal(t, regular.ID, result.WorkerID)
	assert.Equal(t, 600.0, result.DayLoad)
	assert.Equal(t, 2, result.Affinity, "city match is case-insensitive")
}

func TestAssignOneTieBreakKeepsWorkerOrder(t *testing.T) {
	store := newMemStore()
	first := store.addWorker(model.Worker{ID: uuid.New(), Name: "First", Active: true})
	store.addWorker(model.Worker{ID: uuid.New(), Name: "Second", Active: true})

	visit := seedVisit(store, seedContract(store, "Utrecht", 100, true), day(2024, time.May, 6), nil)

	_, assign, _ := newTestServices(store)
	result, err := assign.AssignOne(context.Background(), visit.ID)

	require.NoError(t, err)
	require.True(t, result.Assigned)
	assert.Equal(t, first.ID, result.WorkerID)
}

// Sequential batch processing: the first assignment raises that
// worker's day load, so the second visit of the day goes elsewhere.
func TestAssignBatchAccumulatesDayLoad(t *testing.T) {
	store := newMemStore()
	date := day(2024, time.May, 6)

	first := store.addWorker(model.Worker{ID: uuid.New(), Name: "First", Active: true})
	second := store.addWorker(model.Worker{ID: uuid.New(), Name: "Second", Active: true})

	contract := seedContract(store, "Utrecht", 300, true)
	visitA := seedVisit(store, contract, date, nil)
	other := seedContract(store, "Breda", 300, true)
	visitB := seedVisit(store, other, date, nil)

	_, assign, _ := newTestServices(store)
	result, err := assign.AssignBatch(context.Background(), contract.ID)
	require.NoError(t, err)
	assert.Equal(t, &BatchResult{Assigned: 1}, result)

	result, err = assign.AssignBatch(context.Background(), other.ID)
	require.NoError(t, err)
	assert.Equal(t, &BatchResult{Assigned: 1}, result)

	require.NotNil(t, store.visits[visitA.ID].WorkerID)
	require.NotNil(t, store.visits[visitB.ID].WorkerID)
	assert.Equal(t, first.ID, *store.visits[visitA.ID].WorkerID)
	assert.Equal(t, second.ID, *store.visits[visitB.ID].WorkerID)
}

func TestAssignBatchReportsSkips(t *testing.T) {
	store := newMemStore()
	contract := seedContract(store, "Utrecht", 100, false)
	seedVisit(store, contract, day(2024, time.May, 6), nil)
	seedVisit(store, contract, day(2024, time.June, 3), nil)
	store.addWorker(model.Worker{ID: uuid.New(), Name: "Pieter", Active: true})

	_, assign, _ := newTestServices(store)
	result, err := assign.AssignBatch(context.Background(), contract.ID)

	require.NoError(t, err)
	assert.Equal(t, &BatchResult{Skipped: 2}, result)
}
