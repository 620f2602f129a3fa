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

// fakeQueryStore records the filter it was called with and returns a
// canned visit list.
type fakeQueryStore struct {
	visits     []model.VisitDetail
	lastFilter VisitFilter
}

func (f *fakeQueryStore) ListVisits(_ context.Context, filter VisitFilter) ([]model.VisitDetail, error) {
	f.lastFilter = filter
	return f.visits, nil
}

func (f *fakeQueryStore) BillingPreview(_ context.Context, _ BillingFilter) ([]model.VisitDetail, error) {
	return f.visits, nil
}

func (f *fakeQueryStore) Search(_ context.Context, _ string, limit int) ([]model.VisitDetail, error) {
	if len(f.visits) > limit {
		return f.visits[:limit], nil
	}
	return f.visits, nil
}

func detailFor(workerID *uuid.UUID, workerName string, date time.Time) model.VisitDetail {
	return model.VisitDetail{
		Visit: model.Visit{
			ID:       uuid.New(),
			WorkerID: workerID,
			Date:     date,
			Status:   model.VisitStatusPlanned,
		},
		WorkerName: workerName,
	}
}

func TestVisitsResolvesRangeLabel(t *testing.T) {
	store := &fakeQueryStore{}
	queries := NewQueryService(store)
	queries.now = func() time.Time { return day(2024, time.March, 13) }

	_, err := queries.Visits(context.Background(), VisitQuery{RangeLabel: "this-week"})

	require.NoError(t, err)
	assert.Equal(t, day(2024, time.March, 11), store.lastFilter.From)
	assert.Equal(t, day(2024, time.March, 15), store.lastFilter.To)
}

func TestSearchRejectsEmptyTerm(t *testing.T) {
	queries := NewQueryService(&fakeQueryStore{})

	_, err := queries.Search(context.Background(), "   ")

	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestScheduleReportGroupsByWorker(t *testing.T) {
	pieter := uuid.New()
	sanne := uuid.New()
	store := &fakeQueryStore{visits: []model.VisitDetail{
		detailFor(&pieter, "Pieter", day(2024, time.March, 11)),
		detailFor(&sanne, "Sanne", day(2024, time.March, 12)),
		detailFor(&pieter, "Pieter", day(2024, time.March, 14)),
		detailFor(nil, "", day(2024, time.March, 15)),
	}}
	queries := NewQueryService(store)
	queries.now = func() time.Time { return day(2024, time.March, 13) }

	report, err := queries.ScheduleReport(context.Background(), "this-week", nil)

	require.NoError(t, err)
	assert.Equal(t, 4, report.TotalVisits)
	require.Len(t, report.Groups, 3)

	assert.Equal(t, "Pieter", report.Groups[0].WorkerName)
	assert.Len(t, report.Groups[0].Visits, 2)
	assert.Equal(t, "Sanne", report.Groups[1].WorkerName)
	assert.Len(t, report.Groups[1].Visits, 1)

	// Unassigned work lands in its own trailing group.
	assert.Equal(t, "Unassigned", report.Groups[2].WorkerName)
	assert.Len(t, report.Groups[2].Visits, 1)
}
