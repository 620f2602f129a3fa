package model

import (
	"time"

	"github.com/google/uuid"
)

// WorkerSchedule groups the visits of one worker for a schedule export.
// A nil-ID group collects the visits that have no worker yet.
type WorkerSchedule struct {
	WorkerID   uuid.UUID
	WorkerName string
	Visits     []VisitDetail
}

// ScheduleReport is the input for the XLSX schedule export.
type ScheduleReport struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
	TotalVisits int
	Groups      []WorkerSchedule
}

// DaySheet is the input for the PDF day-sheet export: one worker, one day.
type DaySheet struct {
	Worker Worker
	Date   time.Time
	Visits []VisitDetail
}
