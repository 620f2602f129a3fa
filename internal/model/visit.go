package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type VisitStatus string

const (
	VisitStatusPlanned   VisitStatus = "PLANNED"
	VisitStatusCompleted VisitStatus = "COMPLETED"
	VisitStatusCancelled VisitStatus = "CANCELLED"
)

// Terminal reports whether a visit in this status is closed for good.
// Terminal visits are never deleted or reassigned by a series rebuild.
func (s VisitStatus) Terminal() bool {
	return s == VisitStatusCompleted || s == VisitStatusCancelled
}

// ParseVisitStatus validates raw status input at the mutation boundary.
func ParseVisitStatus(raw string) (VisitStatus, error) {
	s := VisitStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case VisitStatusPlanned, VisitStatusCompleted, VisitStatusCancelled:
		return s, nil
	default:
		return "", fmt.Errorf("unknown visit status %q", raw)
	}
}

const (
	CancelReasonClient  = "stopped_by_client"
	CancelReasonCompany = "stopped_by_company"
)

// NormalizeCancelReason keeps the two fixed stop reasons; anything else
// is treated as a client-initiated stop.
func NormalizeCancelReason(raw string) string {
	if raw == CancelReasonCompany {
		return CancelReasonCompany
	}
	return CancelReasonClient
}

// Visit is one scheduled occurrence of a contract's service.
type Visit struct {
	ID           uuid.UUID
	ContractID   uuid.UUID
	WorkerID     *uuid.UUID
	Date         time.Time
	WeekNumber   int
	Status       VisitStatus
	Comment      *string
	CancelReason *string
	Invoiced     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// VisitDetail is a visit joined with the display fields the scheduling
// views and the assignment heuristic need.
type VisitDetail struct {
	Visit
	ClientID      uuid.UUID
	ClientName    string
	ClientAddress string
	ClientCity    string
	ClientActive  bool
	PriceInc      float64
	WorkerName    string
}
