package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Frequency is the recurrence cadence of a service contract.
type Frequency string

const (
	FreqThreeWeeks   Frequency = "3-weeks"
	FreqFourWeeks    Frequency = "4-weeks"
	FreqSixWeeks     Frequency = "6-weeks"
	FreqEightWeeks   Frequency = "8-weeks"
	FreqTwelveWeeks  Frequency = "12-weeks"
	FreqMonthly      Frequency = "monthly"
	FreqThriceYearly Frequency = "3x-yearly"
	FreqYearly       Frequency = "yearly"
)

// ParseFrequency maps raw input onto the fixed frequency set.
// Anything unrecognized defaults to monthly.
func ParseFrequency(raw string) Frequency {
	f := Frequency(strings.ToLower(strings.TrimSpace(raw)))
	switch f {
	case FreqThreeWeeks, FreqFourWeeks, FreqSixWeeks, FreqEightWeeks,
		FreqTwelveWeeks, FreqMonthly, FreqThriceYearly, FreqYearly:
		return f
	default:
		return FreqMonthly
	}
}

type Contract struct {
	ID        uuid.UUID
	ClientID  uuid.UUID
	Frequency Frequency
	PriceInc  float64 // amount including tax
	TaxPct    float64
	LastVisit *time.Time
	NextVisit *time.Time
	Active    bool
	EndedAt   *time.Time
	Client    Client
}
