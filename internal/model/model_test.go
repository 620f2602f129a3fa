package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFrequency(t *testing.T) {
	assert.Equal(t, FreqThreeWeeks, ParseFrequency("3-weeks"))
	assert.Equal(t, FreqYearly, ParseFrequency(" YEARLY "))
	assert.Equal(t, FreqMonthly, ParseFrequency("fortnightly"), "unknown input defaults to monthly")
	assert.Equal(t, FreqMonthly, ParseFrequency(""))
}

func TestParseVisitStatus(t *testing.T) {
	status, err := ParseVisitStatus("planned")
	assert.NoError(t, err)
	assert.Equal(t, VisitStatusPlanned, status)

	_, err = ParseVisitStatus("archived")
	assert.Error(t, err)
}

func TestVisitStatusTerminal(t *testing.T) {
	assert.False(t, VisitStatusPlanned.Terminal())
	assert.True(t, VisitStatusCompleted.Terminal())
	assert.True(t, VisitStatusCancelled.Terminal())
}

func TestNormalizeCancelReason(t *testing.T) {
	assert.Equal(t, CancelReasonCompany, NormalizeCancelReason(CancelReasonCompany))
	assert.Equal(t, CancelReasonClient, NormalizeCancelReason(CancelReasonClient))
	assert.Equal(t, CancelReasonClient, NormalizeCancelReason("whatever"))
}
