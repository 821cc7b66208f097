package tickets

import (
	"testing"
	"time"

	"assetdesk/pkg/models"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from    string
		to      string
		allowed bool
	}{
		{models.TicketStatusOpen, models.TicketStatusAssigned, true},
		{models.TicketStatusOpen, models.TicketStatusInProgress, true},
		{models.TicketStatusOpen, models.TicketStatusCancelled, true},
		{models.TicketStatusOpen, models.TicketStatusResolved, false},
		{models.TicketStatusOpen, models.TicketStatusClosed, false},

		{models.TicketStatusAssigned, models.TicketStatusInProgress, true},
		{models.TicketStatusAssigned, models.TicketStatusOpen, true},
		{models.TicketStatusAssigned, models.TicketStatusCancelled, true},
		{models.TicketStatusAssigned, models.TicketStatusResolved, false},

		{models.TicketStatusInProgress, models.TicketStatusResolved, true},
		{models.TicketStatusInProgress, models.TicketStatusAssigned, true},
		{models.TicketStatusInProgress, models.TicketStatusOpen, true},
		{models.TicketStatusInProgress, models.TicketStatusClosed, false},
		{models.TicketStatusInProgress, models.TicketStatusCancelled, false},

		{models.TicketStatusResolved, models.TicketStatusClosed, true},
		{models.TicketStatusResolved, models.TicketStatusInProgress, true},
		{models.TicketStatusResolved, models.TicketStatusOpen, false},
		{models.TicketStatusResolved, models.TicketStatusCancelled, false},

		{models.TicketStatusClosed, models.TicketStatusOpen, false},
		{models.TicketStatusClosed, models.TicketStatusInProgress, false},
		{models.TicketStatusCancelled, models.TicketStatusOpen, false},
		{models.TicketStatusCancelled, models.TicketStatusAssigned, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestPriorityForDamage(t *testing.T) {
	assert.Equal(t, models.TicketPriorityUrgent, PriorityForDamage("broken", ""))
	assert.Equal(t, models.TicketPriorityUrgent, PriorityForDamage("fair", models.DamageSeveritySevere))
	assert.Equal(t, models.TicketPriorityHigh, PriorityForDamage("poor", ""))
	assert.Equal(t, models.TicketPriorityHigh, PriorityForDamage("good", models.DamageSeverityModerate))
	assert.Equal(t, models.TicketPriorityMedium, PriorityForDamage("good", models.DamageSeverityMinor))
	assert.Equal(t, models.TicketPriorityLow, PriorityForDamage("good", ""))
}

func TestSLAWindow(t *testing.T) {
	assert.Equal(t, 4*time.Hour, SLAWindow(models.TicketPriorityUrgent))
	assert.Equal(t, 24*time.Hour, SLAWindow(models.TicketPriorityHigh))
	assert.Equal(t, 72*time.Hour, SLAWindow(models.TicketPriorityMedium))
	assert.Equal(t, 168*time.Hour, SLAWindow(models.TicketPriorityLow))
}
