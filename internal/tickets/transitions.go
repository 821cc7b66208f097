package tickets

import (
	"time"

	"assetdesk/pkg/models"
)

// ticketTransitions is the full lifecycle graph. Closed and cancelled are
// terminal; every other edge is an explicit, deliberate move. Backward edges
// (in_progress back to assigned or open) cover reassignment and triage
// mistakes.
var ticketTransitions = map[string][]string{
	models.TicketStatusOpen:       {models.TicketStatusAssigned, models.TicketStatusInProgress, models.TicketStatusCancelled},
	models.TicketStatusAssigned:   {models.TicketStatusInProgress, models.TicketStatusOpen, models.TicketStatusCancelled},
	models.TicketStatusInProgress: {models.TicketStatusResolved, models.TicketStatusAssigned, models.TicketStatusOpen},
	models.TicketStatusResolved:   {models.TicketStatusClosed, models.TicketStatusInProgress},
	models.TicketStatusClosed:     {},
	models.TicketStatusCancelled:  {},
}

func CanTransition(from, to string) bool {
	for _, next := range ticketTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PriorityForDamage derives a ticket priority from an inspection's overall
// condition and damage severity, whichever is worse.
func PriorityForDamage(overall string, severity string) string {
	switch {
	case overall == "broken" || severity == models.DamageSeveritySevere:
		return models.TicketPriorityUrgent
	case overall == "poor" || severity == models.DamageSeverityModerate:
		return models.TicketPriorityHigh
	case severity == models.DamageSeverityMinor:
		return models.TicketPriorityMedium
	default:
		return models.TicketPriorityLow
	}
}

// SLAWindow is the response window per priority.
func SLAWindow(priority string) time.Duration {
	switch priority {
	case models.TicketPriorityUrgent:
		return 4 * time.Hour
	case models.TicketPriorityHigh:
		return 24 * time.Hour
	case models.TicketPriorityMedium:
		return 72 * time.Hour
	default:
		return 168 * time.Hour
	}
}
