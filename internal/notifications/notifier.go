package notifications

import (
	"assetdesk/pkg/models"

	"go.uber.org/zap"
)

// Notifier is the outbound notification collaborator. Every send is
// best-effort: callers log failures and never propagate them, so a slow or
// broken mail gateway cannot fail or roll back the primary mutation.
type Notifier interface {
	SendInspectionReport(inspection models.Inspection, assignment models.Assignment) error
	SendTicketCreated(ticket models.Ticket) error
	SendTicketAssigned(ticket models.Ticket, assigneeID int) error
}

// LogNotifier is the default implementation; it only records that a
// notification would have been sent. Real delivery (email, PDF report)
// plugs in behind the same interface.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendInspectionReport(inspection models.Inspection, assignment models.Assignment) error {
	n.log.Info("inspection report notification",
		zap.Int("inspection_id", inspection.ID),
		zap.Int("assignment_id", assignment.ID),
		zap.Int("holder_id", assignment.HolderID))
	return nil
}

func (n *LogNotifier) SendTicketCreated(ticket models.Ticket) error {
	n.log.Info("ticket created notification",
		zap.Int("ticket_id", ticket.ID),
		zap.String("number", ticket.Number),
		zap.String("priority", ticket.Priority))
	return nil
}

func (n *LogNotifier) SendTicketAssigned(ticket models.Ticket, assigneeID int) error {
	n.log.Info("ticket assigned notification",
		zap.Int("ticket_id", ticket.ID),
		zap.Int("assignee_id", assigneeID))
	return nil
}
