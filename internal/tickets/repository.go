package tickets

import (
	"fmt"

	"assetdesk/internal/repository"
	"assetdesk/pkg/models"
	"assetdesk/pkg/numbering"

	"github.com/doug-martin/goqu/v9"
)

type TicketRepository interface {
	MaxTicketSequence(tx *goqu.TxDatabase, ticketType string, year int) (int, error)
	InsertTicket(tx *goqu.TxDatabase, ticket models.Ticket) (int, error)
	GetTicket(ticketID int) (*models.Ticket, error)
	FindByInspection(inspectionID int) (*models.Ticket, error)
	ListTickets(filter ListFilter) ([]models.Ticket, error)
	UpdateTicket(tx *goqu.TxDatabase, ticketID int, fields goqu.Record) error
	SetInspectionTicket(tx *goqu.TxDatabase, inspectionID, ticketID int) error
	UpdateInspectionRepair(tx *goqu.TxDatabase, inspectionID int, fields goqu.Record) error
}

type ListFilter struct {
	Type       string
	Status     string
	Priority   string
	AssignedTo *int
	Limit      int
	Offset     int
}

type GoquTicketRepository struct {
	repo *repository.Repository
}

func NewRepository(r *repository.Repository) *GoquTicketRepository {
	return &GoquTicketRepository{repo: r}
}

// MaxTicketSequence reads the highest allocated sequence for a type and year
// off the number column. Numbers are monotonic per (type, year); gaps from
// rolled-back transactions are fine, reuse is not.
func (r *GoquTicketRepository) MaxTicketSequence(tx *goqu.TxDatabase, ticketType string, year int) (int, error) {
	prefix := fmt.Sprintf("%s-%d-", ticketType, year)

	var numbers []string
	if err := tx.From("tickets").
		Select("number").
		Where(goqu.I("number").Like(prefix + "%")).
		ScanVals(&numbers); err != nil {
		return 0, fmt.Errorf("failed to scan ticket numbers: %w", err)
	}

	max := 0
	for _, number := range numbers {
		if seq := numbering.Sequence(number); seq > max {
			max = seq
		}
	}

	return max, nil
}

func (r *GoquTicketRepository) InsertTicket(tx *goqu.TxDatabase, ticket models.Ticket) (int, error) {
	var ticketID int

	found, err := tx.Insert("tickets").
		Rows(goqu.Record{
			"number":        ticket.Number,
			"type":          ticket.Type,
			"title":         ticket.Title,
			"description":   ticket.Description,
			"priority":      ticket.Priority,
			"status":        ticket.Status,
			"asset_id":      ticket.AssetID,
			"inspection_id": ticket.InspectionID,
			"reported_by":   ticket.ReportedBy,
			"assigned_to":   ticket.AssignedTo,
			"affected_user": ticket.AffectedUser,
			"sla_deadline":  ticket.SLADeadline,
			"sla_status":    ticket.SLAStatus,
			"created_at":    ticket.CreatedAt,
			"updated_at":    ticket.UpdatedAt,
		}).
		Returning("id").
		Executor().
		ScanVal(&ticketID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert ticket: %w", err)
	}
	if !found {
		return 0, fmt.Errorf("failed to insert ticket: no ID returned")
	}

	return ticketID, nil
}

func (r *GoquTicketRepository) GetTicket(ticketID int) (*models.Ticket, error) {
	var ticket models.Ticket

	found, err := r.repo.GoquDBWrapper.
		From("tickets").
		Where(goqu.Ex{"id": ticketID}).
		ScanStruct(&ticket)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ticket %d: %w", ticketID, err)
	}
	if !found {
		return nil, nil
	}

	return &ticket, nil
}

func (r *GoquTicketRepository) FindByInspection(inspectionID int) (*models.Ticket, error) {
	var ticket models.Ticket

	found, err := r.repo.GoquDBWrapper.
		From("tickets").
		Where(goqu.Ex{"inspection_id": inspectionID}).
		ScanStruct(&ticket)
	if err != nil {
		return nil, fmt.Errorf("failed to find ticket for inspection %d: %w", inspectionID, err)
	}
	if !found {
		return nil, nil
	}

	return &ticket, nil
}

func (r *GoquTicketRepository) ListTickets(filter ListFilter) ([]models.Ticket, error) {
	query := r.repo.GoquDBWrapper.
		From("tickets").
		Order(goqu.I("created_at").Desc())

	if filter.Type != "" {
		query = query.Where(goqu.Ex{"type": filter.Type})
	}
	if filter.Status != "" {
		query = query.Where(goqu.Ex{"status": filter.Status})
	}
	if filter.Priority != "" {
		query = query.Where(goqu.Ex{"priority": filter.Priority})
	}
	if filter.AssignedTo != nil {
		query = query.Where(goqu.Ex{"assigned_to": *filter.AssignedTo})
	}
	if filter.Limit > 0 {
		query = query.Limit(uint(filter.Limit)).Offset(uint(filter.Offset))
	}

	var tickets []models.Ticket
	if err := query.ScanStructs(&tickets); err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}

	return tickets, nil
}

func (r *GoquTicketRepository) UpdateTicket(tx *goqu.TxDatabase, ticketID int, fields goqu.Record) error {
	fields["updated_at"] = goqu.L("NOW()")

	result, err := tx.Update("tickets").
		Set(fields).
		Where(goqu.Ex{"id": ticketID}).
		Executor().
		Exec()
	if err != nil {
		return fmt.Errorf("failed to update ticket %d: %w", ticketID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("ticket %d not found", ticketID)
	}

	return nil
}

func (r *GoquTicketRepository) SetInspectionTicket(tx *goqu.TxDatabase, inspectionID, ticketID int) error {
	if _, err := tx.Update("inspections").
		Set(goqu.Record{"ticket_id": ticketID, "updated_at": goqu.L("NOW()")}).
		Where(goqu.Ex{"id": inspectionID}).
		Executor().
		Exec(); err != nil {
		return fmt.Errorf("failed to link inspection %d to ticket %d: %w", inspectionID, ticketID, err)
	}

	return nil
}

// UpdateInspectionRepair pushes repair-state changes back onto the linked
// inspection so both sides of the pairing tell the same story.
func (r *GoquTicketRepository) UpdateInspectionRepair(tx *goqu.TxDatabase, inspectionID int, fields goqu.Record) error {
	fields["updated_at"] = goqu.L("NOW()")

	if _, err := tx.Update("inspections").
		Set(fields).
		Where(goqu.Ex{"id": inspectionID}).
		Executor().
		Exec(); err != nil {
		return fmt.Errorf("failed to sync inspection %d repair state: %w", inspectionID, err)
	}

	return nil
}
