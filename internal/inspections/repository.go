package inspections

import (
	"fmt"

	"assetdesk/internal/repository"
	"assetdesk/pkg/models"

	"github.com/doug-martin/goqu/v9"
)

type InspectionRepository interface {
	InsertInspection(tx *goqu.TxDatabase, inspection models.Inspection) (int, error)
	GetInspection(inspectionID int) (*models.Inspection, error)
	ListInspections(filter ListFilter) ([]models.Inspection, error)
	UpdateInspection(tx *goqu.TxDatabase, inspectionID int, fields goqu.Record) error
	DeleteInspection(tx *goqu.TxDatabase, inspectionID int) error
}

type ListFilter struct {
	AssetID      *int
	AssignmentID *int
	DamageOnly   bool
	Limit        int
	Offset       int
}

type GoquInspectionRepository struct {
	repo *repository.Repository
}

func NewRepository(r *repository.Repository) *GoquInspectionRepository {
	return &GoquInspectionRepository{repo: r}
}

func (r *GoquInspectionRepository) InsertInspection(tx *goqu.TxDatabase, inspection models.Inspection) (int, error) {
	var inspectionID int

	found, err := tx.Insert("inspections").
		Rows(goqu.Record{
			"asset_id":                inspection.AssetID,
			"assignment_id":           inspection.AssignmentID,
			"inspector_id":            inspection.InspectorID,
			"type":                    inspection.Type,
			"exterior_condition":      inspection.Exterior,
			"screen_condition":        inspection.Screen,
			"buttons_ports_condition": inspection.ButtonsPorts,
			"keyboard_condition":      inspection.Keyboard,
			"touchpad_condition":      inspection.Touchpad,
			"battery_condition":       inspection.Battery,
			"damage_description":      inspection.DamageDescription,
			"photo_refs":              inspection.PhotoRefs,
			"overall_condition":       inspection.OverallCondition,
			"damage_found":            inspection.DamageFound,
			"damage_severity":         inspection.DamageSeverity,
			"damage_status":           inspection.DamageStatus,
			"repair_status":           inspection.RepairStatus,
			"can_continue_use":        inspection.CanContinueUse,
			"estimated_cost":          inspection.EstimatedCost,
			"created_at":              inspection.CreatedAt,
			"updated_at":              inspection.UpdatedAt,
		}).
		Returning("id").
		Executor().
		ScanVal(&inspectionID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert inspection: %w", err)
	}
	if !found {
		return 0, fmt.Errorf("failed to insert inspection: no ID returned")
	}

	return inspectionID, nil
}

func (r *GoquInspectionRepository) GetInspection(inspectionID int) (*models.Inspection, error) {
	var inspection models.Inspection

	found, err := r.repo.GoquDBWrapper.
		From("inspections").
		Where(goqu.Ex{"id": inspectionID}).
		ScanStruct(&inspection)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch inspection %d: %w", inspectionID, err)
	}
	if !found {
		return nil, nil
	}

	return &inspection, nil
}

func (r *GoquInspectionRepository) ListInspections(filter ListFilter) ([]models.Inspection, error) {
	query := r.repo.GoquDBWrapper.
		From("inspections").
		Order(goqu.I("created_at").Desc())

	if filter.AssetID != nil {
		query = query.Where(goqu.Ex{"asset_id": *filter.AssetID})
	}
	if filter.AssignmentID != nil {
		query = query.Where(goqu.Ex{"assignment_id": *filter.AssignmentID})
	}
	if filter.DamageOnly {
		query = query.Where(goqu.Ex{"damage_found": true})
	}
	if filter.Limit > 0 {
		query = query.Limit(uint(filter.Limit)).Offset(uint(filter.Offset))
	}

	var inspections []models.Inspection
	if err := query.ScanStructs(&inspections); err != nil {
		return nil, fmt.Errorf("failed to list inspections: %w", err)
	}

	return inspections, nil
}

// UpdateInspection applies a partial update; callers pass only the columns
// they change and updated_at is stamped here.
func (r *GoquInspectionRepository) UpdateInspection(tx *goqu.TxDatabase, inspectionID int, fields goqu.Record) error {
	fields["updated_at"] = goqu.L("NOW()")

	result, err := tx.Update("inspections").
		Set(fields).
		Where(goqu.Ex{"id": inspectionID}).
		Executor().
		Exec()
	if err != nil {
		return fmt.Errorf("failed to update inspection %d: %w", inspectionID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("inspection %d not found", inspectionID)
	}

	return nil
}

func (r *GoquInspectionRepository) DeleteInspection(tx *goqu.TxDatabase, inspectionID int) error {
	if _, err := tx.Delete("inspections").
		Where(goqu.Ex{"id": inspectionID}).
		Executor().
		Exec(); err != nil {
		return fmt.Errorf("failed to delete inspection %d: %w", inspectionID, err)
	}

	return nil
}
