package security

import (
	"fmt"

	"assetdesk/internal/repository"

	"github.com/doug-martin/goqu/v9"
)

// Permission modules and actions. Every mutating service operation names
// the pair it requires before touching the database.
const (
	ModuleAssignments = "assignments"
	ModuleInspections = "inspections"
	ModuleTickets     = "tickets"
	ModuleMaintenance = "maintenance"
	ModuleAssets      = "assets"
)

const (
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionClose   = "close"
	ActionExecute = "execute"
	ActionAssign  = "assign"
	ActionResolve = "resolve"
)

// PermissionChecker is the authorization collaborator consulted before every
// mutation. A false result short-circuits with Forbidden before any write.
type PermissionChecker interface {
	HasPermission(actorID int, module, action string) (bool, error)
}

// PermissionRepository resolves permissions through the actor's role:
// users.role -> role_permissions(module, action).
type PermissionRepository struct {
	repo *repository.Repository
}

func NewPermissionRepository(r *repository.Repository) *PermissionRepository {
	return &PermissionRepository{repo: r}
}

func (p *PermissionRepository) HasPermission(actorID int, module, action string) (bool, error) {
	count, err := p.repo.GoquDBWrapper.
		From(goqu.T("role_permissions").As("rp")).
		Join(
			goqu.T("users").As("u"),
			goqu.On(goqu.Ex{"u.role": goqu.I("rp.role")}),
		).
		Where(goqu.Ex{
			"u.id":      actorID,
			"rp.module": module,
			"rp.action": action,
		}).
		Count()
	if err != nil {
		return false, fmt.Errorf("failed to check permission %s:%s for user %d: %w", module, action, actorID, err)
	}

	return count > 0, nil
}
