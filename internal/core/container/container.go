package container

import (
	"database/sql"

	auditLogRepo "assetdesk/internal/auditlog"
	"assetdesk/internal/assetstore"
	"assetdesk/internal/assignments"
	"assetdesk/internal/inspections"
	"assetdesk/internal/metrics"
	"assetdesk/internal/notifications"
	"assetdesk/internal/pm"
	"assetdesk/internal/repository"
	"assetdesk/internal/tickets"
	"assetdesk/internal/users"
	"assetdesk/pkg/auditlog"
	"assetdesk/pkg/security"

	"go.uber.org/zap"
)

type Container struct {
	Repository        *repository.Repository
	AuditLog          *auditlog.Auditlog
	Metrics           *metrics.Metrics
	LoginHandler      *security.LoginHandler
	UserHandler       *users.UsersHandler
	AssetHandler      *assetstore.Handler
	AssignmentHandler *assignments.Handler
	InspectionHandler *inspections.Handler
	TicketHandler     *tickets.Handler
	PMHandler         *pm.Handler
	AuditLogHandler   *auditLogRepo.Handler
}

func NewAppContainer(db *sql.DB, log *zap.Logger) *Container {
	repo := repository.NewRepository(db)

	auditStore := auditLogRepo.NewRepository(repo)
	auditLog := auditlog.NewAuditLog(auditStore, log)
	perms := security.NewPermissionRepository(repo)
	notifier := notifications.NewLogNotifier(log)
	assetStore := assetstore.NewRepository(repo)

	assignmentRepo := assignments.NewRepository(repo)
	assignmentService := assignments.NewService(repo, assignmentRepo, assetStore, perms, auditLog, log)

	ticketRepo := tickets.NewRepository(repo)
	ticketService := tickets.NewService(repo, ticketRepo, assetStore, notifier, perms, auditLog, log)

	inspectionRepo := inspections.NewRepository(repo)
	inspectionService := inspections.NewService(repo, inspectionRepo, assetStore, assignmentService, ticketService, notifier, perms, auditLog, log)

	pmRepo := pm.NewRepository(repo)
	pmService := pm.NewService(repo, pmRepo, assetStore, perms, auditLog, log)

	userRepo := users.NewRepository(repo)

	return &Container{
		Repository:        repo,
		AuditLog:          auditLog,
		Metrics:           metrics.NewMetrics(),
		LoginHandler:      security.NewLoginHandler(repo),
		UserHandler:       users.NewHandler(userRepo),
		AssetHandler:      assetstore.NewHandler(assetStore),
		AssignmentHandler: assignments.NewHandler(assignmentService),
		InspectionHandler: inspections.NewHandler(inspectionService),
		TicketHandler:     tickets.NewHandler(ticketService),
		PMHandler:         pm.NewHandler(pmService),
		AuditLogHandler:   auditLogRepo.NewHandler(auditStore),
	}
}
