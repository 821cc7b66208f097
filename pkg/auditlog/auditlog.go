package auditlog

import (
	"assetdesk/pkg/models"

	"go.uber.org/zap"
)

// Auditable is implemented by entities that can be written to the audit log.
type Auditable interface {
	CreateLogView() models.AuditLog
}

// Recorder is what services depend on. Recording happens after a successful
// mutation, outside the primary transaction, and is best-effort.
type Recorder interface {
	Log(actorID *int, action string, data any, item Auditable)
}

type Store interface {
	PersistLog(auditLog models.AuditLog, data any) error
}

type Auditlog struct {
	store Store
	log   *zap.Logger
}

func NewAuditLog(store Store, log *zap.Logger) *Auditlog {
	return &Auditlog{store: store, log: log}
}

func (a *Auditlog) Log(actorID *int, action string, data any, item Auditable) {
	auditLog := item.CreateLogView()
	auditLog.Action = action
	auditLog.UserID = actorID

	if err := a.store.PersistLog(auditLog, data); err != nil {
		a.log.Warn("unable to create audit log entry",
			zap.String("resource_type", auditLog.ResourceType),
			zap.Int("resource_id", auditLog.ResourceID),
			zap.Error(err))
		return
	}

	a.log.Debug("audit log entry created",
		zap.String("resource_type", auditLog.ResourceType),
		zap.Int("resource_id", auditLog.ResourceID),
		zap.String("action", action))
}
