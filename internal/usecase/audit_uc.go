// File: internal/usecase/audit_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"photoframe-saas/internal/domain/model"
	"photoframe-saas/internal/domain/ports/repository"
)

var _ AuditRecorder = (*auditUC)(nil)

// AuditRecorder persists a trail entry for every admin-invoked mutation,
// on both success and failure paths.
type AuditRecorder interface {
	Record(ctx context.Context, actorID, action, targetID, detail string, opErr error)
}

type auditUC struct {
	repo repository.AuditLogRepository
	log  *zerolog.Logger
}

func NewAuditRecorder(repo repository.AuditLogRepository, logger *zerolog.Logger) *auditUC {
	l := logger.With().Str("component", "Audit").Logger()
	return &auditUC{repo: repo, log: &l}
}

// Record is best-effort: a failed audit write is logged, never surfaced,
// so it cannot mask or roll back the operation it describes.
func (uc *auditUC) Record(ctx context.Context, actorID, action, targetID, detail string, opErr error) {
	entry := &model.AuditLog{
		ID:        ulid.Make().String(),
		ActorID:   actorID,
		Action:    action,
		TargetID:  targetID,
		Detail:    detail,
		Success:   opErr == nil,
		CreatedAt: time.Now(),
	}
	if opErr != nil {
		if entry.Detail != "" {
			entry.Detail += "; "
		}
		entry.Detail += "error: " + opErr.Error()
	}
	if err := uc.repo.Save(ctx, nil, entry); err != nil {
		uc.log.Error().Err(err).Str("action", action).Str("target_id", targetID).Msg("audit write failed")
	}
}
