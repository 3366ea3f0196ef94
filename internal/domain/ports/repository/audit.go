package repository

import (
	"context"

	"photoframe-saas/internal/domain/model"
)

type AuditLogRepository interface {
	Save(ctx context.Context, tx Tx, entry *model.AuditLog) error
	ListByActor(ctx context.Context, tx Tx, actorID string, limit int) ([]*model.AuditLog, error)
}

type ExpiryLogRepository interface {
	SaveEntries(ctx context.Context, tx Tx, entries []*model.ExpiryLog) error
	SaveSummary(ctx context.Context, tx Tx, s *model.SweepSummary) error
}
