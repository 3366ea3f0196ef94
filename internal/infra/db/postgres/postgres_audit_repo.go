package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"photoframe-saas/internal/domain"
	"photoframe-saas/internal/domain/model"
	"photoframe-saas/internal/domain/ports/repository"
)

var _ repository.AuditLogRepository = (*auditRepo)(nil)

type auditRepo struct{ pool *pgxpool.Pool }

func NewAuditRepo(pool *pgxpool.Pool) *auditRepo {
	return &auditRepo{pool: pool}
}

func (r *auditRepo) Save(ctx context.Context, tx repository.Tx, entry *model.AuditLog) error {
	const q = `
INSERT INTO audit_logs (id, actor_id, action, target_id, detail, success, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7);`
	_, err := execSQL(ctx, r.pool, tx, q,
		entry.ID, entry.ActorID, entry.Action, entry.TargetID, entry.Detail, entry.Success, entry.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *auditRepo) ListByActor(ctx context.Context, tx repository.Tx, actorID string, limit int) ([]*model.AuditLog, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT id, actor_id, action, target_id, detail, success, created_at
  FROM audit_logs
 WHERE actor_id=$1
 ORDER BY id DESC
 LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, actorID, limit)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.AuditLog
	for rows.Next() {
		e := &model.AuditLog{}
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.TargetID, &e.Detail, &e.Success, &e.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
