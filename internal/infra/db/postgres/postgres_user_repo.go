package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"photoframe-saas/internal/domain"
	"photoframe-saas/internal/domain/model"
	"photoframe-saas/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*userRepo)(nil)

type userRepo struct{ pool *pgxpool.Pool }

func NewUserRepo(pool *pgxpool.Pool) *userRepo {
	return &userRepo{pool: pool}
}

const userColumns = `id, email, is_admin, is_blocked, registered_at`

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	if err := row.Scan(&u.ID, &u.Email, &u.IsAdmin, &u.IsBlocked, &u.RegisteredAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return u, nil
}

func (r *userRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (` + userColumns + `)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO UPDATE SET email=$2, is_admin=$3, is_blocked=$4;`
	_, err := execSQL(ctx, r.pool, tx, q, u.ID, u.Email, u.IsAdmin, u.IsBlocked, u.RegisteredAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *userRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}

func (r *userRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, email)
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}
