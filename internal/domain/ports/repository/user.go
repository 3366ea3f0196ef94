package repository

import (
	"context"

	"photoframe-saas/internal/domain/model"
)

type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	FindByEmail(ctx context.Context, tx Tx, email string) (*model.User, error)
}
