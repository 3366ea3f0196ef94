package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

// TransactionManager executes a function within a database transaction,
// passing the underlying transaction handle via `tx`.
//
// The concrete type of `tx` is infra-defined (pgx.Tx for Postgres).
// Repositories MUST gracefully accept a nil tx (non-transactional path).
// Keeping the handle opaque means use-case interfaces never leak storage
// types while still letting repositories run SELECT ... FOR UPDATE when a
// real transaction is present.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
