package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"photoframe-saas/internal/domain"
	"photoframe-saas/internal/domain/ports/repository"
)

var _ repository.InvoiceCounterRepository = (*invoiceCounterRepo)(nil)

// invoiceCounterRepo holds the single shared counter row. NextNumber must
// run inside a transaction: the UPDATE ... RETURNING both locks the row and
// yields the new value, so concurrent callers serialize on the row lock and
// never emit the same number.
type invoiceCounterRepo struct{ pool *pgxpool.Pool }

func NewInvoiceCounterRepo(pool *pgxpool.Pool) *invoiceCounterRepo {
	return &invoiceCounterRepo{pool: pool}
}

func (r *invoiceCounterRepo) NextNumber(ctx context.Context, tx repository.Tx) (int64, error) {
	if _, ok := tx.(pgx.Tx); !ok {
		return 0, domain.ErrInvalidExecContext
	}
	const q = `
UPDATE invoice_counter
   SET last_invoice_number = last_invoice_number + 1
 WHERE id = 1
RETURNING last_invoice_number;`
	row, err := pickRow(ctx, r.pool, tx, q)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrOperationFailed
	}
	return n, nil
}
