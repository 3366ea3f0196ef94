package repository

import "context"

type InvoiceCounterRepository interface {
	// NextNumber reads, increments and writes back the shared counter.
	// Must be called inside a transaction; the row is locked FOR UPDATE so
	// concurrent callers never observe the same value.
	NextNumber(ctx context.Context, tx Tx) (int64, error)
}
