package repository

import (
	"context"
)

// Tx is an infra-defined transaction handle (pgx.Tx for Postgres).
// Repositories accept NoTX for the non-transactional path.
type Tx interface{}

var NoTX interface{}

// TransactionManager executes fn inside one database transaction, passing the
// handle via tx. Every "gateway call + N local writes" sequence in the use cases
// runs its local writes through WithTx so they commit or roll back together.
//
//	tm.WithTx(ctx, func(ctx context.Context, tx Tx) error {
//		if err := tips.Save(ctx, tx, tip); err != nil {
//			return err
//		}
//		return earnings.Save(ctx, tx, earning)
//	})
type TransactionManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
