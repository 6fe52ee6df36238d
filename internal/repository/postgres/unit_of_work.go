package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dheelyte/studyflow/internal/core/port"
)

// UnitOfWork runs repository operations inside a single pgx transaction.
type UnitOfWork struct {
	pool *pgxpool.Pool
}

// NewUnitOfWork wires a transaction runner backed by the provided pool.
func NewUnitOfWork(pool *pgxpool.Pool) *UnitOfWork {
	return &UnitOfWork{pool: pool}
}

// Do begins a transaction, hands transaction-bound stores to fn, and commits
// when fn returns nil. Any error from fn rolls the whole transaction back.
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, stores port.Stores) error) error {
	tx, err := u.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	stores := port.Stores{
		Users:      NewUserRepository(tx),
		ResetCodes: NewResetCodeRepository(tx),
	}

	if err := fn(ctx, stores); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("rollback transaction: %v (original: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

var _ port.UnitOfWork = (*UnitOfWork)(nil)
