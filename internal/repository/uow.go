package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// UnitOfWork is an open transaction over Store.
type UnitOfWork interface {
	Store() Store
	// Step runs fn so that a failure is rolled back on its own without
	// aborting the enclosing unit.
	Step(ctx context.Context, fn func(ctx context.Context) error) error
}

// Transactor opens units of work. A non-nil error from fn rolls the unit back.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
}

// TxStarter opens transactions. *pgxpool.Pool and *pgx.Conn satisfy it.
type TxStarter interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type pgTransactor struct {
	db TxStarter
}

// NewTransactor returns a Postgres-backed transactor.
func NewTransactor(db TxStarter) Transactor {
	return &pgTransactor{db: db}
}

func (t *pgTransactor) InTx(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error {
	tx, err := t.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	committed := false
	// also covers a panic inside fn
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	unit := &pgUnit{tx: tx, store: NewStore(tx)}
	if err := fn(ctx, unit); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

type pgUnit struct {
	tx    pgx.Tx
	store Store
}

func (u *pgUnit) Store() Store {
	return u.store
}

// Step wraps fn in a savepoint. Repositories keep using the outer tx; the
// savepoint is connection state so their statements fall inside it.
func (u *pgUnit) Step(ctx context.Context, fn func(ctx context.Context) error) error {
	sp, err := u.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("savepoint: %w", err)
	}
	if err := fn(ctx); err != nil {
		_ = sp.Rollback(ctx)
		return err
	}
	return sp.Commit(ctx)
}
