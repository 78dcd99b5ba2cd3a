package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The mock stands in for both the pool and the tx: a nested Begin is the
// savepoint, Commit on it is RELEASE and Rollback is ROLLBACK TO SAVEPOINT.
func TestUnitOfWorkRollsBackOnlyTheFailedStep(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM tickets WHERE client_id`).
		WithArgs("c1").
		WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM tickets WHERE module_id`).
		WithArgs("m1").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectCommit()
	mock.ExpectCommit()

	var first, second error
	var removed int64
	err = NewTransactor(mock).InTx(context.Background(), func(ctx context.Context, uow UnitOfWork) error {
		first = uow.Step(ctx, func(ctx context.Context) error {
			_, err := uow.Store().Tickets.DeleteByClient(ctx, "c1")
			return err
		})
		second = uow.Step(ctx, func(ctx context.Context) error {
			n, err := uow.Store().Tickets.DeleteByModule(ctx, "m1")
			removed = n
			return err
		})
		return nil
	})

	require.NoError(t, err)
	assert.ErrorContains(t, first, "lock timeout")
	assert.NoError(t, second)
	assert.Equal(t, int64(2), removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWorkRollsBackOnError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err = NewTransactor(mock).InTx(context.Background(), func(context.Context, UnitOfWork) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWorkRollsBackOnPanic(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = NewTransactor(mock).InTx(context.Background(), func(context.Context, UnitOfWork) error {
			panic("step exploded")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}
