package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/fieldservice/internal/domain"
	"github.com/fieldops/fieldservice/internal/repository"
)

func TestTicketsListInInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store := New().Store()

	var ids []string
	for _, title := range []string{"c", "a", "b"} {
		ticket := &domain.Ticket{ClientID: "cl", Title: title, Status: domain.TicketStatusNew}
		require.NoError(t, store.Tickets.Create(ctx, ticket))
		ids = append(ids, ticket.ID)
	}

	list, err := store.Tickets.List(ctx, repository.TicketFilter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, ticket := range list {
		assert.Equal(t, ids[i], ticket.ID)
	}

	paged, err := store.Tickets.List(ctx, repository.TicketFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, ids[1], paged[0].ID)
}

func TestTicketFilters(t *testing.T) {
	ctx := context.Background()
	store := New().Store()
	day := domain.Date{Year: 2024, Month: time.May, Day: 2}

	require.NoError(t, store.Tickets.Create(ctx, &domain.Ticket{ClientID: "a", Title: "Pump leak", Status: domain.TicketStatusScheduled, ScheduledDate: &day}))
	require.NoError(t, store.Tickets.Create(ctx, &domain.Ticket{ClientID: "a", Title: "Filter", Status: domain.TicketStatusNew}))
	require.NoError(t, store.Tickets.Create(ctx, &domain.Ticket{ClientID: "b", Title: "pump swap", Status: domain.TicketStatusClosed}))

	count, err := store.Tickets.Count(ctx, repository.TicketFilter{ScheduledOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	search := "PUMP"
	count, err = store.Tickets.Count(ctx, repository.TicketFilter{SearchTerm: &search})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	client := "a"
	count, err = store.Tickets.Count(ctx, repository.TicketFilter{ClientID: &client, Statuses: []domain.TicketStatus{domain.TicketStatusNew}})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = store.Tickets.Count(ctx, repository.TicketFilter{ScheduledOn: &day})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	deleted, err := store.Tickets.DeleteByClient(ctx, "a")
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)
}

func TestReturnedTicketsAreCopies(t *testing.T) {
	ctx := context.Background()
	store := New().Store()
	ticket := &domain.Ticket{Title: "x", Photos: []string{"p1"}}
	require.NoError(t, store.Tickets.Create(ctx, ticket))

	got, err := store.Tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	got.Photos[0] = "mutated"

	again, err := store.Tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, again.Photos)
}

func TestMissingRecordsReturnNoRows(t *testing.T) {
	ctx := context.Background()
	store := New().Store()

	_, err := store.Clients.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.ErrorIs(t, store.Modules.Delete(ctx, "nope"), pgx.ErrNoRows)
	assert.ErrorIs(t, store.Tickets.Update(ctx, &domain.Ticket{ID: "nope"}), pgx.ErrNoRows)
	_, err = store.Users.GetByEmail(ctx, "x@example.com")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestModulesCarryTypeName(t *testing.T) {
	ctx := context.Background()
	store := New().Store()

	mt := &domain.ModuleType{Name: "Chiller"}
	require.NoError(t, store.ModuleTypes.Create(ctx, mt))
	module := &domain.Module{ClientID: "c1", ModuleTypeID: mt.ID, SerialNumber: "SN-1"}
	require.NoError(t, store.Modules.Create(ctx, module))

	got, err := store.Modules.GetByID(ctx, module.ID)
	require.NoError(t, err)
	assert.Equal(t, "Chiller", got.ModuleTypeName)

	count, err := store.Modules.Count(ctx, repository.ModuleFilter{ModuleTypeID: &mt.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDocumentsFilterAndDelete(t *testing.T) {
	ctx := context.Background()
	store := New().Store()
	client, module := "c1", "m1"

	require.NoError(t, store.Documents.Create(ctx, &domain.Document{Name: "a", ClientID: &client}))
	require.NoError(t, store.Documents.Create(ctx, &domain.Document{Name: "b", ModuleID: &module}))
	require.NoError(t, store.Documents.Create(ctx, &domain.Document{Name: "c"}))

	list, err := store.Documents.List(ctx, repository.DocumentFilter{ClientID: &client})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].Name)

	n, err := store.Documents.DeleteByModule(ctx, module)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	total, err := store.Documents.Count(ctx, repository.DocumentFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestDuplicateUserEmail(t *testing.T) {
	ctx := context.Background()
	store := New().Store()
	require.NoError(t, store.Users.Create(ctx, &domain.User{Email: "tech@example.com"}))
	assert.ErrorIs(t, store.Users.Create(ctx, &domain.User{Email: "TECH@example.com"}), repository.ErrDuplicate)
}

func TestTransactorRunsSteps(t *testing.T) {
	db := New()
	var ran []string
	err := db.Transactor().InTx(context.Background(), func(ctx context.Context, uow repository.UnitOfWork) error {
		assert.NotNil(t, uow.Store().Tickets)
		for _, step := range []string{"one", "two"} {
			step := step
			_ = uow.Step(ctx, func(context.Context) error {
				ran = append(ran, step)
				return nil
			})
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, ran)
}
