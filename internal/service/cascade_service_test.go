package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/fieldservice/internal/domain"
	"github.com/fieldops/fieldservice/internal/repository"
)

// failingTickets breaks DeleteByClient so that cascade steps can be shown
// to continue past a failure.
type failingTickets struct {
	repository.TicketRepository
}

func (failingTickets) DeleteByClient(context.Context, string) (int64, error) {
	return 0, errors.New("simulated outage")
}

type failingModules struct {
	repository.ModuleRepository
}

func (failingModules) Delete(context.Context, string) error {
	return errors.New("simulated outage")
}

// directTransactor runs steps against a store without a real transaction.
type directTransactor struct {
	store repository.Store
}

func (d directTransactor) InTx(ctx context.Context, fn func(ctx context.Context, uow repository.UnitOfWork) error) error {
	return fn(ctx, directUnit{store: d.store})
}

type directUnit struct{ store repository.Store }

func (u directUnit) Store() repository.Store { return u.store }

func (u directUnit) Step(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type cascadeCounter struct{ steps []string }

func (c *cascadeCounter) RecordCascadeFailure(entity, step string) {
	c.steps = append(c.steps, entity+"/"+step)
}

type clientGraph struct {
	client  *domain.Client
	modules []*domain.Module
}

// seedClient builds a client with two modules, one ticket and one document
// per module and one document on the client itself.
func seedClient(t *testing.T, f *fixture) clientGraph {
	t.Helper()
	ctx := context.Background()
	c := f.client(t, "Acme")
	graph := clientGraph{client: c}
	for _, serial := range []string{"SN-1", "SN-2"} {
		m := f.module(t, c.ID, serial)
		graph.modules = append(graph.modules, m)
		f.ticket(t, c.ID, m.ID, "visit "+serial)
		moduleID := m.ID
		require.NoError(t, f.store.Documents.Create(ctx, &domain.Document{Name: serial + ".pdf", ModuleID: &moduleID}))
	}
	clientID := c.ID
	require.NoError(t, f.store.Documents.Create(ctx, &domain.Document{Name: "contract.pdf", ClientID: &clientID}))
	return graph
}

func TestDeleteClientRemovesEveryDependent(t *testing.T) {
	f := newFixture(t)
	graph := seedClient(t, f)
	bystander := f.client(t, "Other")
	f.ticket(t, bystander.ID, f.module(t, bystander.ID, "SN-X").ID, "keep me")

	svc := NewCascadeService(CascadeDependencies{Transactor: f.db.Transactor(), Store: f.store})
	result, err := svc.DeleteClient(context.Background(), graph.client.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.CascadeFullyDeleted, result.Outcome)
	assert.True(t, result.Complete())
	assert.Empty(t, result.Failures)
	assert.Equal(t, map[string]int{"tickets": 0, "documents": 0, "modules": 0, "clients": 0}, result.Remaining)

	left, err := f.store.Tickets.Count(context.Background(), repository.TicketFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, left, "other clients are untouched")
}

func TestDeleteClientContinuesPastFailedStep(t *testing.T) {
	f := newFixture(t)
	graph := seedClient(t, f)
	ctx := context.Background()

	store := f.store
	store.Tickets = failingTickets{TicketRepository: f.store.Tickets}
	counter := &cascadeCounter{}
	svc := NewCascadeService(CascadeDependencies{
		Transactor: directTransactor{store: store},
		Store:      f.store,
		Recorder:   counter,
		Dispatcher: f.dispatcher,
	})

	result, err := svc.DeleteClient(ctx, graph.client.ID)
	require.NoError(t, err)

	require.Len(t, result.Failures, 1)
	assert.Equal(t, stepTickets, result.Failures[0].Step)
	assert.Equal(t, []string{"client/tickets"}, counter.steps)

	// the per-module steps still removed every ticket
	for _, m := range graph.modules {
		moduleID := m.ID
		n, err := f.store.Tickets.Count(ctx, repository.TicketFilter{ModuleID: &moduleID})
		require.NoError(t, err)
		assert.Zero(t, n)
		n, err = f.store.Documents.Count(ctx, repository.DocumentFilter{ModuleID: &moduleID})
		require.NoError(t, err)
		assert.Zero(t, n)
	}
	clientID := graph.client.ID
	n, err := f.store.Documents.Count(ctx, repository.DocumentFilter{ClientID: &clientID})
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = f.store.Modules.Count(ctx, repository.ModuleFilter{ClientID: &clientID})
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = f.store.Clients.GetByID(ctx, clientID)
	assert.Error(t, err)

	assert.Equal(t, domain.CascadeFullyDeleted, result.Outcome)
}

func TestDeleteClientReportsSurvivors(t *testing.T) {
	f := newFixture(t)
	graph := seedClient(t, f)

	store := f.store
	store.Modules = failingModules{ModuleRepository: f.store.Modules}
	svc := NewCascadeService(CascadeDependencies{Transactor: directTransactor{store: store}, Store: f.store})

	result, err := svc.DeleteClient(context.Background(), graph.client.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.CascadePartiallyDeleted, result.Outcome)
	assert.False(t, result.Complete())
	assert.Equal(t, 2, result.Remaining["modules"])
	assert.Equal(t, 0, result.Remaining["clients"])
	assert.Equal(t, 0, result.Remaining["tickets"])
	assert.Len(t, result.Failures, 2)
	for _, failure := range result.Failures {
		assert.Equal(t, stepModule, failure.Step)
	}
}

func TestDeleteModule(t *testing.T) {
	f := newFixture(t)
	graph := seedClient(t, f)
	ctx := context.Background()
	svc := NewCascadeService(CascadeDependencies{Transactor: f.db.Transactor(), Store: f.store})

	target := graph.modules[0]
	result, err := svc.DeleteModule(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CascadeFullyDeleted, result.Outcome)
	assert.Equal(t, domain.CascadeEntityModule, result.Entity)

	clientID := graph.client.ID
	n, err := f.store.Modules.Count(ctx, repository.ModuleFilter{ClientID: &clientID})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = f.store.Tickets.Count(ctx, repository.TicketFilter{ClientID: &clientID})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = svc.DeleteModule(ctx, target.ID)
	assert.Equal(t, http.StatusNotFound, statusOf(err))
}

func TestDeleteUnknownClient(t *testing.T) {
	f := newFixture(t)
	svc := NewCascadeService(CascadeDependencies{Transactor: f.db.Transactor(), Store: f.store})
	_, err := svc.DeleteClient(context.Background(), "missing")
	assert.Equal(t, http.StatusNotFound, statusOf(err))
}
