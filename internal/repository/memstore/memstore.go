// Package memstore keeps every repository in process memory. It backs the
// service when no Postgres DSN is configured and serves as the test store.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fieldops/fieldservice/internal/domain"
	"github.com/fieldops/fieldservice/internal/repository"
)

// DB holds all tables behind one lock.
type DB struct {
	mu          sync.RWMutex
	seq         int64
	clients     map[string]domain.Client
	moduleTypes map[string]domain.ModuleType
	modules     map[string]domain.Module
	tickets     map[string]domain.Ticket
	documents   map[string]domain.Document
	users       map[string]domain.User
	// order records insertion sequence so listings are stable.
	order map[string]int64
	now   func() time.Time
}

// New returns an empty in-memory database.
func New() *DB {
	return &DB{
		clients:     map[string]domain.Client{},
		moduleTypes: map[string]domain.ModuleType{},
		modules:     map[string]domain.Module{},
		tickets:     map[string]domain.Ticket{},
		documents:   map[string]domain.Document{},
		users:       map[string]domain.User{},
		order:       map[string]int64{},
		now:         time.Now,
	}
}

// Store exposes the database as repositories.
func (db *DB) Store() repository.Store {
	return repository.Store{
		Clients:     &clientRepo{db},
		ModuleTypes: &moduleTypeRepo{db},
		Modules:     &moduleRepo{db},
		Tickets:     &ticketRepo{db},
		Documents:   &documentRepo{db},
		Users:       &userRepo{db},
	}
}

// Transactor runs units of work directly against the database. Writes are
// not rolled back; each step commits as it goes.
func (db *DB) Transactor() repository.Transactor {
	return transactor{db}
}

type transactor struct{ db *DB }

func (t transactor) InTx(ctx context.Context, fn func(ctx context.Context, uow repository.UnitOfWork) error) error {
	return fn(ctx, unit{store: t.db.Store()})
}

type unit struct{ store repository.Store }

func (u unit) Store() repository.Store { return u.store }

func (u unit) Step(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (db *DB) nextID() string {
	id := uuid.NewString()
	db.seq++
	db.order[id] = db.seq
	return id
}

func (db *DB) sortByInsertion(ids []string) {
	sort.Slice(ids, func(i, j int) bool { return db.order[ids[i]] < db.order[ids[j]] })
}

type clientRepo struct{ db *DB }

func (r *clientRepo) Create(_ context.Context, client *domain.Client) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	client.ID = r.db.nextID()
	client.CreatedAt = r.db.now()
	client.UpdatedAt = client.CreatedAt
	r.db.clients[client.ID] = *client
	return nil
}

func (r *clientRepo) Update(_ context.Context, client *domain.Client) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	existing, ok := r.db.clients[client.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	client.CreatedAt = existing.CreatedAt
	client.UpdatedAt = r.db.now()
	r.db.clients[client.ID] = *client
	return nil
}

func (r *clientRepo) GetByID(_ context.Context, id string) (*domain.Client, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	client, ok := r.db.clients[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &client, nil
}

func (r *clientRepo) List(_ context.Context, filter repository.ClientFilter) ([]domain.Client, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var result []domain.Client
	for _, client := range r.db.clients {
		if filter.SearchTerm != nil && !containsFold(client.Name, *filter.SearchTerm) {
			continue
		}
		result = append(result, client)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return page(result, filter.Limit, filter.Offset), nil
}

func (r *clientRepo) Count(_ context.Context) (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return len(r.db.clients), nil
}

func (r *clientRepo) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.clients[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.db.clients, id)
	return nil
}

type moduleTypeRepo struct{ db *DB }

func (r *moduleTypeRepo) Create(_ context.Context, mt *domain.ModuleType) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	mt.ID = r.db.nextID()
	mt.CreatedAt = r.db.now()
	r.db.moduleTypes[mt.ID] = *mt
	return nil
}

func (r *moduleTypeRepo) Update(_ context.Context, mt *domain.ModuleType) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	existing, ok := r.db.moduleTypes[mt.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	mt.CreatedAt = existing.CreatedAt
	r.db.moduleTypes[mt.ID] = *mt
	return nil
}

func (r *moduleTypeRepo) GetByID(_ context.Context, id string) (*domain.ModuleType, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	mt, ok := r.db.moduleTypes[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &mt, nil
}

func (r *moduleTypeRepo) List(_ context.Context) ([]domain.ModuleType, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	result := make([]domain.ModuleType, 0, len(r.db.moduleTypes))
	for _, mt := range r.db.moduleTypes {
		result = append(result, mt)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *moduleTypeRepo) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.moduleTypes[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.db.moduleTypes, id)
	return nil
}

type moduleRepo struct{ db *DB }

func (r *moduleRepo) Create(_ context.Context, module *domain.Module) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	module.ID = r.db.nextID()
	module.CreatedAt = r.db.now()
	r.db.modules[module.ID] = *module
	return nil
}

func (r *moduleRepo) Update(_ context.Context, module *domain.Module) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	existing, ok := r.db.modules[module.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	existing.ModuleTypeID = module.ModuleTypeID
	existing.SerialNumber = module.SerialNumber
	existing.InstallDate = module.InstallDate
	existing.Location = module.Location
	r.db.modules[module.ID] = existing
	return nil
}

func (r *moduleRepo) GetByID(_ context.Context, id string) (*domain.Module, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	module, ok := r.db.modules[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	r.db.withTypeName(&module)
	return &module, nil
}

func (r *moduleRepo) List(_ context.Context, filter repository.ModuleFilter) ([]domain.Module, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	ids := r.matching(filter)
	result := make([]domain.Module, 0, len(ids))
	for _, id := range ids {
		module := r.db.modules[id]
		r.db.withTypeName(&module)
		result = append(result, module)
	}
	return page(result, filter.Limit, filter.Offset), nil
}

func (r *moduleRepo) Count(_ context.Context, filter repository.ModuleFilter) (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return len(r.matching(filter)), nil
}

func (r *moduleRepo) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.modules[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.db.modules, id)
	return nil
}

func (r *moduleRepo) matching(filter repository.ModuleFilter) []string {
	var ids []string
	for id, module := range r.db.modules {
		if filter.ClientID != nil && module.ClientID != *filter.ClientID {
			continue
		}
		if filter.ModuleTypeID != nil && module.ModuleTypeID != *filter.ModuleTypeID {
			continue
		}
		ids = append(ids, id)
	}
	r.db.sortByInsertion(ids)
	return ids
}

func (db *DB) withTypeName(module *domain.Module) {
	if mt, ok := db.moduleTypes[module.ModuleTypeID]; ok {
		module.ModuleTypeName = mt.Name
	}
}

type ticketRepo struct{ db *DB }

func (r *ticketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	ticket.ID = r.db.nextID()
	ticket.CreatedAt = r.db.now()
	ticket.UpdatedAt = ticket.CreatedAt
	if ticket.Photos == nil {
		ticket.Photos = []string{}
	}
	r.db.tickets[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (r *ticketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	existing, ok := r.db.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	existing.Title = ticket.Title
	existing.Description = ticket.Description
	existing.Status = ticket.Status
	existing.Priority = ticket.Priority
	existing.ScheduledDate = ticket.ScheduledDate
	existing.Latitude = ticket.Latitude
	existing.Longitude = ticket.Longitude
	existing.Photos = ticket.Photos
	existing.UpdatedAt = r.db.now()
	ticket.UpdatedAt = existing.UpdatedAt
	r.db.tickets[ticket.ID] = cloneTicket(existing)
	return nil
}

func (r *ticketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	ticket, ok := r.db.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := cloneTicket(ticket)
	return &out, nil
}

func (r *ticketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	ids := r.matching(filter)
	result := make([]domain.Ticket, 0, len(ids))
	for _, id := range ids {
		result = append(result, cloneTicket(r.db.tickets[id]))
	}
	return page(result, filter.Limit, filter.Offset), nil
}

func (r *ticketRepo) Count(_ context.Context, filter repository.TicketFilter) (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return len(r.matching(filter)), nil
}

func (r *ticketRepo) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.db.tickets, id)
	return nil
}

func (r *ticketRepo) DeleteByClient(_ context.Context, clientID string) (int64, error) {
	return r.deleteWhere(func(t domain.Ticket) bool { return t.ClientID == clientID }), nil
}

func (r *ticketRepo) DeleteByModule(_ context.Context, moduleID string) (int64, error) {
	return r.deleteWhere(func(t domain.Ticket) bool { return t.ModuleID == moduleID }), nil
}

func (r *ticketRepo) deleteWhere(match func(domain.Ticket) bool) int64 {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for id, ticket := range r.db.tickets {
		if match(ticket) {
			delete(r.db.tickets, id)
			n++
		}
	}
	return n
}

func (r *ticketRepo) matching(filter repository.TicketFilter) []string {
	var ids []string
	for id, ticket := range r.db.tickets {
		if ticketMatches(ticket, filter) {
			ids = append(ids, id)
		}
	}
	r.db.sortByInsertion(ids)
	return ids
}

func ticketMatches(t domain.Ticket, filter repository.TicketFilter) bool {
	if filter.ClientID != nil && t.ClientID != *filter.ClientID {
		return false
	}
	if filter.ModuleID != nil && t.ModuleID != *filter.ModuleID {
		return false
	}
	if len(filter.Statuses) > 0 && !contains(filter.Statuses, t.Status) {
		return false
	}
	if len(filter.Priorities) > 0 && !contains(filter.Priorities, t.Priority) {
		return false
	}
	if filter.ScheduledOnly && t.ScheduledDate == nil {
		return false
	}
	if filter.ScheduledOn != nil && (t.ScheduledDate == nil || *t.ScheduledDate != *filter.ScheduledOn) {
		return false
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		term := strings.TrimSpace(*filter.SearchTerm)
		if !containsFold(t.Title, term) && !containsFold(t.Description, term) {
			return false
		}
	}
	return true
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	t.Photos = append([]string{}, t.Photos...)
	return t
}

type documentRepo struct{ db *DB }

func (r *documentRepo) Create(_ context.Context, doc *domain.Document) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	doc.ID = r.db.nextID()
	doc.CreatedAt = r.db.now()
	r.db.documents[doc.ID] = *doc
	return nil
}

func (r *documentRepo) GetByID(_ context.Context, id string) (*domain.Document, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	doc, ok := r.db.documents[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &doc, nil
}

func (r *documentRepo) List(_ context.Context, filter repository.DocumentFilter) ([]domain.Document, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	ids := r.matching(filter)
	result := make([]domain.Document, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		result = append(result, r.db.documents[ids[i]])
	}
	return result, nil
}

func (r *documentRepo) Count(_ context.Context, filter repository.DocumentFilter) (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return len(r.matching(filter)), nil
}

func (r *documentRepo) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.documents[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.db.documents, id)
	return nil
}

func (r *documentRepo) DeleteByClient(_ context.Context, clientID string) (int64, error) {
	return r.deleteWhere(func(d domain.Document) bool { return eq(d.ClientID, clientID) }), nil
}

func (r *documentRepo) DeleteByModule(_ context.Context, moduleID string) (int64, error) {
	return r.deleteWhere(func(d domain.Document) bool { return eq(d.ModuleID, moduleID) }), nil
}

func (r *documentRepo) deleteWhere(match func(domain.Document) bool) int64 {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for id, doc := range r.db.documents {
		if match(doc) {
			delete(r.db.documents, id)
			n++
		}
	}
	return n
}

func (r *documentRepo) matching(filter repository.DocumentFilter) []string {
	var ids []string
	for id, doc := range r.db.documents {
		if filter.ClientID != nil && !eq(doc.ClientID, *filter.ClientID) {
			continue
		}
		if filter.ModuleID != nil && !eq(doc.ModuleID, *filter.ModuleID) {
			continue
		}
		if filter.ModuleTypeID != nil && !eq(doc.ModuleTypeID, *filter.ModuleTypeID) {
			continue
		}
		ids = append(ids, id)
	}
	r.db.sortByInsertion(ids)
	return ids
}

type userRepo struct{ db *DB }

func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	user.ID = r.db.nextID()
	user.CreatedAt = r.db.now()
	r.db.users[user.ID] = *user
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	user, ok := r.db.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, user := range r.db.users {
		if strings.EqualFold(user.Email, email) {
			return &user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func contains[T comparable](items []T, v T) bool {
	for _, item := range items {
		if item == v {
			return true
		}
	}
	return false
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(sub)))
}

func eq(p *string, v string) bool {
	return p != nil && *p == v
}
