package service

import (
	"context"

	"github.com/fieldops/fieldservice/internal/domain"
	"github.com/fieldops/fieldservice/internal/repository"
	apperrors "github.com/fieldops/fieldservice/pkg/util/errorutil"
)

// DashboardCounts summarises the store for the landing page.
type DashboardCounts struct {
	Clients   int
	Modules   int
	Documents int
	Tickets   map[domain.TicketStatus]int
}

// DashboardService aggregates counts across collections.
type DashboardService struct {
	store   repository.Store
	tickets *TicketService
}

func NewDashboardService(store repository.Store, tickets *TicketService) *DashboardService {
	return &DashboardService{store: store, tickets: tickets}
}

// Counts runs one count query per collection and per ticket status.
func (s *DashboardService) Counts(ctx context.Context) (*DashboardCounts, error) {
	clients, err := s.store.Clients.Count(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	modules, err := s.store.Modules.Count(ctx, repository.ModuleFilter{})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	documents, err := s.store.Documents.Count(ctx, repository.DocumentFilter{})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	tickets, err := s.tickets.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	return &DashboardCounts{Clients: clients, Modules: modules, Documents: documents, Tickets: tickets}, nil
}
