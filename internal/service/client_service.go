package service

import (
	"context"
	"strings"

	"github.com/fieldops/fieldservice/internal/domain"
	"github.com/fieldops/fieldservice/internal/repository"
	apperrors "github.com/fieldops/fieldservice/pkg/util/errorutil"
)

// ClientService manages customer records. Deletion goes through CascadeService.
type ClientService struct {
	clients repository.ClientRepository
}

// ClientInput is the writable part of a client.
type ClientInput struct {
	Name        string
	ContactName string
	Email       string
	Phone       string
	Address     string
	Notes       string
}

// NewClientService constructs the service.
func NewClientService(clients repository.ClientRepository) *ClientService {
	return &ClientService{clients: clients}
}

func (in ClientInput) apply(client *domain.Client) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return apperrors.NewValidationError("invalid client", map[string]any{"name": "required"})
	}
	client.Name = name
	client.ContactName = strings.TrimSpace(in.ContactName)
	client.Email = strings.TrimSpace(in.Email)
	client.Phone = strings.TrimSpace(in.Phone)
	client.Address = strings.TrimSpace(in.Address)
	client.Notes = in.Notes
	return nil
}

// Create stores a new client.
func (s *ClientService) Create(ctx context.Context, in ClientInput) (*domain.Client, error) {
	client := &domain.Client{}
	if err := in.apply(client); err != nil {
		return nil, err
	}
	if err := s.clients.Create(ctx, client); err != nil {
		return nil, apperrors.MapError(err)
	}
	return client, nil
}

// Get loads one client.
func (s *ClientService) Get(ctx context.Context, id string) (*domain.Client, error) {
	client, err := s.clients.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("client", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return client, nil
}

// List returns clients ordered by name.
func (s *ClientService) List(ctx context.Context, filter repository.ClientFilter) ([]domain.Client, error) {
	clients, err := s.clients.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return clients, nil
}

// Update replaces the writable fields of a client.
func (s *ClientService) Update(ctx context.Context, id string, in ClientInput) (*domain.Client, error) {
	client, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.apply(client); err != nil {
		return nil, err
	}
	if err := s.clients.Update(ctx, client); err != nil {
		return nil, apperrors.MapError(err)
	}
	return client, nil
}
