package service

import (
	"context"
	"strings"

	"github.com/fieldops/fieldservice/internal/domain"
	"github.com/fieldops/fieldservice/internal/repository"
	apperrors "github.com/fieldops/fieldservice/pkg/util/errorutil"
)

// ModuleService manages installed modules. Deletion goes through CascadeService.
type ModuleService struct {
	modules repository.ModuleRepository
	clients *ClientService
	catalog *CatalogService
}

// ModuleInput is the writable part of a module. ClientID is fixed after creation.
type ModuleInput struct {
	ClientID     string
	ModuleTypeID string
	SerialNumber string
	InstallDate  *domain.Date
	Location     string
}

// NewModuleService constructs the service.
func NewModuleService(modules repository.ModuleRepository, clients *ClientService, catalog *CatalogService) *ModuleService {
	return &ModuleService{modules: modules, clients: clients, catalog: catalog}
}

func (s *ModuleService) Create(ctx context.Context, in ModuleInput) (*domain.Module, error) {
	if strings.TrimSpace(in.ClientID) == "" {
		return nil, apperrors.NewValidationError("invalid module", map[string]any{"client_id": "required"})
	}
	if _, err := s.clients.Get(ctx, in.ClientID); err != nil {
		return nil, err
	}
	module := &domain.Module{ClientID: in.ClientID}
	if err := s.apply(ctx, module, in); err != nil {
		return nil, err
	}
	if err := s.modules.Create(ctx, module); err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.Get(ctx, module.ID)
}

func (s *ModuleService) Get(ctx context.Context, id string) (*domain.Module, error) {
	module, err := s.modules.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("module", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return module, nil
}

func (s *ModuleService) List(ctx context.Context, filter repository.ModuleFilter) ([]domain.Module, error) {
	modules, err := s.modules.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return modules, nil
}

func (s *ModuleService) Update(ctx context.Context, id string, in ModuleInput) (*domain.Module, error) {
	module, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, module, in); err != nil {
		return nil, err
	}
	if err := s.modules.Update(ctx, module); err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.Get(ctx, id)
}

func (s *ModuleService) apply(ctx context.Context, module *domain.Module, in ModuleInput) error {
	serial := strings.TrimSpace(in.SerialNumber)
	details := map[string]any{}
	if serial == "" {
		details["serial_number"] = "required"
	}
	if strings.TrimSpace(in.ModuleTypeID) == "" {
		details["module_type_id"] = "required"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid module", details)
	}
	if _, err := s.catalog.Get(ctx, in.ModuleTypeID); err != nil {
		return err
	}
	module.ModuleTypeID = in.ModuleTypeID
	module.SerialNumber = serial
	module.InstallDate = in.InstallDate
	module.Location = strings.TrimSpace(in.Location)
	return nil
}
