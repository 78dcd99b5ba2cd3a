package service

import (
	"context"
	"strings"

	"github.com/fieldops/fieldservice/internal/domain"
	"github.com/fieldops/fieldservice/internal/repository"
	apperrors "github.com/fieldops/fieldservice/pkg/util/errorutil"
)

// CatalogService manages module types.
type CatalogService struct {
	types   repository.ModuleTypeRepository
	modules repository.ModuleRepository
}

// ModuleTypeInput is the writable part of a module type.
type ModuleTypeInput struct {
	Name         string
	Manufacturer string
	Model        string
	Description  string
}

// NewCatalogService constructs the service.
func NewCatalogService(types repository.ModuleTypeRepository, modules repository.ModuleRepository) *CatalogService {
	return &CatalogService{types: types, modules: modules}
}

func (in ModuleTypeInput) apply(mt *domain.ModuleType) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return apperrors.NewValidationError("invalid module type", map[string]any{"name": "required"})
	}
	mt.Name = name
	mt.Manufacturer = strings.TrimSpace(in.Manufacturer)
	mt.Model = strings.TrimSpace(in.Model)
	mt.Description = in.Description
	return nil
}

func (s *CatalogService) Create(ctx context.Context, in ModuleTypeInput) (*domain.ModuleType, error) {
	mt := &domain.ModuleType{}
	if err := in.apply(mt); err != nil {
		return nil, err
	}
	if err := s.types.Create(ctx, mt); err != nil {
		return nil, apperrors.MapError(err)
	}
	return mt, nil
}

func (s *CatalogService) Get(ctx context.Context, id string) (*domain.ModuleType, error) {
	mt, err := s.types.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("module type", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return mt, nil
}

func (s *CatalogService) List(ctx context.Context) ([]domain.ModuleType, error) {
	types, err := s.types.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return types, nil
}

func (s *CatalogService) Update(ctx context.Context, id string, in ModuleTypeInput) (*domain.ModuleType, error) {
	mt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.apply(mt); err != nil {
		return nil, err
	}
	if err := s.types.Update(ctx, mt); err != nil {
		return nil, apperrors.MapError(err)
	}
	return mt, nil
}

// Delete refuses while installed modules still reference the type.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	inUse, err := s.modules.Count(ctx, repository.ModuleFilter{ModuleTypeID: &id})
	if err != nil {
		return apperrors.MapError(err)
	}
	if inUse > 0 {
		return apperrors.NewConflict("module type in use", map[string]any{"modules": inUse})
	}
	return apperrors.MapError(s.types.Delete(ctx, id))
}
