package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fieldops/fieldservice/internal/api/dto"
	"github.com/fieldops/fieldservice/internal/domain"
	"github.com/fieldops/fieldservice/internal/repository"
	"github.com/fieldops/fieldservice/internal/service"
)

// ModulesHandler manages installed modules.
type ModulesHandler struct {
	modules *service.ModuleService
	cascade *service.CascadeService
}

// NewModulesHandler constructs handler.
func NewModulesHandler(modules *service.ModuleService, cascade *service.CascadeService) *ModulesHandler {
	return &ModulesHandler{modules: modules, cascade: cascade}
}

// Create POST /api/modules.
func (h *ModulesHandler) Create(c *fiber.Ctx) error {
	var req dto.ModuleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	module, err := h.modules.Create(c.UserContext(), moduleInput(req))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewModuleResponse(module)})
}

// List GET /api/modules.
func (h *ModulesHandler) List(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	modules, err := h.modules.List(c.UserContext(), repository.ModuleFilter{
		ClientID:     optionalQuery(c, "client_id"),
		ModuleTypeID: optionalQuery(c, "module_type_id"),
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": moduleResponses(modules)})
}

// Get GET /api/modules/:id.
func (h *ModulesHandler) Get(c *fiber.Ctx) error {
	module, err := h.modules.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewModuleResponse(module)})
}

// Update PUT /api/modules/:id.
func (h *ModulesHandler) Update(c *fiber.Ctx) error {
	var req dto.ModuleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	module, err := h.modules.Update(c.UserContext(), c.Params("id"), moduleInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewModuleResponse(module)})
}

// Delete DELETE /api/modules/:id removes the module with its tickets and documents.
func (h *ModulesHandler) Delete(c *fiber.Ctx) error {
	result, err := h.cascade.DeleteModule(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return cascadeResponse(c, result)
}

func moduleInput(req dto.ModuleRequest) service.ModuleInput {
	return service.ModuleInput{
		ClientID:     req.ClientID,
		ModuleTypeID: req.ModuleTypeID,
		SerialNumber: req.SerialNumber,
		InstallDate:  req.InstallDate,
		Location:     req.Location,
	}
}

func moduleResponses(modules []domain.Module) []dto.ModuleResponse {
	items := make([]dto.ModuleResponse, 0, len(modules))
	for i := range modules {
		items = append(items, dto.NewModuleResponse(&modules[i]))
	}
	return items
}
