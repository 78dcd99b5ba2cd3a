package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fieldops/fieldservice/internal/api/dto"
	"github.com/fieldops/fieldservice/internal/service"
)

// ModuleTypesHandler manages the module catalog.
type ModuleTypesHandler struct {
	catalog *service.CatalogService
}

// NewModuleTypesHandler constructs handler.
func NewModuleTypesHandler(catalog *service.CatalogService) *ModuleTypesHandler {
	return &ModuleTypesHandler{catalog: catalog}
}

// Create POST /api/module-types.
func (h *ModuleTypesHandler) Create(c *fiber.Ctx) error {
	var req dto.ModuleTypeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	mt, err := h.catalog.Create(c.UserContext(), moduleTypeInput(req))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewModuleTypeResponse(mt)})
}

// List GET /api/module-types.
func (h *ModuleTypesHandler) List(c *fiber.Ctx) error {
	types, err := h.catalog.List(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.ModuleTypeResponse, 0, len(types))
	for i := range types {
		items = append(items, dto.NewModuleTypeResponse(&types[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /api/module-types/:id.
func (h *ModuleTypesHandler) Get(c *fiber.Ctx) error {
	mt, err := h.catalog.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewModuleTypeResponse(mt)})
}

// Update PUT /api/module-types/:id.
func (h *ModuleTypesHandler) Update(c *fiber.Ctx) error {
	var req dto.ModuleTypeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	mt, err := h.catalog.Update(c.UserContext(), c.Params("id"), moduleTypeInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewModuleTypeResponse(mt)})
}

// Delete DELETE /api/module-types/:id.
func (h *ModuleTypesHandler) Delete(c *fiber.Ctx) error {
	if err := h.catalog.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func moduleTypeInput(req dto.ModuleTypeRequest) service.ModuleTypeInput {
	return service.ModuleTypeInput{
		Name:         req.Name,
		Manufacturer: req.Manufacturer,
		Model:        req.Model,
		Description:  req.Description,
	}
}
