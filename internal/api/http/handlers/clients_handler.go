package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fieldops/fieldservice/internal/api/dto"
	"github.com/fieldops/fieldservice/internal/domain"
	"github.com/fieldops/fieldservice/internal/repository"
	"github.com/fieldops/fieldservice/internal/service"
)

// ClientsHandler manages client endpoints.
type ClientsHandler struct {
	clients *service.ClientService
	modules *service.ModuleService
	cascade *service.CascadeService
}

// NewClientsHandler constructs handler.
func NewClientsHandler(clients *service.ClientService, modules *service.ModuleService, cascade *service.CascadeService) *ClientsHandler {
	return &ClientsHandler{clients: clients, modules: modules, cascade: cascade}
}

// Create POST /api/clients.
func (h *ClientsHandler) Create(c *fiber.Ctx) error {
	var req dto.ClientRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	client, err := h.clients.Create(c.UserContext(), clientInput(req))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewClientResponse(client)})
}

// List GET /api/clients.
func (h *ClientsHandler) List(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	clients, err := h.clients.List(c.UserContext(), repository.ClientFilter{
		SearchTerm: optionalQuery(c, "q"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return err
	}
	items := make([]dto.ClientResponse, 0, len(clients))
	for i := range clients {
		items = append(items, dto.NewClientResponse(&clients[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /api/clients/:id.
func (h *ClientsHandler) Get(c *fiber.Ctx) error {
	client, err := h.clients.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewClientResponse(client)})
}

// Update PUT /api/clients/:id.
func (h *ClientsHandler) Update(c *fiber.Ctx) error {
	var req dto.ClientRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	client, err := h.clients.Update(c.UserContext(), c.Params("id"), clientInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewClientResponse(client)})
}

// Delete DELETE /api/clients/:id removes the client and everything under it.
func (h *ClientsHandler) Delete(c *fiber.Ctx) error {
	result, err := h.cascade.DeleteClient(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return cascadeResponse(c, result)
}

// Modules GET /api/clients/:id/modules.
func (h *ClientsHandler) Modules(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := h.clients.Get(c.UserContext(), id); err != nil {
		return err
	}
	modules, err := h.modules.List(c.UserContext(), repository.ModuleFilter{ClientID: &id})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": moduleResponses(modules)})
}

func clientInput(req dto.ClientRequest) service.ClientInput {
	return service.ClientInput{
		Name:        req.Name,
		ContactName: req.ContactName,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		Notes:       req.Notes,
	}
}

// cascadeResponse answers 200 when everything is gone and 207 when
// some dependents survived.
func cascadeResponse(c *fiber.Ctx, result *domain.CascadeResult) error {
	status := fiber.StatusOK
	if !result.Complete() {
		status = fiber.StatusMultiStatus
	}
	return c.Status(status).JSON(fiber.Map{"data": dto.NewCascadeResultResponse(result)})
}
