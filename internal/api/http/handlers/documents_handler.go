package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fieldops/fieldservice/internal/api/dto"
	"github.com/fieldops/fieldservice/internal/repository"
	"github.com/fieldops/fieldservice/internal/service"
	apperrors "github.com/fieldops/fieldservice/pkg/util/errorutil"
)

// DocumentsHandler manages the document library.
type DocumentsHandler struct {
	documents      *service.DocumentService
	maxUploadBytes int
}

// NewDocumentsHandler constructs handler.
func NewDocumentsHandler(documents *service.DocumentService, maxUploadBytes int) *DocumentsHandler {
	return &DocumentsHandler{documents: documents, maxUploadBytes: maxUploadBytes}
}

// Upload POST /api/documents (multipart: file, name, client_id, module_id, module_type_id).
func (h *DocumentsHandler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("file required", map[string]any{"file": "required"})
	}
	data, err := readFile(fh, h.maxUploadBytes)
	if err != nil {
		return err
	}
	doc, err := h.documents.Upload(c.UserContext(), service.DocumentUpload{
		Name:         c.FormValue("name"),
		Filename:     fh.Filename,
		ContentType:  contentType(fh),
		Data:         data,
		ClientID:     optionalForm(c, "client_id"),
		ModuleID:     optionalForm(c, "module_id"),
		ModuleTypeID: optionalForm(c, "module_type_id"),
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewDocumentResponse(doc)})
}

// List GET /api/documents.
func (h *DocumentsHandler) List(c *fiber.Ctx) error {
	docs, err := h.documents.List(c.UserContext(), repository.DocumentFilter{
		ClientID:     optionalQuery(c, "client_id"),
		ModuleID:     optionalQuery(c, "module_id"),
		ModuleTypeID: optionalQuery(c, "module_type_id"),
	})
	if err != nil {
		return err
	}
	items := make([]dto.DocumentResponse, 0, len(docs))
	for i := range docs {
		items = append(items, dto.NewDocumentResponse(&docs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Delete DELETE /api/documents/:id.
func (h *DocumentsHandler) Delete(c *fiber.Ctx) error {
	if err := h.documents.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
