package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/facturalo/emision-api/internal/application/billing"
	"github.com/facturalo/emision-api/internal/application/dto"
	"github.com/facturalo/emision-api/internal/domain"
)

// DocumentHandler maneja las peticiones HTTP del pipeline de emisión (protegido).
type DocumentHandler struct {
	emitUC  *billing.EmitDocumentUseCase
	queryUC *billing.DocumentQueryUseCase
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(emitUC *billing.EmitDocumentUseCase, queryUC *billing.DocumentQueryUseCase) *DocumentHandler {
	return &DocumentHandler{emitUC: emitUC, queryUC: queryUC}
}

// Emit crea y emite un documento tributario para una venta.
// POST /api/documents
//
// Un 500 NO significa "no pasó nada": si el documento alcanzó a persistirse,
// quedó en FAILED del lado del servidor y la respuesta incluye su document_id.
func (h *DocumentHandler) Emit(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "no autenticado"})
	}
	var in dto.EmitDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "cuerpo inválido"})
	}

	document, err := h.emitUC.Emit(c.Context(), companyID, in)
	if err != nil {
		return h.emitError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(dto.EmitDocumentResponse{Success: true, Document: document})
}

// emitError mapea la taxonomía de errores del pipeline a HTTP.
func (h *DocumentHandler) emitError(c *fiber.Ctx, err error) error {
	var emissionErr *billing.EmissionFailedError
	if errors.As(err, &emissionErr) {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error:      emissionErr.Error(),
			DocumentID: emissionErr.DocumentID,
		})
	}
	if errors.Is(err, domain.ErrInvalidInput) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "datos inválidos: se requiere customer y al menos un item"})
	}
	if errors.Is(err, domain.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "empresa no encontrada"})
	}
	// ConfigurationError, GenerationError, PersistenceError y cualquier otro
	// fallo interno: 500 con el mensaje para soporte.
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
}

// GetByID obtiene un documento con sus líneas y cliente.
// GET /api/documents/:id
func (h *DocumentHandler) GetByID(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "no autenticado"})
	}
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "id requerido"})
	}
	document, err := h.queryUC.GetDocument(c.Context(), companyID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "documento no encontrado"})
		}
		if errors.Is(err, domain.ErrForbidden) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: "acceso denegado"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(document)
}

// List lista los documentos del tenant con paginación.
// GET /api/documents?limit=&offset=
func (h *DocumentHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "no autenticado"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "paginación inválida"})
	}
	list, err := h.queryUC.ListDocuments(c.Context(), companyID, page)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(list)
}
