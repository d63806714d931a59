package scheme

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/manyagkarle13/syllabus-maker/services"
	"github.com/manyagkarle13/syllabus-maker/services/render"
	"github.com/manyagkarle13/syllabus-maker/utils/middleware"
	"github.com/manyagkarle13/syllabus-maker/utils/response"
)

// ListDocuments handles GET /api/v1/scheme-documents
func (h *SchemeHandler) ListDocuments(c *fiber.Ctx) error {
	page, limit := services.NormalizePage(c.QueryInt("page", 1), c.QueryInt("limit", 20))
	filter := services.DocumentFilter{
		BranchID: uint(c.QueryInt("branch_id")),
		Year:     c.QueryInt("year"),
		Semester: c.QueryInt("semester"),
		Trashed:  c.QueryBool("trashed"),
		Page:     page,
		Limit:    limit,
	}

	docs, total, err := h.service.ListDocuments(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return response.Paginated(c, docs, response.CalculatePagination(filter.Page, filter.Limit, total))
}

// GetDocument handles GET /api/v1/scheme-documents/:id
func (h *SchemeHandler) GetDocument(c *fiber.Ctx) error {
	id, ok := documentID(c)
	if !ok {
		return response.BadRequest(c, "Invalid document ID")
	}

	doc, err := h.service.GetDocument(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, doc)
}

// DownloadDocument handles GET /api/v1/scheme-documents/:id/download
func (h *SchemeHandler) DownloadDocument(c *fiber.Ctx) error {
	id, ok := documentID(c)
	if !ok {
		return response.BadRequest(c, "Invalid document ID")
	}

	doc, content, err := h.service.DownloadDocument(c.UserContext(), id, middleware.Actor(c))
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, render.PDFContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, doc.Filename))
	return c.Send(content)
}

// TrashDocument handles POST /api/v1/scheme-documents/:id/trash
func (h *SchemeHandler) TrashDocument(c *fiber.Ctx) error {
	id, ok := documentID(c)
	if !ok {
		return response.BadRequest(c, "Invalid document ID")
	}

	doc, err := h.service.TrashDocument(c.UserContext(), id, middleware.Actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return response.SuccessWithMessage(c, "Document moved to trash", doc)
}

// RestoreDocument handles POST /api/v1/scheme-documents/:id/restore
func (h *SchemeHandler) RestoreDocument(c *fiber.Ctx) error {
	id, ok := documentID(c)
	if !ok {
		return response.BadRequest(c, "Invalid document ID")
	}

	doc, err := h.service.RestoreDocument(c.UserContext(), id, middleware.Actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return response.SuccessWithMessage(c, "Document restored", doc)
}

// DeleteDocument handles DELETE /api/v1/scheme-documents/:id. Only trashed
// documents can be deleted.
func (h *SchemeHandler) DeleteDocument(c *fiber.Ctx) error {
	id, ok := documentID(c)
	if !ok {
		return response.BadRequest(c, "Invalid document ID")
	}

	if err := h.service.DeleteDocument(c.UserContext(), id, middleware.Actor(c)); err != nil {
		return respondError(c, err)
	}
	return response.SuccessWithMessage(c, "Document permanently deleted", nil)
}

// RegenerateDocument handles POST /api/v1/scheme-documents/:id/regenerate
func (h *SchemeHandler) RegenerateDocument(c *fiber.Ctx) error {
	id, ok := documentID(c)
	if !ok {
		return response.BadRequest(c, "Invalid document ID")
	}

	result, err := h.service.RegenerateDocument(c.UserContext(), id, middleware.Actor(c), middleware.RequestID(c))
	if err != nil {
		return respondError(c, err)
	}
	return sendBuild(c, result)
}

func documentID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
