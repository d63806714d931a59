package activity

import (
	"github.com/gofiber/fiber/v2"
	"github.com/manyagkarle13/syllabus-maker/services"
	"github.com/manyagkarle13/syllabus-maker/utils/response"
)

// ActivityHandler serves the audit trail
type ActivityHandler struct {
	service *services.ActivityService
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(service *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{service: service}
}

// ListActivity handles GET /api/v1/activity
func (h *ActivityHandler) ListActivity(c *fiber.Ctx) error {
	page, limit := services.NormalizePage(c.QueryInt("page", 1), c.QueryInt("limit", 20))

	logs, total, err := h.service.List(c.UserContext(), services.ActivityFilter{
		Action:     c.Query("action"),
		ObjectType: c.Query("object_type"),
		ObjectID:   uint(c.QueryInt("object_id")),
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch activity")
	}

	return response.Paginated(c, logs, response.CalculatePagination(page, limit, total))
}
