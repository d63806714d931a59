package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/manyagkarle13/syllabus-maker/database"
	"github.com/manyagkarle13/syllabus-maker/utils/response"
)

// HandleCheckHealth handles GET /health
func HandleCheckHealth(c *fiber.Ctx, store database.Storage) error {
	if err := store.HealthCheck(); err != nil {
		return response.ServiceUnavailable(c, "database unreachable")
	}
	return c.JSON(fiber.Map{"status": "ok", "database": "ok"})
}
