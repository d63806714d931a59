package utils

import (
	fiber "github.com/gofiber/fiber/v2"
	"github.com/manyagkarle13/syllabus-maker/database"
	"github.com/manyagkarle13/syllabus-maker/utils/response"
)

// MakeHTTPHandleFunc adapts a handler that needs the storage to a fiber
// handler. A returned error becomes a 500 response.
func MakeHTTPHandleFunc(handler func(c *fiber.Ctx, store database.Storage) error, store database.Storage) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		if err := handler(c, store); err != nil {
			return response.InternalServerError(c, err.Error())
		}
		return nil
	}
}
