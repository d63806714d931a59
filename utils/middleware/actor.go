package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/manyagkarle13/syllabus-maker/services"
	"github.com/manyagkarle13/syllabus-maker/utils/validation"
)

const (
	// ActorHeader optionally names the person making a request
	ActorHeader = "X-Actor"
	// WarningHeader is set when a request succeeded with a degraded side effect
	WarningHeader = "X-Scheme-Warning"
)

// Actor builds the audit actor of a request from X-Actor and the client address.
func Actor(c *fiber.Ctx) services.Actor {
	name := validation.SanitizeString(c.Get(ActorHeader))
	if len(name) > 255 {
		name = name[:255]
	}
	return services.Actor{
		Name:      name,
		IP:        c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
}

// RequestID returns the id assigned by the requestid middleware.
func RequestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return c.GetRespHeader(fiber.HeaderXRequestID)
}
