package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	traceIDHeader = "X-Trace-Id"
	traceIDLocal  = "trace_id"
)

// Tracing assigns every request a correlation id. The id is stored in
// Locals for the route logger and echoed in the X-Trace-Id response header
// so clients can quote it when reporting a failed call.
func Tracing() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := uuid.NewString()
		c.Locals(traceIDLocal, id)
		c.Set(traceIDHeader, id)
		return c.Next()
	}
}

// GetTraceID returns the request's correlation id, or "" outside Tracing.
func GetTraceID(c *fiber.Ctx) string {
	id, _ := c.Locals(traceIDLocal).(string)
	return id
}
