package router

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/TEMPERINE/wa-qr-connector/pkg/log"
)

// HttpErrorHandler turns unhandled fiber errors into the enveloped
// JSON shape, tagged with the request id assigned by HttpRequestID.
func HttpErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	response := Response{
		Status:  false,
		Code:    code,
		Message: message,
		Error:   message,
	}

	entry := log.Print(c)
	if requestID, ok := c.Locals("request_id").(string); ok && requestID != "" {
		entry = entry.WithField("request_id", requestID)
	}
	entry.Error(fmt.Sprintf("%d %v", code, message))

	return c.Status(code).JSON(response)
}
