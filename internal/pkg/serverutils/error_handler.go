package serverutils

import (
	"errors"

	"screening-onboarding-be/internal/service"
	"screening-onboarding-be/pkg/dialogue"
	"screening-onboarding-be/pkg/filestore"
	"screening-onboarding-be/pkg/rag/index"
	"screening-onboarding-be/pkg/workflow/catalog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into JSON
// responses. Unknown errors become a generic 500.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if err == nil {
			return nil
		}
		code, res := MapError(err)
		return c.Status(code).JSON(res)
	}
}

// MapError picks the status code and body for err.
func MapError(err error) (int, Response) {
	var (
		payloadErr    *dialogue.PayloadError
		validationErr validator.ValidationErrors
		fiberErr      *fiber.Error
	)
	switch {
	case errors.As(err, &payloadErr):
		return fiber.StatusUnprocessableEntity, ErrorResponseWithDetails(fiber.StatusUnprocessableEntity, "Malformed resume payload", fiber.Map{
			"kind":   payloadErr.Kind,
			"reason": payloadErr.Reason,
		})
	case errors.Is(err, dialogue.ErrUnexpectedPayload):
		return fiber.StatusUnprocessableEntity, ErrorResponse(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrThreadNotFound):
		return fiber.StatusNotFound, ErrorResponse(fiber.StatusNotFound, "Thread not found")
	case errors.As(err, &validationErr):
		return fiber.StatusBadRequest, ErrorResponseWithDetails(fiber.StatusBadRequest, "Validation failed", fieldErrors(validationErr))
	case errors.Is(err, catalog.ErrUnknownWorkflow),
		errors.Is(err, index.ErrInvalidCorpus),
		errors.Is(err, filestore.ErrInvalidName):
		return fiber.StatusBadRequest, ErrorResponse(fiber.StatusBadRequest, err.Error())
	case errors.As(err, &fiberErr):
		return fiberErr.Code, ErrorResponse(fiberErr.Code, fiberErr.Message)
	}
	return fiber.StatusInternalServerError, ErrorResponse(fiber.StatusInternalServerError, "Internal server error")
}
