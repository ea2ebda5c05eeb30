package handler

import (
	"errors"

	"github.com/fadilmartias/interview-proctor/internal/callreport"
	"github.com/fadilmartias/interview-proctor/internal/usecase"
	"github.com/fadilmartias/interview-proctor/internal/util"
	"github.com/gofiber/fiber/v2"
)

// respondError maps the usecase error taxonomy onto HTTP statuses.
func respondError(c *fiber.Ctx, err error, message string) error {
	code := fiber.StatusInternalServerError
	var details any

	var (
		validationErr  *usecase.ValidationError
		correlationErr *callreport.CorrelationError
		persistenceErr *usecase.PersistenceError
	)
	switch {
	case errors.As(err, &validationErr):
		code = fiber.StatusBadRequest
		message = validationErr.Error()
		details = fiber.Map{validationErr.Field: validationErr.Message}
	case errors.Is(err, usecase.ErrUnauthenticated):
		code = fiber.StatusUnauthorized
		message = err.Error()
	case errors.Is(err, usecase.ErrSessionNotFound):
		code = fiber.StatusNotFound
		message = "session not found"
	case errors.As(err, &correlationErr):
		code = fiber.StatusBadRequest
		message = "missing db_id"
		details = fiber.Map{"tried": correlationErr.Tried}
	case errors.Is(err, callreport.ErrMalformedPayload):
		code = fiber.StatusBadRequest
		message = err.Error()
	case errors.As(err, &persistenceErr):
		code = fiber.StatusInternalServerError
	}

	return util.ErrorResponse(c, util.ErrorResponseFormat{
		Code:    code,
		Message: message,
		Details: details,
	}, err)
}

func badRequest(c *fiber.Ctx, message string, err error) error {
	return util.ErrorResponse(c, util.ErrorResponseFormat{
		Code:    fiber.StatusBadRequest,
		Message: message,
	}, err)
}
