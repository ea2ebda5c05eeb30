package util

import (
	"runtime/debug"

	"github.com/fadilmartias/interview-proctor/internal/config"
	"github.com/fadilmartias/interview-proctor/internal/response"
	"github.com/gofiber/fiber/v2"
)

type SuccessResponseFormat struct {
	Code       int
	Message    string
	Data       any
	Pagination *response.Pagination
}

type successEnvelope struct {
	Success    bool                 `json:"success"`
	Message    string               `json:"message"`
	Pagination *response.Pagination `json:"pagination,omitempty"`
	Data       any                  `json:"data,omitempty"`
}

type ErrorResponseFormat struct {
	Code    int
	Message string
	// Details is returned in every environment, e.g. the offending field.
	Details any
}

type errorEnvelope struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	DevMessage string `json:"dev_message,omitempty"`
	Details    any    `json:"details,omitempty"`
	Trace      string `json:"trace,omitempty"`
}

// SuccessResponse writes the standard success envelope.
func SuccessResponse(c *fiber.Ctx, params SuccessResponseFormat) error {
	code := params.Code
	if code == 0 {
		code = fiber.StatusOK
	}
	return c.Status(code).JSON(successEnvelope{
		Success:    true,
		Message:    params.Message,
		Data:       params.Data,
		Pagination: params.Pagination,
	})
}

// ErrorResponse writes the standard error envelope. Outside production the
// cause is echoed as dev_message, with a stack trace for server errors.
func ErrorResponse(c *fiber.Ctx, params ErrorResponseFormat, errs ...error) error {
	code := params.Code
	if code == 0 {
		code = fiber.StatusInternalServerError
	}
	body := errorEnvelope{
		Success: false,
		Message: params.Message,
		Details: params.Details,
	}
	if !config.LoadAppConfig().IsProduction() && len(errs) > 0 && errs[0] != nil {
		body.DevMessage = errs[0].Error()
		if code >= fiber.StatusInternalServerError {
			body.Trace = string(debug.Stack())
		}
	}
	return c.Status(code).JSON(body)
}
