package handler

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fadilmartias/interview-proctor/internal/dto"
	"github.com/fadilmartias/interview-proctor/internal/middleware"
	"github.com/fadilmartias/interview-proctor/internal/usecase"
	"github.com/fadilmartias/interview-proctor/internal/util"
	"github.com/gofiber/fiber/v2"
)

// WebhookPath receives the voice provider's call events.
const WebhookPath = "/api/webhook"

const (
	maxResumeSize    = 5 * 1024 * 1024
	maxRecordingSize = 200 * 1024 * 1024
)

type CandidateService interface {
	ProcessResume(ctx context.Context, userID, fileName string, data []byte) (*dto.ResumeResult, error)
	GenerateQuestions(ctx context.Context, resumeText string) (string, error)
	UpdateStatus(ctx context.Context, rawID, status string) (bool, error)
	SaveRecording(ctx context.Context, rawID string, data []byte) (string, bool, error)
	Notify(ctx context.Context, req dto.NotifyRequest) error
}

type ViolationRecorder interface {
	Record(ctx context.Context, sessionID, rawType string) error
}

type CallReportIngestor interface {
	Ingest(ctx context.Context, body []byte) (usecase.IngestOutcome, error)
}

// InterviewHandler serves the candidate-facing and provider-facing routes.
type InterviewHandler struct {
	candidates    CandidateService
	violations    ViolationRecorder
	reports       CallReportIngestor
	webhookSecret string
}

func NewInterviewHandler(candidates CandidateService, violations ViolationRecorder, reports CallReportIngestor, webhookSecret string) *InterviewHandler {
	return &InterviewHandler{
		candidates:    candidates,
		violations:    violations,
		reports:       reports,
		webhookSecret: webhookSecret,
	}
}

func (h *InterviewHandler) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api")
	api.Post("/resume", middleware.RequireUser(), middleware.RateLimiter(5, time.Minute), h.UploadResume)
	api.Post("/analyze", middleware.RateLimiter(10, time.Minute), h.Analyze)
	api.Post("/proctor-log", h.ProctorLog)
	api.Post("/sessions/:id/status", h.UpdateStatus)
	api.Post("/sessions/:id/recording", h.UploadRecording)
	api.Post("/notify", h.Notify)

	app.Post(WebhookPath, middleware.WebhookSecret(h.webhookSecret), h.Webhook)
}

func (h *InterviewHandler) UploadResume(c *fiber.Ctx) error {
	file, err := c.FormFile("resume")
	if err != nil {
		return badRequest(c, "resume file is required", err)
	}
	if file.Size > maxResumeSize {
		return badRequest(c, "resume file size is too large (max 5MB)", nil)
	}
	data, err := readFormFile(c, "resume")
	if err != nil {
		return badRequest(c, "cannot read resume file", err)
	}

	userID, _ := c.Locals(middleware.UserIDLocal).(string)
	result, err := h.candidates.ProcessResume(c.UserContext(), userID, file.Filename, data)
	if err != nil {
		return respondError(c, err, "upload failed")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusCreated,
		Message: "Resume processed",
		Data:    result,
	})
}

func (h *InterviewHandler) Analyze(c *fiber.Ctx) error {
	var req dto.AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body", err)
	}
	text, err := h.candidates.GenerateQuestions(c.UserContext(), req.ResumeText)
	if err != nil {
		return respondError(c, err, "failed to generate questions")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Questions generated",
		Data:    fiber.Map{"text": text},
	})
}

func (h *InterviewHandler) ProctorLog(c *fiber.Ctx) error {
	var req dto.ViolationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body", err)
	}
	if err := h.violations.Record(c.UserContext(), req.Session(), req.Type); err != nil {
		return respondError(c, err, "failed to record violation")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Violation recorded",
	})
}

// Webhook receives voice provider events. Only the end-of-call report
// changes state; everything else is acknowledged and dropped.
func (h *InterviewHandler) Webhook(c *fiber.Ctx) error {
	outcome, err := h.reports.Ingest(c.UserContext(), c.Body())
	if err != nil {
		return respondError(c, err, "failed to ingest call report")
	}
	if outcome == usecase.OutcomeIgnored {
		return util.SuccessResponse(c, util.SuccessResponseFormat{
			Code:    fiber.StatusOK,
			Message: "Event ignored",
			Data:    fiber.Map{"ignored": true},
		})
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Session completed",
	})
}

func (h *InterviewHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body", err)
	}
	updated, err := h.candidates.UpdateStatus(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		return respondError(c, err, "failed to update status")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Status updated",
		Data:    fiber.Map{"updated": updated},
	})
}

func (h *InterviewHandler) UploadRecording(c *fiber.Ctx) error {
	file, err := c.FormFile("recording")
	if err != nil {
		return badRequest(c, "recording file is required", err)
	}
	if file.Size > maxRecordingSize {
		return badRequest(c, fmt.Sprintf("recording is too large (max %dMB)", maxRecordingSize/1024/1024), nil)
	}
	data, err := readFormFile(c, "recording")
	if err != nil {
		return badRequest(c, "cannot read recording", err)
	}

	url, attached, err := h.candidates.SaveRecording(c.UserContext(), c.Params("id"), data)
	if err != nil {
		return respondError(c, err, "failed to store recording")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusCreated,
		Message: "Recording stored",
		Data:    fiber.Map{"url": url, "attached": attached},
	})
}

func (h *InterviewHandler) Notify(c *fiber.Ctx) error {
	var req dto.NotifyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body", err)
	}
	if err := h.candidates.Notify(c.UserContext(), req); err != nil {
		return respondError(c, err, "failed to publish decision")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Decision logged successfully.",
	})
}

func readFormFile(c *fiber.Ctx, field string) ([]byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
