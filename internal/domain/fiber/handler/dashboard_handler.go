package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/fadilmartias/interview-proctor/internal/dto"
	"github.com/fadilmartias/interview-proctor/internal/middleware"
	"github.com/fadilmartias/interview-proctor/internal/model"
	"github.com/fadilmartias/interview-proctor/internal/response"
	"github.com/fadilmartias/interview-proctor/internal/util"
	"github.com/gofiber/fiber/v2"
)

type DashboardService interface {
	ListCandidates(ctx context.Context, page, pageSize int) ([]dto.CandidateSummary, *response.Pagination, error)
	CandidateDetail(ctx context.Context, rawID string) (*dto.CandidateDetail, error)
	Decide(ctx context.Context, rawID, status string) (*dto.CandidateSummary, error)
	Export(ctx context.Context) ([]byte, error)
	CreateRole(ctx context.Context, title, content string) (*model.InterviewRole, error)
}

// DashboardHandler serves the admin review routes.
type DashboardHandler struct {
	svc        DashboardService
	adminToken string
	now        func() time.Time
}

func NewDashboardHandler(svc DashboardService, adminToken string) *DashboardHandler {
	return &DashboardHandler{svc: svc, adminToken: adminToken, now: time.Now}
}

func (h *DashboardHandler) RegisterRoutes(app *fiber.App) {
	admin := middleware.AdminOnly(h.adminToken)

	dashboard := app.Group("/api/dashboard", admin)
	dashboard.Get("/candidates", h.List)
	dashboard.Get("/candidates/:id", h.Detail)
	dashboard.Post("/candidates/:id/decision", h.Decide)
	dashboard.Get("/export", h.Export)

	app.Post("/api/roles", admin, h.CreateRole)
}

func (h *DashboardHandler) List(c *fiber.Ctx) error {
	rows, pagination, err := h.svc.ListCandidates(c.UserContext(), c.QueryInt("page", 1), c.QueryInt("page_size", 20))
	if err != nil {
		return respondError(c, err, "failed to list candidates")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:       fiber.StatusOK,
		Message:    "Success get candidates",
		Data:       rows,
		Pagination: pagination,
	})
}

func (h *DashboardHandler) Detail(c *fiber.Ctx) error {
	detail, err := h.svc.CandidateDetail(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err, "failed to get candidate")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: "Success get candidate",
		Data:    detail,
	})
}

func (h *DashboardHandler) Decide(c *fiber.Ctx) error {
	var req dto.DecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body", err)
	}
	summary, err := h.svc.Decide(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		return respondError(c, err, "failed to record decision")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusOK,
		Message: fmt.Sprintf("Candidate %s", req.Status),
		Data:    summary,
	})
}

func (h *DashboardHandler) Export(c *fiber.Ctx) error {
	data, err := h.svc.Export(c.UserContext())
	if err != nil {
		return respondError(c, err, "failed to export candidates")
	}
	c.Attachment(fmt.Sprintf("candidates-%s.xlsx", h.now().Format("20060102")))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	return c.Status(fiber.StatusOK).Send(data)
}

func (h *DashboardHandler) CreateRole(c *fiber.Ctx) error {
	var req dto.RoleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body", err)
	}
	role, err := h.svc.CreateRole(c.UserContext(), req.Title, req.Content)
	if err != nil {
		return respondError(c, err, "failed to create role")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusCreated,
		Message: "Role created",
		Data:    role,
	})
}
