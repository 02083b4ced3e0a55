package controller

import (
	"errors"

	"ai-mangagen-be/internal/dto"
	"ai-mangagen-be/internal/pkg/serverutils"
	"ai-mangagen-be/internal/service"
	"ai-mangagen-be/pkg/pipeline"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IPipelineController interface {
	RegisterRoutes(r fiber.Router)
	Start(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
	Cancel(ctx *fiber.Ctx) error
	SubmitFeedback(ctx *fiber.Ctx) error
	SkipFeedback(ctx *fiber.Ctx) error
}

type pipelineController struct {
	pipelineService service.IPipelineService
}

func NewPipelineController(pipelineService service.IPipelineService) IPipelineController {
	return &pipelineController{
		pipelineService: pipelineService,
	}
}

func (c *pipelineController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/pipeline/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Start)
	h.Get("", c.List)
	h.Get(":id/status", c.Status)
	h.Post(":id/cancel", c.Cancel)
	h.Post(":id/feedback", c.SubmitFeedback)
	h.Post(":id/feedback/skip", c.SkipFeedback)
}

func (c *pipelineController) Start(ctx *fiber.Ctx) error {
	userId, email := callerIdentity(ctx)

	var req dto.StartSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.pipelineService.Start(ctx.Context(), userId, email, &req)
	if err != nil {
		return httpError(err)
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Success start session", res))
}

func (c *pipelineController) List(ctx *fiber.Ctx) error {
	userId, _ := callerIdentity(ctx)

	limit := ctx.QueryInt("limit", 20)
	offset := ctx.QueryInt("offset", 0)

	res, err := c.pipelineService.ListSessions(ctx.Context(), userId, limit, offset)
	if err != nil {
		return httpError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list sessions", res))
}

func (c *pipelineController) Status(ctx *fiber.Ctx) error {
	userId, _ := callerIdentity(ctx)

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return serverutils.NewAppError(fiber.StatusBadRequest, "Invalid session id", err)
	}

	res, err := c.pipelineService.GetStatus(ctx.Context(), userId, id)
	if err != nil {
		return httpError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get session status", res))
}

func (c *pipelineController) Cancel(ctx *fiber.Ctx) error {
	userId, _ := callerIdentity(ctx)

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return serverutils.NewAppError(fiber.StatusBadRequest, "Invalid session id", err)
	}

	if err := c.pipelineService.Cancel(ctx.Context(), userId, id); err != nil {
		return httpError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success cancel session", nil))
}

func (c *pipelineController) SubmitFeedback(ctx *fiber.Ctx) error {
	userId, _ := callerIdentity(ctx)

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return serverutils.NewAppError(fiber.StatusBadRequest, "Invalid session id", err)
	}

	var req dto.SubmitFeedbackRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.SessionId = id

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.pipelineService.SubmitFeedback(ctx.Context(), userId, &req); err != nil {
		return httpError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success submit feedback", nil))
}

func (c *pipelineController) SkipFeedback(ctx *fiber.Ctx) error {
	userId, _ := callerIdentity(ctx)

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return serverutils.NewAppError(fiber.StatusBadRequest, "Invalid session id", err)
	}

	var req dto.SkipFeedbackRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.SessionId = id

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.pipelineService.SkipFeedback(ctx.Context(), userId, &req); err != nil {
		return httpError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success skip feedback", nil))
}

func callerIdentity(ctx *fiber.Ctx) (uuid.UUID, string) {
	userId := uuid.Nil
	if s, ok := ctx.Locals("user_id").(string); ok {
		userId, _ = uuid.Parse(s)
	}
	email, _ := ctx.Locals("user_email").(string)
	return userId, email
}

// httpError translates domain errors into client-facing statuses.
func httpError(err error) error {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return serverutils.NewAppError(fiber.StatusNotFound, "Session not found", err)
	case errors.Is(err, service.ErrNotSessionOwner):
		return serverutils.NewAppError(fiber.StatusForbidden, "Session belongs to another user", err)
	case errors.Is(err, service.ErrSessionInactive):
		return serverutils.NewAppError(fiber.StatusConflict, "Session is not running", err)
	case errors.Is(err, pipeline.ErrStaleFeedback):
		return serverutils.NewAppError(fiber.StatusConflict, "Feedback window is closed for this phase", err)
	case errors.Is(err, pipeline.ErrFeedbackAlreadyOpen):
		return serverutils.NewAppError(fiber.StatusConflict, "A feedback window is already open", err)
	case errors.Is(err, pipeline.ErrUnknownPhase):
		return serverutils.NewAppError(fiber.StatusNotFound, "Unknown phase", err)
	default:
		return err
	}
}
