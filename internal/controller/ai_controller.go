package controller

import (
	"ai-studyquiz-be/internal/pkg/serverutils"
	"ai-studyquiz-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAIController interface {
	RegisterRoutes(r fiber.Router)
	Status(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
}

type aiController struct {
	aiStatusService service.IAIStatusService
}

func NewAIController(aiStatusService service.IAIStatusService) IAIController {
	return &aiController{
		aiStatusService: aiStatusService,
	}
}

func (c *aiController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/ai/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("status", c.Status)
	h.Post("status/reset", c.Reset)
}

func (c *aiController) Status(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success get AI status", c.aiStatusService.Status(ctx.UserContext())))
}

func (c *aiController) Reset(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("AI quota flag reset", c.aiStatusService.Reset(ctx.UserContext())))
}
