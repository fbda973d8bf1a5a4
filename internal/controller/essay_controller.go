package controller

import (
	"ai-studyquiz-be/internal/dto"
	"ai-studyquiz-be/internal/pkg/serverutils"
	"ai-studyquiz-be/internal/service"
	"ai-studyquiz-be/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IEssayController interface {
	RegisterRoutes(r fiber.Router)
	Grade(ctx *fiber.Ctx) error
	ListGradings(ctx *fiber.Ctx) error
}

type essayController struct {
	essayService service.IEssayService
}

func NewEssayController(essayService service.IEssayService) IEssayController {
	return &essayController{
		essayService: essayService,
	}
}

func (c *essayController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/essay/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("grade", c.Grade)
	h.Get("gradings", c.ListGradings)
}

func (c *essayController) Grade(ctx *fiber.Ctx) error {
	var req dto.GradeEssayRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.essayService.Grade(ctx.UserContext(), serverutils.UserID(ctx), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success grade essay", res))
}

// ListGradings accepts an optional ?documentId= filter.
func (c *essayController) ListGradings(ctx *fiber.Ctx) error {
	var documentId *uuid.UUID
	if raw := ctx.Query("documentId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return apperr.Validation("invalid documentId")
		}
		documentId = &id
	}

	res, err := c.essayService.ListGradings(ctx.UserContext(), serverutils.UserID(ctx), documentId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list essay gradings", res))
}
