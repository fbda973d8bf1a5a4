package controller

import (
	"ai-studyquiz-be/internal/dto"
	"ai-studyquiz-be/internal/pkg/serverutils"
	"ai-studyquiz-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IQuizController interface {
	RegisterRoutes(r fiber.Router)
	Generate(ctx *fiber.Ctx) error
	Evaluate(ctx *fiber.Ctx) error
	GenerateForDocument(ctx *fiber.Ctx) error
	RegenerateQuestion(ctx *fiber.Ctx) error
	ExplainQuestion(ctx *fiber.Ctx) error
	Submit(ctx *fiber.Ctx) error
	ListAttempts(ctx *fiber.Ctx) error
}

type quizController struct {
	quizService service.IQuizService
}

func NewQuizController(quizService service.IQuizService) IQuizController {
	return &quizController{
		quizService: quizService,
	}
}

func (c *quizController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/quiz/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("generate", c.Generate)
	h.Post("evaluate", c.Evaluate)
	h.Post("document/:id/generate", c.GenerateForDocument)
	h.Put("document/:id/questions/:index/regenerate", c.RegenerateQuestion)
	h.Post("document/:id/questions/:index/explain", c.ExplainQuestion)
	h.Post("document/:id/submit", c.Submit)
	h.Get("document/:id/attempts", c.ListAttempts)
}

func (c *quizController) Generate(ctx *fiber.Ctx) error {
	var req dto.GenerateQuizRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.quizService.Generate(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success generate quiz", res))
}

func (c *quizController) Evaluate(ctx *fiber.Ctx) error {
	var req dto.EvaluateQuizRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.quizService.Evaluate(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success evaluate quiz", res))
}

func (c *quizController) GenerateForDocument(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.GenerateDocumentQuizRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err = serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.quizService.GenerateForDocument(ctx.UserContext(), serverutils.UserID(ctx), id, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success generate document quiz", res))
}

func (c *quizController) RegenerateQuestion(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	index, err := indexParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.quizService.RegenerateQuestion(ctx.UserContext(), serverutils.UserID(ctx), id, index)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success regenerate question", res))
}

func (c *quizController) ExplainQuestion(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}
	index, err := indexParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.quizService.ExplainQuestion(ctx.UserContext(), serverutils.UserID(ctx), id, index)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success explain question", res))
}

func (c *quizController) Submit(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.SubmitQuizRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err = serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.quizService.Submit(ctx.UserContext(), serverutils.UserID(ctx), id, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success submit quiz", res))
}

func (c *quizController) ListAttempts(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.quizService.ListAttempts(ctx.UserContext(), serverutils.UserID(ctx), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list quiz attempts", res))
}
