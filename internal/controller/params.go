package controller

import (
	"strconv"

	"ai-studyquiz-be/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func uuidParam(ctx *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params(name))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid " + name)
	}
	return id, nil
}

func indexParam(ctx *fiber.Ctx) (int, error) {
	index, err := strconv.Atoi(ctx.Params("index"))
	if err != nil {
		return 0, apperr.Validation("invalid question index")
	}
	return index, nil
}
