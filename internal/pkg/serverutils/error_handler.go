package serverutils

import (
	"encoding/json"
	"errors"
	"log"

	"ai-studyquiz-be/pkg/apperr"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into the standard
// error envelope. apperr kinds decide the status code.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return WriteError(ctx, err)
	}
}

func WriteError(ctx *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return ctx.Status(fe.Code).JSON(ErrorResponse(fe.Code, fe.Message))
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		err = apperr.New(apperr.KindValidation, "invalid_body", "Invalid request body", err)
	}

	status := apperr.HTTPStatus(err)
	res := ErrorResponse(status, err.Error())
	res.Error = apperr.CodeOf(err)
	if status == fiber.StatusInternalServerError {
		log.Printf("[ERROR] %s %s: %v", ctx.Method(), ctx.Path(), err)
		res.Message = "Internal server error"
	}
	return ctx.Status(status).JSON(res)
}
