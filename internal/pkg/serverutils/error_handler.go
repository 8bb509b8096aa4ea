package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"screentosong-be/pkg/apperr"
)

// ErrorHandlerMiddleware converts errors bubbling out of handlers into the
// BaseResponse envelope. Failure kinds map to statuses: a frame that cannot
// be decoded is the client's fault (422); provider and render failures are
// upstream trouble (502).
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		if kind := apperr.KindOf(err); kind != "" {
			status := fiber.StatusBadGateway
			if kind == apperr.KindDecode {
				status = fiber.StatusUnprocessableEntity
			}
			return ctx.Status(status).JSON(ErrorResponseKind(status, string(kind), err.Error()))
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return ctx.Status(fe.Code).JSON(ErrorResponse(fe.Code, fe.Message))
		}

		return ctx.Status(fiber.StatusInternalServerError).
			JSON(ErrorResponse(fiber.StatusInternalServerError, err.Error()))
	}
}
