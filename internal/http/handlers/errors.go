package handlers

import (
	"errors"

	"github.com/dynaqr/backend/internal/apperrors"
	"github.com/dynaqr/backend/internal/http/dto"
	"github.com/dynaqr/backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
)

// writeError maps a typed error onto an HTTP response. Anything without a
// code is an internal error; the message is not leaked.
func writeError(c *fiber.Ctx, err error) error {
	var ae *apperrors.Error
	if !errors.As(err, &ae) {
		reqID, _ := c.Locals(middleware.CtxRequestID).(string)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error:     "internal error",
			RequestID: reqID,
		})
	}

	return c.Status(statusFor(ae.Code)).JSON(dto.ErrorResponse{
		Error:   ae.Message,
		Code:    string(ae.Code),
		Details: ae.Details,
	})
}

func statusFor(code apperrors.Code) int {
	switch code {
	case apperrors.CodeInvalidArgument, apperrors.CodeUserCancelled:
		return fiber.StatusBadRequest
	case apperrors.CodeWalletNotConnected:
		return fiber.StatusUnauthorized
	case apperrors.CodeInsufficientBalance:
		return fiber.StatusPaymentRequired
	case apperrors.CodeNotAuthorized, apperrors.CodeAccessDenied:
		return fiber.StatusForbidden
	case apperrors.CodeEventNotFound:
		return fiber.StatusNotFound
	case apperrors.CodeEventExpired, apperrors.CodeEventInactive:
		return fiber.StatusGone
	case apperrors.CodeConnectionFailed, apperrors.CodeTransactionFailed:
		return fiber.StatusBadGateway
	case apperrors.CodeConfirmationTimeout:
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}
