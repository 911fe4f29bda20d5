package handlers

import (
	"time"

	"github.com/dynaqr/backend/internal/auth"
	"github.com/dynaqr/backend/internal/http/dto"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	challenger *auth.Challenger
	jwtSecret  string
	jwtExpiry  time.Duration
	log        *zap.Logger
}

func NewAuthHandler(challenger *auth.Challenger, jwtSecret string, jwtExpiry time.Duration, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		challenger: challenger,
		jwtSecret:  jwtSecret,
		jwtExpiry:  jwtExpiry,
		log:        log,
	}
}

// Challenge issues a one-time nonce for the wallet to sign.
// POST /auth/challenge
func (h *AuthHandler) Challenge(c *fiber.Ctx) error {
	var req dto.AuthChallengeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.Address == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "address is required"})
	}

	challenge, err := h.challenger.Challenge(c.Context(), req.Address)
	if err != nil {
		h.log.Debug("challenge issue failed", zap.String("address", req.Address), zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(dto.AuthChallengeResponse{Challenge: challenge})
}

// Verify checks the signed challenge and issues a JWT.
// POST /auth/verify
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	var req dto.AuthVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.Address == "" || req.Signature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "address and signature are required"})
	}

	if err := h.challenger.Verify(c.Context(), req.Address, req.Signature); err != nil {
		h.log.Debug("wallet proof rejected", zap.String("address", req.Address), zap.Error(err))
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "proof verification failed"})
	}

	token, err := auth.GenerateJWT(h.jwtSecret, req.Address, h.jwtExpiry)
	if err != nil {
		h.log.Error("jwt generation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.AuthResponse{Token: token, Address: req.Address})
}
