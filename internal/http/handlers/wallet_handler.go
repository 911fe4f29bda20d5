package handlers

import (
	"github.com/dynaqr/backend/internal/http/dto"
	"github.com/dynaqr/backend/internal/wallet"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type WalletHandler struct {
	session *wallet.Session
	log     *zap.Logger
}

func NewWalletHandler(session *wallet.Session, log *zap.Logger) *WalletHandler {
	return &WalletHandler{session: session, log: log}
}

// Connect opens a wallet connection via the requested provider.
// POST /wallet/connect
func (h *WalletHandler) Connect(c *fiber.Ctx) error {
	var req dto.ConnectWalletRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	account, err := h.session.Connect(c.Context(), req.Provider)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: account})
}

// Disconnect closes the active connection.
// DELETE /wallet
func (h *WalletHandler) Disconnect(c *fiber.Ctx) error {
	if err := h.session.Disconnect(c.Context()); err != nil {
		h.log.Warn("wallet disconnect failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "failed to disconnect wallet"})
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// Get returns the active account, or null when nothing is connected.
// GET /wallet
func (h *WalletHandler) Get(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: h.session.Account()})
}
