package handlers

import (
	"github.com/dynaqr/backend/internal/http/dto"
	"github.com/dynaqr/backend/internal/models"
	"github.com/dynaqr/backend/internal/registry"
	"github.com/dynaqr/backend/internal/wallet"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type RegistrationHandler struct {
	registry *registry.Registry
	session  *wallet.Session
	log      *zap.Logger
}

func NewRegistrationHandler(reg *registry.Registry, session *wallet.Session, log *zap.Logger) *RegistrationHandler {
	return &RegistrationHandler{registry: reg, session: session, log: log}
}

// Register signs the attendee up for the event, paying the ticket price
// when there is one.
// POST /events/:id/register
func (h *RegistrationHandler) Register(c *fiber.Ctx) error {
	if ok, resp := requireSessionMatch(c, h.session); !ok {
		return resp
	}

	var req models.RegistrationRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	req.EventID = c.Params("id")

	res, err := h.registry.RegisterForEvent(c.Context(), h.session, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OperationResponse{
		OK: res.Success, TransactionID: res.TransactionID, Data: res.Data,
	})
}

// Get returns the caller's registration for the event.
// GET /events/:id/registration
func (h *RegistrationHandler) Get(c *fiber.Ctx) error {
	attendee := c.Query("attendee")
	if attendee == "" {
		if ok, resp := requireSessionMatch(c, h.session); !ok {
			return resp
		}
		attendee = h.session.Account().Address
	}

	reg, err := h.registry.GetRegistration(c.Context(), c.Params("id"), attendee)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: reg})
}

// Confirm advances the registration status (check-in, attendance).
// POST /events/:id/confirm
func (h *RegistrationHandler) Confirm(c *fiber.Ctx) error {
	if ok, resp := requireSessionMatch(c, h.session); !ok {
		return resp
	}

	var req dto.ConfirmAttendanceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "status is required"})
	}

	res, err := h.registry.ConfirmAttendance(c.Context(), h.session, c.Params("id"), req.Attendee, req.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.OperationResponse{OK: res.Success, TransactionID: res.TransactionID})
}

// MintNFT records the attendance NFT for an attended registration.
// POST /events/:id/mint-nft
func (h *RegistrationHandler) MintNFT(c *fiber.Ctx) error {
	if ok, resp := requireSessionMatch(c, h.session); !ok {
		return resp
	}

	var req dto.MintNFTRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	res, err := h.registry.MintAttendanceNFT(c.Context(), h.session, c.Params("id"), req.Attendee, req.AssetID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.OperationResponse{OK: res.Success, TransactionID: res.TransactionID})
}

// Refund returns an attendee's payment and releases their slot.
// POST /events/:id/refund
func (h *RegistrationHandler) Refund(c *fiber.Ctx) error {
	if ok, resp := requireSessionMatch(c, h.session); !ok {
		return resp
	}

	var req dto.RefundRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.Attendee == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "attendee is required"})
	}

	res, err := h.registry.RefundRegistration(c.Context(), h.session, c.Params("id"), req.Attendee)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.OperationResponse{OK: res.Success, TransactionID: res.TransactionID})
}
