package handlers

import (
	"errors"

	"github.com/dynaqr/backend/internal/http/dto"
	"github.com/dynaqr/backend/internal/metadata"
	"github.com/dynaqr/backend/internal/middleware"
	"github.com/dynaqr/backend/internal/models"
	"github.com/dynaqr/backend/internal/registry"
	"github.com/dynaqr/backend/internal/wallet"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type EventHandler struct {
	registry *registry.Registry
	session  *wallet.Session
	store    metadata.Store
	log      *zap.Logger
}

func NewEventHandler(reg *registry.Registry, session *wallet.Session, store metadata.Store, log *zap.Logger) *EventHandler {
	return &EventHandler{registry: reg, session: session, store: store, log: log}
}

// requireSessionMatch rejects callers whose token address differs from the
// connected signing wallet: the API must never sign on behalf of someone
// who merely holds a valid token for another address. ok reports whether
// the handler may proceed; when false the response has been written.
func requireSessionMatch(c *fiber.Ctx, session *wallet.Session) (ok bool, resp error) {
	account := session.Account()
	if account == nil {
		return false, c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "no wallet connected"})
	}
	if addr := middleware.GetAddress(c); addr != account.Address {
		return false, c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: "token address does not match connected wallet"})
	}
	return true, nil
}

// Create registers a new event on-chain.
// POST /events
func (h *EventHandler) Create(c *fiber.Ctx) error {
	if ok, resp := requireSessionMatch(c, h.session); !ok {
		return resp
	}

	var req dto.CreateEventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	params := registry.CreateEventParams{
		EventID:               req.EventID,
		EventName:             req.EventName,
		URL:                   req.URL,
		AccessType:            req.AccessType,
		TicketPriceMicroAlgos: req.TicketPrice,
		MaxCapacity:           req.MaxCapacity,
		Description:           req.Description,
		Tags:                  req.Tags,
		Visibility:            req.Visibility,
		TicketTiers:           req.TicketTiers,
		OrganizerName:         req.OrganizerName,
		OrganizerContact:      req.OrganizerContact,
	}
	if req.ExpiryDate != nil {
		params.ExpiryDate = *req.ExpiryDate
	}

	res, err := h.registry.CreateEvent(c.Context(), h.session, params)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OperationResponse{
		OK: res.Success, TransactionID: res.TransactionID, Data: res.Data,
	})
}

// Get returns the on-chain event plus its off-chain metadata.
// GET /events/:id
func (h *EventHandler) Get(c *fiber.Ctx) error {
	eventID := c.Params("id")
	ev, err := h.registry.GetEvent(c.Context(), eventID)
	if err != nil {
		return writeError(c, err)
	}

	md, err := h.store.Get(c.Context(), eventID)
	if err != nil && !errors.Is(err, metadata.ErrNotFound) {
		h.log.Warn("metadata read failed", zap.String("event_id", eventID), zap.Error(err))
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: fiber.Map{
		"event":    ev,
		"metadata": md,
	}})
}

// UpdateURL moves the event's redirect destination.
// PUT /events/:id/url
func (h *EventHandler) UpdateURL(c *fiber.Ctx) error {
	if ok, resp := requireSessionMatch(c, h.session); !ok {
		return resp
	}

	var req dto.UpdateURLRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	res, err := h.registry.UpdateURL(c.Context(), h.session, c.Params("id"), req.URL)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.OperationResponse{OK: res.Success, TransactionID: res.TransactionID})
}

// Deactivate permanently deactivates the event.
// POST /events/:id/deactivate
func (h *EventHandler) Deactivate(c *fiber.Ctx) error {
	if ok, resp := requireSessionMatch(c, h.session); !ok {
		return resp
	}

	res, err := h.registry.Deactivate(c.Context(), h.session, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.OperationResponse{OK: res.Success, TransactionID: res.TransactionID})
}

// UpdateTicketPrice changes the on-chain ticket price.
// PUT /events/:id/ticket-price
func (h *EventHandler) UpdateTicketPrice(c *fiber.Ctx) error {
	if ok, resp := requireSessionMatch(c, h.session); !ok {
		return resp
	}

	var req dto.UpdateTicketPriceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	res, err := h.registry.UpdateTicketPrice(c.Context(), h.session, c.Params("id"), req.TicketPrice)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.OperationResponse{OK: res.Success, TransactionID: res.TransactionID})
}

// UpdateMetadata merges an off-chain metadata patch. Owner only; metadata
// writes never touch the ledger.
// PATCH /events/:id/metadata
func (h *EventHandler) UpdateMetadata(c *fiber.Ctx) error {
	eventID := c.Params("id")

	ev, err := h.registry.GetEvent(c.Context(), eventID)
	if err != nil {
		return writeError(c, err)
	}
	if middleware.GetAddress(c) != ev.Owner {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: "only the event owner may edit metadata"})
	}

	var req dto.UpdateMetadataRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	patch := models.MetadataPatch{
		Description:        req.Description,
		Tags:               req.Tags,
		Visibility:         req.Visibility,
		TicketTiers:        req.TicketTiers,
		OrganizerName:      req.OrganizerName,
		OrganizerContact:   req.OrganizerContact,
		PreviewTitle:       req.PreviewTitle,
		PreviewDescription: req.PreviewDescription,
	}
	if err := h.store.Merge(c.Context(), eventID, patch); err != nil {
		h.log.Error("metadata merge failed", zap.String("event_id", eventID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "failed to update metadata"})
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// Stats returns the contract-wide aggregate counters.
// GET /stats
func (h *EventHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.registry.GetStats(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: stats})
}
