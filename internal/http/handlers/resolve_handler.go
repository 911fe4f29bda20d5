package handlers

import (
	"github.com/dynaqr/backend/internal/access"
	"github.com/dynaqr/backend/internal/http/dto"
	"github.com/dynaqr/backend/internal/resolver"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ResolveHandler struct {
	resolver *resolver.Service
	log      *zap.Logger
}

func NewResolveHandler(svc *resolver.Service, log *zap.Logger) *ResolveHandler {
	return &ResolveHandler{resolver: svc, log: log}
}

// Resolve is the endpoint every printed QR code points at. Anonymous by
// default; gated events can pass the scanner's address in ?viewer=. With
// ?format=json the destination is returned instead of a 302, which is what
// the preview card in the companion app uses.
// GET /resolve?event=<id>
func (h *ResolveHandler) Resolve(c *fiber.Ctx) error {
	eventID := c.Query("event")
	if eventID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "event is required"})
	}

	viewer := access.ViewerContext{Address: c.Query("viewer")}

	res, err := h.resolver.Resolve(c.Context(), eventID, viewer)
	if err != nil {
		return writeError(c, err)
	}

	if c.Query("format") == "json" {
		return c.JSON(dto.SuccessResponse{OK: true, Data: res})
	}
	return c.Redirect(res.RedirectURL, fiber.StatusFound)
}
