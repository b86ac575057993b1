package audit

import (
	"errors"

	"catalog-console/core/logger"
	"catalog-console/core/session"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler serves the audit route.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the audit routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/console/audit", h.HandleAudit)
}

// HandleAudit returns the audit log. Pass ?refresh=true to refetch it.
func (h *Handler) HandleAudit(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	report, err := h.service.Entries(c.Context(), c.QueryBool("refresh", false))
	switch {
	case err == nil:
		return c.JSON(report)
	case errors.Is(err, ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, session.ErrSessionExpired):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	default:
		l.Error("Audit read failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
