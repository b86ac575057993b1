package console

import (
	"errors"
	"strings"

	"catalog-console/core/attachment"
	"catalog-console/core/datasync"
	"catalog-console/core/logger"
	"catalog-console/core/mutation"
	"catalog-console/core/registry"
	"catalog-console/core/session"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler serves the console routes.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the console routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/console")

	group.Get("/session", h.HandleSession)
	group.Post("/session/login", h.HandleLogin)
	group.Post("/session/logout", h.HandleLogout)

	group.Get("/collections", h.HandleCollections)
	group.Get("/collections/:key", h.HandleLoad)
	group.Post("/collections/:key/resync", h.HandleResync)
	group.Post("/collections/:key/records", h.HandleWrite(mutation.Create))
	group.Put("/collections/:key/records/:id", h.HandleWrite(mutation.Update))
	group.Delete("/collections/:key/records/:id", h.HandleWrite(mutation.Delete))
}

type outcomeDTO struct {
	datasync.Outcome
	Error string `json:"error,omitempty"`
}

type viewResponse struct {
	datasync.View
	Trigger  string       `json:"trigger"`
	Outcomes []outcomeDTO `json:"outcomes"`
}

func newViewResponse(view datasync.View, res datasync.Result) viewResponse {
	out := viewResponse{View: view, Trigger: res.Trigger.String()}
	for _, o := range res.Outcomes {
		dto := outcomeDTO{Outcome: o}
		if o.Err != nil {
			dto.Error = o.Err.Error()
		}
		out.Outcomes = append(out.Outcomes, dto)
	}
	return out
}

// HandleCollections lists the catalog.
func (h *Handler) HandleCollections(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"collections": h.service.Collections()})
}

// HandleLoad activates a collection and loads it, reading the network only for
// stale sources.
func (h *Handler) HandleLoad(c *fiber.Ctx) error {
	return h.resync(c, datasync.InitialLoad)
}

// HandleResync forces a refresh of a collection. The trigger query parameter
// defaults to user_action.
func (h *Handler) HandleResync(c *fiber.Ctx) error {
	trigger, err := datasync.ParseTrigger(c.Query("trigger", datasync.UserAction.String()))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return h.resync(c, trigger)
}

func (h *Handler) resync(c *fiber.Ctx, trigger datasync.Trigger) error {
	key := c.Params("key")
	l := logger.WithCollection(logger.WithRayID(h.service.logger, c), key)
	l.Debug("Resync requested", zap.Stringer("trigger", trigger))

	view, res := h.service.Resync(c.Context(), key, trigger)
	if res.Err != nil {
		return writeError(c, l, res.Err)
	}
	return c.JSON(newViewResponse(view, res))
}

// HandleWrite returns the handler for one write method. Create and update accept
// JSON or multipart bodies; delete requires ?confirm=true.
func (h *Handler) HandleWrite(method mutation.Method) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Params("key")
		l := logger.WithCollection(logger.WithRayID(h.service.logger, c), key)

		req := mutation.Request{
			Method:    method,
			Key:       key,
			ID:        c.Params("id"),
			Confirmed: c.QueryBool("confirm", false),
		}

		if method != mutation.Delete {
			payload, atts, err := h.parseBody(c, key)
			if err != nil {
				return writeError(c, l, err)
			}
			req.Payload = payload
			req.Attachments = atts
		}

		resp, err := h.service.Write(c.Context(), req)
		if err != nil {
			return writeError(c, l, err)
		}

		status := fiber.StatusOK
		if method == mutation.Create {
			status = fiber.StatusCreated
		}
		return c.Status(status).JSON(fiber.Map{
			"record": resp.Record,
			"view":   newViewResponse(h.service.coord.View(), resp.Resync),
		})
	}
}

var errBadBody = errors.New("request body must be a JSON object or multipart form")

func (h *Handler) parseBody(c *fiber.Ctx, key string) (registry.Record, *attachment.Reconciler, error) {
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return nil, nil, errBadBody
		}
		return h.service.ParseForm(key, form)
	}

	payload := registry.Record{}
	if err := c.BodyParser(&payload); err != nil {
		return nil, nil, errBadBody
	}
	return payload, nil, nil
}

// HandleSession reports the current session.
func (h *Handler) HandleSession(c *fiber.Ctx) error {
	profile, ok := h.service.Profile()
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"authenticated": false})
	}
	return c.JSON(fiber.Map{
		"authenticated":  true,
		"profile":        profile,
		"can_view_audit": profile.CanViewAudit(),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin exchanges credentials for a session.
func (h *Handler) HandleLogin(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var body loginRequest
	if err := c.BodyParser(&body); err != nil || body.Email == "" || body.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "email and password are required"})
	}

	profile, err := h.service.Login(c.Context(), body.Email, body.Password)
	if err != nil {
		l.Warn("Login failed", zap.Error(err))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"profile": profile})
}

// HandleLogout ends the session.
func (h *Handler) HandleLogout(c *fiber.Ctx) error {
	if err := h.service.Logout(c.Context()); err != nil {
		logger.WithRayID(h.service.logger, c).Warn("Logout incomplete", zap.Error(err))
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// writeError maps core errors to HTTP responses.
func writeError(c *fiber.Ctx, l *zap.Logger, err error) error {
	var (
		verr *mutation.ValidationError
		merr *mutation.MutationError
	)
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error(), "fields": verr.Fields})
	case errors.Is(err, datasync.ErrUnknownCollection):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, session.ErrSessionExpired) || session.IsSessionError(err):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, mutation.ErrMutationInFlight):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, mutation.ErrNotConfirmed), errors.Is(err, mutation.ErrMissingID), errors.Is(err, errBadBody):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &merr):
		status := fiber.StatusBadGateway
		if merr.StatusCode >= 400 && merr.StatusCode < 500 {
			status = merr.StatusCode
		}
		return c.Status(status).JSON(fiber.Map{"error": merr.Message})
	default:
		l.Error("Console request failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
