package server

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Addis4/kt-ai/internal/config"
	"github.com/Addis4/kt-ai/internal/directory"
	"github.com/Addis4/kt-ai/internal/explore"
	"github.com/Addis4/kt-ai/internal/health"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	store     *explore.SessionStore
	cache     *directory.Cache
	checker   *health.Checker
	presets   *config.Presets
	logger    zerolog.Logger
	startTime time.Time
}

// NewHandlers creates a new Handlers instance. presets may be nil.
func NewHandlers(store *explore.SessionStore, cache *directory.Cache, checker *health.Checker, presets *config.Presets, logger zerolog.Logger) *Handlers {
	return &Handlers{
		store:     store,
		cache:     cache,
		checker:   checker,
		presets:   presets,
		logger:    logger.With().Str("component", "handlers").Logger(),
		startTime: time.Now(),
	}
}

// CreateSession handles POST /api/v1/sessions.
func (h *Handlers) CreateSession(c *fiber.Ctx) error {
	s := h.store.Create()
	return c.Status(fiber.StatusCreated).JSON(CreateSessionResponse{
		SessionID: s.ID(),
		Context:   contextDTO(s.Context()),
		CreatedAt: s.CreatedAt(),
	})
}

// GetSession handles GET /api/v1/sessions/:id.
func (h *Handlers) GetSession(c *fiber.Ctx) error {
	s, ok := h.store.Get(c.Params("id"))
	if !ok {
		return sessionNotFound(c)
	}
	return c.JSON(SessionSnapshot{
		SessionID:    s.ID(),
		Context:      contextDTO(s.Context()),
		MessageCount: s.Log().Len(),
		Asking:       s.Asking(),
		CreatedAt:    s.CreatedAt(),
		LastUsed:     s.LastUsed(),
	})
}

// PutContext handles PUT /api/v1/sessions/:id/context.
func (h *Handlers) PutContext(c *fiber.Ctx) error {
	s, ok := h.store.Get(c.Params("id"))
	if !ok {
		return sessionNotFound(c)
	}

	var req PutContextRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	// Directory listing selection takes priority over the other shapes.
	if req.FullName != "" {
		next, err := s.SelectListing(req.FullName)
		if err != nil {
			return problemResponse(c, fiber.StatusUnprocessableEntity,
				"invalid_listing", "Unprocessable Entity",
				err.Error())
		}
		return c.JSON(contextDTO(next))
	}

	t := explore.SourceType(req.Type)
	if !t.Valid() {
		return problemResponse(c, fiber.StatusUnprocessableEntity,
			"invalid_source_type", "Unprocessable Entity",
			"Unknown source type: "+req.Type)
	}

	// Bare type switch resets the resource to the type default.
	if req.Owner == "" && req.Resource == "" {
		return c.JSON(contextDTO(s.SelectType(t)))
	}

	next := explore.Context{
		Type:     t,
		Owner:    req.Owner,
		Resource: req.Resource,
		Revision: req.Revision,
	}
	s.SetContext(next)
	return c.JSON(contextDTO(next))
}

// ListMessages handles GET /api/v1/sessions/:id/messages.
func (h *Handlers) ListMessages(c *fiber.Ctx) error {
	s, ok := h.store.Get(c.Params("id"))
	if !ok {
		return sessionNotFound(c)
	}
	msgs := s.Log().Messages()
	if msgs == nil {
		msgs = []*explore.Message{}
	}
	return c.JSON(MessagesResponse{Messages: msgs, Total: len(msgs)})
}

// Ask handles POST /api/v1/sessions/:id/ask.
func (h *Handlers) Ask(c *fiber.Ctx) error {
	s, ok := h.store.Get(c.Params("id"))
	if !ok {
		return sessionNotFound(c)
	}

	var req AskRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	msg, err := s.Ask(c.Context(), req.Question)
	switch {
	case err == nil:
		return c.JSON(msg)
	case errors.Is(err, explore.ErrEmptyQuestion),
		errors.Is(err, explore.ErrContextNotReady):
		return problemResponse(c, fiber.StatusUnprocessableEntity,
			"ask_rejected", "Unprocessable Entity",
			err.Error())
	case errors.Is(err, explore.ErrAskInFlight):
		return problemResponse(c, fiber.StatusConflict,
			"ask_in_flight", "Conflict",
			err.Error())
	default:
		// The failed turn is already in the log; surface the upstream error.
		return problemResponse(c, fiber.StatusBadGateway,
			"answer_service_error", "Bad Gateway",
			err.Error())
	}
}

// Generate handles POST /api/v1/sessions/:id/messages/:messageID/generate.
func (h *Handlers) Generate(c *fiber.Ctx) error {
	s, ok := h.store.Get(c.Params("id"))
	if !ok {
		return sessionNotFound(c)
	}

	var req GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	messageID := c.Params("messageID")
	format := explore.DocFormat(req.Format)
	g, err := s.Generate(c.Context(), messageID, format)
	switch {
	case err == nil:
		return c.JSON(GenerateResponse{
			MessageID:  messageID,
			Format:     string(format),
			Generation: *g,
		})
	case errors.Is(err, explore.ErrMessageNotFound):
		return problemResponse(c, fiber.StatusNotFound,
			"message_not_found", "Not Found",
			"Message not found: "+messageID)
	case errors.Is(err, explore.ErrInvalidFormat),
		errors.Is(err, explore.ErrNotAgentMessage):
		return problemResponse(c, fiber.StatusUnprocessableEntity,
			"generate_rejected", "Unprocessable Entity",
			err.Error())
	default:
		// Failed state is recorded on the message; surface the upstream error.
		return problemResponse(c, fiber.StatusBadGateway,
			"docgen_service_error", "Bad Gateway",
			err.Error())
	}
}

// ListRepositories handles GET /api/v1/repositories.
func (h *Handlers) ListRepositories(c *fiber.Ctx) error {
	owner := c.Query("owner")
	list, err := h.cache.List(c.Context(), owner)
	if err != nil {
		return problemResponse(c, fiber.StatusBadGateway,
			"directory_unavailable", "Bad Gateway",
			err.Error())
	}
	if list == nil {
		list = []directory.Listing{}
	}
	return c.JSON(RepositoriesResponse{Owner: owner, Repositories: list})
}

// ListPresets handles GET /api/v1/presets.
func (h *Handlers) ListPresets(c *fiber.Ctx) error {
	out := PresetsResponse{Presets: []PresetDTO{}}
	if h.presets != nil {
		for _, p := range h.presets.Contexts {
			out.Presets = append(out.Presets, PresetDTO{
				Name:    p.Name,
				Context: contextDTO(p.Context()),
			})
		}
	}
	return c.JSON(out)
}

// HealthDetail handles GET /api/v1/health.
func (h *Handlers) HealthDetail(c *fiber.Ctx) error {
	results := h.checker.RunAll(c.Context())

	integrations := make(map[string]string, len(results))
	overall := "ok"
	for name, status := range results {
		integrations[name] = string(status)
		if status == health.StatusDown {
			overall = "degraded"
		}
	}

	return c.JSON(HealthDetailResponse{
		Status:       overall,
		Integrations: integrations,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Sessions:     h.store.Len(),
	})
}

// Liveness handles GET /healthz.
func (h *Handlers) Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Readiness handles GET /readyz.
func (h *Handlers) Readiness(c *fiber.Ctx) error {
	if !h.checker.IsReady(c.Context()) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "not_ready",
		})
	}
	return c.JSON(fiber.Map{"status": "ready"})
}

func sessionNotFound(c *fiber.Ctx) error {
	return problemResponse(c, fiber.StatusNotFound,
		"session_not_found", "Not Found",
		"Session not found or expired: "+c.Params("id"))
}
