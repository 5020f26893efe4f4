package server

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Addis4/kt-ai/internal/directory"
	"github.com/Addis4/kt-ai/internal/explore"
)

// ProblemDetail is an RFC 7807 error body.
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// problemResponse returns an RFC 7807 Problem Detail error response.
func problemResponse(c *fiber.Ctx, status int, errType, title, detail string) error {
	return c.Status(status).JSON(ProblemDetail{
		Type:     errType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Path(),
	})
}

// ContextDTO is the wire form of an exploration context.
type ContextDTO struct {
	Type     string `json:"type"`
	Owner    string `json:"owner"`
	Resource string `json:"resource"`
	Revision string `json:"revision,omitempty"`
	Ready    bool   `json:"ready"`
}

func contextDTO(ctx explore.Context) ContextDTO {
	return ContextDTO{
		Type:     string(ctx.Type),
		Owner:    ctx.Owner,
		Resource: ctx.Resource,
		Revision: ctx.Revision,
		Ready:    ctx.IsReady(),
	}
}

// CreateSessionResponse is the body of POST /api/v1/sessions.
type CreateSessionResponse struct {
	SessionID string     `json:"session_id"`
	Context   ContextDTO `json:"context"`
	CreatedAt time.Time  `json:"created_at"`
}

// SessionSnapshot is the body of GET /api/v1/sessions/:id.
type SessionSnapshot struct {
	SessionID    string     `json:"session_id"`
	Context      ContextDTO `json:"context"`
	MessageCount int        `json:"message_count"`
	Asking       bool       `json:"asking"`
	CreatedAt    time.Time  `json:"created_at"`
	LastUsed     time.Time  `json:"last_used"`
}

// PutContextRequest is the body of PUT /api/v1/sessions/:id/context.
//
// Three shapes are accepted, matching how the UI drives context changes:
// a bare {"type": ...} switches the source type and resets the resource,
// {"full_name": "owner/repo"} applies a directory listing, and a full
// {type, owner, resource, revision} replaces the context outright.
type PutContextRequest struct {
	Type     string `json:"type"`
	Owner    string `json:"owner"`
	Resource string `json:"resource"`
	Revision string `json:"revision"`
	FullName string `json:"full_name"`
}

// MessagesResponse is the body of GET /api/v1/sessions/:id/messages.
type MessagesResponse struct {
	Messages []*explore.Message `json:"messages"`
	Total    int                `json:"total"`
}

// AskRequest is the body of POST /api/v1/sessions/:id/ask.
type AskRequest struct {
	Question string `json:"question"`
}

// GenerateRequest is the body of POST .../messages/:messageID/generate.
type GenerateRequest struct {
	Format string `json:"format"`
}

// GenerateResponse pairs the generation result with its coordinates.
type GenerateResponse struct {
	MessageID  string             `json:"message_id"`
	Format     string             `json:"format"`
	Generation explore.Generation `json:"generation"`
}

// RepositoriesResponse is the body of GET /api/v1/repositories.
type RepositoriesResponse struct {
	Owner        string              `json:"owner,omitempty"`
	Repositories []directory.Listing `json:"repositories"`
}

// PresetDTO is one preconfigured context offered to the UI.
type PresetDTO struct {
	Name    string     `json:"name"`
	Context ContextDTO `json:"context"`
}

// PresetsResponse is the body of GET /api/v1/presets.
type PresetsResponse struct {
	Presets []PresetDTO `json:"presets"`
}

// HealthDetailResponse is the body of GET /api/v1/health.
type HealthDetailResponse struct {
	Status       string            `json:"status"`
	Integrations map[string]string `json:"integrations"`
	Uptime       string            `json:"uptime"`
	Sessions     int               `json:"sessions"`
}
