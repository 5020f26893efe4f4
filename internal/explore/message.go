package explore

import (
	"time"

	"github.com/google/uuid"
)

// Role distinguishes the two sides of a conversation turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// TurnStatus marks whether an agent turn carries an answer or a failure.
type TurnStatus string

const (
	TurnOK     TurnStatus = "ok"
	TurnFailed TurnStatus = "failed"
)

// DocFormat identifies a derived-document format.
type DocFormat string

const (
	FormatDoc    DocFormat = "docx"
	FormatSlides DocFormat = "pptx"
)

// Valid reports whether f is a supported format.
func (f DocFormat) Valid() bool {
	return f == FormatDoc || f == FormatSlides
}

// Title returns the fixed document title for the format.
func (f DocFormat) Title() string {
	if f == FormatSlides {
		return "KTai_Slides"
	}
	return "KTai_Notes"
}

// Source is one citation attached to an agent answer.
type Source struct {
	Type    string `json:"type,omitempty"`
	ID      string `json:"id,omitempty"`
	Path    string `json:"path,omitempty"`
	URL     string `json:"url,omitempty"`
	Excerpt string `json:"excerpt,omitempty"`
}

// Locator returns the resolvable reference for the citation: the explicit
// URL when the backend provided one, otherwise the "id/path" composite.
func (s Source) Locator() string {
	if s.URL != "" {
		return s.URL
	}
	return s.ID + "/" + s.Path
}

// GenStatus is the lifecycle state of one derived-document request.
type GenStatus string

const (
	GenPending   GenStatus = "pending"
	GenSucceeded GenStatus = "succeeded"
	GenFailed    GenStatus = "failed"
)

// Generation tracks one derived-document request for a (message, format)
// pair. A format absent from a message's Generations map was never
// requested, which keeps "never asked" distinct from "asked and failed".
type Generation struct {
	Status   GenStatus `json:"status"`
	URL      string    `json:"url,omitempty"`
	FileName string    `json:"file_name,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Message is one entry in the conversation log. Messages are immutable
// after creation except for the Generations map, which the log mutates
// one (format → result) entry at a time.
type Message struct {
	ID         string                   `json:"id"`
	Role       Role                     `json:"role"`
	Status     TurnStatus               `json:"status"`
	Content    string                   `json:"content"`
	Error      string                   `json:"error,omitempty"`
	Sources    []Source                 `json:"sources,omitempty"`
	Followups  []string                 `json:"followups,omitempty"`
	Confidence string                   `json:"confidence,omitempty"`
	ModelUsed  string                   `json:"model_used,omitempty"`
	Generations map[DocFormat]Generation `json:"generations,omitempty"`
	CreatedAt  time.Time                `json:"created_at"`
}

// NewUserMessage creates a user message with a fresh unique id.
func NewUserMessage(content string) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Role:      RoleUser,
		Status:    TurnOK,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

// NewAgentMessage creates an agent message from a structured answer.
func NewAgentMessage(res AnswerResult) *Message {
	return &Message{
		ID:         uuid.New().String(),
		Role:       RoleAgent,
		Status:     TurnOK,
		Content:    res.Answer,
		Sources:    res.Sources,
		Followups:  res.Followups,
		Confidence: res.Confidence,
		ModelUsed:  res.ModelUsed,
		CreatedAt:  time.Now().UTC(),
	}
}

// NewFailedTurn creates the visible marker appended when an ask fails
// after the user message was already recorded.
func NewFailedTurn(err error) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Role:      RoleAgent,
		Status:    TurnFailed,
		Error:     err.Error(),
		CreatedAt: time.Now().UTC(),
	}
}

// Clone returns a deep copy safe to hand out while the log keeps mutating
// generation entries.
func (m *Message) Clone() *Message {
	out := *m
	if m.Sources != nil {
		out.Sources = make([]Source, len(m.Sources))
		copy(out.Sources, m.Sources)
	}
	if m.Followups != nil {
		out.Followups = make([]string, len(m.Followups))
		copy(out.Followups, m.Followups)
	}
	if m.Generations != nil {
		out.Generations = make(map[DocFormat]Generation, len(m.Generations))
		for k, v := range m.Generations {
			out.Generations[k] = v
		}
	}
	return &out
}
