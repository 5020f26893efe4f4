package explore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Addis4/kt-ai/internal/metrics"
)

// Client-side gate errors. They block dispatch before any log mutation or
// network call is made.
var (
	ErrEmptyQuestion   = errors.New("question is empty")
	ErrContextNotReady = errors.New("context owner and resource are required")
	ErrAskInFlight     = errors.New("an ask is already in flight for this session")
	ErrMessageNotFound = errors.New("message not found")
	ErrNotAgentMessage = errors.New("derived documents can only be generated from agent messages")
	ErrInvalidFormat   = errors.New("unknown document format")
)

// AnswerRequest carries one question to the answering service.
type AnswerRequest struct {
	SessionID string
	Question  string
	Context   Context
}

// AnswerResult is the structured response to one question.
type AnswerResult struct {
	Answer     string
	Sources    []Source
	Followups  []string
	Confidence string
	ModelUsed  string
}

// Answerer is the question-answering service contract.
type Answerer interface {
	Answer(ctx context.Context, req AnswerRequest) (*AnswerResult, error)
}

// DocRequest carries one derived-document request.
type DocRequest struct {
	SessionID string
	Title     string
	Prompt    string
	Format    DocFormat
}

// DocResult references a generated document.
type DocResult struct {
	FileName string
	URL      string
}

// DocGenerator is the document-generation service contract.
type DocGenerator interface {
	GenerateDoc(ctx context.Context, req DocRequest) (*DocResult, error)
}

// GenerationListener is notified after a derived-document request
// reaches a terminal state.
type GenerationListener interface {
	GenerationCompleted(sessionID, messageID string, format DocFormat, g Generation)
}

// Session owns one exploration conversation: its context, its log and the
// in-flight ask gate. Safe for concurrent handlers.
type Session struct {
	id        string
	createdAt time.Time
	lastUsed  atomic.Int64 // unix milli

	mu      sync.RWMutex // guards sctx
	sctx    Context

	log    *ConversationLog
	asking atomic.Bool

	answerer Answerer
	docs     DocGenerator
	listener GenerationListener
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// Option configures optional session collaborators.
type Option func(*Session)

// WithListener sets the generation completion listener.
func WithListener(l GenerationListener) Option {
	return func(s *Session) { s.listener = l }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// NewSession creates a session with a fresh id and the default context.
func NewSession(answerer Answerer, docs DocGenerator, logger zerolog.Logger, opts ...Option) *Session {
	s := &Session{
		id:        uuid.New().String(),
		createdAt: time.Now().UTC(),
		sctx:      DefaultContext(),
		log:       NewConversationLog(),
		answerer:  answerer,
		docs:      docs,
	}
	s.logger = logger.With().Str("component", "session").Str("session_id", s.id).Logger()
	s.lastUsed.Store(time.Now().UnixMilli())
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the stable session identifier.
func (s *Session) ID() string { return s.id }

// CreatedAt returns the session creation time.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// LastUsed returns the time of the last ask, generate or context change.
func (s *Session) LastUsed() time.Time {
	return time.UnixMilli(s.lastUsed.Load())
}

// Log returns the session's conversation log.
func (s *Session) Log() *ConversationLog { return s.log }

// Context returns the current knowledge context.
func (s *Session) Context() Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sctx
}

// SetContext replaces the knowledge context.
func (s *Session) SetContext(c Context) {
	s.touch()
	s.mu.Lock()
	s.sctx = c
	s.mu.Unlock()
}

// SelectType switches the context's source type, resetting the resource
// to the type default.
func (s *Session) SelectType(t SourceType) Context {
	s.touch()
	s.mu.Lock()
	s.sctx = s.sctx.SelectType(t)
	out := s.sctx
	s.mu.Unlock()
	return out
}

// SelectListing applies a repository directory entry to the context.
func (s *Session) SelectListing(fullName string) (Context, error) {
	s.touch()
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.sctx.SelectListing(fullName)
	if err != nil {
		return s.sctx, err
	}
	s.sctx = next
	return s.sctx, nil
}

// Ask dispatches one question against the current context.
//
// The trimmed question and a ready context are hard preconditions: when
// either fails nothing is appended and no call is made. A second ask
// while one is pending is rejected rather than interleaved. The user
// message is appended before the answering service is awaited, so the log
// always shows the question while the answer is outstanding. On upstream
// failure a failed agent turn is appended and returned along with the
// error, never an unmarked gap in the log.
func (s *Session) Ask(ctx context.Context, question string) (*Message, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	sctx := s.Context()
	if !sctx.IsReady() {
		return nil, ErrContextNotReady
	}
	if !s.asking.CompareAndSwap(false, true) {
		return nil, ErrAskInFlight
	}
	defer s.asking.Store(false)
	s.touch()

	user := NewUserMessage(question)
	s.log.Append(user)

	res, err := s.answerer.Answer(ctx, AnswerRequest{
		SessionID: s.id,
		Question:  question,
		Context:   sctx,
	})
	if err != nil {
		failed := NewFailedTurn(err)
		s.log.Append(failed)
		s.recordAsk("failed")
		s.logger.Error().Err(err).
			Str("source_type", string(sctx.Type)).
			Str("owner", sctx.Owner).
			Str("resource", sctx.Resource).
			Msg("ask failed")
		return failed.Clone(), fmt.Errorf("asking answering service: %w", err)
	}

	agent := NewAgentMessage(*res)
	s.log.Append(agent)
	s.recordAsk("ok")
	s.logger.Info().
		Str("message_id", agent.ID).
		Int("sources", len(agent.Sources)).
		Int("followups", len(agent.Followups)).
		Msg("ask answered")
	return agent.Clone(), nil
}

// Asking reports whether an ask is currently in flight.
func (s *Session) Asking() bool { return s.asking.Load() }

// Generate requests a derived document for an existing agent message.
//
// The (message, format) pair moves pending → succeeded/failed; results
// for different formats of the same message are tracked independently.
// On failure the recorded state carries the error so the caller can tell
// "asked and failed" from "never asked".
func (s *Session) Generate(ctx context.Context, messageID string, format DocFormat) (*Generation, error) {
	if !format.Valid() {
		return nil, ErrInvalidFormat
	}
	msg, ok := s.log.Get(messageID)
	if !ok {
		return nil, ErrMessageNotFound
	}
	if msg.Role != RoleAgent || msg.Status != TurnOK {
		return nil, ErrNotAgentMessage
	}
	s.touch()

	s.log.SetGeneration(messageID, format, Generation{Status: GenPending})

	res, err := s.docs.GenerateDoc(ctx, DocRequest{
		SessionID: s.id,
		Title:     format.Title(),
		Prompt:    msg.Content,
		Format:    format,
	})
	if err != nil {
		g := Generation{Status: GenFailed, Error: err.Error()}
		s.log.SetGeneration(messageID, format, g)
		s.recordGeneration(format, "failed")
		s.notify(messageID, format, g)
		s.logger.Error().Err(err).
			Str("message_id", messageID).
			Str("format", string(format)).
			Msg("document generation failed")
		return &g, fmt.Errorf("generating %s document: %w", format, err)
	}

	g := Generation{Status: GenSucceeded, URL: res.URL, FileName: res.FileName}
	s.log.SetGeneration(messageID, format, g)
	s.recordGeneration(format, "ok")
	s.notify(messageID, format, g)
	s.logger.Info().
		Str("message_id", messageID).
		Str("format", string(format)).
		Str("file_name", res.FileName).
		Msg("document generated")
	return &g, nil
}

func (s *Session) notify(messageID string, format DocFormat, g Generation) {
	if s.listener == nil {
		return
	}
	go s.listener.GenerationCompleted(s.id, messageID, format, g)
}

func (s *Session) recordAsk(status string) {
	if s.metrics != nil {
		s.metrics.RecordAsk(status)
	}
}

func (s *Session) recordGeneration(format DocFormat, status string) {
	if s.metrics != nil {
		s.metrics.RecordGeneration(string(format), status)
	}
}

func (s *Session) touch() {
	s.lastUsed.Store(time.Now().UnixMilli())
}
