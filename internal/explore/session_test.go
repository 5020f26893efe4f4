package explore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnswerer struct {
	mu       sync.Mutex
	calls    int
	requests []AnswerRequest
	result   *AnswerResult
	err      error
	block    chan struct{} // when set, Answer waits until closed
}

func (f *fakeAnswerer) Answer(ctx context.Context, req AnswerRequest) (*AnswerResult, error) {
	f.mu.Lock()
	f.calls++
	f.requests = append(f.requests, req)
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &AnswerResult{Answer: "answer to: " + req.Question}, nil
}

func (f *fakeAnswerer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeDocGen struct {
	mu       sync.Mutex
	calls    int
	requests []DocRequest
	err      error
}

func (f *fakeDocGen) GenerateDoc(ctx context.Context, req DocRequest) (*DocResult, error) {
	f.mu.Lock()
	f.calls++
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	name := req.Title + "." + string(req.Format)
	return &DocResult{FileName: name, URL: "/api/generated/" + name}, nil
}

func readySession(t *testing.T, answerer Answerer, docs DocGenerator) *Session {
	t.Helper()
	s := NewSession(answerer, docs, zerolog.Nop())
	s.SetContext(Context{Type: SourceRepo, Owner: "acme", Resource: "billing"})
	return s
}

func TestSession_Ask_AppendsUserThenAgent(t *testing.T) {
	answerer := &fakeAnswerer{result: &AnswerResult{
		Answer:    "X",
		Sources:   []Source{{ID: "42", Path: "a.py"}},
		Followups: []string{"Y?"},
	}}
	s := readySession(t, answerer, &fakeDocGen{})

	agent, err := s.Ask(context.Background(), "  how does billing work?  ")
	require.NoError(t, err)

	msgs := s.Log().Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, "how does billing work?", msgs[0].Content, "question is trimmed")
	assert.Equal(t, RoleAgent, msgs[1].Role)
	assert.Equal(t, agent.ID, msgs[1].ID)
	assert.Equal(t, "X", agent.Content)
	assert.Equal(t, "42/a.py", agent.Sources[0].Locator())
	assert.Equal(t, []string{"Y?"}, agent.Followups)
}

func TestSession_Ask_LogGrowsByTwoPerSuccess(t *testing.T) {
	s := readySession(t, &fakeAnswerer{}, &fakeDocGen{})

	const n = 7
	for i := 0; i < n; i++ {
		_, err := s.Ask(context.Background(), fmt.Sprintf("question %d", i))
		require.NoError(t, err)
	}

	msgs := s.Log().Messages()
	require.Len(t, msgs, 2*n)
	seen := make(map[string]bool)
	for i, m := range msgs {
		if i%2 == 0 {
			assert.Equal(t, RoleUser, m.Role)
			assert.Equal(t, fmt.Sprintf("question %d", i/2), m.Content)
		} else {
			assert.Equal(t, RoleAgent, m.Role)
		}
		assert.False(t, seen[m.ID], "ids stay unique across the whole log")
		seen[m.ID] = true
	}
}

func TestSession_Ask_EmptyQuestionIsNoOp(t *testing.T) {
	answerer := &fakeAnswerer{}
	s := readySession(t, answerer, &fakeDocGen{})

	_, err := s.Ask(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
	assert.Equal(t, 0, s.Log().Len())
	assert.Equal(t, 0, answerer.callCount())
}

func TestSession_Ask_UnreadyContextIsNoOp(t *testing.T) {
	answerer := &fakeAnswerer{}
	s := NewSession(answerer, &fakeDocGen{}, zerolog.Nop())
	s.SetContext(Context{Type: SourceRepo, Owner: "acme"}) // no resource

	_, err := s.Ask(context.Background(), "anything?")
	assert.ErrorIs(t, err, ErrContextNotReady)
	assert.Equal(t, 0, s.Log().Len())
	assert.Equal(t, 0, answerer.callCount())
}

func TestSession_Ask_FailureAppendsFailedTurn(t *testing.T) {
	answerer := &fakeAnswerer{err: errors.New("upstream exploded")}
	s := readySession(t, answerer, &fakeDocGen{})

	failed, err := s.Ask(context.Background(), "what happened?")
	require.Error(t, err)
	require.NotNil(t, failed)
	assert.Equal(t, TurnFailed, failed.Status)
	assert.Contains(t, failed.Error, "upstream exploded")

	msgs := s.Log().Messages()
	require.Len(t, msgs, 2, "user message stays, failed marker follows")
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, "what happened?", msgs[0].Content)
	assert.Equal(t, TurnFailed, msgs[1].Status)
}

func TestSession_Ask_RejectsConcurrentAsks(t *testing.T) {
	block := make(chan struct{})
	answerer := &fakeAnswerer{block: block}
	s := readySession(t, answerer, &fakeDocGen{})

	done := make(chan error, 1)
	go func() {
		_, err := s.Ask(context.Background(), "first")
		done <- err
	}()

	// Wait until the first ask is pending.
	require.Eventually(t, s.Asking, waitFor, tick)

	_, err := s.Ask(context.Background(), "second")
	assert.ErrorIs(t, err, ErrAskInFlight)

	close(block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, answerer.callCount())
	assert.Equal(t, 2, s.Log().Len())
}

func TestSession_Ask_SendsContextAndSessionID(t *testing.T) {
	answerer := &fakeAnswerer{}
	s := readySession(t, answerer, &fakeDocGen{})

	_, err := s.Ask(context.Background(), "q")
	require.NoError(t, err)

	req := answerer.requests[0]
	assert.Equal(t, s.ID(), req.SessionID)
	assert.Equal(t, "acme", req.Context.Owner)
	assert.Equal(t, "billing", req.Context.Resource)
}

func TestSession_Generate_Succeeds(t *testing.T) {
	docs := &fakeDocGen{}
	s := readySession(t, &fakeAnswerer{}, docs)

	agent, err := s.Ask(context.Background(), "explain the ledger")
	require.NoError(t, err)

	g, err := s.Generate(context.Background(), agent.ID, FormatSlides)
	require.NoError(t, err)
	assert.Equal(t, GenSucceeded, g.Status)
	assert.Equal(t, "/api/generated/KTai_Slides.pptx", g.URL)

	req := docs.requests[0]
	assert.Equal(t, s.ID(), req.SessionID)
	assert.Equal(t, "KTai_Slides", req.Title)
	assert.Equal(t, agent.Content, req.Prompt)
}

func TestSession_Generate_FormatsTrackedIndependently(t *testing.T) {
	s := readySession(t, &fakeAnswerer{}, &fakeDocGen{})
	agent, err := s.Ask(context.Background(), "explain the ledger")
	require.NoError(t, err)

	_, err = s.Generate(context.Background(), agent.ID, FormatSlides)
	require.NoError(t, err)
	_, err = s.Generate(context.Background(), agent.ID, FormatDoc)
	require.NoError(t, err)

	got, ok := s.Log().Get(agent.ID)
	require.True(t, ok)
	assert.Equal(t, "/api/generated/KTai_Slides.pptx", got.Generations[FormatSlides].URL)
	assert.Equal(t, "/api/generated/KTai_Notes.docx", got.Generations[FormatDoc].URL)
}

func TestSession_Generate_FailureRecordsFailedState(t *testing.T) {
	docs := &fakeDocGen{err: errors.New("renderer offline")}
	s := readySession(t, &fakeAnswerer{}, docs)
	agent, err := s.Ask(context.Background(), "explain the ledger")
	require.NoError(t, err)

	g, err := s.Generate(context.Background(), agent.ID, FormatDoc)
	require.Error(t, err)
	assert.Equal(t, GenFailed, g.Status)
	assert.Empty(t, g.URL)

	got, _ := s.Log().Get(agent.ID)
	recorded, requested := got.Generations[FormatDoc]
	assert.True(t, requested, "failed is distinct from never requested")
	assert.Equal(t, GenFailed, recorded.Status)
	assert.Contains(t, recorded.Error, "renderer offline")
}

func TestSession_Generate_RejectsUserMessages(t *testing.T) {
	s := readySession(t, &fakeAnswerer{}, &fakeDocGen{})
	_, err := s.Ask(context.Background(), "q")
	require.NoError(t, err)
	userID := s.Log().Messages()[0].ID

	_, err = s.Generate(context.Background(), userID, FormatDoc)
	assert.ErrorIs(t, err, ErrNotAgentMessage)
}

func TestSession_Generate_RejectsUnknownFormatAndMessage(t *testing.T) {
	s := readySession(t, &fakeAnswerer{}, &fakeDocGen{})

	_, err := s.Generate(context.Background(), "whatever", DocFormat("pdf"))
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = s.Generate(context.Background(), "missing", FormatDoc)
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

type recordingListener struct {
	mu     sync.Mutex
	events []Generation
}

func (r *recordingListener) GenerationCompleted(sessionID, messageID string, format DocFormat, g Generation) {
	r.mu.Lock()
	r.events = append(r.events, g)
	r.mu.Unlock()
}

func (r *recordingListener) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestSession_Generate_NotifiesListener(t *testing.T) {
	listener := &recordingListener{}
	s := NewSession(&fakeAnswerer{}, &fakeDocGen{}, zerolog.Nop(), WithListener(listener))
	s.SetContext(Context{Type: SourceRepo, Owner: "acme", Resource: "billing"})

	agent, err := s.Ask(context.Background(), "q")
	require.NoError(t, err)
	_, err = s.Generate(context.Background(), agent.ID, FormatDoc)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return listener.count() == 1 }, waitFor, tick)
}
