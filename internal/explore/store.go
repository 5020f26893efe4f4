package explore

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Addis4/kt-ai/internal/metrics"
)

// SessionStore owns the live sessions of this process. Sessions are
// explicitly created, looked up by id and dropped after an idle TTL;
// nothing survives a restart.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration

	answerer Answerer
	docs     DocGenerator
	opts     []Option
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewSessionStore creates a store. ttl <= 0 disables expiry.
func NewSessionStore(answerer Answerer, docs DocGenerator, ttl time.Duration, logger zerolog.Logger, opts ...Option) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		answerer: answerer,
		docs:     docs,
		opts:     opts,
		logger:   logger.With().Str("component", "session_store").Logger(),
	}
}

// SetMetrics sets the metrics collector, also propagated to new sessions.
func (st *SessionStore) SetMetrics(m *metrics.Metrics) {
	st.metrics = m
}

// Create makes a new session and registers it.
func (st *SessionStore) Create() *Session {
	opts := st.opts
	if st.metrics != nil {
		opts = append(append([]Option{}, st.opts...), WithMetrics(st.metrics))
	}
	s := NewSession(st.answerer, st.docs, st.logger, opts...)

	st.mu.Lock()
	st.sessions[s.ID()] = s
	count := len(st.sessions)
	st.mu.Unlock()

	st.setGauge(count)
	st.logger.Info().Str("session_id", s.ID()).Msg("session created")
	return s
}

// Get returns the session with the given id, if it is still live.
func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if st.ttl > 0 && time.Since(s.LastUsed()) > st.ttl {
		return nil, false
	}
	return s, true
}

// Len returns the number of registered sessions, expired or not.
func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Cleanup drops sessions idle past the TTL. Returns the number removed.
func (st *SessionStore) Cleanup() int {
	if st.ttl <= 0 {
		return 0
	}
	st.mu.Lock()
	removed := 0
	for id, s := range st.sessions {
		if time.Since(s.LastUsed()) > st.ttl {
			delete(st.sessions, id)
			removed++
		}
	}
	count := len(st.sessions)
	st.mu.Unlock()

	if removed > 0 {
		st.setGauge(count)
		st.logger.Info().Int("removed", removed).Msg("expired sessions cleaned up")
	}
	return removed
}

// StartCleanup runs Cleanup on the given interval until stop is closed.
func (st *SessionStore) StartCleanup(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				st.Cleanup()
			}
		}
	}()
}

func (st *SessionStore) setGauge(count int) {
	if st.metrics != nil {
		st.metrics.SetActiveSessions(float64(count))
	}
}
