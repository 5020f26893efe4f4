package explore

import "sync"

// ConversationLog is the append-only, strictly ordered message history of
// one session. No reorder, dedup or delete operations exist.
type ConversationLog struct {
	mu       sync.RWMutex
	messages []*Message
}

// NewConversationLog creates an empty log.
func NewConversationLog() *ConversationLog {
	return &ConversationLog{}
}

// Append adds a message at the end of the log.
func (l *ConversationLog) Append(m *Message) {
	l.mu.Lock()
	l.messages = append(l.messages, m)
	l.mu.Unlock()
}

// Len returns the number of messages.
func (l *ConversationLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}

// Messages returns the log in insertion order as deep copies.
func (l *ConversationLog) Messages() []*Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Message, len(l.messages))
	for i, m := range l.messages {
		out[i] = m.Clone()
	}
	return out
}

// Get returns a copy of the message with the given id.
func (l *ConversationLog) Get(id string) (*Message, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if m := l.find(id); m != nil {
		return m.Clone(), true
	}
	return nil, false
}

// SetGeneration records the generation result for one (message, format)
// pair. Unknown ids are a silent no-op: the tracker may hold a reference
// to a message that is no longer in the log, and that must never panic.
func (l *ConversationLog) SetGeneration(messageID string, format DocFormat, g Generation) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	m := l.find(messageID)
	if m == nil || m.Role != RoleAgent {
		return false
	}
	if m.Generations == nil {
		m.Generations = make(map[DocFormat]Generation, 2)
	}
	m.Generations[format] = g
	return true
}

// find must be called with the lock held.
func (l *ConversationLog) find(id string) *Message {
	for _, m := range l.messages {
		if m.ID == id {
			return m
		}
	}
	return nil
}
