package session

import (
	"sync"
	"time"
)

// Store is the conversation session store. All operations are total: reads
// for an unknown chat behave as a fresh idle session, writes create the
// record lazily.
type Store interface {
	Get(chatID int64) Session
	Update(chatID int64, fn func(*Session))
	Delete(chatID int64)

	GetState(chatID int64) State
	SetState(chatID int64, st State)
	Authenticated(chatID int64) bool
	InProgress(chatID int64) bool

	// Sweep deletes sessions idle longer than ttl and returns their chat ids
	// so callers can release per-chat resources. ttl <= 0 is a no-op.
	Sweep(ttl time.Duration) []int64
}

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	now      func() time.Time
}

// NewMemoryStore constructs the in-memory Store used in production; session
// state is volatile by design and lost on restart.
func NewMemoryStore() Store {
	return &memoryStore{
		sessions: make(map[int64]*Session),
		now:      time.Now,
	}
}

func (m *memoryStore) get(chatID int64) *Session {
	sess, ok := m.sessions[chatID]
	if !ok {
		sess = &Session{ChatID: chatID, State: StateIdle}
		m.sessions[chatID] = sess
	}
	return sess
}

// Get returns a copy of the chat's session, or a fresh idle one.
func (m *memoryStore) Get(chatID int64) Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if sess, ok := m.sessions[chatID]; ok {
		return sess.clone()
	}
	return Session{ChatID: chatID, State: StateIdle}
}

// Update applies fn to the chat's session under the write lock, creating the
// record if needed. The controller is the only caller; per-chat updates are
// therefore serialized.
func (m *memoryStore) Update(chatID int64, fn func(*Session)) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := m.get(chatID)
	fn(sess)
	sess.LastSeen = m.now()
}

// Delete removes the session entirely; the chat is indistinguishable from one
// that never talked to the bot.
func (m *memoryStore) Delete(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, chatID)
}

// GetState returns the current state of a chat, or StateIdle if none exists.
func (m *memoryStore) GetState(chatID int64) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sess, ok := m.sessions[chatID]; ok {
		return sess.State
	}
	return StateIdle
}

// SetState updates only the state, creating a session if necessary.
func (m *memoryStore) SetState(chatID int64, st State) {
	m.Update(chatID, func(s *Session) {
		s.State = st
	})
}

// Authenticated reports whether the chat holds a bearer token.
func (m *memoryStore) Authenticated(chatID int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[chatID]
	return ok && sess.Authenticated()
}

// InProgress reports whether the chat is mid-flow, i.e. the next free-text
// message belongs to a state handler rather than the command router.
func (m *memoryStore) InProgress(chatID int64) bool {
	switch m.GetState(chatID) {
	case StateIdle, StateAuthenticated:
		return false
	}
	return true
}

// Sweep evicts idle sessions.
func (m *memoryStore) Sweep(ttl time.Duration) []int64 {
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-ttl)
	var evicted []int64
	for id, sess := range m.sessions {
		if sess.LastSeen.Before(cutoff) {
			delete(m.sessions, id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}
