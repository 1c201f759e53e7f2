// Package contextstore provides bounded per-session conversational memory.
// Each session keeps a fixed-capacity FIFO of opaque context events; when the
// buffer is full the oldest event is evicted.
package contextstore

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// DefaultCapacity is the per-session event capacity used when none is configured.
const DefaultCapacity = 10

// Actions understood by Do.
const (
	ActionUpdate = "update_context"
	ActionGet    = "get_context"
)

// Store keeps a bounded event history per session. Appends for the same
// session are serialized; unrelated sessions do not contend beyond the
// session-map lookup.
type Store struct {
	capacity int
	mu       sync.RWMutex
	sessions map[string]*session
	logger   *zap.Logger
}

type session struct {
	mu    sync.Mutex
	items []interface{}
	start int
	count int
}

// New creates a store whose sessions each hold up to capacity events.
func New(capacity int, logger *zap.Logger) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		capacity: capacity,
		sessions: make(map[string]*session),
		logger:   logger,
	}
}

// Capacity returns the per-session event capacity.
func (s *Store) Capacity() int {
	return s.capacity
}

// Update appends event to the session's buffer, creating the buffer on first
// reference. At capacity the oldest event is evicted.
func (s *Store) Update(sessionID string, event interface{}) error {
	if sessionID == "" {
		return ErrMissingSessionID
	}
	sess := s.getOrCreate(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.count < s.capacity {
		sess.items[(sess.start+sess.count)%s.capacity] = event
		sess.count++
	} else {
		sess.items[sess.start] = event
		sess.start = (sess.start + 1) % s.capacity
	}
	s.logger.Debug("context updated",
		zap.String("session_id", sessionID), zap.Int("size", sess.count))
	return nil
}

// Get returns the session's events oldest-to-newest. A session that has never
// been referenced yields an empty slice, not an error; no buffer is
// materialized on a read.
func (s *Store) Get(sessionID string) ([]interface{}, error) {
	if sessionID == "" {
		return nil, ErrMissingSessionID
	}
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return []interface{}{}, nil
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]interface{}, sess.count)
	for i := 0; i < sess.count; i++ {
		out[i] = sess.items[(sess.start+i)%s.capacity]
	}
	return out, nil
}

// Do dispatches a named action against the store. Unknown actions yield
// ErrUnsupportedAction with the offending name. The returned slice is only
// meaningful for ActionGet.
func (s *Store) Do(action, sessionID string, event interface{}) ([]interface{}, error) {
	switch action {
	case ActionUpdate:
		return nil, s.Update(sessionID, event)
	case ActionGet:
		return s.Get(sessionID)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAction, action)
	}
}

func (s *Store) getOrCreate(sessionID string) *session {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		return sess
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok = s.sessions[sessionID]; ok {
		return sess
	}
	sess = &session{items: make([]interface{}, s.capacity)}
	s.sessions[sessionID] = sess
	s.logger.Debug("initialized session context", zap.String("session_id", sessionID))
	return sess
}
