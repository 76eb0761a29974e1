package chatstore

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dkarlsen/taskpilot/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// DefaultTitle is the placeholder title new sessions start with until
	// the first user message names them.
	DefaultTitle = "New conversation"

	// MaxSessions caps how many sessions are retained; creating a session
	// past the cap evicts the least recently used ones.
	MaxSessions = 15

	maxTitleRunes = 40

	welcomeText = "Hi! I'm your task assistant. I can break tasks into subtasks, " +
		"suggest todos, improve descriptions, and analyze files. What are we working on?"
)

// Storage persists the encoded chat state as an opaque blob.
type Storage interface {
	// Load returns the stored state, or (nil, nil) when nothing is stored.
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// Store holds all chat sessions for one user: a session map, a
// most-recently-used order, and the active session. Every mutation is
// written through to Storage; persistence failures are logged and
// swallowed so chat keeps working in memory.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*domain.ChatSession
	order    []string // most recently used first
	activeID string
	loading  bool
	errText  string

	storage Storage
	logger  zerolog.Logger

	now   func() time.Time
	newID func() string
}

// New builds a Store hydrated from storage. Absent or corrupt stored
// state yields a fresh store with a single welcome session.
func New(ctx context.Context, storage Storage, logger zerolog.Logger) *Store {
	s := &Store{
		storage: storage,
		logger:  logger,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}

	data, err := storage.Load(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to load chat state, starting fresh")
	}

	var st *storeState
	if err == nil && len(data) > 0 {
		st, err = decodeState(data)
		if err != nil {
			logger.Warn().Err(err).Msg("Stored chat state is corrupt, starting fresh")
			st = nil
		}
	}

	if st != nil {
		s.sessions = st.sessions
		s.order = st.order
		s.activeID = st.activeID
		return s
	}

	s.sessions = make(map[string]*domain.ChatSession)
	s.createSessionLocked()
	return s
}

// AddUserMessage appends a user message to the active session and returns
// the message ID.
func (s *Store) AddUserMessage(content string) string {
	return s.AddMessage(domain.ChatMessage{Role: domain.RoleUser, Content: content})
}

// AddAIMessage appends an assistant message, optionally carrying a
// structured payload.
func (s *Store) AddAIMessage(content string, payload *domain.MessagePayload) string {
	return s.AddMessage(domain.ChatMessage{Role: domain.RoleAssistant, Content: content, Payload: payload})
}

// AddSystemMessage appends a system notice to the active session.
func (s *Store) AddSystemMessage(content string) string {
	return s.AddMessage(domain.ChatMessage{Role: domain.RoleSystem, Content: content})
}

// AddMessage appends a message to the active session, assigning an ID and
// timestamp when absent. The first user message of a session replaces a
// placeholder title with a derived one. The active session is bumped to
// the front of the MRU order and the state is persisted.
func (s *Store) AddMessage(msg domain.ChatMessage) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ID == "" {
		msg.ID = s.newID()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}

	sess := s.activeSessionLocked()
	sess.Messages = append(sess.Messages, msg)
	sess.UpdatedAt = s.now()

	if msg.Role == domain.RoleUser && isPlaceholderTitle(sess.Title) {
		sess.Title = deriveTitle(msg.Content)
	}

	s.touchLocked(sess.ID)
	s.persistLocked()
	return msg.ID
}

// UpdateMessage patches a message in the active session in place. It
// returns false when no message with the given ID exists.
func (s *Store) UpdateMessage(id string, patch domain.MessagePatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.activeSessionLocked()
	for i := range sess.Messages {
		if sess.Messages[i].ID != id {
			continue
		}
		m := &sess.Messages[i]
		if patch.Content != nil {
			m.Content = *patch.Content
		}
		if patch.Pending != nil {
			m.Pending = *patch.Pending
		}
		if patch.ErrorText != nil {
			m.ErrorText = *patch.ErrorText
		}
		if patch.Payload != nil {
			m.Payload = patch.Payload
		}
		sess.UpdatedAt = s.now()
		s.persistLocked()
		return true
	}
	return false
}

// ClearChat resets the active session to a fresh welcome state, keeping
// its identity and place in the session list.
func (s *Store) ClearChat() {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.activeSessionLocked()
	sess.Title = DefaultTitle
	sess.Messages = []domain.ChatMessage{s.welcomeMessageLocked()}
	sess.UpdatedAt = s.now()
	s.errText = ""

	s.touchLocked(sess.ID)
	s.persistLocked()
}

// StartNewSession creates a fresh session, makes it active, and returns
// its ID. Sessions beyond MaxSessions are evicted from the tail of the
// MRU order.
func (s *Store) StartNewSession() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.createSessionLocked()
	s.persistLocked()
	return sess.ID
}

// SwitchSession makes the given session active and bumps it in the MRU
// order. Returns false for unknown IDs.
func (s *Store) SwitchSession(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false
	}
	s.activeID = id
	s.errText = ""
	s.touchLocked(id)
	s.persistLocked()
	return true
}

// DeleteSession removes a session. The last remaining session cannot be
// deleted. Deleting the active session activates the most recently used
// survivor.
func (s *Store) DeleteSession(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false
	}
	if len(s.sessions) <= 1 {
		return false
	}

	delete(s.sessions, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.activeID == id {
		s.activeID = s.order[0]
	}

	s.persistLocked()
	return true
}

// Messages returns a copy of the active session's messages.
func (s *Store) Messages() []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.activeSessionLocked()
	out := make([]domain.ChatMessage, len(sess.Messages))
	copy(out, sess.Messages)
	return out
}

// Sessions returns summaries in MRU order.
func (s *Store) Sessions() []domain.SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.SessionSummary, 0, len(s.order))
	for _, id := range s.order {
		sess := s.sessions[id]
		out = append(out, domain.SessionSummary{
			ID:           sess.ID,
			Title:        sess.Title,
			CreatedAt:    sess.CreatedAt,
			UpdatedAt:    sess.UpdatedAt,
			MessageCount: len(sess.Messages),
		})
	}
	return out
}

// ActiveSessionID returns the currently active session's ID.
func (s *Store) ActiveSessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// SetLoading flags whether an assistant response is in flight.
func (s *Store) SetLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = v
}

// Loading reports whether an assistant response is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// SetError records the last assistant error; empty clears it.
func (s *Store) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errText = msg
}

// Err returns the last recorded assistant error, if any.
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errText
}

func (s *Store) activeSessionLocked() *domain.ChatSession {
	if sess, ok := s.sessions[s.activeID]; ok {
		return sess
	}
	// Should not happen, but never leave the store without an active
	// session.
	return s.createSessionLocked()
}

func (s *Store) createSessionLocked() *domain.ChatSession {
	now := s.now()
	sess := &domain.ChatSession{
		ID:        s.newID(),
		Title:     DefaultTitle,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []domain.ChatMessage{s.welcomeMessageLocked()},
	}

	s.sessions[sess.ID] = sess
	s.order = append([]string{sess.ID}, s.order...)
	s.activeID = sess.ID
	s.errText = ""

	for len(s.order) > MaxSessions {
		evicted := s.order[len(s.order)-1]
		s.order = s.order[:len(s.order)-1]
		delete(s.sessions, evicted)
	}

	return sess
}

func (s *Store) welcomeMessageLocked() domain.ChatMessage {
	return domain.ChatMessage{
		ID:        s.newID(),
		Role:      domain.RoleAssistant,
		Content:   welcomeText,
		CreatedAt: s.now(),
	}
}

// touchLocked moves a session to the front of the MRU order.
func (s *Store) touchLocked(id string) {
	for i, oid := range s.order {
		if oid == id {
			if i == 0 {
				return
			}
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.order = append([]string{id}, s.order...)
}

func (s *Store) persistLocked() {
	data, err := encodeState(&storeState{
		sessions: s.sessions,
		order:    s.order,
		activeID: s.activeID,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode chat state")
		return
	}
	if err := s.storage.Save(context.Background(), data); err != nil {
		s.logger.Error().Err(err).Msg("Failed to persist chat state")
	}
}

func isPlaceholderTitle(title string) bool {
	switch title {
	case "", DefaultTitle, "New Chat":
		return true
	}
	return false
}

// deriveTitle trims a user message to a session title, capped at 40 runes
// with an ellipsis.
func deriveTitle(content string) string {
	if content == "" {
		return DefaultTitle
	}
	if utf8.RuneCountInString(content) <= maxTitleRunes {
		return content
	}
	runes := []rune(content)
	return string(runes[:maxTitleRunes]) + "…"
}
