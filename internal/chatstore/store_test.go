package chatstore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dkarlsen/taskpilot/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// memStorage is an in-memory Storage with injectable failures
type memStorage struct {
	data    []byte
	loadErr error
	saveErr error
	saves   int
}

func (s *memStorage) Load(ctx context.Context) ([]byte, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.data, nil
}

func (s *memStorage) Save(ctx context.Context, data []byte) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.data = data
	return nil
}

func newTestStore(t *testing.T) (*Store, *memStorage) {
	t.Helper()
	storage := &memStorage{}
	return New(context.Background(), storage, zerolog.Nop()), storage
}

func TestStore_FreshStateHasWelcomeSession(t *testing.T) {
	store, _ := newTestStore(t)

	sessions := store.Sessions()
	assert.Len(t, sessions, 1)
	assert.Equal(t, DefaultTitle, sessions[0].Title)
	assert.Equal(t, sessions[0].ID, store.ActiveSessionID())

	msgs := store.Messages()
	assert.Len(t, msgs, 1)
	assert.Equal(t, domain.RoleAssistant, msgs[0].Role)
	assert.NotEmpty(t, msgs[0].Content)
}

func TestStore_TitleDerivation(t *testing.T) {
	t.Run("short message becomes title", func(t *testing.T) {
		store, _ := newTestStore(t)
		store.AddUserMessage("Organize my week")
		assert.Equal(t, "Organize my week", store.Sessions()[0].Title)
	})

	t.Run("long message is truncated with ellipsis", func(t *testing.T) {
		store, _ := newTestStore(t)
		input := "Organize my week properly please and thank you very much indeed"
		store.AddUserMessage(input)

		want := string([]rune(input)[:40]) + "…"
		assert.Equal(t, want, store.Sessions()[0].Title)
	})

	t.Run("title is not recomputed", func(t *testing.T) {
		store, _ := newTestStore(t)
		store.AddUserMessage("First message")
		store.AddUserMessage("A much better second message")
		assert.Equal(t, "First message", store.Sessions()[0].Title)
	})

	t.Run("assistant messages never set the title", func(t *testing.T) {
		store, _ := newTestStore(t)
		store.AddAIMessage("Not a title", nil)
		assert.Equal(t, DefaultTitle, store.Sessions()[0].Title)
	})
}

func TestStore_MRUOrdering(t *testing.T) {
	store, _ := newTestStore(t)

	first := store.ActiveSessionID()
	second := store.StartNewSession()
	third := store.StartNewSession()

	assert.Equal(t, []string{third, second, first}, sessionIDs(store))

	assert.True(t, store.SwitchSession(first))
	assert.Equal(t, []string{first, third, second}, sessionIDs(store))

	store.SwitchSession(second)
	store.AddUserMessage("bump")
	assert.Equal(t, []string{second, first, third}, sessionIDs(store))
}

func TestStore_SessionCap(t *testing.T) {
	store, _ := newTestStore(t)

	for i := 0; i < MaxSessions*2; i++ {
		store.StartNewSession()
	}

	sessions := store.Sessions()
	assert.Len(t, sessions, MaxSessions)

	// Every order entry resolves to a live session
	for _, s := range sessions {
		assert.True(t, store.SwitchSession(s.ID))
	}
}

func TestStore_DeleteProtection(t *testing.T) {
	store, _ := newTestStore(t)

	only := store.ActiveSessionID()
	assert.False(t, store.DeleteSession(only))
	assert.Len(t, store.Sessions(), 1)

	second := store.StartNewSession()
	assert.True(t, store.DeleteSession(second))
	assert.Equal(t, only, store.ActiveSessionID())

	assert.False(t, store.DeleteSession("no-such-session"))
}

func TestStore_DeleteActiveFallsBack(t *testing.T) {
	store, _ := newTestStore(t)

	first := store.ActiveSessionID()
	second := store.StartNewSession()

	assert.True(t, store.DeleteSession(second))
	assert.Equal(t, first, store.ActiveSessionID())
}

func TestStore_ClearChat(t *testing.T) {
	store, _ := newTestStore(t)

	store.AddUserMessage("Organize my week")
	store.AddAIMessage("Sure", nil)
	store.ClearChat()

	msgs := store.Messages()
	assert.Len(t, msgs, 1)
	assert.Equal(t, domain.RoleAssistant, msgs[0].Role)
	assert.Equal(t, DefaultTitle, store.Sessions()[0].Title)
}

func TestStore_UpdateMessage(t *testing.T) {
	store, _ := newTestStore(t)

	id := store.AddMessage(domain.ChatMessage{
		Role:    domain.RoleAssistant,
		Content: "Thinking…",
		Pending: true,
	})

	content := "Done"
	pending := false
	assert.True(t, store.UpdateMessage(id, domain.MessagePatch{
		Content: &content,
		Pending: &pending,
	}))

	msgs := store.Messages()
	last := msgs[len(msgs)-1]
	assert.Equal(t, "Done", last.Content)
	assert.False(t, last.Pending)

	assert.False(t, store.UpdateMessage("missing", domain.MessagePatch{Content: &content}))
}

func TestStore_PersistenceOnEveryMutation(t *testing.T) {
	store, storage := newTestStore(t)

	saved := storage.saves
	store.AddUserMessage("hello")
	assert.Greater(t, storage.saves, saved)

	// Rehydrating from the persisted blob restores the state
	restored := New(context.Background(), storage, zerolog.Nop())
	assert.Equal(t, store.ActiveSessionID(), restored.ActiveSessionID())
	assert.Equal(t, len(store.Messages()), len(restored.Messages()))
	assert.Equal(t, "hello", store.Sessions()[0].Title)
}

func TestStore_SaveFailureIsSwallowed(t *testing.T) {
	storage := &memStorage{saveErr: errors.New("disk full")}
	store := New(context.Background(), storage, zerolog.Nop())

	store.AddUserMessage("still works")
	assert.Equal(t, "still works", store.Sessions()[0].Title)
}

func TestStore_LoadFailureStartsFresh(t *testing.T) {
	storage := &memStorage{loadErr: errors.New("connection refused")}
	store := New(context.Background(), storage, zerolog.Nop())

	assert.Len(t, store.Sessions(), 1)
	assert.Equal(t, DefaultTitle, store.Sessions()[0].Title)
}

func TestStore_MessagesReturnsCopy(t *testing.T) {
	store, _ := newTestStore(t)
	store.AddUserMessage("original")

	msgs := store.Messages()
	msgs[len(msgs)-1].Content = strings.ToUpper(msgs[len(msgs)-1].Content)

	fresh := store.Messages()
	assert.Equal(t, "original", fresh[len(fresh)-1].Content)
}

func TestStore_LoadingAndError(t *testing.T) {
	store, _ := newTestStore(t)

	store.SetLoading(true)
	assert.True(t, store.Loading())
	store.SetLoading(false)
	assert.False(t, store.Loading())

	store.SetError("boom")
	assert.Equal(t, "boom", store.Err())
	store.SetError("")
	assert.Empty(t, store.Err())
}

func sessionIDs(store *Store) []string {
	sessions := store.Sessions()
	ids := make([]string, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	return ids
}
