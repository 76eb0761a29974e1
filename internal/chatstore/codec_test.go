package chatstore

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dkarlsen/taskpilot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_RoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	sess := &domain.ChatSession{
		ID:        "s1",
		Title:     "Plan vacation",
		CreatedAt: now,
		UpdatedAt: now.Add(time.Minute),
		Messages: []domain.ChatMessage{
			{ID: "m1", Role: domain.RoleUser, Content: "Plan vacation", CreatedAt: now},
			{
				ID:        "m2",
				Role:      domain.RoleAssistant,
				Content:   "Here you go",
				CreatedAt: now.Add(time.Second),
				Payload: &domain.MessagePayload{
					Type: domain.PayloadSubtasks,
					Subtasks: &domain.SubtasksPayload{
						ParentTaskTitle: "Plan vacation",
						Subtasks:        []domain.Subtask{{Title: "Book flights", Order: 1, Priority: "high"}},
						AutoCreated:     true,
					},
				},
			},
		},
	}

	st := &storeState{
		sessions: map[string]*domain.ChatSession{"s1": sess},
		order:    []string{"s1"},
		activeID: "s1",
	}

	data, err := encodeState(st)
	require.NoError(t, err)

	got, err := decodeState(data)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, []string{"s1"}, got.order)
	assert.Equal(t, "s1", got.activeID)

	gotSess := got.sessions["s1"]
	require.NotNil(t, gotSess)
	assert.Equal(t, sess.Title, gotSess.Title)
	assert.True(t, sess.CreatedAt.Equal(gotSess.CreatedAt))
	require.Len(t, gotSess.Messages, 2)
	assert.Equal(t, "m1", gotSess.Messages[0].ID)
	assert.True(t, sess.Messages[1].CreatedAt.Equal(gotSess.Messages[1].CreatedAt))

	payload := gotSess.Messages[1].Payload
	require.NotNil(t, payload)
	assert.Equal(t, domain.PayloadSubtasks, payload.Type)
	assert.Equal(t, "Plan vacation", payload.Subtasks.ParentTaskTitle)
	assert.True(t, payload.Subtasks.AutoCreated)
	require.Len(t, payload.Subtasks.Subtasks, 1)
	assert.Equal(t, "Book flights", payload.Subtasks.Subtasks[0].Title)
}

func TestCodec_AbsentState(t *testing.T) {
	for _, data := range [][]byte{nil, {}, []byte("   ")} {
		st, err := decodeState(data)
		assert.NoError(t, err)
		assert.Nil(t, st)
	}
}

func TestCodec_CorruptState(t *testing.T) {
	for _, data := range [][]byte{
		[]byte("{not json"),
		[]byte("[{bad"),
		[]byte(`"just a string"`),
	} {
		_, err := decodeState(data)
		assert.Error(t, err)
	}
}

func TestCodec_LegacyMessageArray(t *testing.T) {
	legacy := []byte(`[
		{"id":"m1","role":"assistant","content":"Welcome","created_at":"2025-01-02T10:00:00Z"},
		{"id":"m2","role":"user","content":"Organize my garage this weekend","created_at":"2025-01-02T10:01:00Z"}
	]`)

	st, err := decodeState(legacy)
	require.NoError(t, err)
	require.NotNil(t, st)

	require.Len(t, st.order, 1)
	sess := st.sessions[st.order[0]]
	require.NotNil(t, sess)
	assert.Equal(t, st.order[0], st.activeID)

	// Title derives from the first user message
	assert.Equal(t, "Organize my garage this weekend", sess.Title)
	require.Len(t, sess.Messages, 2)
	assert.Equal(t, domain.RoleAssistant, sess.Messages[0].Role)
	assert.Equal(t, "2025-01-02T10:01:00Z", sess.Messages[1].CreatedAt.Format(time.RFC3339))
}

func TestCodec_EmptyLegacyArray(t *testing.T) {
	st, err := decodeState([]byte("[]"))
	assert.NoError(t, err)
	assert.Nil(t, st)
}

func TestCodec_DefensiveRepair(t *testing.T) {
	t.Run("dangling order entries are dropped", func(t *testing.T) {
		data := []byte(`{
			"sessions": {"s1": {"id":"s1","title":"Kept","created_at":"2025-01-02T10:00:00Z","updated_at":"2025-01-02T10:00:00Z","messages":[]}},
			"session_order": ["ghost", "s1", "s1"],
			"active_session_id": "s1"
		}`)

		st, err := decodeState(data)
		require.NoError(t, err)
		require.NotNil(t, st)
		assert.Equal(t, []string{"s1"}, st.order)
	})

	t.Run("unresolvable active falls back to order head", func(t *testing.T) {
		data := []byte(`{
			"sessions": {"s1": {"id":"s1","title":"Kept","messages":[]}},
			"session_order": ["s1"],
			"active_session_id": "gone"
		}`)

		st, err := decodeState(data)
		require.NoError(t, err)
		assert.Equal(t, "s1", st.activeID)
	})

	t.Run("no surviving sessions means fresh start", func(t *testing.T) {
		data := []byte(`{
			"sessions": {},
			"session_order": ["ghost"],
			"active_session_id": "ghost"
		}`)

		st, err := decodeState(data)
		assert.NoError(t, err)
		assert.Nil(t, st)
	})

	t.Run("sessions missing from order are re-appended", func(t *testing.T) {
		data := []byte(`{
			"sessions": {
				"s1": {"id":"s1","title":"In order","messages":[]},
				"s2": {"id":"s2","title":"Orphan","messages":[]}
			},
			"session_order": ["s1"],
			"active_session_id": "s1"
		}`)

		st, err := decodeState(data)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"s1", "s2"}, st.order)
		assert.Equal(t, "s1", st.order[0])
	})
}

func TestNormalizePayload(t *testing.T) {
	t.Run("canonical subtasks", func(t *testing.T) {
		raw := json.RawMessage(`{"type":"subtasks","subtasks":{"parent_task_title":"Move","subtasks":[{"title":"Pack","order":1}],"auto_created":true}}`)
		p := normalizePayload(raw)
		require.NotNil(t, p)
		assert.Equal(t, domain.PayloadSubtasks, p.Type)
		assert.Equal(t, "Move", p.Subtasks.ParentTaskTitle)
		assert.True(t, p.Subtasks.AutoCreated)
	})

	t.Run("legacy generated_subtasks", func(t *testing.T) {
		raw := json.RawMessage(`{"parent_task_title":"Move","generated_subtasks":[{"title":"Pack","order":1}]}`)
		p := normalizePayload(raw)
		require.NotNil(t, p)
		assert.Equal(t, domain.PayloadSubtasks, p.Type)
		require.Len(t, p.Subtasks.Subtasks, 1)
		assert.Equal(t, "Pack", p.Subtasks.Subtasks[0].Title)
	})

	t.Run("legacy flat subtasks array", func(t *testing.T) {
		raw := json.RawMessage(`{"parent_task_title":"Move","subtasks":[{"title":"Pack","order":1}]}`)
		p := normalizePayload(raw)
		require.NotNil(t, p)
		assert.Equal(t, domain.PayloadSubtasks, p.Type)
	})

	t.Run("generic data wrapper", func(t *testing.T) {
		raw := json.RawMessage(`{"type":"subtasks","data":{"parent_task_title":"Move","generated_subtasks":[{"title":"Pack"}]}}`)
		p := normalizePayload(raw)
		require.NotNil(t, p)
		assert.Equal(t, domain.PayloadSubtasks, p.Type)
		assert.Equal(t, "Move", p.Subtasks.ParentTaskTitle)
	})

	t.Run("legacy generated_todos", func(t *testing.T) {
		raw := json.RawMessage(`{"request_description":"shopping","generated_todos":[{"title":"Buy milk","priority":"low"}]}`)
		p := normalizePayload(raw)
		require.NotNil(t, p)
		assert.Equal(t, domain.PayloadTodoSuggestions, p.Type)
		assert.Equal(t, "shopping", p.TodoSuggestions.RequestDescription)
	})

	t.Run("flat analysis", func(t *testing.T) {
		raw := json.RawMessage(`{"analysis":{"summary":"Notes","key_points":["a"],"suggested_tasks":[],"confidence_score":0.7}}`)
		p := normalizePayload(raw)
		require.NotNil(t, p)
		assert.Equal(t, domain.PayloadAnalysis, p.Type)
		assert.Equal(t, "Notes", p.Analysis.Analysis.Summary)
	})

	t.Run("flat optimization", func(t *testing.T) {
		raw := json.RawMessage(`{"optimized_title":"Better","optimized_description":"Much better","optimization_type":"description"}`)
		p := normalizePayload(raw)
		require.NotNil(t, p)
		assert.Equal(t, domain.PayloadOptimization, p.Type)
		assert.Equal(t, "Better", p.Optimization.Optimization.OptimizedTitle)
	})

	t.Run("wrapped optimization", func(t *testing.T) {
		raw := json.RawMessage(`{"optimization":{"optimized_description":"Much better"}}`)
		p := normalizePayload(raw)
		require.NotNil(t, p)
		assert.Equal(t, domain.PayloadOptimization, p.Type)
	})

	t.Run("unrecognized payloads are dropped", func(t *testing.T) {
		for _, raw := range []json.RawMessage{
			json.RawMessage(`{"something":"else"}`),
			json.RawMessage(`{"type":"mystery","data":{}}`),
			json.RawMessage(`42`),
			json.RawMessage(`{"type":"subtasks","subtasks":{"subtasks":[]}}`),
		} {
			assert.Nil(t, normalizePayload(raw))
		}
	})
}

func TestCodec_DroppedPayloadKeepsMessage(t *testing.T) {
	data := []byte(`{
		"sessions": {"s1": {"id":"s1","title":"T","messages":[
			{"id":"m1","role":"assistant","content":"text survives","created_at":"2025-01-02T10:00:00Z","payload":{"bogus":true}}
		]}},
		"session_order": ["s1"],
		"active_session_id": "s1"
	}`)

	st, err := decodeState(data)
	require.NoError(t, err)

	msg := st.sessions["s1"].Messages[0]
	assert.Equal(t, "text survives", msg.Content)
	assert.Nil(t, msg.Payload)
}
