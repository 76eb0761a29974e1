package chatstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/dkarlsen/taskpilot/internal/domain"
	"github.com/google/uuid"
)

// Wire format for persisted chat state. Timestamps travel as RFC 3339
// strings so the stored JSON stays readable and portable.
type wireMessage struct {
	ID        string          `json:"id"`
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	CreatedAt string          `json:"created_at"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	IsPending bool            `json:"is_pending,omitempty"`
	ErrorText string          `json:"error_text,omitempty"`
}

type wireSession struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	CreatedAt string        `json:"created_at"`
	UpdatedAt string        `json:"updated_at"`
	Messages  []wireMessage `json:"messages"`
}

type wireState struct {
	Sessions        map[string]wireSession `json:"sessions"`
	SessionOrder    []string               `json:"session_order"`
	ActiveSessionID string                 `json:"active_session_id"`
}

// storeState is the decoded in-memory form
type storeState struct {
	sessions map[string]*domain.ChatSession
	order    []string
	activeID string
}

func encodeState(st *storeState) ([]byte, error) {
	w := wireState{
		Sessions:        make(map[string]wireSession, len(st.sessions)),
		SessionOrder:    st.order,
		ActiveSessionID: st.activeID,
	}

	for id, sess := range st.sessions {
		ws := wireSession{
			ID:        sess.ID,
			Title:     sess.Title,
			CreatedAt: sess.CreatedAt.UTC().Format(time.RFC3339Nano),
			UpdatedAt: sess.UpdatedAt.UTC().Format(time.RFC3339Nano),
			Messages:  make([]wireMessage, 0, len(sess.Messages)),
		}
		for _, m := range sess.Messages {
			wm := wireMessage{
				ID:        m.ID,
				Role:      string(m.Role),
				Content:   m.Content,
				CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339Nano),
				IsPending: m.Pending,
				ErrorText: m.ErrorText,
			}
			if m.Payload != nil {
				raw, err := json.Marshal(m.Payload)
				if err != nil {
					return nil, fmt.Errorf("failed to marshal payload: %w", err)
				}
				wm.Payload = raw
			}
			ws.Messages = append(ws.Messages, wm)
		}
		w.Sessions[id] = ws
	}

	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat state: %w", err)
	}
	return data, nil
}

// decodeState accepts the three historical shapes of persisted state:
// the current {sessions, session_order, active_session_id} document, the
// legacy flat message array, and absent data. It returns (nil, nil) when
// there is nothing to restore and the caller should start fresh.
func decodeState(data []byte) (*storeState, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		return decodeLegacyMessages(trimmed)
	}

	var w wireState
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chat state: %w", err)
	}

	st := &storeState{sessions: make(map[string]*domain.ChatSession, len(w.Sessions))}
	for id, ws := range w.Sessions {
		if id == "" {
			continue
		}
		st.sessions[id] = decodeSession(id, ws)
	}

	// Defensive repair: order entries must resolve to sessions, and every
	// session must appear in the order exactly once.
	seen := make(map[string]bool, len(st.sessions))
	for _, id := range w.SessionOrder {
		if _, ok := st.sessions[id]; ok && !seen[id] {
			st.order = append(st.order, id)
			seen[id] = true
		}
	}
	var orphans []string
	for id := range st.sessions {
		if !seen[id] {
			orphans = append(orphans, id)
		}
	}
	sort.Slice(orphans, func(i, j int) bool {
		return st.sessions[orphans[i]].UpdatedAt.After(st.sessions[orphans[j]].UpdatedAt)
	})
	st.order = append(st.order, orphans...)

	if len(st.order) == 0 {
		return nil, nil
	}

	if _, ok := st.sessions[w.ActiveSessionID]; ok {
		st.activeID = w.ActiveSessionID
	} else {
		st.activeID = st.order[0]
	}

	return st, nil
}

// decodeLegacyMessages wraps the pre-multi-session flat message array into
// a single session, deriving the title from its first user message.
func decodeLegacyMessages(data []byte) (*storeState, error) {
	var msgs []wireMessage
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal legacy messages: %w", err)
	}
	if len(msgs) == 0 {
		return nil, nil
	}

	sess := &domain.ChatSession{
		ID:    uuid.New().String(),
		Title: DefaultTitle,
	}
	for _, wm := range msgs {
		sess.Messages = append(sess.Messages, decodeMessage(wm))
	}
	sess.CreatedAt = sess.Messages[0].CreatedAt
	sess.UpdatedAt = sess.Messages[len(sess.Messages)-1].CreatedAt

	for _, m := range sess.Messages {
		if m.Role == domain.RoleUser {
			sess.Title = deriveTitle(m.Content)
			break
		}
	}

	return &storeState{
		sessions: map[string]*domain.ChatSession{sess.ID: sess},
		order:    []string{sess.ID},
		activeID: sess.ID,
	}, nil
}

func decodeSession(id string, ws wireSession) *domain.ChatSession {
	sess := &domain.ChatSession{
		ID:        id,
		Title:     ws.Title,
		CreatedAt: parseTime(ws.CreatedAt),
		UpdatedAt: parseTime(ws.UpdatedAt),
	}
	if sess.Title == "" {
		sess.Title = DefaultTitle
	}
	for _, wm := range ws.Messages {
		sess.Messages = append(sess.Messages, decodeMessage(wm))
	}
	return sess
}

func decodeMessage(wm wireMessage) domain.ChatMessage {
	m := domain.ChatMessage{
		ID:        wm.ID,
		Role:      domain.MessageRole(wm.Role),
		Content:   wm.Content,
		CreatedAt: parseTime(wm.CreatedAt),
		Pending:   wm.IsPending,
		ErrorText: wm.ErrorText,
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if len(wm.Payload) > 0 {
		m.Payload = normalizePayload(wm.Payload)
	}
	return m
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// payloadMatcher inspects a raw payload document and returns the canonical
// tagged-union form, or nil when the shape is not recognized.
type payloadMatcher func(typ string, fields map[string]json.RawMessage, raw json.RawMessage) *domain.MessagePayload

// Matchers are tried in priority order; the first hit wins. Unrecognized
// payloads are dropped so a single bad message never fails the whole load.
var payloadMatchers = []payloadMatcher{
	matchCanonical,
	matchSubtasks,
	matchTodoSuggestions,
	matchAnalysis,
	matchOptimization,
}

func normalizePayload(raw json.RawMessage) *domain.MessagePayload {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}

	var typ string
	if t, ok := fields["type"]; ok {
		_ = json.Unmarshal(t, &typ)
	}

	for _, match := range payloadMatchers {
		if p := match(typ, fields, raw); p != nil {
			return p
		}
	}
	return nil
}

func matchCanonical(typ string, fields map[string]json.RawMessage, raw json.RawMessage) *domain.MessagePayload {
	var p domain.MessagePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil
	}
	switch p.Type {
	case domain.PayloadSubtasks:
		if p.Subtasks != nil && len(p.Subtasks.Subtasks) > 0 {
			return &domain.MessagePayload{Type: p.Type, Subtasks: p.Subtasks}
		}
	case domain.PayloadTodoSuggestions:
		if p.TodoSuggestions != nil && len(p.TodoSuggestions.Suggestions) > 0 {
			return &domain.MessagePayload{Type: p.Type, TodoSuggestions: p.TodoSuggestions}
		}
	case domain.PayloadAnalysis:
		if p.Analysis != nil && analysisHasContent(p.Analysis.Analysis) {
			return &domain.MessagePayload{Type: p.Type, Analysis: p.Analysis}
		}
	case domain.PayloadOptimization:
		if p.Optimization != nil && optimizationHasContent(p.Optimization.Optimization) {
			return &domain.MessagePayload{Type: p.Type, Optimization: p.Optimization}
		}
	}
	return nil
}

// matchSubtasks accepts the historical subtask shapes: a top-level
// generated_subtasks array, or a top-level subtasks array next to
// parent_task_title.
func matchSubtasks(typ string, fields map[string]json.RawMessage, raw json.RawMessage) *domain.MessagePayload {
	var legacy struct {
		ParentTaskTitle   string           `json:"parent_task_title"`
		GeneratedSubtasks []domain.Subtask `json:"generated_subtasks"`
		Subtasks          []domain.Subtask `json:"subtasks"`
		AutoCreated       bool             `json:"auto_created"`
	}
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return nil
	}

	items := legacy.GeneratedSubtasks
	if len(items) == 0 {
		items = legacy.Subtasks
	}
	if len(items) == 0 {
		// Generic wrapper: {type: "subtasks", data: {...}}
		if typ == string(domain.PayloadSubtasks) {
			if data, ok := fields["data"]; ok {
				return matchSubtasks("", nil, data)
			}
		}
		return nil
	}

	return &domain.MessagePayload{
		Type: domain.PayloadSubtasks,
		Subtasks: &domain.SubtasksPayload{
			ParentTaskTitle: legacy.ParentTaskTitle,
			Subtasks:        items,
			AutoCreated:     legacy.AutoCreated,
		},
	}
}

func matchTodoSuggestions(typ string, fields map[string]json.RawMessage, raw json.RawMessage) *domain.MessagePayload {
	var legacy struct {
		RequestDescription string                  `json:"request_description"`
		GeneratedTodos     []domain.TodoSuggestion `json:"generated_todos"`
		Suggestions        []domain.TodoSuggestion `json:"suggestions"`
	}
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return nil
	}

	items := legacy.GeneratedTodos
	if len(items) == 0 {
		items = legacy.Suggestions
	}
	if len(items) == 0 {
		if typ == string(domain.PayloadTodoSuggestions) {
			if data, ok := fields["data"]; ok {
				return matchTodoSuggestions("", nil, data)
			}
		}
		return nil
	}

	return &domain.MessagePayload{
		Type: domain.PayloadTodoSuggestions,
		TodoSuggestions: &domain.TodoSuggestionsPayload{
			RequestDescription: legacy.RequestDescription,
			Suggestions:        items,
		},
	}
}

// matchAnalysis accepts both {analysis: {analysis: {...}}} and the flat
// {analysis: {...}} historical form.
func matchAnalysis(typ string, fields map[string]json.RawMessage, raw json.RawMessage) *domain.MessagePayload {
	inner, ok := fields["analysis"]
	if !ok {
		return nil
	}

	var fa domain.FileAnalysis
	if err := json.Unmarshal(inner, &fa); err == nil && analysisHasContent(fa) {
		return &domain.MessagePayload{
			Type:     domain.PayloadAnalysis,
			Analysis: &domain.AnalysisPayload{Analysis: fa},
		}
	}

	var wrapped domain.AnalysisPayload
	if err := json.Unmarshal(inner, &wrapped); err == nil && analysisHasContent(wrapped.Analysis) {
		return &domain.MessagePayload{
			Type:     domain.PayloadAnalysis,
			Analysis: &wrapped,
		}
	}

	return nil
}

// matchOptimization accepts {optimization: {...}} and the flat historical
// form where optimized_title/optimized_description live at the top level.
func matchOptimization(typ string, fields map[string]json.RawMessage, raw json.RawMessage) *domain.MessagePayload {
	if inner, ok := fields["optimization"]; ok {
		var opt domain.TaskOptimization
		if err := json.Unmarshal(inner, &opt); err == nil && optimizationHasContent(opt) {
			return &domain.MessagePayload{
				Type:         domain.PayloadOptimization,
				Optimization: &domain.OptimizationPayload{Optimization: opt},
			}
		}
		return nil
	}

	var opt domain.TaskOptimization
	if err := json.Unmarshal(raw, &opt); err == nil && optimizationHasContent(opt) {
		return &domain.MessagePayload{
			Type:         domain.PayloadOptimization,
			Optimization: &domain.OptimizationPayload{Optimization: opt},
		}
	}

	return nil
}

func analysisHasContent(fa domain.FileAnalysis) bool {
	return fa.Summary != "" || len(fa.KeyPoints) > 0 || len(fa.SuggestedTasks) > 0
}

func optimizationHasContent(opt domain.TaskOptimization) bool {
	return opt.OptimizedTitle != "" || opt.OptimizedDescription != ""
}
