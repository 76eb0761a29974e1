package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dkarlsen/taskpilot/internal/api/handler"
	"github.com/dkarlsen/taskpilot/internal/security"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()

	handler.HealthCheck(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))

	assert.Equal(t, true, response["success"])

	data, ok := response["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ok", data["status"])
}

func TestAuthHandler_Register(t *testing.T) {
	t.Skip("Requires database connection - run as integration test")
}

func TestChatFlow(t *testing.T) {
	t.Skip("Requires database and Redis connections - run as integration test")

	// Integration flow:
	// 1. Register and login
	// 2. Create a todo
	// 3. POST /assistant/chat asking to break the todo into subtasks
	// 4. Verify the response carries a subtasks payload
	// 5. Verify the subtasks were persisted under the parent todo
}

// BenchmarkJWTGeneration benchmarks token generation
func BenchmarkJWTGeneration(b *testing.B) {
	manager := security.NewJWTManager("benchmark-secret-key-32-chars!!", 15*time.Minute, 7*24*time.Hour)
	userID := uuid.New()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = manager.GenerateAccessToken(userID, "test@example.com")
	}
}
