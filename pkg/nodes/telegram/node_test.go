package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgrid/flowgrid/pkg/models"
)

func newTestExecutor(server *httptest.Server) *Executor {
	executor := NewExecutor()
	executor.APIBase = server.URL

	return executor
}

func TestSendsPreviousResultText(t *testing.T) {
	var (
		gotPath string
		gotBody map[string]any
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"message_id": 99},
		})
	}))
	defer server.Close()

	executor := newTestExecutor(server)

	rc := &models.RunContext{
		Current: map[string]any{"text": "hello"},
		Results: map[string]models.NodeOutcome{
			"Start": {Success: true, Data: map[string]any{"text": "hello"}},
		},
		PreviousNode: "Start",
	}

	node := &models.Node{
		Name: "Send",
		Kind: "telegram",
		Parameters: map[string]any{
			"chatId":            "1234",
			"usePreviousResult": true,
		},
	}

	outcome := executor.Execute(context.Background(), node, rc, map[string]any{"botToken": "t0k3n"})

	require.True(t, outcome.Success, outcome.Error)
	assert.Equal(t, "/bott0k3n/sendMessage", gotPath)
	assert.Equal(t, "hello", gotBody["text"])
	assert.Equal(t, "1234", gotBody["chat_id"])
	assert.Equal(t, int64(99), outcome.Data["messageId"])
}

func TestResolvesMessageTemplate(t *testing.T) {
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": map[string]any{"message_id": 1}})
	}))
	defer server.Close()

	executor := newTestExecutor(server)

	rc := &models.RunContext{
		Current: map[string]any{"name": "Ada"},
		Results: map[string]models.NodeOutcome{},
	}

	node := &models.Node{
		Name: "Send",
		Kind: "telegram",
		Parameters: map[string]any{
			"chatId":  float64(42),
			"message": "hi {{$json.name}}",
		},
	}

	outcome := executor.Execute(context.Background(), node, rc, map[string]any{"botToken": "x"})

	require.True(t, outcome.Success, outcome.Error)
	assert.Equal(t, "hi Ada", gotBody["text"])
	assert.Equal(t, "42", gotBody["chat_id"])
}

func TestMissingCredentialFailsFast(t *testing.T) {
	executor := NewExecutor()

	rc := &models.RunContext{Current: map[string]any{}, Results: map[string]models.NodeOutcome{}}
	node := &models.Node{Name: "Send", Kind: "telegram", Parameters: map[string]any{"chatId": "1"}}

	outcome := executor.Execute(context.Background(), node, rc, nil)

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "credential")
}

func TestAPIErrorBecomesFailureOutcome(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "description": "Unauthorized"})
	}))
	defer server.Close()

	executor := newTestExecutor(server)

	rc := &models.RunContext{Current: map[string]any{"text": "hi"}, Results: map[string]models.NodeOutcome{}}
	node := &models.Node{Name: "Send", Kind: "telegram", Parameters: map[string]any{"chatId": "1", "message": "hi"}}

	outcome := executor.Execute(context.Background(), node, rc, map[string]any{"botToken": "bad"})

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "401")
}

func TestMissingChatIDFails(t *testing.T) {
	executor := NewExecutor()

	rc := &models.RunContext{Current: map[string]any{}, Results: map[string]models.NodeOutcome{}}
	node := &models.Node{Name: "Send", Kind: "telegram", Parameters: map[string]any{}}

	outcome := executor.Execute(context.Background(), node, rc, map[string]any{"botToken": "x"})

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "chatId")
}
