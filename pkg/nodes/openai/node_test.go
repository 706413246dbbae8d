package openai

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

func newCompletionServer(t *testing.T, gotBody *map[string]any, gotAuth *string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(gotBody))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": "gpt-3.5-turbo",
			"choices": []map[string]any{
				{"message": map[string]any{"content": "generated text"}},
			},
		})
	}))
}

func newRunContext() *models.RunContext {
	return &models.RunContext{
		Current: map[string]any{"topic": "workflows"},
		Results: map[string]models.NodeOutcome{},
	}
}

func TestGeneratesTextWithCredential(t *testing.T) {
	var (
		gotBody map[string]any
		gotAuth string
	)

	server := newCompletionServer(t, &gotBody, &gotAuth)
	defer server.Close()

	executor := NewExecutor()
	executor.APIBase = server.URL

	node := &models.Node{
		Name:       "Generate",
		Kind:       "openai",
		Parameters: map[string]any{"prompt": "write about {{$json.topic}}"},
	}

	outcome := executor.Execute(context.Background(), node, newRunContext(), map[string]any{"apiKey": "sk-test"})

	require.True(t, outcome.Success, outcome.Error)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "generated text", outcome.Data["text"])

	messages := gotBody["messages"].([]any)
	message := messages[0].(map[string]any)
	assert.Equal(t, "write about workflows", message["content"])
}

func TestInlineAPIKeyOverride(t *testing.T) {
	var (
		gotBody map[string]any
		gotAuth string
	)

	server := newCompletionServer(t, &gotBody, &gotAuth)
	defer server.Close()

	executor := NewExecutor()
	executor.APIBase = server.URL

	node := &models.Node{
		Name:       "Generate",
		Kind:       "openai",
		Parameters: map[string]any{"prompt": "hi", "apiKey": "sk-inline"},
	}

	outcome := executor.Execute(context.Background(), node, newRunContext(), nil)

	require.True(t, outcome.Success, outcome.Error)
	assert.Equal(t, "Bearer sk-inline", gotAuth)
}

func TestMissingKeyFailsFast(t *testing.T) {
	executor := NewExecutor()

	node := &models.Node{Name: "Generate", Kind: "openai", Parameters: map[string]any{"prompt": "hi"}}

	outcome := executor.Execute(context.Background(), node, newRunContext(), nil)

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "apiKey")
}

func TestTemperatureClampAndFixedSampling(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want float64
	}{
		{"absent", nil, defaultTemperature},
		{"non-numeric", "hot", defaultTemperature},
		{"negative", -1.0, defaultTemperature},
		{"above range", 3.0, defaultTemperature},
		{"valid", 0.2, 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				gotBody map[string]any
				gotAuth string
			)

			server := newCompletionServer(t, &gotBody, &gotAuth)
			defer server.Close()

			executor := NewExecutor()
			executor.APIBase = server.URL

			parameters := map[string]any{"prompt": "hi"}
			if tt.raw != nil {
				parameters["temperature"] = tt.raw
			}

			node := &models.Node{Name: "Generate", Kind: "openai", Parameters: parameters}

			outcome := executor.Execute(context.Background(), node, newRunContext(), map[string]any{"apiKey": "k"})
			require.True(t, outcome.Success, outcome.Error)

			assert.InDelta(t, tt.want, gotBody["temperature"], 0.0001)
			assert.InDelta(t, fixedTopP, gotBody["top_p"], 0.0001)
			assert.InDelta(t, float64(fixedMaxTokens), gotBody["max_tokens"], 0.0001)
		})
	}
}

func TestProviderErrorBecomesFailureOutcome(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "rate limited"}})
	}))
	defer server.Close()

	executor := NewExecutor()
	executor.APIBase = server.URL

	node := &models.Node{Name: "Generate", Kind: "openai", Parameters: map[string]any{"prompt": "hi"}}

	outcome := executor.Execute(context.Background(), node, newRunContext(), map[string]any{"apiKey": "k"})

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "429")
}
