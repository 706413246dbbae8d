// Package openai provides the generative-text node executor, backed by the
// OpenAI chat completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/template"
)

const (
	// DefaultAPIBase is the OpenAI API endpoint.
	DefaultAPIBase = "https://api.openai.com"

	requestTimeout = 10 * time.Second

	defaultModel       = "gpt-3.5-turbo"
	defaultTemperature = 0.7

	// Fixed sampling parameters, not exposed per call.
	fixedTopP      = 1.0
	fixedMaxTokens = 1024
)

// Executor generates text from a prompt.
type Executor struct {
	// APIBase is overridable for tests.
	APIBase string

	client *http.Client
}

// NewExecutor creates the generative-text executor.
func NewExecutor() *Executor {
	return &Executor{
		APIBase: DefaultAPIBase,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// Kind returns the node kind this executor handles.
func (e *Executor) Kind() models.NodeKind {
	return models.KindOpenAI
}

type completionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Execute sends the resolved prompt to the completions API. The API key
// comes from the resolved credential, or from an inline apiKey parameter
// when the node carries no credential reference.
func (e *Executor) Execute(ctx context.Context, node *models.Node, rc *models.RunContext, credential map[string]any) models.NodeOutcome {
	params := template.ResolveParams(node.Parameters, rc)

	apiKey, _ := credential["apiKey"].(string)
	if apiKey == "" {
		apiKey, _ = params["apiKey"].(string)
	}

	if apiKey == "" {
		return models.FailedOutcome("openai node requires a credential or an inline apiKey parameter")
	}

	prompt, _ := params["prompt"].(string)
	if node.ParamBool("usePreviousResult") || prompt == "" {
		prompt = rc.PreviousText()
	}

	if prompt == "" {
		return models.FailedOutcome("openai node has no prompt")
	}

	model, _ := params["model"].(string)
	if model == "" {
		model = defaultModel
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	payload, err := json.Marshal(map[string]any{
		"model":       model,
		"messages":    []map[string]any{{"role": "user", "content": prompt}},
		"temperature": clampTemperature(params["temperature"]),
		"top_p":       fixedTopP,
		"max_tokens":  fixedMaxTokens,
	})
	if err != nil {
		return models.FailedOutcome(fmt.Sprintf("failed to encode openai payload: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.APIBase+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return models.FailedOutcome(fmt.Sprintf("failed to create openai request: %v", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return models.FailedOutcome(fmt.Sprintf("openai request failed: %v", err))
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.FailedOutcome(fmt.Sprintf("failed to read openai response: %v", err))
	}

	var parsed completionResponse

	err = json.Unmarshal(body, &parsed)
	if err != nil || resp.StatusCode >= 400 || parsed.Error != nil || len(parsed.Choices) == 0 {
		return models.FailedOutcome(fmt.Sprintf("openai API error (status %d): %s", resp.StatusCode, string(body)))
	}

	return models.NodeOutcome{
		Success: true,
		Data: map[string]any{
			"text":  parsed.Choices[0].Message.Content,
			"model": parsed.Model,
		},
		Message: "text generated",
	}
}

// clampTemperature returns the configured temperature, or the default when
// the parameter is absent, non-numeric, or out of the [0, 2] API range.
func clampTemperature(raw any) float64 {
	temperature, ok := raw.(float64)
	if !ok || temperature < 0 || temperature > 2 {
		return defaultTemperature
	}

	return temperature
}

// Schema returns the parameter schema for generative-text nodes.
func (e *Executor) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prompt":            map[string]any{"type": "string"},
			"model":             map[string]any{"type": "string"},
			"temperature":       map[string]any{"type": "number"},
			"apiKey":            map[string]any{"type": "string"},
			"usePreviousResult": map[string]any{"type": "boolean"},
		},
	}
}
