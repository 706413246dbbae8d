// Package telegram provides the messaging node executor, backed by the
// Telegram Bot API.
package telegram

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
	// DefaultAPIBase is the Telegram Bot API endpoint.
	DefaultAPIBase = "https://api.telegram.org"

	requestTimeout = 10 * time.Second
)

// Executor sends one chat message per node execution.
type Executor struct {
	// APIBase is overridable for tests.
	APIBase string

	client *http.Client
}

// NewExecutor creates the messaging executor.
func NewExecutor() *Executor {
	return &Executor{
		APIBase: DefaultAPIBase,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// Kind returns the node kind this executor handles.
func (e *Executor) Kind() models.NodeKind {
	return models.KindTelegram
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

// Execute sends the resolved message text to the configured chat. A missing
// credential, transport error, timeout, or non-success API response all
// yield a failure outcome.
func (e *Executor) Execute(ctx context.Context, node *models.Node, rc *models.RunContext, credential map[string]any) models.NodeOutcome {
	if credential == nil {
		return models.FailedOutcome("telegram node requires a credential")
	}

	botToken, _ := credential["botToken"].(string)
	if botToken == "" {
		return models.FailedOutcome("telegram credential has no botToken")
	}

	params := template.ResolveParams(node.Parameters, rc)

	chatID := template.Stringify(params["chatId"])
	if chatID == "" {
		return models.FailedOutcome("telegram node requires a chatId parameter")
	}

	text, _ := params["message"].(string)
	if node.ParamBool("usePreviousResult") || text == "" {
		text = rc.PreviousText()
	}

	if text == "" {
		return models.FailedOutcome("telegram node has no message to send")
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	payload, err := json.Marshal(map[string]any{
		"chat_id": chatID,
		"text":    text,
	})
	if err != nil {
		return models.FailedOutcome(fmt.Sprintf("failed to encode telegram payload: %v", err))
	}

	url := e.APIBase + "/bot" + botToken + "/sendMessage"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return models.FailedOutcome(fmt.Sprintf("failed to create telegram request: %v", err))
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return models.FailedOutcome(fmt.Sprintf("telegram request failed: %v", err))
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.FailedOutcome(fmt.Sprintf("failed to read telegram response: %v", err))
	}

	var parsed sendMessageResponse

	err = json.Unmarshal(body, &parsed)
	if err != nil || !parsed.OK || resp.StatusCode >= 400 {
		return models.FailedOutcome(fmt.Sprintf("telegram API error (status %d): %s", resp.StatusCode, string(body)))
	}

	return models.NodeOutcome{
		Success: true,
		Data: map[string]any{
			"messageId": parsed.Result.MessageID,
			"chatId":    chatID,
			"text":      text,
		},
		Message: "message sent",
	}
}

// Schema returns the parameter schema for messaging nodes.
func (e *Executor) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"chatId":            map[string]any{"type": []string{"string", "number"}},
			"message":           map[string]any{"type": "string"},
			"usePreviousResult": map[string]any{"type": "boolean"},
		},
		"required": []string{"chatId"},
	}
}
