// Package email provides the transactional email node executor, delivering
// over SMTP.
package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/template"
)

const requestTimeout = 10 * time.Second

// Executor sends one email per node execution.
type Executor struct {
	// dial is overridable for tests.
	dial func(addr string) (net.Conn, error)
}

// NewExecutor creates the email executor.
func NewExecutor() *Executor {
	return &Executor{
		dial: func(addr string) (net.Conn, error) {
			return net.DialTimeout("tcp", addr, requestTimeout)
		},
	}
}

// Kind returns the node kind this executor handles.
func (e *Executor) Kind() models.NodeKind {
	return models.KindEmail
}

// Execute sends the resolved message over SMTP using the credential's
// account. Dial, auth, and delivery errors all yield a failure outcome.
func (e *Executor) Execute(_ context.Context, node *models.Node, rc *models.RunContext, credential map[string]any) models.NodeOutcome {
	if credential == nil {
		return models.FailedOutcome("email node requires a credential")
	}

	host, _ := credential["host"].(string)
	if host == "" {
		return models.FailedOutcome("email credential has no host")
	}

	port := template.Stringify(credential["port"])
	if port == "" {
		port = "587"
	}

	from, _ := credential["from"].(string)
	username, _ := credential["username"].(string)
	password, _ := credential["password"].(string)

	if from == "" {
		from = username
	}

	if from == "" {
		return models.FailedOutcome("email credential has no sender address")
	}

	params := template.ResolveParams(node.Parameters, rc)

	to, _ := params["to"].(string)
	if to == "" {
		return models.FailedOutcome("email node requires a to parameter")
	}

	subject, _ := params["subject"].(string)

	body, _ := params["body"].(string)
	if node.ParamBool("usePreviousResult") || body == "" {
		body = rc.PreviousText()
	}

	err := e.send(host, port, username, password, from, to, subject, body)
	if err != nil {
		return models.FailedOutcome(fmt.Sprintf("email delivery failed: %v", err))
	}

	return models.NodeOutcome{
		Success: true,
		Data: map[string]any{
			"to":      to,
			"subject": subject,
		},
		Message: "email sent",
	}
}

func (e *Executor) send(host, port, username, password, from, to, subject, body string) error {
	conn, err := e.dial(net.JoinHostPort(host, port))
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", host, err)
	}

	// The connection-level deadline bounds the whole SMTP conversation.
	_ = conn.SetDeadline(time.Now().Add(requestTimeout))

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()

		return fmt.Errorf("failed to open SMTP session: %w", err)
	}

	defer func() {
		_ = client.Close()
	}()

	if ok, _ := client.Extension("STARTTLS"); ok {
		err = client.StartTLS(&tls.Config{ServerName: host})
		if err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if username != "" {
		err = client.Auth(smtp.PlainAuth("", username, password, host))
		if err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	err = client.Mail(from)
	if err != nil {
		return fmt.Errorf("sender rejected: %w", err)
	}

	err = client.Rcpt(to)
	if err != nil {
		return fmt.Errorf("recipient rejected: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open message body: %w", err)
	}

	message := strings.Join([]string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	_, err = writer.Write([]byte(message))
	if err != nil {
		return fmt.Errorf("failed to write message body: %w", err)
	}

	err = writer.Close()
	if err != nil {
		return fmt.Errorf("failed to finish message: %w", err)
	}

	return client.Quit()
}

// Schema returns the parameter schema for email nodes.
func (e *Executor) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"to":                map[string]any{"type": "string"},
			"subject":           map[string]any{"type": "string"},
			"body":              map[string]any{"type": "string"},
			"usePreviousResult": map[string]any{"type": "boolean"},
		},
		"required": []string{"to"},
	}
}
