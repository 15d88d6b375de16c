// Package notify delivers transactional email, currently the order receipt.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Attachment is a file carried by a Message.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Content     []byte `json:"content"`
}

// Message is one outbound email.
type Message struct {
	From        string       `json:"from"`
	To          []string     `json:"to"`
	Bcc         []string     `json:"bcc,omitempty"`
	Subject     string       `json:"subject"`
	HTML        string       `json:"html"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Sender delivers a message and returns the provider's message id.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg *Message) (string, error)
}

// LogSender logs messages instead of delivering them. It is used when no
// mail relay is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a sender that only logs.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Name returns the sender name.
func (s *LogSender) Name() string { return "log" }

// Send logs the message envelope and returns a generated id.
func (s *LogSender) Send(ctx context.Context, msg *Message) (string, error) {
	if len(msg.To) == 0 {
		return "", fmt.Errorf("message has no recipients")
	}

	id := "log-" + uuid.NewString()
	s.logger.InfoContext(ctx, "email not sent, no relay configured",
		slog.String("message_id", id),
		slog.String("to", strings.Join(msg.To, ",")),
		slog.Int("bcc", len(msg.Bcc)),
		slog.String("subject", msg.Subject),
		slog.Int("attachments", len(msg.Attachments)),
	)
	return id, nil
}
