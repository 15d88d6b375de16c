package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/febluxury/storefront/pkg/errors"
	"github.com/febluxury/storefront/pkg/httpclient"
)

// Poster is the part of httpclient.CircuitBreakerClient the relay needs.
type Poster interface {
	Post(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error)
}

// RelaySender posts messages as JSON to an HTTP mail relay.
type RelaySender struct {
	client Poster
	url    string
}

// NewRelaySender creates a sender for the relay at url.
func NewRelaySender(client Poster, url string) *RelaySender {
	return &RelaySender{client: client, url: url}
}

// Name returns the sender name.
func (s *RelaySender) Name() string { return "relay" }

type relayResponse struct {
	MessageID string `json:"messageId"`
}

// Send posts msg and returns the message id the relay assigned. A 4xx from
// the relay keeps its mapped error; an unreachable relay, an open breaker or
// any other non-2xx status is reported as unavailable.
func (s *RelaySender) Send(ctx context.Context, msg *Message) (string, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("marshal message: %w", err)
	}

	resp, err := s.client.Post(ctx, s.url, "application/json", bytes.NewReader(body))
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("post to mail relay: %w", err)
		}
		return "", apperrors.Unavailable("mail relay unavailable", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := httpclient.ParseResponseError(resp, "mail-relay")
		if httpclient.IsClientError(resp.StatusCode) {
			return "", err
		}
		return "", apperrors.Unavailable("mail relay unavailable", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var out relayResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode mail relay response: %w", err)
	}
	if out.MessageID == "" {
		return "", fmt.Errorf("mail relay returned no message id")
	}
	return out.MessageID, nil
}
