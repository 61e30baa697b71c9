// Package discord delivers composed messages to a Discord webhook,
// satisfying notifier.MessageSink.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/finops-claw-gang/billing-notify/internal/report"
)

// Client posts messages to a single webhook URL. The URL is a secret and
// never appears in logs or errors.
type Client struct {
	webhookURL string
	mention    string
	httpClient *http.Client
	maxElapsed time.Duration
}

// New creates a webhook client. mention is prepended to the message content
// ("@everyone" pings the channel); empty disables it.
func New(webhookURL, mention string) *Client {
	return NewWithHTTPClient(webhookURL, mention, &http.Client{Timeout: 10 * time.Second})
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing
// or for sharing an instrumented transport).
func NewWithHTTPClient(webhookURL, mention string, httpClient *http.Client) *Client {
	return &Client{
		webhookURL: webhookURL,
		mention:    mention,
		httpClient: httpClient,
		maxElapsed: 30 * time.Second,
	}
}

type payload struct {
	Content string  `json:"content"`
	Embeds  []embed `json:"embeds"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Footer      *embedFooter `json:"footer,omitempty"`
}

type embedFooter struct {
	Text string `json:"text"`
}

// Post delivers one message. Network errors, 429 and 5xx responses are
// retried with exponential backoff until maxElapsed; any other non-2xx
// response fails immediately.
func (c *Client) Post(ctx context.Context, msg report.Message) error {
	e := embed{Title: msg.Title, Description: msg.Body}
	if msg.Footer != "" {
		e.Footer = &embedFooter{Text: msg.Footer}
	}

	var content string
	if c.mention != "" {
		content = c.mention + "\n"
	}

	body, err := json.Marshal(payload{Content: content, Embeds: []embed{e}})
	if err != nil {
		return fmt.Errorf("discord: marshal payload: %w", err)
	}

	attempt := func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
		if err != nil {
			return struct{}{}, backoff.Permanent(fmt.Errorf("discord: create request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return struct{}{}, fmt.Errorf("discord: post webhook: %w", err)
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return struct{}{}, nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return struct{}{}, fmt.Errorf("discord: transient status %d", resp.StatusCode)
		default:
			return struct{}{}, backoff.Permanent(fmt.Errorf("discord: unexpected status %d", resp.StatusCode))
		}
	}

	_, err = backoff.Retry(ctx, attempt, backoff.WithMaxElapsedTime(c.maxElapsed))
	return err
}
