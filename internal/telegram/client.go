// Package telegram is a minimal Bot API client covering the single
// sendMessage call the notify service needs.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tapline-games/miniapp-notify/internal/models"
)

const (
	// DefaultBaseURL is the production Bot API origin.
	DefaultBaseURL = "https://api.telegram.org"

	// DefaultTimeout bounds each sendMessage call. The Bot API has no
	// documented latency ceiling, so every relay carries its own deadline.
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 1 << 20
)

// Client relays messages through the Telegram Bot API. It is safe for
// concurrent use.
type Client struct {
	botToken   string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Bot API client. An empty baseURL or zero timeout fall
// back to the production defaults; tests point baseURL at a local server.
func NewClient(botToken, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		botToken: botToken,
		baseURL:  baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Send issues exactly one sendMessage call to the given chat. Transport
// errors, non-200 statuses and provider-reported ok:false all collapse into
// Succeeded=false on the returned attempt; Send never returns an error and
// never retries. Link previews are disabled on every message.
func (c *Client) Send(ctx context.Context, chatID, text string) models.RelayAttempt {
	attempt := models.RelayAttempt{Attempted: true}

	payload := map[string]any{
		"chat_id":                  chatID,
		"text":                     text,
		"disable_web_page_preview": true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		attempt.Error = fmt.Sprintf("marshal payload: %v", err)
		return attempt
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		attempt.Error = fmt.Sprintf("create request: %v", err)
		return attempt
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error embeds the full request URL, which carries the bot
		// token; report only the underlying cause.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		attempt.Error = fmt.Sprintf("send request: %v", err)
		return attempt
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		attempt.Error = fmt.Sprintf("read response: %v", err)
		return attempt
	}
	if json.Valid(raw) {
		attempt.Response = json.RawMessage(raw)
	}

	var apiResp struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
		ErrorCode   int    `json:"error_code"`
	}
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		attempt.Error = fmt.Sprintf("parse response (status %d): %v", resp.StatusCode, err)
		return attempt
	}

	if resp.StatusCode != http.StatusOK || !apiResp.OK {
		attempt.Error = fmt.Sprintf("telegram API error (status %d, code %d): %s",
			resp.StatusCode, apiResp.ErrorCode, apiResp.Description)
		return attempt
	}

	attempt.Succeeded = true
	return attempt
}
