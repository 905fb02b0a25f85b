// Package relay is a client for the Evolution API WhatsApp relay.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"log/slog"
)

const (
	defaultUserAgent     = "hotel-quote-bot/0.1"
	defaultSignalTimeout = 10 * time.Second
	defaultMediaTimeout  = 30 * time.Second
)

// PresenceComposing shows the "typing..." indicator.
const PresenceComposing = "composing"

// ErrNotConfigured is returned when the relay base URL is missing.
var ErrNotConfigured = errors.New("relay: base url not configured")

// Config controls how the relay client behaves.
type Config struct {
	BaseURL       string
	APIKey        string
	SignalTimeout time.Duration
	MediaTimeout  time.Duration
	HTTPClient    *http.Client
	Logger        *slog.Logger
	UserAgent     string
}

// Client calls the relay's chat and message endpoints. Calls are not retried.
type Client struct {
	apiKey        string
	baseURL       string
	httpClient    *http.Client
	signalTimeout time.Duration
	mediaTimeout  time.Duration
	logger        *slog.Logger
	userAgent     string
}

// New creates a configured Client.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, ErrNotConfigured
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("relay: invalid base url: %w", err)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("relay: API key is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	signalTimeout := cfg.SignalTimeout
	if signalTimeout <= 0 {
		signalTimeout = defaultSignalTimeout
	}
	mediaTimeout := cfg.MediaTimeout
	if mediaTimeout <= 0 {
		mediaTimeout = defaultMediaTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		apiKey:        cfg.APIKey,
		baseURL:       baseURL,
		httpClient:    httpClient,
		signalTimeout: signalTimeout,
		mediaTimeout:  mediaTimeout,
		logger:        logger,
		userAgent:     userAgent,
	}, nil
}

// MarkRead marks an inbound message as read.
func (c *Client) MarkRead(ctx context.Context, instance, remoteJID, messageID string) error {
	if remoteJID == "" || messageID == "" {
		return errors.New("relay: remote jid and message id required")
	}
	body := markReadRequest{ReadMessages: []readMessage{{RemoteJID: remoteJID, ID: messageID, FromMe: false}}}
	return c.post(ctx, c.signalTimeout, "/chat/markMessageAsRead/"+url.PathEscape(instance), body)
}

// SendPresence shows presence (e.g. PresenceComposing) to number for d.
func (c *Client) SendPresence(ctx context.Context, instance, number, presence string, d time.Duration) error {
	if number == "" {
		return errors.New("relay: number required")
	}
	body := presenceRequest{Number: number, Presence: presence, Delay: d.Milliseconds()}
	return c.post(ctx, c.signalTimeout, "/chat/sendPresence/"+url.PathEscape(instance), body)
}

// SendText sends a plain text message.
func (c *Client) SendText(ctx context.Context, instance, number, text string) error {
	if number == "" || strings.TrimSpace(text) == "" {
		return errors.New("relay: number and text required")
	}
	body := textRequest{Number: number, Text: text}
	return c.post(ctx, c.signalTimeout, "/message/sendText/"+url.PathEscape(instance), body)
}

// SendDocument sends a base64-encoded document.
func (c *Client) SendDocument(ctx context.Context, instance string, doc Document) error {
	if err := doc.validate(); err != nil {
		return err
	}
	body := mediaRequest{
		Number:    doc.Number,
		MediaType: "document",
		MimeType:  doc.mimeType(),
		Media:     doc.Base64,
		FileName:  doc.FileName,
		Caption:   doc.Caption,
	}
	return c.post(ctx, c.mediaTimeout, "/message/sendMedia/"+url.PathEscape(instance), body)
}

func (c *Client) post(ctx context.Context, timeout time.Duration, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("relay: marshal body: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("relay: build request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("relay: http error: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("relay: read response: %w", err)
	}
	c.logger.Debug("relay call",
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return decodeAPIError(resp.StatusCode, data)
}

// APIError is a non-2xx relay response.
type APIError struct {
	StatusCode int             `json:"status"`
	Message    string          `json:"error,omitempty"`
	Response   json.RawMessage `json:"response,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("relay: %s (status=%d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("relay: http status %d", e.StatusCode)
}

func decodeAPIError(status int, body []byte) error {
	var parsed APIError
	if err := json.Unmarshal(body, &parsed); err != nil {
		return &APIError{StatusCode: status, Message: strings.TrimSpace(string(body))}
	}
	parsed.StatusCode = status
	return &parsed
}
