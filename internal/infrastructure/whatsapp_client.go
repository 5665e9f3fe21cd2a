package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"ticallbot/internal/entities"
)

// WhatsAppConfig configures the Cloud API client.
type WhatsAppConfig struct {
	BaseURL       string // default https://graph.facebook.com
	APIVersion    string // e.g. v19.0
	PhoneNumberID string
	AccessToken   string
	HTTPClient    *http.Client // optional, for tests
}

// WhatsAppClient sends messages through the Meta Cloud API: a bearer-token
// HTTPS POST per message to /{version}/{phone-number-id}/messages.
type WhatsAppClient struct {
	cfg  WhatsAppConfig
	http *http.Client
	log  *slog.Logger
}

func NewWhatsAppClient(cfg WhatsAppConfig, logger *slog.Logger) *WhatsAppClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://graph.facebook.com"
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &WhatsAppClient{cfg: cfg, http: client, log: logger}
}

func (c *WhatsAppClient) SendText(ctx context.Context, to, body string) error {
	return c.send(ctx, BuildText(to, body))
}

func (c *WhatsAppClient) SendImage(ctx context.Context, to, link, caption string) error {
	return c.send(ctx, BuildImage(to, link, caption))
}

func (c *WhatsAppClient) SendButtons(ctx context.Context, to, body string, options []entities.ButtonOption) error {
	payload, err := BuildButtons(to, body, options)
	if err != nil {
		return err
	}
	return c.send(ctx, payload)
}

func (c *WhatsAppClient) send(ctx context.Context, payload Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("whatsapp: marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s/messages", c.cfg.BaseURL, c.cfg.APIVersion, c.cfg.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("whatsapp: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: send %s to %s: %w", payload.Type, payload.To, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// The API explains rejections in the body; keep a slice of it for the log.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("whatsapp: send %s to %s: status %d: %s", payload.Type, payload.To, resp.StatusCode, snippet)
	}

	c.log.Debug("whatsapp message sent", "type", payload.Type, "to", payload.To)
	return nil
}
