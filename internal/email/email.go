// Package email sends transactional mail through the Brevo API.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Message is one outgoing email
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
}

// Sender delivers email
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Config holds Brevo settings
type Config struct {
	APIKey    string
	BaseURL   string
	FromEmail string
	FromName  string
}

// BrevoClient implements Sender with the Brevo transactional endpoint.
// Without an API key it only logs what it would have sent.
type BrevoClient struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// NewBrevoClient creates a Brevo sender
func NewBrevoClient(cfg Config, logger *zap.Logger) *BrevoClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.brevo.com"
	}
	return &BrevoClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: 10 * time.Second},
		logger: logger.Named("email"),
	}
}

type brevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoRequest struct {
	Sender      brevoContact   `json:"sender"`
	To          []brevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

// Send implements Sender
func (c *BrevoClient) Send(ctx context.Context, msg Message) error {
	if c.cfg.APIKey == "" {
		c.logger.Info("email disabled, not sending", zap.String("to", msg.To), zap.String("subject", msg.Subject))
		return nil
	}

	body, err := json.Marshal(brevoRequest{
		Sender:      brevoContact{Email: c.cfg.FromEmail, Name: c.cfg.FromName},
		To:          []brevoContact{{Email: msg.To, Name: msg.ToName}},
		Subject:     msg.Subject,
		HTMLContent: msg.HTML,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v3/smtp/email", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("brevo returned %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}
	c.logger.Debug("email sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}
