// Package mailer delivers OTP and password-reset emails through a transactional mail API.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 15 * time.Second

// Sender delivers short account emails. Failure aborts the enclosing
// operation; callers must not report success when delivery fails.
type Sender interface {
	// SendOTP emails the one-time code to the address.
	SendOTP(ctx context.Context, email, otp string) error
	// SendPasswordReset emails the reset token to the address.
	SendPasswordReset(ctx context.Context, email, token string) error
}

// Client sends emails via a JSON mail API (single POST per message).
type Client struct {
	APIKey     string
	BaseURL    string
	Sender     string
	HTTPClient *http.Client
}

// NewClient returns a mail client for the given API key, base URL, and From address.
func NewClient(apiKey, baseURL, sender string) *Client {
	return &Client{
		APIKey:     apiKey,
		BaseURL:    baseURL,
		Sender:     sender,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

// SendOTP emails the one-time code. Does not log the OTP.
func (c *Client) SendOTP(ctx context.Context, email, otp string) error {
	subject := "Your verification code"
	text := fmt.Sprintf("Your one-time verification code is %s. It expires in a few minutes.", otp)
	return c.send(ctx, email, subject, text)
}

// SendPasswordReset emails the reset token. Does not log the token.
func (c *Client) SendPasswordReset(ctx context.Context, email, token string) error {
	subject := "Password reset request"
	text := fmt.Sprintf("Use this token to reset your password: %s. It expires in 15 minutes.", token)
	return c.send(ctx, email, subject, text)
}

func (c *Client) send(ctx context.Context, to, subject, text string) error {
	if c.APIKey == "" {
		return fmt.Errorf("mailer: API key not configured")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("mailer: base URL not configured")
	}
	body := map[string]interface{}{
		"from":    c.Sender,
		"to":      to,
		"subject": subject,
		"text":    text,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mailer: request failed status=%d body=%s", resp.StatusCode, string(b))
	}
	return nil
}
