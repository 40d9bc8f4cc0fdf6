// Package email sends transactional mail through the Brevo REST API.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.brevo.com/v3"

// Sender is what the auth service needs from the mail layer.
type Sender interface {
	SendPasswordRecovery(ctx context.Context, to, url string) error
}

type Client struct {
	apiKey  string
	from    string
	baseURL string
	http    *http.Client
}

func NewClient(apiKey, from string) *Client {
	return &Client{
		apiKey:  apiKey,
		from:    from,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type address struct {
	Email string `json:"email"`
}

type sendRequest struct {
	Sender      address   `json:"sender"`
	To          []address `json:"to"`
	Subject     string    `json:"subject"`
	HTMLContent string    `json:"htmlContent"`
}

func (c *Client) SendPasswordRecovery(ctx context.Context, to, url string) error {
	body := sendRequest{
		Sender:  address{Email: c.from},
		To:      []address{{Email: to}},
		Subject: "Password recovery",
		HTMLContent: fmt.Sprintf(
			`<p>A password reset was requested for your account.</p>`+
				`<p><a href="%s">Choose a new password</a></p>`+
				`<p>If you did not ask for this, you can ignore this email.</p>`, url),
	}
	return c.send(ctx, body)
}

func (c *Client) send(ctx context.Context, body sendRequest) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/smtp/email", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("mail request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mail API returned %d: %s", resp.StatusCode, string(detail))
	}
	return nil
}
