package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// DiscordSender delivers notifications via a Discord webhook.
type DiscordSender struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordSender creates a DiscordSender for the given webhook URL. It
// uses a default HTTP client with a 30-second timeout.
func NewDiscordSender(webhookURL string) *DiscordSender {
	return &DiscordSender{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Send posts a message to the Discord webhook. The title is rendered in bold
// using Discord markdown syntax.
func (d *DiscordSender) Send(ctx context.Context, title, message string) error {
	content := message
	if title != "" {
		content = fmt.Sprintf("**%s**\n%s", title, message)
	}

	payload := map[string]string{
		"content": content,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("discord: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("discord: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return d.do(req)
}

// SendPhoto uploads a PNG as a webhook file attachment with the caption as
// message content.
func (d *DiscordSender) SendPhoto(ctx context.Context, image []byte, caption string) error {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	if caption != "" {
		if err := form.WriteField("content", caption); err != nil {
			return fmt.Errorf("discord: write content: %w", err)
		}
	}

	part, err := form.CreateFormFile("files[0]", "report.png")
	if err != nil {
		return fmt.Errorf("discord: create file part: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return fmt.Errorf("discord: write file: %w", err)
	}
	if err := form.Close(); err != nil {
		return fmt.Errorf("discord: close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, &buf)
	if err != nil {
		return fmt.Errorf("discord: create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	return d.do(req)
}

// do executes the request and maps non-2xx responses to errors. Discord
// returns 204 No Content on success.
func (d *DiscordSender) do(req *http.Request) error {
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("discord: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("discord: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// Name returns the sender identifier.
func (d *DiscordSender) Name() string {
	return "discord"
}
