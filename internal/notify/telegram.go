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

const telegramAPIBase = "https://api.telegram.org"

// TelegramSender delivers notifications via the Telegram Bot API. When
// topicID is set, messages are addressed to that forum topic via
// message_thread_id.
type TelegramSender struct {
	apiBase string
	token   string
	chatID  string
	topicID string
	client  *http.Client
}

// NewTelegramSender creates a TelegramSender for the given bot token and
// chat ID. topicID may be empty. It uses a default HTTP client with a
// 30-second timeout (photo uploads are slower than text).
func NewTelegramSender(token, chatID, topicID string) *TelegramSender {
	return &TelegramSender{
		apiBase: telegramAPIBase,
		token:   token,
		chatID:  chatID,
		topicID: topicID,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// NewTelegramSenderAPI creates a TelegramSender against a custom API base
// URL (tests).
func NewTelegramSenderAPI(apiBase, token, chatID, topicID string) *TelegramSender {
	s := NewTelegramSender(token, chatID, topicID)
	s.apiBase = apiBase
	return s
}

// Send posts a message to the configured chat using the sendMessage API.
// The title is rendered in bold.
func (t *TelegramSender) Send(ctx context.Context, title, message string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.token)

	text := message
	if title != "" {
		text = fmt.Sprintf("*%s*\n%s", title, message)
	}

	payload := map[string]string{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}
	if t.topicID != "" {
		payload["message_thread_id"] = t.topicID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return t.do(req)
}

// SendPhoto uploads a PNG to the configured chat using the sendPhoto API as
// a multipart form.
func (t *TelegramSender) SendPhoto(ctx context.Context, image []byte, caption string) error {
	url := fmt.Sprintf("%s/bot%s/sendPhoto", t.apiBase, t.token)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	fields := map[string]string{
		"chat_id": t.chatID,
		"caption": caption,
	}
	if t.topicID != "" {
		fields["message_thread_id"] = t.topicID
	}
	for k, v := range fields {
		if err := form.WriteField(k, v); err != nil {
			return fmt.Errorf("telegram: write field %s: %w", k, err)
		}
	}

	part, err := form.CreateFormFile("photo", "report.png")
	if err != nil {
		return fmt.Errorf("telegram: create photo part: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return fmt.Errorf("telegram: write photo: %w", err)
	}
	if err := form.Close(); err != nil {
		return fmt.Errorf("telegram: close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	return t.do(req)
}

// do executes the request and maps non-2xx responses to errors.
func (t *TelegramSender) do(req *http.Request) error {
	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("telegram: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// Name returns the sender identifier.
func (t *TelegramSender) Name() string {
	return "telegram"
}
