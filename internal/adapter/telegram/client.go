package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// MaxMessageLength is Telegram's hard cap on text message size.
	MaxMessageLength = 4096

	defaultAPIBase = "https://api.telegram.org"
	defaultTimeout = 30 * time.Second
)

// Client is a minimal Telegram Bot API sender. It deliberately carries its
// own HTTP client with a fixed timeout, independent of the backend timeout,
// so a slow backend configuration never starves outbound replies.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultAPIBase
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
		token:   token,
	}
}

type sendMessageRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

type sendChatActionRequest struct {
	ChatID int64  `json:"chat_id"`
	Action string `json:"action"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

// SendMessage delivers one text message to the chat, truncating to Telegram's
// maximum length first.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	return c.post(ctx, "sendMessage", sendMessageRequest{
		ChatID: chatID,
		Text:   Truncate(text),
	})
}

// SendChatAction shows an activity hint ("typing") in the chat.
func (c *Client) SendChatAction(ctx context.Context, chatID int64, action string) error {
	return c.post(ctx, "sendChatAction", sendChatActionRequest{
		ChatID: chatID,
		Action: action,
	})
}

func (c *Client) post(ctx context.Context, method string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out apiResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	if !out.OK {
		return fmt.Errorf("telegram %s: %s", method, strings.TrimSpace(out.Description))
	}
	return nil
}

// Truncate caps text at MaxMessageLength characters.
func Truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxMessageLength {
		return text
	}
	return string(runes[:MaxMessageLength])
}
