package flowise

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTimeout = 60 * time.Second

	// noAnswer is returned when a successful response carries none of the
	// known answer fields.
	noAnswer = "Sem resposta."
)

// Client talks to a Flowise prediction endpoint. Each call carries the chat's
// session id and rolling history so the flow can keep continuity across
// messages.
type Client struct {
	http   *http.Client
	url    string
	apiKey string
}

func NewClient(url, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http:   &http.Client{Timeout: timeout},
		url:    strings.TrimSpace(url),
		apiKey: strings.TrimSpace(apiKey),
	}
}

type askRequest struct {
	Question       string         `json:"question"`
	OverrideConfig overrideConfig `json:"overrideConfig"`
}

type overrideConfig struct {
	SessionID string   `json:"sessionId"`
	Metadata  metadata `json:"metadata"`
}

type metadata struct {
	History []string `json:"history"`
}

// askResponse is Flowise's loosely-typed answer shape: at most one of the
// three fields is expected to be populated per call.
type askResponse struct {
	Text   string `json:"text,omitempty"`
	Output string `json:"output,omitempty"`
	Data   string `json:"data,omitempty"`
}

// Ask sends the question plus session context and returns the extracted
// answer text. Transport failures, non-2xx statuses and unparsable bodies all
// surface as errors; the caller decides what the end user sees.
func (c *Client) Ask(ctx context.Context, chatID int64, question string, history []string) (string, error) {
	if history == nil {
		history = []string{}
	}
	payload := askRequest{
		Question: question,
		OverrideConfig: overrideConfig{
			SessionID: strconv.FormatInt(chatID, 10),
			Metadata:  metadata{History: history},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("flowise request: %w", err)
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("flowise http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out askResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("flowise response: %w", err)
	}

	return extractAnswer(out), nil
}

// extractAnswer resolves the polymorphic response shape in one place:
// text wins over output, output over data, first non-empty field taken.
func extractAnswer(resp askResponse) string {
	for _, candidate := range []string{resp.Text, resp.Output, resp.Data} {
		if candidate != "" {
			return candidate
		}
	}
	return noAnswer
}
