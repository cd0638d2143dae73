package openai

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	openaiapi "github.com/sashabaranov/go-openai"

	"flowise-telegram-bridge/internal/domain"
)

// Client is the alternate backend: it maps the bridge's tagged history onto
// OpenAI chat-completion messages.
type Client struct {
	api   *openaiapi.Client
	model string
}

func NewClient(token, model string, timeout time.Duration) *Client {
	cfg := openaiapi.DefaultConfig(token)
	if timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		api:   openaiapi.NewClientWithConfig(cfg),
		model: model,
	}
}

func (c *Client) Ask(ctx context.Context, chatID int64, question string, history []string) (string, error) {
	messages := make([]openaiapi.ChatCompletionMessage, 0, len(history)+1)
	for _, entry := range history {
		role, text := domain.SplitTurn(entry)
		apiRole := openaiapi.ChatMessageRoleUser
		if role == domain.RoleAssistant {
			apiRole = openaiapi.ChatMessageRoleAssistant
		}
		messages = append(messages, openaiapi.ChatCompletionMessage{
			Role:    apiRole,
			Content: text,
		})
	}
	messages = append(messages, openaiapi.ChatCompletionMessage{
		Role:    openaiapi.ChatMessageRoleUser,
		Content: question,
	})

	resp, err := c.api.CreateChatCompletion(ctx, openaiapi.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
		User:     strconv.FormatInt(chatID, 10),
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned empty response")
	}

	return resp.Choices[0].Message.Content, nil
}
