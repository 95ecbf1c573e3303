package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const systemPrompt = "You are an expert at annotating user activity."

// Client wraps the OpenAI chat-completion API as the digest summarizer.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
}

// New builds a summarizer client. A non-positive timeout defaults to one minute.
func New(apiKey, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Client{
		api:     openai.NewClient(apiKey),
		model:   model,
		timeout: timeout,
	}
}

// Summarize produces a one-paragraph summary for a digest prompt. The call is
// bounded by the client timeout; any failure means "summary unavailable" and
// is the caller's to log and skip.
func (c *Client) Summarize(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   400,
		Temperature: 0.5,
	})
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("summarize: empty completion")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
