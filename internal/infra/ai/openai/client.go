package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/gembaops/fives-audit/internal/domain/assessment"
	"github.com/gembaops/fives-audit/internal/infra/ai/prompt"
)

const maxTokens = 4096

const (
	defaultMaxAttempts = 3
	defaultBackoffBase = time.Second
)

// Client delivers evaluation requests to an OpenAI-compatible vision
// service with bounded retry. Safe for concurrent use; backoff sleeps only
// suspend the calling request's flow.
type Client struct {
	api   *openai.Client
	model string

	maxAttempts int
	backoffBase time.Duration

	// sleep is swapped out in tests to observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(apiKey, baseURL, model string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{
		api:         openai.NewClientWithConfig(cfg),
		model:       model,
		maxAttempts: defaultMaxAttempts,
		backoffBase: defaultBackoffBase,
		sleep:       sleepCtx,
	}
}

// Assess sends the fixed evaluation prompt plus the normalized JPEG buffers
// and returns the raw reply text unmodified. Transport failures are retried
// up to 3 attempts with 1s, 2s waits; a reply that arrives is never retried
// here regardless of its content.
func (c *Client) Assess(ctx context.Context, images [][]byte) (string, error) {
	req := c.buildRequest(images)

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			wait := c.backoffBase * (1 << (attempt - 1))
			if err := c.sleep(ctx, wait); err != nil {
				return "", err
			}
		}

		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("empty choices in completion response")
			continue
		}
		return resp.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("%w: after %d attempts: %v", assessment.ErrServiceUnavailable, c.maxAttempts, lastErr)
}

func (c *Client) buildRequest(images [][]byte) openai.ChatCompletionRequest {
	parts := make([]openai.ChatMessagePart, 0, len(images)+1)
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: prompt.GetEvaluationPrompt(),
	})
	for _, img := range images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL: fmt.Sprintf("data:image/jpeg;base64,%s", base64.StdEncoding.EncodeToString(img)),
			},
		})
	}

	model := c.model
	if model == "" {
		model = "gpt-4o"
	}
	req := openai.ChatCompletionRequest{
		Model: model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}
	return req
}

// sleepCtx waits for d or until ctx is done, whichever comes first, so a
// disconnected caller aborts pending retries promptly.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
