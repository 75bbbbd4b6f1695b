// Package anthropicrt implements llm.Runtime over the Anthropic Messages
// API directly, for deployments that do not run inside AWS.
package anthropicrt

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/nchouser54/ai-pr-reviewer/internal/llm"
	"github.com/nchouser54/ai-pr-reviewer/internal/retry"
)

// Runtime wraps an Anthropic client and a target model.
type Runtime struct {
	Client anthropic.Client
	Model  anthropic.Model
}

// New builds a Runtime from an API key.
func New(apiKey string, model anthropic.Model) *Runtime {
	return &Runtime{
		Client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		Model:  model,
	}
}

func (r *Runtime) Invoke(ctx context.Context, req llm.Request) (string, error) {
	var messages []anthropic.MessageParam
	for _, m := range req.Messages {
		messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
	}

	msg, err := retry.Call(ctx, "anthropic.messages.create", retry.DefaultConfig(),
		func(ctx context.Context) (*anthropic.Message, error) {
			return r.Client.Messages.New(ctx, anthropic.MessageNewParams{
				Model:       r.Model,
				MaxTokens:   int64(req.MaxTokens),
				System:      []anthropic.TextBlockParam{{Text: req.System}},
				Messages:    messages,
				Temperature: anthropic.Float(req.Temperature),
			})
		},
		retry.RetryableCloudError,
		nil,
	)
	if err != nil {
		return "", err
	}

	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("anthropic response contained no text block")
}
