// Package bedrock implements llm.Runtime over Amazon Bedrock's
// InvokeModel API using the Anthropic message envelope
// (anthropic_version: bedrock-2023-05-31) — the original system's
// production inference path.
package bedrock

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/nchouser54/ai-pr-reviewer/internal/llm"
	"github.com/nchouser54/ai-pr-reviewer/internal/retry"
)

// Runtime invokes a Bedrock model id (e.g.
// "anthropic.claude-3-5-sonnet-20241022-v2:0").
type Runtime struct {
	Client  *bedrockruntime.Client
	ModelID string
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	System           string             `json:"system,omitempty"`
	Messages         []anthropicMessage `json:"messages"`
	MaxTokens        int                `json:"max_tokens"`
	Temperature      float64            `json:"temperature"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (r *Runtime) Invoke(ctx context.Context, req llm.Request) (string, error) {
	var messages []anthropicMessage
	for _, m := range req.Messages {
		messages = append(messages, anthropicMessage{
			Role: m.Role,
			Content: []struct {
				Text string `json:"text"`
			}{{Text: m.Content}},
		})
	}

	body, err := json.Marshal(anthropicRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		System:           req.System,
		Messages:         messages,
		MaxTokens:        req.MaxTokens,
		Temperature:      req.Temperature,
	})
	if err != nil {
		return "", err
	}

	out, err := retry.Call(ctx, "bedrock.invoke_model", retry.DefaultConfig(),
		func(ctx context.Context) (*bedrockruntime.InvokeModelOutput, error) {
			return r.Client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
				ModelId:     aws.String(r.ModelID),
				ContentType: aws.String("application/json"),
				Accept:      aws.String("application/json"),
				Body:        body,
			})
		},
		retry.RetryableCloudError,
		nil,
	)
	if err != nil {
		return "", err
	}

	var resp anthropicResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", err
	}
	for _, block := range resp.Content {
		if block.Type == "text" || block.Type == "" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("bedrock response contained no text block")
}
