package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/aegisops/aegisd/pkg/logging"
)

// OpenAIClient is the sole concrete Client binding: one backend behind the
// narrow interface, not a multi-backend switch.
type OpenAIClient struct {
	client *openai.Client
	model  string
	logger *logging.Logger
}

// NewOpenAIClient builds a client from an already-resolved API key and
// model. Credential resolution (env var vs. mounted secret) is the
// config layer's job, not this package's.
func NewOpenAIClient(apiKey, model string, logger *logging.Logger) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llm: empty API key")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &OpenAIClient{client: openai.NewClient(apiKey), model: model, logger: logger}, nil
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are an operations assistant acting under bounded autonomy."},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if params.Temperature != nil {
		req.Temperature = *params.Temperature
	}
	if params.MaxTokens != nil {
		req.MaxTokens = *params.MaxTokens
	}
	if params.TopP != nil {
		req.TopP = *params.TopP
	}
	if len(params.Stop) > 0 {
		req.Stop = params.Stop
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("llm: openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm: openai returned no choices")
	}
	c.logger.Debug("llm.generate", "model", c.model, "finish_reason", resp.Choices[0].FinishReason)
	return resp.Choices[0].Message.Content, nil
}
