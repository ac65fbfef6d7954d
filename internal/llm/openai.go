package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/MikeSquared-Agency/callscope/internal/prompt"
)

// ollamaKey is sent when no key is configured; local OpenAI-compatible
// servers such as Ollama require the header but ignore its value.
const ollamaKey = "ollama"

// OpenAI generates through chat completions. Pointing BaseURL at an
// OpenAI-compatible server (Ollama, vLLM, llama.cpp) reuses it for local models.
type OpenAI struct {
	client    *openai.Client
	model     string
	maxTokens int64
}

func NewOpenAI(cfg Config) *OpenAI {
	key := cfg.APIKey
	if key == "" {
		key = ollamaKey
	}
	opts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &OpenAI{
		client:    openai.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: maxTokens,
	}
}

func (o *OpenAI) Generate(ctx context.Context, req prompt.Request) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.User))

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.F(o.model),
		Messages:    openai.F(messages),
		Temperature: openai.F(0.0),
		MaxTokens:   openai.F(o.maxTokens),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &StatusError{Provider: ProviderOpenAI, StatusCode: apiErr.StatusCode, Err: err}
		}
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
