// Package synthesis turns the aggregated market state into structured
// research output via an LLM, with layered recovery for malformed
// model responses.
package synthesis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"

	anthropicURL     = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
)

// TextGenerator produces a raw completion for a prompt. The synthesis
// gateway depends on this rather than a concrete provider.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error)
}

// ClientConfig holds LLM provider settings.
type ClientConfig struct {
	Provider string
	APIKey   string
	Endpoint string
	Model    string
}

// NewGenerator builds a TextGenerator for the configured provider. An
// empty API key is a hard error: the pipeline cannot run without
// synthesis.
func NewGenerator(cfg ClientConfig) (TextGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("LLM API key is required. Set LLM_API_KEY in your .env file. Provider: %s", cfg.Provider)
	}

	switch cfg.Provider {
	case ProviderAnthropic, "":
		return newAnthropicClient(cfg), nil
	case ProviderOpenAI:
		return newOpenAIClient(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s. Use 'anthropic' or 'openai'", cfg.Provider)
	}
}

// anthropicClient talks to the Anthropic Messages API directly.
type anthropicClient struct {
	http  *resty.Client
	key   string
	model string
}

func newAnthropicClient(cfg ClientConfig) *anthropicClient {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = anthropicURL
	}
	return &anthropicClient{
		http: resty.New().
			SetBaseURL(endpoint).
			SetTimeout(120 * time.Second),
		key:   cfg.APIKey,
		model: cfg.Model,
	}
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float32            `json:"temperature"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *anthropicClient) Generate(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error) {
	var out anthropicResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("x-api-key", c.key).
		SetHeader("anthropic-version", anthropicVersion).
		SetBody(anthropicRequest{
			Model:       c.model,
			MaxTokens:   maxTokens,
			Temperature: temperature,
			Messages:    []anthropicMessage{{Role: "user", Content: prompt}},
		}).
		SetResult(&out).
		SetError(&out).
		Post("")

	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		if out.Error != nil {
			return "", fmt.Errorf("anthropic returned %d: %s", resp.StatusCode(), out.Error.Message)
		}
		return "", fmt.Errorf("anthropic returned %d", resp.StatusCode())
	}
	if len(out.Content) == 0 {
		return "", nil
	}

	log.Debug().Str("model", c.model).Msg("Anthropic completion received")
	return out.Content[0].Text, nil
}

// openaiClient wraps the OpenAI SDK. A custom endpoint works for any
// OpenAI-compatible gateway.
type openaiClient struct {
	client *openai.Client
	model  string
}

func newOpenAIClient(cfg ClientConfig) *openaiClient {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		config.BaseURL = cfg.Endpoint
	}
	return &openaiClient{
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
	}
}

func (c *openaiClient) Generate(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	log.Debug().Str("model", c.model).Int("total_tokens", resp.Usage.TotalTokens).
		Msg("OpenAI completion received")
	return resp.Choices[0].Message.Content, nil
}
