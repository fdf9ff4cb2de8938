// Package openai adapts the OpenAI API to the connection layer. It provides
// text generation for the agent's posts and replies, plus image generation
// for the media post path.
package openai

import (
	"context"
	"errors"
	"strings"

	gopenai "github.com/sashabaranov/go-openai"

	"github.com/nextlevelbuilder/finch/internal/config"
	"github.com/nextlevelbuilder/finch/internal/connections"
	"github.com/nextlevelbuilder/finch/internal/keystore"
)

const keyAPIKey = "openai.api_key"

const (
	defaultModel      = gopenai.GPT4oMini
	defaultImageModel = gopenai.CreateImageModelDallE3
	defaultImageSize  = gopenai.CreateImageSize1024x1024
	defaultMaxTokens  = 256
)

// Connection satisfies connections.ModelProvider and connections.ImageProvider.
type Connection struct {
	cfg   *config.ConnectionConfig
	state *connections.State

	client  *gopenai.Client
	limiter *connections.WindowLimiter
	retry   connections.RetryConfig
}

func New(cfg *config.ConnectionConfig) *Connection {
	retry := connections.DefaultRetryConfig()
	if cfg.RetryAttempts > 0 {
		retry.Attempts = cfg.RetryAttempts
	}
	return &Connection{
		cfg:     cfg,
		state:   &connections.State{},
		limiter: connections.NewWindowLimiter(cfg.RateLimitRPM),
		retry:   retry,
	}
}

func (c *Connection) Name() string              { return "openai" }
func (c *Connection) State() *connections.State { return c.state }

// Initialize resolves the API key and verifies it with a models listing.
func (c *Connection) Initialize(ctx context.Context) error {
	apiKey, err := keystore.Get(keyAPIKey)
	if err != nil {
		return err
	}
	c.client = gopenai.NewClient(apiKey)

	if _, err := c.client.ListModels(ctx); err != nil {
		return &connections.ProviderError{Provider: "openai", Err: err}
	}

	c.state.SetConnected(true)
	return nil
}

func (c *Connection) Shutdown(ctx context.Context) error {
	c.client = nil
	c.state.SetConnected(false)
	return nil
}

func (c *Connection) Actions() map[string]connections.ActionSpec {
	return map[string]connections.ActionSpec{
		"generate-text": {
			Name:        "generate-text",
			Description: "Generate a completion for a prompt",
			Params: []connections.ParamSpec{
				{Name: "prompt", Required: true, Description: "user prompt"},
				{Name: "system_prompt", Required: false, Description: "system prompt"},
			},
		},
		"generate-image": {
			Name:        "generate-image",
			Description: "Generate an image and return its URL",
			Params: []connections.ParamSpec{
				{Name: "prompt", Required: true, Description: "image description"},
			},
		},
	}
}

func (c *Connection) Perform(ctx context.Context, action string, params []any) (any, error) {
	switch action {
	case "generate-text":
		prompt, _ := param(params, 0)
		system, _ := param(params, 1)
		return c.GenerateText(ctx, prompt, system)
	case "generate-image":
		prompt, _ := param(params, 0)
		return c.GenerateImage(ctx, prompt)
	default:
		return nil, &connections.UnknownActionError{Connection: "openai", Action: action}
	}
}

// GenerateText runs one chat completion and returns the trimmed content.
func (c *Connection) GenerateText(ctx context.Context, prompt, systemPrompt string) (string, error) {
	if c.client == nil {
		return "", connections.ErrNotConnected
	}
	if prompt == "" {
		return "", &connections.ValidationError{Reason: "prompt is empty"}
	}

	model := c.cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := c.cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	var messages []gopenai.ChatCompletionMessage
	if systemPrompt != "" {
		messages = append(messages, gopenai.ChatCompletionMessage{
			Role:    gopenai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	messages = append(messages, gopenai.ChatCompletionMessage{
		Role:    gopenai.ChatMessageRoleUser,
		Content: prompt,
	})

	return connections.ExecuteWithRetry("openai.generate-text", c.retry, c.state, nil, func() (string, error) {
		c.limiter.Wait()
		resp, err := c.client.CreateChatCompletion(ctx, gopenai.ChatCompletionRequest{
			Model:       model,
			Messages:    messages,
			MaxTokens:   maxTokens,
			Temperature: float32(c.cfg.Temperature),
		})
		if err != nil {
			return "", &connections.ProviderError{Provider: "openai", Err: err}
		}
		if len(resp.Choices) == 0 {
			return "", &connections.ProviderError{Provider: "openai", Err: errors.New("no choices returned")}
		}
		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	})
}

// GenerateImage creates one image and returns its URL.
func (c *Connection) GenerateImage(ctx context.Context, prompt string) (string, error) {
	if c.client == nil {
		return "", connections.ErrNotConnected
	}
	if prompt == "" {
		return "", &connections.ValidationError{Reason: "image prompt is empty"}
	}

	model := c.cfg.ImageModel
	if model == "" {
		model = defaultImageModel
	}
	size := c.cfg.ImageSize
	if size == "" {
		size = defaultImageSize
	}

	return connections.ExecuteWithRetry("openai.generate-image", c.retry, c.state, nil, func() (string, error) {
		c.limiter.Wait()
		req := gopenai.ImageRequest{
			Prompt:         prompt,
			Model:          model,
			Size:           size,
			N:              1,
			ResponseFormat: gopenai.CreateImageResponseFormatURL,
		}
		if c.cfg.ImageQuality != "" {
			req.Quality = c.cfg.ImageQuality
		}
		resp, err := c.client.CreateImage(ctx, req)
		if err != nil {
			return "", &connections.ProviderError{Provider: "openai", Err: err}
		}
		if len(resp.Data) == 0 || resp.Data[0].URL == "" {
			return "", &connections.ProviderError{Provider: "openai", Err: errors.New("no image returned")}
		}
		return resp.Data[0].URL, nil
	})
}

func param(params []any, i int) (string, bool) {
	if i >= len(params) {
		return "", false
	}
	s, ok := params[i].(string)
	return s, ok
}
