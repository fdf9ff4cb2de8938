// Package anthropic adapts the Anthropic Messages API to the connection
// layer as a text-only model provider.
package anthropic

import (
	"context"
	"errors"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/nextlevelbuilder/finch/internal/config"
	"github.com/nextlevelbuilder/finch/internal/connections"
	"github.com/nextlevelbuilder/finch/internal/keystore"
)

const keyAPIKey = "anthropic.api_key"

const (
	defaultModel     = sdk.ModelClaude3_5HaikuLatest
	defaultMaxTokens = 256
)

// Connection satisfies connections.ModelProvider.
type Connection struct {
	cfg   *config.ConnectionConfig
	state *connections.State

	client  *sdk.Client
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

func (c *Connection) Name() string              { return "anthropic" }
func (c *Connection) State() *connections.State { return c.state }

// Initialize resolves the API key and verifies it with a models listing.
func (c *Connection) Initialize(ctx context.Context) error {
	apiKey, err := keystore.Get(keyAPIKey)
	if err != nil {
		return err
	}
	client := sdk.NewClient(option.WithAPIKey(apiKey))
	c.client = &client

	if _, err := c.client.Models.List(ctx, sdk.ModelListParams{}); err != nil {
		return &connections.ProviderError{Provider: "anthropic", Err: err}
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
	}
}

func (c *Connection) Perform(ctx context.Context, action string, params []any) (any, error) {
	switch action {
	case "generate-text":
		var prompt, system string
		if len(params) > 0 {
			prompt, _ = params[0].(string)
		}
		if len(params) > 1 {
			system, _ = params[1].(string)
		}
		return c.GenerateText(ctx, prompt, system)
	default:
		return nil, &connections.UnknownActionError{Connection: "anthropic", Action: action}
	}
}

// GenerateText runs one message turn and returns the concatenated text blocks.
func (c *Connection) GenerateText(ctx context.Context, prompt, systemPrompt string) (string, error) {
	if c.client == nil {
		return "", connections.ErrNotConnected
	}
	if prompt == "" {
		return "", &connections.ValidationError{Reason: "prompt is empty"}
	}

	model := defaultModel
	if c.cfg.Model != "" {
		model = sdk.Model(c.cfg.Model)
	}
	maxTokens := int64(c.cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := sdk.MessageNewParams{
		Model:     model,
		MaxTokens: maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	}
	if systemPrompt != "" {
		params.System = []sdk.TextBlockParam{{Text: systemPrompt}}
	}
	if c.cfg.Temperature > 0 {
		params.Temperature = sdk.Float(c.cfg.Temperature)
	}

	return connections.ExecuteWithRetry("anthropic.generate-text", c.retry, c.state, nil, func() (string, error) {
		c.limiter.Wait()
		msg, err := c.client.Messages.New(ctx, params)
		if err != nil {
			return "", &connections.ProviderError{Provider: "anthropic", Err: err}
		}

		var sb strings.Builder
		for _, block := range msg.Content {
			if block.Type == "text" {
				sb.WriteString(block.Text)
			}
		}
		text := strings.TrimSpace(sb.String())
		if text == "" {
			return "", &connections.ProviderError{Provider: "anthropic", Err: errors.New("no text content returned")}
		}
		return text, nil
	})
}
