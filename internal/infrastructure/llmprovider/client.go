package llmprovider

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"

	"doubtit/support-api/internal/domain/llm"
	"doubtit/support-api/internal/infrastructure/metrics"
	"doubtit/support-api/internal/infrastructure/observability"
)

// SystemPrompt frames the assistant for developer support over Telegram.
const SystemPrompt = `You are a helpful developer support assistant for a platform called DoubtIt.
Answer questions using the latest documentation of the tech stack the user asks about, and link the relevant resources.
Be concise, friendly and accurate.
If you don't know the answer, don't make things up; say "You can type 'agent' to connect with a human support agent."
Formatting rules:
- Use **bold** for emphasis (double asterisks only)
- Use ` + "`code`" + ` for inline code
- Use [text](url) for links
- Keep responses under 500 characters`

// ErrEmptyCompletion is returned when the model answers with no text.
var ErrEmptyCompletion = errors.New("llm returned no content")

// Config configures the completion client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client generates assistant replies through an OpenAI-compatible API.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
	log     zerolog.Logger
}

// NewClient creates an OpenAI-compatible completion client.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &Client{
		api:     openai.NewClientWithConfig(apiCfg),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		log:     log.With().Str("component", "llm-client").Str("model", cfg.Model).Logger(),
	}
}

// GenerateReply answers a single user message.
func (c *Client) GenerateReply(ctx context.Context, userText string) (reply string, err error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	ctx, span := observability.StartSpan(ctx, "llm", "llm.generate_reply", attribute.String("llm.model", c.model))
	start := time.Now()
	defer func() {
		metrics.RecordLLMRequest(time.Since(start), err)
		observability.EndSpan(span, err)
	}()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userText},
		},
	})
	if err != nil {
		c.log.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("completion request failed")
		return "", err
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyCompletion
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

var _ llm.Responder = (*Client)(nil)
