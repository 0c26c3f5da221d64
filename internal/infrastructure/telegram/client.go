package telegram

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"doubtit/support-api/internal/domain/channel"
	"doubtit/support-api/internal/infrastructure/metrics"
	"doubtit/support-api/internal/infrastructure/observability"
)

// Config configures the Bot API client.
type Config struct {
	APIURL  string
	Token   string
	Timeout time.Duration
}

// Client calls the Telegram Bot API.
type Client struct {
	http    *resty.Client
	timeout time.Duration
	log     zerolog.Logger
}

// NewClient creates a Resty-backed Bot API client.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http: resty.New().
			SetBaseURL(cfg.APIURL+"/bot"+cfg.Token).
			SetHeader("Content-Type", "application/json").
			SetTimeout(timeout),
		timeout: timeout,
		log:     log.With().Str("component", "telegram-client").Logger(),
	}
}

// SendText delivers text to chat threadID and returns the Telegram message id.
func (c *Client) SendText(ctx context.Context, threadID, text string) (string, error) {
	var sent Message
	err := c.call(ctx, "sendMessage", sendMessageRequest{ChatID: threadID, Text: text}, &sent)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(sent.MessageID, 10), nil
}

// SetWebhook points the bot at url. Telegram echoes secretToken in the
// X-Telegram-Bot-Api-Secret-Token header of every delivery.
func (c *Client) SetWebhook(ctx context.Context, url, secretToken string) error {
	var ok bool
	return c.call(ctx, "setWebhook", setWebhookRequest{
		URL:            url,
		SecretToken:    secretToken,
		AllowedUpdates: []string{"message"},
	}, &ok)
}

// GetWebhookInfo returns the bot's current webhook registration.
func (c *Client) GetWebhookInfo(ctx context.Context) (*WebhookInfo, error) {
	var info WebhookInfo
	if err := c.call(ctx, "getWebhookInfo", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) call(ctx context.Context, method string, body any, result any) (err error) {
	ctx, span := observability.StartSpan(ctx, "telegram", "telegram."+method, attribute.String("telegram.method", method))
	defer func() {
		metrics.RecordChannelCall(method, err)
		observability.EndSpan(span, err)
	}()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	envelope := apiResponse[any]{Result: result}
	req := c.http.R().SetContext(ctx).SetResult(&envelope).SetError(&envelope)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Post("/" + method)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	if resp.IsError() || !envelope.OK {
		c.log.Warn().Str("method", method).Int("status", resp.StatusCode()).Str("description", envelope.Description).
			Msg("telegram api call rejected")
		return fmt.Errorf("telegram %s: %d %s", method, resp.StatusCode(), envelope.Description)
	}
	return nil
}

var _ channel.Messenger = (*Client)(nil)
