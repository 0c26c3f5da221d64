package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"doubtit/support-api/internal/domain/inbound"
	"doubtit/support-api/internal/infrastructure/dedupe"
	"doubtit/support-api/internal/infrastructure/metrics"
	"doubtit/support-api/internal/infrastructure/telegram"
	"doubtit/support-api/internal/interfaces/httpserver/responses"
	"doubtit/support-api/internal/utils/platformerrors"
)

// SecretTokenHeader carries the secret registered with setWebhook.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookRegistrar manages the bot's webhook registration.
type WebhookRegistrar interface {
	SetWebhook(ctx context.Context, url, secretToken string) error
	GetWebhookInfo(ctx context.Context) (*telegram.WebhookInfo, error)
}

// ChannelConfig holds the webhook settings.
type ChannelConfig struct {
	SecretToken string
	WebhookURL  string
}

// ChannelHandler receives Telegram updates and manages the webhook.
type ChannelHandler struct {
	inbound   *inbound.Service
	seen      dedupe.Tracker
	registrar WebhookRegistrar
	cfg       ChannelConfig
	log       zerolog.Logger
}

// NewChannelHandler constructs the handler.
func NewChannelHandler(inboundService *inbound.Service, seen dedupe.Tracker, registrar WebhookRegistrar, cfg ChannelConfig, log zerolog.Logger) *ChannelHandler {
	return &ChannelHandler{
		inbound:   inboundService,
		seen:      seen,
		registrar: registrar,
		cfg:       cfg,
		log:       log.With().Str("handler", "channel").Logger(),
	}
}

// Webhook handles POST /channel/webhook
// @Summary Telegram webhook
// @Description Receives bot updates. Always answers 200 once the secret matches so Telegram does not retry.
// @Tags Channel
// @Accept json
// @Produce json
// @Param X-Telegram-Bot-Api-Secret-Token header string true "Webhook secret"
// @Param update body telegram.Update true "Telegram update"
// @Success 200 {object} responses.OKResponse
// @Failure 403 {string} string "secret mismatch"
// @Router /channel/webhook [post]
func (h *ChannelHandler) Webhook(c *gin.Context) {
	secret := c.GetHeader(SecretTokenHeader)
	if h.cfg.SecretToken == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(h.cfg.SecretToken)) != 1 {
		h.log.Warn().Str("client_ip", c.ClientIP()).Msg("webhook secret mismatch")
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	ack := responses.OKResponse{OK: true}

	var update telegram.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		h.log.Warn().Err(err).Msg("unreadable webhook update")
		c.JSON(http.StatusOK, ack)
		return
	}

	msg, ok := update.ToInbound()
	if !ok {
		c.JSON(http.StatusOK, ack)
		return
	}

	ctx := c.Request.Context()
	first, err := h.seen.FirstSeen(ctx, strconv.FormatInt(update.UpdateID, 10))
	if err != nil {
		// Fail open.
		h.log.Warn().Err(err).Int64("update_id", update.UpdateID).Msg("dedupe unavailable")
		first = true
	}
	if !first {
		metrics.RecordDuplicateUpdate()
		h.log.Debug().Int64("update_id", update.UpdateID).Msg("dropping redelivered update")
		c.JSON(http.StatusOK, ack)
		return
	}

	outcome, err := h.inbound.HandleInboundMessage(ctx, msg)
	metrics.RecordInbound(string(outcome))
	if err != nil {
		platformerrors.LogError(h.log, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "handle inbound message"))
	}
	c.JSON(http.StatusOK, ack)
}

// Setup handles POST /channel/setup
// @Summary Register the Telegram webhook
// @Tags Channel
// @Produce json
// @Success 200 {object} responses.WebhookSetupResponse
// @Failure 403 {object} platformerrors.HTTPErrorResponse
// @Failure 500 {object} platformerrors.HTTPErrorResponse
// @Security BearerAuth
// @Router /channel/setup [post]
func (h *ChannelHandler) Setup(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.registrar.SetWebhook(ctx, h.cfg.WebhookURL, h.cfg.SecretToken); err != nil {
		responses.HandleError(c, upstream(ctx, err, "failed to register webhook"), h.log)
		return
	}

	info, err := h.registrar.GetWebhookInfo(ctx)
	if err != nil {
		responses.HandleError(c, upstream(ctx, err, "failed to read webhook info"), h.log)
		return
	}

	h.log.Info().Str("url", h.cfg.WebhookURL).Msg("webhook registered")
	c.JSON(http.StatusOK, responses.WebhookSetupResponse{Success: true, Webhook: info})
}

// WebhookInfo handles GET /channel/webhook-info
// @Summary Current Telegram webhook registration
// @Tags Channel
// @Produce json
// @Success 200 {object} telegram.WebhookInfo
// @Security BearerAuth
// @Router /channel/webhook-info [get]
func (h *ChannelHandler) WebhookInfo(c *gin.Context) {
	info, err := h.registrar.GetWebhookInfo(c.Request.Context())
	if err != nil {
		responses.HandleError(c, upstream(c.Request.Context(), err, "failed to read webhook info"), h.log)
		return
	}
	c.JSON(http.StatusOK, info)
}

func upstream(ctx context.Context, err error, message string) error {
	return platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeUpstreamUnavailable,
		message, err, "c5a9e3f1-7d24-4b86-9e0c-2f8b6d4a1e37")
}
