package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"doubtit/support-api/internal/domain/agent"
	"doubtit/support-api/internal/infrastructure/auth"
	"doubtit/support-api/internal/infrastructure/metrics"
	"doubtit/support-api/internal/interfaces/httpserver/requests"
	"doubtit/support-api/internal/interfaces/httpserver/responses"
	"doubtit/support-api/internal/utils/platformerrors"
)

// AgentHandler exposes the human agent actions.
type AgentHandler struct {
	service *agent.Service
	log     zerolog.Logger
}

// NewAgentHandler constructs the handler.
func NewAgentHandler(service *agent.Service, log zerolog.Logger) *AgentHandler {
	return &AgentHandler{
		service: service,
		log:     log.With().Str("handler", "agent").Logger(),
	}
}

// Claim handles POST /channel/conversations/:id/claim
// @Summary Claim a conversation
// @Description Moves an AI or WAITING conversation to HUMAN, owned by the caller
// @Tags Agent
// @Produce json
// @Param id path string true "Conversation ID"
// @Success 200 {object} responses.OKResponse
// @Failure 404 {object} platformerrors.HTTPErrorResponse
// @Failure 409 {object} platformerrors.HTTPErrorResponse
// @Security BearerAuth
// @Router /channel/conversations/{id}/claim [post]
func (h *AgentHandler) Claim(c *gin.Context) {
	h.act(c, "claim", func(agentID string) error {
		_, err := h.service.Claim(c.Request.Context(), c.Param("id"), agentID)
		return err
	})
}

// Send handles POST /channel/conversations/:id/send
// @Summary Reply as the assigned agent
// @Tags Agent
// @Accept json
// @Produce json
// @Param id path string true "Conversation ID"
// @Param request body requests.SendMessageRequest true "Message"
// @Success 200 {object} responses.OKResponse
// @Failure 400 {object} platformerrors.HTTPErrorResponse
// @Failure 403 {object} platformerrors.HTTPErrorResponse
// @Failure 500 {object} platformerrors.HTTPErrorResponse
// @Security BearerAuth
// @Router /channel/conversations/{id}/send [post]
func (h *AgentHandler) Send(c *gin.Context) {
	var req requests.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		platformerrors.WriteNew(c, platformerrors.ErrorTypeBadRequest, "text is required",
			"8f4a2c7e-1b93-4d65-a0e8-3c6f9b1d7e24", h.log)
		return
	}
	h.act(c, "send", func(agentID string) error {
		_, err := h.service.SendMessage(c.Request.Context(), c.Param("id"), agentID, req.Text)
		return err
	})
}

// Close handles POST /channel/conversations/:id/close
// @Summary Close a conversation
// @Tags Agent
// @Produce json
// @Param id path string true "Conversation ID"
// @Success 200 {object} responses.OKResponse
// @Failure 403 {object} platformerrors.HTTPErrorResponse
// @Failure 409 {object} platformerrors.HTTPErrorResponse
// @Security BearerAuth
// @Router /channel/conversations/{id}/close [post]
func (h *AgentHandler) Close(c *gin.Context) {
	h.act(c, "close", func(agentID string) error {
		_, err := h.service.Close(c.Request.Context(), c.Param("id"), agentID)
		return err
	})
}

// Release handles POST /channel/conversations/:id/release
// @Summary Return a conversation to the waiting queue
// @Tags Agent
// @Produce json
// @Param id path string true "Conversation ID"
// @Success 200 {object} responses.OKResponse
// @Failure 403 {object} platformerrors.HTTPErrorResponse
// @Failure 409 {object} platformerrors.HTTPErrorResponse
// @Security BearerAuth
// @Router /channel/conversations/{id}/release [post]
func (h *AgentHandler) Release(c *gin.Context) {
	h.act(c, "release", func(agentID string) error {
		_, err := h.service.Release(c.Request.Context(), c.Param("id"), agentID)
		return err
	})
}

// HandBack handles POST /channel/conversations/:id/handback
// @Summary Hand a conversation back to the assistant
// @Tags Agent
// @Produce json
// @Param id path string true "Conversation ID"
// @Success 200 {object} responses.OKResponse
// @Failure 403 {object} platformerrors.HTTPErrorResponse
// @Failure 409 {object} platformerrors.HTTPErrorResponse
// @Security BearerAuth
// @Router /channel/conversations/{id}/handback [post]
func (h *AgentHandler) HandBack(c *gin.Context) {
	h.act(c, "handback", func(agentID string) error {
		_, err := h.service.HandBack(c.Request.Context(), c.Param("id"), agentID)
		return err
	})
}

func (h *AgentHandler) act(c *gin.Context, action string, run func(agentID string) error) {
	principal, ok := auth.PrincipalFrom(c)
	if !ok {
		platformerrors.WriteNew(c, platformerrors.ErrorTypeUnauthorized, "unauthorized",
			"2b7e9d4a-6c18-4f53-b0a2-9e5c1f8d3a76", h.log)
		return
	}

	err := run(principal.Subject)
	metrics.RecordAgentAction(action, err)
	if err != nil {
		responses.HandleError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, responses.OKResponse{OK: true})
}
