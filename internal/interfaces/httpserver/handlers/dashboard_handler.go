package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"doubtit/support-api/internal/domain/conversation"
	"doubtit/support-api/internal/domain/dashboard"
	"doubtit/support-api/internal/interfaces/httpserver/requests"
	"doubtit/support-api/internal/interfaces/httpserver/responses"
	"doubtit/support-api/internal/utils/platformerrors"
)

// DashboardHandler serves the agent dashboard reads.
type DashboardHandler struct {
	service *dashboard.Service
	log     zerolog.Logger
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service *dashboard.Service, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		log:     log.With().Str("handler", "dashboard").Logger(),
	}
}

// ListConversations handles GET /dashboard/conversations
// @Summary List conversations by status
// @Description Pages conversations in one status, most recently active first
// @Tags Dashboard
// @Produce json
// @Param status query string false "AI, WAITING, HUMAN or CLOSED" default(WAITING)
// @Param limit query int false "Page size" default(20)
// @Param pageToken query string false "Cursor from a previous page"
// @Success 200 {object} responses.ConversationListResponse
// @Failure 400 {object} platformerrors.HTTPErrorResponse
// @Failure 401 {object} platformerrors.HTTPErrorResponse
// @Security BearerAuth
// @Router /dashboard/conversations [get]
func (h *DashboardHandler) ListConversations(c *gin.Context) {
	var query requests.ListConversationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		platformerrors.WriteNew(c, platformerrors.ErrorTypeBadRequest, "invalid query parameters",
			"47d2a8c1-9e36-4b5f-8a07-1c3e9f6b2d84", h.log)
		return
	}

	var status conversation.Status
	if query.Status != "" {
		parsed, err := conversation.ParseStatus(query.Status)
		if err != nil {
			platformerrors.WriteNew(c, platformerrors.ErrorTypeBadRequest, err.Error(),
				"b83f1d6e-2a49-4c70-9e15-5d8a3c7f0b62", h.log)
			return
		}
		status = parsed
	}

	page, err := h.service.ListConversations(c.Request.Context(), status, query.Limit, query.PageToken)
	if err != nil {
		responses.HandleError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, responses.NewConversationListResponse(page))
}

// GetConversation handles GET /dashboard/conversations/:id
// @Summary Get a conversation with messages
// @Description Returns the header and one page of messages, newest first
// @Tags Dashboard
// @Produce json
// @Param id path string true "Conversation ID"
// @Param limit query int false "Page size" default(50)
// @Param pageToken query string false "Cursor from a previous page"
// @Success 200 {object} responses.ConversationDetailResponse
// @Failure 404 {object} platformerrors.HTTPErrorResponse
// @Security BearerAuth
// @Router /dashboard/conversations/{id} [get]
func (h *DashboardHandler) GetConversation(c *gin.Context) {
	var query requests.PageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		platformerrors.WriteNew(c, platformerrors.ErrorTypeBadRequest, "invalid query parameters",
			"47d2a8c1-9e36-4b5f-8a07-1c3e9f6b2d84", h.log)
		return
	}

	detail, err := h.service.GetConversationDetail(c.Request.Context(), c.Param("id"), query.Limit, query.PageToken)
	if err != nil {
		responses.HandleError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, responses.NewConversationDetailResponse(detail))
}

// Stats handles GET /dashboard/stats
// @Summary Queue statistics
// @Tags Dashboard
// @Produce json
// @Success 200 {object} responses.StatsResponse
// @Security BearerAuth
// @Router /dashboard/stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		responses.HandleError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, stats)
}
