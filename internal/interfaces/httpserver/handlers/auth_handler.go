package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"doubtit/support-api/internal/infrastructure/auth"
	"doubtit/support-api/internal/utils/platformerrors"
)

// AuthHandler reports who the caller is.
type AuthHandler struct {
	log zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(log zerolog.Logger) *AuthHandler {
	return &AuthHandler{log: log.With().Str("handler", "auth").Logger()}
}

// Me handles GET /auth/me
// @Summary Current principal
// @Tags Auth
// @Produce json
// @Success 200 {object} auth.Principal
// @Failure 401 {object} platformerrors.HTTPErrorResponse
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	principal, ok := auth.PrincipalFrom(c)
	if !ok {
		platformerrors.WriteNew(c, platformerrors.ErrorTypeUnauthorized, "unauthorized",
			"2b7e9d4a-6c18-4f53-b0a2-9e5c1f8d3a76", h.log)
		return
	}
	c.JSON(http.StatusOK, principal)
}
