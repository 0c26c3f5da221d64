package auth

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"doubtit/support-api/internal/config"
	"doubtit/support-api/internal/utils/platformerrors"
)

const principalKey = "auth_principal"

// DevAgentHeader names the agent when authentication is disabled.
const DevAgentHeader = "X-Agent-ID"

var (
	errMissingToken = errors.New("missing access token")
	errNoSubject    = errors.New("token has no subject")
)

// Principal is the verified identity behind a request.
type Principal struct {
	Subject  string   `json:"sub"`
	Username string   `json:"username,omitempty"`
	Email    string   `json:"email,omitempty"`
	Groups   []string `json:"groups"`
	IsAdmin  bool     `json:"isAdmin"`
}

// Validator validates JWTs using JWKS.
type Validator struct {
	enabled    bool
	issuer     string
	audience   string
	adminGroup string
	cookieName string
	keyfunc    jwt.Keyfunc
	log        zerolog.Logger
}

// NewValidator initializes JWKS fetching when auth is enabled.
func NewValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Validator, error) {
	v := newValidator(cfg, log)
	if !cfg.AuthEnabled {
		v.log.Warn().Msg("authentication disabled; agents are identified by the " + DevAgentHeader + " header")
		return v, nil
	}

	jwks, err := keyfunc.Get(cfg.AuthJWKSURL, keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			log.Error().Err(err).Msg("jwks refresh error")
		},
	})
	if err != nil {
		return nil, err
	}
	v.keyfunc = jwks.Keyfunc
	return v, nil
}

// NewStaticValidator validates against an already loaded key set.
func NewStaticValidator(cfg *config.Config, jwks *keyfunc.JWKS, log zerolog.Logger) *Validator {
	v := newValidator(cfg, log)
	v.keyfunc = jwks.Keyfunc
	return v
}

func newValidator(cfg *config.Config, log zerolog.Logger) *Validator {
	return &Validator{
		enabled:    cfg.AuthEnabled,
		issuer:     cfg.AuthIssuer,
		audience:   cfg.AuthAudience,
		adminGroup: cfg.AuthAdminGroup,
		cookieName: cfg.AuthCookieName,
		log:        log.With().Str("component", "auth").Logger(),
	}
}

// Verify parses and validates a raw token.
func (v *Validator) Verify(tokenString string) (*Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithIssuer(v.issuer),
		jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}),
		jwt.WithExpirationRequired(),
	}
	// Cognito access tokens carry client_id instead of aud.
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.keyfunc, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	sub, _ := claims.GetSubject()
	if sub == "" {
		return nil, errNoSubject
	}

	p := &Principal{
		Subject:  sub,
		Username: firstString(claims, "cognito:username", "username", "preferred_username"),
		Email:    firstString(claims, "email"),
		Groups:   stringList(claims, "cognito:groups", "groups"),
	}
	p.IsAdmin = slices.Contains(p.Groups, v.adminGroup)
	return p, nil
}

// Middleware requires a verified principal on every request it guards.
func (v *Validator) Middleware() gin.HandlerFunc {
	if !v.enabled {
		return func(c *gin.Context) {
			agent := strings.TrimSpace(c.GetHeader(DevAgentHeader))
			if agent == "" {
				agent = "local-agent"
			}
			c.Set(principalKey, &Principal{Subject: agent, Groups: []string{v.adminGroup}, IsAdmin: true})
			c.Next()
		}
	}

	return func(c *gin.Context) {
		tokenString := v.tokenFromRequest(c)
		if tokenString == "" {
			abortUnauthorized(c, errMissingToken, v.log)
			return
		}

		principal, err := v.Verify(tokenString)
		if err != nil {
			v.log.Debug().Err(err).Msg("rejected access token")
			abortUnauthorized(c, err, v.log)
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequireAdmin allows only principals in the admin group.
func (v *Validator) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok || !principal.IsAdmin {
			platformerrors.WriteNew(c, platformerrors.ErrorTypeForbidden, "admin access required",
				"63b1e8d4-5a27-4f90-b8c6-2d4e7a9f1c05", v.log)
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the principal stored by Middleware.
func PrincipalFrom(c *gin.Context) (*Principal, bool) {
	value, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	principal, ok := value.(*Principal)
	return principal, ok && principal != nil
}

func (v *Validator) tokenFromRequest(c *gin.Context) string {
	if token := bearerToken(c.GetHeader("Authorization")); token != "" {
		return token
	}
	if v.cookieName == "" {
		return ""
	}
	cookie, err := c.Cookie(v.cookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie)
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func abortUnauthorized(c *gin.Context, err error, log zerolog.Logger) {
	platformerrors.WriteHTTPError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerRoute,
		platformerrors.ErrorTypeUnauthorized, "unauthorized", err, "0e7c3a9b-4d18-4f26-a5b3-8c1f6e2d9a47"), log)
}

func firstString(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		if s, ok := claims[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func stringList(claims jwt.MapClaims, keys ...string) []string {
	for _, key := range keys {
		switch raw := claims[key].(type) {
		case []any:
			out := make([]string, 0, len(raw))
			for _, item := range raw {
				if s, ok := item.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case string:
			return strings.Fields(raw)
		}
	}
	return []string{}
}
