package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doubtit/support-api/internal/config"
)

const testIssuer = "https://cognito-idp.us-east-1.amazonaws.com/pool"

type keyPair struct {
	key  *rsa.PrivateKey
	jwks *keyfunc.JWKS
}

func newKeyPair(t *testing.T) keyPair {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	set := map[string]any{"keys": []map[string]string{{
		"kty": "RSA",
		"kid": "test-key",
		"alg": "RS256",
		"use": "sig",
		"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
	}}}
	raw, err := json.Marshal(set)
	require.NoError(t, err)

	jwks, err := keyfunc.NewJSON(raw)
	require.NoError(t, err)
	return keyPair{key: key, jwks: jwks}
}

func (k keyPair) sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = "test-key"
	signed, err := token.SignedString(k.key)
	require.NoError(t, err)
	return signed
}

func testConfig() *config.Config {
	return &config.Config{
		AuthEnabled:    true,
		AuthIssuer:     testIssuer,
		AuthAdminGroup: "Admin",
		AuthCookieName: "ACCESS_TOKEN",
	}
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":              "agent-42",
		"iss":              testIssuer,
		"exp":              time.Now().Add(time.Hour).Unix(),
		"cognito:username": "vatsal",
		"email":            "agent@example.com",
		"cognito:groups":   []string{"Agents", "Admin"},
	}
}

func TestVerify(t *testing.T) {
	keys := newKeyPair(t)
	v := NewStaticValidator(testConfig(), keys.jwks, zerolog.Nop())

	p, err := v.Verify(keys.sign(t, validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "agent-42", p.Subject)
	assert.Equal(t, "vatsal", p.Username)
	assert.Equal(t, "agent@example.com", p.Email)
	assert.Equal(t, []string{"Agents", "Admin"}, p.Groups)
	assert.True(t, p.IsAdmin)
}

func TestVerifyRejects(t *testing.T) {
	keys := newKeyPair(t)
	v := NewStaticValidator(testConfig(), keys.jwks, zerolog.Nop())

	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()
	_, err := v.Verify(keys.sign(t, expired))
	assert.Error(t, err)

	wrongIssuer := validClaims()
	wrongIssuer["iss"] = "https://evil.example.com"
	_, err = v.Verify(keys.sign(t, wrongIssuer))
	assert.Error(t, err)

	noSubject := validClaims()
	delete(noSubject, "sub")
	_, err = v.Verify(keys.sign(t, noSubject))
	assert.Error(t, err)

	other := newKeyPair(t)
	_, err = v.Verify(other.sign(t, validClaims()))
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	keys := newKeyPair(t)
	v := NewStaticValidator(testConfig(), keys.jwks, zerolog.Nop())

	engine := gin.New()
	engine.GET("/me", v.Middleware(), func(c *gin.Context) {
		p, _ := PrincipalFrom(c)
		c.JSON(http.StatusOK, p)
	})
	engine.GET("/admin", v.Middleware(), v.RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	t.Run("bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+keys.sign(t, validClaims()))
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"sub":"agent-42"`)
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: "ACCESS_TOKEN", Value: keys.sign(t, validClaims())})
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), `"type":"unauthorized"`)
	})

	t.Run("non admin", func(t *testing.T) {
		claims := validClaims()
		claims["cognito:groups"] = []string{"Agents"}
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+keys.sign(t, claims))
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+keys.sign(t, validClaims()))
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestDisabledMiddlewareUsesHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	cfg.AuthEnabled = false
	v := newValidator(cfg, zerolog.Nop())

	engine := gin.New()
	engine.GET("/me", v.Middleware(), func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		require.True(t, ok)
		c.String(http.StatusOK, p.Subject)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(DevAgentHeader, "agent-7")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, "agent-7", w.Body.String())
}
