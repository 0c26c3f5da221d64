package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTH_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "support-api", cfg.ServiceName)
	assert.Equal(t, StoreBackendDynamo, cfg.StoreBackend)
	assert.Equal(t, "gsi1", cfg.DynamoStatusIndex)
	assert.Equal(t, "gsi3", cfg.DynamoThreadIndex)
	assert.Equal(t, "Admin", cfg.AuthAdminGroup)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoadRequiresIssuerWhenAuthEnabled(t *testing.T) {
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("AUTH_ISSUER", "")
	t.Setenv("AUTH_JWKS_URL", "https://example.com/jwks.json")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_ISSUER")
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("AUTH_ENABLED", "false")
	t.Setenv("STORE_BACKEND", "cassandra")

	_, err := Load()
	require.Error(t, err)
}

func TestWebhookURL(t *testing.T) {
	cfg := &Config{PublicDomain: "support.example.com/", TelegramWebhookPath: "/channel/webhook"}
	assert.Equal(t, "https://support.example.com/channel/webhook", cfg.WebhookURL())

	cfg.PublicDomain = "http://localhost:8080"
	assert.Equal(t, "http://localhost:8080/channel/webhook", cfg.WebhookURL())

	cfg.PublicDomain = ""
	assert.Empty(t, cfg.WebhookURL())
}

func TestLoadPostgresSettings(t *testing.T) {
	t.Setenv("AUTH_ENABLED", "false")
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("DB_POSTGRESQL_WRITE_DSN", "postgres://support:pw@db:5432/support?sslmode=disable")
	t.Setenv("DB_MAX_OPEN_CONNS", "30")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreBackendPostgres, cfg.StoreBackend)
	assert.Equal(t, "postgres://support:pw@db:5432/support?sslmode=disable", cfg.DatabaseURL)
	assert.Equal(t, 30, cfg.DBMaxOpenConns)
}
