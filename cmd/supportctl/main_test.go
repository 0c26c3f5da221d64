package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T, apiURL string) {
	t.Helper()
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("AUTH_ENABLED", "false")
	t.Setenv("TELEGRAM_API_URL", apiURL)
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_SECRET_TOKEN", "s3cret")
	t.Setenv("PUBLIC_DOMAIN", "support.example.com")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--env-file", ""))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestWebhookSet(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bot123:abc/setWebhook", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
	}))
	defer srv.Close()
	setBaseEnv(t, srv.URL)

	out, err := execute(t, "webhook", "set")
	require.NoError(t, err)
	assert.Contains(t, out, "https://support.example.com/channel/webhook")
	assert.Equal(t, "https://support.example.com/channel/webhook", body["url"])
	assert.Equal(t, "s3cret", body["secret_token"])
}

func TestWebhookSetRequiresSecret(t *testing.T) {
	setBaseEnv(t, "http://127.0.0.1:1")
	t.Setenv("TELEGRAM_SECRET_TOKEN", "")

	_, err := execute(t, "webhook", "set")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_SECRET_TOKEN")
}

func TestWebhookInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bot123:abc/getWebhookInfo", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"url":"https://support.example.com/channel/webhook","pending_update_count":2}}`))
	}))
	defer srv.Close()
	setBaseEnv(t, srv.URL)

	out, err := execute(t, "webhook", "info")
	require.NoError(t, err)
	assert.Contains(t, out, `"pending_update_count": 2`)
}

func TestStoreInitMemoryBackend(t *testing.T) {
	setBaseEnv(t, "http://127.0.0.1:1")

	_, err := execute(t, "store", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no schema")
}
