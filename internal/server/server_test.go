package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wardenbot/warden/internal/db"
	"github.com/wardenbot/warden/internal/server/auth"
)

func newTestServer(t *testing.T, authCfg auth.Config) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	config := &Config{Auth: authCfg}
	require.NoError(t, config.Validate())

	// A single connection so the in-memory database is shared across queries.
	sqlite, err := db.NewSqliteDB(db.WithMaxOpenConns(1), db.WithMaxIdleConns(1))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	services, err := NewServices(config, sqlite)
	require.NoError(t, err)

	ts := httptest.NewServer(SetupRoutes(config, services))
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, data
}

func TestServer_Health(t *testing.T) {
	ts := newTestServer(t, auth.Config{})

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"ok"`)
}

func TestServer_RuleLifecycle(t *testing.T) {
	ts := newTestServer(t, auth.Config{})
	base := ts.URL + "/api/v1/guilds/g1"

	// Create.
	resp, body := doJSON(t, http.MethodPost, base+"/acl/rules", map[string]any{
		"name":     "mods-ban",
		"roles":    []string{"mod"},
		"commands": []string{"ban"},
		"modifier": "all",
		"action":   "enabled",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var created struct {
		ID          string `json:"id"`
		Specificity string `json:"specificity"`
	}
	require.NoError(t, json.Unmarshal(body, &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "(0,1,0,1)", created.Specificity)

	// Duplicate name is rejected.
	resp, body = doJSON(t, http.MethodPost, base+"/acl/rules", map[string]any{
		"name":     "mods-ban",
		"modifier": "any",
		"action":   "disabled",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))

	// List.
	resp, body = doJSON(t, http.MethodGet, base+"/acl/rules", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed struct {
		Rules []struct {
			Name string `json:"name"`
		} `json:"rules"`
	}
	require.NoError(t, json.Unmarshal(body, &listed))
	require.Len(t, listed.Rules, 1)
	assert.Equal(t, "mods-ban", listed.Rules[0].Name)

	// Update.
	resp, body = doJSON(t, http.MethodPut, base+"/acl/rules/"+created.ID, map[string]any{
		"name":     "mods-ban",
		"roles":    []string{"mod"},
		"commands": []string{"ban"},
		"modifier": "all",
		"action":   "disabled",
		"error":    "bans are paused",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	// Check reflects the update.
	resp, body = doJSON(t, http.MethodPost, base+"/acl/check", map[string]any{
		"command": "ban",
		"channel": "c1",
		"roles":   []string{"mod"},
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var check struct {
		Allowed bool   `json:"allowed"`
		Default bool   `json:"default"`
		Denial  string `json:"denial"`
	}
	require.NoError(t, json.Unmarshal(body, &check))
	assert.False(t, check.Allowed)
	assert.Equal(t, "bans are paused", check.Denial)

	// A subject without the role falls through to default allow.
	resp, body = doJSON(t, http.MethodPost, base+"/acl/check", map[string]any{
		"command": "ban",
		"channel": "c1",
		"roles":   []string{"member"},
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &check))
	assert.True(t, check.Allowed)
	assert.True(t, check.Default)

	// Delete.
	resp, _ = doJSON(t, http.MethodDelete, base+"/acl/rules/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, base+"/acl/rules/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_CanEndpoint(t *testing.T) {
	ts := newTestServer(t, auth.Config{})
	base := ts.URL + "/api/v1/guilds/g1"

	resp, body := doJSON(t, http.MethodPost, base+"/acl/rules", map[string]any{
		"name":     "no-mutes",
		"roles":    []string{"muted"},
		"modifier": "any",
		"action":   "disabled",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &created))

	query := map[string]any{
		"command": "ban",
		"channel": "c1",
		"roles":   []string{"muted"},
	}

	var decision struct {
		Allowed bool `json:"allowed"`
	}

	// The decision comes back bare, no explanation payload.
	resp, body = doJSON(t, http.MethodPost, base+"/acl/can", query, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &decision))
	assert.False(t, decision.Allowed)
	assert.NotContains(t, string(body), "matched")

	// Repeat query hits the cache and agrees.
	resp, body = doJSON(t, http.MethodPost, base+"/acl/can", query, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &decision))
	assert.False(t, decision.Allowed)

	// Deleting the rule invalidates the cached decision.
	resp, _ = doJSON(t, http.MethodDelete, base+"/acl/rules/"+created.ID, nil, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = doJSON(t, http.MethodPost, base+"/acl/can", query, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &decision))
	assert.True(t, decision.Allowed)

	// Malformed query is rejected.
	resp, _ = doJSON(t, http.MethodPost, base+"/acl/can", map[string]any{
		"channel": "c1",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_RuleImportExport(t *testing.T) {
	ts := newTestServer(t, auth.Config{})
	base := ts.URL + "/api/v1/guilds/g1"

	ruleset := `
rules:
  - name: mods-ban
    modifier: all
    action: enabled
    roles: [mod]
  - name: quiet-channel
    modifier: any
    action: disabled
    channels: [c1]
`
	req, err := http.NewRequest(http.MethodPost, base+"/acl/import", strings.NewReader(ruleset))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), `"rules":2`)

	resp, body = doJSON(t, http.MethodGet, base+"/acl/export", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "acl_g1.yaml")
	assert.Contains(t, string(body), "mods-ban")
	assert.Contains(t, string(body), "quiet-channel")
}

func TestServer_Settings(t *testing.T) {
	ts := newTestServer(t, auth.Config{})
	base := ts.URL + "/api/v1/guilds/g1"

	// Defaults before any update.
	resp, body := doJSON(t, http.MethodGet, base+"/settings", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"prefix":"!"`)

	resp, body = doJSON(t, http.MethodPut, base+"/settings", map[string]any{
		"prefix":     "?",
		"extensions": []string{"acl", "moderation"},
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = doJSON(t, http.MethodGet, base+"/settings", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"prefix":"?"`)

	// Unknown extension is rejected.
	resp, _ = doJSON(t, http.MethodPut, base+"/settings", map[string]any{
		"prefix":     "?",
		"extensions": []string{"crypto"},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	t.Run("timezones", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPut, base+"/settings/timezones/r-eu", map[string]any{
			"zone": "Europe/Berlin",
		}, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, body := doJSON(t, http.MethodGet, base+"/settings/timezones", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), "Europe/Berlin")

		resp, _ = doJSON(t, http.MethodDelete, base+"/settings/timezones/r-eu", nil, nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp, _ = doJSON(t, http.MethodDelete, base+"/settings/timezones/r-eu", nil, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestServer_AuthFlow(t *testing.T) {
	authCfg := auth.Config{
		Enabled:            true,
		AdminKey:           "letmein",
		TokenIssuer:        "warden-test",
		AccessTokenSecret:  "access-secret",
		AccessTokenExpiry:  time.Minute,
		RefreshTokenSecret: "refresh-secret",
		RefreshTokenExpiry: time.Hour,
	}
	ts := newTestServer(t, authCfg)

	// Requests without a token are rejected.
	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/v1/guilds/g1/acl/rules", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Wrong admin key.
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/auth/token", map[string]any{
		"admin_key": "guess",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Exchange the admin key for a pair.
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/auth/token", map[string]any{
		"admin_key": "letmein",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(body, &tokens))
	require.NotEmpty(t, tokens.AccessToken)

	bearer := map[string]string{"Authorization": fmt.Sprintf("Bearer %s", tokens.AccessToken)}
	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/v1/guilds/g1/acl/rules", nil, bearer)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Refresh is single-use.
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/auth/refresh", map[string]any{
		"refresh_token": tokens.RefreshToken,
	}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/auth/refresh", map[string]any{
		"refresh_token": tokens.RefreshToken,
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestConfigValidate(t *testing.T) {
	t.Run("fills defaults", func(t *testing.T) {
		cfg := &Config{}
		require.NoError(t, cfg.Validate())
		assert.Equal(t, DefaultAddr, cfg.HTTP.Addr)
		assert.Equal(t, DefaultDBPath, cfg.Database.Path)
		assert.Equal(t, DefaultCheckRateLimit, cfg.HTTP.CheckRateLimit)
	})

	t.Run("cert and key must come together", func(t *testing.T) {
		cfg := &Config{}
		cfg.HTTP.CertFile = "cert.pem"
		assert.Error(t, cfg.Validate())

		cfg.HTTP.KeyFile = "key.pem"
		assert.NoError(t, cfg.Validate())
	})
}
