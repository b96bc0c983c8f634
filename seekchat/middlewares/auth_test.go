package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"seekchat/seekchat/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protected(cfg config.Config) http.Handler {
	return AuthMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client, _ := r.Context().Value(ClientKey).(string)
		w.Write([]byte(client))
	}))
}

func TestAuthMiddleware_OpenWithoutSecret(t *testing.T) {
	rr := httptest.NewRecorder()
	protected(config.Config{}).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAuthMiddleware_AcceptsValidToken(t *testing.T) {
	cfg := config.Config{BridgeSecret: "s3cret"}
	token, err := IssueToken(cfg.BridgeSecret, "desktop", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	protected(cfg).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "desktop", rr.Body.String())
}

func TestAuthMiddleware_AcceptsQueryToken(t *testing.T) {
	cfg := config.Config{BridgeSecret: "s3cret"}
	token, err := IssueToken(cfg.BridgeSecret, "ws-client", time.Hour)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	protected(cfg).ServeHTTP(rr, httptest.NewRequest("GET", "/ws?token="+token, nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	cfg := config.Config{BridgeSecret: "s3cret"}
	wrongKey, _ := IssueToken("other", "desktop", time.Hour)
	expired, _ := IssueToken(cfg.BridgeSecret, "desktop", -time.Minute)

	for name, header := range map[string]string{
		"missing":   "",
		"malformed": "Token abc",
		"wrong key": "Bearer " + wrongKey,
		"expired":   "Bearer " + expired,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rr := httptest.NewRecorder()
			protected(cfg).ServeHTTP(rr, req)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}
}

func TestIssueTokenNeedsSecret(t *testing.T) {
	_, err := IssueToken("", "x", time.Hour)
	assert.Error(t, err)
}
