package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"oscbot/config"
	"oscbot/manager"
)

func newTestServer(t *testing.T, passwordHash string) *Server {
	t.Helper()
	mgr, err := manager.New(&config.Config{}, nil, nil, nil, nil)
	require.NoError(t, err)
	return NewServer(mgr, nil, nil, NewHub(), 0, "test-secret", passwordHash)
}

func doRequest(s *Server, method, path, body, token string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestLoginDisabledWithoutHash(t *testing.T) {
	s := newTestServer(t, "")
	w := doRequest(s, http.MethodPost, "/api/login", `{"password":"x"}`, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.MinCost)
	require.NoError(t, err)

	s := newTestServer(t, string(hash))
	w := doRequest(s, http.MethodPost, "/api/login", `{"password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginAndProtectedEndpoint(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.MinCost)
	require.NoError(t, err)
	s := newTestServer(t, string(hash))

	// Control endpoints reject anonymous callers
	w := doRequest(s, http.MethodPost, "/api/bot/start", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(s, http.MethodPost, "/api/login", `{"password":"correct"}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	w = doRequest(s, http.MethodPost, "/api/bot/start", "", resp.Token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateThresholdsEndpoint(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.MinCost)
	require.NoError(t, err)
	s := newTestServer(t, string(hash))

	w := doRequest(s, http.MethodPost, "/api/bot/thresholds", `{"buy_threshold":2,"sell_threshold":2}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(s, http.MethodPost, "/api/login", `{"password":"correct"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	w = doRequest(s, http.MethodPost, "/api/bot/thresholds", `{"buy_threshold":2,"sell_threshold":2}`, resp.Token)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(s, http.MethodPost, "/api/bot/thresholds", `{"buy_threshold":2}`, resp.Token)
	assert.Equal(t, http.StatusBadRequest, w.Code, "both thresholds required")

	w = doRequest(s, http.MethodPost, "/api/bot/thresholds",
		`{"symbol":"DOGE/USDT","buy_threshold":2,"sell_threshold":2}`, resp.Token)
	assert.Equal(t, http.StatusBadRequest, w.Code, "unknown symbol")
}

func TestProtectedEndpointRejectsGarbageToken(t *testing.T) {
	s := newTestServer(t, "")
	w := doRequest(s, http.MethodPost, "/api/bot/stop", "", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, "")
	w := doRequest(s, http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatsUnavailableWithoutStore(t *testing.T) {
	s := newTestServer(t, "")
	w := doRequest(s, http.MethodGet, "/api/stats", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
