package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapline-games/miniapp-notify/internal/handlers"
	"github.com/tapline-games/miniapp-notify/internal/initdata"
	"github.com/tapline-games/miniapp-notify/internal/models"
	"github.com/tapline-games/miniapp-notify/internal/server"
	"github.com/tapline-games/miniapp-notify/internal/service"
)

// recordingRelay counts sends and always reports success.
type recordingRelay struct {
	chatIDs []string
}

func (r *recordingRelay) Send(_ context.Context, chatID, _ string) models.RelayAttempt {
	r.chatIDs = append(r.chatIDs, chatID)
	return models.RelayAttempt{
		Attempted: true,
		Succeeded: true,
		Response:  json.RawMessage(`{"ok":true,"result":{"message_id":1}}`),
	}
}

func newTestRouter(botToken, adminChatID string) (http.Handler, *recordingRelay) {
	relay := &recordingRelay{}
	verifier := initdata.NewVerifier(botToken, 0)
	svc := service.NewNotifyService(relay, verifier, botToken, adminChatID, nil)
	return server.NewRouter(handlers.NewNotifyHandler(svc, nil)), relay
}

func postNotify(t *testing.T, router http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(http.MethodPost, "/api/telegram", &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestNotify_EmptyText(t *testing.T) {
	router, relay := newTestRouter("123:abc", "-100500")

	tests := []struct {
		name string
		body any
	}{
		{name: "missing text", body: models.NotifyRequest{}},
		{name: "whitespace text", body: models.NotifyRequest{Text: "  "}},
		{name: "malformed JSON body", body: "{not json"},
		{name: "empty body", body: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postNotify(t, router, tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

			var resp models.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.OK)
			assert.Equal(t, "text_required", resp.Error)
			assert.Empty(t, relay.chatIDs, "no relay attempt on validation failure")
		})
	}
}

func TestNotify_ConfigMissing(t *testing.T) {
	router, relay := newTestRouter("", "")

	w := postNotify(t, router, models.NotifyRequest{Text: "hello"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "env_missing", resp.Error)
	assert.Empty(t, relay.chatIDs)
}

func TestNotify_OperatorOnly(t *testing.T) {
	router, relay := newTestRouter("123:abc", "-100500")

	w := postNotify(t, router, models.NotifyRequest{Text: "three in a row"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	var resp models.NotifyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.True(t, resp.AdminOK)
	assert.False(t, resp.UserSent)
	assert.Nil(t, resp.UserID)
	require.NotNil(t, resp.VerifyReason)
	assert.Equal(t, "initData_empty", *resp.VerifyReason)

	assert.Equal(t, []string{"-100500"}, relay.chatIDs)
}

func TestNotify_VerifiedUser(t *testing.T) {
	const token = "123:abc"
	router, relay := newTestRouter(token, "-100500")

	fields := initdata.Fields{"auth_date": "1700000000", "user": `{"id":42}`}
	hash := initdata.Sign(initdata.DataCheckString(fields), initdata.SecretKey(token))
	launchData := "user=%7B%22id%22%3A42%7D&auth_date=1700000000&hash=" + hash

	w := postNotify(t, router, models.NotifyRequest{Text: "you win", InitData: launchData})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.NotifyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.True(t, resp.UserSent)
	require.NotNil(t, resp.UserID)
	assert.Equal(t, int64(42), *resp.UserID)
	assert.Nil(t, resp.VerifyReason)

	assert.Equal(t, []string{"-100500", "42"}, relay.chatIDs)
}

func TestNotify_TamperedSignature(t *testing.T) {
	const token = "123:abc"
	router, relay := newTestRouter(token, "-100500")

	fields := initdata.Fields{"auth_date": "1700000000", "user": `{"id":42}`}
	hash := initdata.Sign(initdata.DataCheckString(fields), initdata.SecretKey(token))
	flipped := "f"
	if hash[len(hash)-1] == 'f' {
		flipped = "0"
	}
	launchData := "user=%7B%22id%22%3A42%7D&auth_date=1700000000&hash=" + hash[:len(hash)-1] + flipped

	w := postNotify(t, router, models.NotifyRequest{Text: "you win", InitData: launchData})

	assert.Equal(t, http.StatusOK, w.Code, "verification failure does not change the status")

	var resp models.NotifyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.AdminOK, "operator relay is independent of verification")
	assert.False(t, resp.UserSent)
	require.NotNil(t, resp.VerifyReason)
	assert.Equal(t, "signature_mismatch", *resp.VerifyReason)

	assert.Equal(t, []string{"-100500"}, relay.chatIDs)
}

func TestNotify_MethodNotAllowed(t *testing.T) {
	router, relay := newTestRouter("123:abc", "-100500")

	req := httptest.NewRequest(http.MethodGet, "/api/telegram", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Empty(t, relay.chatIDs)
}

func TestHealthEndpoints(t *testing.T) {
	router, _ := newTestRouter("123:abc", "-100500")

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestNotify_RequestIDHeader(t *testing.T) {
	router, _ := newTestRouter("123:abc", "-100500")

	w := postNotify(t, router, models.NotifyRequest{Text: "hello"})

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
