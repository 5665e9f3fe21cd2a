package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"ticallbot/internal/entities"
	"ticallbot/internal/interfaces"
	"ticallbot/internal/metrics"
	"ticallbot/internal/usecases"
)

type fakeDispatcher struct {
	events []entities.Event
}

func (d *fakeDispatcher) Handle(_ context.Context, ev entities.Event) {
	d.events = append(d.events, ev)
}

type memLogs struct {
	entries []entities.AuditEntry
}

func (s *memLogs) Append(_ context.Context, entry entities.AuditEntry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func (s *memLogs) List(_ context.Context, limit int) ([]entities.AuditEntry, error) {
	if limit > len(s.entries) {
		limit = len(s.entries)
	}
	return s.entries[:limit], nil
}

func (s *memLogs) CountByDirection(_ context.Context) (map[entities.Direction]int, error) {
	counts := make(map[entities.Direction]int)
	for _, e := range s.entries {
		counts[e.Direction]++
	}
	return counts, nil
}

type memUsers struct {
	users map[string]*entities.User
}

func (s *memUsers) Create(_ context.Context, user *entities.User) error {
	user.ID = len(s.users) + 1
	s.users[user.Username] = user
	return nil
}

func (s *memUsers) GetByUsername(_ context.Context, username string) (*entities.User, error) {
	return s.users[username], nil
}

func newTestRouter(t *testing.T, dispatcher interfaces.EventHandler, logs interfaces.LogStore, users interfaces.UserStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := NewHandler(dispatcher, usecases.NewDashboardUsecase(logs), "topsecret", logger, m)
	auth := usecases.NewAuthUsecase(users, "test-jwt-secret")

	r := gin.New()
	SetupRoutes(r, h, auth, NewMiddleware("test-jwt-secret"), registry)
	return r
}

func TestVerifyWebhook(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "valid token echoes challenge",
			query:      "hub.mode=subscribe&hub.verify_token=topsecret&hub.challenge=1158201444",
			wantStatus: http.StatusOK,
			wantBody:   "1158201444",
		},
		{
			name:       "wrong token rejected",
			query:      "hub.mode=subscribe&hub.verify_token=guess&hub.challenge=1158201444",
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"error":"Invalid token"}`,
		},
		{
			name:       "missing challenge rejected",
			query:      "hub.mode=subscribe&hub.verify_token=topsecret",
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"error":"Invalid token"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t, &fakeDispatcher{}, &memLogs{}, &memUsers{users: map[string]*entities.User{}})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/webhook?"+tt.query, nil)
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantBody, w.Body.String())
			} else {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func postWebhook(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestReceiveWebhookTextMessage(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	r := newTestRouter(t, dispatcher, &memLogs{}, &memUsers{users: map[string]*entities.User{}})

	body := `{"entry":[{"changes":[{"value":{"messages":[
		{"from":"5215550001111","type":"text","text":{"body":"hola"}}
	]}}]}]}`
	w := postWebhook(r, body)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"EVENT_RECEIVED"}`, w.Body.String())
	require.Len(t, dispatcher.events, 1)
	assert.Equal(t, entities.Event{
		SenderID: "5215550001111",
		Kind:     entities.EventFreeText,
		Payload:  "hola",
	}, dispatcher.events[0])
}

func TestReceiveWebhookButtonReply(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	r := newTestRouter(t, dispatcher, &memLogs{}, &memUsers{users: map[string]*entities.User{}})

	body := `{"entry":[{"changes":[{"value":{"messages":[
		{"from":"5215550001111","type":"interactive","interactive":{
			"type":"button_reply",
			"button_reply":{"id":"select_es","title":"Español"}
		}}
	]}}]}]}`
	w := postWebhook(r, body)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, dispatcher.events, 1)
	assert.Equal(t, entities.Event{
		SenderID: "5215550001111",
		Kind:     entities.EventButtonReply,
		Payload:  entities.ButtonSelectSpanish,
	}, dispatcher.events[0])
}

func TestReceiveWebhookOnlyFirstMessage(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	r := newTestRouter(t, dispatcher, &memLogs{}, &memUsers{users: map[string]*entities.User{}})

	body := `{"entry":[{"changes":[{"value":{"messages":[
		{"from":"111","type":"text","text":{"body":"first"}},
		{"from":"222","type":"text","text":{"body":"second"}}
	]}}]}]}`
	w := postWebhook(r, body)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, dispatcher.events, 1)
	assert.Equal(t, "first", dispatcher.events[0].Payload)
}

func TestReceiveWebhookAcknowledgesEverything(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"garbage json", `{"entry": [nope`},
		{"empty object", `{}`},
		{"no messages in change", `{"entry":[{"changes":[{"value":{}}]}]}`},
		{"unsupported message type", `{"entry":[{"changes":[{"value":{"messages":[{"from":"111","type":"audio"}]}}]}]}`},
		{"text without body", `{"entry":[{"changes":[{"value":{"messages":[{"from":"111","type":"text"}]}}]}]}`},
		{"interactive without button_reply", `{"entry":[{"changes":[{"value":{"messages":[{"from":"111","type":"interactive","interactive":{"type":"list_reply"}}]}}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dispatcher := &fakeDispatcher{}
			r := newTestRouter(t, dispatcher, &memLogs{}, &memUsers{users: map[string]*entities.User{}})

			w := postWebhook(r, tt.body)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"message":"EVENT_RECEIVED"}`, w.Body.String())
			assert.Empty(t, dispatcher.events)
		})
	}
}

func TestReceiveWebhookSanitizesPayload(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	r := newTestRouter(t, dispatcher, &memLogs{}, &memUsers{users: map[string]*entities.User{}})

	body := `{"entry":[{"changes":[{"value":{"messages":[
		{"from":"111","type":"text","text":{"body":"hola\u0000\u0007 mundo"}}
	]}}]}]}`
	w := postWebhook(r, body)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, dispatcher.events, 1)
	assert.Equal(t, "hola mundo", dispatcher.events[0].Payload)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	r := newTestRouter(t, &fakeDispatcher{}, &memLogs{}, &memUsers{users: map[string]*entities.User{}})

	for _, path := range []string{"/api/logs", "/api/dashboard/stats"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestLoginAndFetchLogs(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	users := &memUsers{users: map[string]*entities.User{
		"admin": {ID: 1, Username: "admin", PasswordHash: string(hashed), Role: "admin"},
	}}
	logs := &memLogs{entries: []entities.AuditEntry{{
		ID:        "e6b1c5a0-0000-0000-0000-000000000001",
		Timestamp: time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC),
		SenderID:  "5215550001111",
		Channel:   entities.ChannelWhatsApp,
		Message:   "hola",
		Direction: entities.DirectionReceived,
		Campaign:  entities.CampaignInbound,
		Agent:     entities.AgentBot,
	}}}
	r := newTestRouter(t, &fakeDispatcher{}, logs, users)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"username":"admin","password":"hunter2"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var loginResp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loginResp))
	require.NotEmpty(t, loginResp.Token)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/logs", nil)
	req.Header.Set("Authorization", "Bearer "+loginResp.Token)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var logsResp struct {
		Logs []logView `json:"logs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &logsResp))
	require.Len(t, logsResp.Logs, 1)
	assert.Equal(t, "5215550001111", logsResp.Logs[0].SenderID)
	assert.Equal(t, "recibido", logsResp.Logs[0].Direction)
	assert.Equal(t, "2025-03-14T09:30:00Z", logsResp.Logs[0].Timestamp)
}

func TestRateLimitRejectsNonNumericUserID(t *testing.T) {
	r := newTestRouter(t, &fakeDispatcher{}, &memLogs{}, &memUsers{users: map[string]*entities.User{}})

	// Signed with the right secret, but user_id is a string instead of a number.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "not-a-number",
		"role":    "admin",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-jwt-secret"))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/logs", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	users := &memUsers{users: map[string]*entities.User{
		"admin": {ID: 1, Username: "admin", PasswordHash: string(hashed), Role: "admin"},
	}}
	r := newTestRouter(t, &fakeDispatcher{}, &memLogs{}, users)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"username":"admin","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Invalid credentials"}`, w.Body.String())
}
