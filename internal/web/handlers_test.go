package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zengo/internal/config"
	"zengo/internal/cooldown"
	"zengo/internal/game"
	"zengo/internal/storage"
)

type testServer struct {
	srv   *httptest.Server
	hub   *EventHub
	store *storage.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := storage.Open(sqlite.Open(":memory:"), config.MySQLConfig{MaxOpenConns: 1, MaxIdleConns: 1}, "silent")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewEventHub()
	go hub.Run(ctx)

	svc := game.NewService(store, cooldown.New(time.Hour), hub)
	srv := httptest.NewServer(NewRouter(svc, hub, store.Ping))
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, hub: hub, store: store}
}

func (s *testServer) do(t *testing.T, method, path, userID, body string) (*http.Response, map[string]interface{}) {
	t.Helper()

	req, err := http.NewRequest(method, s.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if userID != "" {
		req.Header.Set(headerUserID, userID)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 0, body["ws_clients"])
	assert.EqualValues(t, 0, body["dropped_events"])

	resp, _ = s.do(t, http.MethodPost, "/api/v1/channels/10/attack", "1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = s.do(t, http.MethodPost, "/api/v1/channels/10/attack", "1", "")
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	_, body = s.do(t, http.MethodGet, "/health", "", "")
	require.Contains(t, body, "cooldown")
	stats := body["cooldown"].(map[string]interface{})
	assert.EqualValues(t, 1, stats["admitted"])
	assert.EqualValues(t, 1, stats["rejected"])
	assert.EqualValues(t, 1, stats["tracked"])
}

func TestHealthCheckReportsFailure(t *testing.T) {
	srv := httptest.NewServer(NewRouter(nil, nil, func(context.Context) error {
		return errors.New("db down")
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestAttackThenCooldown(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, http.MethodPost, "/api/v1/channels/10/attack", "1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["damage"])

	resp, body = s.do(t, http.MethodPost, "/api/v1/channels/10/attack", "1", "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, game.ErrCoolingDown.Error(), body["error"])
}

func TestBadIdentifiers(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		userID string
	}{
		{"missing user", http.MethodPost, "/api/v1/channels/10/attack", ""},
		{"zero user", http.MethodPost, "/api/v1/channels/10/attack", "0"},
		{"bad channel", http.MethodPost, "/api/v1/channels/abc/attack", "1"},
		{"bad item", http.MethodPost, "/api/v1/channels/10/items/x/use", "1"},
		{"bad player", http.MethodGet, "/api/v1/players/-1", ""},
		{"bad page", http.MethodGet, "/api/v1/rankings/players?page=x", "1"},
		{"negative page", http.MethodGet, "/api/v1/rankings/channels?page=-1", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := s.do(t, tt.method, tt.path, tt.userID, "")
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestProfileAndInventory(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.do(t, http.MethodGet, "/api/v1/players/7", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := s.do(t, http.MethodPost, "/api/v1/players/7/items", "", `{"item_id": 3, "quantity": 2}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "7_3", body["id"])

	resp, _ = s.do(t, http.MethodPost, "/api/v1/players/7/items", "", `{"item_id": 3, "quantity": 0}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = s.do(t, http.MethodPost, "/api/v1/players/7/weapons", "", `{"kind": 1, "value": 4, "equip": true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotZero(t, body["index"])

	resp, _ = s.do(t, http.MethodPost, "/api/v1/players/7/armors", "", `{"kind": 2, "value": 1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = s.do(t, http.MethodPost, "/api/v1/channels/5/items/3/use", "7", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 5, body["damage"])

	resp, body = s.do(t, http.MethodGet, "/api/v1/players/7", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["items"], 1)
	assert.Len(t, body["weapons"], 1)
	assert.Len(t, body["armors"], 1)
	assert.NotNil(t, body["battle"])
}

func TestUseItemNotOwned(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.do(t, http.MethodPost, "/api/v1/channels/5/items/9/use", "8", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestInquiryAndReset(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.do(t, http.MethodGet, "/api/v1/channels/10", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPost, "/api/v1/channels/10/attack", "1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := s.do(t, http.MethodGet, "/api/v1/channels/10", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["battles"], 1)

	resp, body = s.do(t, http.MethodPost, "/api/v1/channels/10/reset", "1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["cleared"])

	_, body = s.do(t, http.MethodGet, "/api/v1/channels/10", "", "")
	assert.Empty(t, body["battles"])
}

func TestRankings(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.do(t, http.MethodPost, "/api/v1/channels/10/attack", "1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := s.do(t, http.MethodGet, "/api/v1/rankings/players?page=0", "2", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["players"], 1)

	resp, body = s.do(t, http.MethodGet, "/api/v1/rankings/channels", "3", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["channels"], 1)
	resp, body = s.do(t, http.MethodGet, "/api/v1/rankings/players?page=922337203685477581", "4", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["players"])
}

func TestEventStream(t *testing.T) {
	s := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/api/v1/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return s.hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	resp, _ := s.do(t, http.MethodPost, "/api/v1/channels/10/attack", "1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var types []string
	for len(types) < 2 {
		var msg map[string]interface{}
		require.NoError(t, conn.ReadJSON(&msg))
		types = append(types, msg["type"].(string))
	}
	assert.Equal(t, []string{"connected", game.EventAttack}, types)
}
