package web_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shipfast/livesync/feed"
	"github.com/shipfast/livesync/gateway"
	"github.com/shipfast/livesync/internal/session"
	"github.com/shipfast/livesync/store"
	"github.com/shipfast/livesync/todo"
	"github.com/shipfast/livesync/web"
)

type testServer struct {
	server   *httptest.Server
	sessions *session.Manager
	hub      *feed.Hub
}

func newTestServer(t *testing.T, configure func(*web.Options)) *testServer {
	t.Helper()

	hub := feed.NewHub()
	st, err := store.Open(filepath.Join(t.TempDir(), "livesync.db"), store.Options{Publisher: hub})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	sessions, err := session.NewManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new session manager: %v", err)
	}

	opts := web.Options{
		Gateway:  gateway.New(st, gateway.Options{}),
		Store:    st,
		Hub:      hub,
		Sessions: sessions,
	}
	if configure != nil {
		configure(&opts)
	}

	server := httptest.NewServer(web.NewHandler(opts))
	t.Cleanup(server.Close)
	t.Cleanup(hub.Close)

	return &testServer{server: server, sessions: sessions, hub: hub}
}

func (ts *testServer) token(t *testing.T, principal todo.Principal) string {
	t.Helper()
	token, err := ts.sessions.Issue(principal)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func (ts *testServer) post(t *testing.T, token, path string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, ts.server.URL+path, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.server.Client().Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func decodeResult(t *testing.T, resp *http.Response) todo.Result {
	t.Helper()
	defer resp.Body.Close()
	var result todo.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	return result
}

var alice = todo.Principal{ID: "11111111-1111-1111-1111-111111111111", Email: "alice@example.com"}
var bob = todo.Principal{ID: "22222222-2222-2222-2222-222222222222", Email: "bob@example.com"}

func TestRPCRequiresAuth(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.post(t, "", "/rpc/todos/list", map[string]string{})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	result := decodeResult(t, resp)
	if result.OK || result.Err != todo.ErrorUnauthorized {
		t.Errorf("expected unauthorized envelope, got %+v", result)
	}
}

func TestRPCRejectsInvalidToken(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.post(t, "not-a-token", "/rpc/todos/list", map[string]string{})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestCreateAndList(t *testing.T) {
	ts := newTestServer(t, nil)
	token := ts.token(t, alice)

	resp := ts.post(t, token, "/rpc/todos/create", map[string]any{"title": "buy milk"})
	result := decodeResult(t, resp)
	if !result.OK {
		t.Fatalf("create failed: %+v", result)
	}
	if result.Todo == nil || result.Todo.ID <= 0 {
		t.Fatalf("expected created todo with assigned id, got %+v", result.Todo)
	}
	if result.Todo.Priority != todo.PriorityMedium {
		t.Errorf("priority = %q, want medium", result.Todo.Priority)
	}

	resp = ts.post(t, token, "/rpc/todos/list", map[string]string{})
	defer resp.Body.Close()
	var list struct {
		Success bool        `json:"success"`
		Todos   []todo.Todo `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if !list.Success || len(list.Todos) != 1 {
		t.Fatalf("expected one todo, got %+v", list)
	}
	if list.Todos[0].Title != "buy milk" {
		t.Errorf("title = %q", list.Todos[0].Title)
	}
}

func TestListFilterModes(t *testing.T) {
	ts := newTestServer(t, nil)
	token := ts.token(t, alice)

	created := decodeResult(t, ts.post(t, token, "/rpc/todos/create", map[string]any{"title": "done item"}))
	if !created.OK {
		t.Fatalf("create failed: %+v", created)
	}
	decodeResult(t, ts.post(t, token, "/rpc/todos/toggle", map[string]any{"id": created.Todo.ID}))
	second := decodeResult(t, ts.post(t, token, "/rpc/todos/create", map[string]any{"title": "open item"}))
	if !second.OK {
		t.Fatalf("create failed: %+v", second)
	}

	listTitles := func(filter string) []string {
		resp := ts.post(t, token, "/rpc/todos/list", map[string]string{"filter": filter})
		defer resp.Body.Close()
		var list struct {
			Todos []todo.Todo `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
			t.Fatalf("decode list: %v", err)
		}
		titles := make([]string, 0, len(list.Todos))
		for _, item := range list.Todos {
			titles = append(titles, item.Title)
		}
		return titles
	}

	if titles := listTitles("active"); len(titles) != 1 || titles[0] != "open item" {
		t.Errorf("active = %v", titles)
	}
	if titles := listTitles("completed"); len(titles) != 1 || titles[0] != "done item" {
		t.Errorf("completed = %v", titles)
	}
	if titles := listTitles("all"); len(titles) != 2 {
		t.Errorf("all = %v", titles)
	}

	resp := ts.post(t, token, "/rpc/todos/list", map[string]string{"filter": "bogus"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bogus filter status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestCreateValidation(t *testing.T) {
	ts := newTestServer(t, nil)
	token := ts.token(t, alice)

	cases := []struct {
		name    string
		payload map[string]any
	}{
		{name: "empty title", payload: map[string]any{"title": "   "}},
		{name: "title too long", payload: map[string]any{"title": strings.Repeat("a", 256)}},
		{name: "bad priority", payload: map[string]any{"title": "x", "options": map[string]any{"priority": "urgent"}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := ts.post(t, token, "/rpc/todos/create", tc.payload)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			result := decodeResult(t, resp)
			if result.OK || result.Err != todo.ErrorValidation {
				t.Errorf("expected validation envelope, got %+v", result)
			}
		})
	}
}

func TestCrossOwnerIsNotFound(t *testing.T) {
	ts := newTestServer(t, nil)
	aliceToken := ts.token(t, alice)
	bobToken := ts.token(t, bob)

	created := decodeResult(t, ts.post(t, aliceToken, "/rpc/todos/create", map[string]any{"title": "private"}))
	if !created.OK {
		t.Fatalf("create failed: %+v", created)
	}

	title := "stolen"
	resp := ts.post(t, bobToken, "/rpc/todos/update", map[string]any{
		"id":      created.Todo.ID,
		"options": todo.UpdateOptions{Title: &title},
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	result := decodeResult(t, resp)
	if result.Err != todo.ErrorNotFound {
		t.Errorf("expected not_found, got %+v", result)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	ts := newTestServer(t, nil)
	token := ts.token(t, alice)

	result := decodeResult(t, ts.post(t, token, "/rpc/todos/delete", map[string]any{"id": int64(9999)}))
	if !result.OK {
		t.Errorf("expected success deleting missing id, got %+v", result)
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := ts.server.Client().Get(ts.server.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestDevRoutesDisabledByDefault(t *testing.T) {
	ts := newTestServer(t, nil)
	token := ts.token(t, alice)

	resp := ts.post(t, token, "/dev/seed", map[string]string{})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestDevSeedAndReset(t *testing.T) {
	ts := newTestServer(t, func(opts *web.Options) {
		opts.DevRoutes = true
	})
	token := ts.token(t, alice)

	resp := ts.post(t, token, "/dev/seed", map[string]string{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("seed status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	count := func() int {
		resp := ts.post(t, token, "/rpc/todos/list", map[string]string{})
		defer resp.Body.Close()
		var list struct {
			Todos []todo.Todo `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
			t.Fatalf("decode list: %v", err)
		}
		return len(list.Todos)
	}

	if got := count(); got == 0 {
		t.Fatal("expected seeded todos")
	}

	resp = ts.post(t, token, "/dev/reset", map[string]string{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	if got := count(); got != 0 {
		t.Errorf("expected empty after reset, got %d", got)
	}
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, func(opts *web.Options) {
		opts.APILimit = 2
		opts.APIWindow = time.Minute
	})
	token := ts.token(t, alice)

	for i := 0; i < 2; i++ {
		resp := ts.post(t, token, "/rpc/todos/list", map[string]string{})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d status = %d", i, resp.StatusCode)
		}
		resp.Body.Close()
	}

	resp := ts.post(t, token, "/rpc/todos/list", map[string]string{})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}
	if resp.Header.Get("X-RateLimit-Limit") != "2" {
		t.Errorf("X-RateLimit-Limit = %q", resp.Header.Get("X-RateLimit-Limit"))
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestWebsocketStreamsOwnerEvents(t *testing.T) {
	ts := newTestServer(t, nil)
	aliceToken := ts.token(t, alice)
	bobToken := ts.token(t, bob)

	wsURL := "ws" + strings.TrimPrefix(ts.server.URL, "http") + "/ws/todos?token=" + aliceToken
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.Close()

	// An event for another owner must not reach this subscription.
	decodeResult(t, ts.post(t, bobToken, "/rpc/todos/create", map[string]any{"title": "bob's"}))
	created := decodeResult(t, ts.post(t, aliceToken, "/rpc/todos/create", map[string]any{"title": "watched"}))
	if !created.OK {
		t.Fatalf("create failed: %+v", created)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var event todo.ChangeEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if event.Op != todo.OpInserted {
		t.Errorf("op = %q, want inserted", event.Op)
	}
	if event.OwnerID != alice.ID {
		t.Errorf("owner = %q, want %q", event.OwnerID, alice.ID)
	}
	if event.Todo == nil || event.Todo.Title != "watched" {
		t.Errorf("unexpected event payload: %+v", event.Todo)
	}
}

func TestWebsocketRequiresAuth(t *testing.T) {
	ts := newTestServer(t, nil)

	wsURL := "ws" + strings.TrimPrefix(ts.server.URL, "http") + "/ws/todos"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("expected dial to fail without a token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 handshake response, got %+v", resp)
	}
}
