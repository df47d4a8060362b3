package server_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/Gh0stWires/T-800-server/core"
	"github.com/Gh0stWires/T-800-server/engine"
	"github.com/Gh0stWires/T-800-server/memory"
	"github.com/Gh0stWires/T-800-server/memory/embedder/mock"
	"github.com/Gh0stWires/T-800-server/memory/store/inmem"
	"github.com/Gh0stWires/T-800-server/model"
	"github.com/Gh0stWires/T-800-server/server"
)

func newTestServer(t *testing.T) (*server.Server, *model.MockModel, *inmem.Store) {
	t.Helper()
	store := inmem.New()
	mdl := model.NewMockModel()
	mgr := memory.NewManager(store, mock.New(64), mdl, nil)
	return server.New(engine.New(mgr, mdl)), mdl, store
}

func decodeEvents(t *testing.T, body []byte) []core.StreamEvent {
	t.Helper()
	var events []core.StreamEvent
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var ev core.StreamEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			t.Fatalf("bad NDJSON line %q: %v", line, err)
		}
		events = append(events, ev)
	}
	return events
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestChatStreamsNDJSON(t *testing.T) {
	srv, mdl, store := newTestServer(t)
	mdl.SetDeltas("<think>plan</think>", "hey there")

	body := `{"userId":"user1","message":"hello"}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/x-ndjson" {
		t.Errorf("Content-Type = %q", ct)
	}

	events := decodeEvents(t, rec.Body.Bytes())
	if len(events) != 2 {
		t.Fatalf("expected thinking + response events, got %+v", events)
	}
	if events[0].Type != core.EventThinking || events[0].Content != "plan" {
		t.Errorf("first event = %+v", events[0])
	}
	if events[1].Type != core.EventResponse || events[1].Content != "hey there" {
		t.Errorf("second event = %+v", events[1])
	}

	turns, _ := store.ListByUser(req.Context(), "user1")
	if len(turns) != 2 {
		t.Errorf("expected question + reply persisted, got %d turns", len(turns))
	}
}

func TestChatDefaultsUserID(t *testing.T) {
	srv, mdl, store := newTestServer(t)
	mdl.SetDeltas("<think>x</think>ok")

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"hi"}`))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	turns, _ := store.ListByUser(req.Context(), server.DefaultUserID)
	if len(turns) == 0 {
		t.Error("anonymous requests should land under the default user")
	}
}

func TestChatEmptyMessage(t *testing.T) {
	srv, mdl, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"   "}`))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if mdl.Calls != 0 {
		t.Errorf("model must not be invoked, got %d calls", mdl.Calls)
	}
}

func TestChatInvalidBody(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestChatModelFailureBeforeStream(t *testing.T) {
	srv, mdl, _ := newTestServer(t)
	mdl.FailWith(core.ErrModelUnavailable)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"hi"}`))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestChatWebSocket(t *testing.T) {
	srv, mdl, _ := newTestServer(t)
	mdl.SetDeltas("<think>plan</think>", "over the wire")

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/chat/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"userId": "user1", "message": "hi"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var events []core.StreamEvent
	for {
		var ev core.StreamEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				break
			}
			t.Fatalf("read: %v", err)
		}
		events = append(events, ev)
	}

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %+v", events)
	}
	if events[0].Type != core.EventThinking || events[1].Content != "over the wire" {
		t.Errorf("events = %+v", events)
	}
}
