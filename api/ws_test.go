package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"

	"boardsync/board"
)

func startWSServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	hub := NewHub(board.NewTaskStore(), board.NewRegistry(), logger)
	go hub.Run()
	t.Cleanup(hub.Stop)

	e := echo.New()
	Register(e, hub, logger)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// expect reads the next message and asserts its type; per-connection
// delivery is in-order so each step knows exactly what arrives next.
func expect(t *testing.T, conn *websocket.Conn, wantType string) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read (want %s): %v", wantType, err)
	}
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	if msg["type"] != wantType {
		t.Fatalf("message type = %v, want %s (payload %s)", msg["type"], wantType, data)
	}
	return msg
}

func usernames(t *testing.T, msg map[string]any) []string {
	t.Helper()
	raw, ok := msg["users"].([]any)
	if !ok {
		t.Fatalf("no users array in %v", msg)
	}
	out := make([]string, 0, len(raw))
	for _, u := range raw {
		out = append(out, u.(map[string]any)["username"].(string))
	}
	return out
}

func TestTwoClientScenario(t *testing.T) {
	_, wsURL := startWSServer(t)

	alice := dial(t, wsURL)
	send(t, alice, map[string]string{"type": "join", "username": "Alice"})

	initState := expect(t, alice, "init_state")
	if initState["username"] != "Alice" {
		t.Fatalf("username = %v", initState["username"])
	}
	if initState["yourId"] == "" {
		t.Fatal("no connection id assigned")
	}
	if got := usernames(t, initState); len(got) != 1 || got[0] != "Alice" {
		t.Fatalf("init users = %v", got)
	}
	if tasks := initState["tasks"].([]any); len(tasks) != 0 {
		t.Fatalf("expected empty board, got %v", tasks)
	}
	if msg := expect(t, alice, "activity"); msg["message"] != "Alice joined" {
		t.Fatalf("activity = %v", msg["message"])
	}

	bob := dial(t, wsURL)
	send(t, bob, map[string]string{"type": "join", "username": "Bob"})

	bobInit := expect(t, bob, "init_state")
	if got := usernames(t, bobInit); len(got) != 2 || got[0] != "Alice" || got[1] != "Bob" {
		t.Fatalf("bob init users = %v", got)
	}
	expect(t, bob, "activity")

	// Alice sees Bob arrive: a users_update (she is not the sender) then
	// the activity entry.
	update := expect(t, alice, "users_update")
	if got := usernames(t, update); len(got) != 2 {
		t.Fatalf("users after bob joined = %v", got)
	}
	if msg := expect(t, alice, "activity"); msg["message"] != "Bob joined" {
		t.Fatalf("activity = %v", msg["message"])
	}

	send(t, alice, map[string]string{"type": "add_task", "title": "Write spec", "status": "todo"})

	var taskID string
	for _, conn := range []*websocket.Conn{alice, bob} {
		added := expect(t, conn, "add_task")
		task := added["task"].(map[string]any)
		if task["createdBy"] != "Alice" || task["status"] != "todo" || task["title"] != "Write spec" {
			t.Fatalf("unexpected task %v", task)
		}
		taskID = task["id"].(string)
		expect(t, conn, "activity")
	}

	send(t, bob, map[string]string{"type": "move_task", "taskId": taskID, "to": "done"})

	for _, conn := range []*websocket.Conn{alice, bob} {
		moved := expect(t, conn, "move_task")
		if moved["from"] != "todo" || moved["to"] != "done" || moved["movedBy"] != "Bob" {
			t.Fatalf("unexpected move %v", moved)
		}
		expect(t, conn, "activity")
	}

	alice.Close()

	update = expect(t, bob, "users_update")
	if got := usernames(t, update); len(got) != 1 || got[0] != "Bob" {
		t.Fatalf("users after alice left = %v", got)
	}
	if msg := expect(t, bob, "activity"); msg["message"] != "Alice left" {
		t.Fatalf("activity = %v", msg["message"])
	}
}

func TestInvalidMessagesKeepConnectionOpen(t *testing.T) {
	_, wsURL := startWSServer(t)

	conn := dial(t, wsURL)
	send(t, conn, map[string]string{"type": "join", "username": "Alice"})
	expect(t, conn, "init_state")
	expect(t, conn, "activity")

	// None of these produce a response or close the connection.
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{broken`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	send(t, conn, map[string]string{"type": "self_destruct"})
	send(t, conn, map[string]string{"type": "add_task", "title": "   "})
	send(t, conn, map[string]string{"type": "move_task", "taskId": "missing", "to": "done"})
	send(t, conn, map[string]string{"type": "delete_task", "taskId": "missing"})

	// The connection still works: a valid message round-trips.
	send(t, conn, map[string]string{"type": "add_task", "title": "still alive"})
	added := expect(t, conn, "add_task")
	if added["task"].(map[string]any)["title"] != "still alive" {
		t.Fatalf("unexpected task %v", added["task"])
	}
}

func TestHealthz(t *testing.T) {
	srv, wsURL := startWSServer(t)

	dial(t, wsURL)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("body = %v", body)
	}
}
