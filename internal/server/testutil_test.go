package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"chessnut/internal/cards"
	"chessnut/internal/game"
	"chessnut/internal/session"
	"chessnut/internal/storage"
)

// --- Test environment ---

type testEnv struct {
	ts    *httptest.Server
	mgr   *session.Manager
	store *storage.Store
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	mgr := session.NewManager(session.Config{Grace: time.Minute}, nil, store, nil)
	ts := httptest.NewServer(New(mgr, store, nil))
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, mgr: mgr, store: store}
}

// --- Context helpers ---

func timeoutCtx(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// --- REST API helpers ---

func createRoomViaAPI(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/rooms", "application/json", nil)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var result createRoomResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return result.Code
}

// --- WebSocket helpers ---

func wsURL(ts *httptest.Server, code string) string {
	return strings.Replace(ts.URL, "http://", "ws://", 1) + "/api/rooms/" + code + "/ws"
}

// wsConnect dials a WebSocket, sends a join message, and returns the connection.
// The caller is responsible for closing the connection.
func wsConnect(t *testing.T, ts *httptest.Server, code, playerID string) *websocket.Conn {
	t.Helper()
	ctx, cancel := timeoutCtx(t)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, wsURL(ts, code), nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	if err := sendWS(ctx, conn, "join", joinPayload{PlayerID: playerID}); err != nil {
		t.Fatalf("send join: %v", err)
	}
	return conn
}

// sendWS marshals and sends a typed WebSocket message. Returns an error on failure.
func sendWS(ctx context.Context, conn *websocket.Conn, msgType string, payload any) error {
	p, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg, err := json.Marshal(WSMessage{Type: msgType, Payload: p})
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, msg)
}

// mustSend is sendWS that fails the test on error.
func mustSend(t *testing.T, ctx context.Context, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	if err := sendWS(ctx, conn, msgType, payload); err != nil {
		t.Fatalf("send %s: %v", msgType, err)
	}
}

// readWS reads and unmarshals a single WebSocket message. Returns an error on failure.
func readWS(ctx context.Context, conn *websocket.Conn) (WSMessage, error) {
	_, data, err := conn.Read(ctx)
	if err != nil {
		return WSMessage{}, err
	}
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return WSMessage{}, err
	}
	return msg, nil
}

// readUntil skips frames until one of the given type arrives.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, msgType string) WSMessage {
	t.Helper()
	for {
		msg, err := readWS(ctx, conn)
		if err != nil {
			t.Fatalf("waiting for %s: %v", msgType, err)
		}
		if msg.Type == msgType {
			return msg
		}
	}
}

// readState waits for the next state frame.
func readState(t *testing.T, ctx context.Context, conn *websocket.Conn) game.View {
	t.Helper()
	msg := readUntil(t, ctx, conn, "state")
	var v game.View
	if err := json.Unmarshal(msg.Payload, &v); err != nil {
		t.Fatalf("unmarshal state payload: %v", err)
	}
	return v
}

// readError waits for the next error frame and returns its code.
func readError(t *testing.T, ctx context.Context, conn *websocket.Conn) string {
	t.Helper()
	msg := readUntil(t, ctx, conn, "error")
	var ep errorPayload
	if err := json.Unmarshal(msg.Payload, &ep); err != nil {
		t.Fatalf("unmarshal error payload: %v", err)
	}
	return ep.Code
}

// startGame seats alice and bob over WebSocket and starts the game.
func startGame(t *testing.T, ctx context.Context, env *testEnv) (code string, alice, bob *websocket.Conn) {
	t.Helper()
	code = createRoomViaAPI(t, env.ts)
	alice = wsConnect(t, env.ts, code, "alice")
	readUntil(t, ctx, alice, "joined")
	bob = wsConnect(t, env.ts, code, "bob")
	readUntil(t, ctx, bob, "joined")
	mustSend(t, ctx, alice, "start", nil)
	readUntil(t, ctx, alice, "game_started")
	readUntil(t, ctx, bob, "game_started")
	return code, alice, bob
}

// give puts a card straight into a player's hand.
func give(t *testing.T, env *testEnv, code, playerID string, id cards.ID) {
	t.Helper()
	sess, ok := env.mgr.Get(code)
	if !ok {
		t.Fatalf("room %s not found", code)
	}
	card, ok := env.mgr.Catalog().Get(id)
	if !ok {
		t.Fatalf("unknown card %s", id)
	}
	sess.Read(func(r *game.Room) { r.Hand(playerID).Add(card) })
}
