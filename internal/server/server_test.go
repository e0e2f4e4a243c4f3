package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"chessnut/internal/cards"
	"chessnut/internal/game"
	"chessnut/internal/session"
)

func TestListCards(t *testing.T) {
	env := setupTestEnv(t)

	resp, err := http.Get(env.ts.URL + "/api/cards")
	if err != nil {
		t.Fatalf("GET /api/cards: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var list []cards.Card
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 30 {
		t.Fatalf("expected 30 cards, got %d", len(list))
	}
	if list[0].ID != cards.Adoubement {
		t.Fatalf("expected catalog order, got %s first", list[0].ID)
	}
}

func TestCreateRoom(t *testing.T) {
	env := setupTestEnv(t)

	code := createRoomViaAPI(t, env.ts)
	if code == "" {
		t.Fatal("expected non-empty code")
	}
	if _, ok := env.mgr.Get(code); !ok {
		t.Fatal("room should be registered")
	}
	if _, err := env.store.GetRoom(code); err != nil {
		t.Fatalf("room should be archived: %v", err)
	}
}

func TestGetRoom(t *testing.T) {
	env := setupTestEnv(t)
	code := createRoomViaAPI(t, env.ts)

	resp, err := http.Get(env.ts.URL + "/api/rooms/" + code)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var info session.Info
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Code != code || info.Status != game.StatusWaiting || len(info.Players) != 0 {
		t.Fatalf("unexpected info %+v", info)
	}
}

func TestGetRoomNotFound(t *testing.T) {
	env := setupTestEnv(t)

	resp, err := http.Get(env.ts.URL + "/api/rooms/nonexistent")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	var ep errorPayload
	if err := json.NewDecoder(resp.Body).Decode(&ep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ep.Code != "room-not-found" {
		t.Fatalf("expected room-not-found, got %q", ep.Code)
	}
}

func TestListRooms(t *testing.T) {
	env := setupTestEnv(t)
	createRoomViaAPI(t, env.ts)
	createRoomViaAPI(t, env.ts)

	resp, err := http.Get(env.ts.URL + "/api/rooms")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var infos []session.Info
	if err := json.NewDecoder(resp.Body).Decode(&infos); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(infos))
	}
}

func TestWebSocketUnknownRoom(t *testing.T) {
	env := setupTestEnv(t)

	resp, err := http.Get(env.ts.URL + "/api/rooms/nonexistent/ws")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestErrorPayloadCodes(t *testing.T) {
	if got := newErrorPayload(game.ErrMustCapture).Code; got != "must-capture-to-move" {
		t.Fatalf("unexpected code %q", got)
	}
	if got := newErrorPayload(errInvalidMessage).Code; got != "invalid-message" {
		t.Fatalf("unexpected code %q", got)
	}
}
