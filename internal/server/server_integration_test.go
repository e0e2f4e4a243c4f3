package server

import (
	"encoding/json"
	"testing"

	"nhooyr.io/websocket"

	"chessnut/internal/game"
)

// --- Full game over WebSocket ---

func TestFullGameKingCapture(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	code, alice, bob := startGame(t, ctx, env)
	defer alice.Close(websocket.StatusNormalClosure, "")
	defer bob.Close(websocket.StatusNormalClosure, "")

	moves := []struct {
		conn     *websocket.Conn
		from, to string
	}{
		{alice, "e2", "e4"},
		{bob, "e7", "e5"},
		{alice, "d1", "h5"},
		{bob, "a7", "a6"},
		{alice, "f1", "c4"},
		{bob, "h7", "h6"},
		{alice, "h5", "f7"},
		{bob, "b7", "b6"},
		{alice, "f7", "e8"},
	}
	for _, m := range moves {
		mustSend(t, ctx, m.conn, "move", movePayload{From: m.from, To: m.to})
		// wait until the move is applied before the next player acts
		readUntil(t, ctx, alice, "move")
		readUntil(t, ctx, bob, "move")
	}

	var over game.GameOverPayload
	if err := json.Unmarshal(readUntil(t, ctx, bob, "game_over").Payload, &over); err != nil {
		t.Fatalf("unmarshal game_over: %v", err)
	}
	if over.Result.Winner != "alice" || over.Result.Draw {
		t.Fatalf("expected alice to win, got %+v", over.Result)
	}
	v := readState(t, ctx, bob)
	if v.Status != game.StatusFinished || len(v.Captured) != 2 {
		t.Fatalf("expected a finished game with two black losses, got %s and %d", v.Status, len(v.Captured))
	}

	mustSend(t, ctx, bob, "move", movePayload{From: "a6", To: "a5"})
	if got := readError(t, ctx, bob); got != "game-already-finished" {
		t.Fatalf("expected game-already-finished, got %q", got)
	}

	res, err := env.store.GetResult(code)
	if err != nil {
		t.Fatalf("archived result: %v", err)
	}
	if res.Winner != "alice" || res.Reason == "" {
		t.Fatalf("unexpected archived result %+v", res)
	}
	rows, _ := env.store.ListEvents(code)
	var moved int
	for _, row := range rows {
		if row.Type == "move" {
			moved++
		}
	}
	if moved != len(moves) {
		t.Fatalf("expected %d journaled moves, got %d", len(moves), moved)
	}
}

// --- Disconnect handling ---

func TestDisconnectKeepsSeatDuringGrace(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	_, alice, bob := startGame(t, ctx, env)
	defer alice.Close(websocket.StatusNormalClosure, "")
	bob.Close(websocket.StatusNormalClosure, "")

	v := readState(t, ctx, alice)
	for v.Status == game.StatusPlaying && playerConnected(v, "bob") {
		v = readState(t, ctx, alice)
	}
	if v.Status != game.StatusPlaying || len(v.Players) != 2 {
		t.Fatalf("bob should keep the seat, got status %s with %d players", v.Status, len(v.Players))
	}
}

func playerConnected(v game.View, id string) bool {
	for _, p := range v.Players {
		if p.ID == id {
			return p.Connected
		}
	}
	return false
}
