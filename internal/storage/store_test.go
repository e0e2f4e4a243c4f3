package storage

import (
	"database/sql"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateRoom(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateRoom("abc123", `{"autoDraw":true}`); err != nil {
		t.Fatalf("create room: %v", err)
	}
	// Duplicate code should error
	if err := s.CreateRoom("abc123", `{}`); err == nil {
		t.Fatal("expected error on duplicate code")
	}
}

func TestGetRoom(t *testing.T) {
	s := newTestStore(t)
	s.CreateRoom("abc123", `{"autoDraw":true}`)

	row, err := s.GetRoom("abc123")
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if row.Code != "abc123" {
		t.Fatalf("expected code abc123, got %s", row.Code)
	}
	if row.Options != `{"autoDraw":true}` {
		t.Fatalf("unexpected options %s", row.Options)
	}
	if row.Status != "waiting" {
		t.Fatalf("expected status waiting, got %s", row.Status)
	}
	if row.CreatedAt.IsZero() {
		t.Fatal("expected non-zero CreatedAt")
	}
}

func TestGetRoomNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetRoom("nonexistent")
	if err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestUpdateRoom(t *testing.T) {
	s := newTestStore(t)
	s.CreateRoom("abc123", `{}`)

	if err := s.UpdateRoom("abc123", "playing", "alice", `{"noRemise":true}`); err != nil {
		t.Fatalf("update room: %v", err)
	}
	row, err := s.GetRoom("abc123")
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if row.Status != "playing" || row.HostID != "alice" || row.Options != `{"noRemise":true}` {
		t.Fatalf("unexpected row %+v", row)
	}
}

func TestListRoomsFiltered(t *testing.T) {
	s := newTestStore(t)
	s.CreateRoom("aaa", `{}`)
	s.CreateRoom("bbb", `{}`)
	s.UpdateRoom("bbb", "finished", "bob", `{}`)

	rows, err := s.ListRooms("")
	if err != nil {
		t.Fatalf("list rooms: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(rows))
	}
	rows, err = s.ListRooms("waiting")
	if err != nil {
		t.Fatalf("list rooms: %v", err)
	}
	if len(rows) != 1 || rows[0].Code != "aaa" {
		t.Fatalf("expected only aaa waiting, got %+v", rows)
	}
}

func TestEventJournalKeepsOrder(t *testing.T) {
	s := newTestStore(t)
	s.CreateRoom("abc123", `{}`)
	for _, typ := range []string{"game_started", "move", "card_played"} {
		if err := s.AppendEvent("abc123", typ, `{}`); err != nil {
			t.Fatalf("append %s: %v", typ, err)
		}
	}
	s.AppendEvent("other", "move", `{}`)

	rows, err := s.ListEvents("abc123")
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 events, got %d", len(rows))
	}
	if rows[0].Type != "game_started" || rows[2].Type != "card_played" {
		t.Fatalf("journal out of order: %+v", rows)
	}
	if rows[0].Seq >= rows[1].Seq {
		t.Fatal("sequence should increase")
	}
}

func TestSaveResultUpsert(t *testing.T) {
	s := newTestStore(t)
	s.CreateRoom("abc123", `{}`)

	s.SaveResult(ResultRow{RoomCode: "abc123", Draw: true, Reason: "king-captured"})
	if err := s.SaveResult(ResultRow{RoomCode: "abc123", Winner: "alice", WinnerColor: "w", Reason: "forfeit"}); err != nil {
		t.Fatalf("save result: %v", err)
	}
	got, err := s.GetResult("abc123")
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	if got.Winner != "alice" || got.Draw || got.Reason != "forfeit" {
		t.Fatalf("expected upserted result, got %+v", got)
	}
}

func TestDeleteRoom(t *testing.T) {
	s := newTestStore(t)
	s.CreateRoom("abc123", `{}`)
	s.AppendEvent("abc123", "move", `{}`)
	s.SaveResult(ResultRow{RoomCode: "abc123", Draw: true})

	if err := s.DeleteRoom("abc123"); err != nil {
		t.Fatalf("delete room: %v", err)
	}
	if _, err := s.GetRoom("abc123"); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows after delete, got %v", err)
	}
	if _, err := s.GetResult("abc123"); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows for result after delete, got %v", err)
	}
	if rows, _ := s.ListEvents("abc123"); len(rows) != 0 {
		t.Fatalf("expected no events after delete, got %d", len(rows))
	}
}
