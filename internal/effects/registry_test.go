package effects

import (
	"testing"
)

func kinds(changes []Change) []ChangeKind {
	out := make([]ChangeKind, len(changes))
	for i, c := range changes {
		out[i] = c.Kind
	}
	return out
}

func TestAddAssignsIDAndTimestamp(t *testing.T) {
	r := NewRegistry()
	e := r.Add(Effect{Type: Totem, PlayerID: "alice"})
	if e.ID == "" {
		t.Fatal("expected generated id")
	}
	if e.TS.IsZero() {
		t.Fatal("expected timestamp")
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 effect, got %d", r.Len())
	}
	ch := r.Drain()
	if len(ch) != 1 || ch[0].Kind != Added {
		t.Fatalf("expected one added change, got %v", kinds(ch))
	}
	if len(r.Drain()) != 0 {
		t.Fatal("drain should clear the journal")
	}
}

func TestQueryByPiece(t *testing.T) {
	r := NewRegistry()
	r.Add(Effect{Type: Adoubement, PlayerID: "alice", PieceID: 3, PieceSquare: "a1"})
	r.Add(Effect{Type: Folie, PlayerID: "alice", PieceID: 4, PieceSquare: "b1"})
	if !r.HasOnPiece(Adoubement, 3) {
		t.Fatal("expected adoubement on piece 3")
	}
	if r.HasOnPiece(Adoubement, 4) {
		t.Fatal("piece 4 has no adoubement")
	}
	if r.HasOnPiece(Adoubement, 0) {
		t.Fatal("piece id 0 never matches")
	}
	got := r.Query(func(e *Effect) bool { return e.PlayerID == "alice" })
	if len(got) != 2 {
		t.Fatalf("expected 2 effects for alice, got %d", len(got))
	}
}

func TestRemoveByIDJournals(t *testing.T) {
	r := NewRegistry()
	e := r.Add(Effect{Type: Mine, PlayerID: "alice", Square: "c3", Hidden: true})
	r.Drain()
	if !r.RemoveByID(e.ID) {
		t.Fatal("expected removal")
	}
	if r.RemoveByID(e.ID) {
		t.Fatal("second removal should report false")
	}
	ch := r.Drain()
	if len(ch) != 1 || ch[0].Kind != Removed || ch[0].Effect.Square != "c3" {
		t.Fatalf("unexpected journal %+v", ch)
	}
}

func TestDecrementOwner(t *testing.T) {
	r := NewRegistry()
	r.Add(Effect{Type: Anneau, PlayerID: "alice", RemainingTurns: Turns(2)})
	r.Drain()

	r.DecrementTurnCounters("bob")
	if r.Len() != 1 || *r.All()[0].RemainingTurns != 2 {
		t.Fatal("bob's turn end must not count down alice's effect")
	}

	r.DecrementTurnCounters("alice")
	if *r.All()[0].RemainingTurns != 1 {
		t.Fatalf("expected 1 turn left, got %d", *r.All()[0].RemainingTurns)
	}

	r.DecrementTurnCounters("alice")
	if r.Len() != 0 {
		t.Fatal("expired effect must be removed")
	}
	ch := r.Drain()
	if got := kinds(ch); len(got) != 2 || got[0] != Updated || got[1] != Removed {
		t.Fatalf("unexpected journal %v", got)
	}
}

func TestDecrementOpponent(t *testing.T) {
	r := NewRegistry()
	r.Add(Effect{Type: Toucher, PlayerID: "alice", PieceID: 9, RemainingTurns: Turns(1), DecrementOn: OnOpponent})

	r.DecrementTurnCounters("alice")
	if r.Len() != 1 {
		t.Fatal("owner's turn end must not expire an opponent-counted effect")
	}
	r.DecrementTurnCounters("bob")
	if r.Len() != 0 {
		t.Fatal("expected expiry after bob's turn")
	}
}

func TestNoCounterIsPermanent(t *testing.T) {
	r := NewRegistry()
	r.Add(Effect{Type: Fortification, PlayerID: "alice", PieceID: 1})
	for i := 0; i < 5; i++ {
		r.DecrementTurnCounters("alice")
		r.DecrementTurnCounters("bob")
	}
	if r.Len() != 1 {
		t.Fatal("effects without counters never expire")
	}
}

func TestNeverLeavesNonPositiveCounter(t *testing.T) {
	r := NewRegistry()
	r.Add(Effect{Type: Teleport, PlayerID: "alice", PieceID: 2, RemainingTurns: Turns(0)})
	r.DecrementTurnCounters("alice")
	for _, e := range r.All() {
		if e.RemainingTurns != nil && *e.RemainingTurns <= 0 {
			t.Fatalf("effect %s left with %d turns", e.ID, *e.RemainingTurns)
		}
	}
}

func TestRebindAndRemap(t *testing.T) {
	r := NewRegistry()
	r.Add(Effect{Type: Adoubement, PieceID: 5, PieceSquare: "a1"})
	r.Add(Effect{Type: Coincoin, PieceID: 6, PieceSquare: "h1", AllowedSquares: []string{"a8", "h8"}})
	r.Add(Effect{Type: Mine, Square: "c3"})

	r.RebindSquare(5, "d1")
	if got := r.OnPiece(Adoubement, 5).PieceSquare; got != "d1" {
		t.Fatalf("expected d1, got %s", got)
	}

	shift := func(sq string) (string, bool) {
		m := map[string]string{"d1": "e2", "h1": "i2", "a8": "b9", "h8": "i9", "c3": "d4"}
		to, ok := m[sq]
		return to, ok
	}
	r.RemapSquares(shift)
	if got := r.OnPiece(Adoubement, 5).PieceSquare; got != "e2" {
		t.Fatalf("expected e2, got %s", got)
	}
	cc := r.OnPiece(Coincoin, 6)
	if cc.PieceSquare != "i2" || cc.AllowedSquares[0] != "b9" || cc.AllowedSquares[1] != "i9" {
		t.Fatalf("coincoin not remapped: %+v", cc)
	}
	if m := r.Find(func(e *Effect) bool { return e.Type == Mine }); m.Square != "d4" {
		t.Fatalf("mine not remapped: %s", m.Square)
	}
}

func TestRemoveBoundTo(t *testing.T) {
	r := NewRegistry()
	r.Add(Effect{Type: Invisible, PieceID: 7})
	r.Add(Effect{Type: Sniper, PieceID: 7})
	r.Add(Effect{Type: Sniper, PieceID: 8})
	if n := r.RemoveBoundTo(7); n != 2 {
		t.Fatalf("expected 2 removed, got %d", n)
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 left, got %d", r.Len())
	}
}

func TestCloneIsIndependent(t *testing.T) {
	r := NewRegistry()
	r.Add(Effect{Type: Double, PlayerID: "alice", RemainingMoves: Moves(2)})
	cp := r.Clone()
	*cp.All()[0].RemainingMoves = 1
	if *r.All()[0].RemainingMoves != 2 {
		t.Fatal("clone shares counters with original")
	}
	if len(cp.Drain()) != 0 {
		t.Fatal("clone should start with an empty journal")
	}
}
