package effects

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// ChangeKind says what happened to an effect.
type ChangeKind string

const (
	Added   ChangeKind = "added"
	Updated ChangeKind = "updated"
	Removed ChangeKind = "removed"
)

// Change is a journal entry describing one registry mutation.
type Change struct {
	Kind   ChangeKind
	Effect Effect
}

// Registry is an ordered list of active effects. It is not safe for
// concurrent use; the owning room serialises access.
type Registry struct {
	items   []*Effect
	changes []Change
	now     func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{now: time.Now}
}

// Add registers e, filling in an id and timestamp when missing, and returns
// the stored record.
func (r *Registry) Add(e Effect) *Effect {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.TS.IsZero() {
		e.TS = r.clock()
	}
	stored := e.clone()
	r.items = append(r.items, stored)
	r.record(Added, stored)
	return stored
}

// All returns the effects in insertion order. The records are shared.
func (r *Registry) All() []*Effect {
	return slices.Clone(r.items)
}

// Len returns the number of active effects.
func (r *Registry) Len() int { return len(r.items) }

// Query returns every effect matching pred, in insertion order.
func (r *Registry) Query(pred func(*Effect) bool) []*Effect {
	var out []*Effect
	for _, e := range r.items {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}

// Find returns the first effect matching pred, or nil.
func (r *Registry) Find(pred func(*Effect) bool) *Effect {
	for _, e := range r.items {
		if pred(e) {
			return e
		}
	}
	return nil
}

// Get returns the effect with the given id, or nil.
func (r *Registry) Get(id string) *Effect {
	return r.Find(func(e *Effect) bool { return e.ID == id })
}

// OnPiece returns the first effect of type t bound to the piece.
func (r *Registry) OnPiece(t Type, pieceID int) *Effect {
	if pieceID == 0 {
		return nil
	}
	return r.Find(func(e *Effect) bool { return e.Type == t && e.PieceID == pieceID })
}

// HasOnPiece reports whether piece pieceID carries an effect of type t.
func (r *Registry) HasOnPiece(t Type, pieceID int) bool {
	return r.OnPiece(t, pieceID) != nil
}

// ForPlayer returns the first effect of type t owned by playerID.
func (r *Registry) ForPlayer(t Type, playerID string) *Effect {
	return r.Find(func(e *Effect) bool { return e.Type == t && e.PlayerID == playerID })
}

// RemoveByID deletes an effect and journals its removal.
func (r *Registry) RemoveByID(id string) bool {
	for i, e := range r.items {
		if e.ID == id {
			r.items = slices.Delete(r.items, i, i+1)
			r.record(Removed, e)
			return true
		}
	}
	return false
}

// RemoveWhere deletes every effect matching pred and returns how many went.
func (r *Registry) RemoveWhere(pred func(*Effect) bool) int {
	n := 0
	kept := r.items[:0]
	for _, e := range r.items {
		if pred(e) {
			r.record(Removed, e)
			n++
			continue
		}
		kept = append(kept, e)
	}
	clear(r.items[len(kept):])
	r.items = kept
	return n
}

// RemoveBoundTo drops every effect following the given piece.
func (r *Registry) RemoveBoundTo(pieceID int) int {
	if pieceID == 0 {
		return 0
	}
	return r.RemoveWhere(func(e *Effect) bool { return e.PieceID == pieceID })
}

// Touch journals an in-place update made by the caller.
func (r *Registry) Touch(e *Effect) {
	r.record(Updated, e)
}

// DecrementTurnCounters runs the turn-boundary pass for the player whose turn
// just ended. Effects decrementing on their owner's turn count down when
// finished owns them; effects marked OnOpponent count down when someone else
// finished. Effects reaching zero are removed.
func (r *Registry) DecrementTurnCounters(finished string) {
	var expired []string
	for _, e := range r.items {
		if e.RemainingTurns == nil {
			continue
		}
		if !e.countsDownFor(finished) {
			continue
		}
		*e.RemainingTurns--
		if *e.RemainingTurns <= 0 {
			expired = append(expired, e.ID)
			continue
		}
		r.record(Updated, e)
	}
	for _, id := range expired {
		r.RemoveByID(id)
	}
}

func (e *Effect) countsDownFor(finished string) bool {
	if e.DecrementOn == OnOpponent {
		return e.PlayerID != "" && e.PlayerID != finished
	}
	return e.PlayerID == finished
}

// RebindSquare refreshes the cached square of every effect bound to pieceID.
func (r *Registry) RebindSquare(pieceID int, sq string) {
	if pieceID == 0 {
		return
	}
	for _, e := range r.items {
		if e.PieceID == pieceID && e.PieceSquare != sq {
			e.PieceSquare = sq
		}
	}
}

// RemapSquares runs every square reference through m after a topology
// change. References m cannot map are left untouched.
func (r *Registry) RemapSquares(m func(string) (string, bool)) {
	conv := func(sq string) string {
		if sq == "" {
			return sq
		}
		if to, ok := m(sq); ok {
			return to
		}
		return sq
	}
	for _, e := range r.items {
		e.PieceSquare = conv(e.PieceSquare)
		e.Square = conv(e.Square)
		for i, sq := range e.AllowedSquares {
			e.AllowedSquares[i] = conv(sq)
		}
	}
}

// Drain returns and clears the change journal.
func (r *Registry) Drain() []Change {
	out := r.changes
	r.changes = nil
	return out
}

// Clone returns a deep copy with an empty journal.
func (r *Registry) Clone() *Registry {
	cp := &Registry{now: r.now, items: make([]*Effect, len(r.items))}
	for i, e := range r.items {
		cp.items[i] = e.clone()
	}
	return cp
}

// SetClock overrides the timestamp source.
func (r *Registry) SetClock(now func() time.Time) { r.now = now }

func (r *Registry) clock() time.Time {
	if r.now == nil {
		return time.Now()
	}
	return r.now()
}

func (r *Registry) record(kind ChangeKind, e *Effect) {
	r.changes = append(r.changes, Change{Kind: kind, Effect: *e.clone()})
}
