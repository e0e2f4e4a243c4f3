package game

import (
	"chessnut/internal/board"
	"chessnut/internal/cards"
	"chessnut/internal/effects"
)

// BoardView is the board as one player is allowed to see it. Its shape
// matches the board snapshot.
type BoardView struct {
	Width   int           `json:"width"`
	Height  int           `json:"height"`
	Turn    board.Color   `json:"turn"`
	Version int           `json:"version"`
	Pieces  []board.Piece `json:"pieces"`
}

// View is the state sent to a single player.
type View struct {
	Code             string           `json:"code"`
	Status           Status           `json:"status"`
	You              string           `json:"you"`
	Color            board.Color      `json:"color,omitempty"`
	HostID           string           `json:"hostId"`
	Players          []Player         `json:"players"`
	Options          Options          `json:"options"`
	Board            BoardView        `json:"board"`
	Effects          []effects.Effect `json:"effects"`
	Hand             []cards.Card     `json:"hand"`
	OpponentHandSize int              `json:"opponentHandSize"`
	DeckSize         int              `json:"deckSize"`
	DiscardSize      int              `json:"discardSize"`
	Captured         []Captured       `json:"captured"`
	Turn             TurnState        `json:"turnState"`
	Result           *Result          `json:"result,omitempty"`
}

// View builds the state for playerID. Secret effects are only shown to their
// owner, and the opponent's invisible pieces, fog and pawn masks apply.
func (r *Room) View(playerID string) View {
	v := View{
		Code:     r.Code,
		Status:   r.Status,
		You:      playerID,
		HostID:   r.HostID,
		Options:  r.Options,
		Turn:     r.Turn,
		Result:   r.Result,
		Effects:  []effects.Effect{},
		Hand:     []cards.Card{},
		Captured: []Captured{},
	}
	for _, p := range r.Players {
		v.Players = append(v.Players, *p)
	}
	me := r.Player(playerID)
	if me != nil {
		v.Color = me.Color
	}
	if h, ok := r.Hands[playerID]; ok {
		v.Hand = append(v.Hand, h.Cards...)
	}
	if opp := r.Opponent(playerID); opp != nil && me != nil {
		if h, ok := r.Hands[opp.ID]; ok {
			v.OpponentHandSize = h.Len()
		}
	}
	if r.Deck != nil {
		v.DeckSize = len(r.Deck.Pile)
		v.DiscardSize = len(r.Deck.Discard)
	}
	for _, c := range r.Captured {
		if c.OriginalOwnerID == playerID {
			v.Captured = append(v.Captured, c)
		}
	}

	visible := r.visiblePieces(me)
	v.Board = BoardView{
		Width:   r.Board.Width,
		Height:  r.Board.Height,
		Turn:    r.Board.Turn,
		Version: r.Board.Version,
		Pieces:  make([]board.Piece, 0, len(r.Board.Pieces)),
	}
	masked := me != nil && r.opponentEffect(me, effects.TousLesMemes)
	for _, p := range r.Board.Pieces {
		if !visible[p.ID] {
			continue
		}
		cp := *p
		if masked && cp.Color != me.Color {
			cp.Type = board.Pawn
			cp.Promoted = false
		}
		v.Board.Pieces = append(v.Board.Pieces, cp)
	}

	for _, e := range r.Effects.All() {
		if e.Hidden && e.PlayerID != playerID {
			continue
		}
		if e.Bound() && !visible[e.PieceID] {
			continue
		}
		v.Effects = append(v.Effects, *e)
	}
	return v
}

// visiblePieces lists the piece ids viewer may see. A nil viewer sees every
// piece that is not invisible.
func (r *Room) visiblePieces(viewer *Player) map[int]bool {
	out := make(map[int]bool, len(r.Board.Pieces))
	fog := viewer != nil && r.opponentEffect(viewer, effects.Brouillard)
	var near map[string]bool
	if fog {
		near = make(map[string]bool)
		for _, p := range r.Board.PiecesOf(viewer.Color) {
			for _, sq := range r.Board.Adjacent(p.Square) {
				near[sq] = true
			}
		}
	}
	for _, p := range r.Board.Pieces {
		own := viewer != nil && p.Color == viewer.Color
		switch {
		case own:
			out[p.ID] = true
		case p.Invisible:
		case fog && !near[p.Square]:
		default:
			out[p.ID] = true
		}
	}
	return out
}

// opponentEffect reports whether someone other than viewer has an active
// effect of type t.
func (r *Room) opponentEffect(viewer *Player, t effects.Type) bool {
	return r.Effects.Find(func(e *effects.Effect) bool {
		return e.Type == t && e.PlayerID != viewer.ID
	}) != nil
}
