package game

import (
	"fmt"

	"chessnut/internal/board"
	"chessnut/internal/effects"
	"chessnut/internal/movegen"
)

// LegalMoves lists the moves SubmitMove would accept for one of the
// player's own pieces, card restrictions included.
func (r *Room) LegalMoves(playerID, from string) ([]movegen.Move, error) {
	if r.Status == StatusWaiting {
		return nil, ErrNotPlaying
	}
	p := r.Player(playerID)
	if p == nil {
		return nil, ErrPlayerNotInRoom
	}
	piece := r.Board.PieceAt(from)
	if piece == nil {
		return nil, ErrNoPieceAtSource
	}
	if piece.Color != p.Color {
		return nil, ErrNotYourPiece
	}
	if r.checkTouched(p, piece) != nil {
		return []movegen.Move{}, nil
	}
	moves := []movegen.Move{}
	for _, m := range movegen.LegalMoves(r.Board, r.Effects, from) {
		if r.restrictMove(p, piece, m.Capture) == nil {
			moves = append(moves, m)
		}
	}
	return moves, nil
}

// SubmitMove validates and applies a move. A rejected move leaves the room
// untouched.
func (r *Room) SubmitMove(playerID, from, to string) ([]Event, error) {
	return r.atomically(func(events *[]Event) error {
		return r.applyMove(events, playerID, from, to)
	})
}

func (r *Room) applyMove(events *[]Event, playerID, from, to string) error {
	p, err := r.requireTurn(playerID)
	if err != nil {
		return err
	}
	piece := r.Board.PieceAt(from)
	if piece == nil {
		return ErrNoPieceAtSource
	}
	if piece.Color != p.Color {
		return ErrNotYourPiece
	}
	if err := r.checkTouched(p, piece); err != nil {
		return err
	}

	target := r.Board.PieceAt(to)
	capture := target != nil && target.Color != piece.Color
	// report the card rather than an illegal move for a quiet attempt
	if r.Effects.HasOnPiece(effects.ToutOuRien, piece.ID) && !capture {
		return ErrMustCapture
	}
	if _, ok := movegen.Contains(movegen.LegalMoves(r.Board, r.Effects, from), to); !ok {
		return fmt.Errorf("%s-%s: %w", from, to, ErrIllegalMove)
	}
	if err := r.restrictMove(p, piece, capture); err != nil {
		return err
	}
	double := r.Effects.ForPlayer(effects.Double, p.ID)

	mv := MovePayload{PlayerID: p.ID, PieceID: piece.ID, From: from, To: to, Capture: capture}
	relocate := true
	if capture {
		if err := r.capture(target, p.ID); err != nil {
			return err
		}
		if sniper := r.Effects.OnPiece(effects.Sniper, piece.ID); sniper != nil {
			r.Effects.RemoveByID(sniper.ID)
			relocate = false
			mv.Sniper = true
		}
		if r.Effects.HasOnPiece(effects.Doppelganger, piece.ID) {
			piece.Type = target.Type
			piece.Promoted = target.Promoted
		}
	}
	if relocate {
		if err := r.Board.Move(piece.ID, to); err != nil {
			return err
		}
		r.Effects.RebindSquare(piece.ID, to)
	}
	r.Effects.RemoveWhere(func(e *effects.Effect) bool {
		if e.PieceID != piece.ID {
			return false
		}
		return e.Type == effects.Rebondir || e.Type == effects.Teleport || e.Type == effects.Coincoin
	})

	if piece.Invisible {
		r.send(events, p.ID, EventMove, mv)
	} else {
		r.broadcast(events, EventMove, mv)
	}
	if relocate {
		if err := r.detonate(events, piece, to); err != nil {
			return err
		}
	}

	r.Board.Bump()
	if r.checkVictory(events) {
		return nil
	}

	r.Turn.FreeMove = false
	if double != nil && double.RemainingMoves != nil {
		*double.RemainingMoves--
		if *double.RemainingMoves > 0 {
			r.Effects.Touch(double)
			return nil
		}
		r.Effects.RemoveByID(double.ID)
	}
	r.endTurn(events, p)
	return nil
}

// restrictMove applies the card rules that forbid an otherwise legal move:
// tout ou rien only lets the piece capture, and the bonus move of double may
// not capture.
func (r *Room) restrictMove(p *Player, piece *board.Piece, capture bool) error {
	if r.Effects.HasOnPiece(effects.ToutOuRien, piece.ID) && !capture {
		return ErrMustCapture
	}
	double := r.Effects.ForPlayer(effects.Double, p.ID)
	if capture && double != nil && double.RemainingMoves != nil && *double.RemainingMoves == 1 {
		return ErrCaptureOnBonusMove
	}
	return nil
}

// checkTouched enforces an opponent's toucher card: while a piece of the
// mover's color is touched and can move, it is the only piece allowed to.
func (r *Room) checkTouched(p *Player, moving *board.Piece) error {
	for _, e := range r.Effects.Query(func(e *effects.Effect) bool { return e.Type == effects.Toucher }) {
		touched := r.Board.Piece(e.PieceID)
		if touched == nil || touched.Color != p.Color || touched.ID == moving.ID {
			continue
		}
		if len(movegen.LegalMoves(r.Board, r.Effects, touched.Square)) == 0 {
			continue
		}
		return fmt.Errorf("%s: %w", touched.Square, ErrMustMoveRestricted)
	}
	return nil
}

// detonate triggers an enemy mine hidden on sq. The piece is destroyed and
// credited to the mine's owner.
func (r *Room) detonate(events *[]Event, piece *board.Piece, sq string) error {
	mine := r.Effects.Find(func(e *effects.Effect) bool {
		return e.Type == effects.Mine && e.Square == sq && e.Color != piece.Color
	})
	if mine == nil {
		return nil
	}
	victim := ""
	if v := r.PlayerByColor(piece.Color); v != nil {
		victim = v.ID
	}
	if err := r.capture(piece, mine.PlayerID); err != nil {
		return err
	}
	r.Effects.RemoveByID(mine.ID)
	r.broadcast(events, EventMineDetonated, MinePayload{
		Square:   sq,
		PieceID:  piece.ID,
		OwnerID:  mine.PlayerID,
		VictimID: victim,
	})
	return nil
}
