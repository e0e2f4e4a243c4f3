package board

import (
	"fmt"
	"sort"

	"github.com/notnil/chess"
)

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w - - 0 1"

var pieceTypes = map[chess.PieceType]PieceType{
	chess.King:   King,
	chess.Queen:  Queen,
	chess.Rook:   Rook,
	chess.Bishop: Bishop,
	chess.Knight: Knight,
	chess.Pawn:   Pawn,
}

// FromFEN builds an 8x8 board from a FEN string. Only piece placement and the
// side to move are used. Ids are assigned in rank-major order from a1.
func FromFEN(fen string) (*Board, error) {
	var pos chess.Position
	if err := pos.UnmarshalText([]byte(fen)); err != nil {
		return nil, fmt.Errorf("parse fen: %w", err)
	}

	type placed struct {
		c Coord
		p chess.Piece
	}
	var all []placed
	for sq, pc := range pos.Board().SquareMap() {
		all = append(all, placed{c: Coord{X: int(sq.File()), Y: int(sq.Rank())}, p: pc})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].c.Y != all[j].c.Y {
			return all[i].c.Y < all[j].c.Y
		}
		return all[i].c.X < all[j].c.X
	})

	b := New(8, 8)
	if pos.Turn() == chess.Black {
		b.Turn = Black
	}
	for _, pl := range all {
		t, ok := pieceTypes[pl.p.Type()]
		if !ok {
			continue
		}
		c := White
		if pl.p.Color() == chess.Black {
			c = Black
		}
		if _, err := b.Add(t, c, pl.c.Square()); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Standard returns the usual starting position.
func Standard() *Board {
	b, err := FromFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return b
}
