// Package movegen computes legal destinations for a piece from the board and
// the active effects. It never looks for check.
package movegen

import (
	"chessnut/internal/board"
	"chessnut/internal/effects"
)

// Move is a candidate move. Capture is set when the destination holds an
// enemy piece.
type Move struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Capture bool   `json:"capture,omitempty"`
}

type moveDelta struct {
	dx, dy int
}

var (
	rookDirections   = [...]moveDelta{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopDirections = [...]moveDelta{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	queenDirections  = [...]moveDelta{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	knightOffsets    = [...]moveDelta{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingOffsets      = queenDirections
)

// modifier extends the move list for the piece in c.
type modifier func(c *genContext, moves []Move) []Move

// pipeline is applied in order: native moves (wrap-aware), edge bounce,
// additive grants, then teleport and corner hops.
var pipeline = [...]modifier{
	nativeMoves,
	bounceMoves,
	grantedMoves,
	teleportMoves,
	cornerMoves,
}

type genContext struct {
	b    *board.Board
	fx   *effects.Registry
	p    *board.Piece
	from board.Coord
	wrap bool
}

// LegalMoves lists the destinations of the piece on from. The result has at
// most one entry per destination square. An empty square yields nil.
func LegalMoves(b *board.Board, fx *effects.Registry, from string) []Move {
	p := b.PieceAt(from)
	if p == nil {
		return nil
	}
	c, ok := b.Coord(from)
	if !ok {
		return nil
	}
	if fx == nil {
		fx = effects.NewRegistry()
	}
	ctx := &genContext{b: b, fx: fx, p: p, from: c, wrap: wrapActive(fx, p.Color)}

	var moves []Move
	for _, m := range pipeline {
		moves = m(ctx, moves)
	}
	return dedupe(moves)
}

// Contains reports whether moves has a move to sq.
func Contains(moves []Move, sq string) (Move, bool) {
	for _, m := range moves {
		if m.To == sq {
			return m, true
		}
	}
	return Move{}, false
}

func wrapActive(fx *effects.Registry, c board.Color) bool {
	return fx.Find(func(e *effects.Effect) bool {
		return e.Type == effects.Anneau && e.Color == c
	}) != nil
}

func dedupe(moves []Move) []Move {
	if len(moves) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(moves))
	out := moves[:0]
	for _, m := range moves {
		if seen[m.To] {
			continue
		}
		seen[m.To] = true
		out = append(out, m)
	}
	return out
}

// resolve applies file wrap when active and checks bounds.
func (c *genContext) resolve(pos board.Coord) (board.Coord, bool) {
	if c.wrap {
		w := c.b.Width
		pos.X = ((pos.X % w) + w) % w
	}
	return pos, c.b.InBounds(pos)
}

func (c *genContext) add(moves []Move, to board.Coord, capture bool) []Move {
	return append(moves, Move{From: c.p.Square, To: to.Square(), Capture: capture})
}

// stepMoves handles single-step pieces: empty or enemy-occupied targets.
func (c *genContext) stepMoves(moves []Move, offsets []moveDelta) []Move {
	for _, d := range offsets {
		to, ok := c.resolve(c.from.Add(d.dx, d.dy))
		if !ok || to == c.from {
			continue
		}
		occ := c.b.PieceAt(to.Square())
		switch {
		case occ == nil:
			moves = c.add(moves, to, false)
		case occ.Color != c.p.Color:
			moves = c.add(moves, to, true)
		}
	}
	return moves
}

// slideMoves walks each direction until blocked. With bounce, the first time
// a ray would leave the board it reflects on the offending axis instead.
func (c *genContext) slideMoves(moves []Move, directions []moveDelta, bounce bool) []Move {
	limit := c.b.Width * c.b.Height
	for _, d := range directions {
		pos := c.from
		dx, dy := d.dx, d.dy
		bounced := false
		for steps := 0; steps < limit; steps++ {
			to, ok := c.resolve(pos.Add(dx, dy))
			if !ok {
				if !bounce || bounced {
					break
				}
				bounced = true
				next := pos.Add(dx, dy)
				if !c.wrap && (next.X < 0 || next.X >= c.b.Width) {
					dx = -dx
				}
				if next.Y < 0 || next.Y >= c.b.Height {
					dy = -dy
				}
				to, ok = c.resolve(pos.Add(dx, dy))
				if !ok {
					break
				}
			}
			occ := c.b.PieceAt(to.Square())
			if occ == nil {
				moves = c.add(moves, to, false)
				pos = to
				continue
			}
			if occ.Color != c.p.Color {
				moves = c.add(moves, to, true)
			}
			break
		}
	}
	return moves
}

func (c *genContext) pawnMoves(moves []Move) []Move {
	dir, start := 1, 1
	if c.p.Color == board.Black {
		dir, start = -1, c.b.Height-2
	}

	if one, ok := c.resolve(c.from.Add(0, dir)); ok && c.b.PieceAt(one.Square()) == nil {
		moves = c.add(moves, one, false)
		if c.from.Y == start {
			if two, ok := c.resolve(c.from.Add(0, 2*dir)); ok && c.b.PieceAt(two.Square()) == nil {
				moves = c.add(moves, two, false)
			}
		}
	}

	for _, dx := range []int{-1, 1} {
		to, ok := c.resolve(c.from.Add(dx, dir))
		if !ok || to == c.from {
			continue
		}
		if occ := c.b.PieceAt(to.Square()); occ != nil && occ.Color != c.p.Color {
			moves = c.add(moves, to, true)
		}
	}
	return moves
}

func nativeMoves(c *genContext, moves []Move) []Move {
	switch c.p.Type {
	case board.Pawn:
		return c.pawnMoves(moves)
	case board.Knight:
		return c.stepMoves(moves, knightOffsets[:])
	case board.Bishop:
		return c.slideMoves(moves, bishopDirections[:], false)
	case board.Rook:
		return c.slideMoves(moves, rookDirections[:], false)
	case board.Queen:
		return c.slideMoves(moves, queenDirections[:], false)
	case board.King:
		return c.stepMoves(moves, kingOffsets[:])
	}
	return moves
}

func bounceMoves(c *genContext, moves []Move) []Move {
	if !c.p.Type.Slider() || !c.fx.HasOnPiece(effects.Rebondir, c.p.ID) {
		return moves
	}
	switch c.p.Type {
	case board.Bishop:
		return c.slideMoves(moves, bishopDirections[:], true)
	case board.Rook:
		return c.slideMoves(moves, rookDirections[:], true)
	default:
		return c.slideMoves(moves, queenDirections[:], true)
	}
}

func grantedMoves(c *genContext, moves []Move) []Move {
	if c.fx.HasOnPiece(effects.Adoubement, c.p.ID) {
		moves = c.stepMoves(moves, knightOffsets[:])
	}
	if c.fx.HasOnPiece(effects.Folie, c.p.ID) {
		moves = c.slideMoves(moves, bishopDirections[:], false)
	}
	if c.fx.HasOnPiece(effects.Fortification, c.p.ID) {
		moves = c.slideMoves(moves, rookDirections[:], false)
	}
	return moves
}

func teleportMoves(c *genContext, moves []Move) []Move {
	if !c.fx.HasOnPiece(effects.Teleport, c.p.ID) {
		return moves
	}
	for _, sq := range c.b.EmptySquares() {
		moves = append(moves, Move{From: c.p.Square, To: sq})
	}
	return moves
}

func cornerMoves(c *genContext, moves []Move) []Move {
	e := c.fx.OnPiece(effects.Coincoin, c.p.ID)
	if e == nil {
		return moves
	}
	for _, sq := range e.AllowedSquares {
		if sq == c.p.Square {
			continue
		}
		if _, ok := c.b.Coord(sq); !ok || c.b.PieceAt(sq) != nil {
			continue
		}
		moves = append(moves, Move{From: c.p.Square, To: sq})
	}
	return moves
}
