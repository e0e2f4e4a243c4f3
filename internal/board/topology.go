package board

import "fmt"

// transform moves every piece through fn and resizes the board. The returned
// SquareMap translates squares of the old geometry into the new one, so that
// callers can remap anything else that refers to squares.
func (b *Board) transform(width, height int, fn func(Coord) Coord) SquareMap {
	oldW, oldH := b.Width, b.Height
	m := func(sq string) (string, bool) {
		c, err := ParseSquare(sq)
		if err != nil || c.X < 0 || c.X >= oldW || c.Y < 0 || c.Y >= oldH {
			return "", false
		}
		return fn(c).Square(), true
	}
	b.Width, b.Height = width, height
	for _, p := range b.Pieces {
		if to, ok := m(p.Square); ok {
			p.Square = to
		}
	}
	return m
}

// Grow adds one file and one rank on every side of the board:
// (x, y) -> (x+1, y+1).
func (b *Board) Grow() (SquareMap, error) {
	if b.Width+2 > MaxWidth {
		return nil, fmt.Errorf("grow %dx%d: %w", b.Width, b.Height, ErrBoardTooLarge)
	}
	return b.transform(b.Width+2, b.Height+2, func(c Coord) Coord {
		return Coord{X: c.X + 1, Y: c.Y + 1}
	}), nil
}

// MirrorFiles reflects the board left to right: (x, y) -> (w-1-x, y).
func (b *Board) MirrorFiles() SquareMap {
	w := b.Width
	return b.transform(b.Width, b.Height, func(c Coord) Coord {
		return Coord{X: w - 1 - c.X, Y: c.Y}
	})
}

// MirrorRanks reflects the board top to bottom: (x, y) -> (x, h-1-y).
func (b *Board) MirrorRanks() SquareMap {
	h := b.Height
	return b.transform(b.Width, b.Height, func(c Coord) Coord {
		return Coord{X: c.X, Y: h - 1 - c.Y}
	})
}

// Reassign moves each listed piece to the square given in dest, all at once.
// Every destination must be on the board, and after the move no two pieces
// may share a square; otherwise nothing changes.
func (b *Board) Reassign(dest map[int]string) error {
	next := make(map[int]string, len(b.Pieces))
	taken := make(map[string]int, len(b.Pieces))
	for _, p := range b.Pieces {
		sq := p.Square
		if d, ok := dest[p.ID]; ok {
			if _, ok := b.Coord(d); !ok {
				return fmt.Errorf("reassign %d to %s: %w", p.ID, d, ErrOffBoard)
			}
			sq = d
		}
		if other, dup := taken[sq]; dup {
			return fmt.Errorf("reassign: pieces %d and %d on %s: %w", other, p.ID, sq, ErrOccupied)
		}
		taken[sq] = p.ID
		next[p.ID] = sq
	}
	for _, p := range b.Pieces {
		p.Square = next[p.ID]
	}
	return nil
}
