package board

import (
	"fmt"
	"strconv"
)

// MaxWidth is the widest board the algebraic codec can address (files a-z).
const MaxWidth = 26

// Coord is a zero-based board coordinate. X is the file, Y the rank.
type Coord struct {
	X int
	Y int
}

// Square returns the algebraic name of c, e.g. {4, 1} -> "e2".
func (c Coord) Square() string {
	return string(rune('a'+c.X)) + strconv.Itoa(c.Y+1)
}

// Add offsets c without any bounds check.
func (c Coord) Add(dx, dy int) Coord {
	return Coord{X: c.X + dx, Y: c.Y + dy}
}

// ParseSquare decodes an algebraic square. It does not check board bounds.
func ParseSquare(sq string) (Coord, error) {
	if len(sq) < 2 {
		return Coord{}, fmt.Errorf("square %q too short", sq)
	}
	f := sq[0]
	if f < 'a' || f > 'z' {
		return Coord{}, fmt.Errorf("square %q: bad file", sq)
	}
	rank, err := strconv.Atoi(sq[1:])
	if err != nil || rank < 1 {
		return Coord{}, fmt.Errorf("square %q: bad rank", sq)
	}
	return Coord{X: int(f - 'a'), Y: rank - 1}, nil
}

// InBounds reports whether c lies on the board.
func (b *Board) InBounds(c Coord) bool {
	return c.X >= 0 && c.X < b.Width && c.Y >= 0 && c.Y < b.Height
}

// Coord decodes sq and checks it against the board size.
func (b *Board) Coord(sq string) (Coord, bool) {
	c, err := ParseSquare(sq)
	if err != nil || !b.InBounds(c) {
		return Coord{}, false
	}
	return c, true
}

// SquareAt encodes (x, y) if it is on the board.
func (b *Board) SquareAt(x, y int) (string, bool) {
	c := Coord{X: x, Y: y}
	if !b.InBounds(c) {
		return "", false
	}
	return c.Square(), true
}

// SquareMap translates a pre-transform square into its post-transform square.
// ok is false for squares that were not on the board.
type SquareMap func(sq string) (string, bool)

// Corners lists the four corner squares.
func (b *Board) Corners() []string {
	w, h := b.Width-1, b.Height-1
	return []string{
		Coord{0, 0}.Square(),
		Coord{w, 0}.Square(),
		Coord{0, h}.Square(),
		Coord{w, h}.Square(),
	}
}

// IsCorner reports whether sq is one of the four corners.
func (b *Board) IsCorner(sq string) bool {
	c, ok := b.Coord(sq)
	if !ok {
		return false
	}
	return (c.X == 0 || c.X == b.Width-1) && (c.Y == 0 || c.Y == b.Height-1)
}

// Adjacent returns the on-board king-step neighbours of sq.
func (b *Board) Adjacent(sq string) []string {
	c, ok := b.Coord(sq)
	if !ok {
		return nil
	}
	var out []string
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if n, ok := b.SquareAt(c.X+dx, c.Y+dy); ok {
				out = append(out, n)
			}
		}
	}
	return out
}
