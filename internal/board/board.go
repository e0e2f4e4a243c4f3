package board

import (
	"errors"
	"fmt"
	"slices"
)

// Color is a side: "w" or "b".
type Color string

const (
	White Color = "w"
	Black Color = "b"
)

func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

// PieceType is one of P, N, B, R, Q, K.
type PieceType string

const (
	Pawn   PieceType = "P"
	Knight PieceType = "N"
	Bishop PieceType = "B"
	Rook   PieceType = "R"
	Queen  PieceType = "Q"
	King   PieceType = "K"
)

// Slider reports whether pieces of this type move by sliding.
func (t PieceType) Slider() bool {
	return t == Bishop || t == Rook || t == Queen
}

// Piece is a single piece on the board. ID is stable for the piece's lifetime
// and is never reused by the board that issued it.
type Piece struct {
	ID        int       `json:"id"`
	Square    string    `json:"square"`
	Type      PieceType `json:"type"`
	Color     Color     `json:"color"`
	Promoted  bool      `json:"promoted,omitempty"`
	Invisible bool      `json:"invisible,omitempty"`
}

var (
	ErrOffBoard      = errors.New("square is off the board")
	ErrOccupied      = errors.New("square is occupied")
	ErrUnknownPiece  = errors.New("unknown piece")
	ErrBoardTooLarge = errors.New("board cannot grow any further")
)

// Board is the wire-visible board state. Its JSON shape is the snapshot
// contract: width, height, turn, version, pieces.
type Board struct {
	Width   int      `json:"width"`
	Height  int      `json:"height"`
	Turn    Color    `json:"turn"`
	Version int      `json:"version"`
	Pieces  []*Piece `json:"pieces"`

	nextID int
}

// New returns an empty board with white to move.
func New(width, height int) *Board {
	if width > MaxWidth {
		width = MaxWidth
	}
	return &Board{Width: width, Height: height, Turn: White, nextID: 1}
}

// PieceAt returns the piece on sq, or nil.
func (b *Board) PieceAt(sq string) *Piece {
	for _, p := range b.Pieces {
		if p.Square == sq {
			return p
		}
	}
	return nil
}

// Piece returns the piece with the given id, or nil.
func (b *Board) Piece(id int) *Piece {
	for _, p := range b.Pieces {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Add creates a new piece with a fresh id on an empty square.
func (b *Board) Add(t PieceType, c Color, sq string) (*Piece, error) {
	p := &Piece{Type: t, Color: c}
	if err := b.Place(p, sq); err != nil {
		return nil, err
	}
	return p, nil
}

// Place puts p on sq, assigning it an id if it has none.
func (b *Board) Place(p *Piece, sq string) error {
	if _, ok := b.Coord(sq); !ok {
		return fmt.Errorf("place %s: %w", sq, ErrOffBoard)
	}
	if b.PieceAt(sq) != nil {
		return fmt.Errorf("place %s: %w", sq, ErrOccupied)
	}
	if b.nextID < 1 {
		b.nextID = 1
	}
	if p.ID == 0 {
		p.ID = b.nextID
	}
	if p.ID >= b.nextID {
		b.nextID = p.ID + 1
	}
	p.Square = sq
	b.Pieces = append(b.Pieces, p)
	return nil
}

// Remove takes the piece off the board and returns it.
func (b *Board) Remove(id int) (*Piece, error) {
	for i, p := range b.Pieces {
		if p.ID == id {
			b.Pieces = slices.Delete(b.Pieces, i, i+1)
			return p, nil
		}
	}
	return nil, fmt.Errorf("remove %d: %w", id, ErrUnknownPiece)
}

// Move relocates a piece onto an empty square.
func (b *Board) Move(id int, to string) error {
	p := b.Piece(id)
	if p == nil {
		return fmt.Errorf("move %d: %w", id, ErrUnknownPiece)
	}
	if _, ok := b.Coord(to); !ok {
		return fmt.Errorf("move %d to %s: %w", id, to, ErrOffBoard)
	}
	if occ := b.PieceAt(to); occ != nil && occ.ID != id {
		return fmt.Errorf("move %d to %s: %w", id, to, ErrOccupied)
	}
	p.Square = to
	return nil
}

// Kings reports which colors still have a king on the board.
func (b *Board) Kings() (white, black bool) {
	for _, p := range b.Pieces {
		if p.Type != King {
			continue
		}
		switch p.Color {
		case White:
			white = true
		case Black:
			black = true
		}
	}
	return white, black
}

// EmptySquares lists every unoccupied square in rank-major order.
func (b *Board) EmptySquares() []string {
	var out []string
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			sq := Coord{X: x, Y: y}.Square()
			if b.PieceAt(sq) == nil {
				out = append(out, sq)
			}
		}
	}
	return out
}

// PiecesOf returns the pieces of color c.
func (b *Board) PiecesOf(c Color) []*Piece {
	var out []*Piece
	for _, p := range b.Pieces {
		if p.Color == c {
			out = append(out, p)
		}
	}
	return out
}

// Bump advances the board version.
func (b *Board) Bump() { b.Version++ }

// Clone returns a deep copy, including the id counter.
func (b *Board) Clone() *Board {
	nb := *b
	nb.Pieces = make([]*Piece, len(b.Pieces))
	for i, p := range b.Pieces {
		cp := *p
		nb.Pieces[i] = &cp
	}
	return &nb
}

// Validate checks that ids and squares are unique and on the board.
func (b *Board) Validate() error {
	ids := make(map[int]bool, len(b.Pieces))
	squares := make(map[string]bool, len(b.Pieces))
	for _, p := range b.Pieces {
		if ids[p.ID] {
			return fmt.Errorf("duplicate piece id %d", p.ID)
		}
		ids[p.ID] = true
		if squares[p.Square] {
			return fmt.Errorf("two pieces on %s", p.Square)
		}
		squares[p.Square] = true
		if _, ok := b.Coord(p.Square); !ok {
			return fmt.Errorf("piece %d on %s: %w", p.ID, p.Square, ErrOffBoard)
		}
		if b.nextID > 0 && p.ID >= b.nextID {
			return fmt.Errorf("piece id %d not issued by this board", p.ID)
		}
	}
	return nil
}

// MustValidate panics on an invariant violation.
func (b *Board) MustValidate() {
	if err := b.Validate(); err != nil {
		panic("board invariant violated: " + err.Error())
	}
}
