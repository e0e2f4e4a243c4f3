// Package effects holds the active-effect registry: modifiers bound to a
// player, a piece or a square, optionally counted down at turn boundaries.
package effects

import (
	"time"

	"chessnut/internal/board"
)

// Type names an effect family.
type Type string

const (
	Adoubement    Type = "adoubement"
	Folie         Type = "folie"
	Fortification Type = "fortification"
	Anneau        Type = "anneau"
	Rebondir      Type = "rebondir"
	Teleport      Type = "teleport"
	Coincoin      Type = "coincoin"
	Sniper        Type = "sniper"
	Invisible     Type = "invisible"
	Doppelganger  Type = "doppelganger"
	Toucher       Type = "toucher"
	ToutOuRien    Type = "tout_ou_rien"
	Mine          Type = "mine"
	Totem         Type = "totem"
	Double        Type = "double"
	Brouillard    Type = "brouillard"
	TousLesMemes  Type = "tous_les_memes"
)

// DecrementOn selects whose turn end counts down an effect.
type DecrementOn string

const (
	OnOwner    DecrementOn = "owner"
	OnOpponent DecrementOn = "opponent"
)

// Effect is one active modifier. PieceID is the canonical binding for piece
// effects; PieceSquare is a cache kept in sync by the registry.
type Effect struct {
	ID             string      `json:"id"`
	Type           Type        `json:"type"`
	PlayerID       string      `json:"playerId,omitempty"`
	Color          board.Color `json:"color,omitempty"`
	PieceID        int         `json:"pieceId,omitempty"`
	PieceSquare    string      `json:"pieceSquare,omitempty"`
	Square         string      `json:"square,omitempty"`
	RemainingTurns *int        `json:"remainingTurns,omitempty"`
	RemainingMoves *int        `json:"remainingMoves,omitempty"`
	DecrementOn    DecrementOn `json:"decrementOn,omitempty"`
	AllowedSquares []string    `json:"allowedSquares,omitempty"`
	Hidden         bool        `json:"hidden,omitempty"`
	TS             time.Time   `json:"ts"`
}

// Turns and Moves build counter pointers for Effect literals.
func Turns(n int) *int { return &n }
func Moves(n int) *int { return &n }

// Bound reports whether e follows a piece.
func (e *Effect) Bound() bool { return e.PieceID != 0 }

func (e *Effect) clone() *Effect {
	cp := *e
	if e.RemainingTurns != nil {
		cp.RemainingTurns = Turns(*e.RemainingTurns)
	}
	if e.RemainingMoves != nil {
		cp.RemainingMoves = Moves(*e.RemainingMoves)
	}
	if e.AllowedSquares != nil {
		cp.AllowedSquares = append([]string(nil), e.AllowedSquares...)
	}
	return &cp
}
