// Package cards holds the power card catalog, the shared deck and the
// per-player hands.
package cards

import (
	"fmt"
	"sync"
)

// ID is the stable slug identifying a card kind.
type ID string

const (
	Adoubement     ID = "adoubement"
	Folie          ID = "folie"
	Fortification  ID = "fortification"
	Anneau         ID = "anneau"
	Rebond         ID = "rebond"
	Teleport       ID = "teleport"
	Coincoin       ID = "coincoin"
	Sniper         ID = "sniper"
	Invisible      ID = "invisible"
	Doppelganger   ID = "doppelganger"
	Toucher        ID = "toucher"
	ToutOuRien     ID = "tout_ou_rien"
	Promotion      ID = "promotion"
	Parrure        ID = "parrure"
	Kamikaze       ID = "kamikaze"
	Melange        ID = "melange"
	Revolution     ID = "revolution"
	Empathie       ID = "empathie"
	Agrandissement ID = "agrandissement"
	Miroir         ID = "miroir"
	Inversion      ID = "inversion"
	VolePiece      ID = "vole_piece"
	VoleCarte      ID = "vole_carte"
	Resurrection   ID = "resurrection"
	Mine           ID = "mine"
	Totem          ID = "totem"
	Double         ID = "double"
	Brouillard     ID = "brouillard"
	TousLesMemes   ID = "tous_les_memes"
	SansEffet      ID = "sans_effet"
)

// Card is an immutable catalog entry. Decks and hands hold value copies.
type Card struct {
	ID          ID     `json:"cardId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	// Hidden cards are announced to the opponent without their identity.
	Hidden bool `json:"hidden,omitempty"`
	// EndsTurn cards use up the player's move instead of granting a free one.
	EndsTurn bool `json:"endsTurn,omitempty"`
}

// Catalog holds every known card kind in registration order.
type Catalog struct {
	mu    sync.RWMutex
	cards map[ID]Card
	order []ID
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{cards: make(map[ID]Card)}
}

// Register adds a card kind. Panics on duplicate ids.
func (c *Catalog) Register(card Card) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.cards[card.ID]; exists {
		panic(fmt.Sprintf("card %q already registered", card.ID))
	}
	c.cards[card.ID] = card
	c.order = append(c.order, card.ID)
}

// Get returns a card by id.
func (c *Catalog) Get(id ID) (Card, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	card, ok := c.cards[id]
	return card, ok
}

// List returns all cards in registration order.
func (c *Catalog) List() []Card {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Card, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.cards[id])
	}
	return out
}

// IDs returns every registered id in registration order.
func (c *Catalog) IDs() []ID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]ID(nil), c.order...)
}

var builtin = []Card{
	{ID: Adoubement, Title: "Adoubement", Description: "Target one of your pieces: it also moves like a knight."},
	{ID: Folie, Title: "Folie", Description: "Target one of your pieces: it also slides diagonally like a bishop."},
	{ID: Fortification, Title: "Fortification", Description: "Target one of your pieces: it also slides orthogonally like a rook."},
	{ID: Anneau, Title: "Anneau", Description: "For two of your turns your pieces wrap around the left and right edges."},
	{ID: Rebond, Title: "Rebond", Description: "Target one of your sliding pieces: its next slide may bounce once off an edge."},
	{ID: Teleport, Title: "Téléportation", Description: "Target one of your pieces: this turn it may move to any empty square."},
	{ID: Coincoin, Title: "Coin-coin", Description: "Target one of your pieces standing on a corner: it may jump to another empty corner."},
	{ID: Sniper, Title: "Sniper", Description: "Target one of your pieces: its next capture happens without moving."},
	{ID: Invisible, Title: "Invisible", Description: "Target one of your pieces other than the king: your opponent cannot see it."},
	{ID: Doppelganger, Title: "Doppelgänger", Description: "Target one of your pieces: it becomes whatever it captures."},
	{ID: Toucher, Title: "Pièce touchée", Description: "Target an enemy piece: your opponent must move it on their next turn."},
	{ID: ToutOuRien, Title: "Tout ou rien", Description: "Target an enemy piece: on their next turn it may only move to capture."},
	{ID: Promotion, Title: "Promotion", Description: "Target one of your pawns: it becomes a queen."},
	{ID: Parrure, Title: "Parrure", Description: "Target an enemy queen: it becomes a pawn."},
	{ID: Kamikaze, Title: "Kamikaze", Description: "Target one of your pieces other than the king: it explodes with every adjacent piece. Ends your turn.", EndsTurn: true},
	{ID: Melange, Title: "Mélange", Description: "Every piece except the kings is shuffled across the occupied squares."},
	{ID: Revolution, Title: "Révolution", Description: "Piece types are shuffled within each side. Kings stay kings."},
	{ID: Empathie, Title: "Empathie", Description: "The board is turned around and the sides swap colors."},
	{ID: Agrandissement, Title: "Agrandissement", Description: "The board grows by one square on every side."},
	{ID: Miroir, Title: "Miroir", Description: "The board is mirrored from left to right."},
	{ID: Inversion, Title: "Inversion", Description: "Swap one of your pieces with an enemy piece. Ends your turn.", EndsTurn: true},
	{ID: VolePiece, Title: "Vol de pièce", Description: "Target an enemy piece other than the king: it joins your side. Ends your turn.", EndsTurn: true},
	{ID: VoleCarte, Title: "Vol de carte", Description: "Take a random card from your opponent's hand."},
	{ID: Resurrection, Title: "Résurrection", Description: "Bring one of your captured pieces back on an empty square."},
	{ID: Mine, Title: "Mine", Description: "Hide a mine on an empty square: the next enemy piece landing there is destroyed.", Hidden: true},
	{ID: Totem, Title: "Totem", Description: "The next card your opponent plays has no effect.", Hidden: true},
	{ID: Double, Title: "Double", Description: "Move twice this turn. The second move may not capture."},
	{ID: Brouillard, Title: "Brouillard", Description: "For two of your turns your opponent only sees your pieces next to theirs."},
	{ID: TousLesMemes, Title: "Tous les mêmes", Description: "For two of your turns your opponent sees all your pieces as pawns."},
	{ID: SansEffet, Title: "Sans effet", Description: "Nothing happens."},
}

// BuildCatalog returns the full, deterministic card catalog.
func BuildCatalog() *Catalog {
	c := NewCatalog()
	for _, card := range builtin {
		c.Register(card)
	}
	return c
}
