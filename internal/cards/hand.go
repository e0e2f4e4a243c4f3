package cards

import "slices"

// HandLimit caps how many cards a player may hold.
const HandLimit = 5

// Hand is a player's cards in the order they were received.
type Hand struct {
	Cards []Card `json:"cards"`
}

// Len returns the number of cards held.
func (h *Hand) Len() int { return len(h.Cards) }

// Full reports whether the hand is at capacity.
func (h *Hand) Full() bool { return len(h.Cards) >= HandLimit }

// Contains reports whether the hand holds a card with the given id.
func (h *Hand) Contains(id ID) bool {
	return h.index(id) >= 0
}

// Add appends c unless the hand is full.
func (h *Hand) Add(c Card) bool {
	if h.Full() {
		return false
	}
	h.Cards = append(h.Cards, c)
	return true
}

// Remove takes out the first card with the given id.
func (h *Hand) Remove(id ID) (Card, bool) {
	i := h.index(id)
	if i < 0 {
		return Card{}, false
	}
	c := h.Cards[i]
	h.Cards = slices.Delete(h.Cards, i, i+1)
	return c, true
}

// RemoveAt takes out the card at index i.
func (h *Hand) RemoveAt(i int) Card {
	c := h.Cards[i]
	h.Cards = slices.Delete(h.Cards, i, i+1)
	return c
}

// Clone returns an independent copy.
func (h *Hand) Clone() *Hand {
	return &Hand{Cards: slices.Clone(h.Cards)}
}

func (h *Hand) index(id ID) int {
	return slices.IndexFunc(h.Cards, func(c Card) bool { return c.ID == id })
}
