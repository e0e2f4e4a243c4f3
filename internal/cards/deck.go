package cards

import (
	"math/rand/v2"
	"slices"
)

// CopiesPerCard is how many copies of each catalog card a fresh deck holds.
const CopiesPerCard = 2

// Deck is a room's draw pile and discard pile. The top of the pile is the
// last element.
type Deck struct {
	Pile    []Card `json:"pile"`
	Discard []Card `json:"discard"`

	rng *rand.Rand
}

// NewDeck builds a shuffled deck holding copies of every card in cat. A nil
// rng uses a randomly seeded source.
func NewDeck(cat *Catalog, copies int, rng *rand.Rand) *Deck {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	d := &Deck{rng: rng}
	for _, c := range cat.List() {
		for i := 0; i < copies; i++ {
			d.Pile = append(d.Pile, c)
		}
	}
	d.Shuffle()
	return d
}

// Shuffle randomises the draw pile in place.
func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.Pile), func(i, j int) { d.Pile[i], d.Pile[j] = d.Pile[j], d.Pile[i] })
}

// Reshuffle moves the discard pile under the draw pile and shuffles. It
// reports false when there was nothing to move.
func (d *Deck) Reshuffle() bool {
	if len(d.Discard) == 0 {
		return false
	}
	d.Pile = append(d.Pile, d.Discard...)
	d.Discard = nil
	d.Shuffle()
	return true
}

// Draw pops the top card. When the pile is empty and allowReshuffle is set,
// the discard pile is reshuffled first and reshuffled reports it.
func (d *Deck) Draw(allowReshuffle bool) (card Card, reshuffled, ok bool) {
	if len(d.Pile) == 0 {
		if !allowReshuffle || !d.Reshuffle() {
			return Card{}, false, false
		}
		reshuffled = true
	}
	n := len(d.Pile) - 1
	card = d.Pile[n]
	d.Pile = d.Pile[:n]
	return card, reshuffled, true
}

// DiscardCard puts c on the discard pile.
func (d *Deck) DiscardCard(c Card) {
	d.Discard = append(d.Discard, c)
}

// Clone copies both piles. The random source is shared.
func (d *Deck) Clone() *Deck {
	return &Deck{Pile: slices.Clone(d.Pile), Discard: slices.Clone(d.Discard), rng: d.rng}
}
