package game

import (
	"chessnut/internal/cards"
)

// requireTurn checks the common preconditions of an in-game command.
func (r *Room) requireTurn(playerID string) (*Player, error) {
	switch r.Status {
	case StatusFinished:
		return nil, ErrGameFinished
	case StatusWaiting:
		return nil, ErrNotPlaying
	}
	p := r.Player(playerID)
	if p == nil {
		return nil, ErrPlayerNotInRoom
	}
	if r.Board.Turn != p.Color {
		return nil, ErrNotYourTurn
	}
	return p, nil
}

// draw gives playerID the top card. It fails silently when the hand is full,
// both piles are exhausted (or reshuffling is disabled), or the player
// already drew at the current board version.
func (r *Room) draw(events *[]Event, playerID string) bool {
	if r.Deck == nil {
		return false
	}
	h := r.Hand(playerID)
	if h.Full() {
		return false
	}
	if v, ok := r.drawnAt[playerID]; ok && v == r.Board.Version {
		return false
	}
	card, reshuffled, ok := r.Deck.Draw(!r.Options.NoRemise)
	if !ok {
		return false
	}
	if reshuffled {
		r.broadcast(events, EventDeckReshuffled, map[string]int{"deckSize": len(r.Deck.Pile) + 1})
	}
	h.Add(card)
	r.drawnAt[playerID] = r.Board.Version
	if p := r.Player(playerID); p != nil && p.Color == r.Board.Turn {
		r.Turn.Drew = true
	}
	r.send(events, playerID, EventCardDrawn, map[string]any{"playerId": playerID, "card": card})
	r.sendOthers(events, playerID, EventCardDrawn, map[string]any{"playerId": playerID, "handSize": h.Len()})
	return true
}

// Draw is the manual draw command, available only when automatic drawing is
// off, before any card is played this turn, and not on two turns in a row.
func (r *Room) Draw(playerID string) ([]Event, error) {
	return r.atomically(func(events *[]Event) error {
		p, err := r.requireTurn(playerID)
		if err != nil {
			return err
		}
		if r.Options.AutoDraw {
			return ErrAutoDrawEnabled
		}
		if r.Turn.CardPlayed {
			return ErrCardAlreadyPlayed
		}
		if r.drewLastTurn[p.ID] {
			return ErrDrewOnPreviousTurn
		}
		if !r.draw(events, p.ID) {
			return ErrNoCardDrawn
		}
		return nil
	})
}

// endTurn passes the turn: the scratch state is reset, counted effects of
// the finished player tick down and the next player draws when the room
// draws automatically.
func (r *Room) endTurn(events *[]Event, finished *Player) {
	r.drewLastTurn[finished.ID] = r.Turn.Drew
	r.Turn = TurnState{}
	r.Board.Turn = r.Board.Turn.Opposite()
	r.Effects.DecrementTurnCounters(finished.ID)

	next := r.PlayerByColor(r.Board.Turn)
	if next != nil && r.Options.AutoDraw {
		r.draw(events, next.ID)
	}
}

// discard retires a played card. With no-remise the card leaves the game.
func (r *Room) discard(c cards.Card) {
	if r.Options.NoRemise || r.Deck == nil {
		return
	}
	r.Deck.DiscardCard(c)
}
