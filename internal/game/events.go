package game

import (
	"chessnut/internal/effects"
)

// EventType names an outbound notice.
type EventType string

const (
	EventPlayerJoined   EventType = "player_joined"
	EventPlayerLeft     EventType = "player_left"
	EventGameStarted    EventType = "game_started"
	EventOptionChanged  EventType = "option_changed"
	EventMove           EventType = "move"
	EventCardPlayed     EventType = "card_played"
	EventCardFailed     EventType = "card_failed"
	EventCardDrawn      EventType = "card_drawn"
	EventCardStolen     EventType = "card_stolen"
	EventDeckReshuffled EventType = "deck_reshuffled"
	EventEffectApplied  EventType = "effect_applied"
	EventEffectUpdated  EventType = "effect_updated"
	EventEffectRemoved  EventType = "effect_removed"
	EventMineDetonated  EventType = "mine_detonated"
	EventTotemConsumed  EventType = "totem_consumed"
	EventGameOver       EventType = "game_over"
)

// Event is one outbound notice. An empty To means every player receives it;
// otherwise only the named player does.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
	To      string    `json:"-"`
}

// Public reports whether every player receives the event.
func (e Event) Public() bool { return e.To == "" }

// VisibleTo reports whether playerID receives the event.
func (e Event) VisibleTo(playerID string) bool { return e.To == "" || e.To == playerID }

// MovePayload describes an applied move.
type MovePayload struct {
	PlayerID string `json:"playerId"`
	PieceID  int    `json:"pieceId"`
	From     string `json:"from"`
	To       string `json:"to"`
	Capture  bool   `json:"capture,omitempty"`
	Sniper   bool   `json:"sniper,omitempty"`
}

// CardPayload describes a played or failed card. CardID and Target are left
// empty in the copy sent to the opponent when the card is secret.
type CardPayload struct {
	PlayerID string   `json:"playerId"`
	CardID   string   `json:"cardId,omitempty"`
	Title    string   `json:"title,omitempty"`
	Target   *Payload `json:"target,omitempty"`
	Hidden   bool     `json:"hidden,omitempty"`
	Reason   string   `json:"reason,omitempty"`
}

// EffectPayload carries an effect change.
type EffectPayload struct {
	Effect effects.Effect `json:"effect"`
}

// MinePayload describes a detonation.
type MinePayload struct {
	Square   string `json:"square"`
	PieceID  int    `json:"pieceId"`
	OwnerID  string `json:"ownerId"`
	VictimID string `json:"victimId"`
}

// GameOverPayload is the final result.
type GameOverPayload struct {
	Result Result `json:"result"`
}

func (r *Room) broadcast(events *[]Event, t EventType, payload any) {
	*events = append(*events, Event{Type: t, Payload: payload})
}

func (r *Room) send(events *[]Event, to string, t EventType, payload any) {
	*events = append(*events, Event{Type: t, Payload: payload, To: to})
}

// sendOthers addresses a copy to every player except playerID.
func (r *Room) sendOthers(events *[]Event, playerID string, t EventType, payload any) {
	for _, p := range r.Players {
		if p.ID != playerID {
			r.send(events, p.ID, t, payload)
		}
	}
}

// drainEffects turns the registry journal into notices. Secret effects and
// effects riding an invisible piece only reach their owner.
func (r *Room) drainEffects(events *[]Event) {
	for _, ch := range r.Effects.Drain() {
		var t EventType
		switch ch.Kind {
		case effects.Added:
			t = EventEffectApplied
		case effects.Updated:
			t = EventEffectUpdated
		default:
			t = EventEffectRemoved
		}
		payload := EffectPayload{Effect: ch.Effect}
		if r.secretEffect(&ch.Effect) {
			r.send(events, ch.Effect.PlayerID, t, payload)
			continue
		}
		r.broadcast(events, t, payload)
	}
}

func (r *Room) secretEffect(e *effects.Effect) bool {
	if e.Hidden {
		return true
	}
	if e.Bound() {
		if p := r.Board.Piece(e.PieceID); p != nil && p.Invisible {
			return true
		}
	}
	return false
}
