// Package game is the rules engine of a room: lifecycle, move resolution,
// card play and per-player views. A Room is not safe for concurrent use; the
// session layer serialises every call for a given room.
package game

import (
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"

	"chessnut/internal/board"
	"chessnut/internal/cards"
	"chessnut/internal/effects"
)

// Status represents the room lifecycle.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Player is a seat in the room.
type Player struct {
	ID        string      `json:"id"`
	Color     board.Color `json:"color"`
	Connected bool        `json:"connected"`
}

// Options are the host-controlled room settings.
type Options struct {
	AutoDraw    bool `json:"autoDraw"`
	NoRemise    bool `json:"noRemise"`
	InitialHand int  `json:"initialHand"`
}

// DefaultOptions draws automatically and deals two cards.
func DefaultOptions() Options {
	return Options{AutoDraw: true, InitialHand: 2}
}

// Captured records a piece taken off the board.
type Captured struct {
	ID              string      `json:"id"`
	Piece           board.Piece `json:"piece"`
	OriginalOwnerID string      `json:"originalOwnerId"`
	CapturedBy      string      `json:"capturedBy"`
	Timestamp       time.Time   `json:"timestamp"`
}

// Result is the outcome of a finished game.
type Result struct {
	Winner      string      `json:"winner,omitempty"`
	WinnerColor board.Color `json:"winnerColor,omitempty"`
	Draw        bool        `json:"draw,omitempty"`
	Reason      string      `json:"reason"`
}

// TurnState is scratch state for the turn in progress. It is replaced
// wholesale when the turn passes.
type TurnState struct {
	CardPlayed bool `json:"cardPlayed"`
	FreeMove   bool `json:"freeMove"`
	Drew       bool `json:"-"`
}

// Room is the state one match runs on.
type Room struct {
	Code     string
	HostID   string
	Status   Status
	Options  Options
	Players  []*Player
	Board    *board.Board
	Effects  *effects.Registry
	Deck     *cards.Deck
	Hands    map[string]*cards.Hand
	Captured []Captured
	Turn     TurnState
	Result   *Result

	catalog *cards.Catalog
	rng     *rand.Rand
	now     func() time.Time
	// drawnAt is the board version of each player's last draw.
	drawnAt map[string]int
	// drewLastTurn remembers whether the player drew during their last turn.
	drewLastTurn map[string]bool
}

// NewRoom creates a waiting room. A nil rng uses a randomly seeded source.
func NewRoom(code string, opts Options, catalog *cards.Catalog, rng *rand.Rand) *Room {
	if catalog == nil {
		catalog = cards.BuildCatalog()
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Room{
		Code:         code,
		Status:       StatusWaiting,
		Options:      opts,
		Board:        board.Standard(),
		Effects:      effects.NewRegistry(),
		Hands:        make(map[string]*cards.Hand),
		catalog:      catalog,
		rng:          rng,
		now:          time.Now,
		drawnAt:      make(map[string]int),
		drewLastTurn: make(map[string]bool),
	}
}

// SetClock overrides the timestamp source for captures and effects.
func (r *Room) SetClock(now func() time.Time) {
	r.now = now
	r.Effects.SetClock(now)
}

// Player returns the seat with the given id, or nil.
func (r *Room) Player(id string) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PlayerByColor returns the seat playing c, or nil.
func (r *Room) PlayerByColor(c board.Color) *Player {
	for _, p := range r.Players {
		if p.Color == c {
			return p
		}
	}
	return nil
}

// Opponent returns the other seat, or nil.
func (r *Room) Opponent(id string) *Player {
	for _, p := range r.Players {
		if p.ID != id {
			return p
		}
	}
	return nil
}

// Hand returns a player's hand, creating it on first use.
func (r *Room) Hand(playerID string) *cards.Hand {
	h, ok := r.Hands[playerID]
	if !ok {
		h = &cards.Hand{}
		r.Hands[playerID] = h
	}
	return h
}

// Join seats a player or reconnects a known one. An empty id is replaced
// with a fresh one. The first player hosts and plays white.
func (r *Room) Join(playerID string) (*Player, []Event, error) {
	var events []Event
	if p := r.Player(playerID); p != nil {
		p.Connected = true
		if r.Status == StatusPlaying && r.Hand(p.ID).Len() == 0 {
			r.draw(&events, p.ID)
		}
		r.drainEffects(&events)
		return p, events, nil
	}
	if r.Status != StatusWaiting {
		return nil, nil, ErrGameInProgress
	}
	if len(r.Players) >= 2 {
		return nil, nil, ErrRoomFull
	}
	if playerID == "" {
		playerID = uuid.NewString()
	}
	color := board.White
	if len(r.Players) == 1 {
		color = r.Players[0].Color.Opposite()
	}
	p := &Player{ID: playerID, Color: color, Connected: true}
	r.Players = append(r.Players, p)
	if r.HostID == "" {
		r.HostID = playerID
	}
	r.broadcast(&events, EventPlayerJoined, p)
	return p, events, nil
}

// Leave removes a player from a waiting room. It reports whether the host
// left, in which case the room should be discarded. Once the game has
// started, leaving only marks the player disconnected.
func (r *Room) Leave(playerID string) (hostLeft bool, events []Event, err error) {
	i := slices.IndexFunc(r.Players, func(p *Player) bool { return p.ID == playerID })
	if i < 0 {
		return false, nil, ErrPlayerNotInRoom
	}
	if r.Status != StatusWaiting {
		r.Players[i].Connected = false
		return false, nil, nil
	}
	r.Players = slices.Delete(r.Players, i, i+1)
	delete(r.Hands, playerID)
	r.broadcast(&events, EventPlayerLeft, map[string]string{"playerId": playerID})
	if playerID == r.HostID {
		r.HostID = ""
		return true, events, nil
	}
	return false, events, nil
}

// Disconnect marks a player as gone without freeing the seat.
func (r *Room) Disconnect(playerID string) {
	if p := r.Player(playerID); p != nil {
		p.Connected = false
	}
}

// Forfeit ends a running game in favour of the other player. It is used when
// a disconnected player's grace period runs out.
func (r *Room) Forfeit(playerID string) []Event {
	if r.Status != StatusPlaying || r.Player(playerID) == nil {
		return nil
	}
	var events []Event
	res := Result{Reason: "forfeit"}
	if opp := r.Opponent(playerID); opp != nil {
		res.Winner, res.WinnerColor = opp.ID, opp.Color
	} else {
		res.Draw = true
	}
	r.finish(&events, res)
	return events
}

// Start deals the opening position, the deck and the starting hands.
func (r *Room) Start(playerID string) ([]Event, error) {
	if r.Player(playerID) == nil {
		return nil, ErrNotJoined
	}
	if playerID != r.HostID {
		return nil, ErrNotHost
	}
	switch r.Status {
	case StatusPlaying:
		return nil, ErrGameInProgress
	case StatusFinished:
		return nil, ErrGameFinished
	}
	if len(r.Players) < 2 {
		return nil, ErrNotEnoughPlayers
	}

	r.Board = board.Standard()
	r.Effects = effects.NewRegistry()
	r.Effects.SetClock(r.now)
	r.Deck = cards.NewDeck(r.catalog, cards.CopiesPerCard, r.rng)
	r.Captured = nil
	r.Result = nil
	r.Turn = TurnState{}
	clear(r.drawnAt)
	clear(r.drewLastTurn)

	var events []Event
	for _, p := range r.Players {
		h := &cards.Hand{}
		r.Hands[p.ID] = h
		for i := 0; i < r.Options.InitialHand; i++ {
			c, _, ok := r.Deck.Draw(false)
			if !ok || !h.Add(c) {
				break
			}
		}
	}
	r.Status = StatusPlaying
	r.broadcast(&events, EventGameStarted, map[string]any{"players": r.Players})
	return events, nil
}

// SetOption changes a boolean room option. Only the host may do it.
func (r *Room) SetOption(playerID, name string, value bool) ([]Event, error) {
	if r.Player(playerID) == nil {
		return nil, ErrNotJoined
	}
	if playerID != r.HostID {
		return nil, ErrNotHost
	}
	if r.Status == StatusFinished {
		return nil, ErrGameFinished
	}
	switch name {
	case "autoDraw":
		r.Options.AutoDraw = value
	case "noRemise":
		r.Options.NoRemise = value
	default:
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownOption)
	}
	var events []Event
	r.broadcast(&events, EventOptionChanged, r.Options)
	return events, nil
}

// finish ends the game with res.
func (r *Room) finish(events *[]Event, res Result) {
	r.Status = StatusFinished
	r.Result = &res
	r.broadcast(events, EventGameOver, GameOverPayload{Result: res})
}

// checkVictory ends the game when a king is missing: a draw when both are
// gone, otherwise a win for the side keeping its king.
func (r *Room) checkVictory(events *[]Event) bool {
	white, black := r.Board.Kings()
	if white && black {
		return false
	}
	res := Result{Reason: "king-captured"}
	switch {
	case !white && !black:
		res.Draw = true
	case white:
		res.WinnerColor = board.White
	default:
		res.WinnerColor = board.Black
	}
	if !res.Draw {
		if p := r.PlayerByColor(res.WinnerColor); p != nil {
			res.Winner = p.ID
		}
	}
	r.finish(events, res)
	return true
}

// capture takes a piece off the board into the captured list, dropping every
// effect bound to it.
func (r *Room) capture(p *board.Piece, by string) error {
	if _, err := r.Board.Remove(p.ID); err != nil {
		return err
	}
	r.Effects.RemoveBoundTo(p.ID)
	snap := *p
	snap.Invisible = false
	owner := ""
	if o := r.PlayerByColor(p.Color); o != nil {
		owner = o.ID
	}
	r.Captured = append(r.Captured, Captured{
		ID:              uuid.NewString(),
		Piece:           snap,
		OriginalOwnerID: owner,
		CapturedBy:      by,
		Timestamp:       r.now(),
	})
	return nil
}

// snapshot captures everything a rejected command might have touched.
type snapshot struct {
	board        *board.Board
	effects      *effects.Registry
	deck         *cards.Deck
	hands        map[string]*cards.Hand
	captured     []Captured
	turn         TurnState
	status       Status
	result       *Result
	drawnAt      map[string]int
	drewLastTurn map[string]bool
}

func (r *Room) snapshot() snapshot {
	s := snapshot{
		board:        r.Board.Clone(),
		effects:      r.Effects.Clone(),
		hands:        make(map[string]*cards.Hand, len(r.Hands)),
		captured:     slices.Clone(r.Captured),
		turn:         r.Turn,
		status:       r.Status,
		result:       r.Result,
		drawnAt:      maps.Clone(r.drawnAt),
		drewLastTurn: maps.Clone(r.drewLastTurn),
	}
	if r.Deck != nil {
		s.deck = r.Deck.Clone()
	}
	for id, h := range r.Hands {
		s.hands[id] = h.Clone()
	}
	return s
}

func (r *Room) applySnapshot(s snapshot) {
	r.Board = s.board
	r.Effects = s.effects
	r.Deck = s.deck
	r.Hands = s.hands
	r.Captured = s.captured
	r.Turn = s.turn
	r.Status = s.status
	r.Result = s.result
	r.drawnAt = s.drawnAt
	r.drewLastTurn = s.drewLastTurn
}

// atomically runs fn and rolls the room back if it fails.
func (r *Room) atomically(fn func(events *[]Event) error) ([]Event, error) {
	s := r.snapshot()
	var events []Event
	if err := fn(&events); err != nil {
		r.applySnapshot(s)
		return nil, err
	}
	r.drainEffects(&events)
	r.Board.MustValidate()
	return events, nil
}
