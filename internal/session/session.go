package session

import (
	"encoding/json"
	"sync"
	"time"

	"chessnut/internal/game"
)

// Message is the envelope every outbound frame uses.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Session is one room plus the live connections of its players. Every
// access to the room goes through the session lock.
type Session struct {
	mu        sync.Mutex
	Code      string
	CreatedAt time.Time
	room      *game.Room
	conns     map[string]chan []byte
	timers    map[string]*time.Timer
}

// NewSession wraps a room.
func NewSession(room *game.Room) *Session {
	return &Session{
		Code:      room.Code,
		CreatedAt: time.Now(),
		room:      room,
		conns:     make(map[string]chan []byte),
		timers:    make(map[string]*time.Timer),
	}
}

// Info describes a room for the HTTP API.
type Info struct {
	Code    string        `json:"code"`
	Status  game.Status   `json:"status"`
	HostID  string        `json:"hostId"`
	Players []game.Player `json:"players"`
	Options game.Options  `json:"options"`
}

// Info returns the room summary.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := Info{
		Code:    s.Code,
		Status:  s.room.Status,
		HostID:  s.room.HostID,
		Options: s.room.Options,
		Players: []game.Player{},
	}
	for _, p := range s.room.Players {
		info.Players = append(info.Players, *p)
	}
	return info
}

// Read runs fn under the session lock without publishing anything.
func (s *Session) Read(fn func(r *game.Room)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.room)
}

// Send queues a frame for one player. Frames to slow players are dropped.
func (s *Session) Send(playerID string, msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendLocked(playerID, msg)
}

func (s *Session) sendLocked(playerID string, msg Message) {
	ch, ok := s.conns[playerID]
	if !ok {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case ch <- data:
	default:
		// drop message if buffer full
	}
}

func (s *Session) exec(fn func(r *game.Room) ([]game.Event, error)) (record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events, err := fn(s.room)
	if err != nil {
		return record{}, err
	}
	s.publishLocked(events)
	return recordOf(s.room, events), nil
}

// publishLocked delivers events to the players allowed to see them and then
// refreshes every player's view.
func (s *Session) publishLocked(events []game.Event) {
	for _, ev := range events {
		for id := range s.conns {
			if ev.VisibleTo(id) {
				s.sendLocked(id, Message{Type: string(ev.Type), Payload: ev.Payload})
			}
		}
	}
	for id := range s.conns {
		s.sendLocked(id, Message{Type: "state", Payload: s.room.View(id)})
	}
}

// Connected reports whether the player has a live connection.
func (s *Session) Connected(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.conns[playerID]
	return ok
}

func (s *Session) stopTimerLocked(playerID string) {
	if t, ok := s.timers[playerID]; ok {
		t.Stop()
		delete(s.timers, playerID)
	}
}

func (s *Session) stopTimers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.timers {
		s.stopTimerLocked(id)
	}
}
