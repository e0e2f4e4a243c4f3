// Package session owns the live rooms. Every command for a room runs under
// that room's lock; the resulting events are delivered to connected players
// and journaled to the archive after the mutation is complete.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"chessnut/internal/cards"
	"chessnut/internal/game"
	"chessnut/internal/storage"
)

// Store is the room directory the transport depends on.
type Store interface {
	Create() (*Session, error)
	Get(code string) (*Session, bool)
	Delete(code string)
}

// Config holds the manager settings.
type Config struct {
	Defaults game.Options
	// Grace is how long a disconnected player keeps their seat.
	Grace time.Duration
}

// Manager manages all active sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	catalog  *cards.Catalog
	archive  *storage.Store
	cfg      Config
	log      *zap.Logger
}

var _ Store = (*Manager)(nil)

// NewManager creates a session manager. The archive may be nil.
func NewManager(cfg Config, catalog *cards.Catalog, archive *storage.Store, logger *zap.Logger) *Manager {
	if catalog == nil {
		catalog = cards.BuildCatalog()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		catalog:  catalog,
		archive:  archive,
		cfg:      cfg,
		log:      logger,
	}
}

// Catalog returns the card catalog rooms are dealt from.
func (m *Manager) Catalog() *cards.Catalog { return m.catalog }

// Create makes a new waiting room and archives it.
func (m *Manager) Create() (*Session, error) {
	m.mu.Lock()
	code := generateCode()
	for m.sessions[code] != nil {
		code = generateCode()
	}
	s := NewSession(game.NewRoom(code, m.cfg.Defaults, m.catalog, nil))
	m.sessions[code] = s
	m.mu.Unlock()

	if m.archive != nil {
		opts, _ := json.Marshal(m.cfg.Defaults)
		if err := m.archive.CreateRoom(code, string(opts)); err != nil {
			m.Delete(code)
			return nil, fmt.Errorf("archive room: %w", err)
		}
	}
	m.log.Info("room created", zap.String("room", code))
	return s, nil
}

// Get returns a session by code.
func (m *Manager) Get(code string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[code]
	return s, ok
}

// List returns info for all active sessions.
func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	infos := make([]Info, 0, len(m.sessions))
	for _, s := range m.sessions {
		infos = append(infos, s.Info())
	}
	return infos
}

// Delete drops a room from memory. Its archive is kept.
func (m *Manager) Delete(code string) {
	m.mu.Lock()
	s, ok := m.sessions[code]
	delete(m.sessions, code)
	m.mu.Unlock()
	if ok {
		s.stopTimers()
	}
}

// discard drops a room that never produced a game, archive included.
func (m *Manager) discard(code string) {
	m.Delete(code)
	if m.archive == nil {
		return
	}
	if err := m.archive.DeleteRoom(code); err != nil {
		m.log.Warn("delete archived room", zap.String("room", code), zap.Error(err))
	}
}

// Exec runs fn against the room under its lock. When fn succeeds the events
// are delivered, every connected player receives a fresh view and the public
// part of the outcome is archived.
func (m *Manager) Exec(s *Session, fn func(r *game.Room) ([]game.Event, error)) error {
	rec, err := s.exec(fn)
	if err != nil {
		return err
	}
	m.store(rec)
	return nil
}

// record is the archive view of one executed command.
type record struct {
	code    string
	status  game.Status
	hostID  string
	options game.Options
	events  []game.Event
	result  *game.Result
}

func recordOf(r *game.Room, events []game.Event) record {
	rec := record{code: r.Code, status: r.Status, hostID: r.HostID, options: r.Options}
	for _, ev := range events {
		if !ev.Public() {
			continue
		}
		rec.events = append(rec.events, ev)
		if ev.Type == game.EventGameOver && r.Result != nil {
			res := *r.Result
			rec.result = &res
		}
	}
	return rec
}

func (m *Manager) store(rec record) {
	if m.archive == nil {
		return
	}
	log := m.log.With(zap.String("room", rec.code))
	for _, ev := range rec.events {
		payload, err := json.Marshal(ev.Payload)
		if err != nil {
			log.Warn("marshal event", zap.String("type", string(ev.Type)), zap.Error(err))
			continue
		}
		if err := m.archive.AppendEvent(rec.code, string(ev.Type), string(payload)); err != nil {
			log.Warn("archive event", zap.String("type", string(ev.Type)), zap.Error(err))
		}
	}
	opts, _ := json.Marshal(rec.options)
	if err := m.archive.UpdateRoom(rec.code, string(rec.status), rec.hostID, string(opts)); err != nil {
		log.Warn("archive room", zap.Error(err))
	}
	if rec.result != nil {
		err := m.archive.SaveResult(storage.ResultRow{
			RoomCode:    rec.code,
			Winner:      rec.result.Winner,
			WinnerColor: string(rec.result.WinnerColor),
			Draw:        rec.result.Draw,
			Reason:      rec.result.Reason,
		})
		if err != nil {
			log.Warn("archive result", zap.Error(err))
		}
	}
}

// Join seats (or reconnects) a player and attaches their outbound channel.
// A pending grace timer for the player is cancelled.
func (m *Manager) Join(s *Session, playerID string, send chan []byte) (game.Player, error) {
	var joined game.Player
	err := m.Exec(s, func(r *game.Room) ([]game.Event, error) {
		p, events, err := r.Join(playerID)
		if err != nil {
			return nil, err
		}
		s.stopTimerLocked(p.ID)
		s.conns[p.ID] = send
		joined = *p
		s.sendLocked(p.ID, Message{Type: "joined", Payload: joined})
		return events, nil
	})
	if err == nil {
		m.log.Info("player joined", zap.String("room", s.Code), zap.String("player", joined.ID))
	}
	return joined, err
}

// Disconnect detaches a connection. Stale connections (replaced by a newer
// join) are ignored. The player keeps the seat until the grace period runs
// out.
func (m *Manager) Disconnect(s *Session, playerID string, send chan []byte) {
	var stale bool
	m.Exec(s, func(r *game.Room) ([]game.Event, error) {
		if ch, ok := s.conns[playerID]; !ok || ch != send {
			stale = true
			return nil, nil
		}
		delete(s.conns, playerID)
		r.Disconnect(playerID)
		s.stopTimerLocked(playerID)
		s.timers[playerID] = time.AfterFunc(m.cfg.Grace, func() { m.expire(s, playerID) })
		return nil, nil
	})
	if !stale {
		m.log.Info("player disconnected", zap.String("room", s.Code), zap.String("player", playerID))
	}
}

// Leave handles an explicit leave. Before the start the seat is freed;
// during play leaving forfeits the game.
func (m *Manager) Leave(s *Session, playerID string) error {
	return m.release(s, playerID, false)
}

func (m *Manager) expire(s *Session, playerID string) {
	if err := m.release(s, playerID, true); err != nil && !errors.Is(err, errReconnected) {
		m.log.Debug("grace expiry", zap.String("room", s.Code), zap.String("player", playerID), zap.Error(err))
	}
}

var errReconnected = errors.New("player reconnected")

func (m *Manager) release(s *Session, playerID string, expired bool) error {
	var closeRoom bool
	err := m.Exec(s, func(r *game.Room) ([]game.Event, error) {
		if _, back := s.conns[playerID]; expired && back {
			return nil, errReconnected
		}
		if r.Player(playerID) == nil {
			return nil, game.ErrPlayerNotInRoom
		}
		s.stopTimerLocked(playerID)
		var events []game.Event
		switch r.Status {
		case game.StatusWaiting:
			hostLeft, evs, err := r.Leave(playerID)
			if err != nil {
				return nil, err
			}
			events = evs
			closeRoom = hostLeft || len(r.Players) == 0
		case game.StatusPlaying:
			events = r.Forfeit(playerID)
			r.Disconnect(playerID)
		default:
			r.Disconnect(playerID)
		}
		delete(s.conns, playerID)
		if closeRoom {
			for id := range s.conns {
				s.sendLocked(id, Message{Type: "room_closed"})
			}
		}
		return events, nil
	})
	if err != nil {
		return err
	}
	m.log.Info("player left", zap.String("room", s.Code), zap.String("player", playerID), zap.Bool("expired", expired))
	if closeRoom {
		m.discard(s.Code)
	}
	return nil
}

// CleanupLoop removes stale sessions periodically.
func (m *Manager) CleanupLoop(interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		m.cleanup(maxAge)
	}
}

func (m *Manager) cleanup(maxAge time.Duration) {
	m.mu.RLock()
	var stale []string
	now := time.Now()
	for code, s := range m.sessions {
		s.mu.Lock()
		idle := len(s.conns) == 0
		finished := s.room.Status == game.StatusFinished
		s.mu.Unlock()

		old := now.Sub(s.CreatedAt) > maxAge
		if (idle && (old || finished)) || (finished && old) {
			stale = append(stale, code)
		}
	}
	m.mu.RUnlock()

	for _, code := range stale {
		m.log.Info("cleaning up room", zap.String("room", code))
		m.Delete(code)
	}
}

func generateCode() string {
	b := make([]byte, 3) // 6 hex chars
	rand.Read(b)
	return hex.EncodeToString(b)
}
