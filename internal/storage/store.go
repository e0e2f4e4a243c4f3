// Package storage archives rooms, their public event journal and final
// results in SQLite. The archive is write-mostly; rooms are never restored
// from it.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// RoomRow represents an archived room.
type RoomRow struct {
	Code      string
	Status    string // "waiting", "playing", "finished"
	HostID    string
	Options   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EventRow is one journaled public event.
type EventRow struct {
	Seq       int64
	RoomCode  string
	Type      string
	Payload   string
	CreatedAt time.Time
}

// ResultRow is the outcome of a finished room.
type ResultRow struct {
	RoomCode    string
	Winner      string
	WinnerColor string
	Draw        bool
	Reason      string
	FinishedAt  time.Time
}

// Store handles SQLite persistence.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database and runs migrations.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// :memory: databases exist per connection
	db.SetMaxOpenConns(1)
	// WAL mode for better concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS rooms (
			code       TEXT PRIMARY KEY,
			status     TEXT NOT NULL DEFAULT 'waiting',
			host_id    TEXT NOT NULL DEFAULT '',
			options    TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS room_events (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			room_code  TEXT NOT NULL REFERENCES rooms(code),
			type       TEXT NOT NULL,
			payload    TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS room_events_room ON room_events(room_code, seq);
		CREATE TABLE IF NOT EXISTS results (
			room_code    TEXT PRIMARY KEY REFERENCES rooms(code),
			winner       TEXT NOT NULL DEFAULT '',
			winner_color TEXT NOT NULL DEFAULT '',
			draw         INTEGER NOT NULL DEFAULT 0,
			reason       TEXT NOT NULL DEFAULT '',
			finished_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}

const roomColumns = "code, status, host_id, options, created_at, updated_at"

func scanRoom(sc interface{ Scan(...any) error }) (*RoomRow, error) {
	var rr RoomRow
	if err := sc.Scan(&rr.Code, &rr.Status, &rr.HostID, &rr.Options, &rr.CreatedAt, &rr.UpdatedAt); err != nil {
		return nil, err
	}
	return &rr, nil
}

// CreateRoom inserts a new room with its options JSON.
func (s *Store) CreateRoom(code, options string) error {
	_, err := s.db.Exec(
		"INSERT INTO rooms (code, status, options) VALUES (?, 'waiting', ?)",
		code, options,
	)
	return err
}

// GetRoom retrieves a room by code.
func (s *Store) GetRoom(code string) (*RoomRow, error) {
	return scanRoom(s.db.QueryRow("SELECT "+roomColumns+" FROM rooms WHERE code = ?", code))
}

// UpdateRoom records a room's status, host and options.
func (s *Store) UpdateRoom(code, status, hostID, options string) error {
	_, err := s.db.Exec(
		"UPDATE rooms SET status = ?, host_id = ?, options = ?, updated_at = CURRENT_TIMESTAMP WHERE code = ?",
		status, hostID, options, code,
	)
	return err
}

// ListRooms returns all rooms with the given status (or all if status is empty).
func (s *Store) ListRooms(status string) ([]RoomRow, error) {
	var rows *sql.Rows
	var err error
	if status == "" {
		rows, err = s.db.Query("SELECT " + roomColumns + " FROM rooms ORDER BY created_at DESC")
	} else {
		rows, err = s.db.Query("SELECT "+roomColumns+" FROM rooms WHERE status = ? ORDER BY created_at DESC", status)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []RoomRow
	for rows.Next() {
		rr, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rr)
	}
	return result, rows.Err()
}

// AppendEvent journals a public event for a room.
func (s *Store) AppendEvent(code, eventType, payload string) error {
	_, err := s.db.Exec(
		"INSERT INTO room_events (room_code, type, payload) VALUES (?, ?, ?)",
		code, eventType, payload,
	)
	return err
}

// ListEvents returns a room's journal in the order it was written.
func (s *Store) ListEvents(code string) ([]EventRow, error) {
	rows, err := s.db.Query(
		"SELECT seq, room_code, type, payload, created_at FROM room_events WHERE room_code = ? ORDER BY seq",
		code,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []EventRow
	for rows.Next() {
		var er EventRow
		if err := rows.Scan(&er.Seq, &er.RoomCode, &er.Type, &er.Payload, &er.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, er)
	}
	return result, rows.Err()
}

// SaveResult upserts the outcome of a room.
func (s *Store) SaveResult(r ResultRow) error {
	_, err := s.db.Exec(`
		INSERT INTO results (room_code, winner, winner_color, draw, reason, finished_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(room_code) DO UPDATE SET
			winner = excluded.winner,
			winner_color = excluded.winner_color,
			draw = excluded.draw,
			reason = excluded.reason,
			finished_at = excluded.finished_at
	`, r.RoomCode, r.Winner, r.WinnerColor, r.Draw, r.Reason)
	return err
}

// GetResult retrieves the outcome of a room.
func (s *Store) GetResult(code string) (*ResultRow, error) {
	var rr ResultRow
	err := s.db.QueryRow(
		"SELECT room_code, winner, winner_color, draw, reason, finished_at FROM results WHERE room_code = ?",
		code,
	).Scan(&rr.RoomCode, &rr.Winner, &rr.WinnerColor, &rr.Draw, &rr.Reason, &rr.FinishedAt)
	if err != nil {
		return nil, err
	}
	return &rr, nil
}

// DeleteRoom removes a room with its journal and result.
func (s *Store) DeleteRoom(code string) error {
	for _, q := range []string{
		"DELETE FROM room_events WHERE room_code = ?",
		"DELETE FROM results WHERE room_code = ?",
		"DELETE FROM rooms WHERE code = ?",
	} {
		if _, err := s.db.Exec(q, code); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
