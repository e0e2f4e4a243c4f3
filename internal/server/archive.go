package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"chessnut/internal/game"
	"chessnut/internal/storage"
)

// Archive is the read side of the room archive.
type Archive interface {
	GetRoom(code string) (*storage.RoomRow, error)
	ListRooms(status string) ([]storage.RoomRow, error)
	ListEvents(code string) ([]storage.EventRow, error)
	GetResult(code string) (*storage.ResultRow, error)
}

var errNoResult = errors.New("room has no result")

type archivedRoom struct {
	Code      string          `json:"code"`
	Status    string          `json:"status"`
	HostID    string          `json:"hostId,omitempty"`
	Options   json.RawMessage `json:"options"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type archivedEvent struct {
	Seq       int64           `json:"seq"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}

type archivedResult struct {
	Winner      string    `json:"winner,omitempty"`
	WinnerColor string    `json:"winnerColor,omitempty"`
	Draw        bool      `json:"draw"`
	Reason      string    `json:"reason"`
	FinishedAt  time.Time `json:"finishedAt"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	rows, err := s.archive.ListRooms(r.URL.Query().Get("status"))
	if err != nil {
		s.archiveError(w, "list rooms", err)
		return
	}
	out := make([]archivedRoom, 0, len(rows))
	for _, row := range rows {
		out = append(out, archivedRoom{
			Code:      row.Code,
			Status:    row.Status,
			HostID:    row.HostID,
			Options:   json.RawMessage(row.Options),
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRoomEvents(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if _, err := s.archive.GetRoom(code); err != nil {
		s.archiveError(w, "get room", err)
		return
	}
	rows, err := s.archive.ListEvents(code)
	if err != nil {
		s.archiveError(w, "list events", err)
		return
	}
	out := make([]archivedEvent, 0, len(rows))
	for _, row := range rows {
		out = append(out, archivedEvent{
			Seq:       row.Seq,
			Type:      row.Type,
			Payload:   json.RawMessage(row.Payload),
			CreatedAt: row.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRoomResult(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if _, err := s.archive.GetRoom(code); err != nil {
		s.archiveError(w, "get room", err)
		return
	}
	row, err := s.archive.GetResult(code)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, errNoResult)
		return
	}
	if err != nil {
		s.archiveError(w, "get result", err)
		return
	}
	writeJSON(w, http.StatusOK, archivedResult{
		Winner:      row.Winner,
		WinnerColor: row.WinnerColor,
		Draw:        row.Draw,
		Reason:      row.Reason,
		FinishedAt:  row.FinishedAt,
	})
}

func (s *Server) archiveError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, game.ErrRoomNotFound)
		return
	}
	s.log.Error(op, zap.Error(err))
	writeError(w, http.StatusInternalServerError, err)
}
