// Package server exposes rooms over HTTP and WebSocket.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"chessnut/internal/cards"
	"chessnut/internal/game"
	"chessnut/internal/session"
)

// Rooms is what the transport needs from the session layer.
type Rooms interface {
	session.Store
	List() []session.Info
	Catalog() *cards.Catalog
	Exec(s *session.Session, fn func(r *game.Room) ([]game.Event, error)) error
	Join(s *session.Session, playerID string, send chan []byte) (game.Player, error)
	Disconnect(s *session.Session, playerID string, send chan []byte)
	Leave(s *session.Session, playerID string) error
}

// Server is the HTTP server.
type Server struct {
	mux     *http.ServeMux
	rooms   Rooms
	archive Archive
	log     *zap.Logger
}

// New creates a server with all routes. The history routes are only
// mounted when an archive is given.
func New(rooms Rooms, archive Archive, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		mux:     http.NewServeMux(),
		rooms:   rooms,
		archive: archive,
		log:     logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/cards", s.handleListCards)
	s.mux.HandleFunc("GET /api/rooms", s.handleListRooms)
	s.mux.HandleFunc("POST /api/rooms", s.handleCreateRoom)
	s.mux.HandleFunc("GET /api/rooms/{code}", s.handleGetRoom)
	s.mux.HandleFunc("GET /api/rooms/{code}/ws", s.handleWebSocket)
	if s.archive != nil {
		s.mux.HandleFunc("GET /api/history", s.handleHistory)
		s.mux.HandleFunc("GET /api/rooms/{code}/events", s.handleRoomEvents)
		s.mux.HandleFunc("GET /api/rooms/{code}/result", s.handleRoomResult)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.rooms.Catalog().List())
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.rooms.List())
}

type createRoomResponse struct {
	Code string `json:"code"`
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	sess, err := s.rooms.Create()
	if err != nil {
		s.log.Error("create room", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, createRoomResponse{Code: sess.Code})
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.rooms.Get(r.PathValue("code"))
	if !ok {
		writeError(w, http.StatusNotFound, game.ErrRoomNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sess.Info())
}

// errorPayload is the body of every rejection, over HTTP and WebSocket.
type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var errInvalidMessage = errors.New("invalid message")

func newErrorPayload(err error) errorPayload {
	code := game.Code(err)
	switch {
	case errors.Is(err, errInvalidMessage):
		code = "invalid-message"
	case errors.Is(err, errNoResult):
		code = "no-result"
	}
	return errorPayload{Code: code, Message: err.Error()}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, newErrorPayload(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
