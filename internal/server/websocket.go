package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"chessnut/internal/cards"
	"chessnut/internal/game"
	"chessnut/internal/movegen"
	"chessnut/internal/session"
)

// WSMessage is the JSON envelope for inbound WebSocket messages.
type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type joinPayload struct {
	PlayerID string `json:"playerId,omitempty"`
}

type movePayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type playPayload struct {
	CardID  cards.ID     `json:"cardId"`
	Payload game.Payload `json:"payload"`
}

type optionPayload struct {
	Name  string `json:"name"`
	Value bool   `json:"value"`
}

type legalPayload struct {
	From string `json:"from"`
}

type legalMovesPayload struct {
	From  string         `json:"from"`
	Moves []movegen.Move `json:"moves"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	sess, ok := s.rooms.Get(code)
	if !ok {
		writeError(w, http.StatusNotFound, game.ErrRoomNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // allow any origin for dev
	})
	if err != nil {
		s.log.Warn("websocket accept", zap.String("room", code), zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// First message must be a join
	_, data, err := conn.Read(ctx)
	if err != nil {
		return
	}
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "join" {
		sendWSError(ctx, conn, fmt.Errorf("%w: first message must be a join", errInvalidMessage))
		return
	}
	var join joinPayload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &join); err != nil {
			sendWSError(ctx, conn, fmt.Errorf("%w: join payload", errInvalidMessage))
			return
		}
	}

	send := make(chan []byte, 64)
	player, err := s.rooms.Join(sess, join.PlayerID, send)
	if err != nil {
		sendWSError(ctx, conn, err)
		return
	}
	playerID := player.ID
	log := s.log.With(zap.String("room", code), zap.String("player", playerID))

	// Writer goroutine: send messages from the channel to the websocket
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-send:
				if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
					return
				}
			}
		}
	}()

	// Reader loop: handle incoming messages
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			sendWSMsg(send, "error", newErrorPayload(errInvalidMessage))
			continue
		}
		if msg.Type == "leave" {
			if err := s.rooms.Leave(sess, playerID); err != nil {
				sendWSMsg(send, "error", newErrorPayload(err))
				continue
			}
			return
		}
		if err := s.handleMessage(sess, playerID, send, msg); err != nil {
			log.Debug("command rejected", zap.String("type", msg.Type), zap.Error(err))
			sendWSMsg(send, "error", newErrorPayload(err))
		}
	}

	// Player disconnected; the seat is kept for the grace period
	s.rooms.Disconnect(sess, playerID, send)
}

func decode(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidMessage, err)
	}
	return nil
}

func (s *Server) handleMessage(sess *session.Session, playerID string, send chan []byte, msg WSMessage) error {
	switch msg.Type {
	case "start":
		return s.rooms.Exec(sess, func(r *game.Room) ([]game.Event, error) {
			return r.Start(playerID)
		})

	case "move":
		var mp movePayload
		if err := decode(msg.Payload, &mp); err != nil {
			return err
		}
		return s.rooms.Exec(sess, func(r *game.Room) ([]game.Event, error) {
			return r.SubmitMove(playerID, mp.From, mp.To)
		})

	case "draw":
		return s.rooms.Exec(sess, func(r *game.Room) ([]game.Event, error) {
			return r.Draw(playerID)
		})

	case "play":
		var pp playPayload
		if err := decode(msg.Payload, &pp); err != nil {
			return err
		}
		return s.rooms.Exec(sess, func(r *game.Room) ([]game.Event, error) {
			return r.PlayCard(playerID, pp.CardID, pp.Payload)
		})

	case "option":
		var op optionPayload
		if err := decode(msg.Payload, &op); err != nil {
			return err
		}
		return s.rooms.Exec(sess, func(r *game.Room) ([]game.Event, error) {
			return r.SetOption(playerID, op.Name, op.Value)
		})

	case "legal":
		var lp legalPayload
		if err := decode(msg.Payload, &lp); err != nil {
			return err
		}
		var moves []movegen.Move
		var err error
		sess.Read(func(r *game.Room) { moves, err = r.LegalMoves(playerID, lp.From) })
		if err != nil {
			return err
		}
		sendWSMsg(send, "legal_moves", legalMovesPayload{From: lp.From, Moves: moves})
		return nil

	default:
		return fmt.Errorf("%w: unknown message type %q", errInvalidMessage, msg.Type)
	}
}

func sendWSMsg(send chan []byte, msgType string, payload any) {
	msg, _ := json.Marshal(session.Message{Type: msgType, Payload: payload})
	select {
	case send <- msg:
	default:
	}
}

func sendWSError(ctx context.Context, conn *websocket.Conn, err error) {
	msg, _ := json.Marshal(session.Message{Type: "error", Payload: newErrorPayload(err)})
	conn.Write(ctx, websocket.MessageText, msg)
}
