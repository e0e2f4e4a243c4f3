package game

import "errors"

var (
	ErrNotYourTurn        = errors.New("it is not your turn")
	ErrNotJoined          = errors.New("join the room first")
	ErrPlayerNotInRoom    = errors.New("player is not in this room")
	ErrRoomNotFound       = errors.New("room not found")
	ErrGameFinished       = errors.New("game is already finished")
	ErrNotPlaying         = errors.New("game has not started")
	ErrRoomFull           = errors.New("room is full")
	ErrGameInProgress     = errors.New("game already in progress")
	ErrNotHost            = errors.New("only the host can do that")
	ErrNotEnoughPlayers   = errors.New("need two players to start")
	ErrUnknownOption      = errors.New("unknown room option")
	ErrNoPieceAtSource    = errors.New("no piece on that square")
	ErrNotYourPiece       = errors.New("that piece is not yours")
	ErrIllegalMove        = errors.New("illegal move")
	ErrMustMoveRestricted = errors.New("you must move the touched piece")
	ErrMustCapture        = errors.New("that piece may only move to capture")
	ErrCaptureOnBonusMove = errors.New("the bonus move may not capture")
	ErrCardNotInHand      = errors.New("card is not in your hand")
	ErrCardAlreadyPlayed  = errors.New("you already played a card this turn")
	ErrNoValidTarget      = errors.New("no valid target")
	ErrNoEmptyDestination = errors.New("no empty destination available")
	ErrUnknownCard        = errors.New("unknown card")
	ErrAutoDrawEnabled    = errors.New("cards are drawn automatically in this room")
	ErrNoCardDrawn        = errors.New("no card could be drawn")
	ErrDrewOnPreviousTurn = errors.New("you drew on your previous turn")
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrNotYourTurn, "not-your-turn"},
	{ErrNotJoined, "not-joined"},
	{ErrPlayerNotInRoom, "player-not-in-room"},
	{ErrRoomNotFound, "room-not-found"},
	{ErrGameFinished, "game-already-finished"},
	{ErrNotPlaying, "game-not-started"},
	{ErrRoomFull, "room-full"},
	{ErrGameInProgress, "game-in-progress"},
	{ErrNotHost, "not-host"},
	{ErrNotEnoughPlayers, "not-enough-players"},
	{ErrUnknownOption, "unknown-option"},
	{ErrNoPieceAtSource, "no-piece-at-source"},
	{ErrNotYourPiece, "not-your-piece"},
	{ErrIllegalMove, "illegal-move"},
	{ErrMustMoveRestricted, "must-move-restricted-piece"},
	{ErrMustCapture, "must-capture-to-move"},
	{ErrCaptureOnBonusMove, "capture-forbidden-on-bonus-move"},
	{ErrCardNotInHand, "card-not-in-hand"},
	{ErrCardAlreadyPlayed, "card-already-played-this-turn"},
	{ErrNoValidTarget, "no-valid-target"},
	{ErrNoEmptyDestination, "no-empty-destination-available"},
	{ErrUnknownCard, "unknown-card"},
	{ErrAutoDrawEnabled, "auto-draw-enabled"},
	{ErrNoCardDrawn, "no-card-drawn"},
	{ErrDrewOnPreviousTurn, "drew-on-previous-turn"},
}

// Code returns the stable slug clients key on for a rejection. Errors that
// are not rejections map to "internal".
func Code(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return "internal"
}
