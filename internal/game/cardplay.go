package game

import (
	"errors"
	"fmt"

	"chessnut/internal/board"
	"chessnut/internal/cards"
	"chessnut/internal/effects"
)

// Payload is the targeting data sent with a card. Pieces can be named by id
// or by the square they stand on.
type Payload struct {
	PieceID       int    `json:"pieceId,omitempty"`
	Square        string `json:"square,omitempty"`
	TargetPieceID int    `json:"targetPieceId,omitempty"`
	TargetSquare  string `json:"targetSquare,omitempty"`
	CapturedID    string `json:"capturedId,omitempty"`
}

// invalidPolicy decides what a bad target costs.
type invalidPolicy int

const (
	// restoreCard rejects the play; the card stays in hand.
	restoreCard invalidPolicy = iota
	// consumeCard spends the card and reports the failure.
	consumeCard
)

// play is the context a card handler runs in.
type play struct {
	r       *Room
	player  *Player
	card    cards.Card
	payload Payload
	events  *[]Event
}

type cardRule struct {
	apply     func(pl *play) error
	onInvalid invalidPolicy
}

// rules maps every catalog card to its handler. A missing card panics at
// init.
var rules = map[cards.ID]cardRule{
	cards.Adoubement:     {grant(effects.Adoubement), restoreCard},
	cards.Folie:          {grant(effects.Folie), restoreCard},
	cards.Fortification:  {grant(effects.Fortification), restoreCard},
	cards.Anneau:         {playerEffect(effects.Anneau, 2), restoreCard},
	cards.Rebond:         {playRebond, restoreCard},
	cards.Teleport:       {playTeleport, restoreCard},
	cards.Coincoin:       {playCoincoin, consumeCard},
	cards.Sniper:         {grant(effects.Sniper), restoreCard},
	cards.Invisible:      {playInvisible, restoreCard},
	cards.Doppelganger:   {grant(effects.Doppelganger), restoreCard},
	cards.Toucher:        {restrictEnemy(effects.Toucher), consumeCard},
	cards.ToutOuRien:     {restrictEnemy(effects.ToutOuRien), consumeCard},
	cards.Promotion:      {playPromotion, restoreCard},
	cards.Parrure:        {playParrure, consumeCard},
	cards.Kamikaze:       {playKamikaze, restoreCard},
	cards.Melange:        {playMelange, restoreCard},
	cards.Revolution:     {playRevolution, restoreCard},
	cards.Empathie:       {playEmpathie, restoreCard},
	cards.Agrandissement: {playAgrandissement, consumeCard},
	cards.Miroir:         {playMiroir, restoreCard},
	cards.Inversion:      {playInversion, restoreCard},
	cards.VolePiece:      {playVolePiece, restoreCard},
	cards.VoleCarte:      {playVoleCarte, consumeCard},
	cards.Resurrection:   {playResurrection, restoreCard},
	cards.Mine:           {playMine, restoreCard},
	cards.Totem:          {playTotem, restoreCard},
	cards.Double:         {playDouble, restoreCard},
	cards.Brouillard:     {playerEffect(effects.Brouillard, 2), restoreCard},
	cards.TousLesMemes:   {playerEffect(effects.TousLesMemes, 2), restoreCard},
	cards.SansEffet:      {func(*play) error { return nil }, restoreCard},
}

func init() {
	if missing := missingRules(cards.BuildCatalog()); len(missing) > 0 {
		panic(fmt.Sprintf("cards without a rule: %v", missing))
	}
}

func missingRules(cat *cards.Catalog) []cards.ID {
	var missing []cards.ID
	for _, id := range cat.IDs() {
		if _, ok := rules[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// PlayCard spends a card from the player's hand and applies it. Unless the
// card ends the turn, the player keeps their move.
func (r *Room) PlayCard(playerID string, cardID cards.ID, payload Payload) ([]Event, error) {
	return r.atomically(func(events *[]Event) error {
		return r.applyCard(events, playerID, cardID, payload)
	})
}

func (r *Room) applyCard(events *[]Event, playerID string, cardID cards.ID, payload Payload) error {
	p, err := r.requireTurn(playerID)
	if err != nil {
		return err
	}
	if r.Turn.CardPlayed {
		return ErrCardAlreadyPlayed
	}
	card, ok := r.catalog.Get(cardID)
	rule, known := rules[cardID]
	if !ok || !known {
		return fmt.Errorf("%q: %w", cardID, ErrUnknownCard)
	}
	hand := r.Hand(p.ID)
	if !hand.Contains(cardID) {
		return ErrCardNotInHand
	}
	hand.Remove(cardID)
	r.discard(card)
	r.Turn.CardPlayed = true

	if totem := r.Effects.Find(func(e *effects.Effect) bool {
		return e.Type == effects.Totem && e.PlayerID != p.ID
	}); totem != nil {
		r.Effects.RemoveByID(totem.ID)
		r.announceCard(events, p, card, payload)
		r.broadcast(events, EventTotemConsumed, map[string]string{"ownerId": totem.PlayerID, "playerId": p.ID})
		r.Board.Bump()
		r.Turn.FreeMove = true
		return nil
	}

	pl := &play{r: r, player: p, card: card, payload: payload, events: events}
	if err := rule.apply(pl); err != nil {
		if rule.onInvalid == restoreCard || errors.Is(err, ErrNoEmptyDestination) {
			return err
		}
		fail := CardPayload{PlayerID: p.ID, CardID: string(card.ID), Title: card.Title, Reason: Code(err)}
		r.broadcast(events, EventCardFailed, fail)
		r.Board.Bump()
		r.Turn.FreeMove = true
		return nil
	}

	r.announceCard(events, p, card, payload)
	r.Board.Bump()
	if r.checkVictory(events) {
		return nil
	}
	if card.EndsTurn {
		r.endTurn(events, p)
		return nil
	}
	r.Turn.FreeMove = true
	return nil
}

// announceCard tells the player what they played and the opponent as much as
// the card allows.
func (r *Room) announceCard(events *[]Event, p *Player, card cards.Card, payload Payload) {
	full := CardPayload{PlayerID: p.ID, CardID: string(card.ID), Title: card.Title, Target: &payload}
	r.send(events, p.ID, EventCardPlayed, full)
	public := full
	switch {
	case card.Hidden:
		public = CardPayload{PlayerID: p.ID, Hidden: true}
	case card.ID == cards.Invisible:
		public.Target = nil
	}
	r.sendOthers(events, p.ID, EventCardPlayed, public)
}

func (pl *play) addEffect(e effects.Effect) *effects.Effect {
	e.PlayerID = pl.player.ID
	e.Color = pl.player.Color
	return pl.r.Effects.Add(e)
}

// piece resolves a piece named by id or square.
func (pl *play) piece(id int, sq string) *board.Piece {
	b := pl.r.Board
	if id != 0 {
		p := b.Piece(id)
		if p != nil && (sq == "" || p.Square == sq) {
			return p
		}
		return nil
	}
	if sq == "" {
		return nil
	}
	return b.PieceAt(sq)
}

// ownPiece returns the targeted piece if the player owns it.
func (pl *play) ownPiece() (*board.Piece, error) {
	p := pl.piece(pl.payload.PieceID, pl.payload.Square)
	if p == nil || p.Color != pl.player.Color {
		return nil, ErrNoValidTarget
	}
	return p, nil
}

// enemyPiece returns the targeted opponent piece. Pieces the player cannot
// see are never valid targets.
func (pl *play) enemyPiece(id int, sq string) (*board.Piece, error) {
	p := pl.piece(id, sq)
	if p == nil || p.Color == pl.player.Color || p.Invisible {
		return nil, ErrNoValidTarget
	}
	return p, nil
}

func (pl *play) bind(t effects.Type, p *board.Piece, e effects.Effect) {
	e.Type = t
	e.PieceID = p.ID
	e.PieceSquare = p.Square
	pl.addEffect(e)
}

func grant(t effects.Type) func(*play) error {
	return func(pl *play) error {
		p, err := pl.ownPiece()
		if err != nil {
			return err
		}
		pl.bind(t, p, effects.Effect{})
		return nil
	}
}

func playerEffect(t effects.Type, turns int) func(*play) error {
	return func(pl *play) error {
		pl.addEffect(effects.Effect{Type: t, RemainingTurns: effects.Turns(turns)})
		return nil
	}
}

func restrictEnemy(t effects.Type) func(*play) error {
	return func(pl *play) error {
		p, err := pl.enemyPiece(pl.payload.PieceID, pl.payload.Square)
		if err != nil {
			return err
		}
		pl.bind(t, p, effects.Effect{RemainingTurns: effects.Turns(1), DecrementOn: effects.OnOpponent})
		return nil
	}
}

func playRebond(pl *play) error {
	p, err := pl.ownPiece()
	if err != nil {
		return err
	}
	if !p.Type.Slider() {
		return fmt.Errorf("%s is not a slider: %w", p.Type, ErrNoValidTarget)
	}
	pl.bind(effects.Rebondir, p, effects.Effect{})
	return nil
}

func playTeleport(pl *play) error {
	p, err := pl.ownPiece()
	if err != nil {
		return err
	}
	if len(pl.r.Board.EmptySquares()) == 0 {
		return ErrNoEmptyDestination
	}
	pl.bind(effects.Teleport, p, effects.Effect{RemainingTurns: effects.Turns(1)})
	return nil
}

func playCoincoin(pl *play) error {
	p, err := pl.ownPiece()
	if err != nil {
		return err
	}
	b := pl.r.Board
	if !b.IsCorner(p.Square) {
		return fmt.Errorf("%s is not a corner: %w", p.Square, ErrNoValidTarget)
	}
	var allowed []string
	for _, sq := range b.Corners() {
		if sq != p.Square && b.PieceAt(sq) == nil {
			allowed = append(allowed, sq)
		}
	}
	if len(allowed) == 0 {
		return ErrNoEmptyDestination
	}
	pl.bind(effects.Coincoin, p, effects.Effect{AllowedSquares: allowed})
	return nil
}

func playInvisible(pl *play) error {
	p, err := pl.ownPiece()
	if err != nil {
		return err
	}
	if p.Type == board.King {
		return fmt.Errorf("king: %w", ErrNoValidTarget)
	}
	p.Invisible = true
	pl.bind(effects.Invisible, p, effects.Effect{Hidden: true})
	return nil
}

func playPromotion(pl *play) error {
	p, err := pl.ownPiece()
	if err != nil {
		return err
	}
	if p.Type != board.Pawn {
		return fmt.Errorf("%s is not a pawn: %w", p.Type, ErrNoValidTarget)
	}
	p.Type = board.Queen
	p.Promoted = true
	return nil
}

func playParrure(pl *play) error {
	p, err := pl.enemyPiece(pl.payload.PieceID, pl.payload.Square)
	if err != nil {
		return err
	}
	if p.Type != board.Queen {
		return fmt.Errorf("%s is not a queen: %w", p.Type, ErrNoValidTarget)
	}
	p.Type = board.Pawn
	p.Promoted = false
	return nil
}

func playKamikaze(pl *play) error {
	p, err := pl.ownPiece()
	if err != nil {
		return err
	}
	if p.Type == board.King {
		return fmt.Errorf("king: %w", ErrNoValidTarget)
	}
	b := pl.r.Board
	victims := []*board.Piece{p}
	for _, sq := range b.Adjacent(p.Square) {
		if n := b.PieceAt(sq); n != nil {
			victims = append(victims, n)
		}
	}
	for _, v := range victims {
		if err := pl.r.capture(v, pl.player.ID); err != nil {
			return err
		}
	}
	return nil
}

// reassign moves pieces all at once and keeps bound effects in step.
func (pl *play) reassign(dest map[int]string) error {
	if err := pl.r.Board.Reassign(dest); err != nil {
		return err
	}
	for id, sq := range dest {
		pl.r.Effects.RebindSquare(id, sq)
	}
	return nil
}

func playMelange(pl *play) error {
	var pieces []*board.Piece
	var squares []string
	for _, p := range pl.r.Board.Pieces {
		if p.Type != board.King {
			pieces = append(pieces, p)
			squares = append(squares, p.Square)
		}
	}
	pl.r.rng.Shuffle(len(squares), func(i, j int) { squares[i], squares[j] = squares[j], squares[i] })
	dest := make(map[int]string, len(pieces))
	for i, p := range pieces {
		dest[p.ID] = squares[i]
	}
	return pl.reassign(dest)
}

func playRevolution(pl *play) error {
	type kind struct {
		t        board.PieceType
		promoted bool
	}
	for _, c := range []board.Color{board.White, board.Black} {
		var pieces []*board.Piece
		var kinds []kind
		for _, p := range pl.r.Board.PiecesOf(c) {
			if p.Type != board.King {
				pieces = append(pieces, p)
				kinds = append(kinds, kind{p.Type, p.Promoted})
			}
		}
		pl.r.rng.Shuffle(len(kinds), func(i, j int) { kinds[i], kinds[j] = kinds[j], kinds[i] })
		for i, p := range pieces {
			p.Type, p.Promoted = kinds[i].t, kinds[i].promoted
		}
	}
	return nil
}

func playEmpathie(pl *play) error {
	m := pl.r.Board.MirrorRanks()
	for _, p := range pl.r.Board.Pieces {
		p.Color = p.Color.Opposite()
	}
	pl.r.Effects.RemapSquares(m)
	return nil
}

func playAgrandissement(pl *play) error {
	m, err := pl.r.Board.Grow()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoValidTarget, err)
	}
	pl.r.Effects.RemapSquares(m)
	return nil
}

func playMiroir(pl *play) error {
	pl.r.Effects.RemapSquares(pl.r.Board.MirrorFiles())
	return nil
}

func playInversion(pl *play) error {
	own, err := pl.ownPiece()
	if err != nil {
		return err
	}
	enemy, err := pl.enemyPiece(pl.payload.TargetPieceID, pl.payload.TargetSquare)
	if err != nil {
		return err
	}
	return pl.reassign(map[int]string{own.ID: enemy.Square, enemy.ID: own.Square})
}

func playVolePiece(pl *play) error {
	p, err := pl.enemyPiece(pl.payload.PieceID, pl.payload.Square)
	if err != nil {
		return err
	}
	if p.Type == board.King {
		return fmt.Errorf("king: %w", ErrNoValidTarget)
	}
	p.Color = pl.player.Color
	return nil
}

func playVoleCarte(pl *play) error {
	r := pl.r
	victim := r.Opponent(pl.player.ID)
	if victim == nil || r.Hand(victim.ID).Len() == 0 {
		return fmt.Errorf("opponent hand empty: %w", ErrNoValidTarget)
	}
	vh := r.Hand(victim.ID)
	stolen := vh.RemoveAt(r.rng.IntN(vh.Len()))
	r.Hand(pl.player.ID).Add(stolen)
	r.send(pl.events, pl.player.ID, EventCardStolen, map[string]any{"from": victim.ID, "card": stolen})
	r.send(pl.events, victim.ID, EventCardStolen, map[string]any{"by": pl.player.ID, "card": stolen})
	return nil
}

func playResurrection(pl *play) error {
	r := pl.r
	idx := -1
	for i, c := range r.Captured {
		if c.ID == pl.payload.CapturedID && c.OriginalOwnerID == pl.player.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("captured %q: %w", pl.payload.CapturedID, ErrNoValidTarget)
	}
	sq := pl.payload.Square
	if _, ok := r.Board.Coord(sq); !ok || r.Board.PieceAt(sq) != nil {
		return fmt.Errorf("square %q: %w", sq, ErrNoValidTarget)
	}
	rec := r.Captured[idx]
	if _, err := r.Board.Add(rec.Piece.Type, pl.player.Color, sq); err != nil {
		return err
	}
	p := r.Board.PieceAt(sq)
	p.Promoted = rec.Piece.Promoted
	r.Captured = append(r.Captured[:idx:idx], r.Captured[idx+1:]...)
	return nil
}

func playMine(pl *play) error {
	sq := pl.payload.Square
	if _, ok := pl.r.Board.Coord(sq); !ok || pl.r.Board.PieceAt(sq) != nil {
		return fmt.Errorf("square %q: %w", sq, ErrNoValidTarget)
	}
	pl.addEffect(effects.Effect{Type: effects.Mine, Square: sq, Hidden: true})
	return nil
}

func playTotem(pl *play) error {
	pl.addEffect(effects.Effect{Type: effects.Totem, Hidden: true})
	return nil
}

func playDouble(pl *play) error {
	pl.addEffect(effects.Effect{Type: effects.Double, RemainingMoves: effects.Moves(2)})
	return nil
}
