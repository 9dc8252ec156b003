package model

import (
	"fmt"
	"sync"

	"github.com/apex/log"
	"github.com/benbeisheim/chessrules-backend/internal/engine"
	"github.com/benbeisheim/chessrules-backend/internal/ws"
	"github.com/gofiber/websocket/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Conn is the part of a WebSocket connection a game writes to.
// *websocket.Conn satisfies it.
type Conn interface {
	WriteJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// The connections for a specific game
type GameConnections struct {
	connections map[string]Conn // playerID -> connection
	mu          sync.RWMutex
}

func NewGameConnections() *GameConnections {
	return &GameConnections{
		connections: make(map[string]Conn),
	}
}

// snapshot copies the connection map so callers can write without the lock.
func (gc *GameConnections) snapshot() map[string]Conn {
	gc.mu.RLock()
	defer gc.mu.RUnlock()
	active := make(map[string]Conn, len(gc.connections))
	for playerID, conn := range gc.connections {
		active[playerID] = conn
	}
	return active
}

// dropIf removes playerID's connection if it is still conn.
func (gc *GameConnections) dropIf(playerID string, conn Conn) bool {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	if current, ok := gc.connections[playerID]; ok && current == conn {
		delete(gc.connections, playerID)
		return true
	}
	return false
}

// Game hosts one match: the rules controller, the two seats and the
// connected observers. All access to the controller goes through mu.
type Game struct {
	ID          string
	mu          sync.Mutex
	controller  *engine.Controller
	players     Players
	connections *GameConnections // Connections just for this game

	// sendMu orders state pushes: a snapshot older than sentPly is never
	// written after a newer one.
	sendMu  sync.Mutex
	sentPly int
}

type Players struct {
	White ClientPlayer `json:"white"`
	Black ClientPlayer `json:"black"`
}

// GameState is what clients render: the engine snapshot plus seating.
type GameState struct {
	engine.Snapshot
	IsCheck bool    `json:"isCheck"`
	Players Players `json:"players"`
	// Resolve describes how a finished game ended, nil while it is running.
	Resolve *string `json:"resolve"`
}

func NewGame(id string) *Game {
	return newGame(id, engine.NewController())
}

// NewGameFromFEN hosts a game starting from fen.
func NewGameFromFEN(id, fen string) (*Game, error) {
	c, err := engine.NewControllerFromFEN(fen)
	if err != nil {
		return nil, err
	}
	return newGame(id, c), nil
}

func newGame(id string, c *engine.Controller) *Game {
	return &Game{
		ID:          id,
		controller:  c,
		connections: NewGameConnections(),
		sentPly:     -1,
	}
}

func (g *Game) logger() *log.Entry {
	return log.WithField("game", g.ID)
}

// AddPlayer seats playerID, white first. A player already seated gets their
// seat back.
func (g *Game) AddPlayer(playerID string) (PlayerColor, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if color, ok := g.colorOf(playerID); ok {
		return color, nil
	}
	if g.players.White.ID == "" {
		g.players.White = ClientPlayer{ID: playerID, Color: PlayerColorWhite}
		return PlayerColorWhite, nil
	}
	if g.players.Black.ID == "" {
		g.players.Black = ClientPlayer{ID: playerID, Color: PlayerColorBlack}
		return PlayerColorBlack, nil
	}
	return "", errors.Wrapf(ErrGameFull, "game %s", g.ID)
}

func (g *Game) GetState() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state()
}

func (g *Game) state() GameState {
	s := GameState{
		Snapshot: g.controller.Snapshot(),
		Players:  g.players,
	}
	s.IsCheck = s.Status == engine.StatusCheck || s.Status == engine.StatusCheckmate
	switch s.Status {
	case engine.StatusCheckmate:
		resolve := fmt.Sprintf("checkmate, %s wins", s.ToMove.Opposite())
		s.Resolve = &resolve
	case engine.StatusStalemate:
		resolve := "stalemate"
		s.Resolve = &resolve
	}
	return s
}

func (g *Game) IsPlayerInGame(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.colorOf(playerID)
	return ok
}

func (g *Game) colorOf(playerID string) (PlayerColor, bool) {
	switch {
	case playerID == "":
		return "", false
	case g.players.White.ID == playerID:
		return PlayerColorWhite, true
	case g.players.Black.ID == playerID:
		return PlayerColorBlack, true
	}
	return "", false
}

func (g *Game) CanSpectate() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.canSpectate()
}

func (g *Game) canSpectate() bool {
	return g.players.White.ID == "" || g.players.Black.ID == ""
}

// MakeMove plays req for playerID. Only the seat whose color is to move may
// move. The new state is broadcast to every connection once the game lock
// is released; if a later move has already been pushed, it is not sent.
func (g *Game) MakeMove(playerID string, req MoveRequest) (GameState, error) {
	g.mu.Lock()
	state, err := g.makeMove(playerID, req)
	g.mu.Unlock()
	if err != nil {
		return state, err
	}

	if err := g.broadcast(state); err != nil {
		g.logger().WithError(err).Warn("broadcast after move")
	}
	return state, nil
}

func (g *Game) makeMove(playerID string, req MoveRequest) (GameState, error) {
	color, ok := g.colorOf(playerID)
	if !ok {
		return g.state(), errors.Wrapf(ErrNotInGame, "player %s", playerID)
	}
	if g.controller.State() != engine.StateGameOver && color.engineColor() != g.controller.Turn() {
		return g.state(), errors.Wrapf(ErrNotYourTurn, "%s to move", playerColorOf(g.controller.Turn()))
	}

	text, err := req.Text()
	if err != nil {
		return g.state(), err
	}
	status, err := g.controller.Submit(text)
	if err != nil {
		return g.state(), err
	}

	g.logger().WithFields(log.Fields{
		"player": playerID,
		"move":   text,
		"status": status,
	}).Debug("move accepted")
	return g.state(), nil
}

// LegalMoves lists the legal moves of the piece on square for the side to
// move.
func (g *Game) LegalMoves(square string) ([]engine.Move, error) {
	from, err := engine.ParseSquare(square)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.controller.LegalMovesFrom(from), nil
}

// RegisterConnection attaches conn for playerID and sends it the current
// state. Seated players may always connect; others only while a seat is
// open. A second connection for the same player is refused and closed.
func (g *Game) RegisterConnection(playerID string, conn Conn) error {
	g.mu.Lock()
	_, seated := g.colorOf(playerID)
	isAuthorized := seated || g.canSpectate()
	g.mu.Unlock()

	if !isAuthorized {
		return errors.Wrapf(ErrNotAuthorized, "player %s, game %s", playerID, g.ID)
	}

	g.connections.mu.Lock()
	if _, exists := g.connections.connections[playerID]; exists {
		// keep the healthy connection, reject the new one
		g.connections.mu.Unlock()
		var result error
		if err := conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "Connection already exists"),
		); err != nil {
			result = multierror.Append(result, err)
		}
		if err := conn.Close(); err != nil {
			result = multierror.Append(result, err)
		}
		if result != nil {
			g.logger().WithError(result).Debug("closing duplicate connection")
		}
		return nil
	}
	g.connections.connections[playerID] = conn
	g.connections.mu.Unlock()

	g.logger().WithField("player", playerID).Info("connection registered")

	// The state is read under sendMu so no older broadcast can follow it.
	g.sendMu.Lock()
	defer g.sendMu.Unlock()
	state := g.GetState()
	if state.Ply > g.sentPly {
		g.sentPly = state.Ply
	}
	return g.send(playerID, conn, state)
}

// UnregisterConnection detaches conn if it is still playerID's current
// connection; a stale connection closing does not evict its replacement.
func (g *Game) UnregisterConnection(playerID string, conn Conn) {
	if g.connections.dropIf(playerID, conn) {
		g.logger().WithField("player", playerID).Info("connection unregistered")
	}
}

// ConnectionCount reports how many connections are attached.
func (g *Game) ConnectionCount() int {
	g.connections.mu.RLock()
	defer g.connections.mu.RUnlock()
	return len(g.connections.connections)
}

// Broadcast pushes the current state to every connection.
func (g *Game) Broadcast() error {
	return g.broadcast(g.GetState())
}

// broadcast writes state to each connection without holding the game lock.
// A state older than one already pushed is skipped. Connections that fail
// are dropped; their errors are collected.
func (g *Game) broadcast(state GameState) error {
	g.sendMu.Lock()
	defer g.sendMu.Unlock()
	if state.Ply < g.sentPly {
		g.logger().WithField("ply", state.Ply).Debug("skipping stale broadcast")
		return nil
	}
	g.sentPly = state.Ply

	msg, err := ws.NewMessage(ws.MessageTypeGameState, state)
	if err != nil {
		return err
	}

	var result error
	for playerID, conn := range g.connections.snapshot() {
		if err := conn.WriteJSON(msg); err != nil {
			g.connections.dropIf(playerID, conn)
			result = multierror.Append(result, errors.Wrapf(err, "send state to %s", playerID))
		}
	}
	return result
}

func (g *Game) send(playerID string, conn Conn, state GameState) error {
	msg, err := ws.NewMessage(ws.MessageTypeGameState, state)
	if err != nil {
		return err
	}
	if err := conn.WriteJSON(msg); err != nil {
		g.connections.dropIf(playerID, conn)
		return errors.Wrapf(err, "send state to %s", playerID)
	}
	return nil
}

// Close closes every connection of the game.
func (g *Game) Close() error {
	g.connections.mu.Lock()
	conns := g.connections.connections
	g.connections.connections = make(map[string]Conn)
	g.connections.mu.Unlock()

	var result error
	for playerID, conn := range conns {
		if err := conn.Close(); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "close connection of %s", playerID))
		}
	}
	return result
}
