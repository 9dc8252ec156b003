package controller

import (
	"encoding/json"
	"sync"

	"github.com/apex/log"
	"github.com/benbeisheim/chessrules-backend/internal/middleware"
	"github.com/benbeisheim/chessrules-backend/internal/model"
	"github.com/benbeisheim/chessrules-backend/internal/service"
	"github.com/benbeisheim/chessrules-backend/internal/ws"
	"github.com/gofiber/websocket/v2"
	"github.com/pkg/errors"
)

var errUnknownMessage = errors.New("unknown message type")

// lockedConn serializes writes to a connection: the handler's replies and
// the game's broadcasts come from different goroutines.
type lockedConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (lc *lockedConn) WriteJSON(v interface{}) error {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.conn.WriteJSON(v)
}

func (lc *lockedConn) WriteMessage(messageType int, data []byte) error {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.conn.WriteMessage(messageType, data)
}

func (lc *lockedConn) Close() error {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.conn.Close()
}

type WebSocketController struct {
	gameService *service.GameService
}

func NewWebSocketController(gameService *service.GameService) *WebSocketController {
	return &WebSocketController{
		gameService: gameService,
	}
}

// HandleConnection serves one player's game socket: it registers the
// connection, then applies incoming messages until the client goes away.
func (wsc *WebSocketController) HandleConnection(c *websocket.Conn) {
	gameID := c.Params("gameId")
	playerID, _ := c.Locals(middleware.LocalsPlayerID).(string)
	logger := log.WithFields(log.Fields{"game": gameID, "player": playerID})
	conn := &lockedConn{conn: c}

	if err := wsc.gameService.RegisterConnection(gameID, playerID, conn); err != nil {
		logger.WithError(err).Warn("failed to register connection")
		wsc.sendError(conn, err)
		conn.Close()
		return
	}
	defer wsc.gameService.UnregisterConnection(gameID, playerID, conn)

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			logger.WithError(err).Debug("read loop ended")
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg ws.Message
		if err := json.Unmarshal(message, &msg); err != nil {
			wsc.sendError(conn, errors.Wrap(err, "malformed message"))
			continue
		}

		reply, err := wsc.handleMessage(gameID, playerID, msg)
		if err != nil {
			logger.WithError(err).Debug("message rejected")
			wsc.sendError(conn, err)
			continue
		}
		if reply != nil {
			if err := conn.WriteJSON(reply); err != nil {
				logger.WithError(err).Warn("write reply")
				return
			}
		}
	}
}

// handleMessage applies msg and returns an optional direct reply. An
// accepted move needs no reply: the game broadcasts its new state.
func (wsc *WebSocketController) handleMessage(gameID, playerID string, msg ws.Message) (*ws.Message, error) {
	switch msg.Type {
	case ws.MessageTypeMove:
		var move model.MoveRequest
		if err := json.Unmarshal(msg.Payload, &move); err != nil {
			return nil, errors.Wrap(err, "malformed move payload")
		}
		_, err := wsc.gameService.HandleMove(gameID, playerID, move)
		return nil, err

	case ws.MessageTypeLegalMoves:
		var req ws.LegalMovesRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return nil, errors.Wrap(err, "malformed legal moves payload")
		}
		moves, err := wsc.gameService.LegalMoves(gameID, req.Square)
		if err != nil {
			return nil, err
		}
		reply, err := ws.NewMessage(ws.MessageTypeLegalMoves, legalMovesPayload{
			Square:  req.Square,
			Moves:   moves,
			Targets: model.TargetsOf(moves),
		})
		if err != nil {
			return nil, err
		}
		return &reply, nil

	default:
		return nil, errors.Wrapf(errUnknownMessage, "%q", msg.Type)
	}
}

// HandleMatchmaking waits on the player's matchmaking channel and forwards
// the match event, or gives up when the client disconnects.
func (wsc *WebSocketController) HandleMatchmaking(c *websocket.Conn) {
	playerID, _ := c.Locals(middleware.LocalsPlayerID).(string)
	logger := log.WithField("player", playerID)

	ch := make(chan string, 1)
	wsc.gameService.RegisterMatchmakingChannel(playerID, ch)
	defer wsc.gameService.UnregisterMatchmakingChannel(playerID, ch)

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case event, ok := <-ch:
		if !ok {
			logger.Debug("matchmaking subscription replaced")
			c.Close()
			<-gone
			return
		}
		msg := ws.Message{Type: ws.MessageTypeMatchFound, Payload: json.RawMessage(event)}
		if err := c.WriteJSON(msg); err != nil {
			logger.WithError(err).Warn("send match event")
		}
		c.Close()
		<-gone
	case <-gone:
		logger.Debug("matchmaking socket closed before a match")
	}
}

// sendError reports err to the client as a JSON error message.
func (wsc *WebSocketController) sendError(conn model.Conn, err error) {
	if werr := conn.WriteJSON(ws.ErrorMessage(err)); werr != nil {
		log.WithError(werr).Debug("send error message")
	}
}
