package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benbeisheim/chessrules-backend/internal/engine"
	"github.com/benbeisheim/chessrules-backend/internal/model"
	"github.com/benbeisheim/chessrules-backend/internal/service"
	"github.com/benbeisheim/chessrules-backend/internal/ws"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	app *fiber.App
	gs  *service.GameService
	wsc *WebSocketController
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gm := service.NewGameManager(context.Background(), time.Hour)
	t.Cleanup(func() { require.NoError(t, gm.Close()) })

	gs := service.NewGameService(gm)
	gc := NewGameController(gs)
	wsc := NewWebSocketController(gs)

	app := fiber.New()
	Register(app, gc, wsc, websocket.Config{})
	return &testServer{app: app, gs: gs, wsc: wsc}
}

// do sends a request as playerID and decodes the JSON response into out.
func (s *testServer) do(t *testing.T, method, target, playerID, body string, out interface{}) int {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if playerID != "" {
		req.Header.Set("X-Player-ID", playerID)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *testServer) createGame(t *testing.T, body string) string {
	t.Helper()
	var created struct {
		GameID string `json:"game_id"`
	}
	status := s.do(t, http.MethodPost, "/api/game/create", "alice", body, &created)
	require.Equal(t, fiber.StatusOK, status)
	require.NotEmpty(t, created.GameID)
	return created.GameID
}

type errorBody struct {
	Error string `json:"error"`
}

type stateBody struct {
	ToMove   string  `json:"toMove"`
	State    string  `json:"state"`
	Status   string  `json:"status"`
	Ply      int     `json:"ply"`
	FEN      string  `json:"fen"`
	IsCheck  bool    `json:"isCheck"`
	Resolve  *string `json:"resolve"`
	LastMove *struct {
		From string `json:"from"`
		To   string `json:"to"`
		Kind string `json:"kind"`
	} `json:"lastMove"`
	Players model.Players `json:"players"`
}

func TestRequiresPlayerID(t *testing.T) {
	s := newTestServer(t)
	var body errorBody
	status := s.do(t, http.MethodPost, "/api/game/create", "", "", &body)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.NotEmpty(t, body.Error)
}

func TestGameLifecycle(t *testing.T) {
	s := newTestServer(t)
	gameID := s.createGame(t, "")

	var joined struct {
		Color string `json:"color"`
	}
	require.Equal(t, fiber.StatusOK, s.do(t, http.MethodPost, "/api/game/join/"+gameID, "alice", "", &joined))
	assert.Equal(t, "white", joined.Color)
	require.Equal(t, fiber.StatusOK, s.do(t, http.MethodPost, "/api/game/join/"+gameID, "bob", "", &joined))
	assert.Equal(t, "black", joined.Color)

	var state stateBody
	require.Equal(t, fiber.StatusOK, s.do(t, http.MethodGet, "/api/game/"+gameID, "carol", "", &state))
	assert.Equal(t, "white", state.ToMove)
	assert.Equal(t, engine.StartFEN, state.FEN)
	assert.Nil(t, state.LastMove)
	assert.Equal(t, "alice", state.Players.White.ID)

	require.Equal(t, fiber.StatusOK, s.do(t, http.MethodPost, "/api/game/"+gameID+"/move", "alice", `{"move":"e2e4"}`, &state))
	assert.Equal(t, "black", state.ToMove)
	assert.Equal(t, 1, state.Ply)
	require.NotNil(t, state.LastMove)
	assert.Equal(t, "e2", state.LastMove.From)
	assert.Equal(t, "e4", state.LastMove.To)

	// index coordinates count rows from rank 8: e7e5
	body := `{"from":{"x":4,"y":1},"to":{"x":4,"y":3}}`
	require.Equal(t, fiber.StatusOK, s.do(t, http.MethodPost, "/api/game/"+gameID+"/move", "bob", body, &state))
	assert.Equal(t, "white", state.ToMove)

	var moves struct {
		Square  string           `json:"square"`
		Moves   []engine.Move    `json:"moves"`
		Targets []model.Position `json:"targets"`
	}
	require.Equal(t, fiber.StatusOK, s.do(t, http.MethodGet, "/api/game/"+gameID+"/moves/g1", "alice", "", &moves))
	assert.Equal(t, "g1", moves.Square)
	assert.Len(t, moves.Moves, 3)
	assert.Len(t, moves.Targets, 3)
}

func TestMoveErrors(t *testing.T) {
	s := newTestServer(t)
	gameID := s.createGame(t, "")
	require.Equal(t, fiber.StatusOK, s.do(t, http.MethodPost, "/api/game/join/"+gameID, "alice", "", nil))
	require.Equal(t, fiber.StatusOK, s.do(t, http.MethodPost, "/api/game/join/"+gameID, "bob", "", nil))

	tests := []struct {
		name   string
		game   string
		player string
		body   string
		status int
	}{
		{"unknown game", "nope", "alice", `{"move":"e2e4"}`, fiber.StatusNotFound},
		{"bad json", gameID, "alice", `{"move":`, fiber.StatusBadRequest},
		{"malformed move", gameID, "alice", `{"move":"e2"}`, fiber.StatusBadRequest},
		{"off-board index", gameID, "alice", `{"from":{"x":9,"y":0},"to":{"x":0,"y":0}}`, fiber.StatusBadRequest},
		{"spectator", gameID, "carol", `{"move":"e2e4"}`, fiber.StatusForbidden},
		{"wrong turn", gameID, "bob", `{"move":"e7e5"}`, fiber.StatusForbidden},
		{"empty square", gameID, "alice", `{"move":"e3e4"}`, fiber.StatusUnprocessableEntity},
		{"own capture", gameID, "alice", `{"move":"a1a2"}`, fiber.StatusUnprocessableEntity},
		{"illegal geometry", gameID, "alice", `{"move":"e2e5"}`, fiber.StatusUnprocessableEntity},
		{"blocked castle", gameID, "alice", `{"move":"O-O"}`, fiber.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body errorBody
			status := s.do(t, http.MethodPost, "/api/game/"+tt.game+"/move", tt.player, tt.body, &body)
			assert.Equal(t, tt.status, status)
			assert.NotEmpty(t, body.Error)
		})
	}

	var state stateBody
	require.Equal(t, fiber.StatusOK, s.do(t, http.MethodGet, "/api/game/"+gameID, "alice", "", &state))
	assert.Equal(t, 0, state.Ply, "rejected moves change nothing")
}

func TestGameOverAndFEN(t *testing.T) {
	s := newTestServer(t)

	var state stateBody
	checked := s.createGame(t, `{"fen":"4k3/8/8/8/8/8/5q2/4K3 w - - 0 1"}`)
	require.Equal(t, fiber.StatusOK, s.do(t, http.MethodGet, "/api/game/"+checked, "alice", "", &state))
	assert.True(t, state.IsCheck)
	assert.Equal(t, "check", state.Status)
	assert.Nil(t, state.Resolve)

	gameID := s.createGame(t, `{"fen":"k7/8/1K6/8/8/8/8/2Q5 w - - 0 1"}`)
	require.Equal(t, fiber.StatusOK, s.do(t, http.MethodPost, "/api/game/join/"+gameID, "alice", "", nil))
	require.Equal(t, fiber.StatusOK, s.do(t, http.MethodPost, "/api/game/join/"+gameID, "bob", "", nil))

	require.Equal(t, fiber.StatusOK, s.do(t, http.MethodPost, "/api/game/"+gameID+"/move", "alice", `{"move":"c1c7"}`, &state))
	assert.Equal(t, "stalemate", state.Status)
	assert.Equal(t, "gameOver", state.State)
	assert.False(t, state.IsCheck)
	require.NotNil(t, state.Resolve)
	assert.Equal(t, "stalemate", *state.Resolve)

	var body errorBody
	assert.Equal(t, fiber.StatusConflict, s.do(t, http.MethodPost, "/api/game/"+gameID+"/move", "bob", `{"move":"a8b8"}`, &body))

	assert.Equal(t, fiber.StatusBadRequest, s.do(t, http.MethodPost, "/api/game/create", "alice", `{"fen":"8/8 w"}`, &body))
}

func TestSeatsKeepTheirOwners(t *testing.T) {
	s := newTestServer(t)
	gameID := s.createGame(t, "")
	require.Equal(t, fiber.StatusOK, s.do(t, http.MethodPost, "/api/game/join/"+gameID, "alice", "", nil))
	require.Equal(t, fiber.StatusOK, s.do(t, http.MethodPost, "/api/game/join/"+gameID, "bob", "", nil))

	var body errorBody
	for _, id := range []string{"carol", "carl", "zed"} {
		assert.Equal(t, fiber.StatusForbidden, s.do(t, http.MethodPost, "/api/game/"+gameID+"/move", id, `{"move":"e2e4"}`, &body), id)
	}

	var state stateBody
	require.Equal(t, fiber.StatusOK, s.do(t, http.MethodGet, "/api/game/"+gameID, "mallory", "", &state))
	assert.Equal(t, 0, state.Ply)
	assert.Equal(t, "alice", state.Players.White.ID)
	assert.Equal(t, "bob", state.Players.Black.ID)

	require.Equal(t, fiber.StatusOK, s.do(t, http.MethodPost, "/api/game/"+gameID+"/move", "alice", `{"move":"e2e4"}`, &state))
	assert.Equal(t, 1, state.Ply)
}

func TestJoinErrors(t *testing.T) {
	s := newTestServer(t)
	gameID := s.createGame(t, "")
	for _, p := range []string{"alice", "bob"} {
		require.Equal(t, fiber.StatusOK, s.do(t, http.MethodPost, "/api/game/join/"+gameID, p, "", nil))
	}

	var body errorBody
	assert.Equal(t, fiber.StatusConflict, s.do(t, http.MethodPost, "/api/game/join/"+gameID, "carol", "", &body))
	assert.Equal(t, fiber.StatusNotFound, s.do(t, http.MethodPost, "/api/game/join/missing", "carol", "", &body))
	assert.Equal(t, fiber.StatusNotFound, s.do(t, http.MethodGet, "/api/game/missing", "carol", "", &body))
	assert.Equal(t, fiber.StatusBadRequest, s.do(t, http.MethodGet, "/api/game/"+gameID+"/moves/z0", "carol", "", &body))
}

func TestMatchmakingRoutes(t *testing.T) {
	s := newTestServer(t)

	var body map[string]string
	require.Equal(t, fiber.StatusOK, s.do(t, http.MethodPost, "/api/game/matchmaking/join", "alice", "", &body))
	assert.Equal(t, "queued", body["status"])
	assert.Equal(t, fiber.StatusConflict, s.do(t, http.MethodPost, "/api/game/matchmaking/join", "alice", "", &body))

	require.Equal(t, fiber.StatusOK, s.do(t, http.MethodPost, "/api/game/matchmaking/leave", "alice", "", &body))
	assert.Equal(t, fiber.StatusNotFound, s.do(t, http.MethodPost, "/api/game/matchmaking/leave", "alice", "", &body))
}

func TestWebSocketRoutesRequireUpgrade(t *testing.T) {
	s := newTestServer(t)
	gameID := s.createGame(t, "")
	assert.Equal(t, fiber.StatusUpgradeRequired, s.do(t, http.MethodGet, "/ws/game/"+gameID, "alice", "", nil))
	assert.Equal(t, fiber.StatusUnauthorized, s.do(t, http.MethodGet, "/ws/matchmaking", "", "", nil))
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.Wrap(service.ErrGameNotFound, "x"), fiber.StatusNotFound},
		{&engine.InputFormatError{Text: "zz", Reason: "short"}, fiber.StatusBadRequest},
		{errors.Wrap(engine.ErrInvalidFEN, "x"), fiber.StatusBadRequest},
		{errors.Wrap(model.ErrNotYourTurn, "x"), fiber.StatusForbidden},
		{errors.Wrap(model.ErrGameFull, "x"), fiber.StatusConflict},
		{errors.Wrap(engine.ErrGameOver, "x"), fiber.StatusConflict},
		{errors.Wrap(engine.ErrIllegalCastle, "x"), fiber.StatusUnprocessableEntity},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusOf(tt.err), "%v", tt.err)
	}
}

func TestHandleMessage(t *testing.T) {
	s := newTestServer(t)
	gameID := s.createGame(t, "")
	for _, p := range []string{"alice", "bob"} {
		require.Equal(t, fiber.StatusOK, s.do(t, http.MethodPost, "/api/game/join/"+gameID, p, "", nil))
	}

	move := ws.Message{Type: ws.MessageTypeMove, Payload: json.RawMessage(`{"move":"d2d4"}`)}
	reply, err := s.wsc.handleMessage(gameID, "alice", move)
	require.NoError(t, err)
	assert.Nil(t, reply)

	_, err = s.wsc.handleMessage(gameID, "alice", move)
	assert.True(t, errors.Is(err, model.ErrNotYourTurn))

	query := ws.Message{Type: ws.MessageTypeLegalMoves, Payload: json.RawMessage(`{"square":"b8"}`)}
	reply, err = s.wsc.handleMessage(gameID, "bob", query)
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, ws.MessageTypeLegalMoves, reply.Type)
	assert.Contains(t, string(reply.Payload), `"square":"b8"`)

	_, err = s.wsc.handleMessage(gameID, "bob", ws.Message{Type: "resign"})
	assert.True(t, errors.Is(err, errUnknownMessage))

	_, err = s.wsc.handleMessage(gameID, "bob", ws.Message{Type: ws.MessageTypeMove, Payload: json.RawMessage(`[]`)})
	assert.Error(t, err)
}

func TestErrorMessageIsJSON(t *testing.T) {
	msg := ws.ErrorMessage(errors.New(`bad "move"`))
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"error","payload":{"error":"bad \"move\""}}`, string(data))
}
