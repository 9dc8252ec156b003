package service

import (
	"github.com/apex/log"
	"github.com/benbeisheim/chessrules-backend/internal/engine"
	"github.com/benbeisheim/chessrules-backend/internal/model"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type GameService struct {
	gameManager *GameManager
}

func NewGameService(gameManager *GameManager) *GameService {
	return &GameService{
		gameManager: gameManager,
	}
}

func (gs *GameService) JoinGame(gameID string, playerID string) (model.PlayerColor, error) {
	color, err := gs.gameManager.AddPlayerToGame(gameID, playerID)
	if err != nil {
		return "", err
	}
	log.WithFields(log.Fields{"game": gameID, "player": playerID, "color": color}).Info("player joined")
	return color, nil
}

// CreateGame hosts a new game under a fresh ID, from fen if it is not empty.
func (gs *GameService) CreateGame(fen string) (string, error) {
	gameID := uuid.New().String()

	if err := gs.gameManager.CreateGame(gameID, fen); err != nil {
		return "", errors.Wrap(err, "failed to create game")
	}

	log.WithFields(log.Fields{"game": gameID, "fen": fen}).Info("game created")
	return gameID, nil
}

func (gs *GameService) JoinMatchmaking(playerID string) error {
	if err := gs.gameManager.JoinMatchmaking(playerID); err != nil {
		return err
	}
	log.WithField("player", playerID).Info("player queued")
	return nil
}

func (gs *GameService) LeaveMatchmaking(playerID string) bool {
	return gs.gameManager.LeaveMatchmaking(playerID)
}

func (gs *GameService) GetGameState(gameID string) (model.GameState, error) {
	return gs.gameManager.GetGameState(gameID)
}

func (gs *GameService) HandleMove(gameID string, playerID string, move model.MoveRequest) (model.GameState, error) {
	state, err := gs.gameManager.MakeMove(gameID, playerID, move)
	if err != nil {
		log.WithFields(log.Fields{
			"game":   gameID,
			"player": playerID,
		}).WithError(err).Debug("move rejected")
		return state, err
	}
	return state, nil
}

func (gs *GameService) LegalMoves(gameID, square string) ([]engine.Move, error) {
	return gs.gameManager.LegalMoves(gameID, square)
}

func (gs *GameService) RegisterConnection(gameID string, playerID string, conn model.Conn) error {
	return gs.gameManager.RegisterConnection(gameID, playerID, conn)
}

func (gs *GameService) UnregisterConnection(gameID string, playerID string, conn model.Conn) {
	gs.gameManager.UnregisterConnection(gameID, playerID, conn)
}

func (gs *GameService) RegisterMatchmakingChannel(playerID string, ch chan string) {
	gs.gameManager.RegisterMatchmakingChannel(playerID, ch)
}

func (gs *GameService) UnregisterMatchmakingChannel(playerID string, ch chan string) {
	gs.gameManager.UnregisterMatchmakingChannel(playerID, ch)
}
