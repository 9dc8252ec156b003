package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/benbeisheim/chessrules-backend/internal/engine"
	"github.com/benbeisheim/chessrules-backend/internal/model"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrGameExists   = errors.New("game already exists")
)

type GameManager struct {
	games            map[string]*model.Game
	queue            *model.Queue
	matchingChannels map[string]chan string
	mu               sync.RWMutex

	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewGameManager starts the matchmaking loop, which pairs queued players
// every interval until ctx is cancelled or Close is called.
func NewGameManager(ctx context.Context, interval time.Duration) *GameManager {
	ctx, cancel := context.WithCancel(ctx)
	gm := &GameManager{
		games:            make(map[string]*model.Game),
		queue:            model.NewQueue(),
		matchingChannels: make(map[string]chan string),
		interval:         interval,
		cancel:           cancel,
		done:             make(chan struct{}),
	}

	go gm.processMatchmaking(ctx)

	return gm
}

func (gm *GameManager) processMatchmaking(ctx context.Context) {
	defer close(gm.done)
	ticker := time.NewTicker(gm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			gm.matchPending()
		}
	}
}

// matchPending pairs queued players two at a time and returns the IDs of the
// games it created.
func (gm *GameManager) matchPending() []string {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	var created []string
	for {
		player1, player2, ok := gm.queue.GetNextPair()
		if !ok {
			return created
		}

		gameID := uuid.New().String()
		game := model.NewGame(gameID)
		p1Color, err := game.AddPlayer(player1.ID)
		if err != nil {
			log.WithError(err).WithField("game", gameID).Error("seating matched player")
			continue
		}
		p2Color, err := game.AddPlayer(player2.ID)
		if err != nil {
			log.WithError(err).WithField("game", gameID).Error("seating matched player")
			continue
		}
		gm.games[gameID] = game
		created = append(created, gameID)

		logger := log.WithFields(log.Fields{
			"game":  gameID,
			"white": player1.ID,
			"black": player2.ID,
		})
		logger.Info("match found")

		sent := gm.notifyMatch(player1.ID, model.MatchFoundEvent{GameID: gameID, Color: p1Color})
		sent = gm.notifyMatch(player2.ID, model.MatchFoundEvent{GameID: gameID, Color: p2Color}) && sent
		if !sent {
			// the game stays joinable by ID
			logger.Warn("not every player was notified of the match")
		}
	}
}

// notifyMatch sends event on playerID's matchmaking channel and retires the
// channel. Callers hold gm.mu.
func (gm *GameManager) notifyMatch(playerID string, event model.MatchFoundEvent) bool {
	ch, ok := gm.matchingChannels[playerID]
	if !ok {
		return false
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).WithField("player", playerID).Error("encoding match event")
		return false
	}

	select {
	case ch <- string(data):
		delete(gm.matchingChannels, playerID)
		close(ch)
		return true
	default:
		log.WithField("player", playerID).Warn("matchmaking channel is full")
		return false
	}
}

// RegisterMatchmakingChannel subscribes ch to playerID's match event. A
// previous channel for the same player is closed.
func (gm *GameManager) RegisterMatchmakingChannel(playerID string, ch chan string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if existing, exists := gm.matchingChannels[playerID]; exists {
		delete(gm.matchingChannels, playerID)
		close(existing)
	}
	gm.matchingChannels[playerID] = ch
}

// UnregisterMatchmakingChannel forgets ch if it is still playerID's channel.
// The channel is not closed; its reader owns it from here.
func (gm *GameManager) UnregisterMatchmakingChannel(playerID string, ch chan string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if current, ok := gm.matchingChannels[playerID]; ok && current == ch {
		delete(gm.matchingChannels, playerID)
	}
}

// CreateGame registers a new game. An empty fen starts from the standard
// position.
func (gm *GameManager) CreateGame(gameID, fen string) error {
	game := model.NewGame(gameID)
	if fen != "" {
		var err error
		if game, err = model.NewGameFromFEN(gameID, fen); err != nil {
			return err
		}
	}

	gm.mu.Lock()
	defer gm.mu.Unlock()

	if _, exists := gm.games[gameID]; exists {
		return errors.Wrapf(ErrGameExists, "game %s", gameID)
	}
	gm.games[gameID] = game
	return nil
}

func (gm *GameManager) GetGame(gameID string) (*model.Game, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	game, exists := gm.games[gameID]
	if !exists {
		return nil, errors.Wrapf(ErrGameNotFound, "game %s", gameID)
	}
	return game, nil
}

func (gm *GameManager) AddPlayerToGame(gameID string, playerID string) (model.PlayerColor, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return "", err
	}
	return game.AddPlayer(playerID)
}

func (gm *GameManager) JoinMatchmaking(playerID string) error {
	return gm.queue.AddPlayer(model.Player{ID: playerID})
}

func (gm *GameManager) LeaveMatchmaking(playerID string) bool {
	return gm.queue.RemovePlayer(playerID)
}

func (gm *GameManager) GetGameState(gameID string) (model.GameState, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return model.GameState{}, err
	}
	return game.GetState(), nil
}

// MakeMove looks the game up and hands the move over. The manager lock is
// not held while the game validates and broadcasts.
func (gm *GameManager) MakeMove(gameID string, playerID string, move model.MoveRequest) (model.GameState, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return model.GameState{}, err
	}
	return game.MakeMove(playerID, move)
}

func (gm *GameManager) LegalMoves(gameID, square string) ([]engine.Move, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return nil, err
	}
	return game.LegalMoves(square)
}

func (gm *GameManager) RegisterConnection(gameID string, playerID string, conn model.Conn) error {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}
	return game.RegisterConnection(playerID, conn)
}

func (gm *GameManager) UnregisterConnection(gameID string, playerID string, conn model.Conn) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return
	}
	game.UnregisterConnection(playerID, conn)
}

// Close stops matchmaking, releases waiting subscribers and closes every
// game's connections.
func (gm *GameManager) Close() error {
	gm.cancel()
	<-gm.done

	gm.mu.Lock()
	defer gm.mu.Unlock()

	for playerID, ch := range gm.matchingChannels {
		delete(gm.matchingChannels, playerID)
		close(ch)
	}

	var result error
	for id, game := range gm.games {
		if err := game.Close(); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "close game %s", id))
		}
	}
	return result
}
