package model

import (
	"github.com/pkg/errors"
)

var (
	ErrGameFull      = errors.New("game is full")
	ErrNotInGame     = errors.New("player is not seated in this game")
	ErrNotYourTurn   = errors.New("not your turn")
	ErrAlreadyQueued = errors.New("player already in queue")
	ErrNotAuthorized = errors.New("not authorized to join this game")
	ErrInvalidSquare = errors.New("square is off the board")
)
