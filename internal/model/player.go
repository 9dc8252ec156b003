package model

import (
	"github.com/benbeisheim/chessrules-backend/internal/engine"
)

type Player struct {
	ID    string
	Color PlayerColor
}

type ClientPlayer struct {
	ID    string      `json:"id"`
	Color PlayerColor `json:"color"`
}

type PlayerColor string

const (
	PlayerColorWhite PlayerColor = "white"
	PlayerColorBlack PlayerColor = "black"
)

func (c PlayerColor) engineColor() engine.Color {
	if c == PlayerColorBlack {
		return engine.Black
	}
	return engine.White
}

func playerColorOf(c engine.Color) PlayerColor {
	if c == engine.Black {
		return PlayerColorBlack
	}
	return PlayerColorWhite
}
