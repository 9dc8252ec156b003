package model

import (
	"github.com/benbeisheim/chessrules-backend/internal/engine"
	"github.com/pkg/errors"
)

// Position is the client's square addressing: X is the file (0 = a), Y the
// row from the top of the board (0 = rank 8).
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Position) Coord() (engine.Coord, error) {
	c := engine.Coord{Row: p.Y, Col: p.X}
	if !c.Valid() {
		return engine.Coord{}, errors.Wrapf(ErrInvalidSquare, "x=%d y=%d", p.X, p.Y)
	}
	return c, nil
}

func PositionOf(c engine.Coord) Position {
	return Position{X: c.Col, Y: c.Row}
}

// getSquareNotation renders the position as algebraic text, e.g. "e4".
func (p Position) getSquareNotation() string {
	return engine.Coord{Row: p.Y, Col: p.X}.String()
}

// TargetsOf lists the destination of each move, in order.
func TargetsOf(moves []engine.Move) []Position {
	targets := make([]Position, 0, len(moves))
	for _, m := range moves {
		targets = append(targets, PositionOf(m.To))
	}
	return targets
}
