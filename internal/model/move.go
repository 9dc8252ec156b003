package model

import (
	"strings"
)

// MoveRequest is a move as sent by a client, over REST or WebSocket. Move
// carries the text form ("e2e4", "O-O"); clients that address squares by
// index send From and To instead.
type MoveRequest struct {
	Move string    `json:"move,omitempty"`
	From *Position `json:"from,omitempty"`
	To   *Position `json:"to,omitempty"`
}

// Text returns the move in the form engine.ParseMove reads. Index
// coordinates off the board are rejected.
func (r MoveRequest) Text() (string, error) {
	if r.Move != "" || r.From == nil || r.To == nil {
		return strings.TrimSpace(r.Move), nil
	}
	if _, err := r.From.Coord(); err != nil {
		return "", err
	}
	if _, err := r.To.Coord(); err != nil {
		return "", err
	}
	return r.From.getSquareNotation() + r.To.getSquareNotation(), nil
}
