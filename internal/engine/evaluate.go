package engine

import "fmt"

type Status int8

const (
	StatusOngoing Status = iota
	StatusCheck
	StatusCheckmate
	StatusStalemate
)

var statusNames = [...]string{"ongoing", "check", "checkmate", "stalemate"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", s)
	}
	return statusNames[s]
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether the game cannot continue.
func (s Status) Terminal() bool {
	return s == StatusCheckmate || s == StatusStalemate
}

// Evaluate classifies the position for side, the player about to move.
func Evaluate(b *Board, side Color) Status {
	inCheck := InCheck(b, side)
	if hasLegalMove(b, side) {
		if inCheck {
			return StatusCheck
		}
		return StatusOngoing
	}
	if inCheck {
		return StatusCheckmate
	}
	return StatusStalemate
}

// hasLegalMove tries pseudo-legal moves until one survives TryApply. Castling
// is not searched: whenever it is legal, so is the king's single step toward
// the rook.
func hasLegalMove(b *Board, side Color) bool {
	found := false
	b.pieces(side, func(from Coord, _ Piece) bool {
		for _, to := range Generate(b, from, ModeMove) {
			u, err := TryApply(b, Move{From: from, To: to}, side)
			if err != nil {
				continue
			}
			b.Undo(u)
			found = true
			return false
		}
		return true
	})
	return found
}

// LegalMoves lists every legal move for side, castles included.
func LegalMoves(b *Board, side Color) []Move {
	var moves []Move
	b.pieces(side, func(from Coord, _ Piece) bool {
		moves = append(moves, LegalMovesFrom(b, from, side)...)
		return true
	})
	return moves
}

// LegalMovesFrom lists the legal moves of the piece on from.
func LegalMovesFrom(b *Board, from Coord, side Color) []Move {
	var moves []Move
	for _, to := range Generate(b, from, ModeMove) {
		u, err := TryApply(b, Move{From: from, To: to}, side)
		if err != nil {
			continue
		}
		b.Undo(u)
		moves = append(moves, u.Move)
	}
	if b.PieceAt(from).Kind == King {
		for _, castle := range [2]CastleSide{Kingside, Queenside} {
			if m := CastleMove(side, castle); m.From == from && IsLegal(b, m, side) {
				moves = append(moves, m)
			}
		}
	}
	return moves
}
