package engine

import (
	"github.com/pkg/errors"
)

type squareChange struct {
	at    Coord
	prior Piece
}

// UndoToken records everything a move overwrote so Board.Undo can put it back.
type UndoToken struct {
	Move Move
	// Captured is the piece removed by the move, empty if none.
	Captured Piece
	changes  []squareChange
	ply      int
}

// set writes p on at, remembering what was there.
func (u *UndoToken) set(b *Board, at Coord, p Piece) {
	u.changes = append(u.changes, squareChange{at: at, prior: b.PieceAt(at)})
	b.SetPiece(at, p)
}

// Undo reverts a move applied by TryApply or DoCastle. Tokens must be undone
// in reverse order of application.
func (b *Board) Undo(u UndoToken) {
	for i := len(u.changes) - 1; i >= 0; i-- {
		b.SetPiece(u.changes[i].at, u.changes[i].prior)
	}
	b.ply = u.ply
}

// IsLegal reports whether mover may play m on b. The board is unchanged
// afterwards.
func IsLegal(b *Board, m Move, mover Color) bool {
	u, err := TryApply(b, m, mover)
	if err != nil {
		return false
	}
	b.Undo(u)
	return true
}

// TryApply plays m for mover if it is legal and returns the token that undoes
// it. On any error the board is left exactly as it was.
func TryApply(b *Board, m Move, mover Color) (UndoToken, error) {
	if m.Kind.IsCastle() {
		return tryCastle(b, m, mover)
	}
	if !m.From.Valid() || !m.To.Valid() {
		return UndoToken{}, errors.Wrapf(ErrIllegalMove, "%v is off the board", m)
	}

	piece := b.PieceAt(m.From)
	if piece.IsEmpty() {
		return UndoToken{}, errors.Wrapf(ErrIllegalSelection, "no piece on %s", m.From)
	}
	if piece.Color != mover {
		return UndoToken{}, errors.Wrapf(ErrIllegalSelection, "%s on %s belongs to %s", piece.Kind, m.From, piece.Color)
	}

	kind, err := resolveKind(b, m, piece)
	if err != nil {
		return UndoToken{}, err
	}
	if kind.IsCastle() {
		return tryCastle(b, Move{From: m.From, To: m.To, Kind: kind}, mover)
	}

	target := b.PieceAt(m.To)
	if !target.IsEmpty() && target.Color == mover {
		return UndoToken{}, errors.Wrapf(ErrIllegalCapture, "%s is occupied by own %s", m.To, target.Kind)
	}
	if !containsCoord(Generate(b, m.From, ModeMove), m.To) {
		return UndoToken{}, errors.Wrapf(ErrIllegalMove, "%s cannot move %s", piece.Kind, m)
	}

	u := UndoToken{Move: Move{From: m.From, To: m.To, Kind: kind}, Captured: target, ply: b.ply}

	moved := piece
	moved.HasMoved = true
	moved.DoubleStepPly = 0
	if piece.Kind == Pawn && abs(m.To.Row-m.From.Row) == 2 {
		moved.DoubleStepPly = b.ply + 1
	}

	if kind == EnPassantCapture {
		victim := Coord{Row: m.From.Row, Col: m.To.Col}
		u.Captured = b.PieceAt(victim)
		u.set(b, victim, Piece{})
	}
	u.set(b, m.To, moved)
	u.set(b, m.From, Piece{})

	if InCheck(b, mover) {
		b.Undo(u)
		return UndoToken{}, errors.Wrapf(ErrIllegalMove, "%s leaves own king in check", m)
	}

	b.ply++
	return u, nil
}

// resolveKind derives the move kind from the board. A pawn moving diagonally
// onto an empty square is an en passant capture and a king moving two files is
// a castle. A caller-supplied kind must agree.
func resolveKind(b *Board, m Move, piece Piece) (MoveKind, error) {
	kind := Normal
	switch piece.Kind {
	case Pawn:
		if m.From.Col != m.To.Col && b.PieceAt(m.To).IsEmpty() {
			kind = EnPassantCapture
		}
	case King:
		if m.From.Row == m.To.Row && abs(m.To.Col-m.From.Col) == 2 {
			kind = CastleKingside
			if m.To.Col < m.From.Col {
				kind = CastleQueenside
			}
		}
	}
	if m.Kind != Normal && m.Kind != kind {
		return Normal, errors.Wrapf(ErrIllegalMove, "%s is not a %s move", m, m.Kind)
	}
	return kind, nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
