package engine

import (
	"github.com/pkg/errors"
)

type castleGeometry struct {
	kingFrom, kingTo Coord
	rookFrom, rookTo Coord
	// between lists the squares strictly between king and rook.
	between []Coord
	// path lists the squares the king stands on, passes, and lands on.
	path []Coord
}

func geometry(color Color, side CastleSide) castleGeometry {
	row := homeRow(color)
	at := func(col int) Coord { return Coord{Row: row, Col: col} }
	if side == Kingside {
		return castleGeometry{
			kingFrom: at(4),
			kingTo:   at(6),
			rookFrom: at(7),
			rookTo:   at(5),
			between:  []Coord{at(5), at(6)},
			path:     []Coord{at(4), at(5), at(6)},
		}
	}
	return castleGeometry{
		kingFrom: at(4),
		kingTo:   at(2),
		rookFrom: at(0),
		rookTo:   at(3),
		between:  []Coord{at(1), at(2), at(3)},
		path:     []Coord{at(4), at(3), at(2)},
	}
}

// CanCastle reports whether color may castle on side: king and rook unmoved on
// their home squares, nothing between them, and no square of the king's path
// attacked.
func CanCastle(b *Board, color Color, side CastleSide) bool {
	return castleBlocker(b, color, side) == ""
}

func castleBlocker(b *Board, color Color, side CastleSide) string {
	g := geometry(color, side)
	king := b.PieceAt(g.kingFrom)
	if king.Kind != King || king.Color != color || king.HasMoved {
		return "king has moved"
	}
	rook := b.PieceAt(g.rookFrom)
	if rook.Kind != Rook || rook.Color != color || rook.HasMoved {
		return "rook has moved"
	}
	for _, sq := range g.between {
		if !b.PieceAt(sq).IsEmpty() {
			return "path blocked at " + sq.String()
		}
	}
	attacks := BuildAttackMap(b, color.Opposite())
	for _, sq := range g.path {
		if attacks.Attacked(sq) {
			return sq.String() + " is attacked"
		}
	}
	return ""
}

// DoCastle moves king and rook and marks both as moved. Call it only after
// CanCastle succeeded.
func DoCastle(b *Board, color Color, side CastleSide) UndoToken {
	g := geometry(color, side)
	u := UndoToken{Move: CastleMove(color, side), ply: b.ply}

	king := b.PieceAt(g.kingFrom)
	king.HasMoved = true
	king.DoubleStepPly = 0
	rook := b.PieceAt(g.rookFrom)
	rook.HasMoved = true

	u.set(b, g.kingFrom, Piece{})
	u.set(b, g.rookFrom, Piece{})
	u.set(b, g.kingTo, king)
	u.set(b, g.rookTo, rook)
	b.ply++
	return u
}

func tryCastle(b *Board, m Move, mover Color) (UndoToken, error) {
	side := m.Kind.side()
	if want := CastleMove(mover, side); m.From != want.From || m.To != want.To {
		return UndoToken{}, errors.Wrapf(ErrIllegalCastle, "%s castles %s from %s to %s", mover, side, want.From, want.To)
	}
	if reason := castleBlocker(b, mover, side); reason != "" {
		return UndoToken{}, errors.Wrapf(ErrIllegalCastle, "%s %s: %s", mover, side, reason)
	}
	u := DoCastle(b, mover, side)
	if InCheck(b, mover) {
		b.Undo(u)
		return UndoToken{}, errors.Wrapf(ErrIllegalCastle, "%s %s leaves own king in check", mover, side)
	}
	return u, nil
}
