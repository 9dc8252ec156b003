package engine

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var fenLetters = map[Kind]byte{
	Pawn:   'p',
	Knight: 'n',
	Bishop: 'b',
	Rook:   'r',
	Queen:  'q',
	King:   'k',
}

func kindFromLetter(c rune) Kind {
	for kind, letter := range fenLetters {
		if rune(letter) == unicode.ToLower(c) {
			return kind
		}
	}
	return NoKind
}

// ParseFEN builds a board and the side to move from a FEN string. Castling
// rights become the hasMoved flags of kings and rooks, and an en passant
// square stamps the pawn that just double-stepped. The halfmove clock is
// accepted but not tracked.
func ParseFEN(fen string) (*Board, Color, error) {
	fields := strings.Fields(fen)
	if len(fields) < 2 {
		return nil, White, errors.Wrapf(ErrInvalidFEN, "%q needs at least placement and side to move", fen)
	}

	b := EmptyBoard()
	if err := parsePlacement(b, fields[0]); err != nil {
		return nil, White, err
	}

	var side Color
	switch fields[1] {
	case "w":
		side = White
	case "b":
		side = Black
	default:
		return nil, White, errors.Wrapf(ErrInvalidFEN, "side to move %q", fields[1])
	}

	castling := "-"
	if len(fields) > 2 {
		castling = fields[2]
	}
	applyCastlingRights(b, castling)

	fullmove := 1
	if len(fields) > 5 {
		n, err := strconv.Atoi(fields[5])
		if err != nil || n < 1 {
			return nil, White, errors.Wrapf(ErrInvalidFEN, "fullmove number %q", fields[5])
		}
		fullmove = n
	}
	b.ply = 2 * (fullmove - 1)
	if side == Black {
		b.ply++
	}

	if len(fields) > 3 && fields[3] != "-" {
		if err := applyEnPassant(b, fields[3], side); err != nil {
			return nil, White, err
		}
	}

	for _, color := range [2]Color{White, Black} {
		if _, ok := b.FindKing(color); !ok {
			return nil, White, errors.Wrapf(ErrInvalidFEN, "no %s king", color)
		}
	}
	return b, side, nil
}

func parsePlacement(b *Board, placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return errors.Wrapf(ErrInvalidFEN, "placement %q must have 8 ranks", placement)
	}
	for row, rank := range ranks {
		col := 0
		for _, c := range rank {
			if c >= '1' && c <= '8' {
				col += int(c - '0')
				continue
			}
			kind := kindFromLetter(c)
			if kind == NoKind {
				return errors.Wrapf(ErrInvalidFEN, "piece letter %q", c)
			}
			if col > 7 {
				return errors.Wrapf(ErrInvalidFEN, "rank %d overflows", 8-row)
			}
			color := White
			if unicode.IsLower(c) {
				color = Black
			}
			at := Coord{Row: row, Col: col}
			p := Piece{Kind: kind, Color: color}
			switch kind {
			case Pawn:
				p.HasMoved = row != pawnStartRow(color)
			case King, Rook:
				// cleared again by applyCastlingRights
				p.HasMoved = true
			}
			b.SetPiece(at, p)
			col++
		}
		if col != 8 {
			return errors.Wrapf(ErrInvalidFEN, "rank %d has %d files", 8-row, col)
		}
	}
	return nil
}

func applyCastlingRights(b *Board, rights string) {
	unmove := func(at Coord, kind Kind, color Color) bool {
		p := b.PieceAt(at)
		if p.Kind != kind || p.Color != color {
			return false
		}
		p.HasMoved = false
		b.SetPiece(at, p)
		return true
	}
	for _, r := range rights {
		color := White
		if unicode.IsLower(r) {
			color = Black
		}
		var side CastleSide
		switch unicode.ToLower(r) {
		case 'k':
			side = Kingside
		case 'q':
			side = Queenside
		default:
			continue
		}
		g := geometry(color, side)
		if unmove(g.kingFrom, King, color) {
			unmove(g.rookFrom, Rook, color)
		}
	}
}

// applyEnPassant stamps the pawn in front of the en passant square as having
// double-stepped on the ply just played.
func applyEnPassant(b *Board, square string, side Color) error {
	target, err := ParseSquare(square)
	if err != nil {
		return errors.Wrapf(ErrInvalidFEN, "en passant square %q", square)
	}
	mover := side.Opposite()
	at := Coord{Row: target.Row + pawnDirection(mover), Col: target.Col}
	if !at.Valid() {
		return errors.Wrapf(ErrInvalidFEN, "en passant square %q", square)
	}
	p := b.PieceAt(at)
	if p.Kind != Pawn || p.Color != mover {
		return errors.Wrapf(ErrInvalidFEN, "no %s pawn passed %s", mover, square)
	}
	if b.ply == 0 {
		b.ply = 2
	}
	p.DoubleStepPly = b.ply
	b.SetPiece(at, p)
	return nil
}

// FEN renders the board with side to move. The halfmove clock is always 0.
func (b *Board) FEN(side Color) string {
	var sb strings.Builder
	for row := 0; row < 8; row++ {
		if row > 0 {
			sb.WriteByte('/')
		}
		empty := 0
		for col := 0; col < 8; col++ {
			p := b.squares[row][col]
			if p.IsEmpty() {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			letter := fenLetters[p.Kind]
			if p.Color == White {
				letter = byte(unicode.ToUpper(rune(letter)))
			}
			sb.WriteByte(letter)
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
	}

	if side == White {
		sb.WriteString(" w")
	} else {
		sb.WriteString(" b")
	}

	sb.WriteByte(' ')
	rights := ""
	for _, r := range []struct {
		color  Color
		side   CastleSide
		letter string
	}{{White, Kingside, "K"}, {White, Queenside, "Q"}, {Black, Kingside, "k"}, {Black, Queenside, "q"}} {
		if b.castlingRight(r.color, r.side) {
			rights += r.letter
		}
	}
	if rights == "" {
		rights = "-"
	}
	sb.WriteString(rights)

	sb.WriteByte(' ')
	sb.WriteString(b.enPassantSquare())

	sb.WriteString(" 0 ")
	sb.WriteString(strconv.Itoa(b.ply/2 + 1))
	return sb.String()
}

// castlingRight reports whether king and rook are still unmoved on their home
// squares. Unlike CanCastle it ignores blockers and attacks.
func (b *Board) castlingRight(color Color, side CastleSide) bool {
	g := geometry(color, side)
	king, rook := b.PieceAt(g.kingFrom), b.PieceAt(g.rookFrom)
	return king.Kind == King && king.Color == color && !king.HasMoved &&
		rook.Kind == Rook && rook.Color == color && !rook.HasMoved
}

func (b *Board) enPassantSquare() string {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := b.squares[row][col]
			if b.enPassantVulnerable(p) {
				return Coord{Row: row - pawnDirection(p.Color), Col: col}.String()
			}
		}
	}
	return "-"
}
