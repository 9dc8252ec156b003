// Package engine implements the chess rules: board storage, pseudo-legal move
// generation, attack maps, legality checking with rollback, castling, and
// game-end detection.
package engine

import (
	"fmt"

	"github.com/pkg/errors"
)

type Color int8

const (
	White Color = iota
	Black
)

func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	switch string(text) {
	case "white":
		*c = White
	case "black":
		*c = Black
	default:
		return errors.Errorf("unknown color %q", text)
	}
	return nil
}

// Kind is the type of a piece. The zero value marks an empty square.
type Kind int8

const (
	NoKind Kind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var kindNames = [...]string{"", "pawn", "knight", "bishop", "rook", "queen", "king"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", k)
	}
	return kindNames[k]
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	for i, name := range kindNames {
		if name == string(text) {
			*k = Kind(i)
			return nil
		}
	}
	return errors.Errorf("unknown piece kind %q", text)
}

// Coord addresses a square. Row 0 is rank 8, row 7 is rank 1; col 0 is file a.
type Coord struct {
	Row int
	Col int
}

func (c Coord) Valid() bool {
	return c.Row >= 0 && c.Row < 8 && c.Col >= 0 && c.Col < 8
}

func (c Coord) add(d Coord) Coord {
	return Coord{Row: c.Row + d.Row, Col: c.Col + d.Col}
}

// String returns the algebraic square name, e.g. "e2".
func (c Coord) String() string {
	if !c.Valid() {
		return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
	}
	return fmt.Sprintf("%c%d", 'a'+c.Col, 8-c.Row)
}

func (c Coord) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Coord) UnmarshalText(text []byte) error {
	sq, err := ParseSquare(string(text))
	if err != nil {
		return err
	}
	*c = sq
	return nil
}

// ParseSquare converts an algebraic square name like "e2" to a Coord.
func ParseSquare(s string) (Coord, error) {
	if len(s) != 2 {
		return Coord{}, &InputFormatError{Text: s, Reason: "square must be a file and a rank"}
	}
	file, rank := s[0], s[1]
	if file >= 'A' && file <= 'H' {
		file += 'a' - 'A'
	}
	if file < 'a' || file > 'h' {
		return Coord{}, &InputFormatError{Text: s, Reason: "file must be a-h"}
	}
	if rank < '1' || rank > '8' {
		return Coord{}, &InputFormatError{Text: s, Reason: "rank must be 1-8"}
	}
	return Coord{Row: int('8' - rank), Col: int(file - 'a')}, nil
}

// Piece is the content of one square. The zero value is the empty square.
type Piece struct {
	Kind     Kind
	Color    Color
	HasMoved bool
	// DoubleStepPly is the ply number on which a pawn made its two-square
	// advance, or 0 if it never did.
	DoubleStepPly int
	Position      Coord
}

func (p Piece) IsEmpty() bool {
	return p.Kind == NoKind
}

// Board is the 8x8 grid plus the ply counter and cached king squares.
// A Board is not safe for concurrent use.
type Board struct {
	squares [8][8]Piece
	kings   [2]Coord
	ply     int
}

func EmptyBoard() *Board {
	return &Board{}
}

var backRank = [8]Kind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// NewStandardBoard returns the initial chess position.
func NewStandardBoard() *Board {
	b := EmptyBoard()
	for col := 0; col < 8; col++ {
		b.SetPiece(Coord{Row: 0, Col: col}, Piece{Kind: backRank[col], Color: Black})
		b.SetPiece(Coord{Row: 1, Col: col}, Piece{Kind: Pawn, Color: Black})
		b.SetPiece(Coord{Row: 6, Col: col}, Piece{Kind: Pawn, Color: White})
		b.SetPiece(Coord{Row: 7, Col: col}, Piece{Kind: backRank[col], Color: White})
	}
	return b
}

func (b *Board) PieceAt(c Coord) Piece {
	return b.squares[c.Row][c.Col]
}

// SetPiece stores p on c, rewriting p.Position to c. Placing a king refreshes
// the cached king square for its color.
func (b *Board) SetPiece(c Coord, p Piece) {
	if p.IsEmpty() {
		b.squares[c.Row][c.Col] = Piece{}
		return
	}
	p.Position = c
	if p.Kind == King {
		b.kings[p.Color] = c
	}
	b.squares[c.Row][c.Col] = p
}

// FindKing returns the square of color's king. The cached square is used when
// it still holds that king; otherwise the board is scanned.
func (b *Board) FindKing(color Color) (Coord, bool) {
	cached := b.kings[color]
	if p := b.PieceAt(cached); p.Kind == King && p.Color == color {
		return cached, true
	}
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := b.squares[row][col]
			if p.Kind == King && p.Color == color {
				b.kings[color] = Coord{Row: row, Col: col}
				return b.kings[color], true
			}
		}
	}
	return Coord{}, false
}

// Ply is the number of plies applied to the board so far.
func (b *Board) Ply() int {
	return b.ply
}

// Squares returns a copy of the grid.
func (b *Board) Squares() [8][8]Piece {
	return b.squares
}

func (b *Board) Clone() *Board {
	clone := *b
	return &clone
}

// enPassantVulnerable reports whether p is a pawn that double-stepped on the
// ply just played.
func (b *Board) enPassantVulnerable(p Piece) bool {
	return p.Kind == Pawn && p.DoubleStepPly != 0 && p.DoubleStepPly == b.ply
}

// pieces calls fn for every piece of color, in row-major order.
func (b *Board) pieces(color Color, fn func(Coord, Piece) bool) {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := b.squares[row][col]
			if p.IsEmpty() || p.Color != color {
				continue
			}
			if !fn(Coord{Row: row, Col: col}, p) {
				return
			}
		}
	}
}

func homeRow(color Color) int {
	if color == White {
		return 7
	}
	return 0
}

func pawnStartRow(color Color) int {
	if color == White {
		return 6
	}
	return 1
}

func pawnDirection(color Color) int {
	if color == White {
		return -1
	}
	return 1
}
