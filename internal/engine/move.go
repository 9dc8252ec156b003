package engine

import (
	"fmt"
	"strings"
)

type MoveKind int8

const (
	Normal MoveKind = iota
	EnPassantCapture
	CastleKingside
	CastleQueenside
)

var moveKindNames = [...]string{"normal", "enPassant", "castleKingside", "castleQueenside"}

func (k MoveKind) String() string {
	if k < 0 || int(k) >= len(moveKindNames) {
		return fmt.Sprintf("MoveKind(%d)", k)
	}
	return moveKindNames[k]
}

func (k MoveKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *MoveKind) UnmarshalText(text []byte) error {
	for i, name := range moveKindNames {
		if name == string(text) {
			*k = MoveKind(i)
			return nil
		}
	}
	return &InputFormatError{Text: string(text), Reason: "unknown move kind"}
}

func (k MoveKind) IsCastle() bool {
	return k == CastleKingside || k == CastleQueenside
}

type CastleSide int8

const (
	Kingside CastleSide = iota
	Queenside
)

func (s CastleSide) String() string {
	if s == Kingside {
		return "kingside"
	}
	return "queenside"
}

func (s CastleSide) moveKind() MoveKind {
	if s == Kingside {
		return CastleKingside
	}
	return CastleQueenside
}

func (k MoveKind) side() CastleSide {
	if k == CastleQueenside {
		return Queenside
	}
	return Kingside
}

type Move struct {
	From Coord    `json:"from"`
	To   Coord    `json:"to"`
	Kind MoveKind `json:"kind"`
}

// String renders the move as a coordinate pair, e.g. "e2e4". Castles render
// as the king's two-square step.
func (m Move) String() string {
	return m.From.String() + m.To.String()
}

// CastleMove returns the tagged castle move for color, expressed as the
// king's from and to squares.
func CastleMove(color Color, side CastleSide) Move {
	row := homeRow(color)
	to := 6
	if side == Queenside {
		to = 2
	}
	return Move{
		From: Coord{Row: row, Col: 4},
		To:   Coord{Row: row, Col: to},
		Kind: side.moveKind(),
	}
}

var castleTokens = map[string]MoveKind{
	"o-o":       CastleKingside,
	"0-0":       CastleKingside,
	"kingside":  CastleKingside,
	"o-o-o":     CastleQueenside,
	"0-0-0":     CastleQueenside,
	"queenside": CastleQueenside,
}

// ParseMove parses a coordinate pair such as "e2e4" or a castle directive
// ("O-O", "0-0-0", "kingside", ...). A castle directive carries no squares:
// the side to move decides them, see Controller.Play.
func ParseMove(text string) (Move, error) {
	s := strings.ToLower(strings.TrimSpace(text))
	if kind, ok := castleTokens[s]; ok {
		return Move{Kind: kind}, nil
	}
	if len(s) != 4 {
		return Move{}, &InputFormatError{Text: text, Reason: "expected two squares like e2e4 or a castle token"}
	}
	from, err := ParseSquare(s[:2])
	if err != nil {
		return Move{}, &InputFormatError{Text: text, Reason: "bad origin square"}
	}
	to, err := ParseSquare(s[2:])
	if err != nil {
		return Move{}, &InputFormatError{Text: text, Reason: "bad destination square"}
	}
	return Move{From: from, To: to}, nil
}

// Record is one committed ply in a game's history.
type Record struct {
	Ply      int    `json:"ply"`
	Color    Color  `json:"color"`
	Piece    Kind   `json:"piece"`
	Move     Move   `json:"move"`
	Captured *Kind  `json:"captured,omitempty"`
	Status   Status `json:"status"`
}
