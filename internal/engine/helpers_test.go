package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func sq(s string) Coord {
	c, err := ParseSquare(s)
	if err != nil {
		panic(err)
	}
	return c
}

func mustFEN(t *testing.T, fen string) (*Board, Color) {
	t.Helper()
	b, side, err := ParseFEN(fen)
	require.NoError(t, err, "ParseFEN(%q)", fen)
	return b, side
}

// playAll plays coordinate moves on a fresh game and fails on the first
// rejection.
func playAll(t *testing.T, moves ...string) *Controller {
	t.Helper()
	c := NewController()
	for _, m := range moves {
		_, err := c.Submit(m)
		require.NoError(t, err, "Submit(%q)", m)
	}
	return c
}

// randomBoard scatters up to n pieces plus one king per color.
func randomBoard(r *rand.Rand, n int) *Board {
	b := EmptyBoard()
	kinds := []Kind{Pawn, Knight, Bishop, Rook, Queen}
	free := func() Coord {
		for {
			c := Coord{Row: r.Intn(8), Col: r.Intn(8)}
			if b.PieceAt(c).IsEmpty() {
				return c
			}
		}
	}
	b.SetPiece(free(), Piece{Kind: King, Color: White, HasMoved: true})
	b.SetPiece(free(), Piece{Kind: King, Color: Black, HasMoved: true})
	for i := 0; i < n; i++ {
		color := Color(r.Intn(2))
		kind := kinds[r.Intn(len(kinds))]
		b.SetPiece(free(), Piece{Kind: kind, Color: color, HasMoved: r.Intn(2) == 0})
	}
	return b
}

func moveStrings(moves []Move) []string {
	out := make([]string, 0, len(moves))
	for _, m := range moves {
		out = append(out, m.String())
	}
	return out
}
