package engine

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStandardBoard(t *testing.T) {
	b := NewStandardBoard()

	assert.Equal(t, Piece{Kind: King, Color: White, Position: sq("e1")}, b.PieceAt(sq("e1")))
	assert.Equal(t, Piece{Kind: Queen, Color: Black, Position: sq("d8")}, b.PieceAt(sq("d8")))
	assert.True(t, b.PieceAt(sq("e4")).IsEmpty())
	assert.Equal(t, 0, b.Ply())

	count := 0
	for _, row := range b.Squares() {
		for _, p := range row {
			if !p.IsEmpty() {
				count++
			}
		}
	}
	assert.Equal(t, 32, count)
}

func TestSetPieceKeepsPositionInSync(t *testing.T) {
	b := EmptyBoard()
	b.SetPiece(sq("c3"), Piece{Kind: Knight, Color: White, Position: sq("h8")})

	assert.Equal(t, sq("c3"), b.PieceAt(sq("c3")).Position)

	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			at := Coord{Row: row, Col: col}
			if p := b.PieceAt(at); !p.IsEmpty() {
				assert.Equal(t, at, p.Position)
			}
		}
	}

	b.SetPiece(sq("c3"), Piece{})
	assert.Equal(t, Piece{}, b.PieceAt(sq("c3")))
}

func TestFindKingFollowsMoves(t *testing.T) {
	b := NewStandardBoard()

	king, ok := b.FindKing(White)
	require.True(t, ok)
	assert.Equal(t, sq("e1"), king)

	b.SetPiece(sq("e1"), Piece{})
	b.SetPiece(sq("f2"), Piece{Kind: King, Color: White, HasMoved: true})

	king, ok = b.FindKing(White)
	require.True(t, ok)
	assert.Equal(t, sq("f2"), king)

	// a stale cache falls back to scanning
	b.kings[Black] = sq("a1")
	king, ok = b.FindKing(Black)
	require.True(t, ok)
	assert.Equal(t, sq("e8"), king)

	_, ok = EmptyBoard().FindKing(White)
	assert.False(t, ok)
}

func TestCloneIsIndependent(t *testing.T) {
	b := NewStandardBoard()
	clone := b.Clone()
	clone.SetPiece(sq("e2"), Piece{})

	assert.Equal(t, Pawn, b.PieceAt(sq("e2")).Kind)
	assert.True(t, clone.PieceAt(sq("e2")).IsEmpty())
}

func TestParseSquare(t *testing.T) {
	tests := []struct {
		in   string
		want Coord
		ok   bool
	}{
		{"a8", Coord{Row: 0, Col: 0}, true},
		{"h1", Coord{Row: 7, Col: 7}, true},
		{"e2", Coord{Row: 6, Col: 4}, true},
		{"E2", Coord{Row: 6, Col: 4}, true},
		{"i1", Coord{}, false},
		{"a9", Coord{}, false},
		{"a0", Coord{}, false},
		{"e", Coord{}, false},
		{"e22", Coord{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSquare(tt.in)
			if !tt.ok {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInputFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, strings.ToLower(tt.in), got.String())
		})
	}
}

func TestTextMarshalling(t *testing.T) {
	data, err := json.Marshal(struct {
		C Color `json:"c"`
		K Kind  `json:"k"`
		S Coord `json:"s"`
	}{Black, Knight, sq("g8")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"c":"black","k":"knight","s":"g8"}`, string(data))

	var back struct {
		C Color `json:"c"`
		K Kind  `json:"k"`
		S Coord `json:"s"`
	}
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, Black, back.C)
	assert.Equal(t, Knight, back.K)
	assert.Equal(t, sq("g8"), back.S)

	var c Color
	assert.Error(t, c.UnmarshalText([]byte("green")))
}
