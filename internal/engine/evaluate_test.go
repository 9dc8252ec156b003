package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want Status
	}{
		{"start", StartFEN, StatusOngoing},
		{"fool's mate", "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3", StatusCheckmate},
		{"queen stalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", StatusStalemate},
		{"check with escape", "4k3/8/8/8/8/8/8/4K2r w - - 0 1", StatusCheck},
		{"back rank mate", "6k1/5ppp/8/8/8/8/8/R5K1 b - - 0 1", StatusOngoing},
		{"back rank mate delivered", "R5k1/5ppp/8/8/8/8/8/6K1 b - - 0 1", StatusCheckmate},
		{"check answered by capture", "4k3/8/8/8/8/8/5q2/4K3 w - - 0 1", StatusCheck},
		{"smothered", "6rk/5Npp/8/8/8/8/8/6K1 b - - 0 1", StatusCheckmate},
		{"pawn stalemate", "k7/P7/1K6/8/8/8/8/8 b - - 0 1", StatusStalemate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, side := mustFEN(t, tt.fen)
			before := imageOf(b)
			assert.Equal(t, tt.want, Evaluate(b, side))
			requireSameBoard(t, before, imageOf(b))
		})
	}
}

func TestFoolsMateByMoves(t *testing.T) {
	c := playAll(t, "f2f3", "e7e5", "g2g4", "d8h4")
	assert.Equal(t, StatusCheckmate, c.Status())
	assert.Equal(t, StateGameOver, c.State())
	assert.Empty(t, LegalMoves(c.Board(), White))
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusOngoing.Terminal())
	assert.False(t, StatusCheck.Terminal())
	assert.True(t, StatusCheckmate.Terminal())
	assert.True(t, StatusStalemate.Terminal())
}

func TestLegalMovesOpening(t *testing.T) {
	b := NewStandardBoard()
	moves := LegalMoves(b, White)
	require.Len(t, moves, 20)
	assert.Contains(t, moveStrings(moves), "g1f3")
	assert.Contains(t, moveStrings(moves), "a2a4")
	assert.NotContains(t, moveStrings(moves), "e1e2")
}

func TestLegalMovesInCheckOnlyResolve(t *testing.T) {
	// the rook on e8 checks: the knight blocks or the king steps aside
	b, _ := mustFEN(t, "k3r3/8/8/8/8/8/3N4/4K1R1 w - - 0 1")
	got := moveStrings(LegalMoves(b, White))
	assert.ElementsMatch(t, []string{"d2e4", "e1d1", "e1f1", "e1f2"}, got)
	for _, m := range got {
		c := b.Clone()
		mv, err := ParseMove(m)
		require.NoError(t, err)
		_, err = TryApply(c, mv, White)
		require.NoError(t, err)
		assert.False(t, InCheck(c, White), "%s leaves the king in check", m)
	}
}

func TestPerft(t *testing.T) {
	tests := []struct {
		name  string
		fen   string
		nodes []uint64
	}{
		{"start", StartFEN, []uint64{20, 400, 8902}},
		{"kiwipete", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", []uint64{48, 2039}},
		{"rook endgame", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1", []uint64{14, 191, 2812}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, side := mustFEN(t, tt.fen)
			before := imageOf(b)
			for i, want := range tt.nodes {
				depth := i + 1
				if testing.Short() && depth > 2 {
					break
				}
				assert.Equal(t, want, Perft(b, side, depth), "depth %d", depth)
				requireSameBoard(t, before, imageOf(b))
			}
		})
	}
}

func TestPerftDivide(t *testing.T) {
	b := NewStandardBoard()
	div := PerftDivide(b, White, 2)
	require.Len(t, div, 20)

	var total uint64
	for _, n := range div {
		total += n
	}
	assert.Equal(t, uint64(400), total)
	assert.Equal(t, uint64(20), div["e2e4"])
	assert.Empty(t, PerftDivide(b, White, 0))
}
