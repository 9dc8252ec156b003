package engine

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func oracleMoves(g *chess.Game) (moves []string, promotes bool) {
	for _, m := range g.ValidMoves() {
		if m.Promo() != chess.NoPieceType {
			promotes = true
		}
		moves = append(moves, m.String())
	}
	sort.Strings(moves)
	return moves, promotes
}

// Random games are played against an independent implementation; every
// position must offer the same legal moves and reach the same end state.
// Playouts stop before any promotion, which this engine does not model.
func TestRandomPlayoutsAgainstOracle(t *testing.T) {
	starts := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1",
	}
	games := 40
	if testing.Short() {
		games = 5
	}

	r := rand.New(rand.NewSource(2024))
	for _, start := range starts {
		for i := 0; i < games; i++ {
			opt, err := chess.FEN(start)
			require.NoError(t, err)
			oracle := chess.NewGame(opt)
			c, err := NewControllerFromFEN(start)
			require.NoError(t, err)

			for ply := 0; ply < 150; ply++ {
				want, promotes := oracleMoves(oracle)
				if promotes || oracle.Outcome() != chess.NoOutcome {
					break
				}
				got := moveStrings(c.LegalMoves())
				sort.Strings(got)
				require.Equal(t, want, got, "legal moves differ at %s", c.FEN())

				pick := oracle.ValidMoves()[r.Intn(len(want))]
				require.NoError(t, oracle.Move(pick))
				_, err := c.Submit(pick.String())
				require.NoError(t, err, "%s at %s", pick, c.FEN())
			}

			switch oracle.Method() {
			case chess.Checkmate:
				assert.Equal(t, StatusCheckmate, c.Status(), c.FEN())
				assert.Equal(t, StateGameOver, c.State())
			case chess.Stalemate:
				assert.Equal(t, StatusStalemate, c.Status(), c.FEN())
				assert.Equal(t, StateGameOver, c.State())
			}
		}
	}
}
