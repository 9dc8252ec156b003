package engine

// Perft counts the leaf nodes of the legal move tree of the given depth,
// starting with side to move.
func Perft(b *Board, side Color, depth int) uint64 {
	if depth <= 0 {
		return 1
	}
	moves := LegalMoves(b, side)
	if depth == 1 {
		return uint64(len(moves))
	}
	var nodes uint64
	for _, m := range moves {
		u, err := TryApply(b, m, side)
		if err != nil {
			continue
		}
		nodes += Perft(b, side.Opposite(), depth-1)
		b.Undo(u)
	}
	return nodes
}

// PerftDivide returns the perft count below each root move, keyed by the
// move's coordinate text.
func PerftDivide(b *Board, side Color, depth int) map[string]uint64 {
	div := make(map[string]uint64)
	if depth <= 0 {
		return div
	}
	for _, m := range LegalMoves(b, side) {
		u, err := TryApply(b, m, side)
		if err != nil {
			continue
		}
		div[m.String()] = Perft(b, side.Opposite(), depth-1)
		b.Undo(u)
	}
	return div
}
