package engine

// AttackMap marks the squares one color threatens. It is rebuilt for every
// question asked of it and never stored.
type AttackMap [8][8]bool

func (m *AttackMap) Attacked(c Coord) bool {
	return m[c.Row][c.Col]
}

// Count returns the number of attacked squares.
func (m *AttackMap) Count() int {
	n := 0
	for row := range m {
		for col := range m[row] {
			if m[row][col] {
				n++
			}
		}
	}
	return n
}

// BuildAttackMap unions the attack-mode targets of every attacker piece.
func BuildAttackMap(b *Board, attacker Color) AttackMap {
	var m AttackMap
	b.pieces(attacker, func(at Coord, _ Piece) bool {
		for _, target := range Generate(b, at, ModeAttack) {
			m[target.Row][target.Col] = true
		}
		return true
	})
	return m
}

// InCheck reports whether color's king is attacked. A board without that
// king is never in check.
func InCheck(b *Board, color Color) bool {
	king, ok := b.FindKing(color)
	if !ok {
		return false
	}
	m := BuildAttackMap(b, color.Opposite())
	return m.Attacked(king)
}
