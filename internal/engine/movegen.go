package engine

// Mode selects what Generate produces for pawns. Other pieces generate the
// same squares in both modes.
type Mode int8

const (
	// ModeMove yields squares the piece may move to.
	ModeMove Mode = iota
	// ModeAttack yields squares the piece threatens.
	ModeAttack
)

var (
	knightDirs = []Coord{{Row: 2, Col: 1}, {Row: 2, Col: -1}, {Row: -2, Col: 1}, {Row: -2, Col: -1}, {Row: 1, Col: 2}, {Row: 1, Col: -2}, {Row: -1, Col: 2}, {Row: -1, Col: -2}}
	kingDirs   = []Coord{{Row: 1, Col: 0}, {Row: -1, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: -1}, {Row: 1, Col: 1}, {Row: 1, Col: -1}, {Row: -1, Col: 1}, {Row: -1, Col: -1}}
	bishopDirs = []Coord{{Row: 1, Col: 1}, {Row: 1, Col: -1}, {Row: -1, Col: 1}, {Row: -1, Col: -1}}
	rookDirs   = []Coord{{Row: 1, Col: 0}, {Row: -1, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: -1}}
)

// Generate returns the pseudo-legal destinations of the piece on from,
// ignoring whether the move would expose its own king. Castling is never
// included. The returned slice is owned by the caller.
func Generate(b *Board, from Coord, mode Mode) []Coord {
	if !from.Valid() {
		return nil
	}
	piece := b.PieceAt(from)
	switch piece.Kind {
	case Pawn:
		if mode == ModeAttack {
			return pawnAttacks(piece)
		}
		return pawnMoves(b, piece)
	case Knight:
		return steps(b, piece, knightDirs)
	case Bishop:
		return slides(b, piece, bishopDirs)
	case Rook:
		return slides(b, piece, rookDirs)
	case Queen:
		return append(slides(b, piece, bishopDirs), slides(b, piece, rookDirs)...)
	case King:
		return steps(b, piece, kingDirs)
	default:
		return nil
	}
}

// pawnAttacks returns both forward diagonals whatever occupies them.
func pawnAttacks(piece Piece) []Coord {
	dir := pawnDirection(piece.Color)
	targets := make([]Coord, 0, 2)
	for _, dc := range [2]int{-1, 1} {
		target := piece.Position.add(Coord{Row: dir, Col: dc})
		if target.Valid() {
			targets = append(targets, target)
		}
	}
	return targets
}

func pawnMoves(b *Board, piece Piece) []Coord {
	dir := pawnDirection(piece.Color)
	from := piece.Position
	targets := make([]Coord, 0, 4)

	one := from.add(Coord{Row: dir})
	if one.Valid() && b.PieceAt(one).IsEmpty() {
		targets = append(targets, one)
		two := from.add(Coord{Row: 2 * dir})
		if !piece.HasMoved && from.Row == pawnStartRow(piece.Color) && b.PieceAt(two).IsEmpty() {
			targets = append(targets, two)
		}
	}

	for _, dc := range [2]int{-1, 1} {
		diag := from.add(Coord{Row: dir, Col: dc})
		if !diag.Valid() {
			continue
		}
		if occupant := b.PieceAt(diag); !occupant.IsEmpty() {
			if occupant.Color != piece.Color {
				targets = append(targets, diag)
			}
			continue
		}
		// en passant: the passed pawn sits beside us on our rank
		beside := b.PieceAt(Coord{Row: from.Row, Col: diag.Col})
		if beside.Color != piece.Color && b.enPassantVulnerable(beside) {
			targets = append(targets, diag)
		}
	}
	return targets
}

func steps(b *Board, piece Piece, dirs []Coord) []Coord {
	targets := make([]Coord, 0, len(dirs))
	for _, dir := range dirs {
		target := piece.Position.add(dir)
		if !target.Valid() {
			continue
		}
		if occupant := b.PieceAt(target); occupant.IsEmpty() || occupant.Color != piece.Color {
			targets = append(targets, target)
		}
	}
	return targets
}

// slides walks each direction until the edge, stopping before an own piece
// and after an enemy piece.
func slides(b *Board, piece Piece, dirs []Coord) []Coord {
	targets := make([]Coord, 0, 14)
	for _, dir := range dirs {
		target := piece.Position.add(dir)
		for target.Valid() {
			occupant := b.PieceAt(target)
			if occupant.IsEmpty() {
				targets = append(targets, target)
			} else {
				if occupant.Color != piece.Color {
					targets = append(targets, target)
				}
				break
			}
			target = target.add(dir)
		}
	}
	return targets
}

func containsCoord(coords []Coord, c Coord) bool {
	for _, x := range coords {
		if x == c {
			return true
		}
	}
	return false
}
