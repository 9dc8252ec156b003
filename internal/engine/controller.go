package engine

import (
	"github.com/pkg/errors"
)

type State int8

const (
	StateAwaitingMove State = iota
	StateGameOver
)

func (s State) String() string {
	if s == StateGameOver {
		return "gameOver"
	}
	return "awaitingMove"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type CapturedPieces struct {
	// White lists the pieces captured by white.
	White []Kind `json:"white"`
	Black []Kind `json:"black"`
}

// Controller owns one game's board and turn. It is not safe for concurrent
// use; callers serialize access (see model.Game).
type Controller struct {
	board    *Board
	turn     Color
	state    State
	status   Status
	history  []Record
	captured CapturedPieces
}

func NewController() *Controller {
	return newController(NewStandardBoard(), White)
}

// NewControllerFromFEN starts a game from an arbitrary position. A position
// that is already mate or stalemate starts in the game-over state.
func NewControllerFromFEN(fen string) (*Controller, error) {
	b, side, err := ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	return newController(b, side), nil
}

func newController(b *Board, side Color) *Controller {
	c := &Controller{
		board: b,
		turn:  side,
		captured: CapturedPieces{
			White: make([]Kind, 0),
			Black: make([]Kind, 0),
		},
		history: make([]Record, 0),
	}
	c.status = Evaluate(b, side)
	if c.status.Terminal() {
		c.state = StateGameOver
	}
	return c
}

func (c *Controller) Turn() Color {
	return c.turn
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Status() Status {
	return c.status
}

// Submit parses text and plays it for the side to move.
func (c *Controller) Submit(text string) (Status, error) {
	m, err := ParseMove(text)
	if err != nil {
		return c.status, err
	}
	return c.Play(m)
}

// Play validates and commits m for the side to move, then evaluates the
// position for the opponent. The turn flips on every accepted move; mate or
// stalemate ends the game. On error nothing changes.
func (c *Controller) Play(m Move) (Status, error) {
	if c.state == StateGameOver {
		return c.status, errors.Wrapf(ErrGameOver, "%s", c.status)
	}

	if m.Kind.IsCastle() {
		m = CastleMove(c.turn, m.Kind.side())
	} else {
		if !m.From.Valid() || !m.To.Valid() {
			return c.status, errors.Wrapf(ErrIllegalMove, "%v is off the board", m)
		}
		piece := c.board.PieceAt(m.From)
		if piece.IsEmpty() {
			return c.status, errors.Wrapf(ErrIllegalSelection, "no piece on %s", m.From)
		}
		if piece.Color != c.turn {
			return c.status, errors.Wrapf(ErrIllegalSelection, "%s to move, %s on %s is %s", c.turn, piece.Kind, m.From, piece.Color)
		}
		if target := c.board.PieceAt(m.To); !target.IsEmpty() && target.Color == c.turn {
			return c.status, errors.Wrapf(ErrIllegalCapture, "%s is occupied by own %s", m.To, target.Kind)
		}
	}

	mover := c.board.PieceAt(m.From)
	u, err := TryApply(c.board, m, c.turn)
	if err != nil {
		return c.status, err
	}

	c.turn = c.turn.Opposite()
	c.status = Evaluate(c.board, c.turn)
	if c.status.Terminal() {
		c.state = StateGameOver
	}

	rec := Record{
		Ply:    c.board.Ply(),
		Color:  mover.Color,
		Piece:  mover.Kind,
		Move:   u.Move,
		Status: c.status,
	}
	if !u.Captured.IsEmpty() {
		kind := u.Captured.Kind
		rec.Captured = &kind
		if mover.Color == White {
			c.captured.White = append(c.captured.White, kind)
		} else {
			c.captured.Black = append(c.captured.Black, kind)
		}
	}
	c.history = append(c.history, rec)
	return c.status, nil
}

// LegalMovesFrom lists the legal moves of the piece on from. It is empty for
// an empty square, an opponent piece, or a finished game.
func (c *Controller) LegalMovesFrom(from Coord) []Move {
	if !from.Valid() {
		return []Move{}
	}
	p := c.board.PieceAt(from)
	if c.state == StateGameOver || p.IsEmpty() || p.Color != c.turn {
		return []Move{}
	}
	moves := LegalMovesFrom(c.board, from, c.turn)
	if moves == nil {
		moves = []Move{}
	}
	return moves
}

// LegalMoves lists every legal move for the side to move.
func (c *Controller) LegalMoves() []Move {
	if c.state == StateGameOver {
		return []Move{}
	}
	return LegalMoves(c.board, c.turn)
}

func (c *Controller) History() []Record {
	history := make([]Record, len(c.history))
	copy(history, c.history)
	return history
}

func (c *Controller) FEN() string {
	return c.board.FEN(c.turn)
}

// Board returns a copy of the board; mutating it does not affect the game.
func (c *Controller) Board() *Board {
	return c.board.Clone()
}

// SquareView is what a renderer needs to draw one occupied square.
type SquareView struct {
	Kind  Kind  `json:"kind"`
	Color Color `json:"color"`
}

// Snapshot is an immutable copy of a game for readers. Empty squares are nil.
type Snapshot struct {
	Squares  [8][8]*SquareView `json:"squares"`
	ToMove   Color             `json:"toMove"`
	State    State             `json:"state"`
	Status   Status            `json:"status"`
	Ply      int               `json:"ply"`
	FEN      string            `json:"fen"`
	LastMove *Move             `json:"lastMove"`
	History  []Record          `json:"history"`
	Captured CapturedPieces    `json:"capturedPieces"`
}

func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		ToMove:  c.turn,
		State:   c.state,
		Status:  c.status,
		Ply:     c.board.Ply(),
		FEN:     c.FEN(),
		History: c.History(),
		Captured: CapturedPieces{
			White: append([]Kind{}, c.captured.White...),
			Black: append([]Kind{}, c.captured.Black...),
		},
	}
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if p := c.board.squares[row][col]; !p.IsEmpty() {
				s.Squares[row][col] = &SquareView{Kind: p.Kind, Color: p.Color}
			}
		}
	}
	if n := len(c.history); n > 0 {
		last := c.history[n-1].Move
		s.LastMove = &last
	}
	return s
}
