package engine

import (
	"fmt"

	"github.com/pkg/errors"
)

// Every rejection returned by this package wraps one of these sentinels.
// None of them is fatal: the board is left exactly as it was.
var (
	ErrInputFormat      = errors.New("malformed move text")
	ErrIllegalSelection = errors.New("illegal selection")
	ErrIllegalCapture   = errors.New("illegal capture")
	ErrIllegalMove      = errors.New("illegal move")
	ErrIllegalCastle    = errors.New("illegal castle")
	ErrGameOver         = errors.New("game is over")
	ErrInvalidFEN       = errors.New("invalid FEN string")
)

// InputFormatError reports move or square text that could not be parsed.
type InputFormatError struct {
	Text   string
	Reason string
}

func (e *InputFormatError) Error() string {
	return fmt.Sprintf("%v %q: %s", ErrInputFormat, e.Text, e.Reason)
}

func (e *InputFormatError) Unwrap() error {
	return ErrInputFormat
}
