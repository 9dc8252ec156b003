package ws

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// MessageType represents the different kinds of messages our system can handle
type MessageType string

const (
	MessageTypeMove       MessageType = "move"
	MessageTypeGameState  MessageType = "gameState"
	MessageTypeLegalMoves MessageType = "legalMoves"
	MessageTypeMatchFound MessageType = "matchFound"
	MessageTypeError      MessageType = "error"
)

// Message represents a WebSocket message in our system
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

// LegalMovesRequest asks for the legal destinations of the piece on Square.
type LegalMovesRequest struct {
	Square string `json:"square"`
}

// NewMessage marshals payload into a message of type t.
func NewMessage(t MessageType, payload interface{}) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, errors.Wrapf(err, "marshal %s payload", t)
	}
	return Message{Type: t, Payload: data}, nil
}

// ErrorMessage builds an error message. Marshalling a string never fails.
func ErrorMessage(err error) Message {
	data, _ := json.Marshal(ErrorPayload{Error: err.Error()})
	return Message{Type: MessageTypeError, Payload: data}
}
