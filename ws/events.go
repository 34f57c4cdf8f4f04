package ws

import (
	"encoding/json"
)

// Event is the wire envelope for every websocket message, both
// directions.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type EventHandler func(e Event, c *Client) error

const (
	// client -> server
	EventJoinRoom = "joinRoom"
	// server -> joining client
	EventPlayerRole    = "playerRole"
	EventSpectatorRole = "spectatorRole"
	// server -> room, FEN payload
	EventBoardState = "boardState"
	// bidirectional: client submits, server echoes accepted moves
	EventMove = "move"
	// server -> submitting client only
	EventInvalidMove = "invalidMove"
	EventNotYourTurn = "notYourTurn"
	// server -> room, {color, piece}
	EventCapture = "capture"
	EventError   = "error"
)

type PayloadJoinRoom struct {
	RoomID string `json:"roomId" validate:"required"`
}

type PayloadError struct {
	Reason string `json:"reason"`
}

// NewEvent marshals the payload into an event envelope.
func NewEvent(evtType string, payload any) (Event, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: evtType, Payload: b}, nil
}

func NewErrorEvent(reason string) (Event, error) {
	return NewEvent(EventError, PayloadError{Reason: reason})
}
