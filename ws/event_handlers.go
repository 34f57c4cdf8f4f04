package ws

import (
	"encoding/json"
	"errors"

	"github.com/judgegodwins/chess-rooms/game"
	"github.com/judgegodwins/chess-rooms/logger"
	"github.com/judgegodwins/chess-rooms/rules"
	"go.uber.org/zap"
)

// JoinRoomHandler resolves or creates the room, assigns a role and
// syncs the joining client with the current position and captured
// pieces. Joining a second room implicitly leaves the first.
func JoinRoomHandler(e Event, c *Client) error {
	var payload PayloadJoinRoom

	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return err
	}

	if err := c.manager.validate.Struct(payload); err != nil {
		return game.ErrEmptyRoomID
	}

	room, err := c.manager.registry.GetOrCreate(payload.RoomID)
	if err != nil {
		return err
	}

	if prev := c.Room(); prev != "" && prev != payload.RoomID {
		if prevRoom, ok := c.manager.registry.Get(prev); ok {
			prevRoom.Release(c.SocketID)
		}
		c.manager.leaveRoom(prev, c)
	}

	role := room.AssignRole(c.SocketID)
	c.manager.joinRoom(payload.RoomID, c)
	c.setRoom(payload.RoomID)

	logger.L().Info("client joined room",
		zap.String("socket_id", c.SocketID),
		zap.String("room_id", payload.RoomID),
		zap.String("role", string(role)),
	)

	if role == game.RoleSpectator {
		if err := c.PushEvent(EventSpectatorRole, nil); err != nil {
			return err
		}
	} else {
		if err := c.PushEvent(EventPlayerRole, string(role)); err != nil {
			return err
		}
	}

	// sync the joiner with the authoritative position and the capture
	// ledger so late spectators render the same board as the players
	if err := c.PushEvent(EventBoardState, room.FEN()); err != nil {
		return err
	}

	for _, capture := range room.Captured() {
		if err := c.PushEvent(EventCapture, capture); err != nil {
			return err
		}
	}

	return nil
}

// MoveHandler relays a move through the client's room. Accepted moves
// are broadcast by the room itself; rejections go back to the
// submitter only.
func MoveHandler(e Event, c *Client) error {
	var mv rules.Move

	if err := json.Unmarshal(e.Payload, &mv); err != nil {
		return err
	}

	roomID := c.Room()
	if roomID == "" {
		return errors.New("join a room before submitting moves")
	}

	room, ok := c.manager.registry.Get(roomID)
	if !ok {
		// room was reaped between joins; force the client to rejoin
		c.setRoom("")
		return errors.New("room no longer exists")
	}

	result := room.SubmitMove(c.SocketID, mv, c.manager.Fanout())

	switch result.Status {
	case game.MoveAccepted:
		return nil
	case game.MoveIllegal:
		return c.PushEvent(EventInvalidMove, mv)
	case game.MoveNotYourTurn:
		return c.PushEvent(EventNotYourTurn, mv)
	}

	return nil
}
