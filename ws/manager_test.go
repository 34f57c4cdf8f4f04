package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/judgegodwins/chess-rooms/game"
	"github.com/judgegodwins/chess-rooms/rules"
	"github.com/judgegodwins/chess-rooms/util"
	"github.com/stretchr/testify/require"
)

// newTestManager wires a manager to a real registry. Clients are built
// without sockets: handlers and fan-out only touch the egress channel,
// so tests read delivered events straight from it.
func newTestManager(t *testing.T) (*Manager, *game.Registry) {
	t.Helper()

	registry := game.NewRegistry(time.Minute)
	t.Cleanup(registry.Stop)

	return NewManager(&util.Config{Port: "0"}, registry), registry
}

func joinEvent(t *testing.T, roomID string) Event {
	t.Helper()
	evt, err := NewEvent(EventJoinRoom, PayloadJoinRoom{RoomID: roomID})
	require.NoError(t, err)
	return evt
}

func moveEvent(t *testing.T, mv rules.Move) Event {
	t.Helper()
	evt, err := NewEvent(EventMove, mv)
	require.NoError(t, err)
	return evt
}

func nextEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case evt := <-c.egress:
		return evt
	default:
		t.Fatal("expected a queued event")
		return Event{}
	}
}

func requireNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case evt := <-c.egress:
		t.Fatalf("unexpected event %q", evt.Type)
	default:
	}
}

func TestJoinRoomAssignsRolesInOrder(t *testing.T) {
	m, _ := newTestManager(t)

	white := NewClient(nil, m)
	black := NewClient(nil, m)
	watcher := NewClient(nil, m)

	require.NoError(t, JoinRoomHandler(joinEvent(t, "r1"), white))
	require.NoError(t, JoinRoomHandler(joinEvent(t, "r1"), black))
	require.NoError(t, JoinRoomHandler(joinEvent(t, "r1"), watcher))

	evt := nextEvent(t, white)
	require.Equal(t, EventPlayerRole, evt.Type)
	var side string
	require.NoError(t, json.Unmarshal(evt.Payload, &side))
	require.Equal(t, "w", side)

	evt = nextEvent(t, black)
	require.Equal(t, EventPlayerRole, evt.Type)
	require.NoError(t, json.Unmarshal(evt.Payload, &side))
	require.Equal(t, "b", side)

	evt = nextEvent(t, watcher)
	require.Equal(t, EventSpectatorRole, evt.Type)

	// every joiner is synced with the position
	for _, c := range []*Client{white, black, watcher} {
		evt = nextEvent(t, c)
		require.Equal(t, EventBoardState, evt.Type)
		var fen string
		require.NoError(t, json.Unmarshal(evt.Payload, &fen))
		require.Equal(t, rules.NewState().Encode(), fen)
	}
}

func TestJoinRoomRejectsMissingID(t *testing.T) {
	m, registry := newTestManager(t)
	c := NewClient(nil, m)

	err := JoinRoomHandler(joinEvent(t, ""), c)
	require.ErrorIs(t, err, game.ErrEmptyRoomID)
	require.Equal(t, 0, registry.Count())
	require.Empty(t, c.Room())
}

func TestMoveBroadcastToWholeRoom(t *testing.T) {
	m, _ := newTestManager(t)

	white := NewClient(nil, m)
	black := NewClient(nil, m)
	watcher := NewClient(nil, m)

	for _, c := range []*Client{white, black, watcher} {
		require.NoError(t, JoinRoomHandler(joinEvent(t, "r1"), c))
		nextEvent(t, c) // role
		nextEvent(t, c) // boardState sync
	}

	require.NoError(t, MoveHandler(moveEvent(t, rules.Move{From: "e2", To: "e4"}), white))

	for _, c := range []*Client{white, black, watcher} {
		evt := nextEvent(t, c)
		require.Equal(t, EventMove, evt.Type)

		var mv rules.Move
		require.NoError(t, json.Unmarshal(evt.Payload, &mv))
		require.Equal(t, rules.Move{From: "e2", To: "e4"}, mv)

		evt = nextEvent(t, c)
		require.Equal(t, EventBoardState, evt.Type)
	}
}

func TestRejectionsReachSubmitterOnly(t *testing.T) {
	m, _ := newTestManager(t)

	white := NewClient(nil, m)
	black := NewClient(nil, m)

	for _, c := range []*Client{white, black} {
		require.NoError(t, JoinRoomHandler(joinEvent(t, "r1"), c))
		nextEvent(t, c)
		nextEvent(t, c)
	}

	t.Run("illegal move", func(t *testing.T) {
		require.NoError(t, MoveHandler(moveEvent(t, rules.Move{From: "e2", To: "e5"}), white))

		evt := nextEvent(t, white)
		require.Equal(t, EventInvalidMove, evt.Type)
		requireNoEvent(t, black)
	})

	t.Run("out of turn", func(t *testing.T) {
		require.NoError(t, MoveHandler(moveEvent(t, rules.Move{From: "e7", To: "e5"}), black))

		evt := nextEvent(t, black)
		require.Equal(t, EventNotYourTurn, evt.Type)
		requireNoEvent(t, white)
	})
}

func TestMoveRequiresJoinedRoom(t *testing.T) {
	m, _ := newTestManager(t)
	c := NewClient(nil, m)

	err := MoveHandler(moveEvent(t, rules.Move{From: "e2", To: "e4"}), c)
	require.Error(t, err)
}

func TestEventsDoNotLeakAcrossRooms(t *testing.T) {
	m, _ := newTestManager(t)

	inRoomA := NewClient(nil, m)
	inRoomB := NewClient(nil, m)

	require.NoError(t, JoinRoomHandler(joinEvent(t, "a"), inRoomA))
	require.NoError(t, JoinRoomHandler(joinEvent(t, "b"), inRoomB))

	for _, c := range []*Client{inRoomA, inRoomB} {
		nextEvent(t, c)
		nextEvent(t, c)
	}

	require.NoError(t, MoveHandler(moveEvent(t, rules.Move{From: "e2", To: "e4"}), inRoomA))

	require.Equal(t, EventMove, nextEvent(t, inRoomA).Type)
	requireNoEvent(t, inRoomB)
}

func TestSwitchingRoomsReleasesOldSeat(t *testing.T) {
	m, registry := newTestManager(t)

	c := NewClient(nil, m)
	require.NoError(t, JoinRoomHandler(joinEvent(t, "a"), c))
	require.NoError(t, JoinRoomHandler(joinEvent(t, "b"), c))
	require.Equal(t, "b", c.Room())

	roomA, ok := registry.Get("a")
	require.True(t, ok)
	require.Equal(t, 0, roomA.ConnCount())

	// the old white seat stays reserved but vacant
	white, _ := roomA.SeatsTaken()
	require.True(t, white)
	require.Equal(t, game.RoleSpectator, roomA.AssignRole("someone-else"))
}

func TestLateJoinerReceivesCaptureLedger(t *testing.T) {
	m, _ := newTestManager(t)

	white := NewClient(nil, m)
	black := NewClient(nil, m)

	for _, c := range []*Client{white, black} {
		require.NoError(t, JoinRoomHandler(joinEvent(t, "r1"), c))
	}

	require.NoError(t, MoveHandler(moveEvent(t, rules.Move{From: "e2", To: "e4"}), white))
	require.NoError(t, MoveHandler(moveEvent(t, rules.Move{From: "d7", To: "d5"}), black))
	require.NoError(t, MoveHandler(moveEvent(t, rules.Move{From: "e4", To: "d5"}), white))

	late := NewClient(nil, m)
	require.NoError(t, JoinRoomHandler(joinEvent(t, "r1"), late))

	require.Equal(t, EventSpectatorRole, nextEvent(t, late).Type)
	require.Equal(t, EventBoardState, nextEvent(t, late).Type)

	evt := nextEvent(t, late)
	require.Equal(t, EventCapture, evt.Type)

	var capture rules.Capture
	require.NoError(t, json.Unmarshal(evt.Payload, &capture))
	require.Equal(t, rules.Capture{Color: rules.Black, Piece: "p"}, capture)
}

func TestRouteEventUnknownType(t *testing.T) {
	m, _ := newTestManager(t)
	c := NewClient(nil, m)

	err := m.routeEvent(Event{Type: "teleport"}, c)
	require.Error(t, err)
}
