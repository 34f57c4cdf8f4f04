package game

import (
	"sync"
	"time"

	"github.com/judgegodwins/chess-rooms/rules"
)

// Role of a connection within a room.
type Role string

const (
	RoleWhite     Role = "w"
	RoleBlack     Role = "b"
	RoleSpectator Role = "spectator"
)

// Broadcaster delivers room-scoped events to every connection currently
// joined to the room. Implementations must not block: the room invokes
// these while holding its lock so that fan-out order matches the order
// in which moves were accepted.
type Broadcaster interface {
	MoveApplied(roomID string, mv rules.Move, fen string)
	BoardState(roomID string, fen string)
	PieceCaptured(roomID string, capture rules.Capture)
}

// MoveStatus tags the result of a move submission.
type MoveStatus int

const (
	MoveAccepted MoveStatus = iota
	MoveIllegal
	MoveNotYourTurn
)

// MoveResult is the outcome of Room.SubmitMove. FEN and Captured are
// only set when the move was accepted.
type MoveResult struct {
	Status   MoveStatus
	Move     rules.Move
	FEN      string
	Captured *rules.Capture
}

// Room owns one game's authoritative state, the two player seats and
// the set of joined connections. All mutation goes through the room
// mutex, which is the per-room serialization point: a move is validated,
// applied and enqueued for broadcast before the next one for the same
// room begins.
type Room struct {
	ID string

	mu         sync.Mutex
	state      rules.State
	whiteConn  string
	blackConn  string
	whiteTaken bool
	blackTaken bool
	conns      map[string]struct{}
	captured   []rules.Capture
	lastActive time.Time
}

func NewRoom(id string) *Room {
	return &Room{
		ID:         id,
		state:      rules.NewState(),
		conns:      make(map[string]struct{}),
		lastActive: time.Now(),
	}
}

// AssignRole joins a connection and hands out a role first come first
// served: White, then Black, then Spectator. A seat vacated by a
// disconnect stays reserved and is not handed to later joiners.
func (r *Room) AssignRole(connID string) Role {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[connID] = struct{}{}
	r.lastActive = time.Now()

	// rejoining the same room keeps the seat already held
	if r.whiteConn == connID {
		return RoleWhite
	}
	if r.blackConn == connID {
		return RoleBlack
	}

	switch {
	case !r.whiteTaken:
		r.whiteTaken = true
		r.whiteConn = connID
		return RoleWhite
	case !r.blackTaken:
		r.blackTaken = true
		r.blackConn = connID
		return RoleBlack
	default:
		return RoleSpectator
	}
}

// SubmitMove validates the submitter against the side to move, applies
// the move and, when accepted, broadcasts move, boardState and capture
// events in that order while still holding the room lock. Rejections
// never mutate state and are never broadcast.
func (r *Room) SubmitMove(connID string, mv rules.Move, b Broadcaster) MoveResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActive = time.Now()

	seat := r.blackConn
	if rules.TurnOf(r.state) == rules.White {
		seat = r.whiteConn
	}

	// spectators and vacated seats fail this check too
	if seat == "" || seat != connID {
		return MoveResult{Status: MoveNotYourTurn, Move: mv}
	}

	out := rules.Apply(r.state, mv)
	if !out.Accepted {
		return MoveResult{Status: MoveIllegal, Move: mv}
	}

	r.state = out.State
	if out.Captured != nil {
		r.captured = append(r.captured, *out.Captured)
	}

	fen := r.state.Encode()

	if b != nil {
		b.MoveApplied(r.ID, mv, fen)
		b.BoardState(r.ID, fen)
		if out.Captured != nil {
			b.PieceCaptured(r.ID, *out.Captured)
		}
	}

	return MoveResult{Status: MoveAccepted, Move: mv, FEN: fen, Captured: out.Captured}
}

// Release drops a connection from the room, vacating its seat if it
// held one. The seat remains reserved for no one; see AssignRole.
func (r *Room) Release(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.conns, connID)
	r.lastActive = time.Now()

	if r.whiteConn == connID {
		r.whiteConn = ""
	}
	if r.blackConn == connID {
		r.blackConn = ""
	}
}

// FEN returns the current position.
func (r *Room) FEN() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Encode()
}

// Captured returns a copy of the room's captured-piece ledger.
func (r *Room) Captured() []rules.Capture {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]rules.Capture(nil), r.captured...)
}

// ConnCount reports how many connections are currently joined.
func (r *Room) ConnCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// SeatsTaken reports whether the White and Black seats have ever been
// bound. A taken seat may still be vacant if its player disconnected.
func (r *Room) SeatsTaken() (white, black bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.whiteTaken, r.blackTaken
}

// expired reports whether the room is empty and has been idle longer
// than ttl.
func (r *Room) expired(ttl time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns) == 0 && time.Since(r.lastActive) > ttl
}
