package game

import (
	"errors"
	"sync"
	"time"

	"github.com/judgegodwins/chess-rooms/logger"
	"go.uber.org/zap"
)

// ErrEmptyRoomID is returned when a client tries to join without a
// room identifier.
var ErrEmptyRoomID = errors.New("room id must not be empty")

const reapInterval = time.Minute

// Registry is the process-wide room table. Rooms are created lazily on
// first join and reaped once they have been empty longer than idleTTL,
// so the table stays bounded even though clients choose the ids.
type Registry struct {
	mu      sync.RWMutex
	rooms   map[string]*Room
	idleTTL time.Duration
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

func NewRegistry(idleTTL time.Duration) *Registry {
	r := &Registry{
		rooms:   make(map[string]*Room),
		idleTTL: idleTTL,
		stopCh:  make(chan struct{}),
	}

	r.wg.Add(1)
	go r.reapLoop()

	return r
}

// GetOrCreate returns the room for id, creating it with a fresh
// starting position when unseen. Concurrent first-joiners of the same
// id always receive the same *Room.
func (r *Registry) GetOrCreate(id string) (*Room, error) {
	if id == "" {
		return nil, ErrEmptyRoomID
	}

	r.mu.RLock()
	room, ok := r.rooms[id]
	r.mu.RUnlock()
	if ok {
		return room, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// re-check: another joiner may have created it between the locks
	if room, ok := r.rooms[id]; ok {
		return room, nil
	}

	room = NewRoom(id)
	r.rooms[id] = room
	logger.L().Info("room created", zap.String("room_id", id))

	return room, nil
}

// Get returns the room for id if it exists.
func (r *Registry) Get(id string) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	return room, ok
}

// Count reports the number of live rooms.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Stop terminates the reap loop.
func (r *Registry) Stop() {
	close(r.stopCh)
	r.wg.Wait()
}

func (r *Registry) reapLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Reap()
		case <-r.stopCh:
			return
		}
	}
}

// Reap evicts rooms that have been empty longer than the idle TTL. It
// is exported so tests can trigger a sweep without waiting on the
// ticker.
func (r *Registry) Reap() {
	r.mu.RLock()
	var stale []string
	for id, room := range r.rooms {
		if room.expired(r.idleTTL) {
			stale = append(stale, id)
		}
	}
	r.mu.RUnlock()

	if len(stale) == 0 {
		return
	}

	r.mu.Lock()
	for _, id := range stale {
		// re-check under the write lock: a client may have joined
		// since the scan
		if room, ok := r.rooms[id]; ok && room.expired(r.idleTTL) {
			delete(r.rooms, id)
			logger.L().Info("idle room reaped", zap.String("room_id", id))
		}
	}
	r.mu.Unlock()
}
