package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/judgegodwins/chess-rooms/game"
	"github.com/judgegodwins/chess-rooms/logger"
	"github.com/judgegodwins/chess-rooms/util"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Manager owns the live connections and the room -> clients grouping
// used for fan-out. Game semantics live in the registry's rooms; the
// manager only moves messages.
type Manager struct {
	sync.RWMutex
	clients  map[string]*Client
	rooms    map[string][]*Client
	handlers map[string]EventHandler
	registry *game.Registry
	validate *validator.Validate
	upgrader websocket.Upgrader
}

func NewManager(config *util.Config, registry *game.Registry) *Manager {
	m := &Manager{
		clients:  make(map[string]*Client),
		rooms:    make(map[string][]*Client),
		handlers: make(map[string]EventHandler),
		registry: registry,
		validate: validator.New(),
	}

	m.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(config.AllowedOrigins),
	}

	m.setupEventHandlers()

	return m
}

func (m *Manager) setupEventHandlers() {
	m.handlers[EventJoinRoom] = JoinRoomHandler
	m.handlers[EventMove] = MoveHandler
}

func (m *Manager) routeEvent(evt Event, c *Client) error {
	handler, ok := m.handlers[evt.Type]
	if !ok {
		return errors.New("cannot handle this event")
	}

	return handler(evt, c)
}

// Websocket connection handler.
func (m *Manager) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.L().Error("websocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(conn, m)
	m.addClient(client)

	logger.L().Info("client connected", zap.String("socket_id", client.SocketID))

	ctx, cancel := context.WithCancel(r.Context())

	defer func() {
		cancel()
		m.removeClient(client)
		err := client.connection.WriteMessage(websocket.CloseMessage, nil)
		if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			logger.L().Debug("close message not sent", zap.Error(err))
		}
	}()

	go client.readMessages(ctx)
	go client.writeMessages(ctx)

	err = <-client.Err()

	logger.L().Info("client disconnected", zap.String("socket_id", client.SocketID), zap.Error(err))
}

func (m *Manager) addClient(client *Client) {
	m.Lock()
	defer m.Unlock()

	m.clients[client.SocketID] = client
}

// removeClient releases any seat the connection held, removes it from
// its room group and closes the socket. The room itself survives for
// the remaining participants; teardown of empty rooms is the
// registry's job.
func (m *Manager) removeClient(client *Client) {
	if roomID := client.Room(); roomID != "" {
		if room, ok := m.registry.Get(roomID); ok {
			room.Release(client.SocketID)
		}
		m.leaveRoom(roomID, client)
		client.setRoom("")
	}

	m.Lock()
	defer m.Unlock()

	if _, ok := m.clients[client.SocketID]; ok {
		client.connection.Close()
		delete(m.clients, client.SocketID)
	}
}

// joinRoom adds the client to the room's broadcast group.
func (m *Manager) joinRoom(roomID string, client *Client) {
	m.Lock()
	defer m.Unlock()

	group := m.rooms[roomID]

	if !lo.Contains(group, client) {
		m.rooms[roomID] = append(group, client)
	}
}

// leaveRoom removes the client from the room's broadcast group,
// dropping the group entirely once empty.
func (m *Manager) leaveRoom(roomID string, client *Client) {
	m.Lock()
	defer m.Unlock()

	group, ok := m.rooms[roomID]
	if !ok {
		return
	}

	group = lo.Without(group, client)

	if len(group) == 0 {
		delete(m.rooms, roomID)
		return
	}

	m.rooms[roomID] = group
}

// EmitToRoom queues an event for every connection currently joined to
// the room. Sends never block; see Client.Push.
func (m *Manager) EmitToRoom(roomID string, evt Event) {
	m.RLock()
	group := m.rooms[roomID]
	m.RUnlock()

	for _, client := range group {
		client.Push(evt)
	}
}

// Fanout exposes the manager as the room layer's broadcaster.
func (m *Manager) Fanout() game.Broadcaster {
	return fanout{m: m}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		// no configured origins means same-machine development setup
		if len(allowed) == 0 {
			return true
		}
		return lo.Contains(allowed, r.Header.Get("Origin"))
	}
}
