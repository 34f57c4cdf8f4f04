package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/judgegodwins/chess-rooms/logger"
	"go.uber.org/zap"
)

var (
	pongWait     = 10 * time.Second
	pingInterval = (pongWait * 9) / 10
)

// egress is buffered so that room broadcasts never block: a stalled
// consumer gets events dropped instead of stalling the whole room.
const egressSize = 32

// Client is one live websocket connection.
type Client struct {
	SocketID   string
	connection *websocket.Conn
	manager    *Manager
	egress     chan Event
	err        chan error

	mu   sync.Mutex
	room string
}

func NewClient(conn *websocket.Conn, manager *Manager) *Client {
	return &Client{
		SocketID:   uuid.NewString(),
		connection: conn,
		manager:    manager,
		egress:     make(chan Event, egressSize),
		err:        make(chan error, 1),
	}
}

// Room returns the id of the room this connection has joined, or ""
// while unjoined.
func (c *Client) Room() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

func (c *Client) setRoom(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.room = id
}

// Reads incoming messages from the client's websocket connection and
// routes them through the manager's handler table.
func (c *Client) readMessages(ctx context.Context) {
	c.connection.SetReadLimit(512)

	if err := c.connection.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.handleError(err)
		return
	}

	c.connection.SetPongHandler(c.pongHandler)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, payload, err := c.connection.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
					logger.L().Warn("unexpected socket closure", zap.String("socket_id", c.SocketID), zap.Error(err))
				}
				c.handleError(err)
				return
			}

			var evt Event

			if err := json.Unmarshal(payload, &evt); err != nil {
				c.pushError("cannot unmarshal json payload")
				continue
			}

			if err := c.manager.routeEvent(evt, c); err != nil {
				logger.L().Debug("event rejected",
					zap.String("socket_id", c.SocketID),
					zap.String("event", evt.Type),
					zap.Error(err),
				)
				c.pushError(err.Error())
			}
		}
	}
}

// Writes messages pushed to the client's egress channel and keeps the
// connection alive with pings.
func (c *Client) writeMessages(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-c.egress:
			data, err := json.Marshal(event)
			if err != nil {
				logger.L().Error("marshal outbound event", zap.String("event", event.Type), zap.Error(err))
				continue
			}

			if err := c.connection.WriteMessage(websocket.TextMessage, data); err != nil {
				c.handleError(err)
				return
			}
		case <-ticker.C:
			if err := c.connection.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				c.handleError(err)
				return
			}
		}
	}
}

// Sets a new read deadline when a pong arrives for a ping message.
func (c *Client) pongHandler(string) error {
	return c.connection.SetReadDeadline(time.Now().Add(pongWait))
}

// handleError wakes the connection handler, which tears the client
// down. The channel is buffered so both pumps can report without
// blocking each other.
func (c *Client) handleError(e error) {
	select {
	case c.err <- e:
	default:
	}
}

// Err is the channel the connection handler blocks on.
func (c *Client) Err() chan error {
	return c.err
}

// pushError sends an error event to this client only.
func (c *Client) pushError(reason string) {
	evt, err := NewErrorEvent(reason)
	if err != nil {
		logger.L().Error("build error event", zap.Error(err))
		return
	}
	c.Push(evt)
}

// PushEvent builds an event and queues it for delivery to this client.
func (c *Client) PushEvent(evtType string, payload any) error {
	evt, err := NewEvent(evtType, payload)
	if err != nil {
		return err
	}
	c.Push(evt)
	return nil
}

// Push queues an event without blocking; events to a full egress are
// dropped rather than holding up the caller.
func (c *Client) Push(evt Event) {
	select {
	case c.egress <- evt:
	default:
		logger.L().Warn("egress full, dropping event",
			zap.String("socket_id", c.SocketID),
			zap.String("event", evt.Type),
		)
	}
}
