package ws

import (
	"github.com/judgegodwins/chess-rooms/logger"
	"github.com/judgegodwins/chess-rooms/rules"
	"go.uber.org/zap"
)

// fanout adapts the manager's room grouping to the game layer's
// Broadcaster. Rooms invoke it while holding their lock, so delivery
// order per room matches move acceptance order.
type fanout struct {
	m *Manager
}

func (f fanout) MoveApplied(roomID string, mv rules.Move, _ string) {
	f.emit(roomID, EventMove, mv)
}

func (f fanout) BoardState(roomID string, fen string) {
	f.emit(roomID, EventBoardState, fen)
}

func (f fanout) PieceCaptured(roomID string, capture rules.Capture) {
	f.emit(roomID, EventCapture, capture)
}

func (f fanout) emit(roomID, evtType string, payload any) {
	evt, err := NewEvent(evtType, payload)
	if err != nil {
		logger.L().Error("build broadcast event", zap.String("event", evtType), zap.Error(err))
		return
	}
	f.m.EmitToRoom(roomID, evt)
}
