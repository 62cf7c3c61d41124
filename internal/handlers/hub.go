package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/sirupsen/logrus"

	"github.com/pegboard/cribbage/engine"
)

// Notification is one follow-up message pushed to a game's subscribers.
type Notification struct {
	GameHistoryID int64               `json:"gameHistoryId"`
	Message       string              `json:"message"`
	Snapshot      *engine.Description `json:"snapshot,omitempty"`
	Timestamp     int64               `json:"timestamp"`
}

// Hub fans follow-up notifications out to websocket subscribers, keyed by
// game-history ID. It satisfies the registry's NotifyFn.
type Hub struct {
	mu   sync.RWMutex
	subs map[int64]map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int64]map[*websocket.Conn]struct{})}
}

// Notify pushes a follow-up to every subscriber of the game. Slow or dead
// subscribers are dropped; delivery is best effort.
func (h *Hub) Notify(gameHistoryID int64, message string, snapshot *engine.Description) {
	n := Notification{
		GameHistoryID: gameHistoryID,
		Message:       message,
		Snapshot:      snapshot,
		Timestamp:     time.Now().UnixMilli(),
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.subs[gameHistoryID]))
	for c := range h.subs[gameHistoryID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := wsjson.Write(ctx, c, n)
		cancel()
		if err != nil {
			logrus.WithError(err).WithField("gameHistoryId", gameHistoryID).
				Warn("hub: dropping subscriber")
			h.unsubscribe(gameHistoryID, c)
			c.Close(websocket.StatusPolicyViolation, "write failed")
		}
	}
}

func (h *Hub) subscribe(gameHistoryID int64, c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[gameHistoryID] == nil {
		h.subs[gameHistoryID] = make(map[*websocket.Conn]struct{})
	}
	h.subs[gameHistoryID][c] = struct{}{}
}

func (h *Hub) unsubscribe(gameHistoryID int64, c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[gameHistoryID], c)
	if len(h.subs[gameHistoryID]) == 0 {
		delete(h.subs, gameHistoryID)
	}
}
