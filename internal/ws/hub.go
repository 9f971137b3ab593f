package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"group-service/internal/models"
	"group-service/internal/observability"
)

// Hub maintains the active activity-feed subscriptions, one room per
// group.
type Hub struct {
	rooms    map[int]map[*websocket.Conn]bool
	connInfo map[int]map[*websocket.Conn]ConnInfo
	mu       sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms:    make(map[int]map[*websocket.Conn]bool),
		connInfo: make(map[int]map[*websocket.Conn]ConnInfo),
	}
}

// AddClient registers a websocket connection to a group's feed.
func (h *Hub) AddClient(groupID int, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[groupID]; !ok {
		h.rooms[groupID] = make(map[*websocket.Conn]bool)
	}
	h.rooms[groupID][conn] = true
	if _, ok := h.connInfo[groupID]; !ok {
		h.connInfo[groupID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.connInfo[groupID][conn] = info
}

// RemoveClient removes a feed connection.
func (h *Hub) RemoveClient(groupID int, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[groupID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, groupID)
		}
	}
	if infos, ok := h.connInfo[groupID]; ok {
		delete(infos, conn)
		if len(infos) == 0 {
			delete(h.connInfo, groupID)
		}
	}
}

// BroadcastPostCreated notifies feed subscribers of a new post.
func (h *Hub) BroadcastPostCreated(groupID int, post models.Post) {
	h.broadcast(groupID, models.ActivityEvent{Type: "post_created", GroupID: groupID, Post: &post})
}

// BroadcastCommentCreated notifies feed subscribers of a new comment.
func (h *Hub) BroadcastCommentCreated(groupID int, comment models.Comment) {
	h.broadcast(groupID, models.ActivityEvent{Type: "comment_created", GroupID: groupID, Comment: &comment})
}

// BroadcastBadgeAwarded notifies feed subscribers of a badge award.
func (h *Hub) BroadcastBadgeAwarded(groupID int, badge string) {
	h.broadcast(groupID, models.ActivityEvent{Type: "badge_awarded", GroupID: groupID, Badge: badge})
}

func (h *Hub) broadcast(groupID int, event models.ActivityEvent) {
	h.mu.RLock()
	conns := h.rooms[groupID]
	h.mu.RUnlock()

	payload, _ := json.Marshal(event)
	for conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			conn.Close()
			h.RemoveClient(groupID, conn)
			h.publishWSError(groupID, conn, err)
		}
	}
	observability.IncWSEvent(event.Type)
}

func (h *Hub) publishWSError(groupID int, conn *websocket.Conn, err error) {
	info, ok := h.getConnInfo(groupID, conn)
	if !ok {
		return
	}

	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"group_id":    groupID,
			"event":       "ws_error",
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      err.Error(),
		},
		"identity": map[string]interface{}{
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), "ws_events.groups", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   payload,
	}, headers)
	observability.IncWSEvent("ws_error")
}

func (h *Hub) getConnInfo(groupID int, conn *websocket.Conn) (ConnInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if infos, ok := h.connInfo[groupID]; ok {
		info, exists := infos[conn]
		return info, exists
	}
	return ConnInfo{}, false
}
