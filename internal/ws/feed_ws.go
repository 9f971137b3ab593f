package ws

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"group-service/internal/observability"
	"group-service/internal/repositories"
)

// FeedHandler upgrades websocket connections onto a group's activity
// feed.
type FeedHandler struct {
	hub    *Hub
	groups repositories.GroupRepository
}

// NewFeedHandler constructs a FeedHandler.
func NewFeedHandler(hub *Hub, groups repositories.GroupRepository) *FeedHandler {
	return &FeedHandler{hub: hub, groups: groups}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and subscribes it to the group feed.
func (h *FeedHandler) Handle(c *gin.Context) {
	groupID, err := strconv.Atoi(c.Param("group_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	ctx, span := otel.Tracer("group-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	if _, err := h.groups.GetGroup(c.Request.Context(), groupID); err != nil {
		if errors.Is(err, repositories.ErrGroupNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load group"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.AddClient(groupID, conn, info)
	observability.IncWSActive()

	go func() {
		defer func() {
			h.hub.RemoveClient(groupID, conn)
			conn.Close()
			observability.DecWSActive()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
