package ws_room

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/suthee/kinarai/core/internal/eventbus"
	"github.com/suthee/kinarai/core/internal/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS handled upstream
	},
}

type Controller struct {
	hub    *Hub
	logger *slog.Logger
}

func NewController(hub *Hub) *Controller {
	return &Controller{
		hub:    hub,
		logger: slog.Default(),
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/rooms/:room_id/ws", c.connect)
}

// connect upgrades the request and attaches the caller to the room's
// event stream. user_id comes from the query so reconnects keep their
// identity.
func (c *Controller) connect(ctx *gin.Context) {
	roomID := model.RoomID(ctx.Param("room_id"))
	userID := ctx.Query("user_id")

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.logger.Error("websocket upgrade failed", "error", err, "room_id", roomID)
		return
	}

	client := &Client{
		hub:    c.hub,
		conn:   conn,
		send:   make(chan eventbus.Event, 64),
		userID: userID,
		roomID: roomID,
	}

	c.hub.register <- client

	go client.writePump()
	go client.readPump()
}
