package ws_room

import (
	"github.com/gorilla/websocket"

	"github.com/suthee/kinarai/core/internal/eventbus"
	"github.com/suthee/kinarai/core/internal/model"
)

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan eventbus.Event
	userID string
	roomID model.RoomID
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		c.hub.handleInbound(c, raw)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for event := range c.send {
		if err := c.conn.WriteJSON(event); err != nil {
			break
		}
	}
}
