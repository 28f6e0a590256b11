package ws_room

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/suthee/kinarai/core/internal/eventbus"
	"github.com/suthee/kinarai/core/internal/model"
	usecase_room "github.com/suthee/kinarai/core/internal/usecase/room"
)

// Hub bridges the event channel to websocket participants. It holds one
// bus subscription per room with at least one connected client and fans
// incoming events out to every client of that room.
type Hub struct {
	usecase *usecase_room.Usecase
	channel eventbus.Channel
	logger  *slog.Logger

	clients map[*Client]bool
	rooms   map[model.RoomID]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub(usecase *usecase_room.Usecase, channel eventbus.Channel) *Hub {
	return &Hub{
		usecase:    usecase,
		channel:    channel,
		logger:     slog.Default(),
		clients:    make(map[*Client]bool),
		rooms:      make(map[model.RoomID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	if _, exists := h.rooms[client.roomID]; !exists {
		h.rooms[client.roomID] = make(map[*Client]bool)

		events, err := h.channel.Subscribe(client.roomID, h.subscriberID(client.roomID))
		if err != nil {
			h.logger.Error("room subscription failed", "error", err, "room_id", client.roomID)
		} else {
			go h.forward(client.roomID, events)
		}
	}
	h.rooms[client.roomID][client] = true

	h.logger.Info("client registered",
		"user_id", client.userID,
		"room_id", client.roomID)
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)

	roomClients, exists := h.rooms[client.roomID]
	if !exists {
		return
	}
	delete(roomClients, client)
	if len(roomClients) == 0 {
		delete(h.rooms, client.roomID)
		h.channel.Unsubscribe(client.roomID, h.subscriberID(client.roomID))
	}

	h.logger.Info("client unregistered",
		"user_id", client.userID,
		"room_id", client.roomID)
}

// forward runs until the bus subscription is torn down.
func (h *Hub) forward(roomID model.RoomID, events <-chan eventbus.Event) {
	for event := range events {
		h.broadcastToRoom(roomID, event)
	}
	h.logger.Info("room event stream closed", "room_id", roomID)
}

func (h *Hub) broadcastToRoom(roomID model.RoomID, event eventbus.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if roomClients, exists := h.rooms[roomID]; exists {
		for client := range roomClients {
			select {
			case client.send <- event:
			default:
				// Slow consumer. The read pump will unregister it.
				h.logger.Error("client send buffer full", "user_id", client.userID, "room_id", roomID)
			}
		}
	}
}

func (h *Hub) subscriberID(roomID model.RoomID) string {
	return "hub:" + string(roomID)
}

type statusFrame struct {
	UserID     string   `json:"user_id"`
	Ready      bool     `json:"ready"`
	Categories []string `json:"categories"`
}

// handleInbound applies one client frame. Unknown types are dropped,
// failures are reported back to the sender only.
func (h *Hub) handleInbound(client *Client, raw []byte) {
	var frame struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(raw, &frame); err != nil {
		h.logger.Error("bad frame", "error", err, "user_id", client.userID)
		return
	}

	switch frame.Type {
	case eventbus.EventUpdateUserStatus:
		h.handleStatusUpdate(client, frame.Payload)

	case eventbus.EventLeaveRoom:
		h.handleLeave(client)

	case eventbus.EventJoinRoom:
		// Already attached through the connection URL.

	default:
		h.logger.Info("unknown frame type dropped", "type", frame.Type, "user_id", client.userID)
	}
}

func (h *Hub) handleStatusUpdate(client *Client, payload json.RawMessage) {
	var frame statusFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		h.sendError(client, "invalid status payload")
		return
	}
	userID, err := uuid.Parse(frame.UserID)
	if err != nil {
		h.sendError(client, "invalid user id")
		return
	}

	user, err := h.usecase.UpdateStatus(context.Background(), client.roomID, userID, frame.Ready, frame.Categories)
	if err != nil {
		h.logger.Error("status update rejected", "error", err, "room_id", client.roomID)
		h.sendError(client, "status update rejected")
		return
	}

	_ = h.channel.Publish(client.roomID, eventbus.Event{
		Type:   eventbus.EventUserStatusUpdated,
		RoomID: client.roomID,
		Payload: eventbus.UserStatusPayload{
			UserID:     user.ID,
			Ready:      user.Ready,
			Categories: user.Categories,
		},
	})
}

func (h *Hub) handleLeave(client *Client) {
	userID, err := uuid.Parse(client.userID)
	if err != nil {
		return
	}

	room, err := h.usecase.Leave(context.Background(), client.roomID, userID)
	if err != nil {
		h.logger.Error("leave rejected", "error", err, "room_id", client.roomID)
		return
	}

	_ = h.channel.Publish(client.roomID, eventbus.Event{
		Type:    eventbus.EventUserLeft,
		RoomID:  client.roomID,
		Payload: userID,
	})
	if len(room.Users) > 0 {
		_ = h.channel.Publish(client.roomID, eventbus.Event{
			Type:    eventbus.EventRoomUpdated,
			RoomID:  client.roomID,
			Payload: room,
		})
	}
}

func (h *Hub) sendError(client *Client, message string) {
	select {
	case client.send <- eventbus.Event{
		Type:    "error",
		RoomID:  client.roomID,
		Payload: map[string]string{"message": message},
	}:
	default:
	}
}
