package eventbus

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/suthee/kinarai/core/internal/model"
)

var ErrChannelClosed = errors.New("event channel closed")

const subscriberBuffer = 256

// Channel is the room-scoped publish/subscribe transport. Implemented
// in-process by Bus; the websocket hub bridges it to browsers.
type Channel interface {
	Subscribe(roomID model.RoomID, subscriberID string) (<-chan Event, error)
	Unsubscribe(roomID model.RoomID, subscriberID string)
	Publish(roomID model.RoomID, event Event) error
}

type subscriber struct {
	ch chan Event
}

// Bus delivers events to every subscriber of a room in publish order.
// Subscribing twice with the same subscriber ID yields the same stream,
// never duplicate delivery.
type Bus struct {
	mu     sync.Mutex
	rooms  map[model.RoomID]map[string]*subscriber
	closed bool

	logger *slog.Logger
}

func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		rooms:  make(map[model.RoomID]map[string]*subscriber),
		logger: logger,
	}
}

func (b *Bus) Subscribe(roomID model.RoomID, subscriberID string) (<-chan Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrChannelClosed
	}

	if _, ok := b.rooms[roomID]; !ok {
		b.rooms[roomID] = make(map[string]*subscriber)
	}
	if sub, ok := b.rooms[roomID][subscriberID]; ok {
		return sub.ch, nil
	}

	sub := &subscriber{ch: make(chan Event, subscriberBuffer)}
	b.rooms[roomID][subscriberID] = sub

	b.logger.Info("subscriber registered", "room_id", roomID, "subscriber", subscriberID)
	return sub.ch, nil
}

func (b *Bus) Unsubscribe(roomID model.RoomID, subscriberID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	room, ok := b.rooms[roomID]
	if !ok {
		return
	}
	sub, ok := room[subscriberID]
	if !ok {
		return
	}

	delete(room, subscriberID)
	close(sub.ch)
	if len(room) == 0 {
		delete(b.rooms, roomID)
	}

	b.logger.Info("subscriber removed", "room_id", roomID, "subscriber", subscriberID)
}

// Publish fans the event out to the room. Events are applied in the
// order received; a slow subscriber with a full buffer is dropped
// rather than allowed to stall the room.
func (b *Bus) Publish(roomID model.RoomID, event Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrChannelClosed
	}

	for id, sub := range b.rooms[roomID] {
		select {
		case sub.ch <- event:
		default:
			delete(b.rooms[roomID], id)
			close(sub.ch)
			b.logger.Error("subscriber dropped, buffer full", "room_id", roomID, "subscriber", id)
		}
	}
	return nil
}

func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for roomID, room := range b.rooms {
		for id, sub := range room {
			close(sub.ch)
			delete(room, id)
		}
		delete(b.rooms, roomID)
	}
}

// SubscriberCount reports live subscribers of a room.
func (b *Bus) SubscriberCount(roomID model.RoomID) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.rooms[roomID])
}
