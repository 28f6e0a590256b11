package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/suthee/kinarai/core/internal/eventbus"
	"github.com/suthee/kinarai/core/internal/model"
)

var (
	ErrNotLoaded = errors.New("room not loaded")
	ErrClosed    = errors.New("session closed")
)

type RoomLoader interface {
	Room(ctx context.Context, code model.RoomID) (model.Room, error)
}

// Manager keeps one participant's locally consistent view of a room.
// The event channel is injected; there is no ambient connection state.
// Events are applied strictly in arrival order.
type Manager struct {
	loader  RoomLoader
	channel eventbus.Channel
	logger  *slog.Logger

	roomID model.RoomID
	selfID uuid.UUID

	mu         sync.RWMutex
	room       model.Room
	loaded     bool
	connected  bool
	lastResult *model.SelectionResult

	started   bool
	events    <-chan eventbus.Event
	loopDone  chan struct{}
	closeOnce sync.Once
}

func New(loader RoomLoader, channel eventbus.Channel, roomID model.RoomID, selfID uuid.UUID, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		loader:  loader,
		channel: channel,
		logger:  logger,
		roomID:  roomID,
		selfID:  selfID,
	}
}

// Load fetches the current snapshot from the room store.
func (m *Manager) Load(ctx context.Context) (model.Room, error) {
	room, err := m.loader.Room(ctx, m.roomID)
	if err != nil {
		return model.Room{}, err
	}

	m.mu.Lock()
	m.room = room
	m.loaded = true
	m.mu.Unlock()
	return room, nil
}

// Start subscribes to the room's events and announces the join.
// Calling it twice is a no-op; the single subscription stands until
// Close.
func (m *Manager) Start() error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return nil
	}

	events, err := m.channel.Subscribe(m.roomID, m.selfID.String())
	if err != nil {
		m.connected = false
		m.mu.Unlock()
		return err
	}
	m.events = events
	m.started = true
	m.connected = true
	m.loopDone = make(chan struct{})
	m.mu.Unlock()

	go m.applyLoop()

	return m.channel.Publish(m.roomID, eventbus.Event{
		Type:    eventbus.EventJoinRoom,
		RoomID:  m.roomID,
		Payload: m.selfID,
	})
}

// Close tears the session down exactly once: unsubscribes and signals
// leave-room. Safe on every exit path.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		started := m.started
		m.mu.Unlock()

		if !started {
			return
		}

		if err := m.channel.Publish(m.roomID, eventbus.Event{
			Type:    eventbus.EventLeaveRoom,
			RoomID:  m.roomID,
			Payload: m.selfID,
		}); err != nil {
			m.logger.Error("leave-room not delivered", "error", err, "room_id", m.roomID)
		}

		m.channel.Unsubscribe(m.roomID, m.selfID.String())
		<-m.loopDone
	})
}

// UpdateStatus mutates the local snapshot optimistically, then forwards
// the change so other participants converge. On a dead channel the
// local state stands alone.
func (m *Manager) UpdateStatus(userID uuid.UUID, ready bool, categories []string) error {
	m.mu.Lock()
	if !m.loaded {
		m.mu.Unlock()
		return ErrNotLoaded
	}
	m.applyStatus(userID, ready, categories)
	m.mu.Unlock()

	err := m.channel.Publish(m.roomID, eventbus.Event{
		Type:   eventbus.EventUpdateUserStatus,
		RoomID: m.roomID,
		Payload: eventbus.UserStatusPayload{
			UserID:     userID,
			Ready:      ready,
			Categories: categories,
		},
	})
	if err != nil {
		m.mu.Lock()
		m.connected = false
		m.mu.Unlock()
		m.logger.Error("status update not delivered, keeping local state", "error", err, "room_id", m.roomID)
	}
	return nil
}

func (m *Manager) Snapshot() (model.Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneRoom(m.room), m.loaded
}

func (m *Manager) Connected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

func (m *Manager) LastResult() (model.SelectionResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lastResult == nil {
		return model.SelectionResult{}, false
	}
	return *m.lastResult, true
}

func (m *Manager) applyLoop() {
	defer close(m.loopDone)

	for event := range m.events {
		m.apply(event)
	}

	m.mu.Lock()
	m.connected = false
	m.mu.Unlock()
	m.logger.Info("event stream closed", "room_id", m.roomID)
}

func (m *Manager) apply(event eventbus.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch event.Type {
	case eventbus.EventRoomUpdated:
		if room, ok := event.Payload.(model.Room); ok {
			m.room = room
			m.loaded = true
		}

	case eventbus.EventUserJoined:
		user, ok := event.Payload.(model.RoomUser)
		if !ok {
			return
		}
		if _, exists := m.room.User(user.ID); exists {
			return
		}
		m.room.Users = append(m.room.Users, user)

	case eventbus.EventUserLeft:
		userID, ok := event.Payload.(uuid.UUID)
		if !ok {
			return
		}
		// Also the revert path: any optimistic status for a user the
		// channel reports gone disappears with the user.
		users := m.room.Users[:0]
		for _, u := range m.room.Users {
			if u.ID != userID {
				users = append(users, u)
			}
		}
		m.room.Users = users

	case eventbus.EventUserStatusUpdated, eventbus.EventUpdateUserStatus:
		if status, ok := event.Payload.(eventbus.UserStatusPayload); ok {
			m.applyStatus(status.UserID, status.Ready, status.Categories)
		}

	case eventbus.EventPhaseChanged:
		if phase, ok := event.Payload.(eventbus.PhasePayload); ok {
			m.room.Phase = phase.Phase
		}

	case eventbus.EventSelectionResult:
		if result, ok := event.Payload.(model.SelectionResult); ok {
			m.lastResult = &result
		}
	}
}

// Caller holds m.mu. Frozen categories follow the same rule the server
// enforces: a ready user's picks only move when ready flips to false.
func (m *Manager) applyStatus(userID uuid.UUID, ready bool, categories []string) {
	for i, u := range m.room.Users {
		if u.ID != userID {
			continue
		}
		frozen := u.Ready && ready
		m.room.Users[i].Ready = ready
		if categories != nil && !frozen {
			m.room.Users[i].Categories = categories
		}
		return
	}
}

func cloneRoom(room model.Room) model.Room {
	clone := room
	clone.Users = make([]model.RoomUser, len(room.Users))
	copy(clone.Users, room.Users)
	return clone
}
