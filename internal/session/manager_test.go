package session

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suthee/kinarai/core/internal/eventbus"
	"github.com/suthee/kinarai/core/internal/model"
)

const roomID = model.RoomID("AB12CD")

type stubLoader struct {
	room model.Room
	err  error
}

func (s stubLoader) Room(_ context.Context, _ model.RoomID) (model.Room, error) {
	return s.room, s.err
}

func fixtureRoom(self uuid.UUID) model.Room {
	return model.Room{
		ID:      roomID,
		Name:    "ห้องของ Alice",
		OwnerID: self,
		Phase:   model.PhaseLobby,
		Users: []model.RoomUser{
			{ID: self, Name: "Alice"},
		},
	}
}

func newManager(t *testing.T) (*Manager, *eventbus.Bus, uuid.UUID) {
	t.Helper()

	self := uuid.New()
	bus := eventbus.New(slog.Default())
	manager := New(stubLoader{room: fixtureRoom(self)}, bus, roomID, self, slog.Default())

	_, err := manager.Load(context.Background())
	require.NoError(t, err)
	return manager, bus, self
}

func TestLoadExposesSnapshot(t *testing.T) {
	manager, _, self := newManager(t)

	snapshot, loaded := manager.Snapshot()
	assert.True(t, loaded)
	assert.Equal(t, roomID, snapshot.ID)
	assert.Equal(t, self, snapshot.OwnerID)
	assert.Len(t, snapshot.Users, 1)
}

func TestStartAnnouncesJoin(t *testing.T) {
	manager, bus, self := newManager(t)

	observer, err := bus.Subscribe(roomID, "observer")
	require.NoError(t, err)
	defer bus.Unsubscribe(roomID, "observer")

	require.NoError(t, manager.Start())
	defer manager.Close()

	event := <-observer
	assert.Equal(t, eventbus.EventJoinRoom, event.Type)
	assert.Equal(t, self, event.Payload)
	assert.True(t, manager.Connected())

	// Second Start changes nothing.
	require.NoError(t, manager.Start())
	assert.Equal(t, 2, bus.SubscriberCount(roomID))
}

func TestEventsApplyInArrivalOrder(t *testing.T) {
	manager, bus, _ := newManager(t)

	require.NoError(t, manager.Start())
	defer manager.Close()

	bob := model.RoomUser{ID: uuid.New(), Name: "Bob"}
	require.NoError(t, bus.Publish(roomID, eventbus.Event{
		Type:    eventbus.EventUserJoined,
		RoomID:  roomID,
		Payload: bob,
	}))
	require.NoError(t, bus.Publish(roomID, eventbus.Event{
		Type:   eventbus.EventUserStatusUpdated,
		RoomID: roomID,
		Payload: eventbus.UserStatusPayload{
			UserID:     bob.ID,
			Ready:      true,
			Categories: []string{"thai", "dessert"},
		},
	}))

	assert.Eventually(t, func() bool {
		snapshot, _ := manager.Snapshot()
		user, ok := snapshot.User(bob.ID)
		return ok && user.Ready && len(user.Categories) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestUpdateStatusIsOptimisticAndForwarded(t *testing.T) {
	manager, bus, self := newManager(t)

	observer, err := bus.Subscribe(roomID, "observer")
	require.NoError(t, err)
	defer bus.Unsubscribe(roomID, "observer")

	require.NoError(t, manager.Start())
	defer manager.Close()
	<-observer // join-room

	require.NoError(t, manager.UpdateStatus(self, true, []string{"japanese"}))

	// Local state flips before any round trip.
	snapshot, _ := manager.Snapshot()
	user, ok := snapshot.User(self)
	require.True(t, ok)
	assert.True(t, user.Ready)
	assert.Equal(t, []string{"japanese"}, user.Categories)

	event := <-observer
	require.Equal(t, eventbus.EventUpdateUserStatus, event.Type)
	status, ok := event.Payload.(eventbus.UserStatusPayload)
	require.True(t, ok)
	assert.Equal(t, self, status.UserID)
	assert.True(t, status.Ready)
}

func TestReadyUserCategoriesStayFrozen(t *testing.T) {
	manager, _, self := newManager(t)

	require.NoError(t, manager.UpdateStatus(self, true, []string{"thai"}))
	require.NoError(t, manager.UpdateStatus(self, true, []string{"indian"}))

	snapshot, _ := manager.Snapshot()
	user, _ := snapshot.User(self)
	assert.Equal(t, []string{"thai"}, user.Categories)

	// Unready first, then the change lands.
	require.NoError(t, manager.UpdateStatus(self, false, nil))
	require.NoError(t, manager.UpdateStatus(self, true, []string{"indian"}))

	snapshot, _ = manager.Snapshot()
	user, _ = snapshot.User(self)
	assert.Equal(t, []string{"indian"}, user.Categories)
}

func TestUpdateStatusBeforeLoadFails(t *testing.T) {
	bus := eventbus.New(slog.Default())
	manager := New(stubLoader{}, bus, roomID, uuid.New(), slog.Default())

	err := manager.UpdateStatus(uuid.New(), true, nil)
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestUserLeftDropsUser(t *testing.T) {
	manager, bus, _ := newManager(t)

	require.NoError(t, manager.Start())
	defer manager.Close()

	bob := model.RoomUser{ID: uuid.New(), Name: "Bob"}
	require.NoError(t, bus.Publish(roomID, eventbus.Event{
		Type:    eventbus.EventUserJoined,
		RoomID:  roomID,
		Payload: bob,
	}))
	require.NoError(t, bus.Publish(roomID, eventbus.Event{
		Type:    eventbus.EventUserLeft,
		RoomID:  roomID,
		Payload: bob.ID,
	}))

	assert.Eventually(t, func() bool {
		snapshot, _ := manager.Snapshot()
		_, ok := snapshot.User(bob.ID)
		return !ok && len(snapshot.Users) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestSelectionResultIsRetained(t *testing.T) {
	manager, bus, _ := newManager(t)

	require.NoError(t, manager.Start())
	defer manager.Close()

	_, ok := manager.LastResult()
	assert.False(t, ok)

	result := model.SelectionResult{
		RoomID:  roomID,
		Items:   model.Pool{{ID: "thai", Name: "อาหารไทย"}},
		DrawnAt: time.Now(),
	}
	require.NoError(t, bus.Publish(roomID, eventbus.Event{
		Type:    eventbus.EventSelectionResult,
		RoomID:  roomID,
		Payload: result,
	}))

	assert.Eventually(t, func() bool {
		got, ok := manager.LastResult()
		return ok && len(got.Items) == 1 && got.Items[0].ID == "thai"
	}, time.Second, 5*time.Millisecond)
}

func TestCloseAnnouncesLeaveOnce(t *testing.T) {
	manager, bus, self := newManager(t)

	observer, err := bus.Subscribe(roomID, "observer")
	require.NoError(t, err)
	defer bus.Unsubscribe(roomID, "observer")

	require.NoError(t, manager.Start())
	<-observer // join-room

	manager.Close()
	manager.Close()

	event := <-observer
	assert.Equal(t, eventbus.EventLeaveRoom, event.Type)
	assert.Equal(t, self, event.Payload)
	assert.Empty(t, observer)
	assert.False(t, manager.Connected())
	assert.Equal(t, 1, bus.SubscriberCount(roomID))
}
