package eventbus

import (
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suthee/kinarai/core/internal/model"
)

const room = model.RoomID("AB12CD")

func TestPublishReachesEveryRoomSubscriber(t *testing.T) {
	bus := New(slog.Default())

	alice, err := bus.Subscribe(room, "alice")
	require.NoError(t, err)
	bob, err := bus.Subscribe(room, "bob")
	require.NoError(t, err)
	other, err := bus.Subscribe("ZZ99ZZ", "carl")
	require.NoError(t, err)

	require.NoError(t, bus.Publish(room, Event{Type: EventRoomUpdated, RoomID: room}))

	assert.Equal(t, EventRoomUpdated, (<-alice).Type)
	assert.Equal(t, EventRoomUpdated, (<-bob).Type)
	assert.Empty(t, other)
}

func TestDeliveryKeepsPublishOrder(t *testing.T) {
	bus := New(slog.Default())

	events, err := bus.Subscribe(room, "alice")
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		require.NoError(t, bus.Publish(room, Event{
			Type:    EventUserStatusUpdated,
			RoomID:  room,
			Payload: i,
		}))
	}

	for i := 0; i < 100; i++ {
		assert.Equal(t, i, (<-events).Payload)
	}
}

func TestSubscribeTwiceDeliversOnce(t *testing.T) {
	bus := New(slog.Default())

	first, err := bus.Subscribe(room, "alice")
	require.NoError(t, err)
	second, err := bus.Subscribe(room, "alice")
	require.NoError(t, err)

	assert.Equal(t, 1, bus.SubscriberCount(room))
	require.NoError(t, bus.Publish(room, Event{Type: EventUserJoined, RoomID: room}))

	// Same stream, one event.
	assert.Len(t, first, 1)
	assert.Len(t, second, 1)
	<-first
	assert.Empty(t, second)
}

func TestUnsubscribeOnceLeavesNothingDangling(t *testing.T) {
	bus := New(slog.Default())

	events, err := bus.Subscribe(room, "alice")
	require.NoError(t, err)
	_, err = bus.Subscribe(room, "alice")
	require.NoError(t, err)

	bus.Unsubscribe(room, "alice")

	assert.Equal(t, 0, bus.SubscriberCount(room))
	_, open := <-events
	assert.False(t, open)

	// Second unsubscribe is a no-op.
	bus.Unsubscribe(room, "alice")
}

func TestPublishAfterCloseFails(t *testing.T) {
	bus := New(slog.Default())

	events, err := bus.Subscribe(room, "alice")
	require.NoError(t, err)

	bus.Close()

	_, open := <-events
	assert.False(t, open)
	assert.ErrorIs(t, bus.Publish(room, Event{Type: EventRoomUpdated}), ErrChannelClosed)
	_, err = bus.Subscribe(room, "bob")
	assert.ErrorIs(t, err, ErrChannelClosed)
}

func TestSlowSubscriberIsDroppedNotBlocking(t *testing.T) {
	bus := New(slog.Default())

	_, err := bus.Subscribe(room, "slow")
	require.NoError(t, err)

	for i := 0; i < subscriberBuffer+10; i++ {
		require.NoError(t, bus.Publish(room, Event{
			Type:    EventSelectionTick,
			RoomID:  room,
			Payload: fmt.Sprintf("tick-%d", i),
		}))
	}

	assert.Equal(t, 0, bus.SubscriberCount(room))
}
