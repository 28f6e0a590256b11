package infra_memory_room

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/suthee/kinarai/core/internal/model"
	usecase_room "github.com/suthee/kinarai/core/internal/usecase/room"
)

// Driver is the process-local room store. Rooms live for the lifetime
// of the service, which is all the game promises.
type Driver struct {
	mu    sync.RWMutex
	rooms map[model.RoomID]*model.Room
}

func New() *Driver {
	return &Driver{
		rooms: make(map[model.RoomID]*model.Room),
	}
}

func (d *Driver) Create(ctx context.Context, room model.Room) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.rooms[room.ID]; exists {
		return usecase_room.ErrCodeConflict
	}

	stored := cloneRoom(room)
	d.rooms[room.ID] = &stored
	return nil
}

func (d *Driver) ByID(ctx context.Context, id model.RoomID) (model.Room, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	room, exists := d.rooms[id]
	if !exists {
		return model.Room{}, usecase_room.ErrResourceNotFound
	}
	return cloneRoom(*room), nil
}

func (d *Driver) AddUser(ctx context.Context, id model.RoomID, user model.RoomUser) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, exists := d.rooms[id]
	if !exists {
		return usecase_room.ErrResourceNotFound
	}
	room.Users = append(room.Users, user)
	return nil
}

func (d *Driver) UpdateUser(ctx context.Context, id model.RoomID, user model.RoomUser) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, exists := d.rooms[id]
	if !exists {
		return usecase_room.ErrResourceNotFound
	}
	for i := range room.Users {
		if room.Users[i].ID == user.ID {
			room.Users[i] = user
			return nil
		}
	}
	return usecase_room.ErrResourceNotFound
}

func (d *Driver) RemoveUser(ctx context.Context, id model.RoomID, userID uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, exists := d.rooms[id]
	if !exists {
		return usecase_room.ErrResourceNotFound
	}
	for i := range room.Users {
		if room.Users[i].ID == userID {
			room.Users = append(room.Users[:i], room.Users[i+1:]...)
			return nil
		}
	}
	return usecase_room.ErrResourceNotFound
}

func (d *Driver) SetOwner(ctx context.Context, id model.RoomID, ownerID uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, exists := d.rooms[id]
	if !exists {
		return usecase_room.ErrResourceNotFound
	}
	room.OwnerID = ownerID
	return nil
}

func (d *Driver) SetPhase(ctx context.Context, id model.RoomID, phase model.Phase) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, exists := d.rooms[id]
	if !exists {
		return usecase_room.ErrResourceNotFound
	}
	room.Phase = phase
	return nil
}

func (d *Driver) Delete(ctx context.Context, id model.RoomID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.rooms[id]; !exists {
		return usecase_room.ErrResourceNotFound
	}
	delete(d.rooms, id)
	return nil
}

func cloneRoom(room model.Room) model.Room {
	clone := room
	clone.Users = make([]model.RoomUser, len(room.Users))
	copy(clone.Users, room.Users)
	return clone
}
